// Package application wires the asset provider, configuration loader, bridge
// module registry, HTTP router and metrics into a runnable server, keeping the
// main package focused on CLI parsing and orchestration.
package application
