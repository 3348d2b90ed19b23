// Package loader reads the bundled JSON configuration asset and decodes it
// into a value.Object. Load reports typed errors; LoadConfig is the boundary
// used by the host, which logs any failure once and returns an absence result
// instead.
package loader
