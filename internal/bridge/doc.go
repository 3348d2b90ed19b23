// Package bridge exposes constants tables to the host scripting layer. Each
// Module has a fixed name and a read-only table produced once at
// initialization; the Registry hands out copies so the host cannot mutate them.
package bridge
