// Package asset abstracts read-only files packaged with the application. A
// Provider opens an asset by name and hands back a stream of known length; the
// caller owns the stream and closes it.
package asset
