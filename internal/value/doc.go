// Package value models untyped JSON configuration as a tree of tagged values
// (null, bool, number, string, object, array). Accessors are explicit and fail
// with ErrTypeMismatch instead of coercing; numbers keep their literal text so
// large integers survive a round trip.
package value
