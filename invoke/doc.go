// Package invoke calls privileged operations that have no compile-time
// binding. Reflective invokes a named method on an object handle already in
// hand; Session builds and sends a raw call to a remote service resolved by
// name. Both report through entities.CallResult so callers never inspect
// error types to learn whether a call was rejected.
package invoke
