// Package hostfuncs implements the functions a device host offers to
// sandboxed reference services: permission checks and platform facts.
package hostfuncs
