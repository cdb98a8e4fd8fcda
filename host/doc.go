// Package host runs reference services compiled to WebAssembly.
//
// An Executor owns one wazero runtime with WASI and the permprobe host
// module. Each loaded service module must export:
//
//	allocate(size i32) i32
//	interface_descriptor() i64
//	transact(code i32, data i64, flags i32) i64
//
// where i64 values are packed (pointer, length) pairs. A ServiceInstance
// adapts a loaded module to ports.Binder.
package host
