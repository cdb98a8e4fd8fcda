// Package wazero registers host functions with a wazero runtime.
//
// Requests and responses cross the boundary as a packed i64: pointer in the
// high 32 bits, length in the low 32 bits. Responses are written into memory
// obtained from the guest's "allocate" export.
//
//	registry, _ := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.DeviceBundle(p, g)))
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithCustomHandler(wazero.LogMessageHandler(logger)),
//	)
package wazero
