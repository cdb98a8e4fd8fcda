package ports

import "context"

// ServiceRegistry resolves logical service names to transport handles.
type ServiceRegistry interface {
	// GetService returns the handle registered under name. A nil Binder with a
	// nil error means no such service is currently registered.
	GetService(ctx context.Context, name string) (Binder, error)
}

// Binder is a transport handle to one remote service.
type Binder interface {
	// InterfaceDescriptor returns the interface identity the service implements.
	InterfaceDescriptor(ctx context.Context) (string, error)

	// Transact sends an encoded call payload and blocks for the reply payload.
	// The reply begins with the exception status marker.
	Transact(ctx context.Context, code uint32, data []byte, flags uint32) ([]byte, error)
}

// SchemaRegistry manages JSON schemas for manifest document kinds.
type SchemaRegistry interface {
	// Register adds a schema generated from a Go struct.
	Register(kind string, model interface{}) error

	// GetSchema retrieves the JSON Schema for a document kind.
	GetSchema(kind string) (string, bool)

	// List returns all registered kinds.
	List() []string
}
