package ports

import "context"

// Platform exposes ambient facts about the device under test.
type Platform interface {
	// SDKVersion is the current platform API level.
	SDKVersion() int

	// CallerUID is the identity the prober runs as.
	CallerUID() int
}

// GrantChecker reports whether the caller currently holds a capability.
type GrantChecker interface {
	IsGranted(ctx context.Context, capability string) (bool, error)
}

// TransactionTable maps method selectors to numeric transaction codes for one
// platform version.
type TransactionTable interface {
	// Code returns the transaction code of method on the interface descriptor.
	Code(descriptor, method string) (uint32, bool)

	// ServiceName maps a logical alias to the registered service name. Unknown
	// aliases are returned unchanged.
	ServiceName(alias string) string
}
