package builtin

import (
	"embed"
	"io/fs"
)

//go:embed data
var data embed.FS

// Manifest returns the built-in probe manifest.
func Manifest() []byte {
	b, err := data.ReadFile("data/manifest.yaml")
	if err != nil {
		panic(err)
	}
	return b
}

// Tables returns the built-in transaction tables, laid out for
// transacts.Load. They hold the reference device's codes, which are the same
// on every version, so load them with transacts.WithFallback.
func Tables() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}
