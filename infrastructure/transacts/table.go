// Package transacts loads the versioned transaction-code tables that map
// remote method names to numeric call codes.
package transacts

import (
	"sort"

	"github.com/reglet-dev/permprobe/domain/ports"
)

// FirstCallTransaction is the code of the first method of an interface.
const FirstCallTransaction uint32 = 1

// Table is the transaction-code mapping of one platform version.
type Table struct {
	// Services maps logical aliases to registered service names.
	Services map[string]string `json:"services,omitempty" yaml:"services,omitempty"`

	// Methods maps interface descriptor to method name to code.
	Methods map[string]map[string]uint32 `json:"methods" yaml:"methods"`

	// SDK is the platform version the table was captured from.
	SDK int `json:"sdk,omitempty" yaml:"sdk,omitempty"`
}

var _ ports.TransactionTable = (*Table)(nil)

// New returns an empty table.
func New() *Table {
	return &Table{
		Services: make(map[string]string),
		Methods:  make(map[string]map[string]uint32),
	}
}

// Sequential returns a table for an interface whose codes follow declaration
// order starting at FirstCallTransaction.
func Sequential(descriptor string, methods ...string) *Table {
	t := New()
	codes := make(map[string]uint32, len(methods))
	for i, m := range methods {
		codes[m] = FirstCallTransaction + uint32(i)
	}
	t.Methods[descriptor] = codes
	return t
}

// Code implements ports.TransactionTable.
func (t *Table) Code(descriptor, method string) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	code, ok := t.Methods[descriptor][method]
	return code, ok
}

// ServiceName implements ports.TransactionTable.
func (t *Table) ServiceName(alias string) string {
	if t == nil {
		return alias
	}
	if name, ok := t.Services[alias]; ok {
		return name
	}
	return alias
}

// Set records a code, creating the descriptor entry as needed.
func (t *Table) Set(descriptor, method string, code uint32) *Table {
	if t.Methods == nil {
		t.Methods = make(map[string]map[string]uint32)
	}
	if t.Methods[descriptor] == nil {
		t.Methods[descriptor] = make(map[string]uint32)
	}
	t.Methods[descriptor][method] = code
	return t
}

// Alias records a service alias.
func (t *Table) Alias(alias, name string) *Table {
	if t.Services == nil {
		t.Services = make(map[string]string)
	}
	t.Services[alias] = name
	return t
}

// Merge returns a new table holding every entry of tables. Later tables win.
func Merge(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		if t.SDK > out.SDK {
			out.SDK = t.SDK
		}
		for alias, name := range t.Services {
			out.Services[alias] = name
		}
		for desc, methods := range t.Methods {
			for m, code := range methods {
				out.Set(desc, m, code)
			}
		}
	}
	return out
}

// Descriptors returns the interface descriptors in the table, sorted.
func (t *Table) Descriptors() []string {
	out := make([]string, 0, len(t.Methods))
	for d := range t.Methods {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
