package grantstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// Checker answers grant queries from a store snapshot, loaded on first use.
type Checker struct {
	store  ports.GrantStore
	grants *entities.GrantSet
	err    error
	once   sync.Once
}

// NewChecker creates a Checker over store.
func NewChecker(store ports.GrantStore) *Checker {
	return &Checker{store: store}
}

// IsGranted implements ports.GrantChecker. A snapshot that cannot be loaded
// makes every query fail, so hazard-gated probes stay bypassed.
func (c *Checker) IsGranted(ctx context.Context, capability string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.once.Do(func() {
		c.grants, c.err = c.store.Load()
	})
	if c.err != nil {
		return false, fmt.Errorf("grant snapshot %s: %w", c.store.ConfigPath(), c.err)
	}
	return c.grants.Has(capability), nil
}

// Grants returns the loaded snapshot, or nil before the first query.
func (c *Checker) Grants() *entities.GrantSet {
	return c.grants.Clone()
}

var _ ports.GrantChecker = (*Checker)(nil)
