package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/block-etf/internal/domain"
)

type Capability uint8

const (
	CapOwner Capability = 1 << iota
	CapManager
)

func (c Capability) String() string {
	switch c {
	case CapOwner:
		return "owner"
	case CapManager:
		return "manager"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

// Capabilities maps each principal to the set of capabilities it holds.
type Capabilities struct {
	mu     sync.RWMutex
	grants map[common.Address]Capability
}

func NewCapabilities() *Capabilities {
	return &Capabilities{grants: make(map[common.Address]Capability)}
}

func (c *Capabilities) Has(principal common.Address, capability Capability) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grants[principal]&capability != 0
}

func (c *Capabilities) Require(principal common.Address, capability Capability) error {
	if !c.Has(principal, capability) {
		return fmt.Errorf("%w: %s is not %s", domain.ErrUnauthorized, principal.Hex(), capability)
	}
	return nil
}

// set grants or revokes capability and returns the previous set.
func (c *Capabilities) set(principal common.Address, capability Capability, enabled bool) Capability {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.grants[principal]
	next := prev &^ capability
	if enabled {
		next |= capability
	}
	c.put(principal, next)
	return prev
}

func (c *Capabilities) restore(principal common.Address, caps Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(principal, caps)
}

func (c *Capabilities) put(principal common.Address, caps Capability) {
	if caps == 0 {
		delete(c.grants, principal)
		return
	}
	c.grants[principal] = caps
}

// Holders lists every principal holding capability, in address order.
func (c *Capabilities) Holders(capability Capability) []common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []common.Address
	for p, caps := range c.grants {
		if caps&capability != 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
