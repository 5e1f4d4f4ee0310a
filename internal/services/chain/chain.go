// Package chain provides the execution substrate shared by the fund components:
// every state-changing operation runs inside a Call, calls are serialized, and a
// failed call rolls back every mutation it recorded.
package chain

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrNoActiveCall = errors.New("chain: mutation outside of a call")

type callKey struct{}

type frame struct {
	chain *Chain
	now   time.Time
	depth int
}

// Chain serializes top-level calls behind a single mutex and journals the
// mutations made during each one.
type Chain struct {
	mu      sync.Mutex
	journal journal
	clock   func() time.Time

	height   atomic.Uint64
	onCommit []func(height uint64)
}

func New() *Chain {
	return &Chain{clock: time.Now}
}

// WithClock replaces the block-time source. Used by tests to move time forward.
func (c *Chain) WithClock(clock func() time.Time) *Chain {
	if clock != nil {
		c.clock = clock
	}
	return c
}

// OnCommit registers a hook invoked, under the call lock, after every successful top-level call.
func (c *Chain) OnCommit(fn func(height uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommit = append(c.onCommit, fn)
}

// Call runs fn atomically. When ctx already belongs to a call on this chain the
// call nests: it shares the outer lock and block time, and on error only its own
// mutations are reverted before the error propagates. A panic in fn reverts the
// same way before it is re-raised.
//
// Code running inside fn must pass the ctx it was handed to any further Call.
// A fresh context is treated as a new top-level call and blocks on the lock the
// outer call holds.
func (c *Chain) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if f, ok := ctx.Value(callKey{}).(*frame); ok && f.chain == c {
		snap := c.journal.snapshot()
		defer c.revertOnPanic(snap)
		inner := &frame{chain: c, now: f.now, depth: f.depth + 1}
		if err := fn(context.WithValue(ctx, callKey{}, inner)); err != nil {
			c.journal.revertTo(snap)
			return err
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.journal.reset()
	defer c.revertOnPanic(0)
	f := &frame{chain: c, now: c.clock()}
	if err := fn(context.WithValue(ctx, callKey{}, f)); err != nil {
		c.journal.revertTo(0)
		return err
	}
	c.journal.reset()

	height := c.height.Add(1)
	for _, hook := range c.onCommit {
		hook(height)
	}
	return nil
}

func (c *Chain) revertOnPanic(snap int) {
	if p := recover(); p != nil {
		c.journal.revertTo(snap)
		panic(p)
	}
}

// View runs a read-only fn against a consistent state. It never commits and
// runs inline when ctx is already inside a call.
func (c *Chain) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.InCall(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &frame{chain: c, now: c.clock()}
	return fn(context.WithValue(ctx, callKey{}, f))
}

// Record adds an undo step for a mutation made inside the call carried by ctx.
func (c *Chain) Record(ctx context.Context, undo func()) error {
	if !c.InCall(ctx) {
		return ErrNoActiveCall
	}
	c.journal.append(undo)
	return nil
}

// InCall reports whether ctx belongs to a running call on this chain.
func (c *Chain) InCall(ctx context.Context) bool {
	f, ok := ctx.Value(callKey{}).(*frame)
	return ok && f.chain == c
}

// Depth is zero for a top-level call and grows with every nested call.
func (c *Chain) Depth(ctx context.Context) int {
	if f, ok := ctx.Value(callKey{}).(*frame); ok && f.chain == c {
		return f.depth
	}
	return -1
}

// Now returns the block time of the call in ctx, or the clock when there is none.
func (c *Chain) Now(ctx context.Context) time.Time {
	if f, ok := ctx.Value(callKey{}).(*frame); ok && f.chain == c {
		return f.now
	}
	return c.clock()
}

// Height is the number of committed top-level calls.
func (c *Chain) Height() uint64 {
	return c.height.Load()
}

// Exclusive runs fn while no call is in progress.
func (c *Chain) Exclusive(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// SetHeight restores the committed call counter from a snapshot.
func (c *Chain) SetHeight(h uint64) {
	c.height.Store(h)
}
