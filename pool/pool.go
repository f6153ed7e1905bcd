// Package pool provides typed object pools with usage counters.
package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// PoolMetrics tracks pool usage
type PoolMetrics struct {
	Gets      int64 // Get() calls
	Puts      int64 // Put() calls
	Misses    int64 // objects allocated because the pool was empty
	Discarded int64 // objects refused by Put
}

// Pool is a typed wrapper around sync.Pool.
type Pool[T any] struct {
	pool    sync.Pool
	name    string
	reset   func(T)
	keep    func(T) bool
	gets    atomic.Int64
	puts    atomic.Int64
	misses  atomic.Int64
	discard atomic.Int64
}

// New creates a pool. reset prepares an object for reuse and keep decides
// whether a returned object is retained; both may be nil.
func New[T any](name string, factory func() T, reset func(T), keep func(T) bool) *Pool[T] {
	p := &Pool[T]{name: name, reset: reset, keep: keep}
	p.pool.New = func() any {
		p.misses.Add(1)
		return factory()
	}
	return p
}

func (p *Pool[T]) Get() T {
	p.gets.Add(1)
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(obj T) {
	p.puts.Add(1)
	if p.keep != nil && !p.keep(obj) {
		p.discard.Add(1)
		return
	}
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Name returns the name given at creation
func (p *Pool[T]) Name() string {
	return p.name
}

func (p *Pool[T]) Metrics() PoolMetrics {
	return PoolMetrics{
		Gets:      p.gets.Load(),
		Puts:      p.puts.Load(),
		Misses:    p.misses.Load(),
		Discarded: p.discard.Load(),
	}
}

// NewBufferPool pools bytes.Buffers, dropping any that grew past maxCap so a
// single large batch does not pin its memory.
func NewBufferPool(name string, maxCap int) *Pool[*bytes.Buffer] {
	return New(name,
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
		func(b *bytes.Buffer) bool { return maxCap <= 0 || b.Cap() <= maxCap },
	)
}
