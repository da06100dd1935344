// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import "sync"

// A Pool holds idle transport handles for reuse. Handles taken from the
// pool with Get are returned with Put, which resets them.
type Pool struct {
	lock sync.Mutex
	free []*Easy
}

// NewPool returns a pool pre-populated with n idle handles.
func NewPool(n int) *Pool {
	if n < 0 {
		panic("hydra/transport: negative pool size")
	}
	p := &Pool{free: make([]*Easy, n)}
	for i := range p.free {
		p.free[i] = NewEasy()
	}
	return p
}

// Get removes an idle handle from the pool, creating a new one if the
// pool is empty.
func (p *Pool) Get() *Easy {
	p.lock.Lock()
	defer p.lock.Unlock()
	n := len(p.free)
	if n == 0 {
		return NewEasy()
	}
	e := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	return e
}

// Put resets e and returns it to the pool.
func (p *Pool) Put(e *Easy) {
	if e == nil {
		panic("hydra/transport: nil handle")
	}
	e.Reset()
	p.lock.Lock()
	defer p.lock.Unlock()
	p.free = append(p.free, e)
}

// Len returns the number of idle handles in the pool.
func (p *Pool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.free)
}
