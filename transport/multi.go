// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gogama/hydra/request"
	"go.uber.org/zap"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Multi aggregates in-flight transport handles.
//
// Handles added with Add are started by the next call to Perform or
// FireAndForget. Each started handle's exchange runs on its own
// goroutine. Perform blocks until every started handle has completed,
// invoking each handle's completion callback on the goroutine that
// called Perform. Callbacks may Add further handles, which Perform
// starts and waits for too.
//
// The methods of Multi must all be called from the same goroutine.
type Multi struct {
	doer    HTTPDoer
	logger  *zap.Logger
	clients clientCache

	pending []*Easy
	active  map[*Easy]uint64
	gen     uint64

	lock   sync.Mutex
	done   []result
	notify chan struct{}
}

type result struct {
	easy *Easy
	gen  uint64
	resp *request.Response
}

// NewMulti returns a new, empty aggregator.
//
// If doer is nil, each exchange uses an http.Client built from the
// request's proxy, TLS, redirect, connect timeout and interface
// settings. If doer is non-nil, it is used for every exchange and
// those settings are ignored. If logger is nil, nothing is logged.
func NewMulti(doer HTTPDoer, logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{
		doer:    doer,
		logger:  logger,
		clients: clientCache{clients: make(map[clientKey]*http.Client)},
		active:  make(map[*Easy]uint64),
		notify:  make(chan struct{}, 1),
	}
}

// Add registers a configured handle. Its exchange starts at the next
// Perform or FireAndForget.
func (m *Multi) Add(e *Easy) {
	if e == nil || e.request == nil {
		panic("hydra/transport: unconfigured handle")
	}
	m.pending = append(m.pending, e)
}

// Active returns the number of handles added but not yet completed.
func (m *Multi) Active() int {
	return len(m.pending) + len(m.active)
}

// Perform starts every pending handle and waits for all started handles
// to complete, invoking their callbacks serially on the calling
// goroutine.
//
// If ctx is done before every handle completes, Perform returns the
// context error without waiting further. The remaining handles stay
// active until they complete in a later Perform or are discarded by
// ResetHandles.
func (m *Multi) Perform(ctx context.Context) error {
	for {
		m.start(ctx)
		if len(m.active) == 0 {
			return nil
		}
		if r, ok := m.next(); ok {
			m.deliver(r)
			continue
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FireAndForget starts every pending handle without waiting for any of
// them. Their callbacks run during a later Perform, if any.
func (m *Multi) FireAndForget() {
	m.start(context.Background())
}

// ResetHandles discards every pending and active handle. The exchanges
// of active handles are cancelled and their results, should they arrive
// later, are ignored. Each discarded handle is passed to release, which
// may be nil.
func (m *Multi) ResetHandles(release func(*Easy)) {
	discard := make([]*Easy, 0, len(m.pending)+len(m.active))
	discard = append(discard, m.pending...)
	for e := range m.active {
		if e.cancel != nil {
			e.cancel()
		}
		discard = append(discard, e)
	}
	m.pending = nil
	m.active = make(map[*Easy]uint64)
	m.lock.Lock()
	m.done = nil
	m.lock.Unlock()
	if len(discard) > 0 {
		m.logger.Debug("reset transport handles", zap.Int("count", len(discard)))
	}
	if release != nil {
		for _, e := range discard {
			release(e)
		}
	}
}

// CloseIdleConnections closes idle connections held by the cached
// clients and by the HTTPDoer, if it supports doing so.
func (m *Multi) CloseIdleConnections() {
	if ic, ok := m.doer.(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
	m.clients.closeIdle()
}

func (m *Multi) start(ctx context.Context) {
	for len(m.pending) > 0 {
		e := m.pending[0]
		m.pending[0] = nil
		m.pending = m.pending[1:]
		m.gen++
		gen := m.gen
		m.active[e] = gen
		x := exchange{
			request: e.request,
			timeout: e.timeout,
			delay:   e.delay,
			logger:  m.logger,
		}
		var err error
		x.doer, err = m.doerFor(e.request)
		var exCtx context.Context
		exCtx, e.cancel = context.WithCancel(ctx)
		if err != nil {
			m.post(result{easy: e, gen: gen, resp: failure(e.request, returnCodeOf(err), err, request.Timing{})})
			continue
		}
		go func() {
			m.post(result{easy: e, gen: gen, resp: x.perform(exCtx)})
		}()
	}
}

func (m *Multi) doerFor(r *request.Request) (HTTPDoer, error) {
	if m.doer != nil {
		return m.doer, nil
	}
	return m.clients.get(keyOf(r))
}

func (m *Multi) post(r result) {
	m.lock.Lock()
	m.done = append(m.done, r)
	m.lock.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Multi) next() (result, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if len(m.done) == 0 {
		return result{}, false
	}
	r := m.done[0]
	m.done[0] = result{}
	m.done = m.done[1:]
	return r, true
}

func (m *Multi) deliver(r result) {
	if gen, ok := m.active[r.easy]; !ok || gen != r.gen {
		return
	}
	delete(m.active, r.easy)
	r.easy.complete(r.resp)
}
