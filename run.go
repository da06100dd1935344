// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"context"

	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/transport"
	"go.uber.org/zap"
)

// Run resolves every stub-bound request, then performs every dispatched
// request, admitting queued requests as slots free up, until nothing is
// left in flight. Requests queued by callbacks during Run are performed
// by the same Run.
//
// Run always ends with the cleanup of AbortHard, whether it returns
// normally, returns an error, or a callback panics. If ctx is done
// before every request has completed, Run returns the context error and
// the requests still in flight are abandoned.
//
// Run returns ErrRunning if called while another Run on h is in
// progress.
func (h *Hydra) Run(ctx context.Context) error {
	if h.inRun {
		return ErrRunning
	}
	h.inRun = true
	defer func() {
		h.inRun = false
		h.AbortHard()
	}()

	for {
		h.drainStubs()
		if err := h.multi.Perform(ctx); err != nil {
			h.logger.Debug("run interrupted", zap.Error(err))
			return err
		}
		if len(h.boundStubs) == 0 {
			return nil
		}
	}
}

// Abort stops admitting queued requests. Requests already dispatched
// still complete and their callbacks still run, but requests waiting
// for a concurrency slot are dropped.
func (h *Hydra) Abort() {
	if len(h.queued) > 0 {
		h.logger.Debug("aborting queued requests", zap.Int("queued", len(h.queued)))
	}
	h.queued = nil
}

// AbortHard does what Abort does, then abandons every dispatched
// request without waiting for it to complete, returns every transport
// handle to the pool, and resets the memoization state and the running
// count. Requests bound to stubs but not yet resolved are dropped too.
//
// The callbacks of abandoned requests never run.
func (h *Hydra) AbortHard() {
	h.Abort()
	h.multi.ResetHandles(func(e *transport.Easy) {
		h.pool.Put(e)
	})
	h.memoized = make(map[string][]*request.Request)
	h.retrievedFromCache = make(map[string]*request.Response)
	h.completed = make(map[string]*request.Request)
	h.running = 0
	h.boundStubs = nil
	h.stubQueued = make(map[*Stub][]*request.Request)
}

// FireAndForget admits every queued request, ignoring the concurrency
// ceiling, and starts all dispatched requests without waiting for them.
// Their callbacks run only if Run is called later.
func (h *Hydra) FireAndForget() {
	queued := h.queued
	h.queued = nil
	for _, r := range queued {
		if err := h.enqueue(r, false); err != nil {
			h.logger.Error("dropped queued request",
				zap.String("id", r.ID),
				zap.String("url", r.URL),
				zap.Error(err))
		}
	}
	h.multi.FireAndForget()
}
