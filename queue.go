// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"fmt"
	"time"

	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/transport"
	"go.uber.org/zap"
)

// An outcome is the result of judging a response: either it completes
// the request, or the request is retried and the response discarded.
type outcome int

const (
	completed outcome = iota
	retrying
)

// Queue admits r for execution.
//
// If a stub matches r, r is bound to it and resolved by the next Run.
// Otherwise r is either resolved at once, from an earlier identical GET
// or from the cache, or it is dispatched to the transport, or, if the
// concurrency ceiling is reached, it waits in a FIFO queue for a free
// slot. Requests dispatched to the transport are performed by Run.
//
// Queue returns an error wrapping ErrNetworkDisabled if r would reach
// the network while live connections are disabled, and an error if r
// is not valid. In both cases r is not admitted.
func (h *Hydra) Queue(r *request.Request) error {
	return h.enqueue(r, true)
}

// QueueUnlimited admits r like Queue, but ignores the concurrency
// ceiling.
func (h *Hydra) QueueUnlimited(r *request.Request) error {
	return h.enqueue(r, false)
}

func (h *Hydra) enqueue(r *request.Request, obeyLimit bool) error {
	if r == nil {
		panic("hydra: nil request")
	}
	if err := r.Validate(); err != nil {
		return err
	}

	if h.bindStub(r) {
		return nil
	}

	if err := h.checkNetConnect(r); err != nil {
		return err
	}

	if obeyLimit && h.running >= h.maxConcurrency {
		h.queued = append(h.queued, r)
		h.logger.Debug("request queued",
			zap.String("id", r.ID),
			zap.String("url", r.URL),
			zap.Int("queued", len(h.queued)))
		return nil
	}

	h.running++

	if r.Method != "GET" {
		h.cacheOrDispatch(r, nil)
		return nil
	}

	if h.memoize {
		if done, ok := h.completed[r.URL]; ok {
			h.releaseSlot()
			h.logger.Debug("served from completed request",
				zap.String("id", r.ID),
				zap.String("url", r.URL))
			h.serve(r, done.Response())
			return nil
		}
		if bucket, ok := h.memoized[r.URL]; ok {
			h.releaseSlot()
			if resp, ok := h.retrievedFromCache[r.URL]; ok {
				h.logger.Debug("served from retrieved cache entry",
					zap.String("id", r.ID),
					zap.String("url", r.URL))
				h.serve(r, resp)
				return nil
			}
			h.memoized[r.URL] = append(bucket, r)
			h.logger.Debug("parked behind in-flight duplicate",
				zap.String("id", r.ID),
				zap.String("url", r.URL),
				zap.Int("parked", len(bucket)+1))
			h.handlers.run(AfterMemoHit, r, nil)
			return nil
		}
		h.memoized[r.URL] = nil
	}

	h.cacheOrDispatch(r, nil)
	return nil
}

func (h *Hydra) checkNetConnect(r *request.Request) error {
	if !h.netDisabled || (h.allowLocalhost && r.Localhost()) {
		return nil
	}
	return fmt.Errorf("%w: unregistered request %s %s", ErrNetworkDisabled, r.Method, r.URL)
}

// serve resolves a memoized duplicate with a copy of resp. Only the
// request's own callbacks run.
func (h *Hydra) serve(r *request.Request, resp *request.Response) {
	resp = resp.WithRequest(r)
	r.SetResponse(resp)
	h.handlers.run(AfterMemoHit, r, resp)
	r.CallHandlers()
}

// releaseSlot frees the concurrency slot held by a request that has
// been resolved, and admits the head of the queue, if any.
func (h *Hydra) releaseSlot() {
	if h.running > 0 {
		h.running--
	}
	if len(h.queued) == 0 {
		return
	}
	next := h.queued[0]
	h.queued[0] = nil
	h.queued = h.queued[1:]
	if err := h.enqueue(next, true); err != nil {
		h.logger.Error("dropped queued request",
			zap.String("id", next.ID),
			zap.String("url", next.URL),
			zap.Error(err))
	}
}

// cacheOrDispatch consults the cache getter and resolves r from the
// cache on a hit, or dispatches r to the transport on a miss. The
// caller must hold a concurrency slot for r. Parameter prev is the
// discarded response if r is being retried.
//
// A cached response that is judged for retry keeps the slot for the
// retry. The slot is released only once r is finished.
func (h *Hydra) cacheOrDispatch(r *request.Request, prev *request.Response) {
	if h.cacheGetter != nil {
		if resp := h.cacheGetter(r); resp != nil {
			h.retrievedFromCache[r.URL] = resp
			resp = resp.WithRequest(r)
			h.logger.Debug("cache hit",
				zap.String("id", r.ID),
				zap.String("url", r.URL))
			h.handlers.run(AfterCacheHit, r, resp)
			if h.judge(resp) == retrying {
				h.retry(r, resp)
				return
			}
			h.releaseSlot()
			h.finish(r, resp, false)
			return
		}
	}
	h.dispatch(r, prev)
}

func (h *Hydra) dispatch(r *request.Request, prev *request.Response) {
	r.MarkPerformed()
	t := r.Timeout
	if t <= 0 {
		t = h.timeoutPolicy.Timeout(r, prev)
	}
	delay := h.waitBefore(prev)
	e := h.pool.Get()
	e.Configure(r, t, delay)
	e.OnSuccess(h.complete)
	e.OnFailure(h.complete)
	h.handlers.run(BeforeDispatch, r, prev)
	h.logger.Debug("dispatching request",
		zap.String("id", r.ID),
		zap.String("method", r.Method),
		zap.String("url", r.URL),
		zap.Duration("timeout", t),
		zap.Duration("delay", delay),
		zap.Int("running", h.running))
	h.multi.Add(e)
}

func (h *Hydra) waitBefore(prev *request.Response) time.Duration {
	if prev == nil {
		return 0
	}
	return h.waiter.Wait(prev)
}

// complete is the completion callback of every transport handle.
func (h *Hydra) complete(e *transport.Easy) {
	r, resp := e.Request(), e.Response()
	h.pool.Put(e)
	h.handlers.run(AfterTransport, r, resp)
	h.logger.Debug("exchange ended",
		zap.String("id", r.ID),
		zap.Int("code", resp.Code),
		zap.Stringer("return_code", resp.ReturnCode),
		zap.Duration("total", resp.Timing.Total))
	if h.judge(resp) == retrying {
		h.retry(r, resp)
		return
	}
	h.releaseSlot()
	h.finish(r, resp, true)
}

func (h *Hydra) judge(resp *request.Response) outcome {
	if h.decider.Decide(resp) {
		return retrying
	}
	return completed
}

// retry requeues r, which must hold a concurrency slot, for its single
// retry.
func (h *Hydra) retry(r *request.Request, discarded *request.Response) {
	h.markRetry(r, discarded)
	h.cacheOrDispatch(r, discarded)
}

func (h *Hydra) markRetry(r *request.Request, discarded *request.Response) {
	r.MarkRequeued()
	h.logger.Debug("retrying request",
		zap.String("id", r.ID),
		zap.String("url", r.URL),
		zap.Int("code", discarded.Code),
		zap.Stringer("return_code", discarded.ReturnCode))
	r.CallRetryHandler(discarded)
	h.handlers.run(AfterRetry, r, discarded)
}

// finish resolves r with its final response and runs the completion
// callbacks, then delivers the response to any memoized duplicates.
func (h *Hydra) finish(r *request.Request, resp *request.Response, live bool) {
	r.SetResponse(resp)
	memo := h.memoize && r.Method == "GET"
	if memo {
		h.completed[r.URL] = r
	}

	h.handlers.run(AfterRequestBeforeOnComplete, r, resp)

	if live && r.CacheTimeout > 0 && h.cacheSetter != nil {
		h.cacheSetter(r)
	}
	if h.onComplete != nil {
		h.onComplete(resp)
	}
	r.CallHandlers()

	if r.Method != "GET" {
		return
	}
	bucket := h.memoized[r.URL]
	delete(h.memoized, r.URL)
	for _, dup := range bucket {
		dup.SetResponse(resp.WithRequest(dup))
		dup.CallHandlers()
	}
}
