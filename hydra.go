// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/retry"
	"github.com/gogama/hydra/timeout"
	"github.com/gogama/hydra/transport"
	"go.uber.org/zap"
)

const (
	// DefaultMaxConcurrency is the concurrency ceiling used when
	// Config.MaxConcurrency is not positive.
	DefaultMaxConcurrency = 200
	// DefaultInitialPoolSize is the number of transport handles created
	// up front when Config.InitialPoolSize is not positive.
	DefaultInitialPoolSize = 10
)

// A CacheGetter looks up a response for r in an external cache. It
// returns nil on a miss.
type CacheGetter func(r *request.Request) *request.Response

// A CacheSetter stores the response of r, available from r.Response(),
// in an external cache. It is only called for live exchanges of
// requests with a positive CacheTimeout.
type CacheSetter func(r *request.Request)

// Config holds the settings of a Hydra. The zero value is a valid
// configuration.
type Config struct {
	// MaxConcurrency is the maximum number of requests in flight at
	// once. If MaxConcurrency is not positive, DefaultMaxConcurrency is
	// used.
	MaxConcurrency int
	// InitialPoolSize is the number of transport handles created up
	// front. The pool grows as needed. If InitialPoolSize is not
	// positive, DefaultInitialPoolSize is used.
	InitialPoolSize int
	// RetryCodes lists the status codes whose GET responses are retried
	// once. If RetryCodes is empty, status codes never cause a retry.
	RetryCodes []int
	// RetryConnectTimeouts enables retrying a GET once if its exchange
	// timed out before a connection was established.
	RetryConnectTimeouts bool
	// RetryPolicy widens the class of retried requests. A GET that
	// allows retries and has not been requeued is also retried once if
	// RetryPolicy decides so, whatever RetryCodes says. If RetryPolicy
	// is nil, retry.Disabled is used.
	RetryPolicy retry.Policy
	// RetryWaiter specifies how long to wait before sending a retry. If
	// RetryWaiter is nil, the waiter of RetryPolicy is used.
	RetryWaiter retry.Waiter
	// TimeoutPolicy specifies the exchange timeout of requests whose
	// Timeout field is zero. If TimeoutPolicy is nil, timeout.Infinite
	// is used.
	TimeoutPolicy timeout.Policy
	// HTTPDoer, if not nil, performs every exchange in place of the
	// clients built from each request's transport settings.
	HTTPDoer transport.HTTPDoer
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during the life of a request.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives debug logs of the scheduler's decisions. If
	// Logger is nil, nothing is logged.
	Logger *zap.Logger
}

// A Hydra schedules HTTP requests. Requests are handed to Queue and
// performed, at most MaxConcurrency at a time, by Run.
//
// Identical GET requests in flight together are performed only once
// (memoization), responses may be served from and written to an
// external cache through the CacheGetter and CacheSetter hooks, and a
// narrow class of failed GET requests is retried exactly once.
//
// A Hydra is not safe for concurrent use by multiple goroutines.
// Completion callbacks and event handlers run on the goroutine that
// called Queue or Run, and may themselves call Queue, Abort and
// AbortHard.
type Hydra struct {
	maxConcurrency       int
	retryCodes           []int
	retryConnectTimeouts bool
	retryPolicy          retry.Policy
	decider              retry.Decider
	waiter               retry.Waiter
	timeoutPolicy        timeout.Policy
	handlers             *HandlerGroup
	logger               *zap.Logger

	pool  *transport.Pool
	multi *transport.Multi

	running            int
	queued             []*request.Request
	memoize            bool
	memoized           map[string][]*request.Request
	retrievedFromCache map[string]*request.Response
	completed          map[string]*request.Request

	cacheGetter CacheGetter
	cacheSetter CacheSetter
	onComplete  func(*request.Response)

	netDisabled    bool
	allowLocalhost bool

	stubs      []*Stub                      // registered, in match order
	boundStubs []*Stub                      // stubs with bound requests, in bind order
	stubQueued map[*Stub][]*request.Request // requests bound to each stub

	inRun bool
}

var emptyHandlers = HandlerGroup{}

// New returns a new Hydra with memoization enabled.
func New(config Config) *Hydra {
	h := &Hydra{
		maxConcurrency:       config.MaxConcurrency,
		retryPolicy:          config.RetryPolicy,
		waiter:               config.RetryWaiter,
		timeoutPolicy:        config.TimeoutPolicy,
		handlers:             config.Handlers,
		logger:               config.Logger,
		memoize:              true,
		memoized:             make(map[string][]*request.Request),
		retrievedFromCache:   make(map[string]*request.Response),
		completed:            make(map[string]*request.Request),
		stubQueued:           make(map[*Stub][]*request.Request),
		retryConnectTimeouts: config.RetryConnectTimeouts,
	}
	if h.maxConcurrency <= 0 {
		h.maxConcurrency = DefaultMaxConcurrency
	}
	if h.retryPolicy == nil {
		h.retryPolicy = retry.Disabled
	}
	if h.waiter == nil {
		h.waiter = h.retryPolicy
	}
	if h.timeoutPolicy == nil {
		h.timeoutPolicy = timeout.Infinite
	}
	if h.handlers == nil {
		h.handlers = &emptyHandlers
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	poolSize := config.InitialPoolSize
	if poolSize <= 0 {
		poolSize = DefaultInitialPoolSize
	}
	h.pool = transport.NewPool(poolSize)
	h.multi = transport.NewMulti(config.HTTPDoer, h.logger)
	h.SetRetryCodes(config.RetryCodes...)
	return h
}

// MaxConcurrency returns the concurrency ceiling.
func (h *Hydra) MaxConcurrency() int {
	return h.maxConcurrency
}

// Running returns the number of requests currently holding a
// concurrency slot.
func (h *Hydra) Running() int {
	return h.running
}

// Queued returns the number of requests waiting for a concurrency slot.
func (h *Hydra) Queued() int {
	return len(h.queued)
}

// PoolSize returns the number of idle transport handles.
func (h *Hydra) PoolSize() int {
	return h.pool.Len()
}

// EnableMemoization turns memoization of GET requests on. It is on
// by default.
func (h *Hydra) EnableMemoization() {
	h.memoize = true
}

// DisableMemoization turns memoization of GET requests off. Requests
// already parked behind an in-flight duplicate are still delivered.
func (h *Hydra) DisableMemoization() {
	h.memoize = false
}

// Memoizing indicates whether memoization is on.
func (h *Hydra) Memoizing() bool {
	return h.memoize
}

// SetCacheGetter installs the cache lookup hook. A nil getter removes
// it.
func (h *Hydra) SetCacheGetter(f CacheGetter) {
	h.cacheGetter = f
}

// SetCacheSetter installs the cache store hook. A nil setter removes
// it.
func (h *Hydra) SetCacheSetter(f CacheSetter) {
	h.cacheSetter = f
}

// ClearCacheCallbacks removes both cache hooks.
func (h *Hydra) ClearCacheCallbacks() {
	h.cacheGetter = nil
	h.cacheSetter = nil
}

// OnComplete sets a callback invoked with the final response of every
// request the Hydra resolves, before the request's own callbacks. Pass
// nil to remove it.
func (h *Hydra) OnComplete(f func(*request.Response)) {
	h.onComplete = f
}

// SetRetryCodes replaces the set of status codes that make a GET
// eligible for its single retry.
func (h *Hydra) SetRetryCodes(codes ...int) {
	h.retryCodes = append([]int(nil), codes...)
	h.rebuildDecider()
}

// RetryCodes returns a copy of the retry status codes.
func (h *Hydra) RetryCodes() []int {
	return append([]int(nil), h.retryCodes...)
}

// SetRetryConnectTimeouts enables or disables retrying GET requests
// whose exchange timed out before a connection was established.
func (h *Hydra) SetRetryConnectTimeouts(enabled bool) {
	h.retryConnectTimeouts = enabled
	h.rebuildDecider()
}

// RetryConnectTimeouts indicates whether connect timeouts are retried.
func (h *Hydra) RetryConnectTimeouts() bool {
	return h.retryConnectTimeouts
}

// The policy only ever sees GET requests eligible for their single
// retry, so a custom decider cannot retry a request twice.
func (h *Hydra) rebuildDecider() {
	eligible := retry.Method("GET").And(retry.NotRequeued).And(retry.Allowed)
	h.decider = retry.NewDecider(h.retryCodes, h.retryConnectTimeouts).
		Or(eligible.And(h.retryPolicy.Decide))
}

// DisableRetry clears the retry status codes. Connect timeout retries
// are governed separately by SetRetryConnectTimeouts, and the
// Config.RetryPolicy stays in force.
func (h *Hydra) DisableRetry() {
	h.SetRetryCodes()
}

// DisableNetConnect makes Queue reject every request that is not
// matched by a stub.
func (h *Hydra) DisableNetConnect() {
	h.netDisabled = true
}

// AllowNetConnect lets requests reach the network again.
func (h *Hydra) AllowNetConnect() {
	h.netDisabled = false
}

// AllowNetConnectLocalhost, when enabled, exempts requests to a
// localhost alias (see request.LocalhostAliases) from
// DisableNetConnect.
func (h *Hydra) AllowNetConnectLocalhost(enabled bool) {
	h.allowLocalhost = enabled
}

// NetConnectAllowed indicates whether live requests are allowed.
func (h *Hydra) NetConnectAllowed() bool {
	return !h.netDisabled
}

// CloseIdleConnections closes idle connections held by the transport.
func (h *Hydra) CloseIdleConnections() {
	h.multi.CloseIdleConnections()
}
