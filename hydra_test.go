// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/retry"
	"github.com/gogama/hydra/timeout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// A fakeDoer answers exchanges with a function and records the URLs it
// was asked for.
type fakeDoer struct {
	lock  sync.Mutex
	calls []string
	f     func(req *http.Request, n int) (*http.Response, error)
}

func newFakeDoer(f func(req *http.Request, n int) (*http.Response, error)) *fakeDoer {
	return &fakeDoer{f: f}
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.lock.Lock()
	d.calls = append(d.calls, req.URL.String())
	n := 0
	for _, c := range d.calls {
		if c == req.URL.String() {
			n++
		}
	}
	d.lock.Unlock()
	return d.f(req, n)
}

func (d *fakeDoer) count() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.calls)
}

func (d *fakeDoer) countURL(url string) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == url {
			n++
		}
	}
	return n
}

func status(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func okDoer() *fakeDoer {
	return newFakeDoer(func(req *http.Request, _ int) (*http.Response, error) {
		return status(200, req.URL.Path), nil
	})
}

func failDoer(t *testing.T) *fakeDoer {
	return newFakeDoer(func(req *http.Request, _ int) (*http.Response, error) {
		t.Errorf("unexpected exchange: %s", req.URL)
		return nil, io.EOF
	})
}

func newReq(t *testing.T, method, url string) *request.Request {
	r, err := request.New(method, url, nil, nil)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		h := New(Config{})
		assert.Equal(t, DefaultMaxConcurrency, h.MaxConcurrency())
		assert.Equal(t, DefaultInitialPoolSize, h.PoolSize())
		assert.True(t, h.Memoizing())
		assert.Empty(t, h.RetryCodes())
		assert.False(t, h.RetryConnectTimeouts())
		assert.True(t, h.NetConnectAllowed())
		assert.Equal(t, 0, h.Running())
		assert.Equal(t, 0, h.Queued())
		assert.Equal(t, time.Duration(0), h.waiter.Wait(&request.Response{}))
		assert.Equal(t, timeout.Infinite, h.timeoutPolicy)
		assert.Same(t, &emptyHandlers, h.handlers)
		assert.NotNil(t, h.logger)
	})
	t.Run("explicit", func(t *testing.T) {
		handlers := &HandlerGroup{}
		logger := zaptest.NewLogger(t)
		policy := retry.NewPolicy(retry.TransientErr, retry.NoWait)
		waiter := retry.NewFixedWaiter(time.Second)
		h := New(Config{
			MaxConcurrency:       3,
			InitialPoolSize:      2,
			RetryCodes:           []int{502, 503},
			RetryConnectTimeouts: true,
			RetryPolicy:          policy,
			RetryWaiter:          waiter,
			TimeoutPolicy:        timeout.Fixed(time.Minute),
			Handlers:             handlers,
			Logger:               logger,
		})
		assert.Equal(t, 3, h.MaxConcurrency())
		assert.Equal(t, 2, h.PoolSize())
		assert.Equal(t, []int{502, 503}, h.RetryCodes())
		assert.True(t, h.RetryConnectTimeouts())
		assert.NotNil(t, h.retryPolicy)
		assert.Equal(t, waiter, h.waiter)
		assert.Same(t, handlers, h.handlers)
		assert.Same(t, logger, h.logger)
	})
}

func TestHydra_Settings(t *testing.T) {
	h := New(Config{Logger: zap.NewNop()})
	t.Run("memoization", func(t *testing.T) {
		h.DisableMemoization()
		assert.False(t, h.Memoizing())
		h.EnableMemoization()
		assert.True(t, h.Memoizing())
	})
	t.Run("retry codes", func(t *testing.T) {
		codes := []int{503}
		h.SetRetryCodes(codes...)
		codes[0] = 500
		assert.Equal(t, []int{503}, h.RetryCodes())
		got := h.RetryCodes()
		got[0] = 1
		assert.Equal(t, []int{503}, h.RetryCodes())
		h.DisableRetry()
		assert.Empty(t, h.RetryCodes())
		h.SetRetryConnectTimeouts(true)
		assert.True(t, h.RetryConnectTimeouts())
	})
	t.Run("net connect", func(t *testing.T) {
		h.DisableNetConnect()
		assert.False(t, h.NetConnectAllowed())
		h.AllowNetConnect()
		assert.True(t, h.NetConnectAllowed())
	})
	t.Run("cache callbacks", func(t *testing.T) {
		h.SetCacheGetter(func(*request.Request) *request.Response { return nil })
		h.SetCacheSetter(func(*request.Request) {})
		assert.NotNil(t, h.cacheGetter)
		assert.NotNil(t, h.cacheSetter)
		h.ClearCacheCallbacks()
		assert.Nil(t, h.cacheGetter)
		assert.Nil(t, h.cacheSetter)
	})
	t.Run("CloseIdleConnections", func(t *testing.T) {
		assert.NotPanics(t, h.CloseIdleConnections)
	})
}
