// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package hydra schedules many HTTP requests to run concurrently, up to a
fixed ceiling, with memoization of identical GET requests, optional
response caching, and a single retry of transient failures.

Create a Hydra, queue requests, and run them.

	h := hydra.New(hydra.Config{MaxConcurrency: 20})
	r, err := request.New("GET", "https://www.example.com", nil, nil)
	...
	r.OnComplete(func(resp *request.Response) interface{} {
		fmt.Println(resp.Code, len(resp.Body))
		return nil
	})
	err = h.Queue(r)
	...
	err = h.Run(ctx)

Requests beyond the ceiling wait in a FIFO queue and are admitted as
slots free up. Completion callbacks run on the goroutine that called
Run, so they may queue more requests, which the same Run performs.

Identical GET requests in flight together are sent only once; the
duplicates receive a copy of the first one's response. To turn this
off, call DisableMemoization.

To retry a GET once when it fails with one of a set of status codes,
or when it times out before connecting, configure the retry settings:

	h := hydra.New(hydra.Config{
		RetryCodes:           []int{502, 503},
		RetryConnectTimeouts: true,
		RetryWaiter:          retry.NewJitterWaiter(time.Second, time.Now()),
	})

To also retry GET requests which failed with a transient network error,
such as a connection reset, add a retry policy:

	h := hydra.New(hydra.Config{
		RetryPolicy: retry.NewPolicy(retry.TransientErr, retry.NoWait),
	})

To serve responses from a cache, and to write responses of requests
with a CacheTimeout to it, install cache hooks. Package cache provides
an in-memory implementation:

	c := cache.New()
	h.SetCacheGetter(c.Get)
	h.SetCacheSetter(c.Set)

For tests, stub requests so they never touch the network:

	h.DisableNetConnect()
	h.Stub("GET", "https://www.example.com").AndReturn(&request.Response{Code: 200})

To hook into the scheduler's decisions, install a handler into the
appropriate handler chain. Package metrics installs Prometheus
instrumentation this way:

	handlers := &hydra.HandlerGroup{}
	handlers.PushBack(hydra.AfterRetry, hydra.HandlerFunc(
		func(_ hydra.Event, r *request.Request, discarded *request.Response) {
			log.Printf("Retrying %s after %d", r.URL, discarded.Code)
		}),
	)
	h := hydra.New(hydra.Config{Handlers: handlers})

Package hydra also provides basic interfaces for the scheduler (Queuer,
Runner, and the combined Executor), and utility functions for issuing
a single request through an Executor (Do, Get, Head, Delete, Post, Put
and PostForm).
*/
package hydra
