// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport performs the HTTP exchanges of a scheduler.

An Easy is a reusable handle that carries one request through one
exchange. A Pool holds idle handles for reuse. A Multi aggregates the
handles that are in flight: each exchange runs on its own goroutine,
but Perform delivers every completion callback serially on the calling
goroutine, so callbacks never run concurrently with each other or with
the code that called Perform.

	pool := transport.NewPool(10)
	multi := transport.NewMulti(nil, logger)
	e := pool.Get()
	e.Configure(r, 5*time.Second, 0)
	e.OnSuccess(func(e *transport.Easy) { ... })
	e.OnFailure(func(e *transport.Easy) { ... })
	multi.Add(e)
	err := multi.Perform(ctx)

The exchange itself is delegated to an HTTPDoer. By default Multi builds
an http.Client for each distinct combination of the proxy, TLS, redirect
and local interface settings of the requests it sees, and caches it for
reuse.
*/
package transport
