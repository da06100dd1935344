// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"time"

	"github.com/gogama/hydra/request"
)

// An Easy is a transport handle. It is configured from a request, added
// to a Multi, and invokes exactly one of its completion callbacks when
// the exchange ends. After completion it is reset and reused.
//
// An Easy is owned by one request at a time and is not safe for
// concurrent use.
type Easy struct {
	request  *request.Request
	response *request.Response
	timeout  time.Duration
	delay    time.Duration

	onSuccess func(*Easy)
	onFailure func(*Easy)

	cancel context.CancelFunc
}

// NewEasy returns a new, unconfigured handle.
func NewEasy() *Easy {
	return &Easy{}
}

// Configure binds the handle to r. Parameter timeout limits the whole
// exchange (zero means no limit). Parameter delay is waited out on the
// exchange goroutine before the request is sent.
func (e *Easy) Configure(r *request.Request, timeout, delay time.Duration) {
	e.request = r
	e.timeout = timeout
	e.delay = delay
}

// OnSuccess sets the callback invoked when the exchange produced a
// 2XX response.
func (e *Easy) OnSuccess(f func(*Easy)) {
	e.onSuccess = f
}

// OnFailure sets the callback invoked when the exchange produced any
// other response, or failed below the HTTP layer.
func (e *Easy) OnFailure(f func(*Easy)) {
	e.onFailure = f
}

// Request returns the request the handle is bound to.
func (e *Easy) Request() *request.Request {
	return e.request
}

// Response returns the response of the completed exchange, or nil if
// the exchange has not completed.
func (e *Easy) Response() *request.Response {
	return e.response
}

// Timeout returns the configured exchange timeout.
func (e *Easy) Timeout() time.Duration {
	return e.timeout
}

// Delay returns the configured pre-send delay.
func (e *Easy) Delay() time.Duration {
	return e.delay
}

// Reset unbinds the handle, clearing its request, response, settings
// and callbacks, and releases any exchange context still held.
func (e *Easy) Reset() {
	if e.cancel != nil {
		e.cancel()
	}
	*e = Easy{}
}

func (e *Easy) complete(resp *request.Response) {
	e.response = resp
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	f := e.onFailure
	if resp.ReturnCode == request.OK && resp.Success() {
		f = e.onSuccess
	}
	if f != nil {
		f(e)
	}
}
