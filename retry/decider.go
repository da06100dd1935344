// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/transient"
)

// A Decider decides if a retry should be done, given the response that
// would otherwise complete the request. The response's Request field
// is never nil when the scheduler consults a Decider.
//
// Use the built-in deciders and constructors, or implement your own.
// Use DeciderFunc to convert an ordinary function into a Decider, and
// to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(resp *request.Response) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
type DeciderFunc func(resp *request.Response) bool

var (
	// ConnectTimeout is a decider that indicates a retry if the
	// transport timed out before a connection was established.
	ConnectTimeout DeciderFunc = connectTimeout

	// TransientErr is a decider that indicates a retry if the transport
	// failed with an error that transient.Categorize deems transient.
	TransientErr DeciderFunc = transientErr

	// NotRequeued is a decider that indicates a retry only if the
	// request has never been requeued before.
	NotRequeued DeciderFunc = notRequeued

	// Allowed is a decider that indicates a retry only if the request
	// permits retries (request.Request.AttemptRetry).
	Allowed DeciderFunc = allowed

	// Never is a decider that never retries.
	Never DeciderFunc = func(*request.Response) bool { return false }
)

// NewDecider constructs the scheduler's standard retry decider. It
// returns true iff the request method is GET, and either the status
// code is one of codes or connectTimeouts is true and the transport
// reported a connect timeout, and the request has not been requeued,
// and the request allows retries.
func NewDecider(codes []int, connectTimeouts bool) DeciderFunc {
	cond := StatusCode(codes...)
	if connectTimeouts {
		cond = cond.Or(ConnectTimeout)
	}
	return Method("GET").And(cond).And(NotRequeued).And(Allowed)
}

// Decide returns true if a retry should be done, and false otherwise.
func (f DeciderFunc) Decide(resp *request.Response) bool {
	return f(resp)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(resp *request.Response) bool {
		return f(resp) && g(resp)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(resp *request.Response) bool {
		return f(resp) || g(resp)
	}
}

// StatusCode constructs a retry decider which returns true if the
// response status code is contained in the list ss.
func StatusCode(ss ...int) DeciderFunc {
	set := make(map[int]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return func(resp *request.Response) bool {
		_, ok := set[resp.Code]
		return ok
	}
}

// Method constructs a retry decider which returns true if the request
// method is one of ms.
func Method(ms ...string) DeciderFunc {
	ms2 := make([]string, len(ms))
	copy(ms2, ms)
	return func(resp *request.Response) bool {
		if resp.Request == nil {
			return false
		}
		for _, m := range ms2 {
			if resp.Request.Method == m {
				return true
			}
		}
		return false
	}
}

func connectTimeout(resp *request.Response) bool {
	return resp.ConnectTimedOut()
}

func transientErr(resp *request.Response) bool {
	return transient.Categorize(resp.Err) != transient.Not
}

func notRequeued(resp *request.Response) bool {
	return resp.Request != nil && !resp.Request.Requeued()
}

func allowed(resp *request.Response) bool {
	return resp.Request != nil && resp.Request.Retry()
}
