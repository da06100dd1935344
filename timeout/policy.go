// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/hydra/request"
)

// A Policy defines a timeout policy which may be plugged into the
// scheduler (hydra.Config) to direct how to set the exchange timeout for
// requests whose Timeout field is zero.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next exchange for r.
	//
	// Parameter prev is the response discarded by the retry which led to
	// this exchange, or nil for the first exchange. A return value of
	// zero means no timeout.
	Timeout(r *request.Request, prev *request.Response) time.Duration
}

// Infinite is a built-in timeout policy which never times out. It is
// the scheduler's default.
var Infinite Policy = Fixed(0)

// Fixed constructs a timeout policy that uses the same value to set
// every exchange timeout.
func Fixed(d time.Duration) Policy {
	if d < 0 {
		panic("hydra/timeout: negative duration")
	}
	return policy{usual: d, after: d}
}

// Adaptive constructs a timeout policy that uses a different timeout
// for the retry of a request whose first exchange timed out.
//
// Parameter usual is used for every first exchange and for any retry
// that was not caused by a timeout. Parameter after is used for a retry
// whose discarded response timed out, either before or after the
// connection was established.
//
// Use Adaptive with retry-on-connect-timeout enabled to time out quickly
// at first but give the retry more room:
//
//	p := Adaptive(200*time.Millisecond, 2*time.Second)
func Adaptive(usual, after time.Duration) Policy {
	if usual < 0 || after < 0 {
		panic("hydra/timeout: negative duration")
	}
	return policy{usual: usual, after: after}
}

type policy struct {
	usual time.Duration
	after time.Duration
}

func (p policy) Timeout(_ *request.Request, prev *request.Response) time.Duration {
	if prev != nil && prev.TimedOut() {
		return p.after
	}
	return p.usual
}
