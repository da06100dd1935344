// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/hydra/request"
)

// A Policy controls if and how a request is retried. When a request
// completes, a Policy decides whether it should be requeued and, if so,
// how long to wait before the retry is sent.
type Policy interface {
	Decider
	Waiter
}

// Disabled is a policy that never retries.
var Disabled Policy = policy{Never, NoWait}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("hydra/retry: nil decider")
	}
	if w == nil {
		panic("hydra/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(resp *request.Response) bool {
	return p.decider.Decide(resp)
}

func (p policy) Wait(resp *request.Response) time.Duration {
	return p.waiter.Wait(resp)
}
