// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gogama/hydra/request"
)

// A Waiter specifies how long to wait before sending the retry of a
// request. It is given the discarded response.
//
// The wait happens on the transport's goroutine, so it never blocks
// the scheduler. Implementations of Waiter must be safe for concurrent
// use by multiple goroutines.
type Waiter interface {
	Wait(resp *request.Response) time.Duration
}

// NoWait is a Waiter which sends retries immediately.
var NoWait = NewFixedWaiter(0)

// NewFixedWaiter constructs a Waiter that always returns the given
// duration.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Response) time.Duration {
	return time.Duration(w)
}

// NewJitterWaiter constructs a Waiter that returns a random duration
// between 0 (inclusive) and max (exclusive), spreading the retries of
// many requests which failed together.
//
// Parameter jitter is used to generate the random number. You may
// specify either a random number generator seed value (as a time.Time,
// int, or int64) or a random number generator (as a *rand.Rand or
// rand.Source). To make a waiter that does not jitter and simply
// returns max, pass nil.
func NewJitterWaiter(max time.Duration, jitter interface{}) Waiter {
	if max < 1 {
		panic("hydra/retry: max must be positive")
	}
	return &jitterWaiter{
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type jitterWaiter struct {
	max  time.Duration
	rand *rand.Rand
	lock sync.Mutex
}

func (w *jitterWaiter) Wait(_ *request.Response) time.Duration {
	if w.rand == nil {
		return w.max
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	return time.Duration(w.rand.Int63n(int64(w.max)))
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("hydra/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("hydra/retry: invalid jitter type")
	}
	return rand.New(s)
}
