// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Hydra to extend it with custom
// functionality such as instrumentation.
type Event int

const (
	// BeforeDispatch identifies the event that occurs after a request
	// has been bound to a transport handle and just before the handle
	// is added to the aggregator.
	//
	// When Hydra fires BeforeDispatch, the response passed to the
	// handler is nil, or the discarded response if the dispatch is a
	// retry.
	BeforeDispatch Event = iota
	// AfterTransport identifies the event that occurs after a live
	// exchange ended, before the retry decision is made.
	//
	// When Hydra fires AfterTransport, the response passed to the
	// handler is the raw response of the exchange. The transport handle
	// has already been returned to the pool.
	AfterTransport
	// AfterCacheHit identifies the event that occurs after the cache
	// getter returned a response for a request.
	AfterCacheHit
	// AfterMemoHit identifies the event that occurs after a duplicate
	// GET was short-circuited by memoization, either served from an
	// earlier result or parked behind an in-flight duplicate.
	//
	// When Hydra fires AfterMemoHit for a parked request, the response
	// passed to the handler is nil.
	AfterMemoHit
	// AfterRetry identifies the event that occurs after a request was
	// requeued for its single retry, before it is redispatched.
	//
	// When Hydra fires AfterRetry, the response passed to the handler
	// is the discarded response.
	AfterRetry
	// AfterRequestBeforeOnComplete identifies the event that occurs
	// after a request has been resolved with its final response, and
	// before the Hydra-wide and per-request completion callbacks run.
	AfterRequestBeforeOnComplete
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeDispatch",
	"AfterTransport",
	"AfterCacheHit",
	"AfterMemoHit",
	"AfterRetry",
	"AfterRequestBeforeOnComplete",
}

// Events returns a slice containing all events which a Hydra can fire.
func Events() []Event {
	return []Event{
		BeforeDispatch,
		AfterTransport,
		AfterCacheHit,
		AfterMemoHit,
		AfterRetry,
		AfterRequestBeforeOnComplete,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
