// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"regexp"

	"github.com/gogama/hydra/request"
)

// A Stub intercepts matching requests and answers them with canned
// responses, without touching the network. Create stubs with
// Hydra.Stub or Hydra.StubRegexp.
type Stub struct {
	method    string
	url       string
	re        *regexp.Regexp
	responses []*request.Response
	next      int
}

// AndReturn sets the canned responses. Matching requests receive them
// in order; once they are used up, the last one is repeated. A stub
// with no responses matches nothing.
func (s *Stub) AndReturn(responses ...*request.Response) *Stub {
	s.responses = append([]*request.Response(nil), responses...)
	s.next = 0
	return s
}

func (s *Stub) matches(r *request.Request) bool {
	if len(s.responses) == 0 {
		return false
	}
	if s.method != "" && s.method != r.Method {
		return false
	}
	if s.re != nil {
		return s.re.MatchString(r.URL)
	}
	return s.url == r.URL
}

func (s *Stub) response() *request.Response {
	resp := s.responses[s.next]
	if s.next < len(s.responses)-1 {
		s.next++
	}
	return resp
}

// Stub registers a stub matching requests with the given method and
// exact URL, including any query string. An empty method matches every
// method.
func (h *Hydra) Stub(method, url string) *Stub {
	s := &Stub{method: method, url: url}
	h.stubs = append(h.stubs, s)
	return s
}

// StubRegexp registers a stub matching requests with the given method
// whose URL matches re. An empty method matches every method.
func (h *Hydra) StubRegexp(method string, re *regexp.Regexp) *Stub {
	if re == nil {
		panic("hydra: nil regexp")
	}
	s := &Stub{method: method, re: re}
	h.stubs = append(h.stubs, s)
	return s
}

// ClearStubs removes every registered stub. Requests already bound to a
// stub are still resolved by it.
func (h *Hydra) ClearStubs() {
	h.stubs = nil
}

func (h *Hydra) bindStub(r *request.Request) bool {
	for _, s := range h.stubs {
		if s.matches(r) {
			h.queueStub(s, r)
			return true
		}
	}
	return false
}

func (h *Hydra) queueStub(s *Stub, r *request.Request) {
	if _, ok := h.stubQueued[s]; !ok {
		h.boundStubs = append(h.boundStubs, s)
	}
	h.stubQueued[s] = append(h.stubQueued[s], r)
}

// drainStubs resolves every stub-bound request, in the order the stubs
// were first matched. Requests bound while draining, including stubbed
// retries, are resolved too.
func (h *Hydra) drainStubs() {
	for len(h.boundStubs) > 0 {
		s := h.boundStubs[0]
		h.boundStubs = h.boundStubs[1:]
		reqs := h.stubQueued[s]
		delete(h.stubQueued, s)
		for _, r := range reqs {
			h.resolveStub(s, r)
		}
	}
}

// resolveStub settles r with the canned response of s. A stubbed
// request never holds a concurrency slot, so a retry binds it to s
// again instead of requeueing it.
func (h *Hydra) resolveStub(s *Stub, r *request.Request) {
	resp := s.response().WithRequest(r)
	if h.judge(resp) == retrying {
		h.markRetry(r, resp)
		h.queueStub(s, r)
		return
	}
	h.finish(r, resp, false)
}
