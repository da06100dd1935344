// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A testServer answers according to instructions in the query string:
//
//	status=503          status code to return (default 200)
//	seq=503,200         status code per hit of the same URL; the last repeats
//	pause=20ms          time to wait before answering
//	body=foo            response body
//
// It counts hits per request URI and tracks the peak number of requests
// in flight.
type testServer struct {
	*httptest.Server

	lock sync.Mutex
	hits map[string]int

	inFlight    int32
	maxInFlight int32
}

func newTestServer(t *testing.T) *testServer {
	s := &testServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) url(pathAndQuery string) string {
	return s.URL + pathAndQuery
}

func (s *testServer) hitCount(pathAndQuery string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hits[pathAndQuery]
}

func (s *testServer) totalHits() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

func (s *testServer) peak() int {
	return int(atomic.LoadInt32(&s.maxInFlight))
}

func (s *testServer) serve(w http.ResponseWriter, req *http.Request) {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		max := atomic.LoadInt32(&s.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&s.maxInFlight, max, n) {
			break
		}
	}

	s.lock.Lock()
	s.hits[req.URL.RequestURI()]++
	hit := s.hits[req.URL.RequestURI()]
	s.lock.Unlock()

	q := req.URL.Query()
	status := 200
	if v := q.Get("status"); v != "" {
		status, _ = strconv.Atoi(v)
	}
	if v := q.Get("seq"); v != "" {
		seq := strings.Split(v, ",")
		i := hit - 1
		if i >= len(seq) {
			i = len(seq) - 1
		}
		status, _ = strconv.Atoi(seq[i])
	}
	if v := q.Get("pause"); v != "" {
		d, _ := time.ParseDuration(v)
		select {
		case <-time.After(d):
		case <-req.Context().Done():
			return
		}
	}
	w.Header().Set("X-Hit", strconv.Itoa(hit))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, q.Get("body"))
}
