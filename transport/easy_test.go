// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"testing"
	"time"

	"github.com/gogama/hydra/request"

	"github.com/stretchr/testify/assert"
)

func TestEasy(t *testing.T) {
	r := &request.Request{Method: "GET", URL: "http://example.com"}
	e := NewEasy()
	e.Configure(r, time.Second, time.Millisecond)
	assert.Same(t, r, e.Request())
	assert.Equal(t, time.Second, e.Timeout())
	assert.Equal(t, time.Millisecond, e.Delay())
	assert.Nil(t, e.Response())

	t.Run("success", func(t *testing.T) {
		var s, f int
		e.OnSuccess(func(*Easy) { s++ })
		e.OnFailure(func(*Easy) { f++ })
		resp := &request.Response{Code: 204}
		e.complete(resp)
		assert.Same(t, resp, e.Response())
		assert.Equal(t, 1, s)
		assert.Equal(t, 0, f)
	})
	t.Run("failure", func(t *testing.T) {
		testCases := []*request.Response{
			{Code: 404},
			{Code: 503},
			{Code: 304},
			{ReturnCode: request.CouldntConnect},
			{Code: 200, ReturnCode: request.RecvError},
		}
		for _, resp := range testCases {
			var s, f int
			e.OnSuccess(func(*Easy) { s++ })
			e.OnFailure(func(*Easy) { f++ })
			e.complete(resp)
			assert.Equal(t, 0, s)
			assert.Equal(t, 1, f)
		}
	})
	t.Run("no callbacks", func(t *testing.T) {
		e.OnSuccess(nil)
		e.OnFailure(nil)
		assert.NotPanics(t, func() { e.complete(&request.Response{Code: 200}) })
	})
	t.Run("Reset", func(t *testing.T) {
		var cancelled bool
		e.cancel = func() { cancelled = true }
		e.OnSuccess(func(*Easy) {})
		e.Reset()
		assert.True(t, cancelled)
		assert.Nil(t, e.Request())
		assert.Nil(t, e.Response())
		assert.Zero(t, e.Timeout())
		assert.Zero(t, e.Delay())
		assert.Nil(t, e.onSuccess)
		assert.Nil(t, e.onFailure)
		assert.Nil(t, e.cancel)
	})
}
