// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"testing"
	"time"

	"github.com/gogama/hydra/request"

	"github.com/stretchr/testify/assert"
)

func TestInfinite(t *testing.T) {
	r := &request.Request{}
	assert.Equal(t, time.Duration(0), Infinite.Timeout(r, nil))
	assert.Equal(t, time.Duration(0), Infinite.Timeout(r, &request.Response{ReturnCode: request.OperationTimeout}))
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	r := &request.Request{}
	assert.Equal(t, 33*time.Hour, p.Timeout(r, nil))
	assert.Equal(t, 33*time.Hour, p.Timeout(r, &request.Response{Code: 503}))
	assert.Equal(t, 33*time.Hour, p.Timeout(r, &request.Response{ReturnCode: request.ConnectTimeout}))
	assert.PanicsWithValue(t, "hydra/timeout: negative duration", func() { Fixed(-1) })
}

func TestAdaptive(t *testing.T) {
	p := Adaptive(5*time.Millisecond, 100*time.Millisecond)
	r := &request.Request{}
	testCases := []struct {
		name     string
		prev     *request.Response
		expected time.Duration
	}{
		{"first exchange", nil, 5 * time.Millisecond},
		{"retry after 503", &request.Response{Code: 503}, 5 * time.Millisecond},
		{"retry after refused", &request.Response{ReturnCode: request.CouldntConnect}, 5 * time.Millisecond},
		{"retry after connect timeout", &request.Response{ReturnCode: request.ConnectTimeout}, 100 * time.Millisecond},
		{"retry after operation timeout", &request.Response{ReturnCode: request.OperationTimeout}, 100 * time.Millisecond},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, p.Timeout(r, testCase.prev))
		})
	}
	assert.PanicsWithValue(t, "hydra/timeout: negative duration", func() { Adaptive(-1, 0) })
	assert.PanicsWithValue(t, "hydra/timeout: negative duration", func() { Adaptive(0, -1) })
}
