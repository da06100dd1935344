// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/gogama/hydra/request"

	"github.com/stretchr/testify/assert"
)

func TestNoWait(t *testing.T) {
	assert.Equal(t, time.Duration(0), NoWait.Wait(&request.Response{}))
}

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, w.Wait(&request.Response{}))
	assert.Equal(t, 250*time.Millisecond, w.Wait(&request.Response{Code: 503}))
}

func TestNewJitterWaiter(t *testing.T) {
	const max = 100 * time.Millisecond
	t.Run("bad max", func(t *testing.T) {
		assert.PanicsWithValue(t, "hydra/retry: max must be positive", func() {
			NewJitterWaiter(0, nil)
		})
	})
	t.Run("bad jitter", func(t *testing.T) {
		assert.PanicsWithValue(t, "hydra/retry: invalid jitter type", func() {
			NewJitterWaiter(max, "foo")
		})
		assert.PanicsWithValue(t, "hydra/retry: jitter may not be a typed nil", func() {
			var r *rand.Rand
			NewJitterWaiter(max, r)
		})
	})
	t.Run("no jitter", func(t *testing.T) {
		w := NewJitterWaiter(max, nil)
		assert.Equal(t, max, w.Wait(&request.Response{}))
		var s rand.Source
		w = NewJitterWaiter(max, s)
		assert.Equal(t, max, w.Wait(&request.Response{}))
	})
	t.Run("with jitter", func(t *testing.T) {
		jitters := []struct {
			name  string
			value interface{}
		}{
			{"zero time.Time", time.Time{}},
			{"time.Now()", time.Now()},
			{"int", 1},
			{"int64", int64(1)},
			{"rand.Source", rand.NewSource(0)},
			{"*rand.Rand", rand.New(rand.NewSource(0))},
		}
		for i, jitter := range jitters {
			t.Run(fmt.Sprintf("jitters[%d]=%s", i, jitter.name), func(t *testing.T) {
				w := NewJitterWaiter(max, jitter.value)
				for j := 0; j < 100; j++ {
					d := w.Wait(&request.Response{})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.Less(t, d, max)
				}
			})
		}
	})
	t.Run("concurrent rand.Source usage", func(t *testing.T) {
		w := NewJitterWaiter(max, 0)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					d := w.Wait(&request.Response{})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.Less(t, d, max)
				}
			}()
		}
		wg.Wait()
	})
}
