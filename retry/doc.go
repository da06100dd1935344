// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry decides whether a completed request should be requeued
// for its single retry, and how long to wait before the retry is sent.
//
// The scheduler's standard decider is built by NewDecider from the
// Hydra's retry codes and connect timeout setting:
//
//	retry.NewDecider([]int{502, 503}, true)
//
// which is equivalent to the composition
//
//	retry.Method("GET").
//		And(retry.StatusCode(502, 503).Or(retry.ConnectTimeout)).
//		And(retry.NotRequeued).
//		And(retry.Allowed)
//
// To retry more than that, give the Hydra a Policy, composed with
// NewPolicy from a decision-maker, Decider, and a wait time calculator,
// Waiter:
//
//	h := hydra.New(hydra.Config{
//		RetryPolicy: retry.NewPolicy(retry.TransientErr, retry.NewFixedWaiter(100*time.Millisecond)),
//	})
//
// The Hydra consults a Policy only for GET requests which allow retries
// and have not been requeued, so a request is never retried more than
// once, however the Policy's Decider is composed.
package retry
