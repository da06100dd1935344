// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for choosing the timeout of a
// transport exchange when the request does not set its own, including
// on the request's single retry. A generic interface for timeout
// policies is provided, Policy, along with several built-in policies.
package timeout
