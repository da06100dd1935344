// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import "errors"

var (
	// ErrNetworkDisabled is returned by Queue when a request would reach
	// the network while live connections are disabled. The returned
	// error wraps ErrNetworkDisabled and names the request, so use
	// errors.Is to test for it.
	ErrNetworkDisabled = errors.New("hydra: real HTTP connections are disabled")

	// ErrRunning is returned by Run when it is called while a Run on the
	// same Hydra is already in progress, typically from a handler.
	ErrRunning = errors.New("hydra: already running")
)
