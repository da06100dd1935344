// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (describes one logical
HTTP call together with its lifecycle state and completion callbacks)
and Response (describes the outcome of one transport exchange).

The first core type is Request. A Request is created once, queued on a
scheduler (hydra.Hydra), and eventually resolved with a Response. Its
configuration fields (method, URL, headers, body, timeouts, proxy and
SSL options, and so on) are passed through to the transport unmodified
and should be treated as write-once: set them after New and before the
request is queued.

	r, err := request.New("GET", "https://example.com/users", url.Values{"page": {"2"}}, nil)
	...
	r.Timeout = 2 * time.Second
	r.OnComplete(func(resp *request.Response) interface{} {
		return len(resp.Body)
	})

For every method except POST, params are serialized onto the URL query
string, so the URL of the request above is
"https://example.com/users?page=2". For POST, params are sent as a form
body unless an explicit body is given.

A Request is retried at most once. Whether a retry happens is decided
by the scheduler's retry policy (see package retry), but once a Request
has been requeued it is never requeued again, and the response which
caused the retry is only ever shown to the OnRetry callback.

The second core type is Response. A Response is a value object: once
constructed by the transport (or by a stub or cache) it is not
modified. It carries the HTTP status code, headers and body, a timing
breakdown of the exchange, and, if the exchange failed below the HTTP
layer, a non-zero ReturnCode describing the failure. Transport failures
are not Go errors from the scheduler's perspective; they flow through
the same completion path as any other Response.
*/
package request
