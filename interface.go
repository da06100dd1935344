// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"context"
	"errors"
	"net/url"

	"github.com/gogama/hydra/request"
)

// ErrIncomplete is returned by Do and the functions built on it when
// the run ended without resolving the request, for example because it
// was aborted.
var ErrIncomplete = errors.New("hydra: request did not complete")

// Queuer is the interface that wraps the basic Queue method.
//
// Queue admits a request for execution by a later Run, or resolves it
// at once. Hydra implements the Queuer interface.
type Queuer interface {
	Queue(r *request.Request) error
}

// Runner is the interface that wraps the basic Run method.
//
// Run performs every admitted request and returns once none is left in
// flight. Hydra implements the Runner interface.
type Runner interface {
	Run(ctx context.Context) error
}

// Executor is the interface that groups the basic Queue and Run
// methods.
type Executor interface {
	Queuer
	Runner
}

var _ Executor = (*Hydra)(nil)

// Do queues r on e, runs e, and returns the response r was resolved
// with.
//
// Because Do runs e, every other request already queued on e is
// performed too. Do returns ErrIncomplete if the run ends without
// resolving r.
func Do(ctx context.Context, e Executor, r *request.Request) (*request.Response, error) {
	if err := e.Queue(r); err != nil {
		return nil, err
	}
	if err := e.Run(ctx); err != nil {
		return r.Response(), err
	}
	if r.Response() == nil {
		return nil, ErrIncomplete
	}
	return r.Response(), nil
}

// Get uses the specified Executor to issue a GET to the specified URL.
//
// To make a request with custom headers, use request.New and Do.
func Get(ctx context.Context, e Executor, url string) (*request.Response, error) {
	return send(ctx, e, "GET", url, nil)
}

// Head uses the specified Executor to issue a HEAD to the specified URL.
//
// To make a request with custom headers, use request.New and Do.
func Head(ctx context.Context, e Executor, url string) (*request.Response, error) {
	return send(ctx, e, "HEAD", url, nil)
}

// Delete uses the specified Executor to issue a DELETE to the specified
// URL.
//
// To make a request with custom headers, use request.New and Do.
func Delete(ctx context.Context, e Executor, url string) (*request.Response, error) {
	return send(ctx, e, "DELETE", url, nil)
}

// Post uses the specified Executor to issue a POST to the specified URL.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.New and request.BodyBytes, namely: string;
// []byte; io.Reader; and io.ReadCloser.
//
// To make a request with custom headers, use request.New and Do.
func Post(ctx context.Context, e Executor, url, contentType string, body interface{}) (*request.Response, error) {
	return sendBody(ctx, e, "POST", url, contentType, body)
}

// Put uses the specified Executor to issue a PUT to the specified URL,
// accepting the same body types as Post.
func Put(ctx context.Context, e Executor, url, contentType string, body interface{}) (*request.Response, error) {
	return sendBody(ctx, e, "PUT", url, contentType, body)
}

// PostForm uses the specified Executor to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
func PostForm(ctx context.Context, e Executor, url string, data url.Values) (*request.Response, error) {
	return Post(ctx, e, url, "application/x-www-form-urlencoded", data.Encode())
}

func send(ctx context.Context, e Executor, method, url string, body interface{}) (*request.Response, error) {
	r, err := request.New(method, url, nil, body)
	if err != nil {
		return nil, err
	}
	return Do(ctx, e, r)
}

func sendBody(ctx context.Context, e Executor, method, url, contentType string, body interface{}) (*request.Response, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	r, err := request.New(method, url, nil, b)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", contentType)
	return Do(ctx, e, r)
}
