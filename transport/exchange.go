// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/gogama/hydra/request"
	"go.uber.org/zap"
)

// An exchange holds everything one goroutine needs to perform one HTTP
// exchange, copied out of the handle so the handle can be reset while
// the exchange is still running.
type exchange struct {
	request *request.Request
	doer    HTTPDoer
	timeout time.Duration
	delay   time.Duration
	logger  *zap.Logger
}

func (x *exchange) perform(ctx context.Context) *request.Response {
	r := x.request
	if x.delay > 0 {
		timer := time.NewTimer(x.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return failure(r, request.Aborted, ctx.Err(), request.Timing{})
		}
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	t := &tracer{start: time.Now()}
	ctx = httptrace.WithClientTrace(ctx, t.clientTrace())

	req, err := r.ToRequest(ctx)
	if err != nil {
		return failure(r, request.MalformedURL, err, request.Timing{})
	}
	if r.Verbose {
		x.logger.Debug("sending request",
			zap.String("id", r.ID),
			zap.String("method", r.Method),
			zap.String("url", r.URL),
			zap.Duration("timeout", x.timeout),
			zap.Any("header", req.Header))
	}

	httpResp, err := x.doer.Do(req)
	if err != nil {
		timing := t.timing()
		rc := returnCodeOf(err)
		if rc == request.OperationTimeout && t.connecting() {
			rc = request.ConnectTimeout
		}
		resp := failure(r, rc, err, timing)
		x.logVerbose(resp)
		return resp
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	resp := &request.Response{
		Code:         httpResp.StatusCode,
		Header:       httpResp.Header,
		EffectiveURL: r.URL,
		Request:      r,
	}
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		resp.EffectiveURL = httpResp.Request.URL.String()
	}
	resp.Body, err = io.ReadAll(httpResp.Body)
	resp.Timing = t.timing()
	if err != nil {
		resp.ReturnCode = returnCodeOf(err)
		if resp.ReturnCode == request.Other {
			resp.ReturnCode = request.RecvError
		}
		resp.ErrorMessage = err.Error()
		resp.Err = err
	}
	x.logVerbose(resp)
	return resp
}

func (x *exchange) logVerbose(resp *request.Response) {
	if !x.request.Verbose {
		return
	}
	fields := []zap.Field{
		zap.String("id", x.request.ID),
		zap.Int("code", resp.Code),
		zap.Stringer("return_code", resp.ReturnCode),
		zap.Int("body_bytes", len(resp.Body)),
		zap.Duration("total", resp.Timing.Total),
	}
	if resp.Err != nil {
		fields = append(fields, zap.Error(resp.Err))
	}
	x.logger.Debug("received response", fields...)
}

func failure(r *request.Request, rc request.ReturnCode, err error, timing request.Timing) *request.Response {
	resp := &request.Response{
		ReturnCode:   rc,
		Err:          err,
		EffectiveURL: r.URL,
		Timing:       timing,
		Request:      r,
	}
	if err != nil {
		resp.ErrorMessage = err.Error()
	} else {
		resp.ErrorMessage = rc.String()
	}
	return resp
}

// A tracer records the phase timings of one exchange. Trace hooks may
// fire on goroutines other than the exchange goroutine.
type tracer struct {
	lock  sync.Mutex
	start time.Time

	dnsDone     time.Duration
	connectDone time.Duration
	tlsDone     time.Duration
	gotConn     time.Duration
	firstByte   time.Duration
	getConn     bool
	connected   bool
}

func (t *tracer) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) {
			t.lock.Lock()
			t.getConn = true
			t.lock.Unlock()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			t.stamp(&t.dnsDone)
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				t.stamp(&t.connectDone)
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				t.stamp(&t.tlsDone)
			}
		},
		GotConn: func(httptrace.GotConnInfo) {
			t.lock.Lock()
			t.connected = true
			t.lock.Unlock()
			t.stamp(&t.gotConn)
		},
		GotFirstResponseByte: func() {
			t.stamp(&t.firstByte)
		},
	}
}

func (t *tracer) stamp(d *time.Duration) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if *d == 0 {
		*d = time.Since(t.start)
	}
}

// connecting indicates a connection was requested but never obtained.
func (t *tracer) connecting() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.getConn && !t.connected
}

func (t *tracer) timing() request.Timing {
	t.lock.Lock()
	defer t.lock.Unlock()
	return request.Timing{
		NameLookup:    t.dnsDone,
		Connect:       t.connectDone,
		AppConnect:    t.tlsDone,
		Pretransfer:   t.gotConn,
		StartTransfer: t.firstByte,
		Total:         time.Since(t.start),
	}
}
