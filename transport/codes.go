// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"

	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/transient"
)

// A setupError is a failure to build the client for an exchange. It
// carries the return code the failure maps to.
type setupError struct {
	code request.ReturnCode
	err  error
}

func (e *setupError) Error() string {
	return e.err.Error()
}

func (e *setupError) Unwrap() error {
	return e.err
}

var errTooManyRedirects = errors.New("hydra/transport: too many redirects")

// returnCodeOf maps an exchange error to a return code.
func returnCodeOf(err error) request.ReturnCode {
	if err == nil {
		return request.OK
	}

	var se *setupError
	if errors.As(err, &se) {
		return se.code
	}
	if errors.Is(err, context.Canceled) {
		return request.Aborted
	}
	if errors.Is(err, errTooManyRedirects) {
		return request.TooManyRedirects
	}

	switch transient.Categorize(err) {
	case transient.ConnectTimeout:
		return request.ConnectTimeout
	case transient.Timeout:
		return request.OperationTimeout
	case transient.ConnRefused:
		return request.CouldntConnect
	case transient.ConnReset:
		return request.RecvError
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return request.CouldntResolveHost
	}

	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostname) ||
		errors.As(err, &invalid) || errors.As(err, &verification) {
		return request.PeerFailedVerification
	}
	var recordHeader tls.RecordHeaderError
	if errors.As(err, &recordHeader) {
		return request.SSLConnectError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return request.CouldntConnect
	}
	if strings.Contains(err.Error(), "unsupported protocol scheme") {
		return request.UnsupportedProtocol
	}

	return request.Other
}
