// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/gogama/hydra/request"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestReturnCodeOf(t *testing.T) {
	wrap := func(err error) error {
		return &url.Error{Op: "Get", URL: "http://example.com", Err: err}
	}
	testCases := []struct {
		name     string
		err      error
		expected request.ReturnCode
	}{
		{"nil", nil, request.OK},
		{"setup", &setupError{request.SSLCertProblem, errors.New("bad cert")}, request.SSLCertProblem},
		{"cancelled", wrap(context.Canceled), request.Aborted},
		{"deadline", wrap(context.DeadlineExceeded), request.OperationTimeout},
		{"redirects", wrap(errTooManyRedirects), request.TooManyRedirects},
		{"dial timeout", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}), request.ConnectTimeout},
		{"read timeout", wrap(&net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}}), request.OperationTimeout},
		{"refused", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}), request.CouldntConnect},
		{"reset", wrap(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}), request.RecvError},
		{"dns", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Name: "nowhere", Err: "no such host"}}), request.CouldntResolveHost},
		{"unknown authority", wrap(x509.UnknownAuthorityError{}), request.PeerFailedVerification},
		{"hostname", wrap(x509.HostnameError{Host: "example.com", Certificate: &x509.Certificate{}}), request.PeerFailedVerification},
		{"invalid certificate", wrap(x509.CertificateInvalidError{Reason: x509.Expired, Cert: &x509.Certificate{}}), request.PeerFailedVerification},
		{"verification", wrap(&tls.CertificateVerificationError{Err: errors.New("bad")}), request.PeerFailedVerification},
		{"record header", wrap(tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}), request.SSLConnectError},
		{"dial other", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("network unreachable")}), request.CouldntConnect},
		{"scheme", wrap(errors.New(`unsupported protocol scheme "ftp"`)), request.UnsupportedProtocol},
		{"other", wrap(errors.New("foo")), request.Other},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, returnCodeOf(testCase.err), fmt.Sprintf("%v", testCase.err))
		})
	}
}
