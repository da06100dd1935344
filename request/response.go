// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"time"
)

// A ReturnCode describes the outcome of a transport exchange below the
// HTTP layer. OK means the exchange produced an HTTP response; every
// other value is a transport-level failure.
type ReturnCode int

const (
	// OK indicates the exchange completed and produced an HTTP response.
	OK ReturnCode = iota
	// UnsupportedProtocol indicates the URL scheme is not supported.
	UnsupportedProtocol
	// MalformedURL indicates the URL could not be turned into a request.
	MalformedURL
	// CouldntResolveHost indicates DNS resolution of the host failed.
	CouldntResolveHost
	// CouldntConnect indicates the connection was refused or could not
	// otherwise be established.
	CouldntConnect
	// ConnectTimeout indicates the timeout expired before a connection
	// was established.
	ConnectTimeout
	// OperationTimeout indicates the timeout expired after a connection
	// was established.
	OperationTimeout
	// SSLConnectError indicates the TLS handshake failed.
	SSLConnectError
	// PeerFailedVerification indicates the server certificate was
	// rejected.
	PeerFailedVerification
	// SSLCertProblem indicates the client certificate, key or CA
	// material could not be loaded.
	SSLCertProblem
	// InterfaceFailed indicates the local interface to bind to could
	// not be used.
	InterfaceFailed
	// TooManyRedirects indicates the redirect limit was reached.
	TooManyRedirects
	// RecvError indicates a failure while receiving data, including a
	// connection reset by the peer.
	RecvError
	// Aborted indicates the exchange was cancelled.
	Aborted
	// Other indicates any other transport failure.
	Other
	// returnCodeSentinel provides the total number of return codes.
	returnCodeSentinel
)

var returnCodeNames = []string{
	"OK",
	"UnsupportedProtocol",
	"MalformedURL",
	"CouldntResolveHost",
	"CouldntConnect",
	"ConnectTimeout",
	"OperationTimeout",
	"SSLConnectError",
	"PeerFailedVerification",
	"SSLCertProblem",
	"InterfaceFailed",
	"TooManyRedirects",
	"RecvError",
	"Aborted",
	"Other",
}

// String returns the name of the return code.
func (rc ReturnCode) String() string {
	if rc < 0 || rc >= returnCodeSentinel {
		return "ReturnCode(?)"
	}
	return returnCodeNames[rc]
}

// Timing is the time breakdown of a transport exchange. Every value is
// measured from the start of the exchange; phases which did not happen
// (for example AppConnect on a plain HTTP connection, or any phase of
// a reused connection before Pretransfer) are zero.
type Timing struct {
	NameLookup    time.Duration
	Connect       time.Duration
	AppConnect    time.Duration
	Pretransfer   time.Duration
	StartTransfer time.Duration
	Total         time.Duration
}

// A Response captures the outcome of one transport exchange, or a
// canned or cached outcome served in its place.
//
// A Response is immutable once constructed. Use WithRequest to obtain
// a copy bound to a different request.
type Response struct {
	// Code is the HTTP status code, or 0 if the exchange failed before
	// a status was received.
	Code int
	// Header contains the response header fields.
	Header http.Header
	// Body is the complete response body.
	Body []byte
	// Timing is the time breakdown of the exchange.
	Timing Timing
	// EffectiveURL is the URL of the last request made, after any
	// redirects were followed.
	EffectiveURL string
	// ReturnCode is non-zero if the exchange failed below the HTTP
	// layer.
	ReturnCode ReturnCode
	// ErrorMessage describes a transport failure. It is empty if
	// ReturnCode is OK.
	ErrorMessage string
	// Err is the underlying transport error, if any.
	Err error
	// Request is the request this response belongs to.
	Request *Request
}

// WithRequest returns a shallow copy of resp bound to r.
func (resp *Response) WithRequest(r *Request) *Response {
	resp2 := new(Response)
	*resp2 = *resp
	resp2.Request = r
	return resp2
}

// Success indicates whether the status code is 2XX.
func (resp *Response) Success() bool {
	return resp.Code >= 200 && resp.Code < 300
}

// Modified indicates whether the status code is anything but 304.
func (resp *Response) Modified() bool {
	return resp.Code != http.StatusNotModified
}

// TransportFailed indicates whether the exchange failed below the HTTP
// layer.
func (resp *Response) TransportFailed() bool {
	return resp.ReturnCode != OK
}

// TimedOut indicates whether the exchange failed because a timeout
// expired, either before or after the connection was established.
func (resp *Response) TimedOut() bool {
	return resp.ReturnCode == ConnectTimeout || resp.ReturnCode == OperationTimeout
}

// ConnectTimedOut indicates whether the exchange failed because the
// timeout expired before a connection was established.
func (resp *Response) ConnectTimedOut() bool {
	return resp.ReturnCode == ConnectTimeout
}
