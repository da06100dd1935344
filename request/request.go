// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
)

// DefaultUserAgent is the User-Agent header value sent when a Request
// does not specify its own.
const DefaultUserAgent = "hydra (https://github.com/gogama/hydra)"

const formContentType = "application/x-www-form-urlencoded"

// LocalhostAliases lists the host names which Localhost recognizes as
// referring to the local machine.
var LocalhostAliases = []string{"localhost", "127.0.0.1", "0.0.0.0", "::1"}

// A Request describes one logical HTTP call, plus the mutable state of
// its lifecycle within a scheduler and the callbacks to invoke when it
// completes.
//
// The exported configuration fields are passed through to the transport
// unmodified. They may be changed between New and the moment the request
// is queued, but must be left untouched afterward.
type Request struct {
	// ID uniquely identifies the request for logging purposes. It is
	// assigned by New.
	ID string

	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string

	// URL is the URL to access. For methods other than POST it includes
	// the serialized Params.
	URL string

	// Params holds the parameters given to New. They are already
	// serialized into URL (or Body, for a POST) and are kept for
	// inspection only.
	Params urlpkg.Values

	// Body is the pre-buffered request body.
	Body []byte

	// Header contains the request header fields to be sent.
	Header http.Header

	// UserAgent is sent as the User-Agent header. New sets it to
	// DefaultUserAgent.
	UserAgent string

	// Timeout limits the whole exchange. Zero means the scheduler's
	// timeout policy decides.
	Timeout time.Duration

	// ConnectTimeout limits connection establishment. Zero means no
	// separate connect limit.
	ConnectTimeout time.Duration

	// Username and Password, if either is set, are sent using the
	// authentication scheme named by AuthMethod. Only "basic" (or the
	// empty string, meaning basic) is supported.
	Username   string
	Password   string
	AuthMethod string

	// Proxy is the URL (or host:port) of the proxy to use, if any.
	Proxy         string
	ProxyUsername string
	ProxyPassword string

	// DisableSSLPeerVerification turns off all verification of the
	// server certificate.
	DisableSSLPeerVerification bool

	// DisableSSLHostVerification keeps certificate chain verification
	// but skips checking that the certificate matches the host name.
	DisableSSLHostVerification bool

	// SSLCert and SSLKey name PEM files holding a client certificate
	// and its private key.
	SSLCert string
	SSLKey  string

	// SSLCACert names a PEM file of trusted CA certificates; SSLCAPath
	// names a directory of them. When either is set, the system roots
	// are not used.
	SSLCACert string
	SSLCAPath string

	// FollowLocation enables following redirects. MaxRedirects, if
	// positive, limits how many are followed.
	FollowLocation bool
	MaxRedirects   int

	// Interface is the local interface name, IP address or host name
	// to bind outgoing connections to.
	Interface string

	// Verbose enables logging of the exchange by the transport.
	Verbose bool

	// CacheTimeout is the time the response may be kept in an external
	// cache. A non-zero value makes the response of a live exchange
	// eligible to be written to the cache.
	CacheTimeout time.Duration

	// AttemptRetry allows the scheduler to retry the request once. New
	// sets it to true.
	AttemptRetry bool

	response        *Response
	performed       bool
	requeued        bool
	handledResponse interface{}

	onComplete    func(*Response) interface{}
	afterComplete func(interface{})
	onRetry       func(*Response)
}

// New returns a new Request given a method, URL, optional params and
// optional body.
//
// An empty method means GET. Parameter params may be nil. For every
// method except POST, non-empty params are appended to the URL query
// string. For a POST with a nil body, non-empty params become a form
// body and the Content-Type header is set accordingly.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser, as documented on BodyBytes.
//
// New returns an error if the method is not a valid HTTP token, if the
// URL cannot be parsed or is not absolute, or if the body cannot be
// converted.
func New(method, url string, params urlpkg.Values, body interface{}) (*Request, error) {
	if method == "" {
		method = "GET"
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	r := &Request{
		ID:           uuid.New().String(),
		Method:       method,
		URL:          url,
		Params:       params,
		Body:         b,
		Header:       make(http.Header),
		UserAgent:    DefaultUserAgent,
		AttemptRetry: true,
	}
	if len(params) > 0 {
		if method == "POST" {
			if b == nil {
				r.Body = []byte(params.Encode())
				r.Header.Set("Content-Type", formContentType)
			}
		} else {
			sep := "?"
			if strings.Contains(url, "?") {
				sep = "&"
			}
			r.URL = url + sep + params.Encode()
		}
	}
	if err = r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that the request's method, URL and headers can be
// sent. The scheduler calls Validate again when the request is queued,
// since fields may have been changed after New.
func (r *Request) Validate() error {
	if !validMethod(r.Method) {
		return fmt.Errorf("hydra/request: invalid method %q", r.Method)
	}
	u, err := urlpkg.Parse(r.URL)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("hydra/request: malformed url %q (must be absolute)", r.URL)
	}
	if r.AuthMethod != "" && !strings.EqualFold(r.AuthMethod, "basic") {
		return fmt.Errorf("hydra/request: unsupported auth method %q", r.AuthMethod)
	}
	for k, vs := range r.Header {
		if !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("hydra/request: invalid header field name %q", k)
		}
		for _, v := range vs {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("hydra/request: invalid header field value for %q", k)
			}
		}
	}
	return nil
}

// OnComplete sets the completion callback. The value it returns
// becomes the request's handled response and is passed to the
// AfterComplete callback.
func (r *Request) OnComplete(f func(*Response) interface{}) {
	r.onComplete = f
}

// AfterComplete sets the callback invoked with the result of the
// OnComplete callback.
func (r *Request) AfterComplete(f func(interface{})) {
	r.afterComplete = f
}

// OnRetry sets the callback invoked with the discarded response when
// the request is requeued for a retry.
func (r *Request) OnRetry(f func(*Response)) {
	r.onRetry = f
}

// CallHandlers invokes the OnComplete callback with the request's
// response and then, if OnComplete is set, the AfterComplete callback
// with its result. Both are no-ops if unset.
func (r *Request) CallHandlers() {
	if r.onComplete == nil {
		return
	}
	r.handledResponse = r.onComplete(r.response)
	r.CallAfterComplete()
}

// CallAfterComplete invokes the AfterComplete callback, if set, with
// the handled response.
func (r *Request) CallAfterComplete() {
	if r.afterComplete != nil {
		r.afterComplete(r.HandledResponse())
	}
}

// CallRetryHandler invokes the OnRetry callback, if set.
func (r *Request) CallRetryHandler(resp *Response) {
	if r.onRetry != nil {
		r.onRetry(resp)
	}
}

// Response returns the response the request was resolved with, or nil
// if the request has not been resolved.
func (r *Request) Response() *Response {
	return r.response
}

// SetResponse resolves the request with resp.
func (r *Request) SetResponse(resp *Response) {
	r.response = resp
}

// HandledResponse returns the value returned by the OnComplete
// callback, or the raw response if no callback produced a value.
func (r *Request) HandledResponse() interface{} {
	if r.handledResponse != nil {
		return r.handledResponse
	}
	if r.response == nil {
		return nil
	}
	return r.response
}

// SetHandledResponse overrides the handled response.
func (r *Request) SetHandledResponse(v interface{}) {
	r.handledResponse = v
}

// Performed indicates whether a network exchange has been attempted
// for the request.
func (r *Request) Performed() bool {
	return r.performed
}

// MarkPerformed records that a network exchange is being attempted.
func (r *Request) MarkPerformed() {
	r.performed = true
}

// Requeued indicates whether the request has already been retried.
func (r *Request) Requeued() bool {
	return r.requeued
}

// MarkRequeued records that the request has been retried. Once marked,
// the request is never retried again.
func (r *Request) MarkRequeued() {
	r.requeued = true
}

// Retry indicates whether the request allows a retry at all.
func (r *Request) Retry() bool {
	return r.AttemptRetry
}

// CacheKey returns the key external caches and stubs use to identify
// the request: the hex SHA-1 digest of its URL.
func (r *Request) CacheKey() string {
	return cacheKey(r.URL)
}

// Host returns the scheme and authority prefix of the URL, for example
// "https://example.com:8443".
func (r *Request) Host() string {
	start := strings.Index(r.URL, "://")
	if start < 0 {
		start = 0
	} else {
		start += 3
	}
	if i := strings.IndexAny(r.URL[start:], "/?#"); i >= 0 {
		return r.URL[:start+i]
	}
	return r.URL
}

// HostDomain returns the host name of the URL, without port.
func (r *Request) HostDomain() string {
	u, err := urlpkg.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Localhost indicates whether the URL's host is one of the
// LocalhostAliases.
func (r *Request) Localhost() bool {
	h := r.HostDomain()
	for _, alias := range LocalhostAliases {
		if h == alias {
			return true
		}
	}
	return false
}

// OutgoingHeader returns a copy of Header with the User-Agent set.
func (r *Request) OutgoingHeader() http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	if r.UserAgent != "" {
		h.Set("User-Agent", r.UserAgent)
	}
	return h
}

// ToRequest creates the net/http request corresponding to r. The
// context of the new request is set to ctx, which may not be nil.
func (r *Request) ToRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header = r.OutgoingHeader()
	if r.Username != "" || r.Password != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}
	return req, nil
}

// String returns a multi-line description of the request, suitable
// for debugging.
func (r *Request) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":method => %q,\n\t:url => %s", r.Method, r.URL)
	if len(r.Body) > 0 {
		fmt.Fprintf(&sb, ",\n\t:body => %q", r.Body)
	}
	if len(r.Params) > 0 {
		fmt.Fprintf(&sb, ",\n\t:params => %v", map[string][]string(r.Params))
	}
	if len(r.Header) > 0 {
		fmt.Fprintf(&sb, ",\n\t:headers => %v", map[string][]string(r.Header))
	}
	return sb.String()
}
