// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"net"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// The category Not means a retry after encountering the error is very
// unlikely to succeed. Every other category means a retry has some
// prospect of success.
type Category int

const (
	// Not indicates any non-transient error, or no error.
	Not Category = iota
	// Timeout indicates a client-side timeout that struck after the
	// connection was established, or at an unknown point.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout method that reports true, and the timeout
	// is not recognizably a ConnectTimeout.
	Timeout
	// ConnectTimeout indicates a client-side timeout while dialing.
	//
	// Categorize returns ConnectTimeout if the error chain contains a
	// *net.OpError whose Op is "dial" and which reports a timeout.
	ConnectTimeout
	// ConnRefused indicates the remote host refused the connection
	// (syscall.ECONNREFUSED). Refusal is classified as transient
	// because it is common while a remote service restarts.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// connection (syscall.ECONNRESET).
	ConnReset
	// DNSTemporary indicates a DNS lookup failed in a way the resolver
	// reported as temporary.
	DNSTemporary
	// categorySentinel provides the total number of categories.
	categorySentinel
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnectTimeout",
	"ConnRefused",
	"ConnReset",
	"DNSTemporary",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || c >= categorySentinel {
		return "Category(?)"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of err. A nil error, and
// any error that is not transient, produce Not.
//
// Categorize looks at the wrapped causes of err, not just err itself.
// It never consults Temporary methods other than the one on
// *net.DNSError, as their semantics are unclear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}
	var to hasTimeout
	if errors.As(err, &to) && to.Timeout() {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Timeout() {
			return ConnectTimeout
		}
		return Timeout
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return DNSTemporary
	}
	return Not
}

type hasTimeout interface {
	Timeout() bool
}
