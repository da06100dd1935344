// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const badBodyTypeMsg = "hydra/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)"

// BodyBytes converts the body argument of New, Post and similar
// functions into the byte slice a Request carries.
//
// A nil body yields a nil slice. A string is converted and a []byte is
// returned as is. An io.Reader is read to the end and, if it is also an
// io.Closer, closed; an error from either step is returned with a nil
// slice. Any other type is an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// cacheKey returns the hex SHA-1 digest of s.
func cacheKey(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// validMethod reports whether method is a valid HTTP token as defined
// in https://tools.ietf.org/html/rfc7230#section-3.2.6.
//
// We don't need to check for length more than 1 because we always
// interpret the empty string as "GET".
func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}
