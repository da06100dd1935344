// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("HYDRA_TEST_STRING", "foo")
	t.Setenv("HYDRA_TEST_DURATION", "3s")
	t.Setenv("HYDRA_TEST_BAD_DURATION", "3 parsecs")
	t.Setenv("HYDRA_TEST_INT", "42")
	t.Setenv("HYDRA_TEST_BAD_INT", "forty-two")
	t.Setenv("HYDRA_TEST_INTS", "502, 503")
	t.Setenv("HYDRA_TEST_BAD_INTS", "502,x")
	t.Setenv("HYDRA_TEST_TRUE", "Yes")
	t.Setenv("HYDRA_TEST_FALSE", "0")
	t.Setenv("HYDRA_TEST_BAD_BOOL", "maybe")

	assert.Equal(t, "foo", envOrDefault("HYDRA_TEST_STRING", "bar"))
	assert.Equal(t, "bar", envOrDefault("HYDRA_TEST_UNSET", "bar"))
	assert.Equal(t, 3*time.Second, durationOrDefault("HYDRA_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, durationOrDefault("HYDRA_TEST_BAD_DURATION", time.Second))
	assert.Equal(t, time.Second, durationOrDefault("HYDRA_TEST_UNSET", time.Second))
	assert.Equal(t, 42, intOrDefault("HYDRA_TEST_INT", 1))
	assert.Equal(t, 1, intOrDefault("HYDRA_TEST_BAD_INT", 1))
	assert.Equal(t, []int{502, 503}, intsOrDefault("HYDRA_TEST_INTS", nil))
	assert.Equal(t, []int{500}, intsOrDefault("HYDRA_TEST_BAD_INTS", []int{500}))
	assert.Nil(t, intsOrDefault("HYDRA_TEST_UNSET", nil))
	assert.True(t, boolOrDefault("HYDRA_TEST_TRUE", false))
	assert.False(t, boolOrDefault("HYDRA_TEST_FALSE", true))
	assert.True(t, boolOrDefault("HYDRA_TEST_BAD_BOOL", true))
	assert.False(t, boolOrDefault("HYDRA_TEST_UNSET", false))
}

func TestNewRootCommand_EnvFallback(t *testing.T) {
	t.Setenv("HYDRA_MAX_CONCURRENCY", "7")
	t.Setenv("HYDRA_RETRY_CODES", "502,503")
	t.Setenv("HYDRA_TIMEOUT", "250ms")
	t.Setenv("HYDRA_FOLLOW", "true")
	t.Setenv("HYDRA_RETRY_TRANSIENT", "1")
	cmd := newRootCommand(nil, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, "7", cmd.Flags().Lookup("max-concurrency").DefValue)
	assert.Equal(t, "[502,503]", cmd.Flags().Lookup("retry-codes").DefValue)
	assert.Equal(t, "250ms", cmd.Flags().Lookup("timeout").DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("location").DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("retry-transient").DefValue)
	assert.Equal(t, "GET", cmd.Flags().Lookup("method").DefValue)
}

func newServer(t *testing.T) *httptest.Server {
	var flaky int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		case "/flaky":
			if atomic.AddInt32(&flaky, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("recovered"))
		case "/echo":
			_, _ = w.Write([]byte(req.Method + " " + req.Header.Get("X-Test")))
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	server := newServer(t)

	t.Run("success", func(t *testing.T) {
		stdout, _, err := execute(t, "", server.URL+"/ok", server.URL+"/ok")
		require.NoError(t, err)
		lines := strings.Split(stdout, "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Contains(t, lines[0], "method=GET status=200 rc=OK")
		assert.Contains(t, lines[0], "bytes=2 url="+server.URL+"/ok")
		assert.Contains(t, lines[1], "status=200")
		assert.Contains(t, stdout, "total:       2")
		assert.Contains(t, stdout, "successful:  2")
		assert.Contains(t, stdout, "failed:      0")
	})
	t.Run("failure", func(t *testing.T) {
		stdout, _, err := execute(t, "", server.URL+"/ok", server.URL+"/fail")
		assert.EqualError(t, err, "1 of 2 requests failed")
		assert.Contains(t, stdout, "status=500 rc=OK")
		assert.Contains(t, stdout, "failed:      1")
	})
	t.Run("retry and metrics", func(t *testing.T) {
		stdout, stderr, err := execute(t, "", "--retry-codes=503", "--metrics", server.URL+"/flaky")
		require.NoError(t, err)
		assert.Contains(t, stdout, "status=200")
		assert.Contains(t, stdout, "bytes=9")
		assert.Contains(t, stdout, "retried:     1")
		assert.Contains(t, stderr, `hydra_dispatches_total{method="GET"} 2`)
		assert.Contains(t, stderr, "hydra_retries_total 1")
		assert.Contains(t, stderr, "hydra_exchange_duration_seconds count=2")
	})
	t.Run("transient retries with status codes", func(t *testing.T) {
		fresh := newServer(t)
		stdout, _, err := execute(t, "", "--retry-transient", "--retry-codes=503", fresh.URL+"/flaky", fresh.URL+"/ok")
		require.NoError(t, err)
		assert.Contains(t, stdout, "successful:  2")
		assert.Contains(t, stdout, "retried:     1")
	})
	t.Run("method header and body", func(t *testing.T) {
		stdout, _, err := execute(t, "", "-X", "PUT", "-H", "X-Test: yes", "-d", "payload", server.URL+"/echo")
		require.NoError(t, err)
		assert.Contains(t, stdout, "method=PUT status=200")
		assert.Contains(t, stdout, "bytes=7")
	})
	t.Run("URLs from stdin", func(t *testing.T) {
		stdin := "# comment\n" + server.URL + "/a\n\n  " + server.URL + "/b  \n"
		stdout, _, err := execute(t, stdin, "--file", "-")
		require.NoError(t, err)
		assert.Contains(t, stdout, "url="+server.URL+"/a")
		assert.Contains(t, stdout, "url="+server.URL+"/b")
		assert.Contains(t, stdout, "total:       2")
	})
	t.Run("bad request", func(t *testing.T) {
		stdout, _, err := execute(t, "", "-H", "no colon", server.URL+"/ok")
		assert.Error(t, err)
		assert.Contains(t, stdout, "method=- status=-")
		assert.Contains(t, stdout, `err=malformed header "no colon"`)
	})
	t.Run("connection refused", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()
		stdout, _, err := execute(t, "", closed.URL)
		assert.Error(t, err)
		assert.Contains(t, stdout, "status=- rc=CouldntConnect")
		assert.Contains(t, stdout, "err=")
	})
	t.Run("no URLs", func(t *testing.T) {
		_, _, err := execute(t, "")
		assert.EqualError(t, err, "no URLs given")
	})
	t.Run("negative duration", func(t *testing.T) {
		_, _, err := execute(t, "", "--timeout=-1s", server.URL)
		assert.EqualError(t, err, "durations may not be negative")
	})
}
