// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gogama/hydra"
	"github.com/gogama/hydra/cache"
	"github.com/gogama/hydra/metrics"
	"github.com/gogama/hydra/request"
	"github.com/gogama/hydra/retry"
	"github.com/gogama/hydra/timeout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	method               string
	data                 string
	headers              []string
	file                 string
	maxConcurrency       int
	timeout              time.Duration
	connectTimeout       time.Duration
	retryCodes           []int
	retryConnectTimeouts bool
	retryTransient       bool
	retryWait            time.Duration
	follow               bool
	maxRedirects         int
	insecure             bool
	proxy                string
	cacheTTL             time.Duration
	verbose              bool
	development          bool
	metrics              bool
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "hydra [flags] URL...",
		Short: "Fetch URLs concurrently",
		Long: `hydra fetches every URL given as an argument, or listed one per line in
the file named by --file ("-" for standard input), with at most
--max-concurrency requests in flight. Identical GET requests are sent
once. Every flag falls back to the HYDRA_* environment variable named
in its description.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := collectURLs(args, o.file, stdin)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return errors.New("no URLs given")
			}
			return run(cmd.Context(), o, urls, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&o.method, "method", "X", envOrDefault("HYDRA_METHOD", "GET"), "HTTP method (HYDRA_METHOD)")
	f.StringVarP(&o.data, "data", "d", "", "request body")
	f.StringArrayVarP(&o.headers, "header", "H", nil, `request header, as "Name: value" (repeatable)`)
	f.StringVarP(&o.file, "file", "f", "", `file listing URLs, one per line ("-" for stdin)`)
	f.IntVarP(&o.maxConcurrency, "max-concurrency", "c", intOrDefault("HYDRA_MAX_CONCURRENCY", hydra.DefaultMaxConcurrency), "maximum requests in flight (HYDRA_MAX_CONCURRENCY)")
	f.DurationVar(&o.timeout, "timeout", durationOrDefault("HYDRA_TIMEOUT", 0), "exchange timeout, 0 for none (HYDRA_TIMEOUT)")
	f.DurationVar(&o.connectTimeout, "connect-timeout", durationOrDefault("HYDRA_CONNECT_TIMEOUT", 0), "connect timeout, 0 for none (HYDRA_CONNECT_TIMEOUT)")
	f.IntSliceVar(&o.retryCodes, "retry-codes", intsOrDefault("HYDRA_RETRY_CODES", nil), "status codes retried once (HYDRA_RETRY_CODES)")
	f.BoolVar(&o.retryConnectTimeouts, "retry-connect-timeouts", boolOrDefault("HYDRA_RETRY_CONNECT_TIMEOUTS", false), "retry connect timeouts once (HYDRA_RETRY_CONNECT_TIMEOUTS)")
	f.BoolVar(&o.retryTransient, "retry-transient", boolOrDefault("HYDRA_RETRY_TRANSIENT", false), "retry resets, refusals and other transient errors once (HYDRA_RETRY_TRANSIENT)")
	f.DurationVar(&o.retryWait, "retry-wait", durationOrDefault("HYDRA_RETRY_WAIT", 0), "maximum random wait before a retry (HYDRA_RETRY_WAIT)")
	f.BoolVarP(&o.follow, "location", "L", boolOrDefault("HYDRA_FOLLOW", false), "follow redirects (HYDRA_FOLLOW)")
	f.IntVar(&o.maxRedirects, "max-redirs", intOrDefault("HYDRA_MAX_REDIRECTS", 0), "maximum redirects followed, 0 for the default (HYDRA_MAX_REDIRECTS)")
	f.BoolVarP(&o.insecure, "insecure", "k", boolOrDefault("HYDRA_INSECURE", false), "skip server certificate verification (HYDRA_INSECURE)")
	f.StringVar(&o.proxy, "proxy", envOrDefault("HYDRA_PROXY", ""), "proxy URL (HYDRA_PROXY)")
	f.DurationVar(&o.cacheTTL, "cache-ttl", durationOrDefault("HYDRA_CACHE_TTL", 0), "keep responses in an in-memory cache this long (HYDRA_CACHE_TTL)")
	f.BoolVarP(&o.verbose, "verbose", "v", boolOrDefault("HYDRA_VERBOSE", false), "log scheduler and exchange details (HYDRA_VERBOSE)")
	f.BoolVar(&o.development, "dev", boolOrDefault("HYDRA_DEV", false), "human-readable development logs (HYDRA_DEV)")
	f.BoolVar(&o.metrics, "metrics", boolOrDefault("HYDRA_METRICS", false), "print a metrics summary (HYDRA_METRICS)")

	return cmd
}

func collectURLs(args []string, file string, stdin io.Reader) ([]string, error) {
	urls := append([]string(nil), args...)
	if file == "" {
		return urls, nil
	}
	var in io.Reader = stdin
	if file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = fh.Close()
		}()
		in = fh
	}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func newLogger(o *options) (*zap.Logger, error) {
	var config zap.Config
	if o.development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if o.verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return config.Build()
}

func newRequest(o *options, url string) (*request.Request, error) {
	var body interface{}
	if o.data != "" {
		body = o.data
	}
	r, err := request.New(o.method, url, nil, body)
	if err != nil {
		return nil, err
	}
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", h)
		}
		r.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	r.ConnectTimeout = o.connectTimeout
	r.FollowLocation = o.follow
	r.MaxRedirects = o.maxRedirects
	r.DisableSSLPeerVerification = o.insecure
	r.Proxy = o.proxy
	r.CacheTimeout = o.cacheTTL
	r.Verbose = o.verbose
	return r, nil
}

func run(ctx context.Context, o *options, urls []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout < 0 || o.connectTimeout < 0 || o.retryWait < 0 {
		return errors.New("durations may not be negative")
	}
	logger, err := newLogger(o)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	reg := prometheus.NewRegistry()
	handlers := &hydra.HandlerGroup{}
	metrics.NewCollector(reg).Install(handlers)

	config := hydra.Config{
		MaxConcurrency:       o.maxConcurrency,
		RetryCodes:           o.retryCodes,
		RetryConnectTimeouts: o.retryConnectTimeouts,
		TimeoutPolicy:        timeout.Fixed(o.timeout),
		Handlers:             handlers,
		Logger:               logger,
	}
	if o.retryWait > 0 {
		config.RetryWaiter = retry.NewJitterWaiter(o.retryWait, time.Now())
	}
	if o.retryTransient {
		config.RetryPolicy = retry.NewPolicy(retry.TransientErr, retry.NoWait)
	}
	h := hydra.New(config)
	if o.cacheTTL > 0 {
		c := cache.New()
		h.SetCacheGetter(c.Get)
		h.SetCacheSetter(c.Set)
	}

	results := make([]result, len(urls))
	for i, url := range urls {
		results[i].url = url
		r, err := newRequest(o, url)
		if err == nil {
			err = h.Queue(r)
		}
		if err != nil {
			results[i].err = err
			continue
		}
		results[i].request = r
	}

	start := time.Now()
	runErr := h.Run(ctx)
	wall := time.Since(start)

	s := summarize(results, wall)
	if err := writeReport(stdout, results, s); err != nil {
		return err
	}
	if o.metrics {
		if err := writeMetrics(stderr, reg); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if s.failed > 0 {
		return fmt.Errorf("%d of %d requests failed", s.failed, s.total)
	}
	return nil
}
