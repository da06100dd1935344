// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"github.com/gogama/hydra"
	"github.com/gogama/hydra/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hydra"

// A Collector records Prometheus metrics about the requests a Hydra
// schedules. It implements hydra.Handler and is safe for concurrent
// use, so one Collector may serve several Hydras.
type Collector struct {
	dispatches  *prometheus.CounterVec
	exchanges   *prometheus.CounterVec
	duration    prometheus.Histogram
	retries     prometheus.Counter
	cacheHits   prometheus.Counter
	memoHits    prometheus.Counter
	completions *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of requests handed to the transport",
			},
			[]string{"method"},
		),
		exchanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Total number of transport exchanges by return code",
			},
			[]string{"return_code"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_duration_seconds",
				Help:      "Total time of transport exchanges in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		retries: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of requests requeued for a retry",
			},
		),
		cacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of requests served by the cache getter",
			},
		),
		memoHits: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memo_hits_total",
				Help:      "Total number of duplicate GET requests short-circuited by memoization",
			},
		),
		completions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Total number of requests resolved with a final response, by status class",
			},
			[]string{"class"},
		),
	}
}

// Install adds c to every event chain of g that it records.
func (c *Collector) Install(g *hydra.HandlerGroup) {
	for _, evt := range []hydra.Event{
		hydra.BeforeDispatch,
		hydra.AfterTransport,
		hydra.AfterCacheHit,
		hydra.AfterMemoHit,
		hydra.AfterRetry,
		hydra.AfterRequestBeforeOnComplete,
	} {
		g.PushBack(evt, c)
	}
}

// Handle records evt.
func (c *Collector) Handle(evt hydra.Event, r *request.Request, resp *request.Response) {
	switch evt {
	case hydra.BeforeDispatch:
		c.dispatches.WithLabelValues(r.Method).Inc()
	case hydra.AfterTransport:
		c.exchanges.WithLabelValues(resp.ReturnCode.String()).Inc()
		c.duration.Observe(resp.Timing.Total.Seconds())
	case hydra.AfterCacheHit:
		c.cacheHits.Inc()
	case hydra.AfterMemoHit:
		c.memoHits.Inc()
	case hydra.AfterRetry:
		c.retries.Inc()
	case hydra.AfterRequestBeforeOnComplete:
		c.completions.WithLabelValues(Class(resp)).Inc()
	}
}

// Class returns the status class label of resp: "1xx" through "5xx",
// "transport" for a transport failure, or "other".
func Class(resp *request.Response) string {
	switch {
	case resp.TransportFailed():
		return "transport"
	case resp.Code >= 100 && resp.Code < 600:
		return string(rune('0'+resp.Code/100)) + "xx"
	default:
		return "other"
	}
}
