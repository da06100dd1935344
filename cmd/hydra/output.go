// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gogama/hydra/request"
	"github.com/prometheus/client_golang/prometheus"
)

// A result pairs a URL from the command line with the request made for
// it, or with the error that kept it from being made.
type result struct {
	url     string
	request *request.Request
	err     error
}

func (res *result) failed() bool {
	if res.err != nil || res.request == nil {
		return true
	}
	resp := res.request.Response()
	return resp == nil || resp.TransportFailed() || resp.Code >= 400
}

type summary struct {
	total   int
	success int
	failed  int
	retried int
	wall    time.Duration
}

func summarize(results []result, wall time.Duration) summary {
	s := summary{total: len(results), wall: wall}
	for i := range results {
		res := &results[i]
		if res.failed() {
			s.failed++
		} else {
			s.success++
		}
		if res.request != nil && res.request.Requeued() {
			s.retried++
		}
	}
	return s
}

func formatLine(res *result) string {
	cols := make([]string, 0, 7)
	var resp *request.Response
	if res.request != nil {
		cols = append(cols, "method="+res.request.Method)
		resp = res.request.Response()
	} else {
		cols = append(cols, "method=-")
	}

	err := res.err
	switch {
	case resp == nil:
		cols = append(cols, "status=-", "rc=-", "dur=-", "bytes=-")
		if err == nil {
			err = errIncomplete
		}
	default:
		status := "-"
		if resp.Code > 0 {
			status = fmt.Sprint(resp.Code)
		}
		cols = append(cols,
			"status="+status,
			"rc="+resp.ReturnCode.String(),
			"dur="+formatDuration(resp.Timing.Total),
			fmt.Sprintf("bytes=%d", len(resp.Body)))
		if resp.TransportFailed() && resp.ErrorMessage != "" {
			err = errors.New(resp.ErrorMessage)
		}
	}
	cols = append(cols, "url="+res.url)
	if err != nil {
		cols = append(cols, "err="+sanitize(err.Error()))
	}
	return strings.Join(cols, " ")
}

var errIncomplete = errors.New("not completed")

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeReport(w io.Writer, results []result, s summary) error {
	for i := range results {
		if _, err := fmt.Fprintln(w, formatLine(&results[i])); err != nil {
			return err
		}
	}
	lines := []string{
		"",
		"total:       " + fmt.Sprint(s.total),
		"successful:  " + fmt.Sprint(s.success),
		"failed:      " + fmt.Sprint(s.failed),
		"retried:     " + fmt.Sprint(s.retried),
		"wall:        " + formatDuration(s.wall),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeMetrics prints one line per gathered series: counters and
// gauges with their value, histograms with their count and sum.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
