// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package metrics instruments a Hydra with Prometheus metrics by
installing event handlers.

	reg := prometheus.NewRegistry()
	handlers := &hydra.HandlerGroup{}
	metrics.NewCollector(reg).Install(handlers)
	h := hydra.New(hydra.Config{Handlers: handlers})
*/
package metrics
