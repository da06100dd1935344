// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package hydra

import (
	"github.com/gogama/hydra/request"
)

// A HandlerGroup holds one chain of handlers per Event. Install it with
// Config.Handlers. The zero value has no handlers and is ready to use.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack appends h to the chain for evt. Handlers in a chain run in
// the order they were pushed.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("hydra: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

func (g *HandlerGroup) run(evt Event, r *request.Request, resp *request.Response) {
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, r, resp)
	}
}

func run(chain []Handler, evt Event, r *request.Request, resp *request.Response) {
	for _, h := range chain {
		h.Handle(evt, r, resp)
	}
}

// A Handler observes a scheduling decision. It receives the event, the
// request concerned and, for events that carry one, the response; see
// Event for which response each event passes. Handlers run on the
// goroutine driving the Hydra and must not block.
type Handler interface {
	Handle(Event, *request.Request, *request.Response)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc func(Event, *request.Request, *request.Response)

// Handle calls f.
func (f HandlerFunc) Handle(evt Event, r *request.Request, resp *request.Response) {
	f(evt, r, resp)
}
