// Package dispatch receives inbound search requests and runs each one as an
// independent task: resolve the query, then deliver the result to the
// destination the request came from.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/hazyhaar/scoutlens/pkg/delivery"
	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/kit"
	"github.com/hazyhaar/scoutlens/pkg/resolver"
)

// Resolver is satisfied by *resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, q resolver.Query) envelope.Envelope
}

// Deliverer is satisfied by *delivery.Channel.
type Deliverer interface {
	Deliver(ctx context.Context, dst delivery.Destination, env envelope.Envelope)
}

// Inbound is a SelectionTrigger or a WindowRequest.
type Inbound interface {
	inbound()
}

// SelectionTrigger comes from the context menu on a page: the result is
// shown in that page's overlay, preceded by a LOADING envelope.
type SelectionTrigger struct {
	Query         string
	PageContextID string
}

// WindowRequest comes from an interactive window (popup, HTTP, MCP, CLI).
// Reply receives exactly one terminal envelope; no LOADING is sent.
type WindowRequest struct {
	Query     string
	IsLocator bool
	Reply     func(envelope.Envelope)
}

func (SelectionTrigger) inbound() {}
func (WindowRequest) inbound()    {}

// Dispatcher routes inbound requests. Tasks never observe each other.
type Dispatcher struct {
	resolver Resolver
	channel  Deliverer
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func New(r Resolver, ch Deliverer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{resolver: r, channel: ch, logger: logger}
}

// Dispatch starts a task for in and returns without waiting for it.
// It reports true when a reply will arrive later, in which case the caller
// must keep its reply channel open.
//
// The task is detached from ctx cancellation: once started it runs to
// completion even if the originating page or window has gone away.
func (d *Dispatcher) Dispatch(ctx context.Context, in Inbound) bool {
	ctx = context.WithoutCancel(ctx)
	if kit.GetRequestID(ctx) == "" {
		ctx = kit.WithRequestID(ctx, kit.NewRequestID())
	}

	switch req := in.(type) {
	case SelectionTrigger:
		if req.PageContextID == "" {
			d.logger.Warn("selection without page context, ignored", "request_id", kit.GetRequestID(ctx))
			return false
		}
		ctx = kit.WithPageContext(ctx, req.PageContextID)
		d.spawn(ctx, nil, func() { d.runSelection(ctx, req) })
		return false

	case WindowRequest:
		if req.Reply == nil {
			d.logger.Error("window request without reply, ignored", "request_id", kit.GetRequestID(ctx))
			return false
		}
		reply := delivery.NewReply(req.Reply)
		d.spawn(ctx, reply, func() { d.runWindow(ctx, req, reply) })
		return true

	default:
		d.logger.Error("unknown inbound request", "type", fmt.Sprintf("%T", in))
		return false
	}
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runSelection(ctx context.Context, req SelectionTrigger) {
	page := delivery.PageContext(req.PageContextID)
	d.channel.Deliver(ctx, page, envelope.Loading())
	env := d.resolve(ctx, resolver.Query{Text: req.Query})
	d.channel.Deliver(ctx, page, env)
}

func (d *Dispatcher) runWindow(ctx context.Context, req WindowRequest, reply *delivery.ReplyCallback) {
	env := d.resolve(ctx, resolver.Query{Text: req.Query, IsLocator: req.IsLocator})
	d.channel.Deliver(ctx, reply, env)
}

// resolve guarantees a terminal envelope: a destination that receives
// LOADING as its last message would wait forever.
func (d *Dispatcher) resolve(ctx context.Context, q resolver.Query) envelope.Envelope {
	env := d.resolver.Resolve(ctx, q)
	if !env.IsTerminal() {
		d.logger.Error("resolver returned a non-terminal envelope",
			"request_id", kit.GetRequestID(ctx),
			"envelope", env,
		)
		return envelope.Error("internal error")
	}
	return env
}

// spawn runs task in its own goroutine. A panic is contained to the task;
// an unanswered reply still gets an ERROR so the caller is not left waiting.
func (d *Dispatcher) spawn(ctx context.Context, reply *delivery.ReplyCallback, task func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				d.logger.Error("request task panicked",
					"request_id", kit.GetRequestID(ctx),
					"page", kit.GetPageContext(ctx),
					"panic", p,
					"stack", string(debug.Stack()),
				)
				if reply != nil && !reply.Used() {
					d.channel.Deliver(ctx, reply, envelope.Error("internal error"))
				}
			}
		}()
		task()
	}()
}
