// Package delivery hands envelopes to the surface that asked for them.
//
// Page delivery is best effort. When a page has no listener yet, the channel
// installs the overlay assets, activates the in-page handler, waits briefly
// and sends once more:
//
//	Send -> ok
//	     -> fail -> InjectAssets (errors ignored) -> ActivateHandler
//	                -> fail -> log, drop
//	                -> ok   -> delay -> Send -> ok | log, drop
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/kit"
)

// DefaultRetryDelay gives a freshly activated page handler time to register
// its message listener.
const DefaultRetryDelay = 100 * time.Millisecond

// PageTransport reaches page contexts. Implementations report a missing
// receiver as an error from Send.
type PageTransport interface {
	Send(ctx context.Context, page PageContext, env envelope.Envelope) error
	InjectAssets(ctx context.Context, page PageContext) error
	ActivateHandler(ctx context.Context, page PageContext) error
}

// Channel delivers envelopes to destinations. It never returns errors:
// an unreachable page is logged and the envelope dropped.
type Channel struct {
	pages      PageTransport
	logger     *slog.Logger
	retryDelay time.Duration
}

// Option configures a Channel.
type Option func(*Channel)

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) { c.retryDelay = d }
}

// NewChannel returns a channel that reaches pages through pages, which may
// be nil when the host has no page surface (HTTP, MCP, CLI).
func NewChannel(pages PageTransport, logger *slog.Logger, opts ...Option) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Channel{pages: pages, logger: logger, retryDelay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver sends env to dst. A *ReplyCallback must receive exactly one
// envelope; a second delivery to the same reply panics.
func (c *Channel) Deliver(ctx context.Context, dst Destination, env envelope.Envelope) {
	switch d := dst.(type) {
	case *ReplyCallback:
		d.invoke(env)
	case PageContext:
		c.deliverPage(ctx, d, env)
	default:
		c.logger.Error("unknown destination, envelope dropped", "destination", dst, "envelope", env)
	}
}

func (c *Channel) deliverPage(ctx context.Context, page PageContext, env envelope.Envelope) {
	log := c.logger.With("page", string(page), "request_id", kit.GetRequestID(ctx), "envelope", env)
	if c.pages == nil {
		log.Warn("no page transport, envelope dropped")
		return
	}

	err := c.pages.Send(ctx, page, env)
	if err == nil {
		return
	}
	log.Info("page not listening, activating handler", "error", err)

	if err := c.pages.InjectAssets(ctx, page); err != nil {
		log.Debug("asset injection failed, continuing", "error", err)
	}
	if err := c.pages.ActivateHandler(ctx, page); err != nil {
		log.Error("handler activation failed, envelope dropped", "error", err)
		return
	}

	if c.retryDelay > 0 {
		t := time.NewTimer(c.retryDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			log.Warn("context done before retry, envelope dropped", "error", ctx.Err())
			return
		}
	}

	if err := c.pages.Send(ctx, page, env); err != nil {
		log.Error("page unreachable after activation, envelope dropped", "error", err)
	}
}
