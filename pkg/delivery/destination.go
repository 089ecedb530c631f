package delivery

import (
	"sync/atomic"

	"github.com/hazyhaar/scoutlens/pkg/envelope"
)

// Destination is where a request's envelopes go: either a *ReplyCallback
// (request/response) or a PageContext (fire-and-forget into a live page).
// A destination is created per inbound request.
type Destination interface {
	destination()
}

// ReplyCallback is a pending response slot. It accepts exactly one envelope.
type ReplyCallback struct {
	fn   func(envelope.Envelope)
	used atomic.Bool
}

// NewReply wraps fn as a one-shot destination.
func NewReply(fn func(envelope.Envelope)) *ReplyCallback {
	return &ReplyCallback{fn: fn}
}

func (*ReplyCallback) destination() {}

// Used reports whether the reply has been sent.
func (r *ReplyCallback) Used() bool { return r.used.Load() }

func (r *ReplyCallback) invoke(env envelope.Envelope) {
	if !r.used.CompareAndSwap(false, true) {
		panic("delivery: reply callback invoked twice")
	}
	r.fn(env)
}

// PageContext identifies a live page (a browser tab) by its host-side id.
type PageContext string

func (PageContext) destination() {}
