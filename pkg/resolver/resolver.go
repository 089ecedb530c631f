// Package resolver turns a raw query into exactly one terminal envelope:
// a detail record, a disambiguation list, or an error.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/kit"
	"github.com/hazyhaar/scoutlens/pkg/match"
	"github.com/hazyhaar/scoutlens/pkg/playerapi"
)

// MsgNoResults is the ERROR message for a search the API answered with zero candidates.
const MsgNoResults = "no results"

// Fetcher is the remote API as seen by the resolver. *playerapi.Client satisfies it.
type Fetcher interface {
	Search(ctx context.Context, name string) ([]playerapi.Candidate, error)
	Player(ctx context.Context, locator string) (playerapi.DetailRecord, error)
}

// Query is free text, or a locator when IsLocator is set.
type Query struct {
	Text      string
	IsLocator bool
}

// Resolver holds no per-request state; concurrent Resolve calls are independent.
type Resolver struct {
	api    Fetcher
	logger *slog.Logger
}

func New(api Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{api: api, logger: logger}
}

// Resolve runs the query pipeline. It never returns a Go error: every failure
// is folded into an ERROR envelope carrying a readable message.
func (r *Resolver) Resolve(ctx context.Context, q Query) envelope.Envelope {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return envelope.Error("empty query")
	}
	log := r.logger.With("request_id", kit.GetRequestID(ctx), "query", text, "locator", q.IsLocator)

	if q.IsLocator {
		return r.details(ctx, log, text)
	}

	candidates, err := r.api.Search(ctx, text)
	if err != nil {
		log.Warn("search failed", "kind", failureKind(err), "error", err)
		return envelope.Error(fmt.Sprintf("search failed: %v", err))
	}
	if len(candidates) == 0 {
		log.Info("search returned nothing", "kind", "empty")
		return envelope.Error(MsgNoResults)
	}

	filtered := match.Filter(candidates, text)
	log.Debug("candidates filtered", "fetched", len(candidates), "kept", len(filtered))

	if len(filtered) == 1 {
		return r.details(ctx, log, filtered[0].Locator)
	}
	return envelope.List(filtered)
}

func (r *Resolver) details(ctx context.Context, log *slog.Logger, locator string) envelope.Envelope {
	rec, err := r.api.Player(ctx, locator)
	if err != nil {
		log.Warn("player lookup failed", "kind", failureKind(err), "target", locator, "error", err)
		return envelope.Error(fmt.Sprintf("player lookup failed: %v", err))
	}
	return envelope.Details(rec)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, playerapi.ErrMalformed):
		return "malformed"
	case errors.Is(err, playerapi.ErrNetwork):
		return "network"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
