package api

import (
	"context"
	"errors"
	"strings"

	"github.com/hazyhaar/scoutlens/pkg/dispatch"
	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/kit"
	"github.com/hazyhaar/scoutlens/pkg/upstream"
)

// Shared request/response types used by both HTTP and MCP transports.

var (
	ErrEmptyQuery  = errors.New("query is empty")
	ErrNotAccepted = errors.New("request not accepted")
)

// Dispatcher is satisfied by *dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, in dispatch.Inbound) bool
}

// HealthSource is satisfied by *upstream.Checker.
type HealthSource interface {
	Latest() ([]upstream.Check, error)
}

type searchReq struct {
	Query     string
	IsLocator bool
}

type upstreamStatus struct {
	Endpoint   string `json:"endpoint"`
	Reachable  bool   `json:"reachable"`
	LastStatus *int   `json:"last_status,omitempty"`
	LastCheck  *int64 `json:"last_check,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

type healthResponse struct {
	Status   string           `json:"status"`
	Upstream []upstreamStatus `json:"upstream,omitempty"`
}

// searchEndpoint sends a window request through the dispatcher and waits
// for its single reply. The reply channel is buffered so a caller that gave
// up never blocks the task.
func searchEndpoint(d Dispatcher) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*searchReq)
		if strings.TrimSpace(req.Query) == "" {
			return nil, ErrEmptyQuery
		}

		replies := make(chan envelope.Envelope, 1)
		pending := d.Dispatch(ctx, dispatch.WindowRequest{
			Query:     req.Query,
			IsLocator: req.IsLocator,
			Reply:     func(env envelope.Envelope) { replies <- env },
		})
		if !pending {
			return nil, ErrNotAccepted
		}

		select {
		case env := <-replies:
			return env, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func healthEndpoint(src HealthSource) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		resp := healthResponse{Status: "ok"}
		if src == nil {
			return resp, nil
		}
		checks, err := src.Latest()
		if err != nil {
			return nil, err
		}
		for _, c := range checks {
			st := upstreamStatus{
				Endpoint:   c.Endpoint,
				Reachable:  c.Reachable(),
				LastStatus: c.LastStatus,
				LastCheck:  c.LastCheck,
			}
			if c.LastError != nil {
				st.LastError = *c.LastError
			}
			// Unchecked endpoints do not degrade health yet.
			if c.LastCheck != nil && !st.Reachable {
				resp.Status = "degraded"
			}
			resp.Upstream = append(resp.Upstream, st)
		}
		return resp, nil
	}
}
