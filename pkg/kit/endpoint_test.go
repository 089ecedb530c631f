package kit

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mark("a"), mark("b"), mark("c"))(func(context.Context, any) (any, error) {
		order = append(order, "endpoint")
		return nil, nil
	})
	ep(context.Background(), nil)

	want := []string{"a", "b", "c", "endpoint"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	ep := RequestID()(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	ep(context.Background(), nil)
	if seen == "" {
		t.Fatal("request id not assigned")
	}

	ep(WithRequestID(context.Background(), "req-1"), nil)
	if seen != "req-1" {
		t.Errorf("request id = %q, want existing req-1 kept", seen)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ep := Logging(logger, "search")(func(context.Context, any) (any, error) {
		return "ok", nil
	})
	resp, err := ep(context.Background(), nil)
	if err != nil || resp != "ok" {
		t.Errorf("got (%v, %v), want (ok, nil)", resp, err)
	}
}

func TestTransportDefault(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Errorf("GetTransport = %q, want http", got)
	}
	if got := GetTransport(WithTransport(context.Background(), "native")); got != "native" {
		t.Errorf("GetTransport = %q, want native", got)
	}
}
