package kit

import "context"

type contextKey string

const (
	TransportKey   contextKey = "kit_transport" // "native", "http", "mcp", "cli"
	RequestIDKey   contextKey = "kit_request_id"
	PageContextKey contextKey = "kit_page_context"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithPageContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, PageContextKey, id)
}
func GetPageContext(ctx context.Context) string {
	v, _ := ctx.Value(PageContextKey).(string)
	return v
}
