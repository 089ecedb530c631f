package api

import (
	"log/slog"

	"github.com/hazyhaar/scoutlens/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the search tools on the server.
func RegisterMCPTools(srv *server.MCPServer, d Dispatcher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	registerSearchPlayer(srv, d, logger)
}

func registerSearchPlayer(srv *server.MCPServer, d Dispatcher, logger *slog.Logger) {
	tool := mcp.NewTool("search_player",
		mcp.WithDescription("Look up a football player by name or profile URL. Returns a DETAILS envelope for a single match, a LIST envelope when the name is ambiguous, or an ERROR envelope."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Player name (e.g. Arda Güler) or profile URL")),
		mcp.WithBoolean("is_locator", mcp.Description("Treat query as a profile URL and skip the search step")),
	)

	endpoint := kit.Chain(kit.RequestID(), kit.Logging(logger, "mcp"))(searchEndpoint(d))
	kit.RegisterMCPTool(srv, tool, endpoint, func(req mcp.CallToolRequest) (any, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}
		return &searchReq{Query: query, IsLocator: req.GetBool("is_locator", false)}, nil
	})
}
