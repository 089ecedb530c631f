package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hazyhaar/scoutlens/pkg/api"
	"github.com/hazyhaar/scoutlens/pkg/delivery"
	"github.com/hazyhaar/scoutlens/pkg/dispatch"
	"github.com/hazyhaar/scoutlens/pkg/nativehost"
	"github.com/hazyhaar/scoutlens/pkg/playerapi"
	"github.com/hazyhaar/scoutlens/pkg/resolver"
	"github.com/hazyhaar/scoutlens/pkg/upstream"
	"github.com/mark3labs/mcp-go/server"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Chrome starts a native host with the caller's origin as first argument.
	if strings.HasPrefix(os.Args[1], "chrome-extension://") {
		cmdHost(os.Args[2:])
		return
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "host":
		cmdHost(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "search":
		cmdSearch(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: scoutlens <command>

Commands:
  serve    Start the loopback HTTP API (with MCP at /mcp)
  host     Run as the extension's native messaging host
  mcp      Serve MCP over stdio
  search   Resolve one query and print the result
  check    Check that the player API answers
`)
}

// setup loads the config and builds the stderr logger. Failures exit.
func setup(cfgPath string) (config, *slog.Logger) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.loadedFrom == "" {
		logger.Debug("no config file, using defaults", "path", cfgPath)
	}
	return cfg, logger
}

// newDispatcher wires API client -> resolver -> delivery channel ->
// dispatcher. pages is nil for surfaces without page contexts.
func newDispatcher(cfg config, logger *slog.Logger, pages delivery.PageTransport) *dispatch.Dispatcher {
	client := playerapi.NewClient(cfg.APIBase, playerapi.WithTimeout(cfg.FetchTimeout))
	res := resolver.New(client, logger.With("component", "resolver"))
	ch := delivery.NewChannel(pages, logger.With("component", "delivery"), delivery.WithRetryDelay(cfg.RetryDelay))
	return dispatch.New(res, ch, logger.With("component", "dispatch"))
}

func newMCPServer(d *dispatch.Dispatcher, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("scoutlens", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, d, logger)
	return srv
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := newDispatcher(cfg, logger, nil)

	// Upstream checks feed /v1/health.
	sdb, err := upstream.OpenStatusDB(cfg.statusDBPath())
	if err != nil {
		logger.Error("failed to open status db", "error", err)
		os.Exit(1)
	}
	defer sdb.Close()
	checker, err := upstream.NewChecker(sdb, []string{cfg.APIBase}, logger.With("component", "upstream"), cfg.CheckInterval)
	if err != nil {
		logger.Error("failed to start upstream checker", "error", err)
		os.Exit(1)
	}
	go checker.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(newMCPServer(d, logger)))
	mux.Handle("/", api.NewRouter(d, checker, logger))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("scoutlens listening", "addr", cfg.Addr, "api_base", cfg.APIBase)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	d.Wait()
}

func cmdHost(args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	// Chrome on Windows appends --parent-window=<hwnd>.
	fs.Int("parent-window", 0, "ignored")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	host := nativehost.NewHost(os.Stdin, os.Stdout, logger.With("component", "nativehost"),
		nativehost.WithCommandTimeout(cfg.CommandTimeout))
	d := newDispatcher(cfg, logger, host)

	// The browser ends the session by closing stdin.
	if err := host.Run(context.Background(), d); err != nil {
		logger.Error("native host failed", "error", err)
		os.Exit(1)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := newDispatcher(cfg, logger, nil)
	stdio := server.NewStdioServer(newMCPServer(d, logger))
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("mcp stdio server started", "api_base", cfg.APIBase)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	d.Wait()
	if err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
