package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/scoutlens/pkg/upstream"
)

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	sdb, err := upstream.OpenStatusDB(cfg.statusDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open status db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	checker, err := upstream.NewChecker(sdb, []string{cfg.APIBase}, logger, cfg.CheckInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	failed := checker.CheckAll(ctx)

	// List every recorded endpoint; ones from an earlier config are marked.
	checks, err := sdb.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for _, c := range checks {
		state := "down"
		switch {
		case c.Endpoint != cfg.APIBase:
			state = "not configured"
		case c.Reachable():
			state = "up"
		}
		status := ""
		if c.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *c.LastStatus)
		}
		fmt.Printf("  %-40s  %s%s\n", c.Endpoint, state, status)
		if c.LastError != nil {
			fmt.Printf("  %-40s  %s\n", "", *c.LastError)
		}
	}

	if failed > 0 {
		sdb.Close()
		os.Exit(1)
	}
}
