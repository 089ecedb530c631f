package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hazyhaar/scoutlens/pkg/dispatch"
	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/profile"
)

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	locator := fs.Bool("locator", false, "treat the query as a profile URL")
	summary := fs.Bool("summary", false, "print a readable summary instead of the raw envelope")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "Usage: scoutlens search [--locator] [--summary] <name or url>")
		os.Exit(2)
	}

	cfg, logger := setup(*cfgPath)
	d := newDispatcher(cfg, logger, nil)

	replies := make(chan envelope.Envelope, 1)
	d.Dispatch(context.Background(), dispatch.WindowRequest{
		Query:     query,
		IsLocator: *locator,
		Reply:     func(env envelope.Envelope) { replies <- env },
	})
	env := <-replies
	d.Wait()

	if !*summary {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(env); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
	} else if err := printSummary(os.Stdout, env); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if env.Kind == envelope.KindError {
		os.Exit(1)
	}
}

func printSummary(w io.Writer, env envelope.Envelope) error {
	switch env.Kind {
	case envelope.KindError:
		fmt.Fprintf(w, "Error: %s\n", env.Message)

	case envelope.KindList:
		fmt.Fprintf(w, "%d players match, pick one with --locator:\n\n", len(env.Candidates))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range env.Candidates {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, c.Club, c.Locator)
		}
		return tw.Flush()

	case envelope.KindDetails:
		p, err := profile.Parse(env.Details)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Name\t%s\n", p.Name)
		fmt.Fprintf(tw, "Club\t%s\n", p.Club)
		fmt.Fprintf(tw, "Position\t%s\n", p.Position)
		fmt.Fprintf(tw, "Age\t%s\n", p.Age)
		fmt.Fprintf(tw, "Nationality\t%s\n", p.Nationality)
		fmt.Fprintf(tw, "Market value\t%s\n", p.MarketValue)
		fmt.Fprintf(tw, "Highest\t%s\n", p.HighestMarketValue)
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(p.MarketValueHistory) > 0 {
			profile.SortHistoryNewestFirst(p.MarketValueHistory)
			fmt.Fprintln(w, "\nMarket value history:")
			tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			for _, pt := range p.MarketValueHistory {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", pt.Date, pt.Value, pt.Club)
			}
			return tw.Flush()
		}

	default:
		fmt.Fprintf(w, "%s\n", env.Kind)
	}
	return nil
}
