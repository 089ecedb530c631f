// Package upstream watches the remote player API and records whether it
// answers, so the health endpoint and the check subcommand can report it.
package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultInterval is the delay between two checks when none is configured.
const DefaultInterval = 5 * time.Minute

// Checker performs periodic HEAD requests against the API base endpoints and
// persists their availability.
type Checker struct {
	status    *StatusDB
	endpoints []string
	logger    *slog.Logger
	interval  time.Duration
	client    *http.Client
}

// NewChecker creates a Checker for endpoints. Each endpoint is registered in
// status so Latest has a row to report before the first check completes.
func NewChecker(status *StatusDB, endpoints []string, logger *slog.Logger, interval time.Duration) (*Checker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	for _, ep := range endpoints {
		if err := status.Register(ep); err != nil {
			return nil, err
		}
	}
	return &Checker{
		status:    status,
		endpoints: endpoints,
		logger:    logger,
		interval:  interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll performs a HEAD request on every endpoint and persists the result.
// It returns the number of unreachable endpoints.
func (c *Checker) CheckAll(ctx context.Context) int {
	var ok, failed int
	for _, ep := range c.endpoints {
		if ctx.Err() != nil {
			break
		}

		status, checkErr := c.checkOne(ctx, ep)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}

		if err := c.status.UpdateCheck(ep, status, errMsg); err != nil {
			c.logger.Error("upstream check: update failed", "endpoint", ep, "error", err)
		}

		if reachable(status) {
			ok++
		} else {
			failed++
			c.logger.Warn("upstream unreachable", "endpoint", ep, "status", status, "error", errMsg)
		}
	}

	c.logger.Info("upstream check complete", "total", ok+failed, "ok", ok, "failed", failed)
	return failed
}

// Latest returns the stored state of the checker's endpoints. Rows left by
// endpoints from an earlier configuration are not reported.
func (c *Checker) Latest() ([]Check, error) {
	checks := make([]Check, 0, len(c.endpoints))
	for _, ep := range c.endpoints {
		row, err := c.status.Get(ep)
		if err != nil {
			return nil, err
		}
		checks = append(checks, row)
	}
	return checks, nil
}

// checkOne performs a single HEAD request and returns the HTTP status code.
// On network error, status is 0.
func (c *Checker) checkOne(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// reachable treats any answer short of a server error as up: the API has no
// route on its base path, so 404 and 405 still prove the process is serving.
func reachable(status int) bool {
	return status > 0 && status < 500
}
