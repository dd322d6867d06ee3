// Package mirrors probes Arch mirror reachability and latency.
package mirrors

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultConcurrency = 8
)

// Status is the probe result for one mirror.
type Status struct {
	URL       string        `json:"url"`
	Reachable bool          `json:"reachable"`
	Latency   time.Duration `json:"latency_ns"`
	Code      int           `json:"status_code,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Checker probes mirrors over HTTP HEAD.
type Checker struct {
	http        *http.Client
	concurrency int
}

// NewChecker returns a Checker with bounded concurrency (<=0 for default).
func NewChecker(concurrency int) *Checker {
	return NewCheckerWithTimeout(concurrency, 0)
}

// NewCheckerWithTimeout is NewChecker with an explicit per-probe timeout
// (<=0 for the default).
func NewCheckerWithTimeout(concurrency int, timeout time.Duration) *Checker {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{
		http:        &http.Client{Timeout: timeout},
		concurrency: concurrency,
	}
}

// Check probes every mirror concurrently and returns statuses in input
// order. Individual mirror failures are recorded, never returned as errors.
func (c *Checker) Check(ctx context.Context, urls []string) []Status {
	statuses := make([]Status, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, mirror := range urls {
		i, mirror := i, mirror
		g.Go(func() error {
			statuses[i] = c.probe(ctx, mirror)
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	return statuses
}

func (c *Checker) probe(ctx context.Context, mirror string) Status {
	status := Status{URL: mirror}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mirror, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.Code = resp.StatusCode
	status.Reachable = resp.StatusCode < 500
	return status
}
