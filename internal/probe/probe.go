// Package probe provides bounded-concurrency HTTP reachability checks
// shared by the citations stage (Stage 4) and the internal-links stage
// (Stage 5). Uses a context.WithTimeout + http.NewRequestWithContext
// pattern, HEAD-with-GET-fallback, reporting only status reachability
// rather than extracting page content.
package probe

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the per-URL probe budget.
const DefaultTimeout = 2 * time.Second

// DefaultConcurrency is the probe parallelism cap of a single Probe call.
const DefaultConcurrency = 20

// Result is the outcome of probing a single URL.
type Result struct {
	URL string
	Status int
	Valid bool
	Err error
}

// Prober issues bounded HTTP HEAD checks (falling back to GET if HEAD is
// refused), one attempt per URL ("HTTP probes: 1 attempt").
type Prober struct {
	Client *http.Client
	Timeout time.Duration
	Concurrency int
}

// New creates a Prober with the design's default timeout and concurrency cap.
func New() *Prober {
	return &Prober{
		Client: http.DefaultClient,
		Timeout: DefaultTimeout,
		Concurrency: DefaultConcurrency,
	}
}

// Probe checks urls concurrently (bounded by p.Concurrency) and returns one
// Result per URL, in the same order as the input. A probe error is recorded
// as Valid=false; it is never treated as a fatal pipeline error.
func (p *Prober) Probe(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = p.probeOne(gctx, u)
			return nil
		})
	}
	// Errors are impossible here (probeOne never returns an error from the
	// goroutine itself); Wait just joins the fan-out.
	_ = g.Wait()
	return results
}

func (p *Prober) probeOne(ctx context.Context, u string) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := p.doRequest(reqCtx, http.MethodHead, u)
	if err != nil || status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status, err = p.doRequest(reqCtx, http.MethodGet, u)
	}
	if err != nil {
		return Result{URL: u, Err: err, Valid: false}
	}
	return Result{URL: u, Status: status, Valid: isValidStatus(status)}
}

func (p *Prober) doRequest(ctx context.Context, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "blogforge/1.0 (citation probe)")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// isValidStatus reports whether status counts as reachable: any 2xx or
// 3xx response is valid, anything else is not.
func isValidStatus(status int) bool {
	return status >= 200 && status < 400
}
