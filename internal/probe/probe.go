// Package probe polls the backend until it answers plain HTTP.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/davidteren/tauri-todo/internal/metrics"
	"github.com/davidteren/tauri-todo/internal/model"
)

type Outcome int

const (
	Ready Outcome = iota + 1
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Checker performs one readiness attempt. A nil error means alive.
type Checker interface {
	Check(ctx context.Context, url string) error
}

// StatusError is returned for a response outside 200-399.
type StatusError struct {
	Code int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Alive reports whether code signals a running service. Redirects count.
func Alive(code int) bool {
	return code >= 200 && code < 400
}

// HTTPChecker issues GET <url>/ without following redirects.
type HTTPChecker struct {
	client *http.Client
}

func NewHTTPChecker() HTTPChecker {
	return HTTPChecker{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:             nil,
				DisableKeepAlives: true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c HTTPChecker) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if !Alive(resp.StatusCode) {
		return StatusError{Code: resp.StatusCode}
	}
	return nil
}

type Option func(*Prober)

func WithInterval(d time.Duration) Option {
	return func(p *Prober) { p.interval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(p *Prober) { p.attemptTimeout = d }
}

func WithMetrics(m metrics.Collector) Option {
	return func(p *Prober) { p.metrics = m }
}

// Prober runs readiness attempts on a fixed cadence.
type Prober struct {
	checker        Checker
	interval       time.Duration
	timeout        time.Duration
	attemptTimeout time.Duration
	metrics        metrics.Collector
}

func New(checker Checker, opts ...Option) *Prober {
	p := &Prober{
		checker:        checker,
		interval:       model.DefaultInterval,
		timeout:        model.DefaultTimeout,
		attemptTimeout: model.DefaultAttemptTimeout,
		metrics:        metrics.NewNoop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Probe polls url until an attempt succeeds or the deadline passes.
// Attempt k starts no earlier than k*interval after the first one and no
// attempt starts after timeout, so Probe returns within timeout plus one
// attempt timeout. Cancelling ctx yields TimedOut.
func (p *Prober) Probe(ctx context.Context, url string) Outcome {
	start := time.Now()
	deadline := start.Add(p.timeout)
	next := start

	for attempt := 1; ; attempt++ {
		err := p.attempt(ctx, url)
		if err == nil {
			p.metrics.ProbeAttempt(metrics.ResultAlive)
			slog.InfoContext(ctx, "backend ready",
				"url", url,
				"attempts", attempt,
				"elapsed", time.Since(start),
			)
			return Ready
		}
		if ctx.Err() != nil {
			p.metrics.ProbeAttempt(metrics.ResultCancelled)
			slog.DebugContext(ctx, "probing cancelled", "url", url, "attempts", attempt)
			return TimedOut
		}
		p.metrics.ProbeAttempt(metrics.ResultNotReady)
		slog.DebugContext(ctx, "backend not ready", "url", url, "attempt", attempt, "error", err)

		next = next.Add(p.interval)
		if now := time.Now(); next.Before(now) {
			next = now
		}
		if next.After(deadline) {
			slog.WarnContext(ctx, "backend readiness deadline passed",
				"url", url,
				"attempts", attempt,
				"timeout", p.timeout,
			)
			return TimedOut
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return TimedOut
		case <-timer.C:
		}
	}
}

func (p *Prober) attempt(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()
	return p.checker.Check(ctx, url)
}
