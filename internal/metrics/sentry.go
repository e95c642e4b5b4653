// Package metrics reports pipeline timings and internal defects to Sentry.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config configures the Sentry client.
type Config struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

// Init configures the global Sentry client. An empty DSN leaves Sentry
// disabled and is not an error.
func Init(cfg Config) (*SentryMetrics, error) {
	if cfg.DSN == "" {
		return &SentryMetrics{}, nil
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: rate,
	})
	if err != nil {
		return &SentryMetrics{}, fmt.Errorf("sentry init: %w", err)
	}
	return &SentryMetrics{enabled: true}, nil
}

// Flush waits for buffered events to be sent.
func (m *SentryMetrics) Flush(timeout time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	sentry.Flush(timeout)
}

// SentryMetrics handles spans and error capture for the pipeline.
type SentryMetrics struct {
	enabled bool
}

// Enabled reports whether a Sentry client was configured.
func (m *SentryMetrics) Enabled() bool {
	return m != nil && m.enabled
}

// StartDocument starts the transaction covering one document. Spans are
// created even when Sentry is disabled; they are simply never sent.
func (m *SentryMetrics) StartDocument(ctx context.Context, hash string) *sentry.Span {
	tx := sentry.StartTransaction(ctx, "pipeline.process")
	tx.SetTag("document.hash", short(hash))
	return tx
}

// StartStave starts a child span for one stave.
func (m *SentryMetrics) StartStave(ctx context.Context, index int) *sentry.Span {
	span := sentry.StartSpan(ctx, "pipeline.stave")
	span.SetTag("stave", strconv.Itoa(index))
	span.Description = fmt.Sprintf("Stave %d", index)
	return span
}

// FinishStave closes a stave span with its outcome.
func (m *SentryMetrics) FinishStave(span *sentry.Span, notes int, err error) {
	span.SetData("notes", notes)
	if err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}

// RecordDocument attaches document totals to the transaction and finishes it.
func (m *SentryMetrics) RecordDocument(tx *sentry.Span, system string, staves, failures, warnings int, duration time.Duration) {
	tx.SetTag("notation.system", system)
	tx.SetData("staves", staves)
	tx.SetData("failures", failures)
	tx.SetData("warnings", warnings)
	tx.SetData("duration_ms", duration.Milliseconds())
	if failures > 0 {
		tx.Status = sentry.SpanStatusInvalidArgument
	} else {
		tx.Status = sentry.SpanStatusOK
	}
	tx.Finish()
}

// CaptureInternal reports an assigner defect. User errors in the notation
// are never sent.
func (m *SentryMetrics) CaptureInternal(ctx context.Context, err error, stave int) {
	if !m.Enabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stave", strconv.Itoa(stave))
		scope.SetLevel(sentry.LevelError)
		hub.CaptureException(err)
	})
}

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
