// Package pipeline runs the four analysis stages over a document: structural
// parsing, line classification, spatial assignment and rhythm analysis.
//
// Staves share no mutable state once the document-wide decisions are made, so
// Process analyzes them concurrently on a bounded pool. Results are written to
// one slot per stave and assembled in source order, which keeps the output
// identical to a sequential run.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"github.com/FocuswithJustin/musictext/core/cache"
	"github.com/FocuswithJustin/musictext/core/classify"
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/parser"
	"github.com/FocuswithJustin/musictext/core/rhythm"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/core/spatial"
	"github.com/FocuswithJustin/musictext/internal/logging"
	"github.com/FocuswithJustin/musictext/internal/metrics"
)

// Options controls a pipeline run.
type Options struct {
	// System overrides notation system detection when set.
	System notation.System

	// Workers bounds the number of staves analyzed at once. Zero means one
	// per CPU.
	Workers int

	// Cache, when set, returns earlier results for identical input.
	// Cached documents are shared and must be treated as read-only.
	Cache *cache.DocumentCache

	// Metrics receives spans and internal errors. It may be nil.
	Metrics *metrics.SentryMetrics
}

type staveResult struct {
	stave *score.Stave
	err   error
}

// Process analyzes text and returns the resulting document. Staves that fail
// are listed in Document.Failures; an error is returned only for invalid
// options or a cancelled context.
func Process(ctx context.Context, text string, opts Options) (*score.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	plan, err := parser.Prepare(text, opts.System)
	if err != nil {
		return nil, err
	}
	key := cache.Key{Hash: plan.Document.Hash, System: opts.System}
	if opts.Cache != nil {
		if doc, ok := opts.Cache.Get(key); ok {
			logging.DebugContext(ctx, "document cache hit", "hash", doc.Hash)
			return doc, nil
		}
	}

	m := opts.Metrics
	tx := m.StartDocument(ctx, plan.Document.Hash)
	spanCtx := tx.Context()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]staveResult, len(plan.Paragraphs))
	wg := sizedwaitgroup.New(workers)
	for i := range plan.Paragraphs {
		if err := wg.AddWithContext(ctx); err != nil {
			break
		}
		go func(i int) {
			defer wg.Done()
			span := m.StartStave(spanCtx, plan.Paragraphs[i].Index)
			stave, err := ProcessStave(plan, i)
			notes := 0
			if stave != nil {
				notes = len(stave.Content.Notes())
			}
			m.FinishStave(span, notes, err)
			results[i] = staveResult{stave: stave, err: err}
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		tx.Finish()
		return nil, err
	}

	for i, para := range plan.Paragraphs {
		r := results[i]
		plan.Add(para, r.stave, r.err)
		if r.err == nil || errors.Is(r.err, parser.ErrNoContent) {
			continue
		}
		kind := parser.FailureStructural
		if errors.Is(r.err, errors.ErrInternal) {
			kind = parser.FailureInternal
			m.CaptureInternal(ctx, r.err, para.Index)
		}
		logging.StaveFailed(ctx, para.Index, kind, r.err)
	}

	doc := plan.Document
	warnings := len(doc.AllWarnings())
	elapsed := time.Since(start)
	logging.DocumentParsed(ctx, doc.Hash, doc.System.String(), len(doc.Staves), len(doc.Failures), warnings, elapsed,
		"detected", plan.Detected)
	m.RecordDocument(tx, doc.System.String(), len(doc.Staves), len(doc.Failures), warnings, elapsed)

	if opts.Cache != nil {
		opts.Cache.Put(key, doc)
	}
	return doc, nil
}

// ProcessStave runs every stage on the i-th paragraph of a prepared plan.
// Rhythm errors stay on the stave's beats; only structural and internal
// errors are returned.
func ProcessStave(plan *parser.Plan, i int) (*score.Stave, error) {
	stave, err := plan.ParseStave(i)
	if err != nil {
		return nil, err
	}
	classify.Stave(stave)
	if err := spatial.Assign(stave); err != nil {
		return nil, err
	}
	rhythm.Analyze(stave)
	return stave, nil
}
