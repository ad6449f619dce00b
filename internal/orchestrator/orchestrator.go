// Package orchestrator drives concurrent analysis of extracted files:
// cache lookup, dependency context gathering, service calls with
// retry, and result collection.
package orchestrator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codescribe/codescribe-go/internal/cache"
	apperrors "github.com/codescribe/codescribe-go/internal/errors"
	"github.com/codescribe/codescribe-go/internal/graph"
	"github.com/codescribe/codescribe-go/internal/llm"
	"github.com/codescribe/codescribe-go/internal/model"
)

// State names the stage a file has reached. Used for logging only;
// results carry the terminal outcome.
type State string

const (
	StatePending       State = "pending"
	StateCacheCheck    State = "cache_check"
	StateContextGather State = "context_gather"
	StateServiceCall   State = "service_call"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Options tunes a run.
type Options struct {
	Workers        int
	CallTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	ContextItems   int
}

// Input is one file queued for analysis. A non-empty ErrorKind marks a
// file that already failed upstream (extraction, typically); it skips
// the service and surfaces as a failed placeholder so the report still
// lists it.
type Input struct {
	Path        string
	Model       *model.FileEntity
	Fingerprint model.Fingerprint
	ErrorKind   model.ErrorKind
}

// Orchestrator coordinates one analysis run over a fixed set of
// inputs.
type Orchestrator struct {
	graph  *graph.Builder
	cache  *cache.Store
	svc    llm.Service
	opts   Options
	logger *slog.Logger
}

// New creates an orchestrator. Zero option fields fall back to
// conservative defaults.
func New(g *graph.Builder, c *cache.Store, svc llm.Service, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	if opts.ContextItems <= 0 {
		opts.ContextItems = 8
	}
	return &Orchestrator{
		graph:  g,
		cache:  c,
		svc:    svc,
		opts:   opts,
		logger: slog.Default().With("component", "orchestrator"),
	}
}

// Run analyzes every input and returns a result per path. The run
// never aborts on per-file failures: files that cannot be analyzed
// come back as failed placeholders. Cancellation stops scheduling
// and marks unfinished files cancelled; results already produced are
// kept.
func (o *Orchestrator) Run(ctx context.Context, inputs []Input) map[string]*model.AnalysisResult {
	runID := uuid.New().String()
	o.logger.Info("analysis run starting",
		"run_id", runID, "files", len(inputs), "workers", o.opts.Workers)

	byPath := make(map[string]Input, len(inputs))
	for _, in := range inputs {
		byPath[in.Path] = in
	}

	results := make(map[string]*model.AnalysisResult, len(inputs))
	resultCh := make(chan *model.AnalysisResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, in := range inputs {
		in := in
		g.Go(func() error {
			resultCh <- o.processFile(gctx, in, byPath)
			return nil
		})
	}

	g.Wait()
	close(resultCh)
	for r := range resultCh {
		results[r.FilePath] = r
	}

	done, failed := 0, 0
	for _, r := range results {
		if r.ErrorKind == model.ErrorNone {
			done++
		} else {
			failed++
		}
	}
	o.logger.Info("analysis run finished",
		"run_id", runID, "done", done, "failed", failed)
	return results
}

// processFile takes one input through the pipeline stages.
func (o *Orchestrator) processFile(ctx context.Context, in Input, byPath map[string]Input) *model.AnalysisResult {
	log := o.logger.With("path", in.Path)

	if in.ErrorKind != model.ErrorNone {
		log.Debug("skipped", "state", StateFailed, "error_kind", in.ErrorKind)
		return model.Failed(in.Path, in.Fingerprint, in.ErrorKind)
	}

	if ctx.Err() != nil {
		log.Debug("skipped", "state", StateFailed, "reason", "cancelled")
		return model.Failed(in.Path, in.Fingerprint, model.ErrorCancelled)
	}

	log.Debug("stage", "state", StateCacheCheck)
	if cached := o.cache.Lookup(in.Fingerprint); cached != nil {
		log.Debug("cache hit")
		if cached.FilePath == in.Path {
			return cached
		}
		// Identical content in a different file shares the fingerprint.
		// Rekey the result to this path and register it as an owner so
		// both files stay visible in the output and invalidatable.
		dup := *cached
		dup.FilePath = in.Path
		if err := o.cache.Store(&dup); err != nil {
			log.Warn("shared result not registered", "error", err)
		}
		return &dup
	}

	log.Debug("stage", "state", StateContextGather)
	summaries := o.gatherContext(in, byPath)

	log.Debug("stage", "state", StateServiceCall)
	prompt := llm.BuildPrompt(in.Model, summaries)
	raw, errKind := o.callWithRetry(ctx, log, prompt)
	if errKind != model.ErrorNone {
		log.Warn("analysis failed", "state", StateFailed, "error_kind", errKind)
		return model.Failed(in.Path, in.Fingerprint, errKind)
	}

	result := llm.ParseResponse(in.Path, in.Fingerprint, raw)
	result.ComputedAt = time.Now().UTC()
	if err := o.cache.Store(result); err != nil {
		log.Warn("result not cached", "error", err)
	}
	log.Debug("stage", "state", StateDone)
	return result
}

// gatherContext collects one summary line per dependency. Cached
// results contribute their purpose; everything else falls back to a
// structural summary. This never waits on in-flight analyses.
func (o *Orchestrator) gatherContext(in Input, byPath map[string]Input) []string {
	neighbors := o.graph.Context(in.Path, o.opts.ContextItems)
	summaries := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		dep, ok := byPath[n]
		if !ok {
			continue
		}
		if cached := o.cache.Lookup(dep.Fingerprint); cached != nil && cached.Purpose != "" {
			summaries = append(summaries, dep.Path+": "+cached.Purpose)
			continue
		}
		summaries = append(summaries, dep.Path+": "+model.Summary(dep.Model))
	}
	return summaries
}

// callWithRetry calls the service with a per-attempt deadline,
// retrying transient failures with exponential backoff and jitter.
func (o *Orchestrator) callWithRetry(ctx context.Context, log *slog.Logger, prompt string) (string, model.ErrorKind) {
	var lastErr error
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := o.opts.RetryBaseDelay << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(o.opts.RetryBaseDelay)))
			log.Debug("retrying", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return "", model.ErrorCancelled
			case <-time.After(delay):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
		raw, err := o.svc.Analyze(callCtx, prompt)
		cancel()
		if err == nil {
			return raw, model.ErrorNone
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", model.ErrorCancelled
		}
		if !llm.Transient(err) {
			break
		}
	}
	log.Debug("service call exhausted", "error", lastErr)
	return "", apperrors.KindOf(lastErr)
}
