package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/summary"
)

// ErrNoSources is returned by Run for an empty batch
var ErrNoSources = eris.New("pipeline: no sources to summarize")

// File statuses reported in FileOutcome
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

// Loader turns a source into an extracted document
type Loader interface {
	Load(ctx context.Context, src pdf.Source) (*pdf.Document, error)
}

// FileOutcome reports how one file of the batch fared
type FileOutcome struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Kind        string    `json:"kind,omitempty"` // pdf.Failure* for skipped files
	Reason      string    `json:"reason,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	Stats       ScanStats `json:"stats"`
}

// Summary is the result of a batch
type Summary struct {
	BatchID  string         `json:"batch_id"`
	Record   summary.Record `json:"-"`
	Outcomes []FileOutcome  `json:"files"`
	Pools    *summary.Pools `json:"-"`
	Elapsed  time.Duration  `json:"-"`
}

// Skipped returns the outcomes of files that contributed nothing
func (s *Summary) Skipped() []FileOutcome {
	var out []FileOutcome
	for _, o := range s.Outcomes {
		if o.Status == StatusSkipped {
			out = append(out, o)
		}
	}
	return out
}

// Report is the wire form of a Summary shared by the HTTP and MCP surfaces
type Report struct {
	BatchID   string            `json:"batch_id"`
	Columns   []string          `json:"columns"`
	Row       map[string]string `json:"row"`
	Files     []FileOutcome     `json:"files"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

// Report flattens the summary for serialization
func (s *Summary) Report() Report {
	return Report{
		BatchID:   s.BatchID,
		Columns:   s.Record.Header(),
		Row:       s.Record.Map(),
		Files:     s.Outcomes,
		ElapsedMS: s.Elapsed.Milliseconds(),
	}
}

// ProgressFunc is called after every file with the number of files finished
type ProgressFunc func(done, total int)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithProgress installs a progress callback. Calls are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithRecorder installs an event recorder
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// Pipeline drives a batch from sources to one summary record
type Pipeline struct {
	loader     Loader
	rules      *intelligence.RuleSet
	opts       Options
	aggregator *summary.Aggregator
	recorder   Recorder
	progress   ProgressFunc
	scanner    *Scanner
}

// New creates a pipeline. rules must already be validated.
func New(loader Loader, rules *intelligence.RuleSet, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		loader:     loader,
		rules:      rules,
		opts:       opts,
		aggregator: summary.NewAggregator(rules.Output),
		recorder:   nopRecorder{},
	}
	for _, o := range options {
		o(p)
	}
	if p.opts.Workers < 1 {
		p.opts.Workers = 1
	}
	p.scanner = NewScanner(rules, p.opts, p.recorder)
	return p
}

// Rules returns the rule set the pipeline was built with
func (p *Pipeline) Rules() *intelligence.RuleSet {
	return p.rules
}

// fileRun pairs the outcome of a file with its contribution
type fileRun struct {
	outcome FileOutcome
	result  *FileResult
}

// Run scans every source and aggregates the batch. Per-file failures never
// fail the batch; only an empty batch or a cancelled context do.
func (p *Pipeline) Run(ctx context.Context, sources []pdf.Source) (*Summary, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	start := time.Now()
	batchID := uuid.NewString()
	logger := zap.L().With(zap.String("batch_id", batchID))
	logger.Info("pipeline: batch started", zap.Int("files", len(sources)), zap.Int("workers", p.opts.Workers))

	runs := make([]fileRun, len(sources))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			runs[i] = p.processFile(gctx, src)

			mu.Lock()
			done++
			if p.progress != nil {
				p.progress(done, len(sources))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: batch cancelled")
	}

	// Merge in upload order so that ties resolve to the first uploaded file.
	pools := summary.NewPools()
	var dates []summary.DateObservation
	names := make([]string, len(sources))
	outcomes := make([]FileOutcome, len(sources))
	for i, run := range runs {
		names[i] = run.outcome.Name
		outcomes[i] = run.outcome
		if run.result == nil {
			continue
		}
		pools.Merge(run.result.Pools)
		if run.result.Date != nil {
			dates = append(dates, *run.result.Date)
		}
	}

	rec := p.aggregator.Aggregate(pools, dates, names)
	elapsed := time.Since(start)
	p.recorder.BatchFinished(len(sources), elapsed)
	logger.Info("pipeline: batch finished",
		zap.Int("candidates", pools.Len()),
		zap.String("file_name", rec.FileName()),
		zap.Duration("elapsed", elapsed),
	)

	return &Summary{
		BatchID:  batchID,
		Record:   rec,
		Outcomes: outcomes,
		Pools:    pools,
		Elapsed:  elapsed,
	}, nil
}

// Inspect scans a single source without aggregating. The result is nil
// when the file was skipped.
func (p *Pipeline) Inspect(ctx context.Context, src pdf.Source) (FileOutcome, *FileResult) {
	run := p.processFile(ctx, src)
	return run.outcome, run.result
}

// processFile loads and scans one source. Nothing it encounters escapes as
// an error; failures become a skipped outcome.
func (p *Pipeline) processFile(ctx context.Context, src pdf.Source) (run fileRun) {
	name := sourceName(src)
	run.outcome = FileOutcome{Name: name, Status: StatusOK}

	defer func() {
		if rec := recover(); rec != nil {
			run = skipped(name, pdf.FailureCorrupt, fmt.Sprintf("panic: %v", rec))
		}
		p.recorder.FileProcessed(run.outcome.Status)
	}()

	doc, err := p.loader.Load(ctx, src)
	if err != nil {
		kind := pdf.Classify(err)
		zap.L().Warn("pipeline: skipping file", zap.String("file", name), zap.String("kind", kind), zap.Error(err))
		return skipped(name, kind, err.Error())
	}
	// Attribution always uses the uploaded name.
	doc.Name = name

	result := p.scanner.Scan(doc)
	run.result = &result
	run.outcome.Stats = result.Stats
	run.outcome.ContentType = doc.ContentType

	switch doc.ContentType {
	case pdf.ContentScanned:
		run.outcome.Warnings = append(run.outcome.Warnings, "pages are scanned images; text recognition is not performed")
	case pdf.ContentEmpty:
		run.outcome.Warnings = append(run.outcome.Warnings, "no extractable text")
	}
	if result.Stats.Tables == 0 {
		run.outcome.Warnings = append(run.outcome.Warnings, "no tables found")
	}
	for _, w := range run.outcome.Warnings {
		zap.L().Warn("pipeline: file warning", zap.String("file", name), zap.String("warning", w))
	}
	return run
}

func skipped(name, kind, reason string) fileRun {
	return fileRun{outcome: FileOutcome{Name: name, Status: StatusSkipped, Kind: kind, Reason: reason}}
}

func sourceName(src pdf.Source) string {
	if src.Name != "" {
		return src.Name
	}
	return filepath.Base(src.Path)
}
