// Package pipeline drives documents through the filter, coerce and validate stages and
// routes each outcome to the registered hooks and writers.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/metrics"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/processor"
	"github.com/Ramsey-B/munger/pkg/router"
	"github.com/Ramsey-B/munger/pkg/schema"
	"github.com/Ramsey-B/munger/pkg/source"
	"github.com/Ramsey-B/munger/pkg/tracing"
	"github.com/Ramsey-B/munger/pkg/utils"
	"github.com/Ramsey-B/munger/pkg/writer"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

// Source produces the documents of a run. Fieldnames are known before the first Next.
type Source interface {
	Next() (*models.Document, error)
	Fieldnames() []string
	Path() string
	Close() error
}

// Result is the outcome of one document along with the stage and processor that produced it.
// For a failure outcome Stage is the rejecting stage and Document is nil. For Completed,
// Stage is the last stage that ran.
type Result struct {
	Outcome   models.Outcome
	Stage     models.Stage
	Processor *processor.Processor
	Document  *models.Document
	Writer    router.Writer
}

// Summary reports a finished run.
type Summary struct {
	RunID     string
	Source    string
	Rows      int
	Outcomes  map[models.Outcome]int
	Written   int
	Unclaimed int
	Duration  time.Duration
}

type Pipeline struct {
	config     Config
	logger     ectologger.Logger
	runID      string
	source     Source
	processors map[models.Stage]*processor.Processor
	router     *router.Router
	rows       int
	started    bool
	closed     bool
}

func New(config Config, logger ectologger.Logger) *Pipeline {
	defaults := DefaultConfig()
	if config.ErrorsFieldName == "" {
		config.ErrorsFieldName = defaults.ErrorsFieldName
	}
	if config.SuffixSeparator == "" {
		config.SuffixSeparator = defaults.SuffixSeparator
	}

	return &Pipeline{
		config:     config,
		logger:     logger,
		runID:      uuid.New().String(),
		processors: make(map[models.Stage]*processor.Processor),
		router:     router.New(logger),
	}
}

// RunID identifies this pipeline in logs, spans and published events.
func (p *Pipeline) RunID() string {
	return p.runID
}

func (p *Pipeline) Router() *router.Router {
	return p.router
}

// SetSource binds the record source. A previously bound source is closed.
func (p *Pipeline) SetSource(src Source) error {
	if p.started {
		return errors.NewConfigError("pipeline.SetSource", errors.ErrAlreadyRunning)
	}
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			return err
		}
	}
	p.source = src
	return nil
}

// SetSourceFile opens a CSV file as the record source.
func (p *Pipeline) SetSourceFile(path string) error {
	if p.started {
		return errors.NewConfigError("pipeline.SetSourceFile", errors.ErrAlreadyRunning)
	}
	src, err := source.OpenCSV(path)
	if err != nil {
		return err
	}
	if err := p.SetSource(src); err != nil {
		src.Close()
		return err
	}
	return nil
}

func (p *Pipeline) Source() Source {
	return p.source
}

// SetSchema builds a processor for s and binds it to stage.
func (p *Pipeline) SetSchema(stage models.Stage, s schema.Schema, opts ...schema.Option) error {
	proc, err := processor.New(s, opts...)
	if err != nil {
		return errors.WrapConfigError("pipeline.SetSchema", err)
	}
	return p.SetProcessor(stage, proc)
}

// SetProcessor binds a pre-built processor to stage. A nil processor unbinds the stage.
func (p *Pipeline) SetProcessor(stage models.Stage, proc *processor.Processor) error {
	if !stage.Valid() {
		return errors.NewConfigErrorf("pipeline.SetProcessor", errors.ErrInvalidStage, "%s", stage)
	}
	if p.started {
		return errors.NewConfigError("pipeline.SetProcessor", errors.ErrAlreadyRunning)
	}
	if proc == nil {
		delete(p.processors, stage)
		return nil
	}
	p.processors[stage] = proc
	return nil
}

// Processor returns the processor bound to stage, or nil.
func (p *Pipeline) Processor(stage models.Stage) *processor.Processor {
	return p.processors[stage]
}

// Stages returns the bound stages in execution order.
func (p *Pipeline) Stages() []models.Stage {
	stages := make([]models.Stage, 0, len(p.processors))
	for _, stage := range models.Stages {
		if p.processors[stage] != nil {
			stages = append(stages, stage)
		}
	}
	return stages
}

func (p *Pipeline) RegisterHook(outcome models.Outcome, hook router.Hook) error {
	return p.router.AddHook(outcome, hook)
}

// RegisterWriter opens a writer and appends it to the outcome's writers.
func (p *Pipeline) RegisterWriter(options WriterOptions) (*writer.Writer, error) {
	writers, err := p.RegisterWriters(options)
	if err != nil {
		return nil, err
	}
	return writers[0], nil
}

// RegisterWriters opens every writer before registering any of them. When one fails, the
// writers already opened by this call are closed and their files removed.
func (p *Pipeline) RegisterWriters(options ...WriterOptions) (writers []*writer.Writer, err error) {
	if p.source == nil {
		return nil, errors.NewConfigError("pipeline.RegisterWriter", errors.ErrSourceNotSet)
	}
	if p.started {
		return nil, errors.NewConfigError("pipeline.RegisterWriter", errors.ErrAlreadyRunning)
	}
	if p.closed {
		return nil, errors.NewConfigError("pipeline.RegisterWriter", errors.ErrClosed)
	}

	defer func() {
		if err == nil {
			return
		}
		for _, w := range writers {
			err = multierr.Append(err, w.Close())
		}
		writers = nil
	}()

	for _, opts := range options {
		w, openErr := p.openWriter(opts)
		if openErr != nil {
			return writers, openErr
		}
		writers = append(writers, w)
	}

	for i, w := range writers {
		if addErr := p.router.AddWriter(options[i].Outcome, w); addErr != nil {
			return writers, addErr
		}
	}
	return writers, nil
}

func (p *Pipeline) openWriter(opts WriterOptions) (*writer.Writer, error) {
	if !opts.Outcome.Valid() {
		return nil, errors.NewConfigErrorf("pipeline.RegisterWriter", errors.ErrInvalidOutcome, "%s", opts.Outcome)
	}
	if _, err := utils.Validate(opts); err != nil {
		return nil, errors.NewConfigErrorf("pipeline.RegisterWriter", errors.ErrDestination, "%s", err.Error())
	}

	path := opts.Filename
	if path == "" {
		path = DerivePath(p.source.Path(), opts.Suffix, p.config.SuffixSeparator)
	}

	return writer.New(writer.Options{
		Path:            path,
		Outcome:         opts.Outcome,
		Condition:       opts.Condition,
		IncludeErrors:   opts.IncludeErrors,
		Fieldnames:      opts.Fieldnames,
		ErrorsFieldName: p.config.ErrorsFieldName,
		UseCRLF:         !p.config.UseLF,
	})
}

// DerivePath inserts separator and suffix between the stem and extension of sourcePath.
func DerivePath(sourcePath, suffix, separator string) string {
	dir, base := filepath.Split(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+separator+suffix+ext)
}

// RunOne drives doc through the bound stages. A writer error is returned; a rejection is
// reported only through the Result and the router.
func (p *Pipeline) RunOne(ctx context.Context, doc *models.Document) (Result, error) {
	if len(p.Stages()) == 0 {
		return Result{}, errors.NewConfigError("pipeline.RunOne", errors.ErrNoStages)
	}
	if p.closed {
		return Result{}, errors.NewConfigError("pipeline.RunOne", errors.ErrClosed)
	}
	p.started = true
	p.rows++

	ctx, span := tracing.StartSpan(ctx, "pipeline.RunOne", attribute.Int("munger.row", p.rows))
	defer span.End()

	current := doc
	result := Result{Outcome: models.OutcomeCompleted}
	for _, stage := range p.Stages() {
		proc := p.processors[stage]
		out, ok := proc.Accept(stage, current)
		result.Stage, result.Processor = stage, proc
		if !ok {
			result.Outcome = stage.FailureOutcome()
			metrics.RecordRejection(stage.String())
			break
		}
		current = out
	}
	if result.Outcome == models.OutcomeCompleted {
		result.Document = current
	}

	span.SetAttributes(attribute.String("munger.outcome", result.Outcome.String()))
	metrics.RecordDocument(result.Outcome.String())

	w, err := p.router.Dispatch(ctx, p.event(result))
	if err != nil {
		tracing.RecordError(span, err)
		return result, err
	}
	result.Writer = w
	return result, nil
}

func (p *Pipeline) event(result Result) router.Event {
	event := router.Event{
		Outcome:   result.Outcome,
		Stage:     result.Stage,
		Processor: result.Processor,
		RunID:     p.runID,
		Row:       p.rows,
		Time:      time.Now().UTC(),
	}
	if p.source != nil {
		event.Source = p.source.Path()
	}
	return event
}

// Run consumes the source to the end, one document at a time. It fails before reading
// anything when no stage is bound. Only configuration and I/O errors stop a run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: p.runID, Outcomes: make(map[models.Outcome]int)}
	if len(p.Stages()) == 0 {
		return summary, errors.NewConfigError("pipeline.Run", errors.ErrNoStages)
	}
	if p.source == nil {
		return summary, errors.NewConfigError("pipeline.Run", errors.ErrSourceNotSet)
	}
	summary.Source = p.source.Path()

	ctx, span := tracing.StartSpan(ctx, "pipeline.Run",
		attribute.String("munger.run_id", p.runID),
		attribute.String("munger.source", summary.Source),
	)
	defer span.End()

	start := time.Now()
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": p.runID,
		"source": summary.Source,
	})
	p.warnUnboundWriters(log)
	log.WithFields(map[string]any{
		"stages": p.stageNames(),
	}).Info("Munging started")

	for {
		doc, err := p.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			tracing.RecordError(span, err)
			return p.finish(summary, start), err
		}

		result, err := p.RunOne(ctx, doc)
		if err != nil {
			tracing.RecordError(span, err)
			return p.finish(summary, start), fmt.Errorf("row %d: %w", p.rows, err)
		}

		summary.Rows++
		summary.Outcomes[result.Outcome]++
		if result.Writer != nil {
			summary.Written++
		} else {
			summary.Unclaimed++
		}

		if p.config.ProgressInterval > 0 && summary.Rows%p.config.ProgressInterval == 0 {
			log.WithFields(map[string]any{
				"rows":      summary.Rows,
				"completed": summary.Outcomes[models.OutcomeCompleted],
			}).Info("Munging progress")
		}
	}

	summary = p.finish(summary, start)
	fields := map[string]any{
		"rows":        summary.Rows,
		"written":     summary.Written,
		"unclaimed":   summary.Unclaimed,
		"duration_ms": summary.Duration.Milliseconds(),
	}
	for _, outcome := range models.Outcomes {
		fields[outcome.String()] = summary.Outcomes[outcome]
	}
	log.WithFields(fields).Info("Munging finished")

	return summary, nil
}

func (p *Pipeline) finish(summary Summary, start time.Time) Summary {
	summary.Duration = time.Since(start)
	metrics.RecordRun(summary.Duration.Seconds())
	return summary
}

func (p *Pipeline) stageNames() []string {
	names := make([]string, 0, len(p.processors))
	for _, stage := range p.Stages() {
		names = append(names, stage.String())
	}
	return names
}

// warnUnboundWriters logs writers attached to the failure outcome of a stage that is not bound.
func (p *Pipeline) warnUnboundWriters(log ectologger.Logger) {
	for _, stage := range models.Stages {
		if p.processors[stage] != nil {
			continue
		}
		for _, w := range p.router.Writers(stage.FailureOutcome()) {
			log.WithFields(map[string]any{
				"stage":       stage.String(),
				"destination": w.Name(),
			}).Warn("Writer registered for a stage that is not bound")
		}
	}
}

// Close closes the source and every writer exactly once. Writers that admitted nothing
// have their files removed.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.router.Close()
	if p.source != nil {
		err = multierr.Append(err, p.source.Close())
	}
	return err
}
