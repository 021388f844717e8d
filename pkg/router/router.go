// Package router fans an outcome out to its hooks and hands the document to the first
// writer registered for that outcome that admits it.
package router

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/metrics"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/processor"
	"github.com/Ramsey-B/munger/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

// Writer is an output sink bound to one outcome.
type Writer interface {
	// Write returns false when the writer's condition does not admit the document.
	Write(p *processor.Processor) (bool, error)
	Name() string
	Close() error
}

// Event describes one document reaching an outcome.
type Event struct {
	Outcome   models.Outcome
	Stage     models.Stage // the rejecting stage; meaningless for completed
	Processor *processor.Processor
	RunID     string
	Source    string
	Row       int
	Time      time.Time
}

// Hook is called for every event of the outcome it was registered for.
// Hooks cannot fail a run.
type Hook func(ctx context.Context, event Event)

type Router struct {
	hooks   map[models.Outcome][]Hook
	writers map[models.Outcome][]Writer
	order   []Writer
	logger  ectologger.Logger
	closed  bool
}

func New(logger ectologger.Logger) *Router {
	return &Router{
		hooks:   make(map[models.Outcome][]Hook),
		writers: make(map[models.Outcome][]Writer),
		logger:  logger,
	}
}

func (r *Router) AddHook(outcome models.Outcome, hook Hook) error {
	if !outcome.Valid() {
		return errors.NewConfigErrorf("router.AddHook", errors.ErrInvalidOutcome, "%s", outcome)
	}
	r.hooks[outcome] = append(r.hooks[outcome], hook)
	return nil
}

// AddWriter appends w to the outcome's writers. Registration order is dispatch order.
func (r *Router) AddWriter(outcome models.Outcome, w Writer) error {
	if !outcome.Valid() {
		return errors.NewConfigErrorf("router.AddWriter", errors.ErrInvalidOutcome, "%s", outcome)
	}
	if r.closed {
		return errors.NewConfigError("router.AddWriter", errors.ErrClosed)
	}
	r.writers[outcome] = append(r.writers[outcome], w)
	r.order = append(r.order, w)
	return nil
}

// Writers returns the writers registered for outcome in dispatch order.
func (r *Router) Writers(outcome models.Outcome) []Writer {
	return append([]Writer(nil), r.writers[outcome]...)
}

// All returns every registered writer in registration order.
func (r *Router) All() []Writer {
	return append([]Writer(nil), r.order...)
}

// Dispatch runs every hook for the event's outcome, then offers the processor to the
// outcome's writers until one admits it. It returns the admitting writer, or nil when
// none did. A writer error stops dispatch and is returned.
func (r *Router) Dispatch(ctx context.Context, event Event) (Writer, error) {
	ctx, span := tracing.StartSpan(ctx, "router.Dispatch",
		attribute.String("munger.outcome", event.Outcome.String()),
		attribute.Int("munger.row", event.Row),
	)
	defer span.End()

	for _, hook := range r.hooks[event.Outcome] {
		hook(ctx, event)
	}

	for _, w := range r.writers[event.Outcome] {
		ok, err := w.Write(event.Processor)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		if ok {
			span.SetAttributes(attribute.String("munger.destination", w.Name()))
			metrics.RecordWrite(event.Outcome.String(), w.Name())
			return w, nil
		}
	}

	metrics.RecordUnclaimed(event.Outcome.String())
	return nil, nil
}

// Close closes every writer once, collecting all errors.
func (r *Router) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	for _, w := range r.order {
		if closeErr := w.Close(); closeErr != nil {
			r.logger.WithError(closeErr).WithFields(map[string]any{
				"destination": w.Name(),
			}).Error("Failed to close writer")
			err = multierr.Append(err, closeErr)
		}
	}
	return err
}
