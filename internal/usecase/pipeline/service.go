// Package pipeline runs the sine-wave filtering and aggregation demo against a store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
	"github.com/kailas-cloud/edsanalytics/internal/domain/aggregate"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

const (
	defaultEvents = 100
	// defaultTolerance bounds the accepted gap between local and store-computed statistics.
	// The summary scanner reads 16 characters, so remote figures carry about 14 significant digits.
	defaultTolerance = 1e-9
)

// Report summarizes a run.
type Report struct {
	Generated     int
	ReadBack      int
	Filtered      int
	Calculated    aggregate.Record
	Remote        aggregate.Record
	Discrepancies []string
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the source of the run's first timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithEvents sets how many samples are generated.
func WithEvents(n int) Option {
	return func(r *Runner) { r.events = n }
}

// WithTolerance sets the local/remote reconciliation tolerance.
func WithTolerance(tol float64) Option {
	return func(r *Runner) { r.tolerance = tol }
}

// Runner executes the demo workflow.
type Runner struct {
	client    Client
	logger    *zap.Logger
	now       func() time.Time
	events    int
	tolerance float64
}

// New creates a Runner.
func New(client Client, opts ...Option) *Runner {
	r := &Runner{
		client:    client,
		logger:    zap.NewNop(),
		now:       time.Now,
		events:    defaultEvents,
		tolerance: defaultTolerance,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type step struct {
	name string
	fn   func(context.Context) error
}

// Run executes every step in order, stopping at the first failure, then deletes
// whatever was created. Cleanup runs on a context detached from ctx's cancellation.
// Cleanup failures are joined after the run error and never replace it.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	ex := &execution{
		runner: r,
		td:     &teardown{},
		first:  r.now().UTC(),
	}

	err := ex.execute(ctx)
	if err != nil {
		r.logger.Error("pipeline failed",
			zap.String("kind", domain.Kind(err)),
			zap.String("reason", describeFailure(err)),
			zap.Error(err),
		)
	}

	if !ex.td.empty() {
		r.logger.Info("step 12: clean-up")
		cerr := ex.td.run(context.WithoutCancel(ctx), r.client, r.logger)
		err = withCleanup(err, cerr)
	}
	return ex.report, err
}

// execution carries the state shared between the steps of one run.
type execution struct {
	runner *Runner
	td     *teardown
	first  time.Time

	generated []sample.Record
	readBack  []sample.Record
	report    Report
}

func (e *execution) execute(ctx context.Context) error {
	steps := []step{
		{"create SineWave type", e.createType(schema.SineWave())},
		{"create SineWave stream", e.createStream(schema.SineWaveID, stream.SineWaveID)},
		{"write sine wave events", e.writeSineWave},
		{"read sine wave events", e.readSineWave},
		{"create FilteredSineWave stream", e.createStream(schema.SineWaveID, stream.FilteredSineWaveID)},
		{"write filtered events", e.writeFiltered},
		{"create AggregatedData type", e.createType(schema.AggregatedData())},
		{"create CalculatedAggregatedData stream", e.createStream(schema.AggregatedDataID, stream.CalculatedAggregatedDataID)},
		{"calculate aggregates", e.writeCalculated},
		{"create EdsApiAggregatedData stream", e.createStream(schema.AggregatedDataID, stream.EdsAPIAggregatedDataID)},
		{"read store aggregates", e.writeRemote},
	}

	log := e.runner.logger
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.name, err)
		}
		log.Info(fmt.Sprintf("step %d: %s", i+1, s.name))
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.name, err)
		}
	}
	return nil
}

func (e *execution) createType(t schema.Type) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := schema.Validate(t); err != nil {
			return err
		}
		if err := e.runner.client.CreateType(ctx, t); err != nil {
			return err
		}
		e.td.addType(t.ID)
		return nil
	}
}

func (e *execution) createStream(typeID, id string) func(context.Context) error {
	return func(ctx context.Context) error {
		s, err := e.runner.client.CreateStream(ctx, typeID, id, id)
		if err != nil {
			return err
		}
		e.td.addStream(s.ID)
		return nil
	}
}

func (e *execution) writeSineWave(ctx context.Context) error {
	records, err := sample.Generate(e.first, e.runner.events)
	if err != nil {
		return err
	}
	e.generated = records
	e.report.Generated = len(records)
	return e.runner.client.WriteRecords(ctx, stream.SineWaveID, records)
}

func (e *execution) readSineWave(ctx context.Context) error {
	records, err := e.runner.client.ReadRange(ctx, stream.SineWaveID, e.generated[0].Timestamp, len(e.generated))
	if err != nil {
		return err
	}
	e.readBack = records
	e.report.ReadBack = len(records)
	if len(records) != len(e.generated) {
		e.runner.logger.Warn("read back a different number of events",
			zap.Int("written", len(e.generated)),
			zap.Int("read", len(records)),
		)
	}
	return nil
}

func (e *execution) writeFiltered(ctx context.Context) error {
	filtered := sample.Filter(e.readBack)
	e.report.Filtered = len(filtered)
	e.runner.logger.Info("filtered events",
		zap.Float64("threshold", sample.Threshold),
		zap.Int("kept", len(filtered)),
	)
	return e.runner.client.WriteRecords(ctx, stream.FilteredSineWaveID, filtered)
}

func (e *execution) writeCalculated(ctx context.Context) error {
	rec, err := aggregate.Compute(sample.FormatTimestamp(e.first), sample.Values(e.readBack))
	if err != nil {
		return err
	}
	e.report.Calculated = rec
	logAggregate(e.runner.logger, "calculated", rec)
	return e.runner.client.WriteAggregate(ctx, stream.CalculatedAggregatedDataID, rec)
}

func (e *execution) writeRemote(ctx context.Context) error {
	start := sample.FormatTimestamp(e.first)
	end := sample.FormatTimestamp(e.first.Add(time.Duration(e.runner.events) * time.Minute))

	payload, err := e.runner.client.ReadSummary(ctx, stream.SineWaveID, start, end, 1)
	if err != nil {
		return err
	}
	rec, err := aggregate.FromSummary(start, payload)
	if err != nil {
		return err
	}
	e.report.Remote = rec
	logAggregate(e.runner.logger, "store", rec)

	e.report.Discrepancies = aggregate.Compare(e.report.Calculated, rec, e.runner.tolerance)
	for _, d := range e.report.Discrepancies {
		e.runner.logger.Warn("aggregate mismatch", zap.String("detail", d))
	}
	return e.runner.client.WriteAggregate(ctx, stream.EdsAPIAggregatedDataID, rec)
}

func logAggregate(log *zap.Logger, source string, rec aggregate.Record) {
	log.Info("aggregates",
		zap.String("source", source),
		zap.Float64("mean", rec.Mean),
		zap.Float64("min", rec.Minimum),
		zap.Float64("max", rec.Maximum),
		zap.Float64("range", rec.Range),
	)
}

// describeFailure turns a run error into a short operator-facing reason.
func describeFailure(err error) string {
	var (
		apiErr       *domain.APIError
		transportErr *domain.TransportError
		decodeErr    *domain.DecodeError
		parseErr     *domain.ParseError
	)
	switch {
	case errors.As(err, &apiErr):
		if apiErr.NotFound() {
			return fmt.Sprintf("%s: resource not found on the store", apiErr.Op)
		}
		return fmt.Sprintf("%s: store answered %d", apiErr.Op, apiErr.StatusCode)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "run canceled"
	case errors.As(err, &transportErr):
		return fmt.Sprintf("%s: store unreachable", transportErr.Op)
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("%s: malformed response", decodeErr.Op)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("summary field %s could not be read", parseErr.Field)
	default:
		return "unexpected failure"
	}
}
