package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// File outcomes reported to an Observer.
const (
	OutcomeStored  = "stored"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Observer receives batch and per-file events, e.g. for metrics.
type Observer interface {
	ObserveBatch(sink string, err error)
	ObserveFile(sink, outcome string, bytes int, dur time.Duration)
}

// Result is the outcome of one attempted field.
type Result struct {
	Filename string
	Bytes    int
	Digest   string
	Duration time.Duration
	Err      error
}

// Summary aggregates one batch. Skipped fields are not attempted.
type Summary struct {
	Sink      string
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Results   []Result
}

func (s *Summary) add(r Result) {
	s.Attempted++
	if r.Err != nil {
		s.Failed++
	} else {
		s.Succeeded++
	}
	s.Results = append(s.Results, r)
}

// Message is the human readable summary returned to the client.
func (s Summary) Message() string {
	switch s.Sink {
	case SinkS3:
		return fmt.Sprintf("%d files uploaded to S3", s.Succeeded)
	case SinkGCS:
		return fmt.Sprintf("%d files uploaded to GCS", s.Succeeded)
	default:
		return fmt.Sprintf("%d files uploaded successfully", s.Succeeded)
	}
}

// Orchestrator drives one batch at a time through a Sink. It holds no
// per-request state, so a single Orchestrator serves concurrent requests.
type Orchestrator struct {
	Sink     Sink
	Observer Observer
}

// NewOrchestrator returns an orchestrator for sink. obs may be nil.
func NewOrchestrator(sink Sink, obs Observer) *Orchestrator {
	return &Orchestrator{Sink: sink, Observer: obs}
}

// Run stores every field of fields, strictly in order. Per-file failures are
// logged and counted; only a setup failure or a framing error is returned,
// and in the latter case the partial summary is returned alongside.
func (o *Orchestrator) Run(ctx context.Context, fields Fields) (Summary, error) {
	log := zerolog.Ctx(ctx)
	sum := Summary{Sink: o.Sink.Name()}

	batch, err := o.Sink.Open(ctx)
	if err != nil {
		err = errors.Wrap(err, "could not prepare upload destination")
		log.Error().Err(err).Msg("")
		o.observeBatch(err)
		return sum, err
	}

	for fields.Next() {
		sum.add(o.store(ctx, batch, fields.Field()))
	}
	sum.Skipped = fields.Skipped()
	o.observeSkipped(sum.Skipped)

	if err := fields.Err(); err != nil {
		err = errors.Wrap(err, "could not decode upload")
		log.Error().Err(err).
			Int("attempted", sum.Attempted).
			Int("succeeded", sum.Succeeded).
			Msg("aborting batch")
		o.observeBatch(err)
		return sum, err
	}

	log.Info().
		Int("attempted", sum.Attempted).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Msg(sum.Message())
	o.observeBatch(nil)
	return sum, nil
}

func (o *Orchestrator) store(ctx context.Context, batch Batch, f *Field) Result {
	log := zerolog.Ctx(ctx).With().Str("filename", f.Filename).Logger()
	res := Result{Filename: f.Filename, Bytes: len(f.Content)}

	if f.Err != nil {
		res.Err = f.Err
	} else {
		log.Debug().Int("bytes", res.Bytes).Msg("processing file")
		start := time.Now()
		res.Err = batch.Store(ctx, f.Filename, f.Content)
		res.Duration = time.Since(start)
	}

	if res.Err != nil {
		log.Error().Err(res.Err).Msg("could not store file")
		o.observeFile(OutcomeFailed, res)
		return res
	}

	res.Digest = Digest(f.Content)
	log.Info().
		Int("bytes", res.Bytes).
		Str("blake2b", res.Digest).
		Dur("duration", res.Duration).
		Msg("stored file")
	o.observeFile(OutcomeStored, res)
	return res
}

func (o *Orchestrator) observeBatch(err error) {
	if o.Observer != nil {
		o.Observer.ObserveBatch(o.Sink.Name(), err)
	}
}

func (o *Orchestrator) observeFile(outcome string, r Result) {
	if o.Observer != nil {
		o.Observer.ObserveFile(o.Sink.Name(), outcome, r.Bytes, r.Duration)
	}
}

func (o *Orchestrator) observeSkipped(n int) {
	if o.Observer == nil {
		return
	}
	for i := 0; i < n; i++ {
		o.Observer.ObserveFile(o.Sink.Name(), OutcomeSkipped, 0, 0)
	}
}
