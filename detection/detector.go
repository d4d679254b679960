package detection

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	goutils "go.viam.com/utils"

	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
)

// Detector executes clash queries against a scene source.
type Detector struct {
	source  scene.Source
	cfg     *Config
	logger  golog.Logger
	clock   clock.Clock
	workers int
}

// Option configures a Detector beyond its required arguments.
type Option func(*Detector)

// WithClock substitutes the wall clock used to timestamp documents.
func WithClock(c clock.Clock) Option {
	return func(d *Detector) { d.clock = c }
}

// WithWorkers caps the narrow-phase worker pool. Zero or negative means one
// worker per available CPU.
func WithWorkers(n int) Option {
	return func(d *Detector) { d.workers = n }
}

// NewDetector validates the config and returns a detector ready to run. The
// same detector may run multiple times; each run samples the source afresh.
func NewDetector(source scene.Source, cfg *Config, logger golog.Logger, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		source: source,
		cfg:    cfg,
		logger: logger,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run executes the query to completion and returns the finished document.
// If ctx is cancelled mid-run, partial results are discarded and the
// context's error is returned.
func (d *Detector) Run(ctx context.Context) (*report.Document, error) {
	s := newSampler(d.cfg, d.source, d.workers, d.logger)
	return d.run(ctx, s, nil)
}

func (d *Detector) run(
	ctx context.Context,
	s *sampler,
	progress func(sampleIndex, totalSamples int, atTime float64),
) (*report.Document, error) {
	ag, err := s.run(ctx, progress)
	if err != nil {
		return nil, err
	}
	doc := ag.finalize(d.cfg, uuid.New().String(), d.clock.Now().UTC())
	s.setState(StateDone)
	d.logger.Info(doc.Summary())
	return doc, nil
}

// Progress reports the position of a run within its sampling schedule.
type Progress struct {
	SampleIndex  int
	TotalSamples int
	Time         float64
}

// Outcome is the terminal result of an asynchronous run. Exactly one of
// Document, Err, or Cancelled is meaningful.
type Outcome struct {
	Document  *report.Document
	Err       error
	Cancelled bool
}

// Handle tracks an in-flight asynchronous run.
type Handle struct {
	progress chan Progress
	done     chan struct{}
	outcome  Outcome
	state    func() State
}

// Progress returns a channel of sampling updates. Updates are dropped rather
// than block a run; the channel closes when the run ends.
func (h *Handle) Progress() <-chan Progress {
	return h.progress
}

// State reports the phase the run is currently in. It is safe to call from any
// goroutine while the run is in flight.
func (h *Handle) State() State {
	return h.state()
}

// Wait blocks until the run ends and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.outcome
}

// RunAsync starts the query in the background. Cancel ctx to abandon the run;
// the handle's outcome then reports Cancelled with no document.
func (d *Detector) RunAsync(ctx context.Context) *Handle {
	s := newSampler(d.cfg, d.source, d.workers, d.logger)
	h := &Handle{
		progress: make(chan Progress, 1),
		done:     make(chan struct{}),
		state:    s.currentState,
	}
	goutils.PanicCapturingGo(func() {
		defer close(h.done)
		defer close(h.progress)
		doc, err := d.run(ctx, s, func(sampleIndex, totalSamples int, atTime float64) {
			update := Progress{SampleIndex: sampleIndex, TotalSamples: totalSamples, Time: atTime}
			select {
			case h.progress <- update:
			default:
			}
		})
		switch {
		case err == nil:
			h.outcome = Outcome{Document: doc}
		case ctx.Err() != nil:
			h.outcome = Outcome{Cancelled: true}
		default:
			h.outcome = Outcome{Err: err}
		}
	})
	return h
}
