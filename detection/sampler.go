package detection

import (
	"context"
	"runtime"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
)

// State identifies the phase a detection run is in.
type State int32

const (
	StateIdle State = iota
	StateSampling
	StateMerging
	StateDone
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// sampler walks the configured time schedule, resolving both groups and
// evaluating candidate pairs at each sample.
type sampler struct {
	cfg      *Config
	resolver *scene.Resolver
	workers  int
	logger   golog.Logger

	mu    sync.Mutex
	state State
}

func newSampler(cfg *Config, source scene.Source, workers int, logger golog.Logger) *sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &sampler{
		cfg:      cfg,
		resolver: scene.NewResolver(source, cfg.Strict),
		workers:  workers,
		logger:   logger,
	}
}

func (s *sampler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *sampler) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// run executes every sample in the schedule and folds the results into a fresh
// aggregator. A cancellation observed between samples or pair batches abandons
// the partial aggregate and returns the context's error; no document is
// produced from a cancelled run.
func (s *sampler) run(ctx context.Context, progress func(sampleIndex, totalSamples int, atTime float64)) (*aggregator, error) {
	times := s.cfg.sampleTimes()
	ag := &aggregator{totalSamples: len(times)}

	s.setState(StateSampling)
	for i, t := range times {
		if err := ctx.Err(); err != nil {
			s.setState(StateCancelled)
			return nil, err
		}
		if progress != nil {
			progress(i, len(times), t)
		}
		if err := s.runSample(ctx, t, ag); err != nil {
			if ctx.Err() != nil {
				s.setState(StateCancelled)
				return nil, ctx.Err()
			}
			return nil, err
		}
	}
	s.setState(StateMerging)
	return ag, nil
}

// runSample resolves the scene at one time, builds the spatial index over the
// union of both groups, and pushes every surviving candidate pair through the
// narrow phase.
func (s *sampler) runSample(ctx context.Context, atTime float64, ag *aggregator) error {
	groupA, warnings, err := s.resolver.Resolve(s.cfg.GroupA, atTime)
	if err != nil {
		return err
	}
	ag.addWarnings(warnings)

	var groupB []scene.Proxy
	union := groupA
	if s.cfg.GroupB != "" {
		groupB, warnings, err = s.resolver.Resolve(s.cfg.GroupB, atTime)
		if err != nil {
			return err
		}
		ag.addWarnings(warnings)
		union = make([]scene.Proxy, 0, len(groupA)+len(groupB))
		union = append(union, groupA...)
		union = append(union, groupB...)
	}

	index, err := newSpatialIndex(union, s.cfg.inflation())
	if err != nil {
		return err
	}
	pairs, duplicates, err := generatePairs(groupA, groupB, index, atTime)
	if err != nil {
		return err
	}
	ag.addDuplicates(duplicates)
	s.logger.Debugw("sample candidates", "time", atTime, "pairs", len(pairs), "duplicates", len(duplicates))

	return s.evaluatePairs(ctx, pairs, union, atTime, ag)
}

type pairResult struct {
	record report.Record
	ok     bool
	err    error
}

// evaluatePairs fans the candidate set out over a worker pool and folds the
// records back through a single consumer, so the aggregator is never touched
// concurrently.
func (s *sampler) evaluatePairs(
	ctx context.Context,
	pairs []candidatePair,
	proxies []scene.Proxy,
	atTime float64,
	ag *aggregator,
) error {
	if len(pairs) == 0 {
		return nil
	}
	eval := newEvaluator(s.cfg, proxies)

	workers := s.workers
	if workers > len(pairs) {
		workers = len(pairs)
	}
	jobs := make(chan candidatePair)
	results := make(chan pairResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			for pair := range jobs {
				rec, ok, err := eval.evaluate(pair, atTime)
				select {
				case results <- pairResult{record: rec, ok: ok, err: err}:
				case <-ctx.Done():
					return
				}
			}
		})
	}
	goutils.PanicCapturingGo(func() {
		defer close(jobs)
		for _, pair := range pairs {
			select {
			case jobs <- pair:
			case <-ctx.Done():
				return
			}
		}
	})
	goutils.PanicCapturingGo(func() {
		wg.Wait()
		close(results)
	})

	var evalErr error
	for res := range results {
		if res.err != nil {
			evalErr = multierr.Append(evalErr, res.err)
			continue
		}
		if res.ok {
			ag.addRecord(res.record)
		}
	}
	if evalErr != nil {
		return evalErr
	}
	return ctx.Err()
}
