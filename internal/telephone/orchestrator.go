// Package telephone runs translation telephone chains: a text is translated
// through a route of languages and back-translated into its source language
// after every hop.
package telephone

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/telephone/internal/chain"
	"horse.fit/telephone/internal/divergence"
	"horse.fit/telephone/internal/language"
	"horse.fit/telephone/internal/metrics"
	"horse.fit/telephone/internal/translation"
)

var (
	// ErrInternal marks failures that are not caused by the caller or the provider.
	ErrInternal = errors.New("internal error")
	// ErrCancelled is recorded when the context ends or the consumer stops early.
	ErrCancelled = errors.New("run cancelled")
)

// Options configures an Orchestrator.
type Options struct {
	Catalog *language.Catalog
	// Rand drives random route generation. Nil uses the process generator.
	// Every run of the orchestrator draws from it, so overlapping runs need a
	// generator that is safe for concurrent use.
	Rand   chain.Rand
	Logger zerolog.Logger
}

// Orchestrator starts chain runs against one provider.
type Orchestrator struct {
	catalog  *language.Catalog
	provider translation.Provider
	rng      chain.Rand
	logger   zerolog.Logger
}

func New(provider translation.Provider, opts Options) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("translation provider is required")
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = language.Default()
	}
	return &Orchestrator{
		catalog:  catalog,
		provider: provider,
		rng:      opts.Rand,
		logger:   opts.Logger,
	}, nil
}

// Start validates req and prepares a run. No provider call happens until the
// run's events are consumed. Invalid requests fail with *ValidationError.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Run, error) {
	p, err := req.plan(o.catalog)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &Run{
		id:     id,
		ctx:    ctx,
		o:      o,
		plan:   p,
		logger: o.logger.With().Str("run_id", id).Str("provider", o.provider.Name()).Logger(),
	}, nil
}

// Run is one execution of a chain. Its event sequence can be consumed once.
type Run struct {
	id     string
	ctx    context.Context
	o      *Orchestrator
	plan   plan
	logger zerolog.Logger

	consumed atomic.Bool
	state    atomic.Int32
	err      atomic.Pointer[error]
	result   atomic.Pointer[Result]
}

func (r *Run) ID() string { return r.id }

func (r *Run) State() State { return State(r.state.Load()) }

// TotalSteps is the number of hops the run will perform.
func (r *Run) TotalSteps() int { return r.plan.totalSteps() }

// Err returns the failure of a finished run, or nil.
func (r *Run) Err() error {
	if p := r.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Result returns the outcome of a completed run, or nil.
func (r *Run) Result() *Result { return r.result.Load() }

// Events returns the run's event sequence. Iterating starts the run; a second
// iteration yields nothing. Breaking out of the loop or cancelling the context
// stops the run before its next provider call.
func (r *Run) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			return
		}
		r.execute(yield)
	}
}

func (r *Run) execute(yield func(Event) bool) {
	done := metrics.RunStarted()
	total := r.plan.totalSteps()
	provider := r.o.provider
	ctx := r.ctx

	emit := func(ev Event) bool {
		if ctx.Err() != nil {
			return false
		}
		return yield(ev)
	}
	cancelled := func(cause error) {
		err := ErrCancelled
		if cause != nil {
			err = fmt.Errorf("%w: %w", ErrCancelled, cause)
		}
		r.finish(StateFailed, err)
		r.logger.Info().Err(err).Msg("chain run cancelled")
		done(metrics.OutcomeCancelled)
	}
	fail := func(err error) {
		if ctx.Err() != nil {
			cancelled(ctx.Err())
			return
		}
		r.finish(StateFailed, err)
		r.logger.Warn().Err(err).Str("state", StateFailed.String()).Msg("chain run failed")
		done(metrics.OutcomeFailed)
		emit(Event{Type: EventError, TotalSteps: total, Err: err})
	}

	r.setState(StateResolving)
	start := r.plan.start
	if start == "" {
		detected, err := provider.DetectLanguage(ctx, r.plan.text)
		if err != nil {
			fail(fmt.Errorf("detect source language: %w", err))
			return
		}
		if !r.o.catalog.Contains(detected) {
			fail(fmt.Errorf("%w: detected language %q is not in the catalog", ErrInternal, detected))
			return
		}
		start = detected
		r.logger.Debug().Str("source_language", string(start)).Msg("source language detected")
	}

	route := r.plan.chain
	if len(route) == 0 {
		r.setState(StateChainPending)
		generated, err := chain.Generate(r.o.rng, r.o.catalog, r.plan.randomLength, start)
		if err != nil {
			fail(fmt.Errorf("%w: generate route: %w", ErrInternal, err))
			return
		}
		route = generated
	}
	r.setState(StateChainReady)
	r.logger.Debug().Str("source_language", string(start)).Int("total_steps", total).Msg("route ready")

	r.setState(StateHopping)
	steps := make([]Step, 0, len(route))
	current := r.plan.text
	for i, target := range route {
		if err := ctx.Err(); err != nil {
			cancelled(err)
			return
		}

		forward, err := provider.Translate(ctx, current, target)
		if err != nil {
			fail(fmt.Errorf("hop %d: translate to %s: %w", i+1, target, err))
			return
		}
		back, err := provider.Translate(ctx, forward, start)
		if err != nil {
			fail(fmt.Errorf("hop %d: back-translate to %s: %w", i+1, start, err))
			return
		}

		step := Step{
			Text:            forward,
			Language:        target,
			LanguageName:    r.o.catalog.Name(target),
			Step:            i + 1,
			BackTranslation: back,
			Divergence:      divergence.Score(r.plan.text, back),
		}
		steps = append(steps, step)
		metrics.RecordHop(string(target), step.Divergence)
		r.logger.Debug().Int("step", step.Step).Str("language", string(target)).Int("divergence", step.Divergence).Msg("hop complete")

		current = forward
		emitted := step
		if !emit(Event{Type: EventProgress, CurrentStep: step.Step, TotalSteps: total, Step: &emitted}) {
			cancelled(ctx.Err())
			return
		}
	}

	if len(steps) != total {
		fail(fmt.Errorf("%w: produced %d steps for a %d step route", ErrInternal, len(steps), total))
		return
	}

	result := &Result{
		Original:             r.plan.text,
		OriginalLanguage:     start,
		OriginalLanguageName: r.o.catalog.Name(start),
		Steps:                steps,
		FinalText:            steps[len(steps)-1].BackTranslation,
		TotalSteps:           total,
		DivergencePolicy:     divergence.PolicyVersion,
	}
	r.result.Store(result)
	r.finish(StateCompleted, nil)
	r.logger.Info().
		Str("source_language", string(start)).
		Int("total_steps", total).
		Int("final_divergence", result.FinalDivergence()).
		Msg("chain run completed")
	done(metrics.OutcomeCompleted)

	// Consumers get their own copy of the steps.
	emitted := *result
	emitted.Steps = append([]Step(nil), steps...)
	emit(Event{Type: EventComplete, CurrentStep: total, TotalSteps: total, Result: &emitted})
}

func (r *Run) setState(s State) {
	r.state.Store(int32(s))
}

func (r *Run) finish(s State, err error) {
	if err != nil {
		r.err.Store(&err)
	}
	r.setState(s)
}
