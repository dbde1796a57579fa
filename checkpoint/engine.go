package checkpoint

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/wudi/tagkit/observability"
)

// Evaluator is one Matterhorn checkpoint. Evaluate must be pure: no
// mutation of the input, no shared state, no dependence on other
// evaluators' output, so the engine may run the set in any order or in
// parallel.
type Evaluator interface {
	// Group returns the two-digit checkpoint group, "01".."31".
	Group() string
	Evaluate(in *Input) []Finding
}

// EngineBuilder configures an Engine.
type EngineBuilder struct {
	evaluators []Evaluator
	workers    int
	log        observability.Logger
	tracer     observability.Tracer
}

func (b *EngineBuilder) WithEvaluators(evals ...Evaluator) *EngineBuilder {
	b.evaluators = evals
	return b
}

func (b *EngineBuilder) WithWorkers(n int) *EngineBuilder {
	b.workers = n
	return b
}

func (b *EngineBuilder) WithLogger(log observability.Logger) *EngineBuilder {
	b.log = log
	return b
}

func (b *EngineBuilder) WithTracer(tr observability.Tracer) *EngineBuilder {
	b.tracer = tr
	return b
}

// Build assembles the engine; missing options fall back to the full
// default registry, one worker per CPU and nop observability.
func (b *EngineBuilder) Build() (*Engine, error) {
	evals := b.evaluators
	if evals == nil {
		evals = DefaultEvaluators()
	}
	seen := make(map[string]bool, len(evals))
	for _, e := range evals {
		if seen[e.Group()] {
			return nil, fmt.Errorf("checkpoint: duplicate evaluator for group %s", e.Group())
		}
		seen[e.Group()] = true
	}
	workers := b.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := b.log
	if log == nil {
		log = observability.NopLogger{}
	}
	tracer := b.tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	return &Engine{evaluators: evals, workers: workers, log: log, tracer: tracer}, nil
}

// Engine runs the checkpoint set and merges the findings
// deterministically.
type Engine struct {
	evaluators []Evaluator
	workers    int
	log        observability.Logger
	tracer     observability.Tracer
}

// NewEngine returns an engine with the full default registry.
func NewEngine() *Engine {
	e, err := (&EngineBuilder{}).Build()
	if err != nil {
		panic(err) // default registry is statically duplicate-free
	}
	return e
}

// Run evaluates every checkpoint against in. Evaluators are dispatched
// across a worker pool; cancellation is honored between evaluator
// invocations. The result is sorted by clause id, then pre-order
// position, so identical input always yields an identical list.
func (e *Engine) Run(ctx context.Context, in *Input) ([]Finding, error) {
	ctx, span := e.tracer.StartSpan(ctx, "checkpoint.run")
	defer span.Finish()
	start := time.Now()

	jobs := make(chan Evaluator)
	results := make([]([]Finding), len(e.evaluators))
	index := make(map[string]int, len(e.evaluators))
	for i, ev := range e.evaluators {
		index[ev.Group()] = i
	}

	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(e.evaluators) {
		workers = len(e.evaluators)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range jobs {
				results[index[ev.Group()]] = ev.Evaluate(in)
			}
		}()
	}

	var runErr error
feed:
	for _, ev := range e.evaluators {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		case jobs <- ev:
		}
	}
	close(jobs)
	wg.Wait()

	if runErr != nil {
		span.SetError(runErr)
		return nil, runErr
	}

	var findings []Finding
	for _, fs := range results {
		findings = append(findings, fs...)
	}
	Sort(findings, in.Pos)

	e.log.Debug("checkpoint pass complete",
		observability.Int(observability.MetricFindingCount, len(findings)),
		observability.Int64(observability.MetricAnalyzeTime, time.Since(start).Milliseconds()))
	return findings, nil
}

// Groups returns the registered checkpoint groups in ascending order.
func (e *Engine) Groups() []string {
	out := make([]string, len(e.evaluators))
	for i, ev := range e.evaluators {
		out[i] = ev.Group()
	}
	sort.Strings(out)
	return out
}
