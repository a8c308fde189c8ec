package cfgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ignirtoq/conflagrate-go/cfgraph/emit"
)

// CompiledGraph is a Graph IR lowered to an ExecutionPlan and bound to a
// Registry, ready to drive against caller-supplied input.
type CompiledGraph struct {
	plan         *ExecutionPlan
	registry     *Registry
	cfg          *config
	blockingPool *BlockingPool
}

// Compile parses dotSource, lowers it against registry, and returns a
// CompiledGraph ready to Run. Options tune the per-run behavior (blocking
// pool size, dependency providers, tracing, metrics, emitter).
func Compile(dotSource []byte, registry *Registry, opts ...Option) (*CompiledGraph, error) {
	ir, err := FromDOT(dotSource)
	if err != nil {
		return nil, err
	}
	plan, err := Lower(ir, registry)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &CompiledGraph{
		plan:         plan,
		registry:     registry,
		cfg:          cfg,
		blockingPool: NewBlockingPool(cfg.blockingWorkers),
	}, nil
}

// Source returns the original DOT text this graph was compiled from.
func (cg *CompiledGraph) Source() string {
	return cg.plan.Source
}

// Name returns the compiled graph's DOT graph id.
func (cg *CompiledGraph) Name() string {
	return cg.plan.Name
}

// Metrics returns the RunMetrics collector configured via WithMetrics, or
// nil if none was configured.
func (cg *CompiledGraph) Metrics() *RunMetrics {
	return cg.cfg.metrics
}

// Run drives the graph from its start task with firstArgs as the initial
// input, using a background context and a fresh DependencyCache built from
// the providers configured via WithDependencyProviders.
func (cg *CompiledGraph) Run(firstArgs any) (any, error) {
	cacheOpts := []func(*DependencyCache){}
	if cg.cfg.exactlyOnce {
		cacheOpts = append(cacheOpts, ExactlyOnce())
	}
	cache := NewDependencyCacheWithOptions(cg.cfg.registry, cacheOpts...)
	defer func() { _ = cache.Close() }()
	return cg.RunGraph(context.Background(), firstArgs, cache)
}

// RunGraph drives the graph from its start task with firstArgs, sharing
// cache across every task in the run so dependency providers run at most
// once per run (subject to the cache's own race semantics). If ctx is done
// before a result arrives, RunGraph returns ctx.Err(); tasks already running
// are not stopped.
func (cg *CompiledGraph) RunGraph(ctx context.Context, firstArgs any, cache *DependencyCache) (any, error) {
	runID := uuid.NewString()
	resultCh, tracker := NewBranchTracker[branchOutcome]()

	cg.cfg.emitter.Emit(emit.Event{RunID: runID, Msg: "run_start"})

	go cg.runTask(ctx, runID, cg.plan.Start, firstArgs, cache, tracker)

	var outcome branchOutcome
	select {
	case o, ok := <-resultCh:
		if !ok {
			return nil, &RecvClosedError{}
		}
		outcome = o
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cg.cfg.emitter.Emit(emit.Event{RunID: runID, Msg: "run_complete", Meta: map[string]interface{}{
		"error": errString(outcome.err),
	}})

	return outcome.value, outcome.err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// branchOutcome is the value type carried through the BranchTracker: either
// a final output value, or the error that aborted this branch.
type branchOutcome struct {
	value any
	err   error
}

// runTask executes one fused task's node-type chain to completion, then
// dispatches to zero or more successor tasks per the task's SpawnPolicy.
// It always resolves exactly one AddBranch/RemoveBranch pair registered for
// this call, whether by the caller (the initial branch) or by the spawn
// site that launched this goroutine.
func (cg *CompiledGraph) runTask(ctx context.Context, runID, taskID string, input any, cache *DependencyCache, tracker *BranchTracker[branchOutcome]) {
	task, ok := cg.plan.Tasks[taskID]
	if !ok {
		tracker.RemoveBranch(branchOutcome{err: &SchemaError{Code: "DANGLING_SUCCESSOR", NodeID: taskID, Message: "task not found in compiled plan"}})
		return
	}

	ctx, span := cg.cfg.tracer.Start(ctx, taskID)
	span.SetAttributes(attribute.String("cfgraph.run_id", runID), attribute.StringSlice("cfgraph.chain", task.Chain))
	defer span.End()

	start := time.Now()
	cg.cfg.emitter.Emit(emit.Event{RunID: runID, TaskID: taskID, Msg: "task_start"})
	if cg.cfg.metrics != nil {
		cg.cfg.metrics.IncInflightTasks(1)
	}

	out, err := cg.runChain(ctx, runID, task, input, cache)

	if cg.cfg.metrics != nil {
		cg.cfg.metrics.IncInflightTasks(-1)
		status := "success"
		if err != nil {
			status = "error"
		}
		cg.cfg.metrics.RecordTaskLatency(taskID, time.Since(start), status)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		cg.cfg.emitter.Emit(emit.Event{RunID: runID, TaskID: taskID, Msg: "task_error", Meta: map[string]interface{}{"error": err.Error()}})
		tracker.RemoveBranch(branchOutcome{err: err})
		return
	}
	cg.cfg.emitter.Emit(emit.Event{RunID: runID, TaskID: taskID, Msg: "task_end", Meta: map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	}})

	cg.dispatch(ctx, runID, task, out, cache, tracker)
}

// runChain executes task.Chain's node-type bodies back to back, feeding
// each one's output as the next one's input, recovering any panic as a
// TaskPanicError so a misbehaving node body cannot leave the run hanging.
func (cg *CompiledGraph) runChain(ctx context.Context, runID string, task *Task, input any, cache *DependencyCache) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{NodeID: task.ID, Recovered: r}
		}
	}()

	cur := input
	for i, name := range task.Chain {
		nodeType, _, lookupErr := cg.registry.lookup(name)
		if lookupErr != nil {
			return nil, &NodeTypeMissingError{NodeID: task.ID, NodeTypeName: name}
		}

		if task.Blocking[i] {
			cur, err = cg.blockingPool.Run(ctx, func() (any, error) {
				return nodeType(ctx, cur, cache)
			})
			if bp, ok := err.(*BlockingPanicError); ok {
				return nil, &TaskPanicError{NodeID: task.ID, Recovered: bp.Recovered}
			}
		} else {
			cur, err = nodeType(ctx, cur, cache)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// dispatch routes a completed task's output to its successors according to
// its SpawnPolicy. A task with no live successor is terminating and resolves
// its own branch slot with the real output. A task with one or more live
// successors never calls RemoveBranch itself: the first successor inherits
// this call's own branch slot (no AddBranch for it either), and only
// subsequent successors get a freshly added slot. The parent's branch is
// carried forward by the first spawned successor rather than terminated and
// replaced with an empty placeholder outcome, which would otherwise be
// eligible to win the last-branch-wins race with a nil result.
func (cg *CompiledGraph) dispatch(ctx context.Context, runID string, task *Task, out any, cache *DependencyCache, tracker *BranchTracker[branchOutcome]) {
	switch task.Policy {
	case SpawnParallel:
		if len(task.ParallelSuccessors) == 0 {
			tracker.RemoveBranch(branchOutcome{value: out})
			return
		}
		cg.spawnAll(ctx, runID, task.Policy, task.ParallelSuccessors, out, cache, tracker)

	case SpawnMatch:
		mo, ok := out.(matchOutput)
		if !ok {
			tracker.RemoveBranch(branchOutcome{err: fmt.Errorf("task %q: matcher node output does not implement the Match payload", task.ID)})
			return
		}
		dest, hasDest := task.MatchSuccessors[mo.matchKey()]
		if !hasDest {
			dest, hasDest = task.MatchSuccessors[defaultMatchValue]
		}
		if !hasDest {
			tracker.RemoveBranch(branchOutcome{value: mo.matchValue()})
			return
		}
		cg.spawnAll(ctx, runID, task.Policy, []string{dest}, mo.matchValue(), cache, tracker)

	case SpawnResultMatch:
		ro, ok := out.(resultOutput)
		if !ok {
			tracker.RemoveBranch(branchOutcome{err: fmt.Errorf("task %q: resultmatcher node output does not implement the Result payload", task.ID)})
			return
		}
		var successors []string
		var payload any
		if ro.isResultErr() {
			successors, payload = task.ErrSuccessors, ro.errValue()
		} else {
			successors, payload = task.OKSuccessors, ro.okValue()
		}
		if len(successors) == 0 {
			tracker.RemoveBranch(branchOutcome{value: payload})
			return
		}
		cg.spawnAll(ctx, runID, task.Policy, successors, payload, cache, tracker)

	default: // SpawnNone
		tracker.RemoveBranch(branchOutcome{value: out})
	}
}

// spawnAll launches one goroutine per successor, all receiving the same
// payload. The first successor inherits the caller's own branch slot (no
// AddBranch call for it); every successor after it is given a freshly added
// slot, so the live-branch count grows by len(successors)-1 overall. The
// caller must not itself call RemoveBranch after this returns.
func (cg *CompiledGraph) spawnAll(ctx context.Context, runID string, policy SpawnPolicy, successors []string, payload any, cache *DependencyCache, tracker *BranchTracker[branchOutcome]) {
	for i, dest := range successors {
		if i > 0 {
			tracker.AddBranch()
		}
		go cg.runTask(ctx, runID, dest, payload, cache, tracker)
	}
	if cg.cfg.metrics != nil {
		cg.cfg.metrics.RecordBranchSpawn(policy, len(successors))
	}
}
