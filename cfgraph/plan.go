package cfgraph

// SpawnPolicy mirrors BranchMode at the task level: it tells the driver how
// to turn one task's output into zero or more spawned successor tasks.
type SpawnPolicy int

const (
	SpawnNone SpawnPolicy = iota
	SpawnParallel
	SpawnMatch
	SpawnResultMatch
)

// Task is one executable unit of the lowered plan. A Task runs a chain of
// one or more fused node bodies back to back in a single goroutine before
// consulting its SpawnPolicy, eliminating the goroutine-per-node overhead a
// naive one-task-per-node lowering would pay on long linear runs.
type Task struct {
	// ID is the DOT id of the task's leading node; this is also the name
	// used to look the task up from a successor reference.
	ID string

	// Chain holds the node-type names to run in order, fused from a maximal
	// run of single-successor Parallel nodes starting at ID.
	Chain []string

	// Blocking[i] is true if Chain[i] was registered without Cooperative(),
	// requiring dispatch onto the BlockingPool instead of running inline.
	Blocking []bool

	Policy SpawnPolicy

	ParallelSuccessors []string
	MatchSuccessors    map[string]string
	OKSuccessors       []string
	ErrSuccessors      []string
}

// IsTerminating reports whether this task has no successors, making its
// output a candidate final graph result.
func (t *Task) IsTerminating() bool {
	switch t.Policy {
	case SpawnParallel:
		return len(t.ParallelSuccessors) == 0
	case SpawnMatch:
		return len(t.MatchSuccessors) == 0
	case SpawnResultMatch:
		return len(t.OKSuccessors) == 0 && len(t.ErrSuccessors) == 0
	default:
		return true
	}
}

// ExecutionPlan is a lowered, Registry-checked graph ready to drive.
type ExecutionPlan struct {
	Name   string
	Start  string
	Source string
	Tasks  map[string]*Task
}

// Lower walks ir starting at its start node and fuses maximal chains of
// single-successor Parallel nodes into single Tasks. A chain link n1 -> n2
// fuses only when n1 is Parallel with exactly one successor (n2) and n2 has
// no other incoming edge recorded as a distinct task entry point; since
// every node is a potential successor-reference target from elsewhere in
// the graph, fusion is restricted further to n2 having exactly one
// predecessor overall, computed below as inDegree.
func Lower(ir *Graph, registry *Registry) (*ExecutionPlan, error) {
	if err := ir.Validate(); err != nil {
		return nil, err
	}

	inDegree := computeInDegree(ir)

	plan := &ExecutionPlan{Name: ir.Name, Start: ir.Start, Source: ir.Source, Tasks: map[string]*Task{}}

	visited := map[string]bool{}
	var lowerFrom func(id string) error
	lowerFrom = func(id string) error {
		if visited[id] {
			return nil
		}
		visited[id] = true

		task, nextIDs, err := fuseChain(ir, registry, id, inDegree)
		if err != nil {
			return err
		}
		plan.Tasks[id] = task

		for _, next := range nextIDs {
			if err := lowerFrom(next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := lowerFrom(ir.Start); err != nil {
		return nil, err
	}
	return plan, nil
}

func computeInDegree(ir *Graph) map[string]int {
	deg := map[string]int{}
	for _, n := range ir.Nodes {
		for _, dest := range n.allSuccessors() {
			deg[dest]++
		}
	}
	return deg
}

// fuseChain builds the Task starting at startID, greedily absorbing
// successive single-successor Parallel nodes whose successor has in-degree
// 1 (i.e. is reachable only by continuing this chain, never referenced as a
// branch target from elsewhere). It returns the built Task and the set of
// node ids the caller must still recurse into (the task's eventual
// successors under its terminal node's branch mode).
func fuseChain(ir *Graph, registry *Registry, startID string, inDegree map[string]int) (*Task, []string, error) {
	cur, err := lookupNode(ir, startID)
	if err != nil {
		return nil, nil, err
	}

	task := &Task{ID: startID}
	for {
		nodeType, blocking, err := registry.lookup(cur.NodeTypeName)
		if err != nil {
			return nil, nil, &NodeTypeMissingError{NodeID: cur.ID, NodeTypeName: cur.NodeTypeName}
		}
		_ = nodeType
		task.Chain = append(task.Chain, cur.NodeTypeName)
		task.Blocking = append(task.Blocking, blocking)

		if cur.Branch == Parallel && len(cur.ParallelSuccessors) == 1 {
			nextID := cur.ParallelSuccessors[0]
			if inDegree[nextID] == 1 && nextID != ir.Start {
				next, err := lookupNode(ir, nextID)
				if err != nil {
					return nil, nil, err
				}
				cur = next
				continue
			}
		}
		break
	}

	switch cur.Branch {
	case Parallel:
		task.Policy = SpawnParallel
		task.ParallelSuccessors = cur.ParallelSuccessors
		return task, cur.ParallelSuccessors, nil
	case Matcher:
		task.Policy = SpawnMatch
		task.MatchSuccessors = cur.MatchSuccessors
		next := make([]string, 0, len(cur.MatchSuccessors))
		for _, dest := range cur.MatchSuccessors {
			next = append(next, dest)
		}
		return task, next, nil
	case ResultMatcher:
		task.Policy = SpawnResultMatch
		task.OKSuccessors = cur.OKSuccessors
		task.ErrSuccessors = cur.ErrSuccessors
		next := make([]string, 0, len(cur.OKSuccessors)+len(cur.ErrSuccessors))
		next = append(next, cur.OKSuccessors...)
		next = append(next, cur.ErrSuccessors...)
		return task, next, nil
	default:
		task.Policy = SpawnNone
		return task, nil, nil
	}
}

func lookupNode(ir *Graph, id string) (*NodeRecord, error) {
	n, ok := ir.Nodes[id]
	if !ok {
		return nil, &SchemaError{Code: "DANGLING_SUCCESSOR", NodeID: id, Message: "referenced node does not exist"}
	}
	return n, nil
}
