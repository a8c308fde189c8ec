package cfgraph

import "context"

// BlockingPool bounds how many node-type bodies registered without
// Cooperative() may execute concurrently, the Go-native analogue of tokio's
// spawn_blocking thread pool: inline task goroutines dispatch onto it
// instead of running a blocking body directly, so a graph with many
// parallel branches calling out to, say, a blocking database driver cannot
// spawn unbounded OS threads.
type BlockingPool struct {
	sem chan struct{}
}

// NewBlockingPool returns a pool allowing at most workers blocking calls to
// run at once. workers <= 0 is treated as 1.
func NewBlockingPool(workers int) *BlockingPool {
	if workers <= 0 {
		workers = 1
	}
	return &BlockingPool{sem: make(chan struct{}, workers)}
}

// Run executes fn on its own goroutine once a pool slot is free, blocking
// the caller until fn returns or ctx is canceled first.
func (p *BlockingPool) Run(ctx context.Context, fn func() (any, error)) (any, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	type result struct {
		v   any
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- result{nil, &BlockingPanicError{Recovered: r}}
			}
		}()
		v, err := fn()
		resCh <- result{v, err}
	}()

	select {
	case r := <-resCh:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
