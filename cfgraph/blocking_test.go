package cfgraph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBlockingPoolBoundsConcurrency(t *testing.T) {
	pool := NewBlockingPool(2)
	var inflight, maxInflight int32

	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = pool.Run(context.Background(), func() (any, error) {
				cur := atomic.AddInt32(&inflight, 1)
				for {
					max := atomic.LoadInt32(&maxInflight)
					if cur <= max || atomic.CompareAndSwapInt32(&maxInflight, max, cur) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&inflight, -1)
				return nil, nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	if maxInflight > 2 {
		t.Fatalf("expected at most 2 concurrent blocking calls, saw %d", maxInflight)
	}
}

func TestBlockingPoolRespectsContextCancellation(t *testing.T) {
	pool := NewBlockingPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocker := make(chan struct{})
	acquired := make(chan struct{})
	go func() {
		_, _ = pool.Run(context.Background(), func() (any, error) {
			close(acquired)
			<-blocker
			return nil, nil
		})
	}()
	<-acquired

	_, err := pool.Run(ctx, func() (any, error) { return nil, nil })
	close(blocker)
	if err == nil {
		t.Fatalf("expected context cancellation error while waiting for a pool slot")
	}
}

func TestBlockingPoolRecoversWorkerPanic(t *testing.T) {
	pool := NewBlockingPool(1)
	_, err := pool.Run(context.Background(), func() (any, error) {
		panic("kaboom")
	})
	if err == nil {
		t.Fatalf("expected a recovered panic error")
	}
	var panicErr *BlockingPanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected *BlockingPanicError, got %T: %v", err, err)
	}
	if panicErr.Recovered != "kaboom" {
		t.Fatalf("unexpected recovered value: %v", panicErr.Recovered)
	}
}
