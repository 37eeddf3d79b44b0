package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

var errStageTimeout = fmt.Errorf("stage timed out: %w", context.DeadlineExceeded)

type outcome[T any] struct {
	index int
	value T
	err   error
}

// fanOut runs fn for indices 0..n-1 with at most limit in flight and returns
// one outcome per index. Tasks never fail the group; their errors are carried
// in the outcome. When the stage deadline passes, every unsettled index gets
// errStageTimeout and any later result is dropped.
func fanOut[T any](ctx context.Context, timeout time.Duration, limit, n int, fn func(ctx context.Context, i int) (T, error)) []outcome[T] {
	if n == 0 {
		return make([]outcome[T], 0)
	}

	stageCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	ch := make(chan outcome[T], n)
	g, gctx := errgroup.WithContext(stageCtx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	go func() {
		for i := 0; i < n; i++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				v, err := fn(gctx, i)
				ch <- outcome[T]{index: i, value: v, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return collect(ch, stageCtx.Done(), n)
}

// collect gathers n outcomes until done closes. Outcomes already buffered
// when done fires still count; only indices with nothing buffered become
// errStageTimeout.
func collect[T any](ch <-chan outcome[T], done <-chan struct{}, n int) []outcome[T] {
	results := make([]outcome[T], n)
	settled := make([]bool, n)
	record := func(o outcome[T]) {
		results[o.index] = o
		settled[o.index] = true
	}
	for remaining := n; remaining > 0; remaining-- {
		select {
		case o := <-ch:
			record(o)
		case <-done:
			for drained := false; !drained; {
				select {
				case o := <-ch:
					record(o)
				default:
					drained = true
				}
			}
			for i := range results {
				if !settled[i] {
					results[i] = outcome[T]{index: i, err: errStageTimeout}
				}
			}
			return results
		}
	}
	return results
}
