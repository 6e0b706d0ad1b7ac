package newslate

import (
	"context"
	"sync"
)

// fieldResult is the settled outcome of one fan-out branch.
type fieldResult struct {
	value string
	err   error
}

// translateParallel runs fn for every item concurrently and returns the
// results in item order once all branches have settled. A failing branch
// never affects the others.
//
// Branches run on a context detached from ctx's cancellation: a caller that
// gives up early still lets the upstream calls finish and populate the
// cache. In that case translateParallel returns ctx.Err() without results.
func translateParallel[T any](ctx context.Context, items []T, fn func(context.Context, T) (string, error)) ([]fieldResult, error) {
	results := make([]fieldResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			value, err := fn(detached, item)
			results[i] = fieldResult{value: value, err: err}
		}(i, item)
	}

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	select {
	case <-settled:
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
