package concurrent

import (
	"context"
	"errors"
	"sync"
)

// ForEach runs fn for every item in its own goroutine and waits for all
// of them. All errors are joined; a failing item never stops the others.
func ForEach[T any](items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, item := range items {
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			if err := fn(item); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(item)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// ForEachWithContext is ForEach with cancellation: once ctx is done,
// items that have not started yet report ctx.Err() instead of running.
func ForEachWithContext[T any](ctx context.Context, items []T, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			if ctx.Err() != nil {
				record(ctx.Err())
				return
			}
			if err := fn(ctx, item); err != nil {
				record(err)
			}
		}(item)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Map runs fn for every item concurrently and returns the results in
// input order. Results of failed items are the zero value.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			r, err := fn(ctx, item)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			results[i] = r
		}(i, item)
	}

	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}
