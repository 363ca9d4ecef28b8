package syncer

import (
	"context"
	"sync"
)

// fetchAllByID executes fetch concurrently across ids using a bounded worker
// pool. Results keep the order of ids. The first error cancels the rest.
func fetchAllByID[T any](
	ctx context.Context,
	ids []string,
	workers int,
	fetch func(context.Context, string) (T, error),
) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	out := make([]T, len(ids))

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			if ctx.Err() != nil {
				return
			}
			v, err := fetch(ctx, ids[idx])
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
				return
			}
			out[idx] = v
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	go func() {
		defer close(jobs)
		for idx := range ids {
			select {
			case <-ctx.Done():
				return
			case jobs <- idx:
			}
		}
	}()

	wg.Wait()

	errMu.Lock()
	err := firstErr
	errMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
