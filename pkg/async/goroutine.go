package async

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// SafeGo runs fn in a goroutine with a bounded lifetime, panic recovery
// and error logging.
//
// Use this instead of a bare `go func()` for detached side effects whose
// failure must never surface to the caller.
//
// Example:
//
//	async.SafeGo(ctx, 30*time.Second, "review notification", func(ctx context.Context) error {
//	    return notifier.NotifyReviewRequested(ctx, entity, user)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("[async] PANIC in %s: %v\nStack trace:\n%s",
					taskName, r, string(debug.Stack()))
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("[async] Error in %s: %v", taskName, err)
		}
	}()
}

// Batch runs fn over items with at most workers concurrent executions
// and collects the errors. Each item gets its own timeout; a failing or
// panicking item never stops the others.
//
// Example:
//
//	errs := async.Batch(ctx, relations, 4, "plugin relation copy", 10*time.Second,
//	    func(ctx context.Context, rel Relation) error {
//	        return client.CopyRelation(ctx, rel)
//	    })
func Batch[T any](ctx context.Context, items []T, workers int, taskName string, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, workers)

	for _, item := range items {
		item := item
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			itemCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			defer func() {
				if r := recover(); r != nil {
					log.Printf("[async] PANIC in %s: %v\nStack trace:\n%s",
						taskName, r, string(debug.Stack()))
				}
			}()

			if err := fn(itemCtx, item); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
