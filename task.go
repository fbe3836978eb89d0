package filecrypt

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a transform running in its own goroutine. The goroutine yields
// to the scheduler before every chunk it reads.
type Task[T any] struct {
	group  *errgroup.Group
	cancel context.CancelCauseFunc
	done   chan struct{}
	result T
	err    error
}

// startTask runs fn on a new goroutine. The context handed to fn is
// cancelled by ctx, by Cancel, or once fn returns.
func startTask[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancelCause(ctx)
	group, gctx := errgroup.WithContext(ctx)

	t := &Task[T]{group: group, cancel: cancel, done: make(chan struct{})}
	group.Go(func() error {
		defer close(t.done)
		t.result, t.err = fn(gctx)
		t.cancel(nil)
		return t.err
	})
	return t
}

// Cancel asks the task to stop. The task fails with a *CancellationError
// whose cause is cause, or context.Canceled when cause is nil. It has no
// effect once the task has finished.
func (t *Task[T]) Cancel(cause error) {
	t.cancel(cause)
}

// Done is closed when the task has finished
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its outcome
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}

// Err returns the task's error, or nil while it is still running
func (t *Task[T]) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
