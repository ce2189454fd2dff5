package usecase

import "context"

// Background runs a task after the response has been constructed. The worker
// pool implements it in production; tests substitute a synchronous runner.
// Submitting never blocks the caller.
type Background interface {
	Submit(task func(ctx context.Context) error) error
}

// SyncRunner executes tasks inline. Used by tests and by the legacy adapter's
// degenerate paths where ordering matters.
type SyncRunner struct{}

func (SyncRunner) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}
