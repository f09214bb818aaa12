package testutil

import (
	"context"
	"sync"
)

// FakeEnqueuer records enqueued activity notifications.
type FakeEnqueuer struct {
	Err error

	mu    sync.Mutex
	users []string
}

func (f *FakeEnqueuer) EnqueueActivityNotification(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.users = append(f.users, userID)
	return nil
}

func (f *FakeEnqueuer) Users() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

// DetachedTask is one function handed to a ManualDetacher.
type DetachedTask struct {
	Name string
	Ctx  context.Context
	Fn   func(context.Context) error
}

// ManualDetacher holds detached work until the test runs it, which makes
// "the response did not wait" observable.
type ManualDetacher struct {
	mu    sync.Mutex
	tasks []DetachedTask
}

func (d *ManualDetacher) Detach(ctx context.Context, name string, fn func(context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, DetachedTask{Name: name, Ctx: context.WithoutCancel(ctx), Fn: fn})
}

func (d *ManualDetacher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

// RunAll runs and clears pending tasks, returning their errors in order.
func (d *ManualDetacher) RunAll() []error {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()

	errs := make([]error, 0, len(tasks))
	for _, task := range tasks {
		errs = append(errs, task.Fn(task.Ctx))
	}
	return errs
}
