package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrUnitClosed = errors.New("unit of work already finished")

// Step is an action registered with a UnitOfWork.
type Step func(ctx context.Context) error

type compensation struct {
	name string
	undo Step
}

// UnitOfWork groups the side effects of one business operation.
//
// Each step that took effect registers its compensation with Defer. Rollback runs them in
// reverse order; Commit discards them and runs the AfterCommit hooks instead.
type UnitOfWork struct {
	mu            sync.Mutex
	compensations []compensation
	afterCommit   []Step
	done          bool
	committed     bool
}

// Begin opens a unit of work.
func Begin() *UnitOfWork {
	return &UnitOfWork{}
}

// Defer registers undo to run if the unit is rolled back.
func (u *UnitOfWork) Defer(name string, undo Step) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return
	}
	u.compensations = append(u.compensations, compensation{name: name, undo: undo})
}

// AfterCommit registers hook to run once Commit succeeds.
func (u *UnitOfWork) AfterCommit(hook Step) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return
	}
	u.afterCommit = append(u.afterCommit, hook)
}

// Commit finishes the unit and runs the after-commit hooks in registration order.
// Hook failures are joined and returned; the unit stays committed.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	u.done, u.committed = true, true
	hooks := u.afterCommit
	u.compensations, u.afterCommit = nil, nil
	u.mu.Unlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rollback runs every compensation in reverse order, even when the caller's context is done.
// It is a no-op after Commit or a previous Rollback.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return nil
	}
	u.done = true
	comps := u.compensations
	u.compensations, u.afterCommit = nil, nil
	u.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(comps) - 1; i >= 0; i-- {
		if err := comps[i].undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", comps[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Committed reports whether Commit was called.
func (u *UnitOfWork) Committed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.committed
}
