package ui

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// WithSpinner runs fn while a spinner shows title. The spinner stops when ctx
// is cancelled; fn receives the same ctx. In CI fn runs without a spinner.
func WithSpinner(ctx context.Context, title string, fn func(context.Context) error) error {
	if IsCI() {
		return fn(ctx)
	}
	return spin(ctx, func(action func()) error {
		return spinner.New().
			Context(ctx).
			Title(title).
			Action(action).
			Run()
	}, fn)
}

// spin hands fn to run as its action. run may return before the action
// finishes when ctx is cancelled; fn's result then arrives on a channel
// nobody reads.
func spin(ctx context.Context, run func(action func()) error, fn func(context.Context) error) error {
	done := make(chan error, 1)
	runErr := run(func() { done <- fn(ctx) })

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		return runErr
	default:
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if runErr != nil {
		return runErr
	}
	return <-done
}
