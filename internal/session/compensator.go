package session

import (
	"context"

	"github.com/para-dev/para/internal/logging"
)

// compensator is a LIFO stack of undo actions for a single mutating
// operation. Formalizes the teacher's scattered defer-based cleanup in
// setup.go's container/session bring-up sequence (spec.md §4.5): every step
// of start/finish/cancel/recover that succeeds pushes its inverse, and
// unwind runs them in reverse order if a later step fails.
type compensator struct {
	undo []func(context.Context) error
}

func (c *compensator) push(undo func(context.Context) error) {
	c.undo = append(c.undo, undo)
}

// unwind runs every pushed undo action in reverse order, logging (but not
// returning) any failure: a failed compensation must not stop the rest of
// the unwind from attempting its own cleanup.
func (c *compensator) unwind(ctx context.Context) {
	for i := len(c.undo) - 1; i >= 0; i-- {
		if err := c.undo[i](ctx); err != nil {
			logging.Error(ctx, "compensation step failed", "error", err)
		}
	}
}
