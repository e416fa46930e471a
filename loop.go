package hal

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run calls step every period until a termination signal arrives, ctx is
// done, or step returns an error. A nil ctx is treated as
// context.Background. step never runs if ctx is already done. Run does not
// close the component.
func (c *Component[R]) Run(ctx context.Context, period time.Duration, step func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if period <= 0 {
		period = time.Millisecond
	}

	if c.State() == StateExited {
		return &ComponentError{Component: c.name, Op: "run", Err: ErrComponentClosed}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if c.ShouldExit() {
			c.log.Debug("termination requested", zap.String("component", c.name))
			return nil
		}

		start := time.Now()
		err := step()
		recordLoop(time.Since(start))
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
