package modinject

import (
	"context"
	"reflect"

	"github.com/gburgyan/go-timing"
)

// Immediate makes NewContainer resolve the given providers from the root module while it
// bootstraps, instead of on first lookup. A failure fails NewContainer.
func Immediate(types ...reflect.Type) ContainerOption {
	return func(c *Container) {
		c.immediate = append(c.immediate, types...)
	}
}

// resolveImmediateDependencies constructs every provider listed with Immediate, in order.
func (c *Container) resolveImmediateDependencies(ctx context.Context) error {
	if len(c.immediate) == 0 {
		return nil
	}
	if c.timing != TimingDisable {
		timingCtx, complete := timing.Start(ctx, "modinject:immediate")
		defer complete()
		ctx = timingCtx
	}
	for _, t := range c.immediate {
		if _, err := c.Get(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
