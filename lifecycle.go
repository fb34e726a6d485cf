package modinject

import (
	"context"
	"io"
	"reflect"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CleanupFunc releases an instance of type T when its container closes.
type CleanupFunc[T any] func(T)

// constructedInstance is an instance the container built, tagged with the provider type it
// was built for.
type constructedInstance struct {
	target reflect.Type
	value  any
}

// WithCleanupFunc registers cleanup for instances of provider type T. It is called instead
// of Close for instances that also implement io.Closer.
func WithCleanupFunc[T any](cleanup CleanupFunc[T]) ContainerOption {
	t := TypeOf[T]()
	return func(c *Container) {
		c.cleanups[t] = func(v any) {
			cleanup(v.(T))
		}
	}
}

// WithCloseOnDone closes the container once the context passed to NewContainer is done. An
// explicit Close stops the watch.
func WithCloseOnDone() ContainerOption {
	return func(c *Container) {
		c.closeOnDone = true
	}
}

func (c *Container) closeWhenDone(ctx context.Context) {
	done := ctx.Done()
	if done == nil {
		return
	}
	go func() {
		select {
		case <-done:
			if err := c.Close(); err != nil {
				c.logger.Warn("closing container on context done", zap.Error(err))
			}
		case <-c.done:
		}
	}()
}

// Close releases every constructed instance, newest first, and makes further lookups fail
// with ErrClosed. Instances with a cleanup function registered for their provider type get
// that function; other instances implementing io.Closer are closed. Close errors are
// combined. Closing more than once does nothing.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.constructedLock.Lock()
	instances := c.constructed
	c.constructed = nil
	c.constructedLock.Unlock()

	var err error
	for i := len(instances) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.release(instances[i]))
	}
	c.logger.Debug("container closed", zap.Int("instances", len(instances)), zap.Error(err))
	return err
}

func (c *Container) release(inst constructedInstance) error {
	if cleanup, ok := c.cleanups[inst.target]; ok {
		cleanup(inst.value)
		return nil
	}
	if closer, ok := inst.value.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *Container) Closed() bool {
	return c.closed.Load()
}

func (c *Container) recordConstructed(target reflect.Type, instance any) {
	c.constructedLock.Lock()
	defer c.constructedLock.Unlock()
	c.constructed = append(c.constructed, constructedInstance{target: target, value: instance})
}
