package modinject

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container is the resolved form of a root module. It hands out one instance per provider
// and scope: per declaring module for ordinary providers, per container for global ones.
//
// A Container is safe for concurrent use. Two goroutines racing to construct the same
// provider may both run its constructor; the first to finish wins and both receive its
// instance.
type Container struct {
	id         string
	store      *Store
	graph      *moduleGraph
	logger     *zap.Logger
	timing     TimingMode
	metrics    *Metrics
	verify     bool
	overrides  map[reflect.Type]any
	immediate  []reflect.Type
	validators []*validatorWrapper

	instances sync.Map // map[scopeKey]any
	closed    atomic.Bool

	closeOnDone bool
	cleanups    map[reflect.Type]func(any)
	done        chan struct{}

	constructedLock sync.Mutex
	constructed     []constructedInstance
}

// NewContainer builds the module graph rooted at root and returns a container for it.
// Providers are constructed lazily unless listed with Immediate.
//
// It fails with ErrInvalidModule if root, or anything it imports, is not a declared module.
func NewContainer(ctx context.Context, root reflect.Type, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		id:        uuid.NewString(),
		store:     DefaultStore,
		logger:    zap.NewNop(),
		timing:    EnableTiming,
		overrides: map[reflect.Type]any{},
		cleanups:  map[reflect.Type]func(any){},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("container", c.id))

	graph, err := buildGraph(c.store, root, c.logger)
	if err != nil {
		c.metrics.failed(err)
		return nil, err
	}
	c.graph = graph
	c.logger.Debug("module graph built",
		zap.Stringer("root", root),
		zap.Int("modules", len(graph.order)),
		zap.Int("globals", len(graph.globals)))

	if c.verify {
		if err := c.Verify(); err != nil {
			return nil, err
		}
	}
	if err := c.resolveImmediateDependencies(ctx); err != nil {
		return nil, err
	}
	if err := c.runValidators(ctx); err != nil {
		return nil, err
	}
	if c.closeOnDone {
		c.closeWhenDone(ctx)
	}
	return c, nil
}

// MustNewContainer is NewContainer that panics on error.
func MustNewContainer(ctx context.Context, root reflect.Type, opts ...ContainerOption) *Container {
	c, err := NewContainer(ctx, root, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the instance of t as seen from the root module. Repeated calls return the
// same instance.
func (c *Container) Get(ctx context.Context, t reflect.Type) (any, error) {
	v, err := c.resolveFrom(ctx, c.graph.root, t)
	if err != nil {
		c.metrics.failed(err)
		c.logger.Debug("lookup failed", zap.Stringer("provider", t), zap.Error(err))
		return nil, err
	}
	return v, nil
}

// ID is a random identifier for the container, included in its log lines.
func (c *Container) ID() string {
	return c.id
}

// Root returns the root module type.
func (c *Container) Root() reflect.Type {
	return c.graph.root.md.Type
}
