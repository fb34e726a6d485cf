package modinject

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestCloser struct {
	name   string
	closed bool
	err    error
	order  *[]string
	mu     sync.Mutex
}

func (tc *TestCloser) Close() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.closed = true
	if tc.order != nil {
		*tc.order = append(*tc.order, tc.name)
	}
	return tc.err
}

func (tc *TestCloser) IsClosed() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.closed
}

type storeCloser struct {
	TestCloser
}

type cacheCloser struct {
	TestCloser
}

func TestClose_NewestFirst(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	var order []string
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *storeCloser {
			return &storeCloser{TestCloser{name: "store", order: &order}}
		}),
		Provide(func(st *storeCloser) *cacheCloser {
			return &cacheCloser{TestCloser{name: "cache", order: &order}}
		}),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))
	cache := Get[*cacheCloser](ctx, c)
	assert.False(t, cache.IsClosed())

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"cache", "store"}, order)
	assert.True(t, c.Closed())

	// A second close is a no-op.
	require.NoError(t, c.Close())
	assert.Len(t, order, 2)
}

func TestClose_CombinesErrors(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	err1 := errors.New("store failed")
	err2 := errors.New("cache failed")
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *storeCloser { return &storeCloser{TestCloser{err: err1}} }),
		Provide(func() *cacheCloser { return &cacheCloser{TestCloser{err: err2}} }),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](),
		WithStore(s),
		Immediate(TypeOf[*storeCloser](), TypeOf[*cacheCloser]()),
	)

	err := c.Close()
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
}

func TestClose_LookupsFail(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *testWidget { return &testWidget{} }),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))
	Get[*testWidget](ctx, c)
	require.NoError(t, c.Close())

	_, err := GetWithError[*testWidget](ctx, c)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCustomCleanupFunction(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	type customResource struct {
		cleaned bool
	}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *customResource { return &customResource{} }),
		Provide(func() *storeCloser { return &storeCloser{} }),
	)

	cleanupCalls := 0
	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](),
		WithStore(s),
		WithCleanupFunc(func(r *customResource) {
			cleanupCalls++
			r.cleaned = true
		}),
		WithCleanupFunc(func(*storeCloser) {
			cleanupCalls++
		}),
	)

	resource := Get[*customResource](ctx, c)
	closer := Get[*storeCloser](ctx, c)
	require.NoError(t, c.Close())

	assert.True(t, resource.cleaned)
	assert.Equal(t, 2, cleanupCalls)
	// The cleanup function replaces Close.
	assert.False(t, closer.IsClosed())
}

func TestCloseOnDone(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *storeCloser { return &storeCloser{} }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s), WithCloseOnDone())
	closer := Get[*storeCloser](ctx, c)

	cancel()
	assert.Eventually(t, closer.IsClosed, time.Second, 10*time.Millisecond)
	assert.Eventually(t, c.Closed, time.Second, 10*time.Millisecond)
}

func TestNoCloseWithoutOption(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *storeCloser { return &storeCloser{} }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))
	closer := Get[*storeCloser](ctx, c)

	cancel()
	time.Sleep(50 * time.Millisecond)
	assert.False(t, closer.IsClosed())
	assert.False(t, c.Closed())
}

func TestCloseOnDone_ExplicitCloseStopsWatch(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *storeCloser { return &storeCloser{} }),
	)

	cleanups := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := MustNewContainer(ctx, TypeOf[rootModule](),
		WithStore(s),
		WithCloseOnDone(),
		WithCleanupFunc(func(*storeCloser) { cleanups++ }),
	)
	Get[*storeCloser](ctx, c)

	require.NoError(t, c.Close())
	select {
	case <-c.done:
	default:
		t.Fatal("close should release the context watch")
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, cleanups)
}
