package modinject

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	text string
}

func suffix(s string) Interceptor {
	return func(ctx context.Context, target any) (any, error) {
		return &greeting{text: target.(*greeting).text + s}, nil
	}
}

func TestInterceptors_Order(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *greeting { return &greeting{text: "raw"} },
			Intercept(suffix("-1"), suffix("-2"))),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))

	g := Get[*greeting](ctx, c)
	assert.Equal(t, "raw-1-2", g.text)
	// The intercepted instance is what gets cached.
	assert.Same(t, g, Get[*greeting](ctx, c))
}

func TestInterceptors_ReceiveContext(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	type key struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *greeting { return &greeting{text: "hello"} },
			Intercept(func(ctx context.Context, target any) (any, error) {
				return &greeting{text: target.(*greeting).text + " " + ctx.Value(key{}).(string)}, nil
			})),
	)

	ctx := context.WithValue(context.Background(), key{}, "world")
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))
	assert.Equal(t, "hello world", Get[*greeting](ctx, c).text)
}

func TestInterceptors_ErrorNotCached(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	expected := errors.New("interceptor failed")
	calls := 0
	fail := true
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *greeting {
			calls++
			return &greeting{text: "raw"}
		}, Intercept(func(ctx context.Context, target any) (any, error) {
			if fail {
				return nil, expected
			}
			return target, nil
		})),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))

	_, err := GetWithError[*greeting](ctx, c)
	// Interceptor errors come back unmodified.
	assert.Equal(t, expected, err)

	fail = false
	g, err := GetWithError[*greeting](ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "raw", g.text)
	assert.Equal(t, 2, calls)
}

func TestInterceptors_InvalidResult(t *testing.T) {
	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() *greeting { return &greeting{} },
			Intercept(func(ctx context.Context, target any) (any, error) {
				return "not a greeting", nil
			})),
		Provide(func() testInterface { return &testImpl{} },
			Intercept(func(ctx context.Context, target any) (any, error) {
				return nil, nil
			})),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))

	_, err := GetWithError[*greeting](ctx, c)
	assert.ErrorIs(t, err, ErrInvalidInterceptor)
	assert.ErrorContains(t, err, "interceptor returned string")

	// Replacing an interface provider with nil is allowed.
	iface, err := GetWithError[testInterface](ctx, c)
	require.NoError(t, err)
	assert.Nil(t, iface)
}

func TestInterceptors_WrapInterface(t *testing.T) {
	type counting struct {
		testInterface
		wrapped bool
	}

	s := NewStore()
	type rootModule struct{}
	s.DeclareModule(TypeOf[rootModule](),
		Provide(func() testInterface { return &testImpl{} },
			Intercept(func(ctx context.Context, target any) (any, error) {
				return &counting{testInterface: target.(testInterface), wrapped: true}, nil
			})),
	)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[rootModule](), WithStore(s))

	iface := Get[testInterface](ctx, c)
	assert.Equal(t, 105, iface.getVal())
	assert.True(t, iface.(*counting).wrapped)
}

func TestApplyInterceptors(t *testing.T) {
	ctx := context.Background()

	out, err := applyInterceptors(ctx, nil, &greeting{text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", out.(*greeting).text)

	out, err = applyInterceptors(ctx, []Interceptor{suffix("a"), nil, suffix("b")}, &greeting{text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "xab", out.(*greeting).text)
}
