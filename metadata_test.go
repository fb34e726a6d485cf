package modinject

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordLookup(t *testing.T) {
	s := NewStore()
	type someModule struct{}

	_, ok := s.Lookup(TypeOf[someModule]())
	assert.False(t, ok)
	_, ok = s.Lookup(nil)
	assert.False(t, ok)

	imports := []reflect.Type{TypeOf[appModule]()}
	s.Record(TypeOf[someModule](), ClassMetadata{Kind: KindModule, Imports: imports})
	imports[0] = TypeOf[barModule]()

	md, ok := s.Lookup(TypeOf[someModule]())
	require.True(t, ok)
	assert.Equal(t, KindModule, md.Kind)
	assert.Equal(t, TypeOf[someModule](), md.Type)
	// Record keeps its own copy of the slices.
	assert.Equal(t, []reflect.Type{TypeOf[appModule]()}, md.Imports)

	// Recording again replaces the entry.
	s.Record(TypeOf[someModule](), ClassMetadata{Kind: KindComponent})
	md, _ = s.Lookup(TypeOf[someModule]())
	assert.Equal(t, KindComponent, md.Kind)
	assert.Empty(t, md.Imports)
}

func TestStore_Types(t *testing.T) {
	s := NewStore()
	s.DeclareModule(TypeOf[bazModule]())
	s.DeclareModule(TypeOf[appModule]())
	s.DeclareModule(TypeOf[barModule]())

	assert.Equal(t, []reflect.Type{
		TypeOf[appModule](),
		TypeOf[barModule](),
		TypeOf[bazModule](),
	}, s.Types())
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.DeclareProvider(func() *testWidget { return &testWidget{} })
		}()
		go func() {
			defer wg.Done()
			s.Lookup(TypeOf[*testWidget]())
		}()
	}
	wg.Wait()

	md, ok := s.Lookup(TypeOf[*testWidget]())
	require.True(t, ok)
	assert.Equal(t, KindProvider, md.Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "module", KindModule.String())
	assert.Equal(t, "provider", KindProvider.String())
	assert.Equal(t, "component", KindComponent.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, reflect.TypeOf(&testWidget{}), TypeOf[*testWidget]())
	assert.Equal(t, reflect.Interface, TypeOf[testInterface]().Kind())
	assert.NotEqual(t, TypeOf[*testWidget](), TypeOf[testWidget]())
}

func TestDeclareProvider(t *testing.T) {
	s := NewStore()
	interceptor := func(ctx context.Context, v any) (any, error) { return v, nil }
	result := s.DeclareProvider(
		func(ctx context.Context, d *testDoodad, o Optional[*testImpl]) (*testWidget, error) {
			return &testWidget{}, nil
		},
		Global(),
		Intercept(interceptor),
	)
	assert.Equal(t, TypeOf[*testWidget](), result)

	md, ok := s.Lookup(result)
	require.True(t, ok)
	assert.Equal(t, KindProvider, md.Kind)
	assert.True(t, md.Global)
	assert.Len(t, md.Interceptors, 1)
	assert.Equal(t, []reflect.Type{
		contextType,
		TypeOf[*testDoodad](),
		TypeOf[Optional[*testImpl]](),
	}, md.Dependencies)
	assert.NotNil(t, md.Constructor)
}

func TestDeclareProvider_Invalid(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.DeclareProvider(&testWidget{}) })
	assert.Panics(t, func() { s.DeclareProvider(func() {}) })
	assert.Panics(t, func() { s.DeclareProvider(func() (*testWidget, *testDoodad) { return nil, nil }) })
	assert.Panics(t, func() { s.DeclareProvider(func(...int) *testWidget { return nil }) })
	assert.Panics(t, func() { Provide(42) })
}

func TestDeclareModule(t *testing.T) {
	s := NewStore()
	type someModule struct{}
	s.DeclareModule(TypeOf[someModule](),
		Imports(TypeOf[barModule]()),
		Provide(func() *testWidget { return &testWidget{} }),
		Providers(TypeOf[*testDoodad]()),
		Exports(TypeOf[*testWidget](), TypeOf[barModule]()),
		Global(),
	)

	md, ok := s.Lookup(TypeOf[someModule]())
	require.True(t, ok)
	assert.Equal(t, KindModule, md.Kind)
	assert.True(t, md.Global)
	assert.Equal(t, []reflect.Type{TypeOf[barModule]()}, md.Imports)
	assert.Equal(t, []reflect.Type{TypeOf[*testWidget](), TypeOf[*testDoodad]()}, md.Providers)
	assert.Equal(t, []reflect.Type{TypeOf[*testWidget](), TypeOf[barModule]()}, md.Exports)

	// Provide declared the provider in the same store, without the module's options.
	pmd, ok := s.Lookup(TypeOf[*testWidget]())
	require.True(t, ok)
	assert.Equal(t, KindProvider, pmd.Kind)
	assert.False(t, pmd.Global)

	_, ok = s.Lookup(TypeOf[*testDoodad]())
	assert.False(t, ok)
}

func TestDeclareComponent(t *testing.T) {
	s := NewStore()
	type widgetView struct{}
	s.DeclareComponent(TypeOf[widgetView](), Needs(TypeOf[*testWidget]()))

	md, ok := s.Lookup(TypeOf[widgetView]())
	require.True(t, ok)
	assert.Equal(t, KindComponent, md.Kind)
	assert.Equal(t, []reflect.Type{TypeOf[*testWidget]()}, md.Dependencies)
}

func TestDefaultStore(t *testing.T) {
	type defaultModule struct{}
	type defaultService struct{}
	type defaultView struct{}

	DeclareModule(TypeOf[defaultModule](),
		Providers(DeclareProvider(func() *defaultService { return &defaultService{} })),
	)
	DeclareComponent(TypeOf[defaultView]())

	md, ok := DefaultStore.Lookup(TypeOf[defaultView]())
	require.True(t, ok)
	assert.Equal(t, KindComponent, md.Kind)

	ctx := context.Background()
	c := MustNewContainer(ctx, TypeOf[defaultModule]())
	assert.NotNil(t, Get[*defaultService](ctx, c))
}
