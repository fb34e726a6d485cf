package modinject

import (
	"context"
	"reflect"
)

// ContainerProp is the props key under which a container travels to a bound component.
const ContainerProp = "modinject.container"

// Props are the properties a rendering system passes to a component.
type Props map[string]any

// View is the part of a container a component gets to see.
type View interface {
	Getter
}

// RenderInput is what a bound render function receives: the container view and the
// component's own props, without the container prop.
type RenderInput struct {
	Container View
	Props     Props
}

// RenderFunc renders a component. The result is whatever the rendering system uses as
// output.
type RenderFunc func(ctx context.Context, in RenderInput) (any, error)

// ComponentFactory is what the rendering system calls to render a bound component.
type ComponentFactory func(ctx context.Context, props Props) (any, error)

// containerView narrows a container down to Get.
type containerView struct {
	c *Container
}

func (v containerView) Get(ctx context.Context, t reflect.Type) (any, error) {
	return v.c.Get(ctx, t)
}

type containerCtxKey int

const containerKey containerCtxKey = 0

// WithContainer returns a context carrying c, for component factories rendered without the
// container prop.
func WithContainer(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, containerKey, c)
}

// ContainerFrom returns the container carried by ctx, if any.
func ContainerFrom(ctx context.Context) (*Container, bool) {
	c, ok := ctx.Value(containerKey).(*Container)
	return c, ok && c != nil
}

// Inject returns a copy of props carrying the container, ready to pass down to a bound
// component. props itself is not modified.
func (c *Container) Inject(props Props) Props {
	result := make(Props, len(props)+1)
	for k, v := range props {
		result[k] = v
	}
	result[ContainerProp] = c
	return result
}

// Bind turns render into a component factory that finds the container in its props (or,
// failing that, in the context) and hands render a View plus the remaining props.
func Bind(render RenderFunc) ComponentFactory {
	return func(ctx context.Context, props Props) (any, error) {
		in, err := renderInput(ctx, props)
		if err != nil {
			return nil, err
		}
		return render(ctx, in)
	}
}

// BindComponent is Bind for a declared component. Before rendering, every provider the
// component Needs is resolved so a missing one fails the render up front; after rendering,
// the component's interceptors are applied to the output in order.
//
// The component's metadata is looked up on every render, so redeclaring it takes effect
// immediately.
func (s *Store) BindComponent(component reflect.Type, render RenderFunc) ComponentFactory {
	return func(ctx context.Context, props Props) (any, error) {
		md, ok := s.Lookup(component)
		if !ok || md.Kind != KindComponent {
			return nil, &DependencyError{
				Kind:           ErrInvalidComponent,
				Message:        "type is not a declared component",
				ReferencedType: component,
			}
		}

		in, err := renderInput(ctx, props)
		if err != nil {
			return nil, err
		}
		for _, need := range md.Dependencies {
			if _, err := in.Container.Get(ctx, need); err != nil {
				return nil, err
			}
		}

		out, err := render(ctx, in)
		if err != nil {
			return nil, err
		}
		return applyInterceptors(ctx, md.Interceptors, out)
	}
}

// BindComponent binds a component declared in DefaultStore.
func BindComponent(component reflect.Type, render RenderFunc) ComponentFactory {
	return DefaultStore.BindComponent(component, render)
}

// renderInput takes the container out of props, or out of ctx when props lack it.
func renderInput(ctx context.Context, props Props) (RenderInput, error) {
	var c *Container
	stripped := make(Props, len(props))
	for k, v := range props {
		if k == ContainerProp {
			c, _ = v.(*Container)
			continue
		}
		stripped[k] = v
	}
	if c == nil {
		c, _ = ContainerFrom(ctx)
	}
	if c == nil {
		return RenderInput{}, &DependencyError{
			Kind:    ErrNoContainer,
			Message: "component rendered without a container prop or context",
		}
	}
	return RenderInput{
		Container: containerView{c: c},
		Props:     stripped,
	}, nil
}
