package modinject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrInvalidModule is returned when the root type or an imported type is not a declared module.
	ErrInvalidModule = errors.New("invalid module")

	// ErrProviderNotVisible is returned when a provider cannot be reached from the requesting module.
	ErrProviderNotVisible = errors.New("provider not visible")

	// ErrCircularDependency is returned when resolving a provider requires itself.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrUnknownProvider is returned when the requested type has no provider metadata.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrConstruction wraps an error returned by a provider constructor.
	ErrConstruction = errors.New("provider construction failed")

	// ErrInvalidInterceptor is returned when an interceptor replaces an instance with a value
	// of an incompatible type.
	ErrInvalidInterceptor = errors.New("invalid interceptor result")

	// ErrInvalidComponent is returned when a bound component type has no component metadata.
	ErrInvalidComponent = errors.New("invalid component")

	// ErrNoContainer is returned when a component is rendered without a container.
	ErrNoContainer = errors.New("no container available")

	// ErrClosed is returned by a container after Close.
	ErrClosed = errors.New("container closed")

	// ErrTypeMismatch is returned when a resolved value cannot be stored in the requested type.
	ErrTypeMismatch = errors.New("resolved value has the wrong type")
)

// DependencyError describes a failed declaration check or lookup. Kind is one of the
// sentinel errors above; Status holds a container snapshot for cycle errors.
type DependencyError struct {
	Kind           error
	Message        string
	ReferencedType reflect.Type
	Module         reflect.Type
	Chain          []reflect.Type
	Status         string
	SourceError    error
}

func (e *DependencyError) Error() string {
	b := strings.Builder{}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.ReferencedType != nil {
		b.WriteString(fmt.Sprintf(": %v", e.ReferencedType))
	}
	if e.Module != nil {
		b.WriteString(fmt.Sprintf(" (module %v)", e.Module))
	}
	if len(e.Chain) > 0 {
		b.WriteString(" [")
		b.WriteString(formatChain(e.Chain))
		b.WriteString("]")
	}
	if e.SourceError != nil {
		b.WriteString(fmt.Sprintf(" (%v)", e.SourceError.Error()))
	}
	return b.String()
}

// Is matches the error against its Kind so callers can use errors.Is with the sentinels.
func (e *DependencyError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *DependencyError) Unwrap() error {
	return e.SourceError
}

func formatChain(chain []reflect.Type) string {
	parts := make([]string, len(chain))
	for i, t := range chain {
		parts[i] = fmt.Sprintf("%v", t)
	}
	return strings.Join(parts, " -> ")
}

// errorKind returns a short label for the sentinel an error matches. It is used for metric labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidModule):
		return "invalid_module"
	case errors.Is(err, ErrProviderNotVisible):
		return "not_visible"
	case errors.Is(err, ErrCircularDependency):
		return "circular"
	case errors.Is(err, ErrUnknownProvider):
		return "unknown"
	case errors.Is(err, ErrConstruction):
		return "construction"
	case errors.Is(err, ErrInvalidInterceptor):
		return "interceptor"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	default:
		return "other"
	}
}
