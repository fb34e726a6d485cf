package modinject

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// Kind identifies what a declared type is. The zero value is malformed and is reported
// when the type is used, not when it is recorded.
type Kind int

const (
	KindUnknown Kind = iota
	KindModule
	KindProvider
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindProvider:
		return "provider"
	case KindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// ClassMetadata is everything known about a declared type.
//
// Imports, Providers and Exports only apply to modules. Constructor only applies to
// providers; its parameter types are mirrored in Dependencies. For components Dependencies
// lists the providers the component needs at render time.
type ClassMetadata struct {
	Kind         Kind
	Type         reflect.Type
	Dependencies []reflect.Type
	Constructor  any
	Imports      []reflect.Type
	Providers    []reflect.Type
	Exports      []reflect.Type
	Global       bool
	Interceptors []Interceptor
}

// Store is a table of ClassMetadata keyed by type. It is safe for concurrent use.
type Store struct {
	lock    sync.RWMutex
	entries map[reflect.Type]*ClassMetadata
}

// DefaultStore is the process-wide store used by the package-level Declare functions and
// by containers created without WithStore.
var DefaultStore = NewStore()

func NewStore() *Store {
	return &Store{
		entries: map[reflect.Type]*ClassMetadata{},
	}
}

// Record stores the metadata for t, replacing anything recorded earlier for the same type.
// Nothing is validated here.
func (s *Store) Record(t reflect.Type, md ClassMetadata) {
	md.Type = t
	md.Dependencies = append([]reflect.Type(nil), md.Dependencies...)
	md.Imports = append([]reflect.Type(nil), md.Imports...)
	md.Providers = append([]reflect.Type(nil), md.Providers...)
	md.Exports = append([]reflect.Type(nil), md.Exports...)
	md.Interceptors = append([]Interceptor(nil), md.Interceptors...)

	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[t] = &md
}

// Lookup returns the metadata recorded for t. The returned value must not be modified.
func (s *Store) Lookup(t reflect.Type) (*ClassMetadata, bool) {
	if t == nil {
		return nil, false
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	md, ok := s.entries[t]
	return md, ok
}

// Types returns every recorded type ordered by name.
func (s *Store) Types() []reflect.Type {
	s.lock.RLock()
	result := make([]reflect.Type, 0, len(s.entries))
	for t := range s.entries {
		result = append(result, t)
	}
	s.lock.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}

// TypeOf returns the identity used for T in declarations and lookups.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var (
	contextType = TypeOf[context.Context]()
	errorType   = TypeOf[error]()
)
