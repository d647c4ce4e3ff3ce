package rivet

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rivet-di/rivet/internal/typename"
)

// FactoryFunc produces a value synchronously. Nested resolves made through
// the supplied Resolver share the caller's resolution context.
type FactoryFunc func(r *Resolver) (any, error)

// CtxFactoryFunc produces a value that may block on I/O; it is only reachable
// through ResolveCtx.
type CtxFactoryFunc func(ctx context.Context, r *Resolver) (any, error)

type bindingKind uint8

const (
	bindingValue bindingKind = iota
	bindingFactory
	bindingCtxFactory
	bindingConstructor
)

func (k bindingKind) String() string {
	switch k {
	case bindingValue:
		return "value"
	case bindingFactory:
		return "factory"
	case bindingCtxFactory:
		return "ctx-factory"
	case bindingConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// binding is the compiled record describing how to produce a value for a
// token. Exactly one payload field per kind is set; bindings are immutable
// after creation.
type binding struct {
	kind       bindingKind
	lifetime   Lifetime
	value      any
	factory    FactoryFunc
	ctxFactory CtxFactoryFunc
	ctor       *constructor
	args       []argResolver
}

// argResolver is one precompiled constructor argument. Exactly one of token,
// fn, or lookup is set; when all are nil the parameter is unwired and gets
// the zero value of typ.
type argResolver struct {
	token  *Token
	fn     ArgResolver
	lookup *conventionLookup
	typ    reflect.Type
}

type conventionLookup struct {
	candidates []string
	strict     bool
	ctorName   string
	index      int
}

type BindOption func(*bindConfig)

type bindConfig struct {
	lifetime    Lifetime
	lifetimeSet bool
}

func WithBindLifetime(l Lifetime) BindOption {
	return func(cfg *bindConfig) {
		cfg.lifetime = l
		cfg.lifetimeSet = true
	}
}

func applyBindOptions(def Lifetime, opts []BindOption) Lifetime {
	cfg := &bindConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lifetimeSet {
		return cfg.lifetime
	}
	return def
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructor caches the reflect metadata of a constructor func so calls
// avoid re-deriving it. Supported shapes: func(...) T and func(...) (T, error).
type constructor struct {
	fn     reflect.Value
	params []reflect.Type
	hasErr bool
	name   string
}

func newConstructor(fn any) (*constructor, error) {
	if fn == nil {
		return nil, errInvalidConstructor("constructor is nil")
	}

	v := reflect.ValueOf(fn)
	t := v.Type()

	if t.Kind() != reflect.Func {
		return nil, errInvalidConstructor(fmt.Sprintf("constructor must be a func, got %T", fn))
	}
	if t.IsVariadic() {
		return nil, errInvalidConstructor(fmt.Sprintf("constructor %s must not be variadic", typename.FuncName(v)))
	}

	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorType {
			return nil, errInvalidConstructor(fmt.Sprintf("constructor %s must return a value, not only an error", typename.FuncName(v)))
		}
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, errInvalidConstructor(fmt.Sprintf("constructor %s second return value must be an error", typename.FuncName(v)))
		}
	default:
		return nil, errInvalidConstructor(fmt.Sprintf("constructor %s must return T or (T, error)", typename.FuncName(v)))
	}

	return &constructor{
		fn:     v,
		params: typename.Params(t),
		hasErr: t.NumOut() == 2,
		name:   typename.FuncName(v),
	}, nil
}

func (c *constructor) call(args []reflect.Value) (any, error) {
	results := c.fn.Call(args)

	if c.hasErr && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// argValue converts a resolved argument to the reflect.Value expected at
// position i, substituting the parameter's zero value for nil.
func (c *constructor) argValue(i int, v any) (reflect.Value, error) {
	param := c.params[i]
	if v == nil {
		return reflect.Zero(param), nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(param) {
		return reflect.Value{}, errAutowireConfig(
			c.name,
			fmt.Sprintf("argument %d resolved to %s, want %s", i, rv.Type(), param),
		)
	}
	return rv, nil
}
