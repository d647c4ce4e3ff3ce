package rivet

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Resolver is the handle factories and argument resolvers receive. It carries
// the in-flight resolution context, so nested resolves share one
// cycle-detection stack and one per-request cache with the enclosing call.
type Resolver struct {
	container *Container
	rc        *resolutionContext
}

func (r *Resolver) Container() *Container {
	return r.container
}

func (r *Resolver) Resolve(token *Token) (any, error) {
	return r.container.resolveToken(context.Background(), r.rc, token, true)
}

func (r *Resolver) ResolveCtx(ctx context.Context, token *Token) (any, error) {
	return r.container.resolveToken(ctx, r.rc, token, false)
}

func (r *Resolver) ResolveInterface(name string) (any, error) {
	return r.Resolve(r.container.InterfaceToken(name))
}

func (r *Resolver) ResolveNamed(name string) (any, error) {
	t, ok := r.container.lookupNamed(name)
	if !ok {
		return nil, errBindingNotFound(fmt.Sprintf("name %q", name), r.rc.pathStrings())
	}
	return r.Resolve(t)
}

func (r *Resolver) ResolveKeyed(key any) (any, error) {
	t, ok := r.container.lookupKeyed(key)
	if !ok {
		return nil, errBindingNotFound(fmt.Sprintf("key %v", key), r.rc.pathStrings())
	}
	return r.Resolve(t)
}

// Resolve produces the value bound to token, synchronously. A binding whose
// factory needs a context fails with a SyncAsyncMismatch error.
func (c *Container) Resolve(token *Token) (any, error) {
	if c.disposed.Load() {
		return nil, errContainerDisposed("resolve " + token.String())
	}

	if v, ok, err := c.fastPathObserved(token); ok || err != nil {
		return v, err
	}

	rc := acquireContext()
	defer releaseContext(rc)
	return c.resolveToken(context.Background(), rc, token, true)
}

// ResolveCtx is the asynchronous counterpart of Resolve: context factories
// are invoked with ctx and may block on I/O.
func (c *Container) ResolveCtx(ctx context.Context, token *Token) (any, error) {
	if c.disposed.Load() {
		return nil, errContainerDisposed("resolve " + token.String())
	}

	if v, ok, err := c.fastPathObserved(token); ok || err != nil {
		return v, err
	}

	rc := acquireContext()
	defer releaseContext(rc)
	return c.resolveToken(ctx, rc, token, false)
}

// fastPathObserved runs the fast path and reports hits to the resolve
// observers, so cached resolves stay visible to them.
func (c *Container) fastPathObserved(token *Token) (any, bool, error) {
	if len(c.onResolve) == 0 {
		return c.fastPath(token)
	}

	start := time.Now()
	v, ok, err := c.fastPath(token)
	if ok || err != nil {
		elapsed := time.Since(start)
		for _, hook := range c.onResolve {
			hook(token.String(), elapsed, err)
		}
	}
	return v, ok, err
}

// fastPath serves the steady-state majority of resolves without touching the
// context pool: value bindings, already-cached singletons, and transient
// constructors with no dependencies.
func (c *Container) fastPath(token *Token) (any, bool, error) {
	e, ok := c.lookup(token)
	if !ok {
		return nil, false, nil
	}
	b := e.binding

	if b.kind == bindingValue {
		return b.value, true, nil
	}

	if b.lifetime == Singleton {
		if v, ok := e.owner.cachedSingleton(token); ok {
			return v, true, nil
		}
		return nil, false, nil
	}

	if b.kind == bindingConstructor && b.lifetime == Transient && len(b.args) == 0 {
		v, err := b.ctor.call(nil)
		if err != nil {
			return nil, false, errFactoryFailed(token.String(), err)
		}
		return v, true, nil
	}

	return nil, false, nil
}

func (c *Container) resolveToken(ctx context.Context, rc *resolutionContext, token *Token, sync bool) (any, error) {
	if len(c.onResolve) == 0 {
		return c.doResolve(ctx, rc, token, sync)
	}

	start := time.Now()
	v, err := c.doResolve(ctx, rc, token, sync)
	elapsed := time.Since(start)
	for _, hook := range c.onResolve {
		hook(token.String(), elapsed, err)
	}
	return v, err
}

func (c *Container) doResolve(ctx context.Context, rc *resolutionContext, token *Token, sync bool) (any, error) {
	if c.disposed.Load() {
		return nil, errContainerDisposed("resolve " + token.String())
	}

	if rc.isResolving(token) {
		return nil, errCircularDependency(rc.cycleStrings(token))
	}

	e, ok := c.lookup(token)
	if !ok {
		return nil, errBindingNotFound(token.String(), rc.pathStrings())
	}
	b, owner := e.binding, e.owner

	if b.kind == bindingValue {
		return b.value, nil
	}

	switch b.lifetime {
	case PerRequest:
		if v, ok := rc.instance(token); ok {
			return v, nil
		}
	case Singleton:
		// Only the owner caches: a child resolving an inherited singleton
		// token gets the owner's single instance.
		if v, ok := owner.cachedSingleton(token); ok {
			return v, nil
		}
	}

	rc.push(token)
	v, err := c.instantiate(ctx, rc, token, b, sync)
	rc.pop()
	if err != nil {
		return nil, err
	}

	switch b.lifetime {
	case Singleton:
		v = owner.storeSingleton(token, v)
	case PerRequest:
		rc.store(token, v)
	}

	c.logger.Debug("resolved", "token", token.String(), "lifetime", b.lifetime.String())
	return v, nil
}

func (c *Container) instantiate(ctx context.Context, rc *resolutionContext, token *Token, b *binding, sync bool) (any, error) {
	r := &Resolver{container: c, rc: rc}

	switch b.kind {
	case bindingFactory:
		v, err := b.factory(r)
		if err != nil {
			return nil, errFactoryFailed(token.String(), err)
		}
		return v, nil

	case bindingCtxFactory:
		if sync {
			return nil, errSyncAsyncMismatch(token.String(), rc.pathStrings())
		}
		v, err := b.ctxFactory(ctx, r)
		if err != nil {
			return nil, errFactoryFailed(token.String(), err)
		}
		return v, nil

	case bindingConstructor:
		args := make([]reflect.Value, len(b.args))
		for i, arg := range b.args {
			raw, err := c.evalArg(ctx, rc, arg, sync)
			if err != nil {
				return nil, err
			}
			rv, err := b.ctor.argValue(i, raw)
			if err != nil {
				return nil, err
			}
			args[i] = rv
		}

		v, err := b.ctor.call(args)
		if err != nil {
			return nil, errFactoryFailed(token.String(), err)
		}
		return v, nil

	default:
		return nil, newError(ErrCodeUnknown, fmt.Sprintf("unknown binding kind %d for %s", b.kind, token), nil)
	}
}

func (c *Container) evalArg(ctx context.Context, rc *resolutionContext, arg argResolver, sync bool) (any, error) {
	switch {
	case arg.token != nil:
		return c.resolveToken(ctx, rc, arg.token, sync)
	case arg.fn != nil:
		return arg.fn(&Resolver{container: c, rc: rc})
	case arg.lookup != nil:
		return c.evalConvention(ctx, rc, arg.lookup, sync)
	default:
		return nil, nil // unwired parameter: zero value
	}
}

// evalConvention tries each naming convention against the interface-name
// registry at resolve time, so names registered after the plan was built are
// still honored.
func (c *Container) evalConvention(ctx context.Context, rc *resolutionContext, lookup *conventionLookup, sync bool) (any, error) {
	for _, name := range lookup.candidates {
		t, ok := c.peekInterfaceToken(name)
		if !ok {
			continue
		}
		if _, bound := c.lookup(t); !bound {
			continue
		}
		return c.resolveToken(ctx, rc, t, sync)
	}

	if lookup.strict {
		return nil, errAutowireConfig(lookup.ctorName, fmt.Sprintf(
			"no registration matched parameter %d; conventions tried: %v",
			lookup.index, lookup.candidates,
		))
	}
	return nil, nil
}

// ResolveAs resolves token and type-asserts the result.
func ResolveAs[T any](c *Container, token *Token) (T, error) {
	var zero T

	v, err := c.Resolve(token)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errFactoryFailed(token.String(), fmt.Errorf("value of type %T is not %T", v, zero))
	}
	return typed, nil
}

func ResolveAsCtx[T any](ctx context.Context, c *Container, token *Token) (T, error) {
	var zero T

	v, err := c.ResolveCtx(ctx, token)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errFactoryFailed(token.String(), fmt.Errorf("value of type %T is not %T", v, zero))
	}
	return typed, nil
}

func MustResolve[T any](c *Container, token *Token) T {
	v, err := ResolveAs[T](c, token)
	if err != nil {
		panic(err)
	}
	return v
}

func TryResolve[T any](c *Container, token *Token) (T, bool) {
	v, err := ResolveAs[T](c, token)
	return v, err == nil
}

// ResolveInterfaceAs resolves a string-keyed registration and type-asserts
// the result.
func ResolveInterfaceAs[T any](c *Container, name string) (T, error) {
	return ResolveAs[T](c, c.InterfaceToken(name))
}
