package rivet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Disposable is implemented by singleton instances that hold resources.
// Dispose runs once, during the owning container's Dispose, in reverse order
// of first resolution.
type Disposable interface {
	Dispose(ctx context.Context) error
}

// Container is one node in a tree of scopes. Lookup walks from the container
// through its ancestors; the nearest binding wins, so children shadow
// parents. Each container owns an independent singleton cache for the
// bindings registered on it.
type Container struct {
	mu       sync.RWMutex
	parent   *Container
	bindings map[*Token]*binding

	// revision counts local binding mutations; the flat lookup view is a
	// materialized union of the whole chain, stale whenever the summed chain
	// revision moves.
	revision atomic.Uint64
	flat     map[*Token]ownedBinding
	flatRev  uint64

	singletons     map[*Token]any
	singletonOrder []*Token

	// names is the interface-name registry. The canonical map lives on the
	// root; descendants memoize hits so repeat lookups stay local.
	names map[string]*Token

	// Side tables populated by Builder.Build.
	namedTokens map[string]*Token
	keyedTokens map[any]*Token
	groups      map[*Token][]*Token

	disposed  atomic.Bool
	logger    *slog.Logger
	onResolve []ResolveHook
}

type ownedBinding struct {
	binding *binding
	owner   *Container
}

func New(opts ...Option) *Container {
	cfg := &containerConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Container{
		bindings:    make(map[*Token]*binding),
		singletons:  make(map[*Token]any),
		names:       make(map[string]*Token),
		namedTokens: make(map[string]*Token),
		keyedTokens: make(map[any]*Token),
		groups:      make(map[*Token][]*Token),
		logger:      cfg.logger,
		onResolve:   cfg.onResolve,
	}
}

// CreateChild returns a container that inherits this container's bindings for
// lookup but keeps its own singleton cache, so the same token can yield
// different singletons in different subtrees.
func (c *Container) CreateChild() *Container {
	child := New()
	child.parent = c
	child.logger = c.logger
	child.onResolve = c.onResolve
	return child
}

func (c *Container) Parent() *Container {
	return c.parent
}

func (c *Container) root() *Container {
	n := c
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// BindValue installs a pre-built value under token. The value is returned
// as-is on every resolve and is never disposed by the container.
func (c *Container) BindValue(token *Token, value any) error {
	return c.install(token, &binding{
		kind:     bindingValue,
		lifetime: Singleton,
		value:    value,
	})
}

// BindFactory installs a synchronous factory. Default lifetime is Transient.
func (c *Container) BindFactory(token *Token, fn FactoryFunc, opts ...BindOption) error {
	return c.install(token, &binding{
		kind:     bindingFactory,
		lifetime: applyBindOptions(Transient, opts),
		factory:  fn,
	})
}

// BindCtxFactory installs a context-aware factory, resolvable only through
// ResolveCtx. Default lifetime is Transient.
func (c *Container) BindCtxFactory(token *Token, fn CtxFactoryFunc, opts ...BindOption) error {
	return c.install(token, &binding{
		kind:       bindingCtxFactory,
		lifetime:   applyBindOptions(Transient, opts),
		ctxFactory: fn,
	})
}

// BindConstructor installs a constructor func with an explicit dependency
// token list; deps resolve recursively, in declaration order, before the
// constructor runs. The func must take len(deps) parameters and return T or
// (T, error). Default lifetime is Transient.
func (c *Container) BindConstructor(token *Token, ctor any, deps []*Token, opts ...BindOption) error {
	compiled, err := newConstructor(ctor)
	if err != nil {
		return err
	}
	if len(compiled.params) != len(deps) {
		return errInvalidConstructor(fmt.Sprintf(
			"constructor %s takes %d parameters but %d dependency tokens were given",
			compiled.name, len(compiled.params), len(deps),
		))
	}

	args := make([]argResolver, len(deps))
	for i, dep := range deps {
		args[i] = argResolver{token: dep, typ: compiled.params[i]}
	}
	return c.bindCompiledConstructor(token, compiled, args, applyBindOptions(Transient, opts))
}

func (c *Container) bindCompiledConstructor(token *Token, ctor *constructor, args []argResolver, lifetime Lifetime) error {
	return c.install(token, &binding{
		kind:     bindingConstructor,
		lifetime: lifetime,
		ctor:     ctor,
		args:     args,
	})
}

func (c *Container) install(token *Token, b *binding) error {
	if c.disposed.Load() {
		return errContainerDisposed("bind " + token.String())
	}

	c.mu.Lock()
	_, replaced := c.bindings[token]
	c.bindings[token] = b
	if replaced {
		// Rebinding discards the previous singleton so the new producer is
		// observed on the next resolve.
		c.dropSingletonLocked(token)
	}
	c.mu.Unlock()

	c.revision.Add(1)
	c.logger.Debug("binding installed", "token", token.String(), "kind", b.kind.String(), "lifetime", b.lifetime.String())
	return nil
}

func (c *Container) dropSingletonLocked(token *Token) {
	if _, ok := c.singletons[token]; !ok {
		return
	}
	delete(c.singletons, token)
	for i, t := range c.singletonOrder {
		if t == token {
			c.singletonOrder = append(c.singletonOrder[:i], c.singletonOrder[i+1:]...)
			break
		}
	}
}

func (c *Container) chainRevision() uint64 {
	var sum uint64
	for n := c; n != nil; n = n.parent {
		sum += n.revision.Load()
	}
	return sum
}

// lookup finds the nearest binding for token in the chain through a lazily
// rebuilt flat view of all ancestor bindings. A flat-view miss is
// authoritative: the view unions the entire chain.
func (c *Container) lookup(token *Token) (ownedBinding, bool) {
	e, ok := c.flatView()[token]
	return e, ok
}

// flatView returns the current materialized union of the chain's bindings.
// The returned map is replaced wholesale on rebuild and never mutated, so it
// is safe to read without holding the lock.
func (c *Container) flatView() map[*Token]ownedBinding {
	rev := c.chainRevision()

	c.mu.RLock()
	if c.flat != nil && c.flatRev == rev {
		flat := c.flat
		c.mu.RUnlock()
		return flat
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flat == nil || c.flatRev != rev {
		c.rebuildFlatLocked(rev)
	}
	return c.flat
}

func (c *Container) rebuildFlatLocked(rev uint64) {
	var chain []*Container
	for n := c; n != nil; n = n.parent {
		chain = append(chain, n)
	}

	flat := make(map[*Token]ownedBinding)
	// Root first so nearer containers overwrite: child shadows parent.
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		if n == c {
			for t, b := range n.bindings {
				flat[t] = ownedBinding{binding: b, owner: n}
			}
			continue
		}
		n.mu.RLock()
		for t, b := range n.bindings {
			flat[t] = ownedBinding{binding: b, owner: n}
		}
		n.mu.RUnlock()
	}

	c.flat = flat
	c.flatRev = rev
}

func (c *Container) cachedSingleton(token *Token) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.singletons[token]
	return v, ok
}

// storeSingleton caches v for token unless another goroutine won the race, in
// which case the first-cached instance is returned.
func (c *Container) storeSingleton(token *Token, v any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.singletons[token]; ok {
		return existing
	}
	c.singletons[token] = v
	c.singletonOrder = append(c.singletonOrder, token)
	return v
}

// InterfaceToken returns the process-stable token for an interface name. The
// first request anywhere in a container tree mints the token at the root;
// every later request from any node in the tree observes the same token.
func (c *Container) InterfaceToken(name string) *Token {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		t, ok := n.names[name]
		n.mu.RUnlock()
		if ok {
			c.memoName(name, t)
			return t
		}
	}

	root := c.root()
	root.mu.Lock()
	t, ok := root.names[name]
	if !ok {
		t = NewToken(name)
		root.names[name] = t
	}
	root.mu.Unlock()

	c.memoName(name, t)
	return t
}

func (c *Container) memoName(name string, t *Token) {
	if c == c.root() {
		return
	}
	c.mu.Lock()
	c.names[name] = t
	c.mu.Unlock()
}

// peekInterfaceToken looks the name up without minting a token.
func (c *Container) peekInterfaceToken(name string) (*Token, bool) {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		t, ok := n.names[name]
		n.mu.RUnlock()
		if ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Container) ResolveInterface(name string) (any, error) {
	return c.Resolve(c.InterfaceToken(name))
}

func (c *Container) ResolveInterfaceCtx(ctx context.Context, name string) (any, error) {
	return c.ResolveCtx(ctx, c.InterfaceToken(name))
}

func (c *Container) ResolveInterfaceAll(name string) ([]any, error) {
	return c.ResolveAll(c.InterfaceToken(name))
}

func (c *Container) setNamed(name string, t *Token) {
	c.mu.Lock()
	c.namedTokens[name] = t
	c.mu.Unlock()
}

func (c *Container) setKeyed(key any, t *Token) {
	c.mu.Lock()
	c.keyedTokens[key] = t
	c.mu.Unlock()
}

func (c *Container) appendGroup(logical, bindingToken *Token) {
	c.mu.Lock()
	c.groups[logical] = append(c.groups[logical], bindingToken)
	c.mu.Unlock()
}

func (c *Container) lookupNamed(name string) (*Token, bool) {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		t, ok := n.namedTokens[name]
		n.mu.RUnlock()
		if ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Container) lookupKeyed(key any) (*Token, bool) {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		t, ok := n.keyedTokens[key]
		n.mu.RUnlock()
		if ok {
			return t, true
		}
	}
	return nil, false
}

// groupTokens unions the multi-registration groups for token across the
// chain, ancestors first so registration order is preserved tree-wide.
func (c *Container) groupTokens(token *Token) []*Token {
	var chain []*Container
	for n := c; n != nil; n = n.parent {
		chain = append(chain, n)
	}

	var out []*Token
	seen := make(map[*Token]struct{})
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		n.mu.RLock()
		for _, t := range n.groups[token] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
		n.mu.RUnlock()
	}
	return out
}

// ResolveNamed resolves the registration installed under name by a builder.
func (c *Container) ResolveNamed(name string) (any, error) {
	t, ok := c.lookupNamed(name)
	if !ok {
		return nil, errBindingNotFound(fmt.Sprintf("name %q", name), nil)
	}
	return c.Resolve(t)
}

// ResolveKeyed resolves the registration installed under key by a builder.
func (c *Container) ResolveKeyed(key any) (any, error) {
	t, ok := c.lookupKeyed(key)
	if !ok {
		return nil, errBindingNotFound(fmt.Sprintf("key %v", key), nil)
	}
	return c.Resolve(t)
}

// ResolveAll resolves every plain (unnamed, unkeyed) registration for token,
// in registration order. All members share one resolution context, so
// per-request dependencies are shared across the group.
func (c *Container) ResolveAll(token *Token) ([]any, error) {
	if c.disposed.Load() {
		return nil, errContainerDisposed("resolve " + token.String())
	}

	toks := c.groupTokens(token)
	if len(toks) == 0 {
		if _, ok := c.lookup(token); !ok {
			return nil, errBindingNotFound(token.String(), nil)
		}
		toks = []*Token{token}
	}

	rc := acquireContext()
	defer releaseContext(rc)

	out := make([]any, 0, len(toks))
	for _, t := range toks {
		v, err := c.resolveToken(context.Background(), rc, t, true)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Container) Has(token *Token) bool {
	_, ok := c.lookup(token)
	return ok
}

// Keys lists the debug strings of every token resolvable from this
// container, sorted.
func (c *Container) Keys() []string {
	flat := c.flatView()
	keys := make([]string, 0, len(flat))
	for t := range flat {
		keys = append(keys, t.String())
	}
	sort.Strings(keys)
	return keys
}

func (c *Container) Size() int {
	return len(c.flatView())
}

// Dispose tears down this container's cached singletons in reverse order of
// first resolution. Every Disposable instance gets an attempt; failures are
// aggregated and returned. The container is permanently inert afterward.
// Dispose is idempotent and does not touch ancestors or descendants.
func (c *Container) Dispose(ctx context.Context) error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	order := c.singletonOrder
	instances := c.singletons
	c.singletonOrder = nil
	c.singletons = make(map[*Token]any)
	c.mu.Unlock()

	var errs error
	for i := len(order) - 1; i >= 0; i-- {
		token := order[i]
		d, ok := instances[token].(Disposable)
		if !ok {
			continue
		}

		c.logger.Debug("disposing singleton", "token", token.String())
		if err := d.Dispose(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dispose %s: %w", token.String(), err))
		}
	}

	if errs != nil {
		return errDisposeFailed(errs)
	}
	return nil
}

func (c *Container) IsDisposed() bool {
	return c.disposed.Load()
}
