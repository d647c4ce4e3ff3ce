package rivet

import (
	"fmt"
)

// Builder accumulates declarative registrations and compiles them into
// bindings on a fresh container. Rows are processed in registration order;
// colliding registrations are resolved by precedence (defaults yield to
// explicit rows, IfNotRegistered rows yield to earlier ones), never by
// failing.
type Builder struct {
	rows []*registrationRow
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Registration is one fluent chain. Modifiers apply to every terminal that
// follows them on the chain; each terminal (As, AsInterface, ...) appends one
// pending registration row.
type Registration struct {
	builder *Builder

	kind       bindingKind
	value      any
	factory    FactoryFunc
	ctxFactory CtxFactoryFunc
	ctorFn     any

	lifetime        Lifetime
	lifetimeSet     bool
	autowire        *AutowireOptions
	name            string
	key             any
	ifNotRegistered bool
}

// registrationRow snapshots one terminal call. The token may be deferred: a
// string interface name is resolved against the target container's registry
// at build time.
type registrationRow struct {
	reg             *Registration
	token           *Token
	interfaceName   string
	isDefault       bool
	name            string
	key             any
	ifNotRegistered bool
	extras          []string
}

func (b *Builder) RegisterValue(value any) *Registration {
	return &Registration{builder: b, kind: bindingValue, value: value}
}

func (b *Builder) RegisterFactory(fn FactoryFunc) *Registration {
	return &Registration{builder: b, kind: bindingFactory, factory: fn}
}

func (b *Builder) RegisterCtxFactory(fn CtxFactoryFunc) *Registration {
	return &Registration{builder: b, kind: bindingCtxFactory, ctxFactory: fn}
}

// RegisterConstructor registers a constructor func whose parameters are
// autowired: explicitly via AutoWire, or by the type-name convention when no
// options are given.
func (b *Builder) RegisterConstructor(ctor any) *Registration {
	return &Registration{builder: b, kind: bindingConstructor, ctorFn: ctor}
}

func (r *Registration) Singleton() *Registration {
	r.lifetime, r.lifetimeSet = Singleton, true
	return r
}

func (r *Registration) Transient() *Registration {
	r.lifetime, r.lifetimeSet = Transient, true
	return r
}

func (r *Registration) PerRequest() *Registration {
	r.lifetime, r.lifetimeSet = PerRequest, true
	return r
}

func (r *Registration) Named(name string) *Registration {
	r.name = name
	return r
}

func (r *Registration) Keyed(key any) *Registration {
	r.key = key
	return r
}

// IfNotRegistered makes subsequent terminals yield to any earlier
// registration of the same token within this build.
func (r *Registration) IfNotRegistered() *Registration {
	r.ifNotRegistered = true
	return r
}

func (r *Registration) AutoWire(opts AutowireOptions) *Registration {
	r.autowire = &opts
	return r
}

func (r *Registration) As(token *Token) *Registration {
	r.appendRow(&registrationRow{token: token})
	return r
}

func (r *Registration) AsInterface(name string) *Registration {
	r.appendRow(&registrationRow{interfaceName: name})
	return r
}

// AsDefaultInterface registers a fallback: the row is dropped entirely when
// any plain registration for the same name exists anywhere in this build.
func (r *Registration) AsDefaultInterface(name string) *Registration {
	r.appendRow(&registrationRow{interfaceName: name, isDefault: true})
	return r
}

func (r *Registration) AsKeyedInterface(key any, name string) *Registration {
	r.appendRow(&registrationRow{interfaceName: name, key: key})
	return r
}

// AsImplementedInterfaces registers the chain under the first name and
// installs indirection factories for the rest, so every name shares the
// primary binding's instance and lifetime.
func (r *Registration) AsImplementedInterfaces(names ...string) *Registration {
	if len(names) == 0 {
		return r
	}
	r.appendRow(&registrationRow{interfaceName: names[0], extras: names[1:]})
	return r
}

func (r *Registration) appendRow(row *registrationRow) {
	row.reg = r
	row.name = r.name
	if row.key == nil {
		row.key = r.key
	}
	row.ifNotRegistered = r.ifNotRegistered
	r.builder.rows = append(r.builder.rows, row)
}

// Build compiles the registrations onto a fresh root container.
func (b *Builder) Build(opts ...Option) (*Container, error) {
	return b.compile(New(opts...))
}

// BuildChild compiles the registrations onto a fresh child of parent, so the
// new bindings shadow the parent's without mutating it.
func (b *Builder) BuildChild(parent *Container) (*Container, error) {
	if parent == nil {
		return b.Build()
	}
	return b.compile(parent.CreateChild())
}

func (b *Builder) compile(c *Container) (*Container, error) {
	tokens := make([]*Token, len(b.rows))
	for i, row := range b.rows {
		if row.token != nil {
			tokens[i] = row.token
			continue
		}
		tokens[i] = c.InterfaceToken(row.interfaceName)
	}

	// Defaults never compete with explicit plain registrations for the same
	// bare token.
	hasPlain := make(map[*Token]bool)
	for i, row := range b.rows {
		if !row.isDefault && row.name == "" && row.key == nil {
			hasPlain[tokens[i]] = true
		}
	}

	// registered drives the ifNotRegistered/default skips and counts every
	// row, named and keyed included; plainBound decides bare-token ownership
	// and counts only plain rows, so a named or keyed row cannot steal the
	// bare token from a later plain registration.
	registered := make(map[*Token]bool)
	plainBound := make(map[*Token]bool)
	multiCount := make(map[*Token]int)

	for i, row := range b.rows {
		token := tokens[i]

		if row.isDefault && hasPlain[token] {
			continue
		}
		if row.ifNotRegistered && registered[token] {
			continue
		}
		if row.isDefault && registered[token] {
			continue
		}

		bindingToken := token
		switch {
		case row.name != "":
			bindingToken = NewToken(fmt.Sprintf("%s#%s", token, row.name))
			c.setNamed(row.name, bindingToken)
		case row.key != nil:
			bindingToken = NewToken(fmt.Sprintf("%s@%v", token, row.key))
			c.setKeyed(row.key, bindingToken)
		default:
			if plainBound[token] {
				multiCount[token]++
				bindingToken = NewToken(fmt.Sprintf("%s+%d", token, multiCount[token]))
			}
			plainBound[token] = true
			c.appendGroup(token, bindingToken)
		}

		if err := row.reg.install(c, bindingToken); err != nil {
			return nil, err
		}
		registered[token] = true

		primary := bindingToken
		for _, extra := range row.extras {
			aliasLogical := c.InterfaceToken(extra)
			aliasToken := aliasLogical
			if plainBound[aliasLogical] {
				multiCount[aliasLogical]++
				aliasToken = NewToken(fmt.Sprintf("%s+%d", aliasLogical, multiCount[aliasLogical]))
			}
			plainBound[aliasLogical] = true

			err := c.BindFactory(aliasToken, func(r *Resolver) (any, error) {
				return r.Resolve(primary)
			})
			if err != nil {
				return nil, err
			}

			c.appendGroup(aliasLogical, aliasToken)
			registered[aliasLogical] = true
		}
	}

	return c, nil
}

func (r *Registration) install(c *Container, token *Token) error {
	switch r.kind {
	case bindingValue:
		return c.BindValue(token, r.value)

	case bindingFactory:
		return c.BindFactory(token, r.factory, WithBindLifetime(r.effectiveLifetime()))

	case bindingCtxFactory:
		return c.BindCtxFactory(token, r.ctxFactory, WithBindLifetime(r.effectiveLifetime()))

	case bindingConstructor:
		ctor, err := newConstructor(r.ctorFn)
		if err != nil {
			return err
		}
		plan, err := buildAutowirePlan(c, ctor, r.autowire)
		if err != nil {
			return err
		}
		return c.bindCompiledConstructor(token, ctor, plan, r.effectiveLifetime())

	default:
		return newError(ErrCodeUnknown, fmt.Sprintf("unknown registration kind %d", r.kind), nil)
	}
}

func (r *Registration) effectiveLifetime() Lifetime {
	if r.lifetimeSet {
		return r.lifetime
	}
	return Transient
}
