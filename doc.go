// Package rivet is a hierarchical dependency injection container built around
// identity tokens.
//
// Dependencies are keyed by *Token values, not by reflected types: two tokens
// are different keys even when they carry the same description, so libraries
// can expose tokens without colliding. String interface names map to tokens
// through a per-tree registry, so the same name always yields the same token
// anywhere in a container tree.
//
// # Quick Start
//
// Create a container, bind producers, resolve:
//
//	c := rivet.New()
//
//	cfgToken := rivet.NewToken("Config")
//	c.BindValue(cfgToken, &Config{Port: 8080})
//
//	srvToken := rivet.NewToken("Server")
//	c.BindFactory(srvToken, func(r *rivet.Resolver) (any, error) {
//	    cfg, err := r.Resolve(cfgToken)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewServer(cfg.(*Config)), nil
//	}, rivet.WithBindLifetime(rivet.Singleton))
//
//	srv, err := rivet.ResolveAs[*Server](c, srvToken)
//
// # Lifetimes
//
// Every binding has a lifetime:
//
//	rivet.Singleton  // one instance per owning container
//	rivet.Transient  // fresh instance per resolve (default for factories)
//	rivet.PerRequest // one instance per top-level resolve call tree
//
// # Child Containers
//
// CreateChild builds a scope that inherits the parent's bindings for lookup
// but caches its own singletons. Bindings installed on the child shadow the
// parent's for resolves that start at the child; the parent never observes
// them.
//
//	child := c.CreateChild()
//	child.BindValue(cfgToken, testConfig) // shadows for child only
//
// # Context-Aware Factories
//
// Factories that block on I/O take a context and are only reachable through
// the ctx-flavored resolve calls:
//
//	c.BindCtxFactory(dbToken, func(ctx context.Context, r *rivet.Resolver) (any, error) {
//	    return sql.Open(ctx, dsn)
//	})
//	db, err := c.ResolveCtx(ctx, dbToken)
//
// Resolving such a binding through plain Resolve fails with a
// SyncAsyncMismatch error rather than blocking without a deadline.
//
// # Constructors and Autowiring
//
// Constructor funcs can be bound with explicit dependency tokens, or have
// their parameters autowired from the interface-name registry:
//
//	c.BindConstructor(svcToken, NewService, []*rivet.Token{dbToken, logToken})
//
//	b := rivet.NewBuilder()
//	b.RegisterConstructor(NewService).Singleton().AsInterface("Service")
//
// By default each parameter's type name is matched against registered
// interface names, trying the bare name, the capitalized name, and the
// I-prefixed name. AutowireOptions supports explicit per-parameter resolvers,
// positional metadata, and name maps.
//
// # Builder
//
// The Builder offers a declarative registration surface with named and keyed
// variants, conditional and default registrations, and multi-bindings:
//
//	b := rivet.NewBuilder()
//	b.RegisterValue(prodConfig).AsInterface("Config")
//	b.RegisterFactory(newNoopMailer).AsDefaultInterface("Mailer")
//	b.RegisterFactory(newSMTPMailer).IfNotRegistered().AsInterface("Mailer")
//	b.RegisterValue(primary).Named("primary").AsInterface("Database")
//	c, err := b.Build()
//
//	all, err := c.ResolveInterfaceAll("Handler") // every plain registration
//	db, err := c.ResolveNamed("primary")
//
// # Disposal
//
// Singletons that implement Disposable are torn down by Dispose in reverse
// order of first resolution. Failures are aggregated; every instance gets an
// attempt. A disposed container rejects all further binds and resolves.
//
//	defer c.Dispose(context.Background())
//
// # Validation and Debugging
//
//	err := c.Validate()      // missing explicit deps, static cycles
//	c.FprintBindings(os.Stdout)
//
// # Observability
//
//	c := rivet.New(
//	    rivet.WithLogger(slog.Default()),
//	    rivet.WithResolveObserver(func(token string, d time.Duration, err error) {
//	        metrics.RecordResolve(token, d, err)
//	    }),
//	)
package rivet
