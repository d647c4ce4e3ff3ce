package rivet

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_BindingNotFound(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("Missing")

	_, err := c.Resolve(token)
	require.Error(t, err)
	assert.True(t, IsBindingNotFound(err))
	assert.Contains(t, err.Error(), "Token(Missing)")
}

func TestResolve_CircularDependencyReportsPath(t *testing.T) {
	t.Parallel()

	c := New()
	a := NewToken("A")
	b := NewToken("B")

	require.NoError(t, c.BindFactory(a, func(r *Resolver) (any, error) {
		return r.Resolve(b)
	}))
	require.NoError(t, c.BindFactory(b, func(r *Resolver) (any, error) {
		return r.Resolve(a)
	}))

	_, err := c.Resolve(a)
	require.Error(t, err)
	assert.True(t, IsCircularDependency(err))
	assert.Contains(t, err.Error(), "Token(A)")
	assert.Contains(t, err.Error(), "Token(B)")
}

func TestResolve_SelfCycle(t *testing.T) {
	t.Parallel()

	c := New()
	a := NewToken("A")

	require.NoError(t, c.BindFactory(a, func(r *Resolver) (any, error) {
		return r.Resolve(a)
	}))

	_, err := c.Resolve(a)
	assert.True(t, IsCircularDependency(err))
}

func TestResolve_DiamondIsNotACycle(t *testing.T) {
	t.Parallel()

	c := New()
	top := NewToken("top")
	left := NewToken("left")
	right := NewToken("right")
	base := NewToken("base")

	require.NoError(t, c.BindValue(base, "shared"))
	dep := func(r *Resolver) (any, error) { return r.Resolve(base) }
	require.NoError(t, c.BindFactory(left, dep))
	require.NoError(t, c.BindFactory(right, dep))
	require.NoError(t, c.BindFactory(top, func(r *Resolver) (any, error) {
		if _, err := r.Resolve(left); err != nil {
			return nil, err
		}
		return r.Resolve(right)
	}))

	got, err := c.Resolve(top)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
}

func TestResolve_PerRequestSharedWithinTree(t *testing.T) {
	t.Parallel()

	c := New()
	shared := NewToken("shared")
	left := NewToken("left")
	right := NewToken("right")
	top := NewToken("top")

	var calls atomic.Int32
	require.NoError(t, c.BindFactory(shared, func(r *Resolver) (any, error) {
		calls.Add(1)
		return &testInstance{}, nil
	}, WithBindLifetime(PerRequest)))

	require.NoError(t, c.BindFactory(left, func(r *Resolver) (any, error) {
		return r.Resolve(shared)
	}))
	require.NoError(t, c.BindFactory(right, func(r *Resolver) (any, error) {
		return r.Resolve(shared)
	}))
	require.NoError(t, c.BindFactory(top, func(r *Resolver) (any, error) {
		l, err := r.Resolve(left)
		if err != nil {
			return nil, err
		}
		rr, err := r.Resolve(right)
		if err != nil {
			return nil, err
		}
		return []any{l, rr}, nil
	}))

	got, err := c.Resolve(top)
	require.NoError(t, err)

	pair := got.([]any)
	assert.Same(t, pair[0], pair[1])
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_PerRequestFreshAcrossTrees(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("request")

	require.NoError(t, c.BindFactory(token, func(r *Resolver) (any, error) {
		return &testInstance{}, nil
	}, WithBindLifetime(PerRequest)))

	a, err := c.Resolve(token)
	require.NoError(t, err)
	b, err := c.Resolve(token)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestResolve_SyncAsyncMismatch(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("db")

	require.NoError(t, c.BindCtxFactory(token, func(ctx context.Context, r *Resolver) (any, error) {
		return "connected", nil
	}))

	_, err := c.Resolve(token)
	require.Error(t, err)
	assert.True(t, IsSyncAsyncMismatch(err))

	got, err := c.ResolveCtx(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "connected", got)
}

func TestResolve_SyncAsyncMismatchNested(t *testing.T) {
	t.Parallel()

	c := New()
	db := NewToken("db")
	svc := NewToken("svc")

	require.NoError(t, c.BindCtxFactory(db, func(ctx context.Context, r *Resolver) (any, error) {
		return "connected", nil
	}))
	require.NoError(t, c.BindFactory(svc, func(r *Resolver) (any, error) {
		return r.Resolve(db)
	}))

	// The sync flag propagates through nested resolves regardless of how the
	// outer call started.
	_, err := c.Resolve(svc)
	assert.True(t, IsSyncAsyncMismatch(err))

	got, err := c.ResolveCtx(context.Background(), svc)
	require.NoError(t, err)
	assert.Equal(t, "connected", got)
}

func TestResolve_CtxFactoryObservesContext(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("slow")

	require.NoError(t, c.BindCtxFactory(token, func(ctx context.Context, r *Resolver) (any, error) {
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ResolveCtx(ctx, token)
	require.Error(t, err)
	assert.True(t, IsFactoryFailed(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_FactoryErrorWrapped(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("flaky")
	boom := fmt.Errorf("boom")

	require.NoError(t, c.BindFactory(token, func(r *Resolver) (any, error) {
		return nil, boom
	}))

	_, err := c.Resolve(token)
	require.Error(t, err)
	assert.True(t, IsFactoryFailed(err))
	assert.ErrorIs(t, err, boom)
}

func TestResolve_ZeroArgConstructorFastPath(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("service")

	var calls atomic.Int32
	require.NoError(t, c.BindConstructor(token, func() *testInstance {
		calls.Add(1)
		return &testInstance{id: int(calls.Load())}
	}, nil))

	a, err := c.Resolve(token)
	require.NoError(t, err)
	b, err := c.Resolve(token)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolve_NestedResolverSharesContext(t *testing.T) {
	t.Parallel()

	c := New()
	inner := NewToken("inner")
	middle := NewToken("middle")
	outer := NewToken("outer")

	var calls atomic.Int32
	require.NoError(t, c.BindFactory(inner, func(r *Resolver) (any, error) {
		calls.Add(1)
		return &testInstance{}, nil
	}, WithBindLifetime(PerRequest)))

	require.NoError(t, c.BindFactory(middle, func(r *Resolver) (any, error) {
		return r.Resolve(inner)
	}))
	require.NoError(t, c.BindFactory(outer, func(r *Resolver) (any, error) {
		a, err := r.Resolve(middle)
		if err != nil {
			return nil, err
		}
		b, err := r.Resolve(inner)
		if err != nil {
			return nil, err
		}
		return []any{a, b}, nil
	}))

	got, err := c.Resolve(outer)
	require.NoError(t, err)

	pair := got.([]any)
	assert.Same(t, pair[0], pair[1])
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_ObserverSeesEveryResolve(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var sawError atomic.Bool

	c := New(WithResolveObserver(func(token string, d time.Duration, err error) {
		calls.Add(1)
		if err != nil {
			sawError.Store(true)
		}
	}))

	token := NewToken("service")
	require.NoError(t, c.BindFactory(token, func(r *Resolver) (any, error) {
		return 1, nil
	}))

	_, err := c.Resolve(token)
	require.NoError(t, err)

	_, err = c.Resolve(NewToken("missing"))
	require.Error(t, err)

	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.True(t, sawError.Load())
}

func TestResolve_ObserverSeesCachedResolves(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New(WithResolveObserver(func(token string, d time.Duration, err error) {
		calls.Add(1)
	}))

	single := NewToken("single")
	require.NoError(t, c.BindFactory(single, func(r *Resolver) (any, error) {
		return &testInstance{}, nil
	}, WithBindLifetime(Singleton)))

	val := NewToken("val")
	require.NoError(t, c.BindValue(val, "static"))

	// First resolve instantiates; the next two are cache hits that must
	// still reach the observer.
	for i := 0; i < 3; i++ {
		_, err := c.Resolve(single)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())

	_, err := c.Resolve(val)
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestResolveAs_TypeMismatch(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("number")
	require.NoError(t, c.BindValue(token, 42))

	got, err := ResolveAs[int](c, token)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = ResolveAs[string](c, token)
	require.Error(t, err)
}

func TestResolveAsCtx(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("db")

	require.NoError(t, c.BindCtxFactory(token, func(ctx context.Context, r *Resolver) (any, error) {
		return "connected", nil
	}))

	got, err := ResolveAsCtx[string](context.Background(), c, token)
	require.NoError(t, err)
	assert.Equal(t, "connected", got)

	_, err = ResolveAsCtx[int](context.Background(), c, token)
	require.Error(t, err)

	_, err = ResolveAsCtx[string](context.Background(), c, NewToken("missing"))
	assert.True(t, IsBindingNotFound(err))
}

func TestMustResolve_PanicsOnMissing(t *testing.T) {
	t.Parallel()

	c := New()

	assert.Panics(t, func() {
		MustResolve[int](c, NewToken("missing"))
	})
}

func TestTryResolve(t *testing.T) {
	t.Parallel()

	c := New()
	token := NewToken("present")
	require.NoError(t, c.BindValue(token, "yes"))

	got, ok := TryResolve[string](c, token)
	assert.True(t, ok)
	assert.Equal(t, "yes", got)

	_, ok = TryResolve[string](c, NewToken("absent"))
	assert.False(t, ok)
}

func TestResolver_ResolveNamedAndKeyed(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.RegisterValue("primary-db").Named("primary").AsInterface("Database")
	b.RegisterValue("tenant-db").Keyed("tenant-a").AsInterface("Database")
	b.RegisterFactory(func(r *Resolver) (any, error) {
		named, err := r.ResolveNamed("primary")
		if err != nil {
			return nil, err
		}
		keyed, err := r.ResolveKeyed("tenant-a")
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%v|%v", named, keyed), nil
	}).AsInterface("Report")

	c, err := b.Build()
	require.NoError(t, err)

	got, err := c.ResolveInterface("Report")
	require.NoError(t, err)
	assert.Equal(t, "primary-db|tenant-db", got)
}
