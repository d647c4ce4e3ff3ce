// Package rivettest provides helpers for testing code that uses rivet
// containers.
package rivettest

import (
	"context"
	"sync"

	"github.com/rivet-di/rivet"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

// TestContainer wraps a container and disposes it when the test finishes.
type TestContainer struct {
	*rivet.Container
	tb TB
}

func New(tb TB, opts ...rivet.Option) *TestContainer {
	tb.Helper()

	c := rivet.New(opts...)
	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Dispose(context.Background()); err != nil {
			tb.Fatalf("failed to dispose container: %v", err)
		}
	})

	return tc
}

// Wrap adopts an already-built container, typically from a Builder, and
// disposes it when the test finishes.
func Wrap(tb TB, c *rivet.Container) *TestContainer {
	tb.Helper()

	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Dispose(context.Background()); err != nil {
			tb.Fatalf("failed to dispose container: %v", err)
		}
	})

	return tc
}

func (tc *TestContainer) RequireValidate() {
	tc.tb.Helper()

	if err := tc.Validate(); err != nil {
		tc.tb.Fatalf("container validation failed: %v", err)
	}
}

func (tc *TestContainer) MustBindValue(token *rivet.Token, value any) {
	tc.tb.Helper()

	if err := tc.BindValue(token, value); err != nil {
		tc.tb.Fatalf("failed to bind value %s: %v", token, err)
	}
}

func (tc *TestContainer) MustBindFactory(token *rivet.Token, fn rivet.FactoryFunc, opts ...rivet.BindOption) {
	tc.tb.Helper()

	if err := tc.BindFactory(token, fn, opts...); err != nil {
		tc.tb.Fatalf("failed to bind factory %s: %v", token, err)
	}
}

func MustResolve[T any](tc *TestContainer, token *rivet.Token) T {
	tc.tb.Helper()

	v, err := rivet.ResolveAs[T](tc.Container, token)
	if err != nil {
		tc.tb.Fatalf("failed to resolve %s: %v", token, err)
	}
	return v
}

func MustResolveInterface[T any](tc *TestContainer, name string) T {
	tc.tb.Helper()

	v, err := rivet.ResolveInterfaceAs[T](tc.Container, name)
	if err != nil {
		tc.tb.Fatalf("failed to resolve %q: %v", name, err)
	}
	return v
}

// DisposeRecorder records the order in which its Disposables are disposed.
// Use NewDisposable to mint instances that report into the recorder.
type DisposeRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *DisposeRecorder) record(name string) {
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
}

// Order returns the dispose order observed so far.
func (r *DisposeRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// NewDisposable returns a Disposable that records name on disposal and
// returns err.
func (r *DisposeRecorder) NewDisposable(name string, err error) rivet.Disposable {
	return &recordedDisposable{recorder: r, name: name, err: err}
}

type recordedDisposable struct {
	recorder *DisposeRecorder
	name     string
	err      error
}

func (d *recordedDisposable) Dispose(context.Context) error {
	d.recorder.record(d.name)
	return d.err
}
