package rivet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebug_BindingsSnapshot(t *testing.T) {
	t.Parallel()

	parent := New()
	child := parent.CreateChild()

	cfgToken := NewToken("config")
	svcToken := NewToken("service")

	require.NoError(t, parent.BindValue(cfgToken, "cfg"))
	require.NoError(t, child.BindFactory(svcToken, func(r *Resolver) (any, error) {
		return "svc", nil
	}, WithBindLifetime(Singleton)))

	infos := child.Bindings()
	require.Len(t, infos, 2)

	byToken := make(map[string]BindingInfo, len(infos))
	for _, info := range infos {
		byToken[info.Token] = info
	}

	cfg := byToken["Token(config)"]
	assert.Equal(t, "value", cfg.Kind)
	assert.Equal(t, 1, cfg.Depth)

	svc := byToken["Token(service)"]
	assert.Equal(t, "factory", svc.Kind)
	assert.Equal(t, Singleton, svc.Lifetime)
	assert.Equal(t, 0, svc.Depth)
	assert.False(t, svc.Instantiated)

	_, err := child.Resolve(svcToken)
	require.NoError(t, err)

	infos = child.Bindings()
	for _, info := range infos {
		if info.Token == "Token(service)" {
			assert.True(t, info.Instantiated)
		}
	}
}

func TestDebug_BindingsListConstructorDeps(t *testing.T) {
	t.Parallel()

	c := New()
	dep := NewToken("dep")
	svc := NewToken("svc")

	require.NoError(t, c.BindValue(dep, 1))
	require.NoError(t, c.BindConstructor(svc, func(n int) int { return n + 1 }, []*Token{dep}))

	for _, info := range c.Bindings() {
		if info.Token == "Token(svc)" {
			assert.Equal(t, []string{"Token(dep)"}, info.Dependencies)
		}
	}
}

func TestDebug_SprintBindingsRendersTable(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.BindValue(NewToken("alpha"), 1))
	require.NoError(t, c.BindValue(NewToken("beta"), 2))

	out := c.SprintBindings()
	assert.Contains(t, out, "Token(alpha)")
	assert.Contains(t, out, "Token(beta)")
	assert.Contains(t, out, "2 bindings")
}
