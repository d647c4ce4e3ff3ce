package rivet

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rivet-di/rivet/internal/typename"
)

// ArgResolver produces one constructor argument. Nested resolves made through
// r participate in the enclosing resolution tree.
type ArgResolver func(r *Resolver) (any, error)

// Strategy selects how constructor parameters without explicit per-parameter
// configuration are matched to registrations.
type Strategy int

const (
	// StrategyTypeName matches each parameter's declared type name against
	// the interface-name registry, trying the bare name, the capitalized
	// name, and the I-prefixed capitalized name, in that order.
	StrategyTypeName Strategy = iota

	// StrategyGenerated is reserved for build-time generated resolver
	// metadata and always fails: the generator rewrites registrations into
	// MapResolvers form before this container ever sees them.
	StrategyGenerated
)

func (s Strategy) String() string {
	switch s {
	case StrategyTypeName:
		return "type-name"
	case StrategyGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Position carries positional resolver metadata, typically emitted by the
// build-time transformer. Index addresses a parameter slot; Name is matched
// against the parameter's derived type name when no entry claims the slot.
type Position struct {
	Name     string
	Index    int
	TypeName string
}

// AutowireOptions configures how a constructor's parameters are resolved.
// Dispatch priority: MapResolvers, then Positions, then Map, then the By
// strategy (StrategyTypeName when unset). Entries in MapResolvers and Map
// must be nil, *Token, or ArgResolver.
type AutowireOptions struct {
	MapResolvers []any
	Positions    []Position
	Map          map[string]any
	By           Strategy
	Strict       bool
}

// buildAutowirePlan compiles options into per-parameter argument resolvers.
// Malformed entries and strict misses in the static strategies fail here, at
// build time; the convention strategy defers its lookups to resolve time
// because the interface-name registry keeps growing after build.
func buildAutowirePlan(c *Container, ctor *constructor, opts *AutowireOptions) ([]argResolver, error) {
	if opts != nil && opts.MapResolvers != nil {
		return planMapResolvers(ctor, opts)
	}
	if opts != nil && opts.Positions != nil {
		return planPositions(c, ctor, opts)
	}

	if len(ctor.params) == 0 {
		return nil, nil
	}

	if opts != nil && opts.Map != nil {
		return planMap(ctor, opts)
	}

	by, strict := StrategyTypeName, false
	if opts != nil {
		by, strict = opts.By, opts.Strict
	}

	switch by {
	case StrategyTypeName:
		return planTypeName(ctor, strict)
	case StrategyGenerated:
		return nil, errUnsupportedStrategy(ctor.name)
	default:
		return nil, errAutowireConfig(ctor.name, fmt.Sprintf("unknown strategy %d", by))
	}
}

func planMapResolvers(ctor *constructor, opts *AutowireOptions) ([]argResolver, error) {
	args := make([]argResolver, len(ctor.params))

	for i, param := range ctor.params {
		args[i] = argResolver{typ: param}
		if i >= len(opts.MapResolvers) {
			continue
		}

		arg, err := entryResolver(ctor, fmt.Sprintf("MapResolvers[%d]", i), opts.MapResolvers[i], param)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func planPositions(c *Container, ctor *constructor, opts *AutowireOptions) ([]argResolver, error) {
	byIndex := make(map[int]Position, len(opts.Positions))
	byName := make(map[string]Position, len(opts.Positions))
	for _, p := range opts.Positions {
		byIndex[p.Index] = p
		if p.Name != "" {
			byName[strings.ToLower(p.Name)] = p
		}
	}

	args := make([]argResolver, len(ctor.params))
	for i, param := range ctor.params {
		entry, ok := byIndex[i]
		if !ok {
			// Positions survive refactors that reorder declarations: fall
			// back to the name matched against the parameter's type name.
			if base := typename.Base(param); base != "" {
				entry, ok = byName[strings.ToLower(base)]
			}
		}

		if !ok || entry.TypeName == "" {
			if opts.Strict {
				return nil, errAutowireConfig(ctor.name, fmt.Sprintf(
					"no Positions entry matched parameter %d (%s)", i, param,
				))
			}
			args[i] = argResolver{typ: param}
			continue
		}

		args[i] = argResolver{token: c.InterfaceToken(entry.TypeName), typ: param}
	}
	return args, nil
}

func planMap(ctor *constructor, opts *AutowireOptions) ([]argResolver, error) {
	args := make([]argResolver, len(ctor.params))

	for i, param := range ctor.params {
		base := typename.Base(param)

		entry, ok := opts.Map[base]
		if !ok && base != "" {
			entry, ok = opts.Map[typename.LowerFirst(base)]
		}

		if !ok {
			if opts.Strict {
				return nil, errAutowireConfig(ctor.name, fmt.Sprintf(
					"no Map entry for parameter %d; keys tried: %q, %q",
					i, base, typename.LowerFirst(base),
				))
			}
			args[i] = argResolver{typ: param}
			continue
		}

		arg, err := entryResolver(ctor, fmt.Sprintf("Map[%q]", base), entry, param)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func planTypeName(ctor *constructor, strict bool) ([]argResolver, error) {
	args := make([]argResolver, len(ctor.params))

	for i, param := range ctor.params {
		base := typename.Base(param)
		candidates := typename.Candidates(base)

		if len(candidates) == 0 && strict {
			return nil, errAutowireConfig(ctor.name, fmt.Sprintf(
				"parameter %d has an unnamed type (%s); no convention can match it", i, param,
			))
		}

		args[i] = argResolver{
			lookup: &conventionLookup{
				candidates: candidates,
				strict:     strict,
				ctorName:   ctor.name,
				index:      i,
			},
			typ: param,
		}
	}
	return args, nil
}

func entryResolver(ctor *constructor, where string, entry any, param reflect.Type) (argResolver, error) {
	switch e := entry.(type) {
	case nil:
		return argResolver{typ: param}, nil
	case *Token:
		return argResolver{token: e, typ: param}, nil
	case ArgResolver:
		return argResolver{fn: e, typ: param}, nil
	case func(r *Resolver) (any, error):
		return argResolver{fn: e, typ: param}, nil
	default:
		return argResolver{}, errAutowireConfig(ctor.name, fmt.Sprintf(
			"%s must be nil, *Token, or ArgResolver, got %T", where, entry,
		))
	}
}
