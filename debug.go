package rivet

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// BindingInfo is a point-in-time snapshot of one resolvable binding, for
// debugging and introspection.
type BindingInfo struct {
	// Token is the binding token's debug string.
	Token string

	// Kind is the producer kind: value, factory, ctx-factory, or constructor.
	Kind string

	Lifetime Lifetime

	// Depth is how far up the chain the binding lives: 0 for this container,
	// 1 for its parent, and so on.
	Depth int

	// Instantiated reports whether the owning container holds a cached
	// singleton for the token.
	Instantiated bool

	// Dependencies lists the explicit dependency tokens of a constructor
	// binding. Convention-wired parameters are shown as their candidate
	// names.
	Dependencies []string
}

// Bindings snapshots every binding resolvable from this container, nearest
// shadowing binding per token, sorted by token string.
func (c *Container) Bindings() []BindingInfo {
	depth := make(map[*Container]int)
	d := 0
	for n := c; n != nil; n = n.parent {
		depth[n] = d
		d++
	}

	flat := c.flatView()
	infos := make([]BindingInfo, 0, len(flat))
	for t, e := range flat {
		infos = append(infos, BindingInfo{
			Token:        t.String(),
			Kind:         e.binding.kind.String(),
			Lifetime:     e.binding.lifetime,
			Depth:        depth[e.owner],
			Instantiated: e.owner.hasSingleton(t),
			Dependencies: bindingDeps(e.binding),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Token < infos[j].Token })
	return infos
}

func (c *Container) hasSingleton(token *Token) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.singletons[token]
	return ok
}

func bindingDeps(b *binding) []string {
	if b.kind != bindingConstructor || len(b.args) == 0 {
		return nil
	}

	deps := make([]string, 0, len(b.args))
	for _, arg := range b.args {
		switch {
		case arg.token != nil:
			deps = append(deps, arg.token.String())
		case arg.fn != nil:
			deps = append(deps, "<resolver>")
		case arg.lookup != nil:
			deps = append(deps, strings.Join(arg.lookup.candidates, "|"))
		default:
			deps = append(deps, "<zero>")
		}
	}
	return deps
}

// FprintBindings writes a human-readable table of the container's bindings
// to w.
func (c *Container) FprintBindings(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Token", "Kind", "Lifetime", "Depth", "Instantiated", "Dependencies"})

	for _, info := range c.Bindings() {
		t.AppendRow(table.Row{
			info.Token,
			info.Kind,
			info.Lifetime.String(),
			info.Depth,
			info.Instantiated,
			strings.Join(info.Dependencies, ", "),
		})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d bindings", c.Size()), "", "", "", "", ""})
	t.Render()
}

// SprintBindings renders the bindings table to a string.
func (c *Container) SprintBindings() string {
	var sb strings.Builder
	c.FprintBindings(&sb)
	return sb.String()
}
