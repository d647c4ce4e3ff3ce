package rivet

import (
	"fmt"
	"sort"
	"strings"
)

type visitColor int

const (
	colorWhite visitColor = iota
	colorGray
	colorBlack
)

// Validate statically checks every binding resolvable from this container:
// explicit constructor dependencies must have a binding, and the explicit
// dependency graph must be acyclic. Convention-wired and resolver-wired
// parameters are skipped; they are only checkable at resolve time.
func (c *Container) Validate() error {
	if c.disposed.Load() {
		return errContainerDisposed("validate")
	}

	flat := c.flatView()

	var problems []string
	for t, e := range flat {
		if e.binding.kind != bindingConstructor {
			continue
		}
		for i, arg := range e.binding.args {
			if arg.token == nil {
				continue
			}
			if _, ok := flat[arg.token]; !ok {
				problems = append(problems, fmt.Sprintf(
					"%s: dependency %d (%s) has no binding", t, i, arg.token,
				))
			}
		}
	}

	colors := make(map[*Token]visitColor, len(flat))
	var visit func(t *Token, path []*Token)
	visit = func(t *Token, path []*Token) {
		switch colors[t] {
		case colorBlack:
			return
		case colorGray:
			problems = append(problems, "cycle: "+renderCycle(path, t))
			return
		}

		colors[t] = colorGray
		if e, ok := flat[t]; ok && e.binding.kind == bindingConstructor {
			for _, arg := range e.binding.args {
				if arg.token != nil {
					visit(arg.token, append(path, t))
				}
			}
		}
		colors[t] = colorBlack
	}

	for t := range flat {
		visit(t, nil)
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errValidationFailed(strings.Join(problems, "; "))
}

func renderCycle(path []*Token, repeated *Token) string {
	start := 0
	for i, t := range path {
		if t == repeated {
			start = i
			break
		}
	}

	parts := make([]string, 0, len(path)-start+1)
	for _, t := range path[start:] {
		parts = append(parts, t.String())
	}
	parts = append(parts, repeated.String())
	return strings.Join(parts, " -> ")
}
