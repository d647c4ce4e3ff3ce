package rivet

import (
	"github.com/rivet-di/rivet/internal/pool"
)

// resolutionContext tracks one top-level resolve call tree: the tokens
// currently being resolved (cycle detection) and the instances produced under
// the per-request lifetime. It must never outlive the call tree it was
// acquired for.
type resolutionContext struct {
	resolving  map[*Token]struct{}
	path       []*Token
	perRequest map[*Token]any
}

func newResolutionContext() *resolutionContext {
	return &resolutionContext{
		resolving:  make(map[*Token]struct{}),
		perRequest: make(map[*Token]any),
	}
}

func (rc *resolutionContext) isResolving(token *Token) bool {
	_, ok := rc.resolving[token]
	return ok
}

func (rc *resolutionContext) push(token *Token) {
	rc.resolving[token] = struct{}{}
	rc.path = append(rc.path, token)
}

func (rc *resolutionContext) pop() {
	n := len(rc.path) - 1
	token := rc.path[n]
	rc.path = rc.path[:n]
	delete(rc.resolving, token)
}

func (rc *resolutionContext) pathStrings() []string {
	if len(rc.path) == 0 {
		return nil
	}
	out := make([]string, len(rc.path))
	for i, t := range rc.path {
		out[i] = t.String()
	}
	return out
}

// cycleStrings renders the visitation path with the repeated token appended,
// so the cycle appears at both ends.
func (rc *resolutionContext) cycleStrings(token *Token) []string {
	return append(rc.pathStrings(), token.String())
}

func (rc *resolutionContext) instance(token *Token) (any, bool) {
	v, ok := rc.perRequest[token]
	return v, ok
}

func (rc *resolutionContext) store(token *Token, v any) {
	rc.perRequest[token] = v
}

func (rc *resolutionContext) reset() {
	clear(rc.resolving)
	clear(rc.perRequest)
	rc.path = rc.path[:0]
}

const contextPoolBound = 32

var contextPool = pool.New(contextPoolBound, newResolutionContext, func(rc *resolutionContext) {
	rc.reset()
})

func acquireContext() *resolutionContext {
	return contextPool.Get()
}

func releaseContext(rc *resolutionContext) {
	contextPool.Put(rc)
}
