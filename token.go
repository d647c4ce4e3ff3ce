package rivet

import (
	"fmt"
	"sync/atomic"
)

var tokenCounter atomic.Uint64

// Token identifies a bindable dependency slot. Two tokens are never equal,
// even when created with the same description; identity is the pointer.
type Token struct {
	id          uint64
	description string
}

func NewToken(description ...string) *Token {
	t := &Token{id: tokenCounter.Add(1)}
	if len(description) > 0 {
		t.description = description[0]
	}
	return t
}

func (t *Token) ID() uint64 {
	return t.id
}

func (t *Token) Description() string {
	return t.description
}

func (t *Token) String() string {
	if t.description != "" {
		return "Token(" + t.description + ")"
	}
	return fmt.Sprintf("Token#%d", t.id)
}
