// Package typename derives convention-matching names from reflected types.
//
// Go erases parameter names at runtime, so convention-based autowiring keys
// off the declared type name of each constructor parameter instead. Unnamed
// types (anonymous structs, funcs, channels) have no stable name and yield
// the empty string.
package typename

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Base returns the declared name of t with pointer indirection stripped.
func Base(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func Capitalized(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func LowerFirst(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	if unicode.IsLower(r) {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// Candidates lists the interface-registry names tried for a parameter type
// name, in order: the bare name, the capitalized name, and the I-prefixed
// capitalized name. Duplicates collapse while preserving order.
func Candidates(name string) []string {
	if name == "" {
		return nil
	}

	capitalized := Capitalized(name)
	out := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)

	for _, c := range []string{name, capitalized, "I" + capitalized} {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

var paramCache sync.Map // reflect.Type -> []reflect.Type

// Params returns the parameter types of a func type, cached per type.
func Params(fnType reflect.Type) []reflect.Type {
	if cached, ok := paramCache.Load(fnType); ok {
		return cached.([]reflect.Type)
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	paramCache.Store(fnType, params)
	return params
}

// FuncName returns the short name of a func value for diagnostics.
func FuncName(fn reflect.Value) string {
	if fn.Kind() != reflect.Func {
		return fn.Type().String()
	}

	pc := runtime.FuncForPC(fn.Pointer())
	if pc == nil {
		return fn.Type().String()
	}

	name := pc.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}
