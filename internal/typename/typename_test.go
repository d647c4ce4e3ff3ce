package typename

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type widget struct{}

type Gadget struct{}

func TestBase_StripsPointers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "widget", Base(reflect.TypeOf(widget{})))
	assert.Equal(t, "widget", Base(reflect.TypeOf(&widget{})))
	assert.Equal(t, "Gadget", Base(reflect.TypeOf((**Gadget)(nil))))
}

func TestBase_UnnamedTypesYieldEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Base(reflect.TypeOf(struct{ X int }{})))
	assert.Empty(t, Base(reflect.TypeOf(func() {})))
	assert.Empty(t, Base(reflect.TypeOf(map[string]int{})))
}

func TestCapitalized(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Logger", Capitalized("logger"))
	assert.Equal(t, "Logger", Capitalized("Logger"))
	assert.Equal(t, "", Capitalized(""))
}

func TestLowerFirst(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "logger", LowerFirst("Logger"))
	assert.Equal(t, "logger", LowerFirst("logger"))
	assert.Equal(t, "", LowerFirst(""))
}

func TestCandidates_Order(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"logger", "Logger", "ILogger"}, Candidates("logger"))
	assert.Nil(t, Candidates(""))
}

func TestCandidates_DedupesAlreadyCapitalized(t *testing.T) {
	t.Parallel()

	// A capitalized name collapses the first two conventions.
	assert.Equal(t, []string{"Logger", "ILogger"}, Candidates("Logger"))
}

func TestParams_CachedPerType(t *testing.T) {
	t.Parallel()

	fn := func(a int, b string) {}
	ft := reflect.TypeOf(fn)

	first := Params(ft)
	second := Params(ft)

	assert.Len(t, first, 2)
	assert.Equal(t, reflect.TypeOf(0), first[0])
	assert.Equal(t, reflect.TypeOf(""), first[1])
	assert.Same(t, &first[0], &second[0])
}

func TestFuncName(t *testing.T) {
	t.Parallel()

	name := FuncName(reflect.ValueOf(TestFuncName))
	assert.Contains(t, name, "TestFuncName")

	notFunc := FuncName(reflect.ValueOf(42))
	assert.Equal(t, "int", notFunc)
}
