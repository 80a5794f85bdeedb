package tal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeResolve(t *testing.T) {
	sc := NewScope(nil, mapOf(RenderContext{
		"a": map[string]any{
			"b": []any{"zero", "one", map[string]any{"c": "deep"}},
		},
		"user":  person{name: "Ada", age: 36},
		"shade": "outer",
	}))

	cases := []struct {
		path string
		want Value
		ok   bool
	}{
		{"a.b.2.c", String("deep"), true},
		{"a.b.0", String("zero"), true},
		{"a.b.3", nil, false},
		{"a.b.-1", nil, false},
		{"a.b.x", nil, false},
		{"a.missing", nil, false},
		{"user.name", String("Ada"), true},
		{"user.age", Number(36), true},
		{"user.email", nil, false},
		{"shade", String("outer"), true},
		{"", nil, false},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			got, ok := sc.Resolve(c.path)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestScopeInnermostFirst(t *testing.T) {
	sc := NewScope(nil, Map{"x": String("root"), "only": String("root")})
	sc.Push(Map{"x": String("inner")})

	v, ok := sc.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, String("inner"), v)

	v, ok = sc.Resolve("only")
	require.True(t, ok)
	assert.Equal(t, String("root"), v)

	sc.Pop()
	v, _ = sc.Resolve("x")
	assert.Equal(t, String("root"), v)
}

func TestScopeDoesNotMergeFrames(t *testing.T) {
	sc := NewScope(nil, Map{"p": Map{"name": String("outer"), "age": Number(1)}})
	sc.Push(Map{"p": Map{"name": String("inner")}})

	v, ok := sc.Resolve("p.name")
	require.True(t, ok)
	assert.Equal(t, String("inner"), v)

	// The inner "p" has no age; the outer frame resolves the whole path.
	v, ok = sc.Resolve("p.age")
	require.True(t, ok)
	assert.Equal(t, Number(1), v)
}

func TestScopePopKeepsRoot(t *testing.T) {
	sc := NewScope(nil, Map{"x": Bool(true)})
	assert.Equal(t, 1, sc.Depth())
	sc.Pop()
	sc.Pop()
	assert.Equal(t, 1, sc.Depth())
	assert.True(t, sc.Lookup("x").Bool())

	sc.Push(Map{})
	sc.Push(Map{})
	assert.Equal(t, 3, sc.Depth())
}

func TestScopeLookupMissing(t *testing.T) {
	sc := NewScope(nil, nil)
	res := sc.Lookup("nope")
	assert.Nil(t, res.Raw)
	assert.Equal(t, "", res.String())
	assert.False(t, res.Bool())
}

func TestScopeSlotOutermostFirst(t *testing.T) {
	derived := NewElement(QName{Local: "derived"}, nil)
	middle := NewElement(QName{Local: "middle"}, nil)
	only := NewElement(QName{Local: "only"}, nil)

	sc := NewScope(nil, nil)
	sc.Push(Map{slotsKey: slotTable{"content": derived}})
	sc.Push(Map{slotsKey: slotTable{"content": middle, "side": only}})

	el, ok := sc.slot("content")
	require.True(t, ok)
	assert.Same(t, derived, el)

	el, ok = sc.slot("side")
	require.True(t, ok)
	assert.Same(t, only, el)

	_, ok = sc.slot("missing")
	assert.False(t, ok)
}
