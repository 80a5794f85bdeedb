package tal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type person struct {
	name string
	age  int
}

func (p person) Field(name string) (any, bool) {
	switch name {
	case "name":
		return p.name, true
	case "age":
		return p.age, true
	}
	return nil, false
}

func (p person) String() string { return "person:" + p.name }

func TestValueOf(t *testing.T) {
	when := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, nil},
		{"string", "x", String("x")},
		{"int", 3, Number(3)},
		{"uint8", uint8(7), Number(7)},
		{"float", 1.5, Number(1.5)},
		{"bool", true, Bool(true)},
		{"time", when, Time(when)},
		{"strings", []string{"a", "b"}, List{String("a"), String("b")}},
		{"anys", []any{1, "a", nil}, List{Number(1), String("a"), nil}},
		{"maps", []map[string]any{{"k": 1}}, List{Map{"k": Number(1)}}},
		{"map", map[string]any{"a": []int{1}}, Map{"a": List{Number(1)}}},
		{"string map", map[string]string{"a": "b"}, Map{"a": String("b")}},
		{"any map", map[any]any{1: "one"}, Map{"1": String("one")}},
		{"context", RenderContext{"a": 1}, Map{"a": Number(1)}},
		{"value", List{String("x")}, List{String("x")}},
		{"record", person{name: "Ada"}, Record{Fields: person{name: "Ada"}}},
		{"other", struct{ A int }{1}, String("{1}")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ValueOf(c.in))
		})
	}
}

func TestValueString(t *testing.T) {
	when := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   Value
		want string
	}{
		{"string", String("x"), "x"},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.25), "0.25"},
		{"negative", Number(-3), "-3"},
		{"bool", Bool(false), "false"},
		{"list", List{String("a"), Number(2), nil, Bool(true)}, "a,2,,true"},
		{"map", Map{"b": Number(2), "a": String("x")}, "a=x,b=2"},
		{"time", Time(when), "2024-03-09T10:30:00Z"},
		{"record stringer", Record{Fields: person{name: "Ada"}}, "person:Ada"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.in.String())
		})
	}
}

func TestResultBool(t *testing.T) {
	cases := []struct {
		name string
		raw  Value
		want bool
	}{
		{"nil", nil, false},
		{"empty string", String(""), false},
		{"false string", String("false"), false},
		{"zero string", String("0"), false},
		{"text", String("no"), true},
		{"False is text", String("False"), true},
		{"zero", Number(0), false},
		{"number", Number(-1), true},
		{"bool false", Bool(false), false},
		{"bool true", Bool(true), true},
		{"empty list", List{}, true},
		{"empty map", Map{}, true},
		{"record", Record{Fields: person{}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Result{Raw: c.raw}.Bool())
		})
	}
}

func TestResultModifiers(t *testing.T) {
	mods := NewModifiers()
	trim, _ := mods.Lookup("trim")
	upper, _ := mods.Lookup("upper")
	raw, _ := mods.Lookup("raw")

	res := Result{Raw: String("  Hi  "), Modifiers: []*Modifier{trim, upper}}
	assert.Equal(t, "HI", res.String())
	assert.True(t, res.Escape())

	res = Result{Raw: String("<b>"), Modifiers: []*Modifier{raw, upper}}
	assert.Equal(t, "<B>", res.String())
	assert.False(t, res.Escape())

	_, ok := Result{Raw: String("x")}.List()
	assert.False(t, ok)
	list, ok := Result{Raw: List{Number(1)}}.List()
	assert.True(t, ok)
	assert.Len(t, list, 1)
}
