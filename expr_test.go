package tal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	sc := NewScope(nil, mapOf(RenderContext{
		"name":   "ada",
		"padded": "  Hi  ",
		"html":   "<b>",
		"on":     true,
		"off":    false,
		"empty":  "",
		"count":  3,
		"user":   map[string]any{"role": "admin"},
	}))

	cases := []struct {
		expr   string
		want   string
		truthy bool
		escape bool
	}{
		{"", "", false, true},
		{"   ", "", false, true},
		{"'quoted'", "quoted", true, true},
		{`"double"`, "double", true, true},
		{"''", "", false, true},
		{"42", "42", true, true},
		{"-1.5", "-1.5", true, true},
		{"0", "0", false, true},
		{"1e3", "1000", true, true},
		{"TRUE", "true", true, true},
		{"false", "false", false, true},
		{"name", "ada", true, true},
		{"missing", "", false, true},
		{"user.role", "admin", true, true},
		{"count", "3", true, true},
		{"name|upper", "ADA", true, true},
		{" name | upper ", "ADA", true, true},
		{"padded|trim|upper", "HI", true, true},
		{"name|capitalize", "Ada", true, true},
		{"html|raw", "<b>", true, false},
		{"html|raw|upper", "<B>", true, false},
		{"html|upper|raw", "<B>", true, false},
		{"name|unknown|upper", "ADA", true, true},
		{"name|", "ada", true, true},
		{"on ? 'yes' : 'no'", "yes", true, true},
		{"off ? 'yes' : 'no'", "no", true, true},
		{"missing ? 'yes' : 'no'", "no", true, true},
		{"on ? name : 'no'", "ada", true, true},
		{"on ? name|upper : 'no'", "ADA", true, true},
		{"empty ? 'a' : off ? 'b' : 'c'", "c", true, true},
		{"on ? 'a:b' : 'c'", "a:b", true, true},
		{"'a?b'", "a?b", true, true},
		{"'x|upper'", "x|upper", true, true},
		{"on ? 'yes'", "", false, true},
		{"on ? '' : 'no'", "", false, true},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			res := sc.Evaluate(c.expr)
			assert.Equal(t, c.want, res.String())
			assert.Equal(t, c.truthy, res.Bool())
			assert.Equal(t, c.escape, res.Escape())
		})
	}
}

func TestEvaluateKeepsRawValue(t *testing.T) {
	sc := NewScope(nil, mapOf(RenderContext{"items": []int{1, 2}}))
	res := sc.Evaluate("items")
	list, ok := res.List()
	assert.True(t, ok)
	assert.Equal(t, List{Number(1), Number(2)}, list)
	assert.Empty(t, res.Modifiers)

	res = sc.Evaluate("items|upper")
	assert.Equal(t, "1,2", res.String())
	assert.Len(t, res.Modifiers, 1)
}

func TestEvaluateQuotedTernaryBranch(t *testing.T) {
	sc := NewScope(nil, Map{"name": String("ada"), "on": Bool(true), "off": Bool(false)})
	cases := []struct {
		expr   string
		want   string
		escape bool
	}{
		{"on ? 'name|upper' : ''", "ADA", true},
		{"on ? 'name' : 'nobody'", "ada", true},
		{"off ? 'name' : 'nobody'", "nobody", true},
		{`on ? "name|raw" : ''`, "ada", false},
		{"on ? 'missing|upper' : ''", "missing|upper", true},
		{"on ? '42' : ''", "42", true},
		{"off ? 'name' : ''", "", true},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			res := sc.Evaluate(c.expr)
			assert.Equal(t, c.want, res.String())
			assert.Equal(t, c.escape, res.Escape())
		})
	}
}

func TestSplitTop(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitTop("a|b|c", '|'))
	assert.Equal(t, []string{"'a|b'", "c"}, splitTop("'a|b'|c", '|'))
	assert.Equal(t, []string{`"it's"`, "x"}, splitTop(`"it's"|x`, '|'))
	assert.Equal(t, []string{"abc"}, splitTop("abc", '|'))
	assert.Equal(t, -1, indexTop("'?'", '?'))
}
