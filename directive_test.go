package tal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func talAttr(local, value string) Attr {
	return Attr{Name: QName{Space: Namespace, Local: local}, Value: value, Escape: true}
}

func TestParseDirectives(t *testing.T) {
	attrs := []Attr{
		talAttr("content", "body"),
		{Name: QName{Local: "class"}, Value: "x"},
		talAttr("repeat", "item in items"),
		{Name: QName{Local: "_href"}, Value: "item.url"},
		talAttr("condition", "show"),
		talAttr("attributes", "id 'a'"),
		talAttr("define", "x 1"),
		talAttr("unknown", "x"),
		{Name: QName{Space: "other", Local: "content"}, Value: "x"},
		talAttr("extends", "base"),
	}
	directives := ParseDirectives(attrs)
	require.Len(t, directives, 7)

	kinds := make([]DirectiveKind, len(directives))
	for idx, d := range directives {
		kinds[idx] = d.Kind
	}
	assert.Equal(t, []DirectiveKind{
		DirExtends, DirDefine, DirCondition, DirRepeat, DirAttributes, DirAttributes, DirContent,
	}, kinds)

	// Equal ranks keep declaration order.
	assert.Equal(t, "href", directives[4].Target)
	assert.Equal(t, "", directives[5].Target)
	assert.Equal(t, []string{"item", "in", "items"}, directives[3].Args)
}

func TestDirectiveRanks(t *testing.T) {
	assert.Greater(t, DirExtends.Rank(), DirDefine.Rank())
	assert.Greater(t, DirDefine.Rank(), DirCondition.Rank())
	assert.Greater(t, DirCondition.Rank(), DirRepeat.Rank())
	assert.Greater(t, DirRepeat.Rank(), DirReplace.Rank())
	assert.Greater(t, DirReplace.Rank(), DirAttributes.Rank())
	assert.Equal(t, DirAttributes.Rank(), DirSlot.Rank())
	assert.Greater(t, DirSlot.Rank(), DirContent.Rank())
	assert.Equal(t, "condition", DirCondition.String())
	assert.Equal(t, "unknown", DirectiveKind(99).String())
}

func TestIsDirectiveAttr(t *testing.T) {
	assert.True(t, IsDirectiveAttr(QName{Space: Namespace, Local: "content"}))
	assert.True(t, IsDirectiveAttr(QName{Space: Namespace, Local: "anything"}))
	assert.True(t, IsDirectiveAttr(QName{Local: "_class"}))
	assert.False(t, IsDirectiveAttr(QName{Local: "_"}))
	assert.False(t, IsDirectiveAttr(QName{Local: "class"}))
	assert.False(t, IsDirectiveAttr(QName{Space: "xlink", Local: "href"}))
}

func TestParseClauses(t *testing.T) {
	cases := []struct {
		in   string
		want []Clause
	}{
		{"", nil},
		{"a x", []Clause{{"a", "x"}}},
		{"a x; b  y|upper ;", []Clause{{"a", "x"}, {"b", "y|upper"}}},
		{"a x;;y; b z", []Clause{{"a", "x;y"}, {"b", "z"}}},
		{"title 'a;b'; id 'x'", []Clause{{"title", "'a;b'"}, {"id", "'x'"}}},
		{"flag", []Clause{{"flag", ""}}},
		{" ; ;a\tb", []Clause{{"a", "b"}}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ParseClauses(c.in))
		})
	}
}

func TestParseRepeat(t *testing.T) {
	cases := []struct {
		in         string
		name, expr string
		ok         bool
	}{
		{"item in items", "item", "items", true},
		{"item items", "item", "items", true},
		{"  item   in\titems.all ", "item", "items.all", true},
		{"item index", "item", "index", true},
		{"item inner", "item", "inner", true},
		{"item in", "", "", false},
		{"item", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			name, expr, ok := parseRepeat(c.in)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.name, name)
				assert.Equal(t, c.expr, expr)
			}
		})
	}
}
