package tal

import (
	"sort"
	"strings"
	"unicode"
)

type DirectiveKind int

const (
	DirContent DirectiveKind = iota
	DirReplace
	DirCondition
	DirRepeat
	DirAttributes
	DirDefine
	DirExtends
	DirSlot
)

var directiveKeywords = map[string]DirectiveKind{
	"content":    DirContent,
	"replace":    DirReplace,
	"condition":  DirCondition,
	"repeat":     DirRepeat,
	"attributes": DirAttributes,
	"define":     DirDefine,
	"extends":    DirExtends,
	"slot":       DirSlot,
}

func (k DirectiveKind) String() string {
	for name, kind := range directiveKeywords {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Rank orders directives on one element; higher ranks apply first.
func (k DirectiveKind) Rank() int {
	switch k {
	case DirExtends:
		return 10
	case DirDefine:
		return 9
	case DirCondition:
		return 4
	case DirRepeat:
		return 3
	case DirReplace:
		return 2
	case DirAttributes, DirSlot:
		return 1
	default:
		return 0
	}
}

// Directive is one recognized directive attribute. Target is set only for
// the "_name" shorthand, which assigns a single attribute.
type Directive struct {
	Kind   DirectiveKind
	Attr   QName
	Expr   string
	Args   []string
	Target string
}

func (d Directive) Rank() int {
	return d.Kind.Rank()
}

func isShorthand(local string) bool {
	return len(local) > 1 && local[0] == '_'
}

// IsDirectiveAttr reports whether the attribute is consumed by the engine
// and never written out.
func IsDirectiveAttr(name QName) bool {
	return name.Space == Namespace || isShorthand(name.Local)
}

// ParseDirectives returns the directives among attrs, highest rank first.
// Equal ranks keep declaration order.
func ParseDirectives(attrs []Attr) []Directive {
	var directives []Directive
	for _, attr := range attrs {
		d := Directive{Attr: attr.Name, Expr: strings.TrimSpace(attr.Value)}
		if kind, ok := directiveKeywords[attr.Name.Local]; ok && attr.Name.Space == Namespace {
			d.Kind = kind
		} else if isShorthand(attr.Name.Local) {
			d.Kind = DirAttributes
			d.Target = attr.Name.Local[1:]
		} else {
			continue
		}
		d.Args = strings.Fields(d.Expr)
		directives = append(directives, d)
	}
	sort.SliceStable(directives, func(i, j int) bool {
		return directives[i].Rank() > directives[j].Rank()
	})
	return directives
}

// Clause is one "name expr" pair of a define or attributes directive.
type Clause struct {
	Name string
	Expr string
}

// ParseClauses splits "a expr; b expr" into clauses. ";;" stands for a
// literal semicolon and semicolons inside quotes do not split.
func ParseClauses(s string) []Clause {
	var (
		clauses []Clause
		buf     strings.Builder
		quote   byte
	)
	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		name, expr := text, ""
		if idx := strings.IndexFunc(text, unicode.IsSpace); idx >= 0 {
			name, expr = text[:idx], strings.TrimSpace(text[idx:])
		}
		clauses = append(clauses, Clause{Name: name, Expr: expr})
	}
	for idx := 0; idx < len(s); idx++ {
		ch := s[idx]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ';':
			if idx+1 < len(s) && s[idx+1] == ';' {
				idx++
				break
			}
			flush()
			continue
		}
		buf.WriteByte(ch)
	}
	flush()
	return clauses
}
