package tal

import (
	"regexp"
	"strconv"
	"strings"
)

var numberLiteral = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?$`)

// Evaluate runs an expression against the scope. The grammar is
//
//	cond ? yes : no     ternary, the chosen branch evaluated recursively
//	term|mod|mod        pipe, modifiers applied left to right
//	'text' "text" 12 true false path.to.value
//
// Separators inside quotes are ignored. A quoted ternary branch loses one
// layer of quotes and is evaluated again, so 'name|upper' pipes the name
// variable; when the head of that branch resolves to nothing the unquoted
// text is used as a literal. A ternary missing its ':' is read as a plain
// pipe expression and unknown modifiers are dropped.
func (s *Scope) Evaluate(expr string) Result {
	res, _ := s.evaluate(expr)
	return res
}

// evaluate also reports whether the head of the pipe resolved.
func (s *Scope) evaluate(expr string) (Result, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Result{}, false
	}
	if cond, yes, no, ok := splitTernary(expr); ok {
		branch := no
		if res, _ := s.pipe(cond); res.Bool() {
			branch = yes
		}
		return s.branch(branch), true
	}
	return s.pipe(expr)
}

func (s *Scope) branch(text string) Result {
	if !isQuoted(text) {
		return s.Evaluate(text)
	}
	inner := text[1 : len(text)-1]
	if res, ok := s.evaluate(inner); ok {
		return res
	}
	return Result{Raw: String(inner)}
}

func (s *Scope) pipe(expr string) (Result, bool) {
	parts := splitTop(expr, '|')
	head, found := s.term(parts[0])
	res := Result{Raw: head}
	for _, part := range parts[1:] {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		mod, ok := s.modifiers.Lookup(name)
		if !ok {
			s.logger.Debug("unknown modifier dropped", "modifier", name, "expr", expr)
			continue
		}
		res.Modifiers = append(res.Modifiers, mod)
	}
	return res, found
}

// term evaluates a literal or a variable path. found is false for a path
// that does not resolve.
func (s *Scope) term(text string) (Value, bool) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, false
	case isQuoted(text):
		return String(text[1 : len(text)-1]), true
	case numberLiteral.MatchString(text):
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return String(text), true
		}
		return Number(n), true
	case strings.EqualFold(text, "true"):
		return Bool(true), true
	case strings.EqualFold(text, "false"):
		return Bool(false), true
	}
	return s.Resolve(text)
}

func isQuoted(text string) bool {
	if len(text) < 2 {
		return false
	}
	first, last := text[0], text[len(text)-1]
	return (first == '\'' || first == '"') && first == last
}

func splitTernary(expr string) (cond, yes, no string, ok bool) {
	q := indexTop(expr, '?')
	if q < 0 {
		return "", "", "", false
	}
	rest := expr[q+1:]
	c := indexTop(rest, ':')
	if c < 0 {
		return "", "", "", false
	}
	return strings.TrimSpace(expr[:q]), strings.TrimSpace(rest[:c]), strings.TrimSpace(rest[c+1:]), true
}

// indexTop returns the index of the first sep outside quotes, or -1.
func indexTop(s string, sep byte) int {
	var quote byte
	for idx := 0; idx < len(s); idx++ {
		ch := s[idx]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == sep:
			return idx
		}
	}
	return -1
}

// splitTop splits s on every sep outside quotes.
func splitTop(s string, sep byte) []string {
	var parts []string
	for {
		idx := indexTop(s, sep)
		if idx < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:idx])
		s = s[idx+1:]
	}
}
