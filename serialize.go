package tal

import (
	"io"
	"regexp"
	"strings"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var charRef = regexp.MustCompile(`^&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

// escapeAttr quotes a raw attribute value. Quotes are always escaped and
// ampersands are escaped unless they start a character reference.
func escapeAttr(s string) string {
	if !strings.ContainsAny(s, `"&`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			b.WriteString("&quot;")
		case c == '&' && !charRef.MatchString(s[i:]):
			b.WriteString("&amp;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Escape replaces the five markup-significant characters with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Serializer writes a node tree as markup. Elements without children are
// self-closed. Fragments and other elements in the directive namespace are
// written as their children only, and directive attributes are never
// written.
type Serializer struct {
	w   io.Writer
	err error
}

func NewSerializer(w io.Writer) *Serializer {
	return &Serializer{w: w}
}

func (s *Serializer) Write(node Node) error {
	s.node(node)
	return s.err
}

func (s *Serializer) write(str string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, str)
}

func (s *Serializer) node(node Node) {
	if s.err != nil {
		return
	}
	switch n := node.(type) {
	case *Text:
		if n.Escape {
			s.write(Escape(n.Value))
		} else {
			s.write(n.Value)
		}
	case *Element:
		s.element(n)
	}
}

func (s *Serializer) element(el *Element) {
	if el.PassThrough() {
		for _, child := range el.Children {
			s.node(child)
		}
		return
	}
	name := el.Name.String()
	s.write("<")
	s.write(name)
	for _, attr := range el.Attrs {
		if IsDirectiveAttr(attr.Name) || declaresDirectiveNamespace(attr.Name) {
			continue
		}
		s.write(" ")
		s.write(attr.Name.String())
		s.write(`="`)
		if attr.Escape {
			s.write(Escape(attr.Value))
		} else {
			s.write(escapeAttr(attr.Value))
		}
		s.write(`"`)
	}
	if len(el.Children) == 0 {
		s.write("/>")
		return
	}
	s.write(">")
	for _, child := range el.Children {
		s.node(child)
	}
	s.write("</")
	s.write(name)
	s.write(">")
}

func declaresDirectiveNamespace(name QName) bool {
	return name.Space == "xmlns" && name.Local == Namespace
}

// Serialize renders node to a string.
func Serialize(node Node) (string, error) {
	var buf strings.Builder
	if err := NewSerializer(&buf).Write(node); err != nil {
		return "", err
	}
	return buf.String(), nil
}
