package tal

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/atom"
)

// Document is a parsed template. Root is a pass-through element holding every
// top-level node, so prologs, doctypes and sibling roots all survive a render.
type Document struct {
	Root       *Element
	Namespaces map[string]string
}

var documentName = QName{Space: Namespace, Local: "document"}

func newDocument() *Document {
	return &Document{
		Root:       NewElement(documentName, nil),
		Namespaces: map[string]string{},
	}
}

// Parser turns markup source into a Document.
type Parser interface {
	Parse(source string) (*Document, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(source string) (*Document, error)

func (f ParserFunc) Parse(source string) (*Document, error) {
	return f(source)
}

// XMLParser reads templates with encoding/xml. Names keep the prefix written
// in the source. Unless Strict is set it tolerates HTML habits: void
// elements without an end tag, bare or unquoted attributes, HTML entities,
// mismatched or missing end tags.
type XMLParser struct {
	Strict bool
}

type openElement struct {
	node *Element
	raw  string
}

func (p *XMLParser) Parse(source string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(source))
	dec.Strict = p.Strict
	if !p.Strict {
		dec.Entity = xml.HTMLEntity
	}
	doc := newDocument()
	stack := []openElement{{node: doc.Root}}
	top := func() *Element {
		return stack[len(stack)-1].node
	}
	appendChild := func(node Node) {
		parent := top()
		parent.Children = append(parent.Children, node)
	}
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.WithStack(err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			node := &Element{Name: qnameOf(tok.Name)}
			for _, attr := range tok.Attr {
				name := qnameOf(attr.Name)
				switch {
				case name.Space == "xmlns":
					doc.Namespaces[name.Local] = attr.Value
				case name.Space == "" && name.Local == "xmlns":
					doc.Namespaces[""] = attr.Value
				}
				node.Attrs = append(node.Attrs, Attr{Name: name, Value: attr.Value, Escape: true})
			}
			appendChild(node)
			raw := qnameOf(tok.Name).String()
			if !p.Strict && isVoid(raw) {
				continue
			}
			stack = append(stack, openElement{node: node, raw: raw})
		case xml.EndElement:
			raw := qnameOf(tok.Name).String()
			if p.Strict {
				if len(stack) == 1 || stack[len(stack)-1].raw != raw {
					return nil, errors.Errorf("unexpected end element </%s>", raw)
				}
				stack = stack[:len(stack)-1]
				continue
			}
			// Pop to the nearest matching element; stray end tags are dropped.
			for idx := len(stack) - 1; idx > 0; idx-- {
				if stack[idx].raw == raw {
					stack = stack[:idx]
					break
				}
			}
		case xml.CharData:
			appendChild(NewText(string(tok), true))
		case xml.Comment:
			appendChild(NewText("<!--"+string(tok)+"-->", false))
		case xml.ProcInst:
			inst := tok.Target
			if len(tok.Inst) > 0 {
				inst += " " + string(tok.Inst)
			}
			appendChild(NewText("<?"+inst+"?>", false))
		case xml.Directive:
			appendChild(NewText("<!"+string(tok)+">", false))
		}
	}
	if p.Strict && len(stack) > 1 {
		return nil, errors.Errorf("unclosed element <%s>", stack[len(stack)-1].raw)
	}
	return doc, nil
}

func qnameOf(name xml.Name) QName {
	return QName{Space: name.Space, Local: name.Local}
}

func isVoid(tag string) bool {
	switch atom.Lookup([]byte(strings.ToLower(tag))) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
