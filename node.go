package tal

import (
	"strings"

	"github.com/pkg/errors"
)

// Namespace is the reserved prefix of directive attributes and pass-through elements.
const Namespace = "tal"

var UndefinedNodeError = errors.New("node is undefined")

// QName is a namespace-prefixed name such as "tal:content". The zero value is
// the "never" name used for absent values.
type QName struct {
	Space string
	Local string
}

// ParseQName splits "ns:local" on its colon. Names with no colon or more than
// one are taken verbatim as a local name.
func ParseQName(s string) QName {
	if strings.Count(s, ":") != 1 {
		return QName{Local: s}
	}
	space, local, _ := strings.Cut(s, ":")
	return QName{Space: space, Local: local}
}

func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return q.Space + ":" + q.Local
}

func (q QName) IsZero() bool {
	return q.Local == "" && q.Space == ""
}

// Attr is a tag attribute. Two attrs are Equal when their names match, the
// value does not take part.
type Attr struct {
	Name   QName
	Value  string
	Escape bool
}

func (a Attr) Equal(b Attr) bool {
	return a.Name == b.Name
}

// Node is either an *Element or a *Text leaf.
type Node interface {
	isNode()
}

// Text is a character run. Escape is false for runs that must be written
// verbatim: comments, doctypes, raw-text element bodies and "raw" output.
type Text struct {
	Value  string
	Escape bool
}

func (*Text) isNode() {}

func NewText(value string, escape bool) *Text {
	return &Text{Value: value, Escape: escape}
}

type Element struct {
	Name     QName
	Attrs    []Attr
	Children []Node
}

func (*Element) isNode() {}

// NewElement copies attrs and children into a new element.
func NewElement(name QName, attrs []Attr, children ...Node) *Element {
	el := &Element{Name: name}
	if len(attrs) > 0 {
		el.Attrs = append([]Attr(nil), attrs...)
	}
	if len(children) > 0 {
		el.Children = append([]Node(nil), children...)
	}
	return el
}

var fragmentName = QName{Space: Namespace, Local: "fragment"}

// NewFragment builds the container that serializes as its children only.
func NewFragment(children ...Node) *Element {
	return NewElement(fragmentName, nil, children...)
}

func (el *Element) IsFragment() bool {
	return el.Name == fragmentName
}

// PassThrough reports whether the element is written without its own tag.
func (el *Element) PassThrough() bool {
	return el.Name.Space == Namespace
}

// IsLeaf reports whether the element has no element children. Text children
// do not count.
func (el *Element) IsLeaf() bool {
	for _, child := range el.Children {
		if _, ok := child.(*Element); ok {
			return false
		}
	}
	return true
}

func (el *Element) Attr(name QName) (Attr, bool) {
	for _, attr := range el.Attrs {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attr{}, false
}

// RemoveAttr drops the first attribute with the given name. A missing
// attribute is not an error.
func (el *Element) RemoveAttr(name QName) bool {
	for idx, attr := range el.Attrs {
		if attr.Name != name {
			continue
		}
		el.Attrs = append(el.Attrs[:idx:idx], el.Attrs[idx+1:]...)
		return true
	}
	return false
}

// SetAttr replaces the first attribute Equal to attr, or appends it.
func (el *Element) SetAttr(attr Attr) {
	for idx := range el.Attrs {
		if el.Attrs[idx].Equal(attr) {
			el.Attrs[idx] = attr
			return
		}
	}
	el.Attrs = append(el.Attrs, attr)
}

// Copy deep-copies el into target.
func (el *Element) Copy(target *Element) {
	if target == nil {
		panic(UndefinedNodeError)
	}
	target.Name = el.Name
	target.Attrs = append([]Attr(nil), el.Attrs...)
	target.Children = nil
	if len(el.Children) == 0 {
		return
	}
	target.Children = make([]Node, len(el.Children))
	for idx, current := range el.Children {
		target.Children[idx] = CloneNode(current)
	}
}

func (el *Element) Clone() *Element {
	copyNode := new(Element)
	el.Copy(copyNode)
	return copyNode
}

// shallow copies the element header and attribute list, sharing children.
func (el *Element) shallow() *Element {
	return &Element{
		Name:     el.Name,
		Attrs:    append([]Attr(nil), el.Attrs...),
		Children: el.Children,
	}
}

func CloneNode(node Node) Node {
	switch n := node.(type) {
	case *Element:
		return n.Clone()
	case *Text:
		text := *n
		return &text
	default:
		panic(UndefinedNodeError)
	}
}
