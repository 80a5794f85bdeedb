package tal

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser builds a Document with the golang.org/x/net/html tokenizer. It
// does not apply the HTML5 tree construction rules; the tree mirrors the
// source as written. Tag and attribute names are lower-cased by the
// tokenizer. Bodies of script and style elements are kept verbatim.
type HTMLParser struct{}

func (p *HTMLParser) Parse(source string) (*Document, error) {
	z := html.NewTokenizer(strings.NewReader(source))
	doc := newDocument()
	stack := []openElement{{node: doc.Root}}
	appendChild := func(node Node) {
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
	}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return doc, nil
			}
			return nil, errors.WithStack(z.Err())
		case html.TextToken:
			appendChild(NewText(string(z.Text()), !isRawText(stack[len(stack)-1].raw)))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			raw := string(name)
			node := &Element{Name: ParseQName(raw)}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attr := Attr{Name: ParseQName(string(key)), Value: string(val), Escape: true}
				if attr.Name.Space == "xmlns" {
					doc.Namespaces[attr.Name.Local] = attr.Value
				}
				node.Attrs = append(node.Attrs, attr)
			}
			appendChild(node)
			if tt == html.SelfClosingTagToken || isVoid(raw) {
				continue
			}
			stack = append(stack, openElement{node: node, raw: raw})
		case html.EndTagToken:
			name, _ := z.TagName()
			raw := string(name)
			for idx := len(stack) - 1; idx > 0; idx-- {
				if stack[idx].raw == raw {
					stack = stack[:idx]
					break
				}
			}
		case html.CommentToken:
			appendChild(NewText("<!--"+string(z.Text())+"-->", false))
		case html.DoctypeToken:
			appendChild(NewText("<!DOCTYPE "+string(z.Text())+">", false))
		}
	}
}

func isRawText(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}
