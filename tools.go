package tal

import (
	"regexp"
)

var lineBreakIndent = regexp.MustCompile(`\n[ \t]*$`)

// GetNodeIndent returns the line break and indentation that precede
// children[idx], taken from the end of the text node right before it.
func GetNodeIndent(children []Node, idx int) string {
	if idx <= 0 || idx >= len(children) {
		return ""
	}
	if !IsLineBreakNode(children[idx-1]) {
		return ""
	}
	return lineBreakIndent.FindString(children[idx-1].(*Text).Value)
}

// IsLineBreakNode reports whether node is a text run ending in a line break
// and indentation.
func IsLineBreakNode(node Node) bool {
	text, ok := node.(*Text)
	return ok && text.Escape && lineBreakIndent.MatchString(text.Value)
}

// indentRepeat puts indent between the items of a repeat fragment so each
// copy starts on its own line.
func indentRepeat(fragment *Element, indent string) {
	if indent == "" || len(fragment.Children) < 2 {
		return
	}
	children := make([]Node, 0, len(fragment.Children)*2-1)
	for idx, child := range fragment.Children {
		if idx > 0 {
			children = append(children, NewText(indent, true))
		}
		children = append(children, child)
	}
	fragment.Children = children
}
