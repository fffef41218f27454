// Package dom holds the static, writable copy of a rendered document.
//
// The tree is parsed once from the browser's serialized DOM. Embedding passes
// select nodes with CSS selectors (same grammar as the browser's
// querySelectorAll, same document order) and rewrite them in place.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for tree operations.
var (
	ErrParse    = errors.New("dom: cannot parse document")
	ErrRender   = errors.New("dom: cannot render document")
	ErrSelector = errors.New("dom: invalid selector")
)

// Tree is a parsed HTML document or fragment.
type Tree struct {
	root       *html.Node
	isFragment bool
}

// Parse parses content as a full document when it starts with a doctype or
// <html> tag, and as a body fragment otherwise.
func Parse(content string) (*Tree, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return &Tree{root: doc}, nil
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return &Tree{root: container, isFragment: true}, nil
}

// Root returns the document node.
func (t *Tree) Root() *html.Node {
	return t.root
}

// QueryAll returns every element matching sel in document order.
func (t *Tree) QueryAll(sel string) ([]*html.Node, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSelector, sel, err)
	}
	return s.MatchAll(t.root), nil
}

// Query returns the first element matching sel, or nil.
func (t *Tree) Query(sel string) (*html.Node, error) {
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSelector, sel, err)
	}
	return s.MatchFirst(t.root), nil
}

// RemoveAll detaches every element matching sel and reports how many were removed.
func (t *Tree) RemoveAll(sel string) (int, error) {
	nodes, err := t.QueryAll(sel)
	if err != nil {
		return 0, err
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(nodes), nil
}

// Render serializes the tree. Fragments render their top-level nodes only.
func (t *Tree) Render() (string, error) {
	var buf strings.Builder

	if t.isFragment {
		for c := t.root.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", fmt.Errorf("%w: %v", ErrRender, err)
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, t.root); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds the attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// NewElement builds a detached element node.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// Replace puts repl where old was. old is detached afterwards.
func Replace(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}
