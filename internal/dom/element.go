package dom

import (
	"bytes"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element decorates one element node of a Document.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]Listener
}

// Node returns the underlying node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Document returns the document that owns e.
func (e *Element) Document() *Document {
	return e.doc
}

// Append moves child to the end of e's children. A child that is e or
// one of e's ancestors is ignored.
func (e *Element) Append(child *Element) *Element {
	if child == nil || isInclusiveAncestor(child.node, e.node) {
		return e
	}
	if p := child.node.Parent; p != nil {
		p.RemoveChild(child.node)
	}
	if child.doc != e.doc {
		e.doc.adopt(child)
	}
	e.node.AppendChild(child.node)
	return e
}

func isInclusiveAncestor(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute. Names are lower-cased; an empty name is
// ignored.
func (e *Element) SetAttr(name, value string) *Element {
	name = strings.ToLower(name)
	if name == "" {
		return e
	}
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return e
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	return e
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(name string) *Element {
	name = strings.ToLower(name)
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
	return e
}

// ToggleAttr removes the attribute if present, otherwise sets it to "".
func (e *Element) ToggleAttr(name string) *Element {
	if e.HasAttr(name) {
		return e.RemoveAttr(name)
	}
	return e.SetAttr(name, "")
}

// Empty removes every child node. Wrappers of the removed elements stay
// cached on the Document, see Remove.
func (e *Element) Empty() *Element {
	for c := e.node.FirstChild; c != nil; c = e.node.FirstChild {
		e.node.RemoveChild(c)
	}
	return e
}

// HTML renders the children of e.
func (e *Element) HTML() (string, error) {
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// SetHTML replaces the children of e with the parsed fragment. Markup is
// parsed in the context of e, so "<td>" inside a <tr> is kept.
func (e *Element) SetHTML(markup string) *Element {
	// ParseFragment fails only on a read error or an inconsistent context
	// node. A strings.Reader never fails and fragmentContext is consistent.
	nodes, _ := html.ParseFragment(strings.NewReader(markup), fragmentContext(e.node))
	e.Empty()
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
	return e
}

// fragmentContext returns n, or a detached copy of its tag when n's
// DataAtom no longer matches its Data after a direct Node edit.
func fragmentContext(n *html.Node) *html.Node {
	a := atom.Lookup([]byte(n.Data))
	if n.DataAtom == a {
		return n
	}
	return &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: a, Namespace: n.Namespace}
}

// Text returns the concatenated text of every descendant text node.
func (e *Element) Text() string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(e.node)
	return sb.String()
}

// SetText replaces the children of e with text. Line breaks become <br>
// elements.
func (e *Element) SetText(text string) *Element {
	e.Empty()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			e.node.AppendChild(newElementNode("br"))
		}
		if line != "" {
			e.node.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
	return e
}

// Parent returns the parent element, or nil for a detached element or the
// root <html> element.
func (e *Element) Parent() *Element {
	return e.doc.wrap(e.node.Parent)
}

// QS returns the first descendant matching selector, or nil.
func (e *Element) QS(selector string) (*Element, error) {
	return e.doc.query(e.node, selector)
}

// QSA returns every descendant matching selector in document order.
func (e *Element) QSA(selector string) ([]*Element, error) {
	return e.doc.queryAll(e.node, selector)
}

// Remove detaches e from its parent. A detached element is left as is.
// The Document keeps the wrappers of detached subtrees until it is
// discarded, so re-attaching one yields the same *Element with its
// listeners.
func (e *Element) Remove() *Element {
	if p := e.node.Parent; p != nil {
		p.RemoveChild(e.node)
	}
	return e
}

// String renders e itself, including its tag.
func (e *Element) String() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}
