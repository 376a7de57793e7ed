package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an HTML document tree.
type Document struct {
	root     *html.Node
	elements map[*html.Node]*Element
}

// SelectorError reports a CSS selector that failed to compile.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}

// Parse reads an HTML document. Like a browser, the parser repairs
// malformed markup instead of failing; errors come only from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return newDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument returns an empty document with html, head and body elements.
func NewDocument() *Document {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlNode := newElementNode("html")
	htmlNode.AppendChild(newElementNode("head"))
	htmlNode.AppendChild(newElementNode("body"))
	root.AppendChild(htmlNode)

	return newDocument(root)
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
	}
}

func newElementNode(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return d.wrap(n)
		}
	}
	return nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *Element {
	return d.childOfRoot(atom.Head)
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Element {
	return d.childOfRoot(atom.Body)
}

func (d *Document) childOfRoot(a atom.Atom) *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for n := root.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.DataAtom == a {
			return d.wrap(n)
		}
	}
	return nil
}

// CreateElement creates a detached element. Tag names are lower-cased.
func (d *Document) CreateElement(tag string) *Element {
	return d.wrap(newElementNode(tag))
}

// QuerySelector returns the first element matching selector in document
// order, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	return d.query(d.root, selector)
}

// QuerySelectorAll returns every element matching selector in document
// order.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	return d.queryAll(d.root, selector)
}

// Elements returns every element of the document in document order.
func (d *Document) Elements() []*Element {
	var out []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, d.wrap(c))
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document. Render errors yield "".
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) query(root *html.Node, selector string) (*Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return d.wrap(cascadia.Query(root, sel)), nil
}

func (d *Document) queryAll(root *html.Node, selector string) ([]*Element, error) {
	sel, err := compile(selector)
	if err != nil {
		return nil, err
	}
	nodes := cascadia.QueryAll(root, sel)
	out := make([]*Element, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap(n)
	}
	return out, nil
}

func compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	return sel, nil
}

// wrap returns the cached *Element for n, creating it on first use.
// Non-element nodes yield nil. Entries are never evicted, so memory held
// by detached subtrees lives as long as d.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// adopt moves the wrappers of el's subtree from their document into d.
func (d *Document) adopt(el *Element) {
	from := el.doc
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if w, ok := from.elements[n]; ok {
				delete(from.elements, n)
				w.doc = d
				d.elements[n] = w
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.node)
}
