// Package dom decorates an in-memory HTML element tree with chainable
// helpers.
//
// Documents are parsed with golang.org/x/net/html and queried with CSS
// selectors through cascadia. Every element node is wrapped by exactly one
// *Element per Document, so listeners registered with On survive later
// lookups of the same node.
//
// Mutators (AddClass, SetAttr, SetCSS, Append, ...) return the receiver so
// calls chain. Accessors (Attr, CSS, HTML, Text, ...) return values.
//
// Nothing in this package is safe for concurrent use.
package dom
