package dom

import (
	"slices"
	"strings"
)

// validToken rejects class names a class list cannot hold.
func validToken(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\n\f\r")
}

// classes returns the class list, without duplicates.
func (e *Element) classes() []string {
	v, _ := e.Attr("class")
	var out []string
	for _, c := range strings.Fields(v) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) setClasses(list []string) {
	e.SetAttr("class", strings.Join(list, " "))
}

// AddClass adds a class. Empty names and names with whitespace are
// ignored.
func (e *Element) AddClass(name string) *Element {
	if !validToken(name) {
		return e
	}
	list := e.classes()
	if !slices.Contains(list, name) {
		list = append(list, name)
	}
	e.setClasses(list)
	return e
}

// HasClass reports whether the class is present.
func (e *Element) HasClass(name string) bool {
	return validToken(name) && slices.Contains(e.classes(), name)
}

// RemoveClass removes a class. An element without a class attribute is
// left untouched.
func (e *Element) RemoveClass(name string) *Element {
	if !validToken(name) || !e.HasAttr("class") {
		return e
	}
	list := slices.DeleteFunc(e.classes(), func(c string) bool { return c == name })
	e.setClasses(list)
	return e
}

// ToggleClass removes the class if present, otherwise adds it.
func (e *Element) ToggleClass(name string) *Element {
	if e.HasClass(name) {
		return e.RemoveClass(name)
	}
	return e.AddClass(name)
}
