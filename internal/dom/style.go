package dom

import (
	"sort"
	"strings"
	"unicode"

	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
)

type declaration struct {
	property string
	value    string
}

// parseStyle splits an inline style attribute into declarations.
// Semicolons inside strings and url() stay part of the value.
// Malformed declarations are dropped.
func parseStyle(style string) []declaration {
	var out []declaration
	for _, chunk := range splitDeclarations(style) {
		decls, err := parser.ParseDeclarations(chunk)
		if err != nil {
			continue
		}
		for _, d := range decls {
			prop := cssProperty(strings.TrimSpace(d.Property))
			value := strings.TrimSpace(d.Value)
			if prop == "" || value == "" {
				continue
			}
			if d.Important {
				value += " !important"
			}
			out = append(out, declaration{property: prop, value: value})
		}
	}
	return out
}

// splitDeclarations cuts style at top-level semicolons so one bad
// declaration does not hide the ones after it.
func splitDeclarations(style string) []string {
	var (
		out []string
		cur strings.Builder
	)
	s := scanner.New(style)
	for {
		tok := s.Next()
		switch {
		case tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError:
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
			return out
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteString(tok.Value)
		}
	}
}

func formatStyle(decls []declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.property + ": " + d.value + ";"
	}
	return strings.Join(parts, " ")
}

// cssProperty converts a camelCase property ("backgroundColor") to its
// hyphenated form ("background-color"). Custom properties keep their case.
func cssProperty(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}
	if name == "cssFloat" {
		return "float"
	}

	var sb strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// CSS returns the inline value of a style property, or "" when unset.
// Property names may be camelCase or hyphenated. Only the style attribute
// is consulted; stylesheets are not applied.
func (e *Element) CSS(property string) string {
	style, _ := e.Attr("style")
	property = cssProperty(property)
	for _, d := range parseStyle(style) {
		if d.property == property {
			return d.value
		}
	}
	return ""
}

// SetCSS sets inline style properties. An empty value removes the
// property. Properties are applied in sorted key order, and existing
// properties keep their position.
func (e *Element) SetCSS(props map[string]string) *Element {
	if len(props) == 0 {
		return e
	}
	style, _ := e.Attr("style")
	decls := parseStyle(style)

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		decls = setDeclaration(decls, cssProperty(k), strings.TrimSpace(props[k]))
	}
	return e.SetAttr("style", formatStyle(decls))
}

func setDeclaration(decls []declaration, property, value string) []declaration {
	for i, d := range decls {
		if d.property != property {
			continue
		}
		if value == "" {
			return append(decls[:i], decls[i+1:]...)
		}
		decls[i].value = value
		return decls
	}
	if value == "" || property == "" {
		return decls
	}
	return append(decls, declaration{property: property, value: value})
}
