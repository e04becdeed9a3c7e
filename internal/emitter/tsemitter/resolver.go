package tsemitter

import (
	"strings"

	"github.com/dtsgen/dtsgen/internal/catalog"
)

// DictionaryResponseBase is the dictionary-like response base. A bound
// reference to it renders as a plain mapping over its closed generics
// instead of a named reference.
const DictionaryResponseBase = "DictionaryResponseBase"

// RequestBase is the internal request base type. Like
// DictionaryResponseBase it never appears as a standalone declaration.
const RequestBase = "RequestBase"

// Render converts a type expression into its TypeScript rendering. It is
// total: any expression, including a dangling reference or a nil value,
// produces some string rather than an error.
func Render(expr catalog.TypeExpression) string {
	switch e := expr.(type) {
	case catalog.ArrayOf:
		item := Render(e.Of)
		// Union operands need wrapping so the suffix binds to the whole
		// alternation.
		if strings.Contains(item, " | ") && !strings.HasPrefix(item, "(") {
			return "(" + item + ")[]"
		}
		return item + "[]"
	case catalog.Dictionary:
		return "Record<" + Render(e.Key) + ", " + Render(e.Value) + ">"
	case catalog.SingleKeyDictionary:
		return "Record<string, " + Render(e.Value) + ">"
	case catalog.UnionOf:
		parts := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			parts = append(parts, Render(item))
		}
		return strings.Join(parts, " | ")
	case catalog.ImplementsReference:
		if e.Name == DictionaryResponseBase {
			return "Record<" + renderList(e.ClosedGenerics) + ">"
		}
		if len(e.ClosedGenerics) > 1 {
			return e.Name + "<" + renderList(e.ClosedGenerics) + ">"
		}
		// A single closed generic falls back to the bare name; see the
		// arity note in DESIGN.md.
		return e.Name
	case catalog.TypeName:
		if len(e.ClosedGenerics) > 0 {
			return e.Name + "<" + renderList(e.ClosedGenerics) + ">"
		}
		return e.Name
	default:
		return "unknown"
	}
}

func renderList(exprs []catalog.TypeExpression) string {
	parts := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		parts = append(parts, Render(expr))
	}
	return strings.Join(parts, ", ")
}
