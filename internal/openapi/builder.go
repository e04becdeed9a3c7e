// Package openapi builds a type-definition catalog from the component
// schemas of an OpenAPI v3 document, giving projects that already have an
// OpenAPI spec an on-ramp to the declaration generator.
package openapi

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/dtsgen/dtsgen/internal/catalog"
)

// Load reads and validates an OpenAPI v3 document from a local file.
func Load(ctx context.Context, input string) (*openapi3.T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("openapi: input is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromFile(input)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", input, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate %s: %w", input, err)
	}
	return doc, nil
}

// Build maps the document's component schemas into a catalog, in sorted
// name order so output is deterministic. Shapes the domain model cannot
// express (inline objects, non-string enums) degrade to plain references;
// nothing is rejected.
func Build(doc *openapi3.T) *catalog.Catalog {
	cat := &catalog.Catalog{}
	if doc == nil || doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return cat
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cat.Definitions = append(cat.Definitions, toDefinition(name, doc.Components.Schemas[name]))
	}
	return cat
}

func toDefinition(name string, ref *openapi3.SchemaRef) catalog.TypeDefinition {
	if ref == nil || ref.Value == nil {
		return &catalog.UnionAlias{Name: name, Wraps: catalog.TypeName{Name: "unknown"}}
	}
	schema := ref.Value

	if len(schema.Enum) > 0 && schema.Type == "string" {
		e := &catalog.Enum{Name: name}
		for _, v := range schema.Enum {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprint(v)
			}
			e.Members = append(e.Members, catalog.EnumMember{Name: s, Representation: s})
		}
		return e
	}

	if len(schema.OneOf) > 0 || len(schema.AnyOf) > 0 {
		refs := schema.OneOf
		if len(refs) == 0 {
			refs = schema.AnyOf
		}
		items := make([]catalog.TypeExpression, 0, len(refs))
		for _, r := range refs {
			items = append(items, toExpression(r))
		}
		return &catalog.UnionAlias{Name: name, Wraps: catalog.UnionOf{Items: items}}
	}

	switch schema.Type {
	case "string":
		return &catalog.StringAlias{Name: name}
	case "number", "integer":
		return &catalog.NumberAlias{Name: name}
	case "object":
		if len(schema.Properties) == 0 {
			return &catalog.UnionAlias{Name: name, Wraps: toExpression(ref)}
		}
		required := make(map[string]bool, len(schema.Required))
		for _, r := range schema.Required {
			required[r] = true
		}
		propNames := make([]string, 0, len(schema.Properties))
		for propName := range schema.Properties {
			propNames = append(propNames, propName)
		}
		sort.Strings(propNames)
		iface := &catalog.Interface{Name: name}
		for _, propName := range propNames {
			iface.Properties = append(iface.Properties, catalog.Property{
				Name:     propName,
				Type:     toExpression(schema.Properties[propName]),
				Nullable: !required[propName],
			})
		}
		return iface
	default:
		return &catalog.UnionAlias{Name: name, Wraps: toExpression(ref)}
	}
}

func toExpression(ref *openapi3.SchemaRef) catalog.TypeExpression {
	if ref == nil {
		return catalog.TypeName{Name: "unknown"}
	}
	if ref.Ref != "" {
		return catalog.TypeName{Name: path.Base(ref.Ref)}
	}
	schema := ref.Value
	if schema == nil {
		return catalog.TypeName{Name: "unknown"}
	}
	if len(schema.OneOf) > 0 || len(schema.AnyOf) > 0 {
		refs := schema.OneOf
		if len(refs) == 0 {
			refs = schema.AnyOf
		}
		items := make([]catalog.TypeExpression, 0, len(refs))
		for _, r := range refs {
			items = append(items, toExpression(r))
		}
		return catalog.UnionOf{Items: items}
	}
	switch schema.Type {
	case "string":
		return catalog.TypeName{Name: "string"}
	case "number", "integer":
		return catalog.TypeName{Name: "number"}
	case "boolean":
		return catalog.TypeName{Name: "boolean"}
	case "array":
		return catalog.ArrayOf{Of: toExpression(schema.Items)}
	case "object":
		if schema.AdditionalProperties.Schema != nil {
			return catalog.SingleKeyDictionary{Value: toExpression(schema.AdditionalProperties.Schema)}
		}
		// Inline object shapes have no expression form in the model.
		return catalog.TypeName{Name: "object"}
	default:
		return catalog.TypeName{Name: "unknown"}
	}
}
