package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError ErrorCode = "InputError"
	ParseError ErrorCode = "ParseError"
	ShapeError ErrorCode = "ShapeError"
)

// CatalogError is a structured loader error with an optional location
// describing which entry in the document was at fault.
type CatalogError struct {
	Code     ErrorCode
	Message  string
	Location string // file path plus an entry path like "definitions[3]"
	Cause    error
}

func (e *CatalogError) Error() string { return e.Message }
func (e *CatalogError) Unwrap() error { return e.Cause }

// Load reads a serialized catalog from path. Both YAML and JSON documents
// are accepted (yaml.v3 decodes either). The document shape is validated
// only as far as needed to build the model; semantic well-formedness
// (acyclic inheritance, generic arity, resolvable names) is not checked.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &CatalogError{Code: InputError, Message: "catalog: input path is empty"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Code: InputError, Message: fmt.Sprintf("catalog: read %s: %v", path, err), Location: path, Cause: err}
	}
	cat, err := Parse(data)
	if err != nil {
		var ce *CatalogError
		if errors.As(err, &ce) {
			if ce.Location != "" {
				ce.Location = path + ": " + ce.Location
			} else {
				ce.Location = path
			}
		}
		return nil, err
	}
	return cat, nil
}

// Parse decodes a serialized catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CatalogError{Code: ParseError, Message: fmt.Sprintf("catalog: parse: %v", err), Cause: err}
	}
	cat := &Catalog{}
	for i, d := range doc.Definitions {
		def, err := d.toDefinition(fmt.Sprintf("definitions[%d]", i))
		if err != nil {
			return nil, err
		}
		cat.Definitions = append(cat.Definitions, def)
	}
	return cat, nil
}

// Serialized document shapes. Each definition and each type expression is
// discriminated by a "kind" field.

type catalogDoc struct {
	Definitions []definitionDoc `yaml:"definitions"`
}

type definitionDoc struct {
	Kind     string          `yaml:"kind"`
	Name     string          `yaml:"name"`
	Wraps    *exprDoc        `yaml:"wraps"`
	Members  []memberDoc     `yaml:"members"`
	Generics []string        `yaml:"generics"`
	Inherits []*exprDoc      `yaml:"inherits"`
	Props    []propertyDoc   `yaml:"properties"`
	Path     []propertyDoc   `yaml:"path"`
	Query    []propertyDoc   `yaml:"query"`
	Body     *requestBodyDoc `yaml:"body"`
}

type memberDoc struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type propertyDoc struct {
	Name     string   `yaml:"name"`
	Type     *exprDoc `yaml:"type"`
	Nullable bool     `yaml:"nullable"`
}

type requestBodyDoc struct {
	Properties []propertyDoc `yaml:"properties"`
	Type       *exprDoc      `yaml:"type"`
}

type exprDoc struct {
	Kind     string     `yaml:"kind"`
	Name     string     `yaml:"name"`
	Of       *exprDoc   `yaml:"of"`
	Key      *exprDoc   `yaml:"key"`
	Value    *exprDoc   `yaml:"value"`
	Items    []*exprDoc `yaml:"items"`
	Generics []*exprDoc `yaml:"generics"`
}

func (d definitionDoc) toDefinition(loc string) (TypeDefinition, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, &CatalogError{Code: ShapeError, Message: "catalog: definition is missing a name", Location: loc}
	}
	switch d.Kind {
	case "string_alias":
		return &StringAlias{Name: d.Name}, nil
	case "number_alias":
		return &NumberAlias{Name: d.Name}, nil
	case "union_alias":
		if d.Wraps == nil {
			return nil, &CatalogError{Code: ShapeError, Message: fmt.Sprintf("catalog: union_alias %q has no wraps expression", d.Name), Location: loc}
		}
		wraps, err := d.Wraps.toExpression(loc + ".wraps")
		if err != nil {
			return nil, err
		}
		return &UnionAlias{Name: d.Name, Wraps: wraps}, nil
	case "enum":
		e := &Enum{Name: d.Name}
		for _, m := range d.Members {
			repr := m.Value
			if repr == "" {
				repr = m.Name
			}
			e.Members = append(e.Members, EnumMember{Name: m.Name, Representation: repr})
		}
		return e, nil
	case "interface":
		inherits, err := toExpressions(d.Inherits, loc+".inherits")
		if err != nil {
			return nil, err
		}
		props, err := toProperties(d.Props, loc+".properties")
		if err != nil {
			return nil, err
		}
		return &Interface{Name: d.Name, OpenGenerics: d.Generics, Inherits: inherits, Properties: props}, nil
	case "request":
		inherits, err := toExpressions(d.Inherits, loc+".inherits")
		if err != nil {
			return nil, err
		}
		pathProps, err := toProperties(d.Path, loc+".path")
		if err != nil {
			return nil, err
		}
		queryProps, err := toProperties(d.Query, loc+".query")
		if err != nil {
			return nil, err
		}
		req := &RequestInterface{
			Name:         d.Name,
			OpenGenerics: d.Generics,
			Inherits:     inherits,
			Path:         pathProps,
			Query:        queryProps,
		}
		if d.Body != nil {
			switch {
			case d.Body.Type != nil && len(d.Body.Properties) > 0:
				return nil, &CatalogError{Code: ShapeError, Message: fmt.Sprintf("catalog: request %q body has both a type and properties", d.Name), Location: loc + ".body"}
			case d.Body.Type != nil:
				bodyType, err := d.Body.Type.toExpression(loc + ".body.type")
				if err != nil {
					return nil, err
				}
				req.Body = bodyType
			default:
				bodyProps, err := toProperties(d.Body.Properties, loc+".body.properties")
				if err != nil {
					return nil, err
				}
				req.BodyProperties = bodyProps
			}
		}
		return req, nil
	default:
		return nil, &CatalogError{Code: ShapeError, Message: fmt.Sprintf("catalog: unknown definition kind %q", d.Kind), Location: loc}
	}
}

func toProperties(docs []propertyDoc, loc string) ([]Property, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	props := make([]Property, 0, len(docs))
	for i, p := range docs {
		prop := Property{Name: p.Name, Nullable: p.Nullable}
		if p.Type != nil {
			t, err := p.Type.toExpression(fmt.Sprintf("%s[%d].type", loc, i))
			if err != nil {
				return nil, err
			}
			prop.Type = t
		}
		props = append(props, prop)
	}
	return props, nil
}

func toExpressions(docs []*exprDoc, loc string) ([]TypeExpression, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	exprs := make([]TypeExpression, 0, len(docs))
	for i, d := range docs {
		e, err := d.toExpression(fmt.Sprintf("%s[%d]", loc, i))
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (d *exprDoc) toExpression(loc string) (TypeExpression, error) {
	if d == nil {
		return nil, &CatalogError{Code: ShapeError, Message: "catalog: missing type expression", Location: loc}
	}
	switch d.Kind {
	case "array":
		of, err := d.Of.toExpression(loc + ".of")
		if err != nil {
			return nil, err
		}
		return ArrayOf{Of: of}, nil
	case "dictionary":
		key, err := d.Key.toExpression(loc + ".key")
		if err != nil {
			return nil, err
		}
		value, err := d.Value.toExpression(loc + ".value")
		if err != nil {
			return nil, err
		}
		return Dictionary{Key: key, Value: value}, nil
	case "single_key_dictionary":
		value, err := d.Value.toExpression(loc + ".value")
		if err != nil {
			return nil, err
		}
		return SingleKeyDictionary{Value: value}, nil
	case "union":
		items, err := toExpressions(d.Items, loc+".items")
		if err != nil {
			return nil, err
		}
		return UnionOf{Items: items}, nil
	case "implements":
		generics, err := toExpressions(d.Generics, loc+".generics")
		if err != nil {
			return nil, err
		}
		return ImplementsReference{Name: d.Name, ClosedGenerics: generics}, nil
	case "ref", "":
		// A bare name is the common case; allow omitting the kind.
		if strings.TrimSpace(d.Name) == "" {
			return nil, &CatalogError{Code: ShapeError, Message: "catalog: reference has no name", Location: loc}
		}
		generics, err := toExpressions(d.Generics, loc+".generics")
		if err != nil {
			return nil, err
		}
		return TypeName{Name: d.Name, ClosedGenerics: generics}, nil
	default:
		return nil, &CatalogError{Code: ShapeError, Message: fmt.Sprintf("catalog: unknown type expression kind %q", d.Kind), Location: loc}
	}
}
