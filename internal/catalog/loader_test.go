package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalogYAML = `
definitions:
  - kind: string_alias
    name: Id
  - kind: number_alias
    name: Timeout
  - kind: enum
    name: Conflicts
    members:
      - name: abort
      - name: proceed
        value: proceed
  - kind: union_alias
    name: Indices
    wraps:
      kind: union
      items:
        - name: IndexName
        - kind: array
          of:
            name: IndexName
  - kind: interface
    name: Box
    generics: [T]
    properties:
      - name: items
        type:
          kind: array
          of:
            name: T
  - kind: request
    name: SearchRequest
    inherits:
      - kind: implements
        name: RequestBase
    path:
      - name: index
        type:
          name: Indices
    query:
      - name: timeout
        nullable: true
        type:
          name: Timeout
    body:
      properties:
        - name: query
          nullable: true
          type:
            name: QueryContainer
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(p, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return p
}

func TestLoad_SampleCatalog(t *testing.T) {
	t.Parallel()

	cat, err := Load(writeCatalog(t, sampleCatalogYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Definitions) != 6 {
		t.Fatalf("definitions: got %d, want 6", len(cat.Definitions))
	}

	// Order must follow the document.
	wantNames := []string{"Id", "Timeout", "Conflicts", "Indices", "Box", "SearchRequest"}
	for i, want := range wantNames {
		if got := cat.Definitions[i].DefName(); got != want {
			t.Errorf("definition %d: got %q, want %q", i, got, want)
		}
	}

	e, ok := cat.Definitions[2].(*Enum)
	if !ok {
		t.Fatalf("Conflicts: got %T, want *Enum", cat.Definitions[2])
	}
	// A member without an explicit value defaults to its name.
	if e.Members[0].Representation != "abort" {
		t.Errorf("member representation: got %q", e.Members[0].Representation)
	}

	u, ok := cat.Definitions[3].(*UnionAlias)
	if !ok {
		t.Fatalf("Indices: got %T, want *UnionAlias", cat.Definitions[3])
	}
	union, ok := u.Wraps.(UnionOf)
	if !ok || len(union.Items) != 2 {
		t.Fatalf("Indices wraps: got %#v", u.Wraps)
	}
	if _, ok := union.Items[1].(ArrayOf); !ok {
		t.Errorf("second union item: got %T, want ArrayOf", union.Items[1])
	}

	box, ok := cat.Definitions[4].(*Interface)
	if !ok {
		t.Fatalf("Box: got %T, want *Interface", cat.Definitions[4])
	}
	if len(box.OpenGenerics) != 1 || box.OpenGenerics[0] != "T" {
		t.Errorf("open generics: got %v", box.OpenGenerics)
	}

	req, ok := cat.Definitions[5].(*RequestInterface)
	if !ok {
		t.Fatalf("SearchRequest: got %T, want *RequestInterface", cat.Definitions[5])
	}
	if len(req.Path) != 1 || len(req.Query) != 1 || len(req.BodyProperties) != 1 {
		t.Fatalf("request groups: path=%d query=%d body=%d", len(req.Path), len(req.Query), len(req.BodyProperties))
	}
	if req.Body != nil {
		t.Errorf("expected property-list body, got expression %#v", req.Body)
	}
	if len(req.Inherits) != 1 {
		t.Fatalf("inherits: got %d", len(req.Inherits))
	}
	if ReferenceName(req.Inherits[0]) != "RequestBase" {
		t.Errorf("ancestor: got %q", ReferenceName(req.Inherits[0]))
	}
	if !req.Query[0].Nullable {
		t.Errorf("expected query timeout to be nullable")
	}
}

func TestLoad_JSONCatalog(t *testing.T) {
	t.Parallel()

	// yaml.v3 accepts JSON documents.
	cat, err := Load(writeCatalog(t, `{
  "definitions": [
    {"kind": "string_alias", "name": "Id"},
    {"kind": "request", "name": "GetRequest", "body": {"type": {"name": "TDocument"}}}
  ]
}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Definitions) != 2 {
		t.Fatalf("definitions: got %d, want 2", len(cat.Definitions))
	}
	req, ok := cat.Definitions[1].(*RequestInterface)
	if !ok {
		t.Fatalf("GetRequest: got %T", cat.Definitions[1])
	}
	if req.Body == nil || req.BodyProperties != nil {
		t.Fatalf("expected single-expression body, got %#v / %#v", req.Body, req.BodyProperties)
	}
}

func TestLoad_UnknownDefinitionKind(t *testing.T) {
	t.Parallel()

	_, err := Load(writeCatalog(t, `
definitions:
  - kind: behavior
    name: AdditionalProperties
`))
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	var ce *CatalogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CatalogError, got %T", err)
	}
	if ce.Code != ShapeError {
		t.Errorf("code: got %q, want %q", ce.Code, ShapeError)
	}
	if !strings.Contains(ce.Location, "definitions[0]") {
		t.Errorf("location missing entry path: %q", ce.Location)
	}
}

func TestLoad_UnknownExpressionKind(t *testing.T) {
	t.Parallel()

	_, err := Load(writeCatalog(t, `
definitions:
  - kind: union_alias
    name: Bad
    wraps:
      kind: intersection
`))
	var ce *CatalogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CatalogError, got %v", err)
	}
	if ce.Code != ShapeError {
		t.Errorf("code: got %q", ce.Code)
	}
}

func TestLoad_BodyWithTypeAndProperties(t *testing.T) {
	t.Parallel()

	_, err := Load(writeCatalog(t, `
definitions:
  - kind: request
    name: Bad
    body:
      type: {name: T}
      properties:
        - name: x
          type: {name: string}
`))
	var ce *CatalogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CatalogError, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var ce *CatalogError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CatalogError, got %v", err)
	}
	if ce.Code != InputError {
		t.Errorf("code: got %q, want %q", ce.Code, InputError)
	}
}

func TestParse_PropertyWithoutTypeIsKept(t *testing.T) {
	t.Parallel()

	// An absent type is a data-model contract (the emitter omits the
	// member), not a loader error.
	cat, err := Parse([]byte(`
definitions:
  - kind: interface
    name: Hit
    properties:
      - name: _score
        nullable: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	iface := cat.Definitions[0].(*Interface)
	if len(iface.Properties) != 1 {
		t.Fatalf("properties: got %d", len(iface.Properties))
	}
	if iface.Properties[0].Type != nil {
		t.Errorf("expected nil type, got %#v", iface.Properties[0].Type)
	}
}
