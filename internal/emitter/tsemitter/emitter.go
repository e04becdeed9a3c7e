// Package tsemitter renders an API type catalog into a single TypeScript
// declaration file.
package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtsgen/dtsgen/internal/catalog"
)

// EnumMode selects how Enum definitions are rendered.
type EnumMode string

const (
	// EnumModeConstants renders each enum as an export enum block.
	EnumModeConstants EnumMode = "enum"
	// EnumModeUnion renders each enum as a string-literal union alias.
	EnumModeUnion EnumMode = "union"
)

// DefaultNamespace wraps the output when no namespace is configured.
const DefaultNamespace = "Api"

// DefaultStableTypes is the allow-list of definition names annotated as
// stable. Everything else named *Request or *Response is annotated
// unstable.
var DefaultStableTypes = []string{
	"BulkRequest", "BulkResponse",
	"CreateRequest", "CreateResponse",
	"DeleteRequest", "DeleteResponse",
	"GetRequest", "GetResponse",
	"IndexRequest", "IndexResponse",
	"SearchRequest", "SearchResponse",
	"UpdateRequest", "UpdateResponse",
}

// excludedNames are purely internal base types that never appear as the
// subject of a standalone declaration.
var excludedNames = map[string]bool{
	RequestBase:            true,
	DictionaryResponseBase: true,
}

// Options controls how the emitter renders a catalog.
type Options struct {
	OutFile     string   // required; target declaration file, fully overwritten
	Namespace   string   // outer namespace name; defaults to DefaultNamespace
	EnumMode    EnumMode // defaults to EnumModeConstants
	StableTypes []string // stability allow-list; defaults to DefaultStableTypes
	DryRun      bool     // don't write, only plan
	Verbose     bool
}

// PlannedFile describes the artifact the emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
	Mode os.FileMode
}

// Result reports the resolved namespace and the planned artifact.
type Result struct {
	Namespace    string
	Declarations int
	Planned      PlannedFile
}

// Emit renders every definition of the catalog, in catalog order, into one
// namespace-wrapped declaration file and writes it in a single atomic
// write. The catalog is not mutated; two runs over the same catalog and
// options produce byte-identical output.
func Emit(ctx context.Context, cat *catalog.Catalog, opts Options) (*Result, error) {
	_ = ctx
	if cat == nil {
		return nil, fmt.Errorf("tsemitter: nil catalog")
	}
	if strings.TrimSpace(opts.OutFile) == "" {
		return nil, fmt.Errorf("tsemitter: OutFile is required")
	}
	ns := strings.TrimSpace(opts.Namespace)
	if ns == "" {
		ns = DefaultNamespace
	}
	mode := opts.EnumMode
	if mode == "" {
		mode = EnumModeConstants
	}
	if mode != EnumModeConstants && mode != EnumModeUnion {
		return nil, fmt.Errorf("tsemitter: unsupported enum mode %q", mode)
	}
	stable := opts.StableTypes
	if stable == nil {
		stable = DefaultStableTypes
	}
	stableSet := make(map[string]bool, len(stable))
	for _, name := range stable {
		stableSet[name] = true
	}

	decls, err := renderDeclarations(cat, mode, stableSet)
	if err != nil {
		return nil, err
	}
	text := wrapNamespace(ns, decls)

	res := &Result{
		Namespace:    ns,
		Declarations: len(decls),
		Planned:      PlannedFile{Path: filepath.ToSlash(opts.OutFile), Size: len(text), Mode: 0o644},
	}
	if opts.DryRun {
		return res, nil
	}
	if err := writeFileAtomic(opts.OutFile, []byte(text)); err != nil {
		return nil, err
	}
	return res, nil
}

// renderDeclarations walks the catalog once, in order, dispatching each
// definition to its emitter. Definitions named in the exclusion list are
// skipped entirely; an unrecognized definition kind rejects the run rather
// than being silently dropped.
func renderDeclarations(cat *catalog.Catalog, mode EnumMode, stable map[string]bool) ([]string, error) {
	decls := make([]string, 0, len(cat.Definitions))
	for i, def := range cat.Definitions {
		if def == nil {
			return nil, fmt.Errorf("tsemitter: nil type definition at index %d", i)
		}
		if excludedNames[def.DefName()] {
			continue
		}
		var decl string
		switch d := def.(type) {
		case *catalog.StringAlias:
			decl = fmt.Sprintf("export type %s = string;", d.Name)
		case *catalog.NumberAlias:
			decl = fmt.Sprintf("export type %s = number;", d.Name)
		case *catalog.UnionAlias:
			decl = fmt.Sprintf("export type %s = %s;", d.Name, Render(d.Wraps))
		case *catalog.Enum:
			decl = emitEnum(d, mode)
		case *catalog.Interface:
			decl = emitInterface(d)
		case *catalog.RequestInterface:
			decl = emitRequestInterface(d)
		default:
			return nil, fmt.Errorf("tsemitter: unrecognized type definition %q (%T)", def.DefName(), def)
		}
		decls = append(decls, stabilityAnnotation(def.DefName(), stable)+decl)
	}
	return decls, nil
}

// stabilityAnnotation returns the doc comment prepended to a declaration,
// derived purely from the definition's name.
func stabilityAnnotation(name string, stable map[string]bool) string {
	if stable[name] {
		return "/** @stability stable */\n"
	}
	if strings.HasSuffix(name, "Request") || strings.HasSuffix(name, "Response") {
		return "/** @stability unstable */\n"
	}
	return ""
}

func emitEnum(e *catalog.Enum, mode EnumMode) string {
	if mode == EnumModeUnion {
		parts := make([]string, 0, len(e.Members))
		for _, m := range e.Members {
			parts = append(parts, enumLiteral(m.Representation))
		}
		return fmt.Sprintf("export type %s = %s;", e.Name, strings.Join(parts, " | "))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "export enum %s {\n", e.Name)
	for _, m := range e.Members {
		fmt.Fprintf(&sb, "  %s = %q,\n", propertyKey(m.Name), m.Representation)
	}
	sb.WriteString("}")
	return sb.String()
}

// enumLiteral quotes an enum member's string representation, except for
// the boolean literals true and false which pass through unquoted.
func enumLiteral(repr string) string {
	if repr == "true" || repr == "false" {
		return repr
	}
	return fmt.Sprintf("%q", repr)
}

func emitInterface(i *catalog.Interface) string {
	var sb strings.Builder
	sb.WriteString(interfaceHeader(i.Name, i.OpenGenerics, i.Inherits))
	writeProperties(&sb, i.Properties, "  ")
	sb.WriteString("}")
	return sb.String()
}

func emitRequestInterface(r *catalog.RequestInterface) string {
	var sb strings.Builder
	sb.WriteString(interfaceHeader(r.Name, r.OpenGenerics, r.Inherits))
	writeProperties(&sb, r.Path, "  ")
	writeProperties(&sb, r.Query, "  ")
	switch {
	case r.Body != nil:
		fmt.Fprintf(&sb, "  body?: %s;\n", Render(r.Body))
	case r.BodyProperties != nil:
		sb.WriteString("  body?: {\n")
		writeProperties(&sb, r.BodyProperties, "    ")
		sb.WriteString("  };\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func interfaceHeader(name string, openGenerics []string, inherits []catalog.TypeExpression) string {
	var sb strings.Builder
	sb.WriteString("export interface ")
	sb.WriteString(name)
	if len(openGenerics) > 0 {
		sb.WriteString("<" + strings.Join(openGenerics, ", ") + ">")
	}
	// An interface whose only ancestor is an excluded internal base drops
	// its inheritance clause: the base is never declared, so a reference
	// to it would dangle.
	if len(inherits) > 0 && !(len(inherits) == 1 && excludedNames[catalog.ReferenceName(inherits[0])]) {
		parts := make([]string, 0, len(inherits))
		for _, in := range inherits {
			parts = append(parts, Render(in))
		}
		sb.WriteString(" extends " + strings.Join(parts, ", "))
	}
	sb.WriteString(" {\n")
	return sb.String()
}

// writeProperties writes one member line per property whose type is
// defined. A property with a nil type is omitted without diagnostic; the
// upstream loader leaves types absent by design.
func writeProperties(sb *strings.Builder, props []catalog.Property, indent string) {
	for _, p := range props {
		if p.Type == nil {
			continue
		}
		opt := ""
		if p.Nullable {
			opt = "?"
		}
		fmt.Fprintf(sb, "%s%s%s: %s;\n", indent, propertyKey(p.Name), opt, Render(p.Type))
	}
}

// propertyKey quotes a member name as a string-literal key when it
// contains a period or hyphen, or when its first character is a digit or
// any other non-word character. Plain identifiers pass through bare.
func propertyKey(name string) string {
	if name == "" {
		return `""`
	}
	if strings.ContainsAny(name, ".-") {
		return fmt.Sprintf("%q", name)
	}
	first := name[0]
	if first >= '0' && first <= '9' {
		return fmt.Sprintf("%q", name)
	}
	if !(first >= 'a' && first <= 'z') && !(first >= 'A' && first <= 'Z') && first != '_' {
		return fmt.Sprintf("%q", name)
	}
	return name
}

// wrapNamespace joins the declarations with blank-line separators and
// wraps them in one outer declare namespace block, indenting the body.
func wrapNamespace(ns string, decls []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "declare namespace %s {\n", ns)
	body := strings.Join(decls, "\n\n")
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// writeFileAtomic performs the run's single write: temp file plus rename,
// fully replacing any previous artifact.
func writeFileAtomic(path string, content []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := abs + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
