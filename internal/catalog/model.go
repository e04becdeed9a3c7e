package catalog

// Domain model for API type definitions, shared by loaders and emitters.

// Catalog is the full ordered collection of type definitions processed in
// one generation run. Definition order determines output order.
type Catalog struct {
	Definitions []TypeDefinition
}

// TypeDefinition is a named, top-level entity in the domain model.
// It is a sealed sum over the definition kinds below; dispatch sites are
// expected to type-switch exhaustively and reject anything else.
type TypeDefinition interface {
	// DefName returns the definition's declared name.
	DefName() string
	typeDefinition()
}

// StringAlias is a named alias of the primitive string type.
type StringAlias struct {
	Name string
}

// NumberAlias is a named alias of the primitive number type.
type NumberAlias struct {
	Name string
}

// UnionAlias is a named alias of a composite type expression.
type UnionAlias struct {
	Name  string
	Wraps TypeExpression
}

// EnumMember is one named string-valued constant of an Enum.
type EnumMember struct {
	Name           string
	Representation string
}

// Enum is a closed set of named string-valued constants.
type Enum struct {
	Name    string
	Members []EnumMember
}

// Property is a named member of an interface-like definition. A nil Type
// means the upstream loader left the type unresolved; such properties are
// omitted from output by contract, not reported.
type Property struct {
	Name     string
	Type     TypeExpression
	Nullable bool
}

// Interface is an object shape, optionally generic, optionally extending
// other shapes.
type Interface struct {
	Name         string
	OpenGenerics []string
	Inherits     []TypeExpression
	Properties   []Property
}

// RequestInterface is an Interface specialized to represent an API
// operation's combined parameters. Members are drawn from three independent
// groups: URL path parameters, query parameters, and the request body. The
// body is either a property list (BodyProperties) rendered as a nested
// object member, or a single type expression (Body) rendered flat; at most
// one of the two is set.
type RequestInterface struct {
	Name           string
	OpenGenerics   []string
	Inherits       []TypeExpression
	Path           []Property
	Query          []Property
	BodyProperties []Property
	Body           TypeExpression
}

func (d *StringAlias) DefName() string      { return d.Name }
func (d *NumberAlias) DefName() string      { return d.Name }
func (d *UnionAlias) DefName() string       { return d.Name }
func (d *Enum) DefName() string             { return d.Name }
func (d *Interface) DefName() string        { return d.Name }
func (d *RequestInterface) DefName() string { return d.Name }

func (*StringAlias) typeDefinition()      {}
func (*NumberAlias) typeDefinition()      {}
func (*UnionAlias) typeDefinition()       {}
func (*Enum) typeDefinition()             {}
func (*Interface) typeDefinition()        {}
func (*RequestInterface) typeDefinition() {}

// TypeExpression is a (possibly composite) reference to a type, used as a
// property's type, an alias's target, or an inheritance ancestor. Sealed
// like TypeDefinition.
type TypeExpression interface {
	typeExpression()
}

// ArrayOf is an ordered sequence of Of.
type ArrayOf struct {
	Of TypeExpression
}

// Dictionary is a mapping keyed by Key with Value values.
type Dictionary struct {
	Key   TypeExpression
	Value TypeExpression
}

// SingleKeyDictionary is a mapping with an implicit string key.
type SingleKeyDictionary struct {
	Value TypeExpression
}

// UnionOf is an alternative among Items, rendered in listed order.
type UnionOf struct {
	Items []TypeExpression
}

// ImplementsReference is a reference to another type definition with its
// generic parameters bound to concrete arguments.
type ImplementsReference struct {
	Name           string
	ClosedGenerics []TypeExpression
}

// TypeName is a bare reference to a named type, optionally with bound
// generics. It is the fallback expression kind: resolution is not checked,
// so a dangling name renders as-is.
type TypeName struct {
	Name           string
	ClosedGenerics []TypeExpression
}

func (ArrayOf) typeExpression()             {}
func (Dictionary) typeExpression()          {}
func (SingleKeyDictionary) typeExpression() {}
func (UnionOf) typeExpression()             {}
func (ImplementsReference) typeExpression() {}
func (TypeName) typeExpression()            {}

// ReferenceName returns the definition name an expression points at, or ""
// when the expression is not a plain reference. Used by the inheritance
// exclusion rule.
func ReferenceName(expr TypeExpression) string {
	switch e := expr.(type) {
	case ImplementsReference:
		return e.Name
	case TypeName:
		return e.Name
	default:
		return ""
	}
}
