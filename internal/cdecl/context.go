package cdecl

// ContextKind is the kind of a declaration context.
type ContextKind int

const (
	ContextTranslationUnit ContextKind = iota
	ContextNamespace
	ContextLinkageSpec
	ContextRecord
	ContextFunction
	ContextEnum
)

// Context is a scope that owns declarations.
type Context struct {
	Kind   ContextKind
	Name   string
	Parent *Context
	// Owner is the declaration that opened this context, nil for the
	// translation unit.
	Owner *Decl
	// Scoped is set for C++ scoped enumerations.
	Scoped bool
	Decls  []*Decl
}

// NewContext creates a child context of parent.
func NewContext(kind ContextKind, name string, parent *Context, owner *Decl) *Context {
	return &Context{Kind: kind, Name: name, Parent: parent, Owner: owner}
}

// Add appends d to the context and sets its enclosing context.
func (c *Context) Add(d *Decl) {
	d.Context = c
	c.Decls = append(c.Decls, d)
}

// IsTransparent reports whether names declared in the context belong to the
// enclosing context: linkage specifications and unscoped enumerations.
func (c *Context) IsTransparent() bool {
	switch c.Kind {
	case ContextLinkageSpec:
		return true
	case ContextEnum:
		return !c.Scoped
	}
	return false
}

// IsFileContext reports whether the context is the translation unit or a
// namespace.
func (c *Context) IsFileContext() bool {
	return c.Kind == ContextTranslationUnit || c.Kind == ContextNamespace
}

// IsAnonymousNamespace reports whether the context is an unnamed namespace.
func (c *Context) IsAnonymousNamespace() bool {
	return c.Kind == ContextNamespace && c.Name == ""
}

// TranslationUnit is the root of one parsed input.
type TranslationUnit struct {
	Context *Context
	// MainFile is the file name of the primary input.
	MainFile string
	Policy   Policy
}

// NewTranslationUnit returns an empty translation unit.
func NewTranslationUnit(mainFile string, policy Policy) *TranslationUnit {
	return &TranslationUnit{
		Context:  NewContext(ContextTranslationUnit, "", nil, nil),
		MainFile: mainFile,
		Policy:   policy,
	}
}

// Walk visits every declaration below ctx in source order, parents before the
// declarations they contain. Returning false from fn stops the walk.
func Walk(ctx *Context, fn func(*Decl) bool) bool {
	for _, d := range ctx.Decls {
		if !fn(d) {
			return false
		}
		if d.Inner != nil && d.Inner != ctx {
			if !Walk(d.Inner, fn) {
				return false
			}
		}
	}
	return true
}
