package extract

import "github.com/rohankatakam/typextract/internal/cdecl"

// Eligible decides whether a declaration found by the traversal is emitted.
// The returned reason is empty when the declaration is eligible.
func Eligible(d *cdecl.Decl) (bool, string) {
	switch {
	case d.Templated:
		return false, "templated"
	case d.Method:
		return false, "member function"
	case d.Implicit:
		return false, "implicit"
	case d.Invalid:
		return false, "invalid"
	}

	for c := d.Context; c != nil && c.Kind != cdecl.ContextTranslationUnit; c = c.Parent {
		if c.IsTransparent() {
			continue
		}
		if !c.IsFileContext() {
			return false, "not at file scope"
		}
		if !c.IsAnonymousNamespace() {
			return false, "inside named namespace " + c.Name
		}
	}
	return true, ""
}
