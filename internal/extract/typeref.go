package extract

import (
	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/jsonout"
)

// TypeRef is a reference to a type as it appears in the output: the ID of the
// record or enum it names, if any, and its spelling.
type TypeRef struct {
	DeclID   *string
	TypeName string
}

// ResolveType maps a type to its reference without emitting anything.
func ResolveType(q cdecl.QualType, p cdecl.Policy) TypeRef {
	ref := TypeRef{TypeName: q.Spelling(p)}
	if d := q.AsTagDecl(); d != nil {
		ref.DeclID = declIDString(d)
	}
	return ref
}

// JSON renders the reference.
func (r TypeRef) JSON() *jsonout.Object {
	return jsonout.TypeRef(r.DeclID, r.TypeName)
}

// recordName is the name a record is referred to by once it has been emitted
// on its own line. Unnamed records are referenced by ID only.
func recordName(d *cdecl.Decl) string {
	if rb, ok := d.Body.(*cdecl.RecordBody); ok && rb.AnonymousMember {
		return ""
	}
	return d.Name
}

func declIDString(d *cdecl.Decl) *string {
	s := d.ID.String()
	return &s
}
