package frontend

import (
	"math"

	"github.com/rohankatakam/typextract/internal/cdecl"
)

// recordAttrs are the record-level inputs to layout besides the members.
type recordAttrs struct {
	attrSet
	// pack is the #pragma pack limit in bits, zero when unset.
	pack int64
}

// recordLayout is what other records need to know about a laid out one.
type recordLayout struct {
	size  int64
	align int64
	// dataSize is where members of a derived class may start. It equals
	// size for POD bases, whose tail padding is never reused.
	dataSize    int64
	polymorphic bool
	empty       bool
	pod         bool
}

// layoutEngine computes Itanium-style record layouts.
type layoutEngine struct {
	s       *sema
	records map[*cdecl.Decl]*recordLayout
}

func newLayoutEngine(s *sema) *layoutEngine {
	return &layoutEngine{s: s, records: make(map[*cdecl.Decl]*recordLayout)}
}

func alignUp(v, a int64) int64 {
	if a <= 0 {
		return v
	}
	return (v + a - 1) / a * a
}

// layoutRecord assigns field offsets and the size and alignment of d.
// rec is nil for implicit records.
func (e *layoutEngine) layoutRecord(d *cdecl.Decl, rec *recordBuilder, attrs recordAttrs) {
	rb := d.Body.(*cdecl.RecordBody)
	t := e.s.target
	union := rb.Tag == cdecl.TagUnion

	capped := func(a int64) int64 {
		if attrs.pack > 0 {
			return min(a, attrs.pack)
		}
		return a
	}

	l := &recordLayout{pod: true}
	var bases []*cdecl.Decl
	if rec != nil {
		bases = rec.bases
		l.polymorphic = rec.polymorphic
		l.pod = !rec.nonPOD
	}
	var primary *cdecl.Decl
	for _, b := range bases {
		if bl := e.records[b]; bl != nil && bl.polymorphic {
			l.polymorphic = true
			if primary == nil {
				primary = b
			}
		}
	}
	if l.polymorphic {
		l.pod = false
	}

	var off, dataEnd int64
	align := int64(8)

	if l.polymorphic {
		if primary == nil {
			off = t.PointerBits
			align = capped(t.PointerBits)
		} else {
			pl := e.records[primary]
			off = pl.dataSize
			align = max(align, capped(pl.align))
		}
	}
	emptyAtZero := map[*cdecl.Decl]bool{}
	for _, b := range bases {
		if b == primary {
			continue
		}
		bl := e.records[b]
		if bl == nil {
			continue
		}
		ba := capped(bl.align)
		align = max(align, ba)
		if bl.empty && !emptyAtZero[b] {
			emptyAtZero[b] = true
			continue
		}
		off = alignUp(off, ba)
		if bl.empty {
			off += bl.size
			continue
		}
		off += bl.dataSize
	}

	for i, f := range rb.Fields {
		var fa attrSet
		if rec != nil {
			fa = rec.fieldAttrs[f]
		}
		size, ok := e.fieldSize(f.Type)
		if !ok {
			d.Invalid = true
			continue
		}
		f.SizeBits = size
		if arr, isArr := f.Type.Desugar().Type.(*cdecl.ArrayType); isArr && arr.Incomplete && i != len(rb.Fields)-1 && !union {
			e.s.diags.Errorf(d.Loc, "flexible array member '%s' with type '%s' is not at the end of %s",
				f.Name, f.Type.Spelling(e.s.policy), rb.Tag.Keyword())
			d.Invalid = true
		}

		natural := capped(e.fieldAlign(f.Type))
		fieldAlign := natural
		packed := attrs.packed || fa.packed
		if packed {
			fieldAlign = 8
		}
		if fa.aligned > 0 {
			fieldAlign = capped(max(fieldAlign, fa.aligned))
		}

		if f.IsBitField() {
			w := f.BitWidth
			switch {
			case union:
				f.OffsetBits = 0
				dataEnd = max(dataEnd, w)
			case w == 0:
				// Zero-width bit-fields only align the next unit.
				off = alignUp(off, natural)
				f.OffsetBits = off
				continue
			default:
				if fa.aligned > 0 {
					off = alignUp(off, fieldAlign)
				} else if !packed && off%fieldAlign+w > size {
					off = alignUp(off, fieldAlign)
				}
				f.OffsetBits = off
				off += w
			}
			if f.Name != "" {
				align = max(align, fieldAlign)
			}
			continue
		}

		align = max(align, fieldAlign)
		if union {
			f.OffsetBits = 0
			dataEnd = max(dataEnd, size)
			continue
		}
		off = alignUp(off, fieldAlign)
		f.OffsetBits = off
		off += size
		if rd := f.Type.AsRecordDecl(); rd != nil {
			if fl := e.records[rd]; fl != nil && !fl.pod {
				l.pod = false
			}
		}
	}
	if !union {
		dataEnd = off
	}
	if attrs.aligned > 0 {
		align = max(align, attrs.aligned)
	}

	dataBytes := alignUp(dataEnd, 8)
	size := alignUp(dataBytes, align)
	if e.s.cxx && size == 0 {
		l.empty = !l.polymorphic
		size = 8
	}
	l.size, l.align = size, align
	l.dataSize = size
	if !l.pod {
		l.dataSize = dataBytes
	}
	rb.SizeBits, rb.AlignBits = size, align
	e.records[d] = l
}

// fieldSize is the storage a member of type q takes. References are
// stored as pointers and a flexible array member takes none.
func (e *layoutEngine) fieldSize(q cdecl.QualType) (int64, bool) {
	switch t := q.Desugar().Type.(type) {
	case *cdecl.ReferenceType:
		return e.s.target.PointerBits, true
	case *cdecl.ArrayType:
		if t.Incomplete {
			return 0, true
		}
	}
	return e.sizeOf(q)
}

// sizeOf is sizeof(q) in bits.
func (e *layoutEngine) sizeOf(q cdecl.QualType) (int64, bool) {
	switch t := q.Desugar().Type.(type) {
	case *cdecl.BuiltinType:
		if t.Void {
			return 0, false
		}
		return t.SizeBits, true
	case *cdecl.PointerType:
		return e.s.target.PointerBits, true
	case *cdecl.ReferenceType:
		return e.sizeOf(t.Pointee)
	case *cdecl.ArrayType:
		if t.Incomplete {
			return 0, false
		}
		es, ok := e.sizeOf(t.Elem)
		if !ok || (es > 0 && t.Len > math.MaxInt64/es) {
			return 0, false
		}
		return es * t.Len, true
	case *cdecl.RecordType:
		d := t.Decl()
		l := e.records[d]
		if l == nil || e.s.defining[d] {
			return 0, false
		}
		return l.size, true
	case *cdecl.EnumType:
		eb, ok := t.Decl().Body.(*cdecl.EnumBody)
		if !ok || (!eb.Complete && !eb.Fixed) {
			return 0, false
		}
		return e.sizeOf(eb.IntegerType)
	}
	return 0, false
}

// typedefAlign returns the alignment an aligned attribute gave a typedef
// in q's sugar chain.
func (e *layoutEngine) typedefAlign(q cdecl.QualType) (int64, cdecl.QualType, bool) {
	for i := 0; i < 64; i++ {
		td, ok := q.Type.(*cdecl.TypedefType)
		if !ok {
			break
		}
		if a, ok := e.s.typedefAlign[td.Decl]; ok {
			return a, q, true
		}
		q = td.Underlying()
	}
	return 0, q, false
}

// alignOf is alignof(q) in bits.
func (e *layoutEngine) alignOf(q cdecl.QualType) int64 {
	a, q, ok := e.typedefAlign(q)
	if ok {
		return a
	}
	switch t := q.Type.(type) {
	case *cdecl.BuiltinType:
		if t.Void {
			return 8
		}
		return t.AlignBits
	case *cdecl.PointerType:
		return e.s.target.PointerBits
	case *cdecl.ReferenceType:
		return e.alignOf(t.Pointee)
	case *cdecl.ArrayType:
		return e.alignOf(t.Elem)
	case *cdecl.RecordType:
		if l := e.records[t.Decl()]; l != nil {
			return l.align
		}
	case *cdecl.EnumType:
		if eb, ok := t.Decl().Body.(*cdecl.EnumBody); ok {
			return e.alignOf(eb.IntegerType)
		}
	}
	return 8
}

// fieldAlign is the alignment of a member of type q, which some targets
// lower below alignof for 8-byte scalars.
func (e *layoutEngine) fieldAlign(q cdecl.QualType) int64 {
	a, q, ok := e.typedefAlign(q)
	if ok {
		return a
	}
	switch t := q.Type.(type) {
	case *cdecl.BuiltinType:
		if t.Void {
			return 8
		}
		return e.s.target.FieldAlign(t)
	case *cdecl.ReferenceType:
		return e.s.target.PointerBits
	case *cdecl.ArrayType:
		return e.fieldAlign(t.Elem)
	case *cdecl.EnumType:
		if eb, ok := t.Decl().Body.(*cdecl.EnumBody); ok {
			return e.fieldAlign(eb.IntegerType)
		}
	}
	return e.alignOf(q)
}
