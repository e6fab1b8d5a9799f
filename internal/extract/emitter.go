package extract

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/jsonout"
	"github.com/rohankatakam/typextract/internal/sink"
)

// Emitter renders declarations and writes them to a sink. Records referenced
// by a declaration are emitted before it.
type Emitter struct {
	session *Session
	out     sink.Sink
	policy  cdecl.Policy
	logger  *logrus.Logger

	written int
	skipped int
}

// NewEmitter creates an emitter writing to out.
func NewEmitter(session *Session, out sink.Sink, policy cdecl.Policy, logger *logrus.Logger) *Emitter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Emitter{session: session, out: out, policy: policy, logger: logger}
}

// Written is the number of lines written so far.
func (e *Emitter) Written() int { return e.written }

// Skipped is the number of declarations that produced no line.
func (e *Emitter) Skipped() int { return e.skipped }

// Emit writes d unless it was already processed in this session. It does not
// consult the eligibility filter; callers decide that.
func (e *Emitter) Emit(ctx context.Context, d *cdecl.Decl) error {
	if d == nil {
		return nil
	}
	if !e.session.MarkEmitted(d.ID) {
		return nil
	}

	abs := AbsolutePath(d.Loc)
	if !filepath.IsAbs(abs) {
		e.skip(d, "no absolute path")
		return nil
	}
	root, location := e.session.ResolvePath(abs)

	var props *jsonout.Object
	var err error
	switch body := d.Body.(type) {
	case *cdecl.TypedefBody:
		props, err = e.typedefProperties(ctx, body)
	case *cdecl.RecordBody:
		props, err = e.recordProperties(ctx, body)
	case *cdecl.EnumBody:
		props = e.enumProperties(body)
	case *cdecl.FunctionBody:
		props, err = e.functionProperties(ctx, body)
	default:
		e.skip(d, "not a type declaration")
		return nil
	}
	if err != nil {
		return err
	}
	if props == nil {
		e.skip(d, "record is neither struct nor union")
		return nil
	}

	self := TypeRef{DeclID: declIDString(d), TypeName: d.Name}
	line, err := jsonout.Render(jsonout.Envelope(self.JSON(), props, root.String(), location))
	if err != nil {
		return err
	}

	kind, _ := props.Get("kind")
	rec := sink.Record{
		DeclID:     d.ID.String(),
		Kind:       kind.(string),
		Name:       d.Name,
		PseudoRoot: root.String(),
		Location:   location,
		JSON:       line,
	}
	if err := e.out.Write(ctx, rec); err != nil {
		return err
	}
	e.written++
	return nil
}

func (e *Emitter) skip(d *cdecl.Decl, reason string) {
	e.skipped++
	e.logger.WithFields(logrus.Fields{
		"decl_id": d.ID,
		"name":    d.Name,
		"reason":  reason,
	}).Debug("Skipping declaration")
}

// reference resolves q and forces emission of the record it names, if any.
func (e *Emitter) reference(ctx context.Context, q cdecl.QualType) (TypeRef, error) {
	ref := ResolveType(q, e.policy)
	if rd := q.AsRecordDecl(); rd != nil {
		if err := e.Emit(ctx, rd); err != nil {
			return ref, err
		}
		ref.TypeName = recordName(rd)
	}
	return ref, nil
}

func (e *Emitter) typedefProperties(ctx context.Context, body *cdecl.TypedefBody) (*jsonout.Object, error) {
	under, err := e.reference(ctx, body.Underlying)
	if err != nil {
		return nil, err
	}
	return jsonout.NewObject(
		jsonout.P("kind", "Typedef"),
		jsonout.P("underlyingType", under.JSON()),
	), nil
}

func (e *Emitter) recordProperties(ctx context.Context, body *cdecl.RecordBody) (*jsonout.Object, error) {
	if !body.Complete {
		return jsonout.NewObject(
			jsonout.P("kind", "Struct"),
			jsonout.P("fields", jsonout.Array()),
		), nil
	}

	switch body.Tag {
	case cdecl.TagUnion:
		members := make([]any, 0, len(body.Fields))
		for _, f := range body.Fields {
			ref, err := e.reference(ctx, f.Type)
			if err != nil {
				return nil, err
			}
			members = append(members, jsonout.NewObject(
				jsonout.P("name", f.Name),
				jsonout.P("type", ref.JSON()),
			))
		}
		return jsonout.NewObject(
			jsonout.P("kind", "Union"),
			jsonout.P("members", jsonout.Array(members...)),
		), nil

	case cdecl.TagStruct:
		fields := make([]any, 0, len(body.Fields))
		for _, f := range body.Fields {
			ref, err := e.reference(ctx, f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, jsonout.NewObject(
				jsonout.P("name", f.Name),
				jsonout.P("field", jsonout.NewObject(
					jsonout.P("offset", f.OffsetBits),
					jsonout.P("size", f.SizeBits),
					jsonout.P("type", ref.JSON()),
				)),
			))
		}
		return jsonout.NewObject(
			jsonout.P("kind", "Struct"),
			jsonout.P("fields", jsonout.Array(fields...)),
		), nil
	}
	return nil, nil
}

func (e *Emitter) enumProperties(body *cdecl.EnumBody) *jsonout.Object {
	backing := ResolveType(body.IntegerType, e.policy)
	width := integerWidth(body.IntegerType)

	entries := make([]any, 0, len(body.Enumerators))
	for _, en := range body.Enumerators {
		entries = append(entries, jsonout.NewObject(
			jsonout.P("name", en.Name),
			jsonout.P("value", zeroExtend(en.Value, width)),
		))
	}
	return jsonout.NewObject(
		jsonout.P("kind", "Enum"),
		jsonout.P("backingType", backing.JSON()),
		jsonout.P("entries", jsonout.Array(entries...)),
	)
}

func (e *Emitter) functionProperties(ctx context.Context, body *cdecl.FunctionBody) (*jsonout.Object, error) {
	ret, err := e.reference(ctx, body.Result)
	if err != nil {
		return nil, err
	}
	params := make([]any, 0, len(body.Params))
	for _, p := range body.Params {
		ref, err := e.reference(ctx, p.Type)
		if err != nil {
			return nil, err
		}
		params = append(params, jsonout.NewObject(
			jsonout.P("name", p.Name),
			jsonout.P("type", ref.JSON()),
		))
	}
	return jsonout.NewObject(
		jsonout.P("kind", "Function"),
		jsonout.P("returnType", ret.JSON()),
		jsonout.P("params", jsonout.Array(params...)),
	), nil
}

// integerWidth is the width in bits of an enumeration's integer type.
func integerWidth(q cdecl.QualType) int64 {
	if bt, ok := q.Desugar().Type.(*cdecl.BuiltinType); ok && bt.SizeBits > 0 {
		return bt.SizeBits
	}
	return 64
}

func zeroExtend(v int64, width int64) uint64 {
	if width >= 64 {
		return uint64(v)
	}
	return uint64(v) & (uint64(1)<<uint(width) - 1)
}
