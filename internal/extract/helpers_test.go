package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/sink"
)

var (
	intType  = &cdecl.BuiltinType{Name: "int", SizeBits: 32, AlignBits: 32, Integer: true, Signed: true}
	charType = &cdecl.BuiltinType{Name: "char", SizeBits: 8, AlignBits: 8, Integer: true, Signed: true}
	voidType = &cdecl.BuiltinType{Name: "void", Void: true}
	u8Type   = &cdecl.BuiltinType{Name: "unsigned char", SizeBits: 8, AlignBits: 8, Integer: true}
)

// treeBuilder assembles translation units the way the front-end would, with
// IDs handed out in creation order.
type treeBuilder struct {
	tu   *cdecl.TranslationUnit
	next cdecl.DeclID
	file string
}

func newTreeBuilder(file string) *treeBuilder {
	return &treeBuilder{tu: cdecl.NewTranslationUnit(file, cdecl.Policy{}), file: file}
}

func (b *treeBuilder) root() *cdecl.Context {
	return b.tu.Context
}

func (b *treeBuilder) add(ctx *cdecl.Context, name string, body cdecl.Body) *cdecl.Decl {
	b.next++
	d := &cdecl.Decl{
		ID:   b.next,
		Name: name,
		Loc:  cdecl.Location{File: b.file, RealPath: b.file, HasEntry: true, Line: int(b.next), Column: 1},
		Body: body,
	}
	ctx.Add(d)
	return d
}

func (b *treeBuilder) record(ctx *cdecl.Context, name string, tag cdecl.TagKind, complete bool) *cdecl.Decl {
	sym := &cdecl.TagSymbol{Name: name}
	body := &cdecl.RecordBody{Tag: tag, Complete: complete, Symbol: sym}
	d := b.add(ctx, name, body)
	sym.Decls = append(sym.Decls, d)
	if complete {
		sym.Definition = d
	}
	d.Inner = cdecl.NewContext(cdecl.ContextRecord, name, ctx, d)
	return d
}

func (b *treeBuilder) namespace(ctx *cdecl.Context, name string) *cdecl.Context {
	d := b.add(ctx, name, &cdecl.OtherBody{What: "namespace"})
	d.Inner = cdecl.NewContext(cdecl.ContextNamespace, name, ctx, d)
	return d.Inner
}

func field(name string, q cdecl.QualType, offset, size int64) *cdecl.Field {
	return &cdecl.Field{Name: name, Type: q, BitWidth: -1, OffsetBits: offset, SizeBits: size}
}

func recordOf(d *cdecl.Decl, elaborated bool) cdecl.QualType {
	rb := d.Body.(*cdecl.RecordBody)
	return cdecl.Q(&cdecl.RecordType{Symbol: rb.Symbol, Tag: rb.Tag, Elaborated: elaborated})
}

func run(t *testing.T, tu *cdecl.TranslationUnit, sysroot, resourceDir string) []string {
	t.Helper()
	var buf bytes.Buffer
	x := NewExtractor(NewSession(sysroot, resourceDir), sink.NewLineSink(&buf), quietLogger())
	require.NoError(t, x.HandleTranslationUnit(context.Background(), tu))
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func typeNames(t *testing.T, lines []string) []string {
	t.Helper()
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, decode(t, l)["type"].(map[string]any)["typeName"].(string))
	}
	return names
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
