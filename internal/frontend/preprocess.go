package frontend

import (
	"bytes"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/sirupsen/logrus"
)

// MaxIncludeDepth bounds #include nesting.
const MaxIncludeDepth = 200

// compatMacros rewrite compiler extensions into spellings the grammar knows.
var compatMacros = []string{
	"__extension__",
	"__restrict __restrict__",
	"__inline inline",
	"__inline__ inline",
	"__const const",
	"__signed__ signed",
	"__signed signed",
	"__volatile__ volatile",
	"__typeof__ typeof",
	"__typeof typeof",
	"__asm__(...)",
	"__asm(...)",
	"__builtin_offsetof offsetof",
	"_Nonnull",
	"_Nullable",
	"_Null_unspecified",
	"__nonnull",
	"__nullable",
}

// hasQueries are the feature-test operators allowed in #if.
var hasQueries = map[string]bool{}

func init() {
	for _, q := range []string{
		"__has_include", "__has_include_next",
		"__has_feature", "__has_extension", "__has_builtin", "__has_constexpr_builtin",
		"__has_attribute", "__has_cpp_attribute", "__has_c_attribute", "__has_declspec_attribute",
		"__has_warning", "__has_embed", "__is_identifier", "__building_module",
		"__is_target_arch", "__is_target_os", "__is_target_vendor", "__is_target_environment",
	} {
		hasQueries[q] = true
	}
}

// supportedAttributes answer __has_attribute with 1. Both the plain and
// the __reserved__ spelling are accepted for each name.
var supportedAttributes = map[string]bool{}

func init() {
	for _, a := range []string{
		"packed", "aligned", "noreturn", "nothrow", "leaf", "const", "pure",
		"malloc", "alloc_size", "alloc_align", "unused", "used", "deprecated",
		"format", "format_arg", "nonnull", "returns_nonnull", "warn_unused_result",
		"always_inline", "noinline", "gnu_inline", "artificial", "cold", "hot",
		"sentinel", "may_alias", "mode", "visibility", "weak", "alias",
		"transparent_union", "vector_size", "ext_vector_type", "cleanup",
		"fallthrough", "access", "nodiscard", "maybe_unused", "noescape",
		"error", "warning", "section", "constructor", "destructor", "flatten",
		"returns_twice", "no_sanitize", "no_instrument_function", "diagnose_if",
		"enable_if", "overloadable", "availability",
	} {
		supportedAttributes[a] = true
		supportedAttributes["__"+a+"__"] = true
	}
}

type searchDir struct {
	path   string
	system bool
}

type condFrame struct {
	active     bool
	taken      bool
	seenElse   bool
	parentLive bool
	loc        cdecl.Location
}

// segment maps an output column range onto its source position. Fixed
// segments come from macro expansions and map every column to the
// invocation.
type segment struct {
	outCol int
	file   *SourceFile
	line   int
	col    int
	fixed  bool
}

// packChange records the #pragma pack value in effect from Row on.
type packChange struct {
	row   int
	bytes int64
}

// Expansion is the preprocessed text of a translation unit.
type Expansion struct {
	Text  []byte
	rows  [][]segment
	packs []packChange
}

// Locate maps a zero-based output position back to the source.
func (e *Expansion) Locate(row, col uint) cdecl.Location {
	if int(row) >= len(e.rows) {
		return cdecl.Location{}
	}
	segs := e.rows[row]
	if len(segs) == 0 {
		return cdecl.Location{}
	}
	i := sort.Search(len(segs), func(i int) bool { return segs[i].outCol > int(col) }) - 1
	if i < 0 {
		i = 0
	}
	s := segs[i]
	c := s.col
	if !s.fixed {
		c += int(col) - s.outCol
	}
	if s.file == nil {
		return cdecl.Location{}
	}
	return cdecl.Location{
		File:     s.file.Name,
		RealPath: s.file.Path,
		HasEntry: s.file.HasEntry,
		Line:     s.line,
		Column:   c,
	}
}

// PackAt returns the #pragma pack alignment in bytes at an output row, or 0
// when none is in effect.
func (e *Expansion) PackAt(row uint) int64 {
	i := sort.Search(len(e.packs), func(i int) bool { return e.packs[i].row > int(row) }) - 1
	if i < 0 {
		return 0
	}
	return e.packs[i].bytes
}

// Preprocessor expands one translation unit.
type Preprocessor struct {
	opts   *Options
	target *Target
	files  *FileManager
	diags  *Diagnostics
	logger *logrus.Logger

	macros    map[string]*macro
	quoteDirs []searchDir
	dirs      []searchDir
	once      map[string]bool
	conds     []condFrame
	depth     int
	counter   int

	out     bytes.Buffer
	rows    [][]segment
	row     []segment
	col     int
	lastTok token
	packs   []packChange
	pack    int64
	packStk []int64
	fatal   bool
}

// NewPreprocessor prepares the macro table and include search path.
func NewPreprocessor(opts *Options, target *Target, files *FileManager, diags *Diagnostics, logger *logrus.Logger) *Preprocessor {
	p := &Preprocessor{
		opts:   opts,
		target: target,
		files:  files,
		diags:  diags,
		logger: logger,
		macros: make(map[string]*macro),
		once:   make(map[string]bool),
	}
	p.buildSearchPath()
	return p
}

func (p *Preprocessor) buildSearchPath() {
	o := p.opts
	for _, d := range o.QuoteDirs {
		p.quoteDirs = append(p.quoteDirs, searchDir{path: d})
	}
	for _, d := range o.IncludeDirs {
		p.dirs = append(p.dirs, searchDir{path: d})
	}
	for _, d := range o.SystemDirs {
		p.dirs = append(p.dirs, searchDir{path: d, system: true})
	}
	if !o.NoStdInc {
		sysroot := o.Sysroot
		if !o.NoStdLibInc {
			p.dirs = append(p.dirs, searchDir{path: filepath.Join(sysroot, "usr/local/include"), system: true})
		}
		if !o.NoBuiltinInc {
			p.dirs = append(p.dirs, searchDir{path: filepath.Join(o.ResourceDir, "include"), system: true})
		}
		if !o.NoStdLibInc {
			if p.target.OS == "linux" {
				multiarch := filepath.Join(sysroot, "usr/include", p.target.Arch+"-linux-gnu")
				if p.files.IsDir(multiarch) {
					p.dirs = append(p.dirs, searchDir{path: multiarch, system: true})
				}
			}
			p.dirs = append(p.dirs,
				searchDir{path: filepath.Join(sysroot, "include"), system: true},
				searchDir{path: filepath.Join(sysroot, "usr/include"), system: true},
			)
		}
	}
	for _, d := range o.AfterDirs {
		p.dirs = append(p.dirs, searchDir{path: d, system: true})
	}
}

// Run preprocesses main and returns the expanded text.
func (p *Preprocessor) Run(main *SourceFile) *Expansion {
	p.definePredefined()
	for _, inc := range p.opts.ForceIncludes {
		f, idx := p.findInclude(inc, false, main, -1)
		if f == nil {
			p.diags.Fatalf(cdecl.Location{}, "'%s' file not found", inc)
			break
		}
		p.processFile(f, idx)
	}
	if !p.fatal && !p.diags.HasFatal() {
		p.processFile(main, -1)
	}
	p.endRow()
	return &Expansion{Text: p.out.Bytes(), rows: p.rows, packs: p.packs}
}

func (p *Preprocessor) definePredefined() {
	builtin := &SourceFile{Name: "<built-in>"}
	var lines []string
	for _, kv := range p.target.PredefinedMacros(p.opts.Language, p.opts.Std) {
		lines = append(lines, kv[0]+" "+kv[1])
	}
	lines = append(lines, compatMacros...)
	for _, l := range lines {
		p.define(builtin, tokenizeLine(builtin, logicalLine{text: l}), true)
	}
	for name, fn := range p.dynamicMacros() {
		p.macros[name] = &macro{name: name, dynamic: fn}
	}

	cmdline := &SourceFile{Name: "<command line>"}
	for _, op := range p.opts.Macros {
		if op.Undef {
			delete(p.macros, op.Name)
			continue
		}
		p.define(cmdline, tokenizeLine(cmdline, logicalLine{text: op.Name + " " + op.Value}), true)
	}
}

func (p *Preprocessor) loc(t token) cdecl.Location {
	if t.file == nil {
		return cdecl.Location{}
	}
	return cdecl.Location{File: t.file.Name, RealPath: t.file.Path, HasEntry: t.file.HasEntry, Line: t.line, Column: t.col}
}

func (p *Preprocessor) live() bool {
	return len(p.conds) == 0 || p.conds[len(p.conds)-1].active
}

func (p *Preprocessor) processFile(f *SourceFile, dirIdx int) {
	p.depth++
	defer func() { p.depth-- }()

	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{"file": f.Name, "depth": p.depth}).Trace("entering file")
	}

	condBase := len(p.conds)
	var block []token
	flush := func() {
		if len(block) > 0 {
			p.emit(p.expandAll(newReader(block)))
			block = nil
		}
	}

	for _, ll := range splitLogicalLines(f.Content) {
		if p.fatal {
			return
		}
		toks := tokenizeLine(f, ll)
		if len(toks) > 0 && toks[0].is("#") {
			flush()
			p.directive(f, dirIdx, toks, ll)
			continue
		}
		if !p.live() {
			continue
		}
		block = append(block, toks...)
		block = append(block, token{kind: tokNewline, file: f, line: ll.line})
	}
	flush()

	for len(p.conds) > condBase {
		top := p.conds[len(p.conds)-1]
		p.diags.Errorf(top.loc, "unterminated conditional directive")
		p.conds = p.conds[:len(p.conds)-1]
	}
}

func (p *Preprocessor) directive(f *SourceFile, dirIdx int, toks []token, ll logicalLine) {
	if len(toks) == 1 {
		return
	}
	name := toks[1]
	args := toks[2:]

	switch name.text {
	case "if", "ifdef", "ifndef":
		p.openConditional(name, args)
		return
	case "elif", "elifdef", "elifndef":
		p.elseConditional(name, args)
		return
	case "else":
		p.elseConditional(name, nil)
		return
	case "endif":
		if len(p.conds) == 0 {
			p.diags.Errorf(p.loc(name), "#endif without #if")
			return
		}
		p.conds = p.conds[:len(p.conds)-1]
		return
	}

	if !p.live() {
		return
	}

	switch name.text {
	case "include", "include_next", "import":
		p.include(f, dirIdx, name, args, ll)
	case "define":
		p.define(f, args, false)
	case "undef":
		if len(args) == 0 || args[0].kind != tokIdent {
			p.diags.Errorf(p.loc(name), "macro name missing")
			return
		}
		delete(p.macros, args[0].text)
	case "error":
		p.diags.Errorf(p.loc(toks[0]), "%s", directiveMessage(ll.text, name))
	case "warning":
		p.diags.Warnf(p.loc(toks[0]), "%s", directiveMessage(ll.text, name))
	case "pragma":
		p.pragma(f, args)
	case "line", "ident", "sccs", "assert", "unassert":
	default:
		if name.kind == tokNumber {
			// GNU line marker.
			return
		}
		p.diags.Errorf(p.loc(name), "invalid preprocessing directive")
	}
}

func directiveMessage(text string, name token) string {
	idx := name.col - 1 + len(name.text)
	if idx > len(text) {
		return ""
	}
	return strings.TrimSpace(text[idx:])
}

func (p *Preprocessor) openConditional(name token, args []token) {
	parent := p.live()
	frame := condFrame{parentLive: parent, loc: p.loc(name)}
	if parent {
		frame.active = p.evalCondition(name, args)
		frame.taken = frame.active
	}
	p.conds = append(p.conds, frame)
}

func (p *Preprocessor) elseConditional(name token, args []token) {
	if len(p.conds) == 0 {
		p.diags.Errorf(p.loc(name), "#%s without #if", name.text)
		return
	}
	top := &p.conds[len(p.conds)-1]
	if top.seenElse {
		p.diags.Errorf(p.loc(name), "#%s after #else", name.text)
		return
	}
	if name.text == "else" {
		top.seenElse = true
		top.active = top.parentLive && !top.taken
		top.taken = top.taken || top.active
		return
	}
	if !top.parentLive || top.taken {
		top.active = false
		return
	}
	cond := "if"
	switch name.text {
	case "elifdef":
		cond = "ifdef"
	case "elifndef":
		cond = "ifndef"
	}
	top.active = p.evalCondition(token{kind: tokIdent, text: cond, file: name.file, line: name.line, col: name.col}, args)
	top.taken = top.active
}

func (p *Preprocessor) evalCondition(name token, args []token) bool {
	switch name.text {
	case "ifdef", "ifndef":
		if len(args) == 0 || args[0].kind != tokIdent {
			p.diags.Errorf(p.loc(name), "macro name missing")
			return false
		}
		defined := p.isDefined(args[0].text)
		return defined == (name.text == "ifdef")
	}

	toks, ok := p.resolveQueries(name, args)
	if !ok {
		return false
	}
	// Macros may expand to feature queries.
	expanded, ok := p.resolveQueries(name, p.expandAll(newReader(toks)))
	if !ok {
		return false
	}
	for i, t := range expanded {
		if t.kind != tokIdent {
			continue
		}
		v := "0"
		if p.opts.Language == LangCXX && t.text == "true" {
			v = "1"
		}
		expanded[i] = token{kind: tokNumber, text: v, file: t.file, line: t.line, col: t.col}
	}
	v, err := evalPPExpr(expanded)
	if err != nil {
		p.diags.Errorf(p.loc(name), "%v", err)
		return false
	}
	return v.truthy()
}

func (p *Preprocessor) isDefined(name string) bool {
	if _, ok := p.macros[name]; ok {
		return true
	}
	return hasQueries[name] || name == "_Pragma"
}

// resolveQueries replaces defined and __has_* operators with 0 or 1. It
// runs on the raw condition and again on its expansion.
func (p *Preprocessor) resolveQueries(name token, args []token) ([]token, bool) {
	var out []token
	num := func(at token, b bool) token {
		v := "0"
		if b {
			v = "1"
		}
		return token{kind: tokNumber, text: v, ws: at.ws, file: at.file, line: at.line, col: at.col}
	}

	for i := 0; i < len(args); i++ {
		t := args[i]
		if t.kind != tokIdent {
			out = append(out, t)
			continue
		}
		switch {
		case t.text == "defined":
			j := i + 1
			paren := j < len(args) && args[j].is("(")
			if paren {
				j++
			}
			if j >= len(args) || args[j].kind != tokIdent {
				p.diags.Errorf(p.loc(t), "macro name missing")
				return nil, false
			}
			out = append(out, num(t, p.isDefined(args[j].text)))
			if paren {
				j++
				if j >= len(args) || !args[j].is(")") {
					p.diags.Errorf(p.loc(t), "missing ')' after 'defined'")
					return nil, false
				}
			}
			i = j
		case hasQueries[t.text]:
			if i+1 >= len(args) || !args[i+1].is("(") {
				p.diags.Errorf(p.loc(t), "missing '(' after '%s'", t.text)
				return nil, false
			}
			end := matchingParen(args, i+1)
			if end < 0 {
				p.diags.Errorf(p.loc(t), "missing ')' after '%s'", t.text)
				return nil, false
			}
			out = append(out, num(t, p.answerQuery(t, args[i+2:end])))
			i = end
		default:
			out = append(out, t)
		}
	}
	return out, true
}

func (p *Preprocessor) answerQuery(q token, arg []token) bool {
	switch q.text {
	case "__has_include", "__has_include_next":
		name, angled, ok := headerName(p.expandIfNeeded(arg))
		if !ok {
			return false
		}
		from := q.file
		if from == nil {
			from = &SourceFile{}
		}
		f, _ := p.findInclude(name, angled, from, -1)
		return f != nil
	case "__has_attribute", "__has_cpp_attribute", "__has_c_attribute":
		if len(arg) == 0 {
			return false
		}
		return supportedAttributes[arg[len(arg)-1].text]
	case "__is_identifier":
		return true
	case "__is_target_arch":
		return len(arg) == 1 && arg[0].text == p.target.Arch
	case "__is_target_os":
		return len(arg) == 1 && arg[0].text == p.target.OS
	}
	return false
}

func (p *Preprocessor) expandIfNeeded(toks []token) []token {
	if len(toks) > 0 && (toks[0].kind == tokString || toks[0].is("<")) {
		return toks
	}
	return p.expandAll(newReader(append([]token(nil), toks...)))
}

// headerName extracts "name" or <name> from include tokens.
func headerName(toks []token) (string, bool, bool) {
	if len(toks) == 0 {
		return "", false, false
	}
	if toks[0].kind == tokString && strings.HasPrefix(toks[0].text, "\"") {
		return strings.Trim(toks[0].text, "\""), false, true
	}
	if toks[0].is("<") {
		var b strings.Builder
		for i, t := range toks[1:] {
			if t.is(">") {
				return b.String(), true, true
			}
			if i > 0 && t.ws != "" {
				b.WriteString(t.ws)
			}
			b.WriteString(t.text)
		}
	}
	return "", false, false
}

func (p *Preprocessor) include(f *SourceFile, dirIdx int, name token, args []token, ll logicalLine) {
	var (
		file   string
		angled bool
		ok     bool
	)
	// Angled names are taken from the raw line so their spelling survives.
	if len(args) > 0 && args[0].is("<") {
		raw := ll.text[args[0].col:]
		if end := strings.IndexByte(raw, '>'); end >= 0 {
			file, angled, ok = raw[:end], true, true
		}
	} else {
		file, angled, ok = headerName(p.expandIfNeeded(args))
	}
	if !ok || file == "" {
		p.diags.Errorf(p.loc(name), "expected \"FILENAME\" or <FILENAME>")
		return
	}

	if p.depth >= MaxIncludeDepth {
		p.diags.Fatalf(p.loc(name), "#include nested depth %d exceeds maximum of %d", p.depth, MaxIncludeDepth)
		p.fatal = true
		return
	}

	start := -1
	if name.text == "include_next" && dirIdx >= 0 {
		start = dirIdx + 1
		angled = true
	}
	inc, idx := p.findInclude(file, angled, f, start)
	if inc == nil {
		p.diags.Fatalf(p.loc(args[0]), "'%s' file not found", file)
		p.fatal = true
		return
	}
	if p.once[inc.Path] {
		return
	}
	if name.text == "import" {
		p.once[inc.Path] = true
	}
	p.processFile(inc, idx)
}

// findInclude searches for name. Quoted names try the includer's
// directory and the -iquote list before the angled path. start >= 0
// resumes the angled search after a previous hit, as for #include_next.
func (p *Preprocessor) findInclude(name string, angled bool, from *SourceFile, start int) (*SourceFile, int) {
	if filepath.IsAbs(name) {
		if f, err := p.files.Open(name); err == nil {
			return f, -1
		}
		return nil, -1
	}
	if !angled && start < 0 {
		dir := filepath.Dir(from.Name)
		if from.Name == "" {
			dir = "."
		}
		cand := name
		if dir != "." {
			cand = filepath.Join(dir, name)
		}
		if p.files.Exists(cand) {
			if f, err := p.files.Open(cand); err == nil {
				return f, -1
			}
		}
		for _, d := range p.quoteDirs {
			cand := filepath.Join(d.path, name)
			if p.files.Exists(cand) {
				if f, err := p.files.Open(cand); err == nil {
					return f, -1
				}
			}
		}
	}
	if start < 0 {
		start = 0
	}
	for i := start; i < len(p.dirs); i++ {
		cand := filepath.Join(p.dirs[i].path, name)
		if p.files.Exists(cand) {
			if f, err := p.files.Open(cand); err == nil {
				return f, i
			}
		}
	}
	return nil, -1
}

func (p *Preprocessor) pragma(f *SourceFile, args []token) {
	if len(args) == 0 {
		return
	}
	switch args[0].text {
	case "once":
		p.once[f.Path] = true
	case "pack":
		p.pragmaPack(args[1:])
	default:
		if p.logger != nil {
			p.logger.WithField("pragma", joinTokens(args)).Trace("ignoring pragma")
		}
	}
}

// pragmaPack handles pack(), pack(N), pack(push[, N]) and pack(pop).
func (p *Preprocessor) pragmaPack(args []token) {
	var inner []token
	if len(args) >= 2 && args[0].is("(") && args[len(args)-1].is(")") {
		inner = args[1 : len(args)-1]
	}
	var words []string
	for _, t := range inner {
		if !t.is(",") {
			words = append(words, t.text)
		}
	}
	setN := func(s string) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			p.pack = n
		}
	}
	switch {
	case len(words) == 0:
		p.pack = 0
	case words[0] == "push":
		p.packStk = append(p.packStk, p.pack)
		if len(words) > 1 {
			setN(words[len(words)-1])
		}
	case words[0] == "pop":
		if n := len(p.packStk); n > 0 {
			p.pack = p.packStk[n-1]
			p.packStk = p.packStk[:n-1]
		}
	default:
		setN(words[0])
	}
	p.packs = append(p.packs, packChange{row: len(p.rows), bytes: p.pack})
}

func (p *Preprocessor) define(f *SourceFile, args []token, predefined bool) {
	if len(args) == 0 || args[0].kind != tokIdent {
		if len(args) > 0 {
			p.diags.Errorf(p.loc(args[0]), "macro name must be an identifier")
		} else {
			p.diags.Errorf(cdecl.Location{}, "macro name missing")
		}
		return
	}
	name := args[0]
	if name.text == "defined" {
		p.diags.Errorf(p.loc(name), "'defined' cannot be used as a macro name")
		return
	}
	m := &macro{name: name.text}
	rest := args[1:]

	if len(rest) > 0 && rest[0].is("(") && rest[0].ws == "" {
		m.funcLike = true
		closed := false
		i := 1
	params:
		for ; i < len(rest); i++ {
			t := rest[i]
			switch {
			case t.is(")"):
				closed = true
				break params
			case t.is(","):
			case t.is("..."):
				m.variadic = true
				m.params = append(m.params, "__VA_ARGS__")
			case t.kind == tokIdent:
				if i+1 < len(rest) && rest[i+1].is("...") {
					m.variadic = true
					i++
				}
				m.params = append(m.params, t.text)
			default:
				p.diags.Errorf(p.loc(t), "invalid token in macro parameter list")
				return
			}
		}
		if !closed {
			p.diags.Errorf(p.loc(name), "missing ')' in macro parameter list")
			return
		}
		rest = rest[i+1:]
	}

	m.body = append([]token(nil), rest...)
	if len(m.body) > 0 {
		m.body[0].ws = ""
		if m.body[0].is("##") || m.body[len(m.body)-1].is("##") {
			p.diags.Errorf(p.loc(m.body[0]), "'##' cannot appear at either end of macro expansion")
			return
		}
	}
	if m.funcLike {
		for i, t := range m.body {
			if t.is("#") && (i+1 >= len(m.body) || m.paramIndex(m.body[i+1]) < 0) {
				p.diags.Errorf(p.loc(t), "'#' is not followed by a macro parameter")
				return
			}
		}
	}

	if old, ok := p.macros[m.name]; ok && !predefined && old.dynamic == nil && !old.sameDefinition(m) {
		p.diags.Warnf(p.loc(name), "'%s' macro redefined", m.name)
	}
	p.macros[m.name] = m
}

// emit appends expanded tokens to the output, tracking where each column
// came from.
func (p *Preprocessor) emit(toks []token) {
	for _, t := range toks {
		if t.kind == tokNewline {
			p.endRow()
			continue
		}
		ws := t.ws
		if p.col == 0 {
			if t.expanded {
				ws = ""
			}
		} else if ws == "" && mergesWith(p.lastTok, t) {
			ws = " "
		}
		start := p.col + len(ws)
		p.addSegment(t, start)
		p.out.WriteString(ws)
		p.out.WriteString(t.text)
		p.col = start + len(t.text)
		p.lastTok = t
	}
}

func (p *Preprocessor) addSegment(t token, outCol int) {
	if n := len(p.row); n > 0 {
		s := p.row[n-1]
		if s.file == t.file && s.line == t.line && s.fixed == t.expanded {
			if s.fixed && s.col == t.col {
				return
			}
			if !s.fixed && s.col+(outCol-s.outCol) == t.col {
				return
			}
		}
	}
	p.row = append(p.row, segment{outCol: outCol, file: t.file, line: t.line, col: t.col, fixed: t.expanded})
}

func (p *Preprocessor) endRow() {
	p.rows = append(p.rows, p.row)
	p.row = nil
	p.col = 0
	p.lastTok = token{}
	p.out.WriteByte('\n')
}

// mergesWith reports whether writing b directly after a would lex as a
// different token sequence.
func mergesWith(a, b token) bool {
	if a.text == "" || b.text == "" {
		return false
	}
	x, y := a.text[len(a.text)-1], b.text[0]
	if isIdentChar(x) && isIdentChar(y) {
		return true
	}
	if a.kind == tokPunct && b.kind == tokPunct {
		return len(lexText(a.text+b.text)) < 2
	}
	return x == '.' && isDigit(y)
}
