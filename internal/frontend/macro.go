package frontend

import (
	"strconv"
	"strings"
	"time"
)

// macro is a #define.
type macro struct {
	name     string
	funcLike bool
	params   []string
	variadic bool
	body     []token
	// dynamic macros compute their expansion from the invocation site.
	dynamic func(site token) []token
}

func (m *macro) paramIndex(t token) int {
	if !m.funcLike || t.kind != tokIdent {
		return -1
	}
	for i, p := range m.params {
		if p == t.text {
			return i
		}
	}
	return -1
}

func (m *macro) vaIndex() int {
	if !m.variadic {
		return -1
	}
	return len(m.params) - 1
}

// sameDefinition compares two definitions the way redefinition checks do:
// parameters, body spelling and whitespace presence must match.
func (m *macro) sameDefinition(o *macro) bool {
	if m.funcLike != o.funcLike || m.variadic != o.variadic || len(m.params) != len(o.params) || len(m.body) != len(o.body) {
		return false
	}
	for i := range m.params {
		if m.params[i] != o.params[i] {
			return false
		}
	}
	for i := range m.body {
		if m.body[i].text != o.body[i].text || (i > 0 && (m.body[i].ws == "") != (o.body[i].ws == "")) {
			return false
		}
	}
	return true
}

// tokenReader is a stack of token slices; pushed expansions are read
// before the rest of the input.
type tokenReader struct {
	stack [][]token
}

func newReader(toks []token) *tokenReader {
	r := &tokenReader{}
	r.push(toks)
	return r
}

func (r *tokenReader) push(toks []token) {
	if len(toks) > 0 {
		r.stack = append(r.stack, toks)
	}
}

func (r *tokenReader) next() (token, bool) {
	for len(r.stack) > 0 {
		top := r.stack[len(r.stack)-1]
		if len(top) == 0 {
			r.stack = r.stack[:len(r.stack)-1]
			continue
		}
		t := top[0]
		r.stack[len(r.stack)-1] = top[1:]
		return t, true
	}
	return token{}, false
}

// nextIsParen consumes newlines up to a '(' and reports whether one was
// found. When it was not, the newlines are put back.
func (r *tokenReader) nextIsParen() bool {
	var skipped []token
	for {
		t, ok := r.next()
		if !ok {
			r.push(skipped)
			return false
		}
		if t.kind == tokNewline {
			skipped = append(skipped, t)
			continue
		}
		if t.is("(") {
			return true
		}
		r.push(append(skipped, t))
		return false
	}
}

// expandAll fully macro-expands the reader's tokens.
func (p *Preprocessor) expandAll(r *tokenReader) []token {
	var out []token
	for {
		t, ok := r.next()
		if !ok {
			return out
		}
		if t.kind != tokIdent || t.hide.has(t.text) {
			out = append(out, t)
			continue
		}
		if t.text == "_Pragma" || t.text == "__pragma" {
			if p.skipPragmaOperator(t, r) {
				continue
			}
			out = append(out, t)
			continue
		}
		m := p.macros[t.text]
		if m == nil || !p.expandMacro(m, t, r) {
			out = append(out, t)
		}
	}
}

func (p *Preprocessor) expandMacro(m *macro, site token, r *tokenReader) bool {
	if m.dynamic != nil {
		r.push(markExpanded(m.dynamic(site), site, site.hide.with(m.name)))
		return true
	}
	if !m.funcLike {
		r.push(p.substitute(m, nil, site.hide.with(m.name), site))
		return true
	}
	if !r.nextIsParen() {
		return false
	}
	args, rparen, ok := p.collectArgs(m, site, r)
	if !ok {
		return true
	}
	hs := site.hide.intersect(rparen.hide).with(m.name)
	r.push(p.substitute(m, args, hs, site))
	return true
}

// collectArgs reads the arguments of a function-like invocation after the
// opening parenthesis.
func (p *Preprocessor) collectArgs(m *macro, site token, r *tokenReader) ([][]token, token, bool) {
	var (
		args         [][]token
		cur          []token
		depth        int
		pendingSpace bool
	)
	for {
		t, ok := r.next()
		if !ok {
			p.diags.Errorf(p.loc(site), "unterminated function-like macro invocation")
			return nil, token{}, false
		}
		if t.kind == tokNewline {
			pendingSpace = true
			continue
		}
		if pendingSpace && t.ws == "" {
			t.ws = " "
		}
		pendingSpace = false

		switch {
		case t.is("("):
			depth++
		case t.is(")"):
			if depth == 0 {
				args = append(args, cur)
				return p.checkArity(m, site, args, t)
			}
			depth--
		case t.is(",") && depth == 0 && !(m.variadic && len(args) >= len(m.params)-1):
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
}

func (p *Preprocessor) checkArity(m *macro, site token, args [][]token, rparen token) ([][]token, token, bool) {
	if len(m.params) == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil, rparen, true
	}
	if m.variadic && len(args) == len(m.params)-1 {
		args = append(args, nil)
	}
	switch {
	case len(args) < len(m.params):
		p.diags.Errorf(p.loc(site), "too few arguments provided to function-like macro invocation")
		return nil, rparen, false
	case len(args) > len(m.params):
		p.diags.Errorf(p.loc(site), "too many arguments provided to function-like macro invocation")
		return nil, rparen, false
	}
	return args, rparen, true
}

// substitute replaces parameters in the body of m and applies # and ##.
func (p *Preprocessor) substitute(m *macro, args [][]token, hs hideSet, site token) []token {
	body := m.body
	var out []token
	argOf := func(t token) ([]token, bool) {
		if i := m.paramIndex(t); i >= 0 && i < len(args) {
			return args[i], true
		}
		return nil, false
	}

	for i := 0; i < len(body); i++ {
		t := body[i]

		if t.is("__VA_OPT__") && m.variadic && i+1 < len(body) && body[i+1].is("(") {
			end := matchingParen(body, i+1)
			if end > 0 {
				var inner []token
				if va := args[m.vaIndex()]; len(va) > 0 {
					inner = body[i+2 : end]
				}
				rest := append(append([]token(nil), inner...), body[end+1:]...)
				body = append(append([]token(nil), body[:i]...), rest...)
				i--
				continue
			}
		}

		if t.is("#") && m.funcLike && i+1 < len(body) {
			if arg, ok := argOf(body[i+1]); ok {
				s := stringize(arg)
				s.ws = t.ws
				out = append(out, s)
				i++
				continue
			}
		}

		// GNU extension: , ## __VA_ARGS__ drops the comma when empty.
		if t.is(",") && m.variadic && i+2 < len(body) && body[i+1].is("##") && m.paramIndex(body[i+2]) == m.vaIndex() {
			va := args[m.vaIndex()]
			out = append(out, t)
			if len(va) == 0 {
				out = out[:len(out)-1]
			} else {
				out = append(out, withLeadingSpace(va, body[i+2].ws)...)
			}
			i += 2
			continue
		}

		if t.is("##") && i+1 < len(body) {
			rhs := body[i+1]
			i++
			rtoks := []token{rhs}
			if arg, ok := argOf(rhs); ok {
				rtoks = arg
			}
			if len(rtoks) == 0 {
				continue
			}
			if len(out) == 0 {
				out = append(out, rtoks...)
				continue
			}
			out[len(out)-1] = p.paste(out[len(out)-1], rtoks[0])
			out = append(out, rtoks[1:]...)
			continue
		}

		if arg, ok := argOf(t); ok {
			if i+1 < len(body) && body[i+1].is("##") {
				if len(arg) == 0 {
					// Placemarker: the right side of ## is taken as is.
					if i+2 < len(body) {
						rhs := body[i+2]
						if rarg, ok := argOf(rhs); ok {
							out = append(out, withLeadingSpace(rarg, t.ws)...)
						} else {
							rhs.ws = t.ws
							out = append(out, rhs)
						}
						i += 2
					}
					continue
				}
				out = append(out, withLeadingSpace(arg, t.ws)...)
				continue
			}
			expanded := p.expandAll(newReader(append([]token(nil), arg...)))
			out = append(out, withLeadingSpace(expanded, t.ws)...)
			continue
		}

		out = append(out, t)
	}
	out = markExpanded(out, site, hs)
	if len(out) > 0 {
		out[0].ws = site.ws
	}
	return out
}

func markExpanded(toks []token, site token, hs hideSet) []token {
	out := make([]token, len(toks))
	for i, t := range toks {
		t.hide = t.hide.union(hs)
		t.file, t.line, t.col = site.file, site.line, site.col
		t.expanded = true
		out[i] = t
	}
	return out
}

func withLeadingSpace(toks []token, ws string) []token {
	if len(toks) == 0 {
		return nil
	}
	out := append([]token(nil), toks...)
	out[0].ws = ws
	return out
}

func matchingParen(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].is("("):
			depth++
		case toks[i].is(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// paste implements ##. An invalid paste keeps the spelled text as one
// token, which the parser will then reject.
func (p *Preprocessor) paste(lhs, rhs token) token {
	text := lhs.text + rhs.text
	toks := lexText(text)
	out := lhs
	out.text = text
	if len(toks) == 1 {
		out.kind = toks[0].kind
	} else {
		out.kind = tokOther
		p.diags.Errorf(p.loc(lhs), "pasting formed '%s', an invalid preprocessing token", text)
	}
	return out
}

func stringize(arg []token) token {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.ws != "" {
			b.WriteByte(' ')
		}
		if t.kind == tokString || t.kind == tokChar {
			for _, c := range t.text {
				if c == '"' || c == '\\' {
					b.WriteByte('\\')
				}
				b.WriteRune(c)
			}
			continue
		}
		b.WriteString(t.text)
	}
	b.WriteByte('"')
	return token{kind: tokString, text: b.String()}
}

// skipPragmaOperator drops _Pragma("...") and __pragma(...).
func (p *Preprocessor) skipPragmaOperator(site token, r *tokenReader) bool {
	if !r.nextIsParen() {
		return false
	}
	depth := 1
	for depth > 0 {
		t, ok := r.next()
		if !ok {
			p.diags.Errorf(p.loc(site), "unterminated %s operator", site.text)
			return true
		}
		switch {
		case t.is("("):
			depth++
		case t.is(")"):
			depth--
		}
	}
	return true
}

// dynamicMacros are the macros whose value depends on where they are used.
func (p *Preprocessor) dynamicMacros() map[string]func(token) []token {
	now := time.Now()
	str := func(s string) []token {
		return []token{{kind: tokString, text: strconv.Quote(s)}}
	}
	return map[string]func(token) []token{
		"__FILE__": func(site token) []token {
			if site.file == nil {
				return str("<built-in>")
			}
			return str(site.file.Name)
		},
		"__LINE__": func(site token) []token {
			return []token{{kind: tokNumber, text: strconv.Itoa(site.line)}}
		},
		"__COUNTER__": func(token) []token {
			n := p.counter
			p.counter++
			return []token{{kind: tokNumber, text: strconv.Itoa(n)}}
		},
		"__DATE__": func(token) []token {
			return str(now.Format("Jan _2 2006"))
		},
		"__TIME__": func(token) []token {
			return str(now.Format("15:04:05"))
		},
		"__INCLUDE_LEVEL__": func(token) []token {
			return []token{{kind: tokNumber, text: strconv.Itoa(max(p.depth-1, 0))}}
		},
	}
}
