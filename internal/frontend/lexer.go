package frontend

import (
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokChar
	tokPunct
	tokOther
	tokNewline
)

// token is a preprocessing token. Line and Col are where the token, or the
// macro invocation that produced it, was written.
type token struct {
	kind tokenKind
	text string
	// ws is the whitespace that preceded the token on its line.
	ws   string
	file *SourceFile
	line int
	col  int
	// hide holds the macros that may not expand this token again.
	hide hideSet
	// expanded marks tokens produced by a macro expansion.
	expanded bool
}

func (t token) is(text string) bool {
	return t.kind != tokNewline && t.text == text
}

type hideSet map[string]struct{}

func (h hideSet) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h hideSet) with(names ...string) hideSet {
	out := make(hideSet, len(h)+len(names))
	for k := range h {
		out[k] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func (h hideSet) union(o hideSet) hideSet {
	out := h.with()
	for k := range o {
		out[k] = struct{}{}
	}
	return out
}

func (h hideSet) intersect(o hideSet) hideSet {
	out := make(hideSet)
	for k := range h {
		if o.has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// logicalLine is a source line after comment removal and line splicing.
type logicalLine struct {
	text string
	line int
}

// splitLogicalLines removes comments and joins backslash-continued lines.
// Comments become a single space; newlines inside block comments end the
// current line so later line numbers stay exact.
func splitLogicalLines(src []byte) []logicalLine {
	var (
		lines    []logicalLine
		cur      strings.Builder
		start    = 1
		phys     = 1
		inBlock  bool
		inQuote  byte
		n        = len(src)
		flushAt  = func(next int) {
			lines = append(lines, logicalLine{text: cur.String(), line: start})
			cur.Reset()
			start = next
		}
	)

	for i := 0; i < n; i++ {
		c := src[i]

		if c == '\\' && i+1 < n && src[i+1] == '\n' {
			i++
			phys++
			continue
		}
		if c == '\n' {
			phys++
			inQuote = 0
			flushAt(phys)
			continue
		}

		if inBlock {
			if c == '*' && i+1 < n && src[i+1] == '/' {
				inBlock = false
				i++
				cur.WriteByte(' ')
			}
			continue
		}

		if inQuote != 0 {
			cur.WriteByte(c)
			if c == '\\' && i+1 < n && src[i+1] != '\n' {
				i++
				cur.WriteByte(src[i])
			} else if c == inQuote {
				inQuote = 0
			}
			continue
		}

		switch {
		case c == '/' && i+1 < n && src[i+1] == '*':
			inBlock = true
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i+1 < n && src[i+1] != '\n' {
				if src[i+1] == '\\' && i+2 < n && src[i+2] == '\n' {
					i += 2
					phys++
					continue
				}
				i++
			}
		case c == '"' || c == '\'':
			inQuote = c
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		flushAt(phys)
	}
	return lines
}

var punctuators = []string{
	"...", "<<=", ">>=", "->*", "<=>",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=", "##", "::", ".*",
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenizeLine lexes one logical line. The tokens are not followed by a
// newline token.
func tokenizeLine(file *SourceFile, ll logicalLine) []token {
	s := ll.text
	var toks []token
	i := 0
	for i < len(s) {
		wsStart := i
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\f' || s[i] == '\v') {
			i++
		}
		if i >= len(s) {
			break
		}
		ws := s[wsStart:i]
		start := i
		kind := lexOne(s, &i)
		toks = append(toks, token{
			kind: kind,
			text: s[start:i],
			ws:   ws,
			file: file,
			line: ll.line,
			col:  start + 1,
		})
	}
	return toks
}

// lexOne advances *i past the token starting at it.
func lexOne(s string, i *int) tokenKind {
	c := s[*i]
	switch {
	case isDigit(c) || (c == '.' && *i+1 < len(s) && isDigit(s[*i+1])):
		*i++
		for *i < len(s) {
			d := s[*i]
			if (d == '+' || d == '-') && strings.ContainsRune("eEpP", rune(s[*i-1])) {
				*i++
				continue
			}
			if isIdentChar(d) || d == '.' || d == '\'' {
				*i++
				continue
			}
			break
		}
		return tokNumber
	case isIdentStart(c):
		start := *i
		for *i < len(s) && isIdentChar(s[*i]) {
			*i++
		}
		if *i < len(s) && (s[*i] == '"' || s[*i] == '\'') {
			switch s[start:*i] {
			case "L", "u", "U", "u8":
				q := s[*i]
				lexQuoted(s, i, q)
				if q == '"' {
					return tokString
				}
				return tokChar
			}
		}
		return tokIdent
	case c == '"' || c == '\'':
		lexQuoted(s, i, c)
		if c == '"' {
			return tokString
		}
		return tokChar
	}
	for _, p := range punctuators {
		if strings.HasPrefix(s[*i:], p) {
			*i += len(p)
			return tokPunct
		}
	}
	*i++
	if strings.ContainsRune("()[]{};,:?~!%^&*-+=|<>./#", rune(c)) {
		return tokPunct
	}
	return tokOther
}

func lexQuoted(s string, i *int, q byte) {
	*i++
	for *i < len(s) {
		c := s[*i]
		*i++
		if c == '\\' && *i < len(s) {
			*i++
			continue
		}
		if c == q {
			return
		}
	}
}

// lexText tokenizes a string that is not attached to a file, as done for
// pasted tokens and command-line macro bodies.
func lexText(text string) []token {
	return tokenizeLine(nil, logicalLine{text: text, line: 0})
}

func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if t.kind == tokNewline {
			continue
		}
		if i > 0 && t.ws != "" {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}
