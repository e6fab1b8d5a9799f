package frontend

import (
	"fmt"
	"strconv"
	"strings"
)

// ppValue is an integer in the preprocessor's intmax_t/uintmax_t domain.
type ppValue struct {
	v        int64
	unsigned bool
}

func (v ppValue) truthy() bool { return v.v != 0 }

func boolValue(b bool) ppValue {
	if b {
		return ppValue{v: 1}
	}
	return ppValue{}
}

// IntLiteral is a parsed integer constant.
type IntLiteral struct {
	Value    uint64
	Unsigned bool
	// Longs counts the l/L suffix letters.
	Longs int
	// Decimal literals without a suffix never become unsigned implicitly.
	Decimal bool
}

// ParseIntLiteral parses a C integer literal with an optional suffix.
func ParseIntLiteral(text string) (IntLiteral, error) {
	s := strings.ReplaceAll(text, "'", "")
	lit := IntLiteral{}
suffix:
	for len(s) > 0 {
		switch s[len(s)-1] {
		case 'u', 'U':
			lit.Unsigned = true
		case 'l', 'L':
			lit.Longs++
		case 'z', 'Z':
		default:
			break suffix
		}
		s = s[:len(s)-1]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	lit.Decimal = base == 10
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return lit, fmt.Errorf("invalid integer constant '%s'", text)
	}
	lit.Value = v
	return lit, nil
}

// ParseCharLiteral returns the value of a character constant such as 'a',
// '\n' or L'x'. Plain char constants are sign-extended from 8 bits.
func ParseCharLiteral(text string) (int64, error) {
	prefix := ""
	if i := strings.IndexByte(text, '\''); i > 0 {
		prefix, text = text[:i], text[i:]
	}
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return 0, fmt.Errorf("invalid character constant %s", text)
	}
	body := text[1 : len(text)-1]
	var value int64
	for len(body) > 0 {
		var c int64
		if body[0] == '\\' && len(body) > 1 {
			n := 2
			switch body[1] {
			case 'n':
				c = '\n'
			case 't':
				c = '\t'
			case 'r':
				c = '\r'
			case 'a':
				c = 7
			case 'b':
				c = 8
			case 'f':
				c = 12
			case 'v':
				c = 11
			case 'e':
				c = 27
			case 'x':
				j := 2
				for j < len(body) && strings.IndexByte("0123456789abcdefABCDEF", body[j]) >= 0 {
					j++
				}
				v, _ := strconv.ParseUint(body[2:j], 16, 64)
				c, n = int64(v), j
			case '0', '1', '2', '3', '4', '5', '6', '7':
				j := 1
				for j < len(body) && j < 4 && body[j] >= '0' && body[j] <= '7' {
					j++
				}
				v, _ := strconv.ParseUint(body[1:j], 8, 64)
				c, n = int64(v), j
			default:
				c = int64(body[1])
			}
			body = body[n:]
		} else {
			c = int64(body[0])
			body = body[1:]
		}
		value = value<<8 | c
	}
	if prefix == "" && value < 256 {
		value = int64(int8(value))
	}
	return value, nil
}

// ppExpr evaluates a fully expanded #if expression.
type ppExpr struct {
	toks []token
	pos  int
	// skip is positive while evaluating an operand whose value is unused,
	// where division by zero is not an error.
	skip int
	err  error
}

func evalPPExpr(toks []token) (ppValue, error) {
	e := &ppExpr{toks: toks}
	if len(toks) == 0 {
		return ppValue{}, fmt.Errorf("expected value in expression")
	}
	v := e.comma()
	if e.err == nil && e.pos < len(e.toks) {
		e.fail("token is not a valid binary operator in a preprocessor subexpression")
	}
	return v, e.err
}

func (e *ppExpr) fail(format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
}

func (e *ppExpr) peek() string {
	if e.pos < len(e.toks) {
		return e.toks[e.pos].text
	}
	return ""
}

func (e *ppExpr) accept(op string) bool {
	if e.pos < len(e.toks) && e.toks[e.pos].kind == tokPunct && e.toks[e.pos].text == op {
		e.pos++
		return true
	}
	return false
}

func (e *ppExpr) comma() ppValue {
	v := e.conditional()
	for e.accept(",") {
		v = e.conditional()
	}
	return v
}

func (e *ppExpr) conditional() ppValue {
	c := e.binary(0)
	if !e.accept("?") {
		return c
	}
	if !c.truthy() {
		e.skip++
	}
	a := e.comma()
	if !c.truthy() {
		e.skip--
	}
	if !e.accept(":") {
		e.fail("expected ':' in conditional expression")
		return ppValue{}
	}
	if c.truthy() {
		e.skip++
	}
	b := e.conditional()
	if c.truthy() {
		e.skip--
	}
	unsigned := a.unsigned || b.unsigned
	if c.truthy() {
		return ppValue{v: a.v, unsigned: unsigned}
	}
	return ppValue{v: b.v, unsigned: unsigned}
}

var ppPrecedence = map[string]int{
	"||": 1, "&&": 2, "|": 3, "^": 4, "&": 5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (e *ppExpr) binary(minPrec int) ppValue {
	lhs := e.unary()
	for e.err == nil {
		op := e.peek()
		prec, ok := ppPrecedence[op]
		if !ok || prec <= minPrec || e.toks[e.pos].kind != tokPunct {
			return lhs
		}
		e.pos++
		shortCircuit := (op == "&&" && !lhs.truthy()) || (op == "||" && lhs.truthy())
		if shortCircuit {
			e.skip++
		}
		rhs := e.binary(prec)
		if shortCircuit {
			e.skip--
		}
		lhs = e.apply(op, lhs, rhs)
	}
	return lhs
}

func (e *ppExpr) apply(op string, a, b ppValue) ppValue {
	unsigned := a.unsigned || b.unsigned
	ua, ub := uint64(a.v), uint64(b.v)
	switch op {
	case "||":
		return boolValue(a.truthy() || b.truthy())
	case "&&":
		return boolValue(a.truthy() && b.truthy())
	case "|":
		return ppValue{v: a.v | b.v, unsigned: unsigned}
	case "^":
		return ppValue{v: a.v ^ b.v, unsigned: unsigned}
	case "&":
		return ppValue{v: a.v & b.v, unsigned: unsigned}
	case "==":
		return boolValue(a.v == b.v)
	case "!=":
		return boolValue(a.v != b.v)
	case "<":
		if unsigned {
			return boolValue(ua < ub)
		}
		return boolValue(a.v < b.v)
	case ">":
		if unsigned {
			return boolValue(ua > ub)
		}
		return boolValue(a.v > b.v)
	case "<=":
		if unsigned {
			return boolValue(ua <= ub)
		}
		return boolValue(a.v <= b.v)
	case ">=":
		if unsigned {
			return boolValue(ua >= ub)
		}
		return boolValue(a.v >= b.v)
	case "<<":
		return ppValue{v: int64(ua << (ub & 63)), unsigned: a.unsigned}
	case ">>":
		if a.unsigned {
			return ppValue{v: int64(ua >> (ub & 63)), unsigned: true}
		}
		return ppValue{v: a.v >> (ub & 63)}
	case "+":
		return ppValue{v: a.v + b.v, unsigned: unsigned}
	case "-":
		return ppValue{v: a.v - b.v, unsigned: unsigned}
	case "*":
		return ppValue{v: a.v * b.v, unsigned: unsigned}
	case "/", "%":
		if b.v == 0 {
			if e.skip == 0 {
				e.fail("division by zero in preprocessor expression")
			}
			return ppValue{unsigned: unsigned}
		}
		if unsigned {
			if op == "/" {
				return ppValue{v: int64(ua / ub), unsigned: true}
			}
			return ppValue{v: int64(ua % ub), unsigned: true}
		}
		if op == "/" {
			return ppValue{v: a.v / b.v}
		}
		return ppValue{v: a.v % b.v}
	}
	e.fail("invalid operator %s", op)
	return ppValue{}
}

func (e *ppExpr) unary() ppValue {
	switch {
	case e.accept("+"):
		return e.unary()
	case e.accept("-"):
		v := e.unary()
		return ppValue{v: -v.v, unsigned: v.unsigned}
	case e.accept("~"):
		v := e.unary()
		return ppValue{v: ^v.v, unsigned: v.unsigned}
	case e.accept("!"):
		return boolValue(!e.unary().truthy())
	}
	return e.primary()
}

func (e *ppExpr) primary() ppValue {
	if e.pos >= len(e.toks) {
		e.fail("expected value in expression")
		return ppValue{}
	}
	t := e.toks[e.pos]
	e.pos++
	switch t.kind {
	case tokNumber:
		lit, err := ParseIntLiteral(t.text)
		if err != nil {
			if strings.ContainsAny(t.text, ".") {
				e.fail("floating point literal in preprocessor expression")
			} else {
				e.fail("%v", err)
			}
			return ppValue{}
		}
		return ppValue{v: int64(lit.Value), unsigned: lit.Unsigned || lit.Value > 1<<63-1}
	case tokChar:
		v, err := ParseCharLiteral(t.text)
		if err != nil {
			e.fail("%v", err)
		}
		return ppValue{v: v}
	case tokPunct:
		if t.text == "(" {
			v := e.comma()
			if !e.accept(")") {
				e.fail("expected ')' in preprocessor expression")
			}
			return v
		}
	}
	e.fail("invalid token at start of a preprocessor expression")
	return ppValue{}
}
