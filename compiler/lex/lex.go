// Package lex turns raw model source into a lazy, restartable token
// stream. It never fails: characters it cannot lex become Bad tokens
// whose error is attributed later, at parse time.
package lex

import (
	"fmt"
	"strconv"

	"github.com/amblelang/amble/compiler/prim"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	Kind int8

	// Token is immutable once produced. Bind is filled in by the
	// identifier parser on a rewritten copy, never in place.
	Token struct {
		Kind Kind
		Text string
		Val  any // float64, string or bool for Literal

		Pos int
		End int

		Bind *sym.Binding
	}

	// Scanner walks the source producing one token per Next call.
	// Reset restarts it from the beginning.
	Scanner struct {
		b []byte
		i int

		last Token
	}
)

const (
	EOF Kind = iota
	Bad
	Literal
	Ident
	Keyword
	Command
	Reporter
	OpenBracket
	CloseBracket
	OpenParen
	CloseParen
)

var keywords = map[string]struct{}{
	"to":          {},
	"to-report":   {},
	"end":         {},
	"globals":     {},
	"turtles-own": {},
	"patches-own": {},
	"breed":       {},
}

func New(b []byte) *Scanner {
	return &Scanner{b: b}
}

func (s *Scanner) Reset() {
	s.i = 0
	s.last = Token{}
}

// Tokens scans the whole source. The final token is EOF.
func Tokens(b []byte) []Token {
	s := New(b)

	var l []Token

	for {
		t := s.Next()
		l = append(l, t)

		if t.Kind == EOF {
			return l
		}
	}
}

func (s *Scanner) Next() (t Token) {
	defer func() {
		s.last = t
	}()

	s.skipSpaces()

	st := s.i

	if s.i == len(s.b) {
		return Token{Kind: EOF, Pos: st, End: st}
	}

	switch c := s.b[s.i]; {
	case c == '[':
		s.i++
		return s.tok(OpenBracket, st)
	case c == ']':
		s.i++
		return s.tok(CloseBracket, st)
	case c == '(':
		s.i++
		return s.tok(OpenParen, st)
	case c == ')':
		s.i++
		return s.tok(CloseParen, st)
	case c == '"':
		return s.str(st)
	case c >= '0' && c <= '9' || c == '.' && s.digitAt(s.i+1):
		return s.num(st)
	case c == '-':
		if !s.valueEnded() && s.digitAt(s.i+1) || !s.valueEnded() && s.i+1 < len(s.b) && s.b[s.i+1] == '.' && s.digitAt(s.i+2) {
			s.i++
			return s.num(st)
		}

		s.i++

		return s.op(st)
	case isOp(c):
		s.i++

		if c == '!' || c == '<' || c == '>' {
			if s.i < len(s.b) && s.b[s.i] == '=' {
				s.i++
			}
		}

		return s.op(st)
	case isIdentStart(c):
		s.i++

		for s.i < len(s.b) && isIdent(s.b[s.i]) {
			s.i++
		}

		return s.ident(st)
	default:
		s.i++
		return s.tok(Bad, st)
	}
}

func (s *Scanner) tok(k Kind, st int) Token {
	return Token{Kind: k, Text: string(s.b[st:s.i]), Pos: st, End: s.i}
}

func (s *Scanner) op(st int) Token {
	t := s.tok(Reporter, st)

	if t.Text == "!" {
		t.Kind = Bad
	}

	return t
}

func (s *Scanner) ident(st int) Token {
	t := s.tok(Ident, st)
	text := lower(t.Text)

	switch text {
	case "true", "false":
		t.Kind = Literal
		t.Val = text == "true"

		return t
	}

	if _, ok := keywords[text]; ok {
		t.Kind = Keyword
		return t
	}

	if p, ok := prim.Lookup(text); ok {
		if p.Command {
			t.Kind = Command
		} else {
			t.Kind = Reporter
		}
	}

	return t
}

func (s *Scanner) num(st int) Token {
	for s.i < len(s.b) && s.digitAt(s.i) {
		s.i++
	}

	if s.i < len(s.b) && s.b[s.i] == '.' {
		s.i++

		for s.i < len(s.b) && s.digitAt(s.i) {
			s.i++
		}
	}

	if s.i < len(s.b) && (s.b[s.i] == 'e' || s.b[s.i] == 'E') {
		j := s.i + 1

		if j < len(s.b) && (s.b[j] == '+' || s.b[j] == '-') {
			j++
		}

		if j < len(s.b) && s.b[j] >= '0' && s.b[j] <= '9' {
			s.i = j

			for s.i < len(s.b) && s.digitAt(s.i) {
				s.i++
			}
		}
	}

	t := s.tok(Literal, st)

	v, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		t.Kind = Bad
		return t
	}

	t.Val = v

	return t
}

func (s *Scanner) str(st int) Token {
	s.i++ // opening quote

	var val []byte

	for s.i < len(s.b) {
		switch c := s.b[s.i]; c {
		case '"':
			s.i++

			t := s.tok(Literal, st)
			t.Val = string(val)

			return t
		case '\n':
			// unterminated
			return s.tok(Bad, st)
		case '\\':
			s.i++

			if s.i == len(s.b) {
				return s.tok(Bad, st)
			}

			switch s.b[s.i] {
			case 'n':
				val = append(val, '\n')
			case 't':
				val = append(val, '\t')
			default:
				val = append(val, s.b[s.i])
			}

			s.i++
		default:
			val = append(val, c)
			s.i++
		}
	}

	return s.tok(Bad, st)
}

// valueEnded reports whether the previous token could end a value
// expression. It decides whether a following minus is a negative
// literal or subtraction.
func (s *Scanner) valueEnded() bool {
	switch s.last.Kind {
	case Literal, Ident, CloseBracket, CloseParen:
		return true
	case Reporter:
		p, ok := prim.Lookup(s.last.Text)
		return ok && len(p.Args) == 0
	default:
		return false
	}
}

func (s *Scanner) skipSpaces() {
	for s.i < len(s.b) {
		switch s.b[s.i] {
		case ' ', '\t', '\r', '\n':
			s.i++
		case ';':
			for s.i < len(s.b) && s.b[s.i] != '\n' {
				s.i++
			}
		default:
			return
		}
	}
}

func (s *Scanner) digitAt(i int) bool {
	return i < len(s.b) && s.b[i] >= '0' && s.b[i] <= '9'
}

func isOp(c byte) bool {
	switch c {
	case '=', '!', '<', '>', '+', '-', '*', '/':
		return true
	default:
		return false
	}
}

func isIdentStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isIdent(c byte) bool {
	return isIdentStart(c) ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '?' || c == '.' || c == '%' || c == '\''
}

func lower(s string) string {
	b := []byte(s)

	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}

	return string(b)
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "eof"
	case Bad:
		return "bad"
	case Literal:
		return "literal"
	case Ident:
		return "ident"
	case Keyword:
		return "keyword"
	case Command:
		return "command"
	case Reporter:
		return "reporter"
	case OpenBracket:
		return "open-bracket"
	case CloseBracket:
		return "close-bracket"
	case OpenParen:
		return "open-paren"
	case CloseParen:
		return "close-paren"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (t Token) String() string {
	if t.Val != nil {
		return fmt.Sprintf("%v %q (%v)", t.Kind, t.Text, t.Val)
	}

	return fmt.Sprintf("%v %q", t.Kind, t.Text)
}
