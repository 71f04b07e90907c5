package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(b string) []Kind {
	var l []Kind

	for _, t := range Tokens([]byte(b)) {
		l = append(l, t.Kind)
	}

	return l
}

func TestKinds(t *testing.T) {
	src := `to setup crt 10 [ fd 1.5 ] end ; trailing comment`

	assert.Equal(t, []Kind{
		Keyword, Ident, Command, Literal,
		OpenBracket, Command, Literal, CloseBracket,
		Keyword, EOF,
	}, kinds(src))
}

func TestClassification(t *testing.T) {
	toks := Tokens([]byte(`turtles-own [energy] ask turtles [ set energy random 5 ]`))

	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, Ident, toks[2].Kind) // energy is not a primitive
	assert.Equal(t, Command, toks[4].Kind)
	assert.Equal(t, Reporter, toks[5].Kind) // turtles
	assert.Equal(t, Command, toks[7].Kind)  // set
	assert.Equal(t, Reporter, toks[9].Kind) // random
}

func TestNumbers(t *testing.T) {
	toks := Tokens([]byte(`10 1.5 .5 2e3 1.5e-2`))

	want := []float64{10, 1.5, 0.5, 2000, 0.015}

	require.Len(t, toks, len(want)+1)

	for i, v := range want {
		assert.Equal(t, Literal, toks[i].Kind)
		assert.Equal(t, v, toks[i].Val)
	}
}

func TestNegativeNumbers(t *testing.T) {
	for _, tc := range []struct {
		src string
		k   []Kind
	}{
		// fd takes a value, so the minus starts a literal
		{`fd -1`, []Kind{Command, Literal, EOF}},
		// a literal ends a value, so it is subtraction
		{`2 -1`, []Kind{Literal, Reporter, Literal, EOF}},
		// zero-argument reporter ends a value
		{`timer -1`, []Kind{Reporter, Reporter, Literal, EOF}},
		// random still expects its input
		{`random -1`, []Kind{Reporter, Literal, EOF}},
		{`x -1`, []Kind{Ident, Reporter, Literal, EOF}},
		{`(1) -1`, []Kind{OpenParen, Literal, CloseParen, Reporter, Literal, EOF}},
	} {
		assert.Equal(t, tc.k, kinds(tc.src), "src: %q", tc.src)
	}

	toks := Tokens([]byte(`fd -1.5`))
	assert.Equal(t, -1.5, toks[1].Val)
}

func TestStrings(t *testing.T) {
	toks := Tokens([]byte(`print "a\nb\"c"`))

	require.Equal(t, Literal, toks[1].Kind)
	assert.Equal(t, "a\nb\"c", toks[1].Val)

	toks = Tokens([]byte("print \"unterminated\nfd 1"))

	assert.Equal(t, Bad, toks[1].Kind)
	assert.Equal(t, Command, toks[2].Kind)
}

func TestOperators(t *testing.T) {
	toks := Tokens([]byte(`a != b <= c >= d = e`))

	assert.Equal(t, "!=", toks[1].Text)
	assert.Equal(t, "<=", toks[3].Text)
	assert.Equal(t, ">=", toks[5].Text)
	assert.Equal(t, "=", toks[7].Text)

	for _, i := range []int{1, 3, 5, 7} {
		assert.Equal(t, Reporter, toks[i].Kind)
	}
}

func TestBadTokens(t *testing.T) {
	toks := Tokens([]byte(`! #`))

	assert.Equal(t, Bad, toks[0].Kind)
	assert.Equal(t, Bad, toks[1].Kind)
	assert.Equal(t, EOF, toks[2].Kind)
}

func TestBooleans(t *testing.T) {
	toks := Tokens([]byte(`true FALSE`))

	assert.Equal(t, Literal, toks[0].Kind)
	assert.Equal(t, true, toks[0].Val)
	assert.Equal(t, Literal, toks[1].Kind)
	assert.Equal(t, false, toks[1].Val)
}

func TestPositions(t *testing.T) {
	toks := Tokens([]byte("fd 1 ; c\nbk 2"))

	assert.Equal(t, 0, toks[0].Pos)
	assert.Equal(t, 2, toks[0].End)
	assert.Equal(t, 3, toks[1].Pos)
	assert.Equal(t, 9, toks[2].Pos)
}

func TestReset(t *testing.T) {
	s := New([]byte(`fd 1 bk 2`))

	var first []Token
	for {
		tk := s.Next()
		first = append(first, tk)

		if tk.Kind == EOF {
			break
		}
	}

	s.Reset()

	for _, want := range first {
		assert.Equal(t, want, s.Next())
	}
}
