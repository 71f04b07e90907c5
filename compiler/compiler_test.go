package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amblelang/amble/compiler/format"
	"github.com/amblelang/amble/compiler/sym"
)

func TestCompileUnit(t *testing.T) {
	ctx := context.Background()

	p, err := Compile(ctx, "model.amble", []byte(`
globals [score]
turtles-own [energy]

to setup
  clear-all
  crt 10 [ set energy random 50 ]
  reset-ticks
end

to go
  ask turtles [
    fd 1
    set energy energy - 1
    if energy < 0 [ die ]
  ]
  tick
end

to-report average
  report score / count turtles
end
`), sym.Mode2D)
	require.NoError(t, err)

	assert.True(t, p.Ok())
	assert.Len(t, p.Procedures, 3)

	for _, name := range []string{"setup", "go", "average"} {
		require.Contains(t, p.Procedures, name)
		t.Logf("%s", format.Disasm(p.Procedures[name]))
	}

	assert.True(t, p.Procedures["average"].Reporter)
	assert.Equal(t, 0, p.Procedures["go"].Params)
}

func TestFailedProcedureIsIsolated(t *testing.T) {
	ctx := context.Background()

	p, err := Compile(ctx, "model.amble", []byte(`
to broken
  fd speed
end

to fine
  tick
end
`), sym.Mode2D)
	require.NoError(t, err)

	assert.False(t, p.Ok())
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, "Nothing named SPEED has been defined.", p.Diagnostics[0].Message)

	assert.NotContains(t, p.Procedures, "broken")
	assert.Contains(t, p.Procedures, "fine")

	// hyphenated names lex as one identifier and report as one name
	p, err = Compile(ctx, "model.amble", []byte(`to go fd not-a-var end`), sym.Mode2D)
	require.NoError(t, err)
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, "Nothing named NOT-A-VAR has been defined.", p.Diagnostics[0].Message)
}

func TestDiagnosticsInSourceOrder(t *testing.T) {
	ctx := context.Background()

	p, err := Compile(ctx, "model.amble", []byte(`
to one
  fd alpha
end

to two
  bk beta
end
`), sym.Mode2D)
	require.NoError(t, err)

	require.Len(t, p.Diagnostics, 2)
	assert.Less(t, p.Diagnostics[0].SourceStart, p.Diagnostics[1].SourceStart)
	assert.Equal(t, "Nothing named ALPHA has been defined.", p.Diagnostics[0].Message)
	assert.Equal(t, "Nothing named BETA has been defined.", p.Diagnostics[1].Message)
}

func TestReference(t *testing.T) {
	ctx := context.Background()

	p, err := Compile(ctx, "model.amble", []byte(`
globals [score]
turtles-own [energy]
`), sym.Mode2D)
	require.NoError(t, err)

	ref, err := p.Reference("pxcor", sym.Patch)
	require.NoError(t, err)
	assert.Equal(t, `["PATCH",0,"PXCOR"]`, ref.String())

	ref, err = p.Reference("energy", sym.Turtle)
	require.NoError(t, err)
	assert.Equal(t, `["TURTLE",13,"ENERGY"]`, ref.String())

	ref, err = p.Reference("score", sym.Observer)
	require.NoError(t, err)
	assert.Equal(t, `["OBSERVER",0,"SCORE"]`, ref.String())

	_, err = p.Reference("bogus", sym.Observer)
	assert.EqualError(t, err, "Nothing named BOGUS has been defined.")
}

func TestWorldMode(t *testing.T) {
	ctx := context.Background()

	p, err := Compile(ctx, "model.amble", []byte(`turtles-own [energy]`), sym.Mode3D)
	require.NoError(t, err)

	assert.Equal(t, sym.Mode3D, p.Mode)

	ref, err := p.Reference("zcor", sym.Turtle)
	require.NoError(t, err)
	assert.Equal(t, `["TURTLE",7,"ZCOR"]`, ref.String())

	// user variables shift with the mode
	ref, err = p.Reference("energy", sym.Turtle)
	require.NoError(t, err)
	assert.Equal(t, 16, ref.Index)
}

func TestStraightLineLength(t *testing.T) {
	p, err := Compile(context.Background(), "m.amble", []byte(`
to go
  clear-all
  tick
  reset-ticks
end
`), sym.Mode2D)
	require.NoError(t, err)
	require.True(t, p.Ok())

	// three primitives plus the terminating return
	assert.Len(t, p.Procedures["go"].Code, 4)
}

func TestRecompileIsIdempotent(t *testing.T) {
	src := []byte(`
globals [score]

to go
  ask turtles [ fd 1 if timer = 0 [die] ]
  set score score + 1
end
`)

	ctx := context.Background()

	a, err := Compile(ctx, "m.amble", src, sym.Mode2D)
	require.NoError(t, err)

	b, err := Compile(ctx, "m.amble", src, sym.Mode2D)
	require.NoError(t, err)

	require.Equal(t, len(a.Procedures), len(b.Procedures))

	for name, p := range a.Procedures {
		require.Contains(t, b.Procedures, name)
		assert.Equal(t, format.Disasm(p), format.Disasm(b.Procedures[name]))
	}
}

func TestEmptyUnit(t *testing.T) {
	p, err := Compile(context.Background(), "empty.amble", nil, sym.Mode2D)
	require.NoError(t, err)

	assert.True(t, p.Ok())
	assert.Empty(t, p.Procedures)
}
