package front

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amblelang/amble/compiler/diag"
	"github.com/amblelang/amble/compiler/sym"
)

func parseSrc(t *testing.T, src string) ([]*Unit, []diag.Diagnostic, *Front) {
	t.Helper()

	ctx := context.Background()

	ds := &diag.List{}
	f := New(sym.Mode2D, ds)
	f.AddFile(ctx, "test.amble", []byte(src))

	err := f.Parse(ctx)
	require.NoError(t, err)

	units, err := f.Compile(ctx)
	require.NoError(t, err)

	return units, ds.All(), f
}

func messages(ds []diag.Diagnostic) []string {
	var l []string

	for _, d := range ds {
		l = append(l, d.Message)
	}

	return l
}

func TestDeclarations(t *testing.T) {
	units, ds, f := parseSrc(t, `
globals [score]
breed [wolves wolf]
wolves-own [hunger]
turtles-own [energy]

to setup
  crt 10 [ set color 5 ]
end
`)

	assert.Empty(t, ds)
	require.Len(t, units, 1)
	assert.Equal(t, "setup", units[0].Header.Name)

	tab := f.Table()

	b, ok := tab.Resolve("hunger", sym.Turtle)
	require.True(t, ok)
	assert.Equal(t, sym.BindOwn, b.Kind)

	_, ok = tab.Breed("wolves")
	assert.True(t, ok)
}

func TestBreedOwnBeforeBreed(t *testing.T) {
	// declaration blocks are order-independent within a unit
	_, ds, f := parseSrc(t, `
wolves-own [hunger]
breed [wolves wolf]
`)

	assert.Empty(t, ds)

	_, ok := f.Table().Resolve("hunger", sym.Turtle)
	assert.True(t, ok)
}

func TestForwardReference(t *testing.T) {
	units, ds, _ := parseSrc(t, `
to go
  helper
end

to helper
  tick
end
`)

	assert.Empty(t, ds)
	assert.Len(t, units, 2)
}

func TestUndefinedName(t *testing.T) {
	units, ds, _ := parseSrc(t, `
to go
  fd speed
end

to stand
  rt 90
end
`)

	require.Len(t, ds, 1)
	assert.Equal(t, "Nothing named SPEED has been defined.", ds[0].Message)
	assert.Equal(t, "go", ds[0].Procedure)

	// the broken procedure is dropped, its sibling is not
	require.Len(t, units, 1)
	assert.Equal(t, "stand", units[0].Header.Name)
}

func TestMissingEnd(t *testing.T) {
	units, ds, _ := parseSrc(t, `
to setup
  clear-all
end

to go
  fd 1
`)

	assert.Contains(t, messages(ds), "END expected")
	require.Len(t, units, 1)
	assert.Equal(t, "setup", units[0].Header.Name)
}

func TestDuplicateProcedure(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
end

to go
end
`)

	assert.Contains(t, messages(ds), "There is already a procedure called GO")
}

func TestProcedureContext(t *testing.T) {
	units, ds, _ := parseSrc(t, `
to wander turtle-only [dist]
  fd dist
end
`)

	assert.Empty(t, ds)
	require.Len(t, units, 1)
	assert.Equal(t, sym.TurtleContext, units[0].Header.Context)
	assert.Equal(t, 1, units[0].Header.Params)
}

func TestContextMismatch(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go observer-only
  fd 1
end
`)

	assert.Contains(t, messages(ds), "You can't use FD in observer context.")
}

func TestAskBlockContext(t *testing.T) {
	units, ds, _ := parseSrc(t, `
breed [wolves wolf]

to go
  ask turtles [ fd 1 ]
  ask wolves [ rt 90 ]
  ask patches [ set pcolor 55 ]
end
`)

	assert.Empty(t, ds)
	assert.Len(t, units, 1)

	_, ds, _ = parseSrc(t, `
to go
  ask patches [ fd 1 ]
end
`)

	assert.Contains(t, messages(ds), "You can't use FD in patch context.")
}

func TestArity(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  fd
end
`)

	assert.Contains(t, messages(ds), "FD expected 1 input(s)")
}

func TestKindMismatch(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  if 5 [ tick ]
end
`)

	assert.Contains(t, messages(ds), "IF expected this input to be true or false, but got a number instead")
}

func TestReportOutsideReporter(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  report 5
end
`)

	assert.Contains(t, messages(ds), "REPORT can only be used inside TO-REPORT")

	units, ds, _ := parseSrc(t, `
to-report double [x]
  report x * 2
end
`)

	assert.Empty(t, ds)
	require.Len(t, units, 1)
	assert.True(t, units[0].Header.Reporter)
}

func TestLetScoping(t *testing.T) {
	units, ds, _ := parseSrc(t, `
to go
  let x 1
  if true [ let y 2 set y x ]
  set x 3
end
`)

	assert.Empty(t, ds)
	assert.Len(t, units, 1)

	// a block-local does not survive its block
	_, ds, _ = parseSrc(t, `
to go
  if true [ let y 2 ]
  set y 3
end
`)

	assert.Contains(t, messages(ds), "Nothing named Y has been defined.")

	_, ds, _ = parseSrc(t, `
to go
  let x 1
  let x 2
end
`)

	assert.Contains(t, messages(ds), "There is already a local variable here called x")
}

func TestCommandAsReporter(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  print die
end
`)

	assert.Contains(t, messages(ds), "Expected a reporter here, but DIE is a command")
}

func TestTopLevelKeywordInBody(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  globals [x]
end
`)

	assert.Contains(t, messages(ds), "GLOBALS can only be used at the top level")
}

func TestMultipleDiagnosticsOnePass(t *testing.T) {
	_, ds, _ := parseSrc(t, `
to go
  fd speed
  bk pace
end
`)

	assert.Equal(t, []string{
		"Nothing named SPEED has been defined.",
		"Nothing named PACE has been defined.",
	}, messages(ds))
}
