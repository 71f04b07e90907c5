package format

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amblelang/amble/compiler/back"
	"github.com/amblelang/amble/compiler/diag"
	"github.com/amblelang/amble/compiler/front"
	"github.com/amblelang/amble/compiler/ir"
	"github.com/amblelang/amble/compiler/sym"
)

func assemble(t *testing.T, src string) *ir.Procedure {
	t.Helper()

	ctx := context.Background()

	ds := &diag.List{}
	f := front.New(sym.Mode2D, ds)
	f.AddFile(ctx, "test.amble", []byte(src))

	require.NoError(t, f.Parse(ctx))

	units, err := f.Compile(ctx)
	require.NoError(t, err)
	require.Empty(t, ds.All())
	require.Len(t, units, 1)

	p, err := back.Assemble(ctx, units[0].Header, units[0].Body)
	require.NoError(t, err)

	return p
}

func TestDeepConditionIndent(t *testing.T) {
	// a left-associative addition chain embeds as one deep tree
	p := assemble(t, `to go if 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1 = 8 [ tick ] end`)

	var d string

	require.NotPanics(t, func() { d = Disasm(p) })

	t.Logf("disasm:\n%s", d)

	// the innermost operand sits nine levels in, 4 spaces each
	assert.Contains(t, d, "\n"+strings.Repeat(" ", 36)+"const 1\n")
}

func TestAskTargetForm(t *testing.T) {
	p := &ir.Procedure{
		Name: "go",
		Code: []ir.Instruction{
			{Op: "ask", Target: 3},
			{Op: "die", Target: -1},
			{Op: ir.OpDone, Target: -1},
			{Op: ir.OpReturn, Target: -1},
		},
	}

	// ask resume points carry a leading +, other targets do not
	assert.Equal(t, "ask:+3 die done return", Trace(p))

	p.Code[0] = ir.Instruction{Op: ir.OpGoto, Target: 3}
	assert.Equal(t, "goto:3 die done return", Trace(p))
}

func TestDisasmListing(t *testing.T) {
	p := assemble(t, `to go while [ timer = 0 ] [ tick ] end`)

	d := Disasm(p)

	assert.Contains(t, d, "to go ; context any, 0 params")
	assert.Contains(t, d, "[0] goto:2")
	assert.Contains(t, d, "[2] while:1")
	assert.Contains(t, d, "    =\n        timer\n        const 0\n")
}

func TestFormatRejectsUnknownTypes(t *testing.T) {
	_, err := Format(context.Background(), nil, 42)
	assert.Error(t, err)
}
