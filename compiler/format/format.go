// Package format renders assembled procedures as a human-readable
// disassembly listing: index-bracketed, one instruction per line,
// embedded argument trees indented. Diagnostics and tests rely on it.
package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/amblelang/amble/compiler/ir"
)

func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *ir.Procedure:
		return formatProc(ctx, b, x)
	case *ir.Node:
		return formatNode(b, x, 0), nil
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

// Disasm is the listing as a string, for tests and diagnostics.
func Disasm(p *ir.Procedure) string {
	b, err := formatProc(context.Background(), nil, p)
	if err != nil {
		return err.Error()
	}

	return string(b)
}

// Trace is the compact one-line form: ops with jump targets, embedded
// trees omitted. `goto:3 die die while:1 return`.
func Trace(p *ir.Procedure) string {
	var b []byte

	for i, in := range p.Code {
		if i != 0 {
			b = append(b, ' ')
		}

		b = appendOp(b, in)
	}

	return string(b)
}

func formatProc(ctx context.Context, b []byte, p *ir.Procedure) ([]byte, error) {
	word := "to"
	if p.Reporter {
		word = "to-report"
	}

	b = hfmt.Appendf(b, "%s %s ; context %v, %d params\n", word, p.Name, p.Context, p.Params)

	for i, in := range p.Code {
		b = hfmt.Appendf(b, "[%d] ", i)
		b = appendOp(b, in)
		b = append(b, '\n')

		for _, a := range in.Args {
			b = formatNode(b, a, 1)
		}
	}

	return b, nil
}

func appendOp(b []byte, in ir.Instruction) []byte {
	b = append(b, in.Op...)

	switch {
	case in.Op == "ask" && in.Target >= 0:
		// context-switch resume point
		b = hfmt.Appendf(b, ":+%d", in.Target)
	case in.Target >= 0:
		b = hfmt.Appendf(b, ":%d", in.Target)
	}

	switch in.Op {
	case ir.OpConst:
		b = hfmt.Appendf(b, " %v", in.Val)
	case ir.OpReadVar, ir.OpSetVar:
		b = hfmt.Appendf(b, " %v", in.Bind)
	case ir.OpCall, ir.OpCallReport:
		b = hfmt.Appendf(b, " %v/%d", in.Name, in.Argc)
	}

	return b
}

func formatNode(b []byte, n *ir.Node, d int) []byte {
	b = app(b, d, "%s", n.Op)

	switch n.Op {
	case ir.OpConst:
		b = hfmt.Appendf(b, " %v", n.Val)
	case ir.OpReadVar, ir.OpSetVar:
		b = hfmt.Appendf(b, " %v", n.Bind)
	case ir.OpCallReport, ir.OpCall:
		b = hfmt.Appendf(b, " %v/%d", n.Bind.Name, len(n.Args))
	}

	b = append(b, '\n')

	for _, a := range n.Args {
		b = formatNode(b, a, d+1)
	}

	return b
}

func app(b []byte, d int, f string, args ...any) []byte {
	const pad = "                                "

	for n := 4 * d; n > 0; n -= len(pad) {
		b = append(b, pad[:min(n, len(pad))]...)
	}

	b = hfmt.Appendf(b, f, args...)

	return b
}
