// Package back assembles parsed procedure bodies into flat
// instruction arrays. Control transfers use absolute instruction
// indices; branch instructions keep their condition, count or
// agentset as an embedded tree so it can be re-evaluated per
// iteration, while plain value arguments flatten in postfix order,
// operands before their consumer.
package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler/ir"
)

type (
	state struct {
		code []ir.Instruction
	}
)

// Assemble lowers one procedure body. The body is already resolved
// and type checked, so a failure here is a compiler bug, not a user
// error.
func Assemble(ctx context.Context, h ir.Header, body []*ir.Node) (p *ir.Procedure, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: assemble", "proc", h.Name, "reporter", h.Reporter)
	defer tr.Finish("err", &err)

	s := &state{}

	err = s.stmts(ctx, body)
	if err != nil {
		return nil, errors.Wrap(err, "assemble %v", h.Name)
	}

	term := ir.OpReturn
	if h.Reporter {
		term = ir.OpReportReturn
	}

	s.emit(ir.Instruction{Op: term, Target: -1})

	p = &ir.Procedure{
		Name:     h.Name,
		Context:  h.Context,
		Params:   h.Params,
		Reporter: h.Reporter,

		Code: s.code,
	}

	tr.V("code").Printw("assembled", "proc", h.Name, "instructions", len(p.Code))

	return p, nil
}

func (s *state) emit(ins ir.Instruction) int {
	s.code = append(s.code, ins)

	return len(s.code) - 1
}

func (s *state) stmts(ctx context.Context, list []*ir.Node) (err error) {
	for _, n := range list {
		err = s.stmt(ctx, n)
		if err != nil {
			return errors.Wrap(err, "%v", n.Op)
		}
	}

	return nil
}

func (s *state) stmt(ctx context.Context, n *ir.Node) (err error) {
	switch n.Op {
	case ir.OpSetVar:
		err = s.expr(ctx, n.Args[0])
		if err != nil {
			return err
		}

		s.emit(ir.Instruction{Op: ir.OpSetVar, Bind: n.Bind, Target: -1})
	case ir.OpCall:
		for _, a := range n.Args {
			err = s.expr(ctx, a)
			if err != nil {
				return err
			}
		}

		s.emit(ir.Instruction{Op: ir.OpCall, Bind: n.Bind, Name: n.Bind.Name, Argc: len(n.Args), Target: -1})
	case "report":
		err = s.expr(ctx, n.Args[0])
		if err != nil {
			return err
		}

		s.emit(ir.Instruction{Op: ir.OpReportReturn, Target: -1})
	case "if":
		err = s.ifStmt(ctx, n)
	case "ifelse":
		err = s.ifelseStmt(ctx, n)
	case "while":
		err = s.whileStmt(ctx, n)
	case "loop":
		err = s.loopStmt(ctx, n)
	case "repeat":
		err = s.repeatStmt(ctx, n)
	case "ask", "sprout", "create-turtles":
		err = s.blockStmt(ctx, n)
	default:
		if n.Spec == nil || !n.Spec.Command {
			return errors.New("not a command: %v", n.Op)
		}

		for _, a := range n.Args {
			err = s.expr(ctx, a)
			if err != nil {
				return err
			}
		}

		s.emit(ir.Instruction{Op: n.Op, Target: -1})
	}

	return err
}

// ifStmt: the branch holds the condition embedded and jumps past the
// body when it is false.
func (s *state) ifStmt(ctx context.Context, n *ir.Node) (err error) {
	j := s.emit(ir.Instruction{Op: "if", Args: n.Args, Target: -1})

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	s.code[j].Target = len(s.code)

	return nil
}

// ifelseStmt: false jumps to the else arm, the then arm exits over it
// with a goto.
func (s *state) ifelseStmt(ctx context.Context, n *ir.Node) (err error) {
	j := s.emit(ir.Instruction{Op: "ifelse", Args: n.Args, Target: -1})

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	g := s.emit(ir.Instruction{Op: ir.OpGoto, Target: -1})

	s.code[j].Target = len(s.code)

	err = s.stmts(ctx, n.Blocks[1])
	if err != nil {
		return err
	}

	s.code[g].Target = len(s.code)

	return nil
}

// whileStmt: the test sits after the body, a leading goto enters it,
// and a true test jumps back to the body start.
func (s *state) whileStmt(ctx context.Context, n *ir.Node) (err error) {
	g := s.emit(ir.Instruction{Op: ir.OpGoto, Target: -1})

	start := len(s.code)

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	s.code[g].Target = len(s.code)

	s.emit(ir.Instruction{Op: "while", Args: n.Args, Target: start})

	return nil
}

func (s *state) loopStmt(ctx context.Context, n *ir.Node) (err error) {
	start := len(s.code)

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	s.emit(ir.Instruction{Op: ir.OpGoto, Target: start})

	return nil
}

// repeatStmt: repeat evaluates the embedded count and jumps past
// endrepeat for a zero count; endrepeat decrements the counter and
// jumps back to the body start while it lasts.
func (s *state) repeatStmt(ctx context.Context, n *ir.Node) (err error) {
	r := s.emit(ir.Instruction{Op: "repeat", Args: n.Args, Target: -1})

	start := len(s.code)

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	s.emit(ir.Instruction{Op: ir.OpEndRepeat, Target: start})

	s.code[r].Target = len(s.code)

	return nil
}

// blockStmt covers ask, sprout and create-turtles: the instruction
// holds its agentset or count embedded and targets past the done that
// closes the block.
func (s *state) blockStmt(ctx context.Context, n *ir.Node) (err error) {
	a := s.emit(ir.Instruction{Op: n.Op, Args: n.Args, Target: -1})

	err = s.stmts(ctx, n.Blocks[0])
	if err != nil {
		return err
	}

	s.emit(ir.Instruction{Op: ir.OpDone, Target: -1})

	s.code[a].Target = len(s.code)

	return nil
}

func (s *state) expr(ctx context.Context, n *ir.Node) (err error) {
	switch n.Op {
	case ir.OpConst:
		s.emit(ir.Instruction{Op: ir.OpConst, Val: n.Val, Target: -1})
	case ir.OpReadVar:
		s.emit(ir.Instruction{Op: ir.OpReadVar, Bind: n.Bind, Target: -1})
	case "breed":
		s.emit(ir.Instruction{Op: "breed", Bind: n.Bind, Target: -1})
	case ir.OpCallReport:
		for _, a := range n.Args {
			err = s.expr(ctx, a)
			if err != nil {
				return err
			}
		}

		s.emit(ir.Instruction{Op: ir.OpCallReport, Bind: n.Bind, Name: n.Bind.Name, Argc: len(n.Args), Target: -1})
	case "of":
		// both the reporter block and the agentset stay embedded,
		// the block runs once per agent
		s.emit(ir.Instruction{Op: "of", Args: n.Args, Target: -1})
	default:
		if n.Spec == nil || n.Spec.Command {
			return errors.New("not a reporter: %v", n.Op)
		}

		for _, a := range n.Args {
			err = s.expr(ctx, a)
			if err != nil {
				return err
			}
		}

		s.emit(ir.Instruction{Op: n.Op, Argc: len(n.Args), Target: -1})
	}

	return nil
}
