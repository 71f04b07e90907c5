package front

import (
	"context"
	"strings"

	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler/ir"
	"github.com/amblelang/amble/compiler/lex"
	"github.com/amblelang/amble/compiler/prim"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	// parser consumes one procedure's resolved token stream and
	// builds its statement list. Failures mark the procedure bad
	// but parsing continues so sibling statements still report.
	parser struct {
		c *Front
		p *procedure

		toks []lex.Token
		i    int

		ok bool
	}
)

// parseBody builds the instruction trees for one procedure body.
func (c *Front) parseBody(ctx context.Context, p *procedure, toks []lex.Token) ([]*ir.Node, bool) {
	tr := tlog.SpanFromContext(ctx)

	q := &parser{c: c, p: p, toks: toks, ok: true}

	nodes := q.statements(ctx, p.context, lex.EOF)

	tr.V("body").Printw("parsed body", "proc", p.name, "stmts", len(nodes), "ok", q.ok)

	return nodes, q.ok
}

func (q *parser) peek() lex.Token { return q.toks[q.i] }

func (q *parser) next() lex.Token {
	t := q.toks[q.i]

	if t.Kind != lex.EOF {
		q.i++
	}

	return t
}

// statements parses until the terminator, which is left for the
// caller to consume.
func (q *parser) statements(ctx context.Context, ectx sym.Context, term lex.Kind) []*ir.Node {
	var list []*ir.Node

	for {
		t := q.peek()

		if t.Kind == term {
			return list
		}

		if t.Kind == lex.EOF {
			q.fail(t, "Expected ] here")
			return list
		}

		n := q.statement(ctx, ectx)
		if n == nil {
			q.recover(term)
			continue
		}

		list = append(list, n)
	}
}

func (q *parser) statement(ctx context.Context, ectx sym.Context) *ir.Node {
	t := q.next()

	switch {
	case t.Kind == lex.Bad:
		return q.fail(t, "Illegal token %q", t.Text)
	case t.Kind == lex.Ident && t.Bind != nil && t.Bind.Kind == sym.BindProcedure:
		return q.callStmt(ctx, ectx, t)
	case t.Kind != lex.Command:
		return q.fail(t, "Expected a command here, got %v", strings.ToUpper(t.Text))
	}

	spec, _ := prim.Lookup(t.Text)

	if spec.Context&ectx == 0 {
		return q.fail(t, "You can't use %v in %v context.", strings.ToUpper(t.Text), ectx)
	}

	switch spec.Name {
	case "set", "let":
		return q.setStmt(ctx, ectx, t)
	case "report":
		return q.reportStmt(ctx, ectx, t)
	case "if", "ifelse":
		return q.ifStmt(ctx, ectx, t, spec)
	case "while":
		return q.whileStmt(ctx, ectx, t, spec)
	case "loop":
		return q.loopStmt(ctx, ectx, t, spec)
	case "repeat":
		return q.repeatStmt(ctx, ectx, t, spec)
	case "ask":
		return q.askStmt(ctx, ectx, t, spec)
	case "sprout", "create-turtles":
		return q.hatchStmt(ctx, ectx, t, spec)
	default:
		return q.plainStmt(ctx, ectx, t, spec)
	}
}

// plainStmt is a command with value arguments only: each is a full
// expression checked against the declared slot kind.
func (q *parser) plainStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	n := &ir.Node{Op: spec.Name, Spec: &spec, Pos: t.Pos, End: t.End}

	for _, want := range spec.Args {
		a := q.arg(ctx, ectx, t, want, len(spec.Args))
		if a == nil {
			return nil
		}

		n.Args = append(n.Args, a)
		n.End = a.End
	}

	return n
}

func (q *parser) callStmt(ctx context.Context, ectx sym.Context, t lex.Token) *ir.Node {
	sig, _ := q.c.tab.Procedure(t.Bind.Name)

	if sig.Reporter {
		return q.fail(t, "%v is a reporter, not a command", strings.ToUpper(sig.Name))
	}

	if sig.Context&ectx == 0 {
		return q.fail(t, "You can't use %v in %v context.", strings.ToUpper(sig.Name), ectx)
	}

	n := &ir.Node{Op: ir.OpCall, Bind: t.Bind, Pos: t.Pos, End: t.End}

	for j := 0; j < sig.Params; j++ {
		a := q.arg(ctx, ectx, t, prim.Any, sig.Params)
		if a == nil {
			return nil
		}

		n.Args = append(n.Args, a)
		n.End = a.End
	}

	return n
}

func (q *parser) setStmt(ctx context.Context, ectx sym.Context, t lex.Token) *ir.Node {
	v := q.next()

	if v.Kind != lex.Ident || v.Bind == nil {
		return q.fail(v, "Expected a variable name after %v", strings.ToUpper(t.Text))
	}

	switch v.Bind.Kind {
	case sym.BindLocal, sym.BindOwn, sym.BindGlobal:
	default:
		return q.fail(v, "You can't set %v, it is not a variable", strings.ToUpper(v.Text))
	}

	val := q.arg(ctx, ectx, t, prim.Any, 2)
	if val == nil {
		return nil
	}

	return &ir.Node{Op: ir.OpSetVar, Bind: v.Bind, Args: []*ir.Node{val}, Pos: t.Pos, End: val.End}
}

func (q *parser) reportStmt(ctx context.Context, ectx sym.Context, t lex.Token) *ir.Node {
	if !q.p.reporter {
		return q.fail(t, "REPORT can only be used inside TO-REPORT")
	}

	val := q.arg(ctx, ectx, t, prim.Any, 1)
	if val == nil {
		return nil
	}

	return &ir.Node{Op: "report", Args: []*ir.Node{val}, Pos: t.Pos, End: val.End}
}

func (q *parser) ifStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	cond := q.arg(ctx, ectx, t, prim.Boolean, len(spec.Args))
	if cond == nil {
		return nil
	}

	n := &ir.Node{Op: spec.Name, Spec: &spec, Args: []*ir.Node{cond}, Pos: t.Pos}

	then, ok := q.commandBlock(ctx, ectx, t)
	if !ok {
		return nil
	}

	n.Blocks = append(n.Blocks, then)

	if spec.Name == "ifelse" {
		els, ok := q.commandBlock(ctx, ectx, t)
		if !ok {
			return nil
		}

		n.Blocks = append(n.Blocks, els)
	}

	return n
}

func (q *parser) whileStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	cond, ok := q.reporterBlock(ctx, ectx, t, prim.Boolean)
	if !ok {
		return nil
	}

	body, ok := q.commandBlock(ctx, ectx, t)
	if !ok {
		return nil
	}

	return &ir.Node{Op: "while", Spec: &spec, Args: []*ir.Node{cond}, Blocks: [][]*ir.Node{body}, Pos: t.Pos}
}

func (q *parser) loopStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	body, ok := q.commandBlock(ctx, ectx, t)
	if !ok {
		return nil
	}

	return &ir.Node{Op: "loop", Spec: &spec, Blocks: [][]*ir.Node{body}, Pos: t.Pos}
}

func (q *parser) repeatStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	count := q.arg(ctx, ectx, t, prim.Number, len(spec.Args))
	if count == nil {
		return nil
	}

	body, ok := q.commandBlock(ctx, ectx, t)
	if !ok {
		return nil
	}

	return &ir.Node{Op: "repeat", Spec: &spec, Args: []*ir.Node{count}, Blocks: [][]*ir.Node{body}, Pos: t.Pos}
}

func (q *parser) askStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	agents := q.arg(ctx, ectx, t, prim.Agentset, len(spec.Args))
	if agents == nil {
		return nil
	}

	body, ok := q.commandBlock(ctx, agentContextOf(agents), t)
	if !ok {
		return nil
	}

	return &ir.Node{Op: "ask", Spec: &spec, Args: []*ir.Node{agents}, Blocks: [][]*ir.Node{body}, Pos: t.Pos}
}

// hatchStmt covers sprout and create-turtles: a count plus a block
// running in the new turtles' context.
func (q *parser) hatchStmt(ctx context.Context, ectx sym.Context, t lex.Token, spec prim.Spec) *ir.Node {
	count := q.arg(ctx, ectx, t, prim.Number, len(spec.Args))
	if count == nil {
		return nil
	}

	body, ok := q.commandBlock(ctx, spec.BlockContext, t)
	if !ok {
		return nil
	}

	return &ir.Node{Op: spec.Name, Spec: &spec, Args: []*ir.Node{count}, Blocks: [][]*ir.Node{body}, Pos: t.Pos}
}

// arg parses one value argument of op, checking it can start at all
// (arity) and that its kind fits the slot.
func (q *parser) arg(ctx context.Context, ectx sym.Context, op lex.Token, want prim.Arg, arity int) *ir.Node {
	if !canStartExpr(q.peek()) {
		return q.fail(op, "%v expected %d input(s)", strings.ToUpper(op.Text), arity)
	}

	n := q.binary(ctx, ectx, 0)
	if n == nil {
		return nil
	}

	if !q.kindCheck(op, want, n) {
		return nil
	}

	return n
}

// binary is precedence-climbing over infix reporters,
// left-associative.
func (q *parser) binary(ctx context.Context, ectx sym.Context, minPrec int) *ir.Node {
	left := q.operand(ctx, ectx)
	if left == nil {
		return nil
	}

	for {
		t := q.peek()

		if t.Kind != lex.Reporter {
			return left
		}

		spec, ok := prim.Lookup(t.Text)
		if !ok || spec.Prec == 0 || spec.Prec < minPrec {
			return left
		}

		q.next()

		right := q.binary(ctx, ectx, spec.Prec+1)
		if right == nil {
			return nil
		}

		if !q.kindCheck(t, spec.Args[0], left) || !q.kindCheck(t, spec.Args[1], right) {
			return nil
		}

		left = &ir.Node{
			Op:   spec.Name,
			Spec: &spec,
			Args: []*ir.Node{left, right},
			Pos:  left.Pos,
			End:  right.End,
		}
	}
}

func (q *parser) operand(ctx context.Context, ectx sym.Context) *ir.Node {
	t := q.next()

	switch t.Kind {
	case lex.Literal:
		return ir.Const(t.Val, t.Pos, t.End)
	case lex.OpenParen:
		n := q.binary(ctx, ectx, 0)
		if n == nil {
			return nil
		}

		if c := q.next(); c.Kind != lex.CloseParen {
			return q.fail(c, "Expected ) here")
		}

		return n
	case lex.OpenBracket:
		return q.ofExpr(ctx, ectx, t)
	case lex.Reporter:
		return q.reporterExpr(ctx, ectx, t)
	case lex.Ident:
		return q.identExpr(ctx, ectx, t)
	case lex.Command:
		return q.fail(t, "Expected a reporter here, but %v is a command", strings.ToUpper(t.Text))
	case lex.Bad:
		return q.fail(t, "Illegal token %q", t.Text)
	default:
		return q.fail(t, "Expected a reporter here")
	}
}

// ofExpr is `[reporter] of agentset`: the block is evaluated in the
// agents' own context.
func (q *parser) ofExpr(ctx context.Context, ectx sym.Context, open lex.Token) *ir.Node {
	inner := q.binary(ctx, sym.AnyContext, 0)
	if inner == nil {
		return nil
	}

	if c := q.next(); c.Kind != lex.CloseBracket {
		return q.fail(c, "Expected ] here")
	}

	of := q.next()
	if of.Kind != lex.Reporter || low(of.Text) != "of" {
		return q.fail(of, "Expected OF after a reporter block")
	}

	spec, _ := prim.Lookup("of")

	target := q.operand(ctx, ectx)
	if target == nil {
		return nil
	}

	if !q.kindCheck(of, prim.Agentset, target) {
		return nil
	}

	return &ir.Node{Op: "of", Spec: &spec, Args: []*ir.Node{inner, target}, Pos: open.Pos, End: target.End}
}

func (q *parser) reporterExpr(ctx context.Context, ectx sym.Context, t lex.Token) *ir.Node {
	spec, ok := prim.Lookup(t.Text)
	if !ok {
		return q.fail(t, "Illegal token %q", t.Text)
	}

	if spec.Prec != 0 {
		return q.fail(t, "%v expected a value on its left", strings.ToUpper(t.Text))
	}

	if spec.Name == "of" {
		return q.fail(t, "OF expects a reporter block on its left")
	}

	if spec.Context&ectx == 0 {
		return q.fail(t, "You can't use %v in %v context.", strings.ToUpper(t.Text), ectx)
	}

	n := &ir.Node{Op: spec.Name, Spec: &spec, Pos: t.Pos, End: t.End}

	for _, want := range spec.Args {
		if !canStartExpr(q.peek()) {
			return q.fail(t, "%v expected %d input(s)", strings.ToUpper(t.Text), len(spec.Args))
		}

		a := q.operand(ctx, ectx)
		if a == nil {
			return nil
		}

		if !q.kindCheck(t, want, a) {
			return nil
		}

		n.Args = append(n.Args, a)
		n.End = a.End
	}

	return n
}

func (q *parser) identExpr(ctx context.Context, ectx sym.Context, t lex.Token) *ir.Node {
	if t.Bind == nil {
		return q.fail(t, "Nothing named %v has been defined.", strings.ToUpper(t.Text))
	}

	switch t.Bind.Kind {
	case sym.BindLocal, sym.BindOwn, sym.BindGlobal:
		return ir.ReadVar(t.Bind, t.Pos, t.End)
	case sym.BindBreed:
		return &ir.Node{Op: "breed", Bind: t.Bind, Pos: t.Pos, End: t.End}
	case sym.BindProcedure:
		sig, _ := q.c.tab.Procedure(t.Bind.Name)

		if !sig.Reporter {
			return q.fail(t, "Expected a reporter here, but %v is a command", strings.ToUpper(sig.Name))
		}

		n := &ir.Node{Op: ir.OpCallReport, Bind: t.Bind, Pos: t.Pos, End: t.End}

		for j := 0; j < sig.Params; j++ {
			if !canStartExpr(q.peek()) {
				return q.fail(t, "%v expected %d input(s)", strings.ToUpper(sig.Name), sig.Params)
			}

			a := q.operand(ctx, ectx)
			if a == nil {
				return nil
			}

			n.Args = append(n.Args, a)
			n.End = a.End
		}

		return n
	default:
		return q.fail(t, "Nothing named %v has been defined.", strings.ToUpper(t.Text))
	}
}

// commandBlock parses a bracketed statement list in the given agent
// context.
func (q *parser) commandBlock(ctx context.Context, ectx sym.Context, op lex.Token) ([]*ir.Node, bool) {
	if t := q.next(); t.Kind != lex.OpenBracket {
		q.fail(t, "%v expected a command block here", strings.ToUpper(op.Text))
		return nil, false
	}

	list := q.statements(ctx, ectx, lex.CloseBracket)

	if t := q.next(); t.Kind != lex.CloseBracket {
		q.fail(t, "Expected ] here")
		return nil, false
	}

	return list, true
}

// reporterBlock parses `[ expr ]` kept as an embedded tree, so branch
// instructions can re-evaluate it.
func (q *parser) reporterBlock(ctx context.Context, ectx sym.Context, op lex.Token, want prim.Arg) (*ir.Node, bool) {
	if t := q.next(); t.Kind != lex.OpenBracket {
		q.fail(t, "%v expected a reporter block here", strings.ToUpper(op.Text))
		return nil, false
	}

	n := q.binary(ctx, ectx, 0)
	if n == nil {
		return nil, false
	}

	if !q.kindCheck(op, want, n) {
		return nil, false
	}

	if t := q.next(); t.Kind != lex.CloseBracket {
		q.fail(t, "Expected ] here")
		return nil, false
	}

	return n, true
}

func (q *parser) kindCheck(op lex.Token, want prim.Arg, n *ir.Node) bool {
	got := retKind(n)

	if want == prim.Any || got == prim.Any || got == want {
		return true
	}

	q.fail(op, "%v expected this input to be %v, but got %v instead", strings.ToUpper(op.Text), want, got)

	return false
}

// fail records a position-attributed diagnostic and marks the
// procedure bad. Always returns nil so callers can return it.
func (q *parser) fail(t lex.Token, msg string, args ...any) *ir.Node {
	q.c.ds.Addf(t.Pos, t.End, q.p.name, msg, args...)
	q.ok = false

	return nil
}

// recover skips ahead to the next plausible statement start so
// sibling statements still collect their own diagnostics.
func (q *parser) recover(term lex.Kind) {
	for {
		t := q.peek()

		switch t.Kind {
		case lex.EOF, lex.Command:
			return
		case lex.Ident:
			if t.Bind != nil && t.Bind.Kind == sym.BindProcedure {
				return
			}

			q.next()
		case lex.OpenBracket:
			q.next()
			q.skipBalanced()
		case lex.CloseBracket:
			if term == lex.CloseBracket {
				return
			}

			q.next()
		default:
			q.next()
		}
	}
}

func (q *parser) skipBalanced() {
	depth := 1

	for depth > 0 {
		switch t := q.next(); t.Kind {
		case lex.OpenBracket:
			depth++
		case lex.CloseBracket:
			depth--
		case lex.EOF:
			return
		}
	}
}

// canStartExpr filters clear arity shortfalls (end of statement,
// closing bracket) before operand parsing; a Command token still
// enters operand so it gets the command-where-reporter diagnostic.
func canStartExpr(t lex.Token) bool {
	switch t.Kind {
	case lex.Literal, lex.Ident, lex.Reporter, lex.OpenParen, lex.OpenBracket, lex.Command, lex.Bad:
		return true
	default:
		return false
	}
}

func retKind(n *ir.Node) prim.Arg {
	switch n.Op {
	case ir.OpConst:
		switch n.Val.(type) {
		case float64:
			return prim.Number
		case bool:
			return prim.Boolean
		case string:
			return prim.String
		default:
			return prim.Any
		}
	case ir.OpReadVar, ir.OpCallReport, "of":
		return prim.Any
	case "breed":
		return prim.Agentset
	default:
		if n.Spec != nil {
			return n.Spec.Ret
		}

		return prim.Any
	}
}

// agentContextOf derives the context an ask block runs in from its
// agentset expression.
func agentContextOf(n *ir.Node) sym.Context {
	switch {
	case n.Op == "breed":
		return sym.TurtleContext
	case n.Op == "one-of" && len(n.Args) == 1:
		return agentContextOf(n.Args[0])
	case n.Spec != nil && n.Spec.Ret == prim.Agentset:
		return n.Spec.RetAgent.Context()
	default:
		return sym.AnyContext
	}
}
