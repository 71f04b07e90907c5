// Package ir holds the intermediate forms between the front end and
// the assembler: InstructionNode trees for one procedure body, and the
// flat, jump-addressed Procedure the execution engine consumes.
package ir

import (
	"github.com/amblelang/amble/compiler/prim"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	// Node is one instruction in tree form: a primitive operation
	// with its argument trees and, for control constructs, nested
	// statement blocks. Transient: created and consumed within one
	// compilation pass.
	Node struct {
		Op   string
		Spec *prim.Spec // nil for pseudo ops (const, readvar, setvar, call)

		Args   []*Node
		Blocks [][]*Node

		Bind *sym.Binding
		Val  any

		Pos int
		End int
	}

	// Instruction is one slot of the assembled code array. Target
	// is an absolute index into the same array for control
	// transfers, -1 otherwise. Branch instructions keep their
	// condition or agentset as an embedded tree in Args so the VM
	// can re-evaluate it per iteration.
	Instruction struct {
		Op string

		Args []*Node

		Bind   *sym.Binding
		Val    any
		Target int

		// Name and Argc describe user procedure calls.
		Name string
		Argc int
	}

	// Header is the declared shape of a procedure, known after
	// structure parsing.
	Header struct {
		Name     string
		Context  sym.Context
		Params   int
		Reporter bool
	}

	// Procedure is the durable compilation artifact.
	Procedure struct {
		Name     string
		Context  sym.Context
		Params   int
		Reporter bool

		Code []Instruction
	}
)

// Ops the assembler emits beside primitive names.
const (
	OpConst        = "const"
	OpReadVar      = "readvar"
	OpSetVar       = "setvar"
	OpCall         = "call"
	OpCallReport   = "callreport"
	OpGoto         = "goto"
	OpDone         = "done"
	OpEndRepeat    = "endrepeat"
	OpReturn       = "return"
	OpReportReturn = "reportreturn"
)

func Const(val any, pos, end int) *Node {
	return &Node{Op: OpConst, Val: val, Pos: pos, End: end}
}

func ReadVar(b *sym.Binding, pos, end int) *Node {
	return &Node{Op: OpReadVar, Bind: b, Pos: pos, End: end}
}
