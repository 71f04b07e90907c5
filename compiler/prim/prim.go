// Package prim is the catalog of built-in commands and reporters:
// arity, argument kinds, infix precedence and agent-context
// restrictions. The tokenizer classifies identifiers against it and
// the expression parser enforces it.
package prim

import (
	"strings"

	"github.com/amblelang/amble/compiler/sym"
)

type (
	// Arg is the declared kind of one argument slot (or of a
	// reporter's result).
	Arg uint8

	Spec struct {
		Name    string
		Command bool
		Args    []Arg
		Ret     Arg

		// RetAgent is the element kind of an agentset result.
		RetAgent sym.AgentKind

		// Context restricts where the primitive may run.
		Context sym.Context

		// BlockContext is the agent context inside command-block
		// arguments, for primitives that switch it themselves
		// (sprout, create-turtles). Zero means derive from the
		// agentset argument or inherit.
		BlockContext sym.Context

		// Prec is the infix binding power; zero means prefix.
		Prec int
	}
)

const (
	Any Arg = iota
	Number
	Boolean
	String
	Agentset
	Variable
	CommandBlock
	ReporterBlock
)

const (
	PrecOr  = 1
	PrecAnd = 2
	PrecCmp = 3
	PrecAdd = 4
	PrecMul = 5
)

var catalog = map[string]Spec{
	// turtle commands
	"fd":    {Command: true, Args: []Arg{Number}, Context: sym.TurtleContext},
	"bk":    {Command: true, Args: []Arg{Number}, Context: sym.TurtleContext},
	"rt":    {Command: true, Args: []Arg{Number}, Context: sym.TurtleContext},
	"lt":    {Command: true, Args: []Arg{Number}, Context: sym.TurtleContext},
	"die":   {Command: true, Context: sym.TurtleContext},
	"setxy": {Command: true, Args: []Arg{Number, Number}, Context: sym.TurtleContext},

	// patch commands
	"sprout": {Command: true, Args: []Arg{Number, CommandBlock}, Context: sym.PatchContext, BlockContext: sym.TurtleContext},

	// observer commands
	"create-turtles": {Command: true, Args: []Arg{Number, CommandBlock}, Context: sym.ObserverContext, BlockContext: sym.TurtleContext},
	"clear-all":      {Command: true, Context: sym.ObserverContext},
	"reset-ticks":    {Command: true, Context: sym.ObserverContext},
	"tick":           {Command: true, Context: sym.ObserverContext},

	// universal commands
	"set":    {Command: true, Args: []Arg{Variable, Any}, Context: sym.AnyContext},
	"let":    {Command: true, Args: []Arg{Variable, Any}, Context: sym.AnyContext},
	"print":  {Command: true, Args: []Arg{Any}, Context: sym.AnyContext},
	"show":   {Command: true, Args: []Arg{Any}, Context: sym.AnyContext},
	"stop":   {Command: true, Context: sym.AnyContext},
	"report": {Command: true, Args: []Arg{Any}, Context: sym.AnyContext},

	// control
	"if":     {Command: true, Args: []Arg{Boolean, CommandBlock}, Context: sym.AnyContext},
	"ifelse": {Command: true, Args: []Arg{Boolean, CommandBlock, CommandBlock}, Context: sym.AnyContext},
	"while":  {Command: true, Args: []Arg{ReporterBlock, CommandBlock}, Context: sym.AnyContext},
	"loop":   {Command: true, Args: []Arg{CommandBlock}, Context: sym.AnyContext},
	"repeat": {Command: true, Args: []Arg{Number, CommandBlock}, Context: sym.AnyContext},
	"ask":    {Command: true, Args: []Arg{Agentset, CommandBlock}, Context: sym.ObserverContext | sym.TurtleContext | sym.PatchContext},

	// reporters
	"timer":        {Ret: Number, Context: sym.AnyContext},
	"ticks":        {Ret: Number, Context: sym.AnyContext},
	"random":       {Args: []Arg{Number}, Ret: Number, Context: sym.AnyContext},
	"random-float": {Args: []Arg{Number}, Ret: Number, Context: sym.AnyContext},
	"count":        {Args: []Arg{Agentset}, Ret: Number, Context: sym.AnyContext},
	"any?":         {Args: []Arg{Agentset}, Ret: Boolean, Context: sym.AnyContext},
	"one-of":       {Args: []Arg{Agentset}, Ret: Any, Context: sym.AnyContext},
	"turtles":      {Ret: Agentset, RetAgent: sym.Turtle, Context: sym.AnyContext},
	"patches":      {Ret: Agentset, RetAgent: sym.Patch, Context: sym.AnyContext},
	"not":          {Args: []Arg{Boolean}, Ret: Boolean, Context: sym.AnyContext},
	"of":           {Args: []Arg{ReporterBlock, Agentset}, Ret: Any, Context: sym.AnyContext},

	// infix reporters
	"or":  {Args: []Arg{Boolean, Boolean}, Ret: Boolean, Prec: PrecOr, Context: sym.AnyContext},
	"xor": {Args: []Arg{Boolean, Boolean}, Ret: Boolean, Prec: PrecOr, Context: sym.AnyContext},
	"and": {Args: []Arg{Boolean, Boolean}, Ret: Boolean, Prec: PrecAnd, Context: sym.AnyContext},
	"=":   {Args: []Arg{Any, Any}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	"!=":  {Args: []Arg{Any, Any}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	"<":   {Args: []Arg{Number, Number}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	">":   {Args: []Arg{Number, Number}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	"<=":  {Args: []Arg{Number, Number}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	">=":  {Args: []Arg{Number, Number}, Ret: Boolean, Prec: PrecCmp, Context: sym.AnyContext},
	"+":   {Args: []Arg{Number, Number}, Ret: Number, Prec: PrecAdd, Context: sym.AnyContext},
	"-":   {Args: []Arg{Number, Number}, Ret: Number, Prec: PrecAdd, Context: sym.AnyContext},
	"*":   {Args: []Arg{Number, Number}, Ret: Number, Prec: PrecMul, Context: sym.AnyContext},
	"/":   {Args: []Arg{Number, Number}, Ret: Number, Prec: PrecMul, Context: sym.AnyContext},
	"mod": {Args: []Arg{Number, Number}, Ret: Number, Prec: PrecMul, Context: sym.AnyContext},
}

var aliases = map[string]string{
	"forward": "fd",
	"back":    "bk",
	"right":   "rt",
	"left":    "lt",
	"crt":     "create-turtles",
	"ca":      "clear-all",
}

func init() {
	for name, s := range catalog {
		s.Name = name
		catalog[name] = s
	}
}

// Lookup resolves a primitive name (or alias) to its spec.
func Lookup(name string) (Spec, bool) {
	name = strings.ToLower(name)

	if to, ok := aliases[name]; ok {
		name = to
	}

	s, ok := catalog[name]

	return s, ok
}

// Infix reports whether the name is an infix reporter.
func Infix(name string) bool {
	s, ok := Lookup(name)
	return ok && s.Prec != 0
}

func (a Arg) String() string {
	switch a {
	case Any:
		return "anything"
	case Number:
		return "a number"
	case Boolean:
		return "true or false"
	case String:
		return "a string"
	case Agentset:
		return "an agentset"
	case Variable:
		return "a variable"
	case CommandBlock:
		return "a command block"
	case ReporterBlock:
		return "a reporter block"
	default:
		return "anything"
	}
}
