package main

import (
	"context"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler"
	"github.com/amblelang/amble/compiler/format"
	"github.com/amblelang/amble/compiler/lex"
	"github.com/amblelang/amble/compiler/sym"
)

func main() {
	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print the token stream of source files",
		Action:      tokensAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source files and print the assembled procedures",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	refCmd := &cli.Command{
		Name:        "ref <file> <agent> <name>...",
		Description: "resolve variable names to runtime addresses",
		Action:      refAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "amble",
		Description: "amble is a tool for compiling amble agent models",
		Commands: []*cli.Command{
			tokensCmd,
			compileCmd,
			refCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

// world picks the patch and turtle variable layout. AMBLE_WORLD=3d
// adds the z axis variables.
func world() sym.Mode {
	if env.Str("AMBLE_WORLD", "2d") == "3d" {
		return sym.Mode3D
	}

	return sym.Mode2D
}

func tokensAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		for _, t := range lex.Tokens(text) {
			fmt.Printf("%4d  %v\n", t.Pos, t)
		}
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		p, err := compiler.CompileFile(ctx, a, world())
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		for _, d := range p.Diagnostics {
			fmt.Fprintf(os.Stderr, "%v: %v\n", a, d)
		}

		for _, proc := range p.Procedures {
			fmt.Printf("%s\n", format.Disasm(proc))
		}

		if !p.Ok() {
			return errors.New("%v: %d problem(s)", a, len(p.Diagnostics))
		}
	}

	return nil
}

func refAct(c *cli.Command) (err error) {
	if len(c.Args) < 3 {
		return errors.New("usage: ref <file> <agent> <name>...")
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	p, err := compiler.CompileFile(ctx, c.Args[0], world())
	if err != nil {
		return errors.Wrap(err, "compile %v", c.Args[0])
	}

	var kind sym.AgentKind

	switch c.Args[1] {
	case "observer":
		kind = sym.Observer
	case "turtle":
		kind = sym.Turtle
	case "patch":
		kind = sym.Patch
	case "link":
		kind = sym.Link
	default:
		return errors.New("unknown agent kind: %v", c.Args[1])
	}

	for _, name := range c.Args[2:] {
		ref, err := p.Reference(name, kind)
		if err != nil {
			return errors.Wrap(err, "%v", name)
		}

		fmt.Printf("%v\n", ref)
	}

	return nil
}
