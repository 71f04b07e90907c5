// Package compiler ties the stages together: lexing and structure
// parsing of the whole unit, identifier resolution, expression
// parsing, and assembly, one procedure at a time. User mistakes come
// back as position-ordered diagnostics; an error return means the
// compiler itself failed.
package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler/back"
	"github.com/amblelang/amble/compiler/diag"
	"github.com/amblelang/amble/compiler/front"
	"github.com/amblelang/amble/compiler/ir"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	// Program is the compilation result: every procedure that
	// compiled, plus the diagnostics of those that did not. A failed
	// procedure has no entry in Procedures.
	Program struct {
		Mode sym.Mode

		Procedures  map[string]*ir.Procedure
		Diagnostics []diag.Diagnostic

		tab *sym.Table
	}
)

func Compile(ctx context.Context, name string, text []byte, mode sym.Mode) (p *Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile unit", "name", name, "mode", mode)
	defer tr.Finish("err", &err)

	ds := &diag.List{}

	f := front.New(mode, ds)
	f.AddFile(ctx, name, text)

	err = f.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse structure")
	}

	units, err := f.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse bodies")
	}

	p = &Program{
		Mode:       mode,
		Procedures: make(map[string]*ir.Procedure, len(units)),
		tab:        f.Table(),
	}

	for _, u := range units {
		proc, err := back.Assemble(ctx, u.Header, u.Body)
		if err != nil {
			return nil, errors.Wrap(err, "assemble %v", u.Header.Name)
		}

		p.Procedures[proc.Name] = proc
	}

	p.Diagnostics = ds.All()

	tr.V("result").Printw("compiled unit", "name", name, "procs", len(p.Procedures), "diags", len(p.Diagnostics))

	return p, nil
}

func CompileFile(ctx context.Context, path string, mode sym.Mode) (p *Program, err error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}

	return Compile(ctx, path, text, mode)
}

// Ok reports whether the whole unit compiled clean.
func (p *Program) Ok() bool { return len(p.Diagnostics) == 0 }

// Reference resolves a variable name to its runtime address in the
// given agent context.
func (p *Program) Reference(name string, kind sym.AgentKind) (sym.Ref, error) {
	return p.tab.Reference(name, kind)
}
