// Package front is the per-unit front end: the structure parser that
// populates the symbol table, the identifier parser that rewrites bare
// names into bindings, and the expression parser that builds
// instruction trees. Structure parsing completes for the whole unit
// before any identifier is resolved, so forward references to
// procedures and breed variables work.
package front

import (
	"context"

	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/amblelang/amble/compiler/diag"
	"github.com/amblelang/amble/compiler/ir"
	"github.com/amblelang/amble/compiler/lex"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	Front struct {
		mode sym.Mode

		files []file
		tab   *sym.Table
		procs []*procedure

		ds *diag.List
	}

	file struct {
		name string
		text []byte
	}

	// procedure is one parsed definition between to/to-report and
	// end: header plus the raw body token span.
	procedure struct {
		name     string
		context  sym.Context
		agent    sym.AgentKind // resolution context for own variables
		params   []string
		reporter bool

		body []lex.Token

		pos int
		end int
	}

	// Unit is a fully parsed procedure body ready for assembly.
	Unit struct {
		Header ir.Header
		Body   []*ir.Node
	}
)

func New(mode sym.Mode, ds *diag.List) *Front {
	return &Front{
		mode: mode,
		tab:  sym.New(mode),
		ds:   ds,
	}
}

func (c *Front) AddFile(ctx context.Context, name string, text []byte) {
	c.files = append(c.files, file{name: name, text: text})
}

func (c *Front) Table() *sym.Table { return c.tab }

// Parse runs the structure pass over every file and freezes the
// symbol table. Structural problems become diagnostics, not errors.
func (c *Front) Parse(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: parse structure", "mode", c.mode, "name", func() any {
		for _, f := range c.files {
			return f.name
		}

		return tlwire.Nil
	}())
	defer tr.Finish("procs", len(c.procs), "diags", c.ds.Len(), "err", &err)

	for i := range c.files {
		c.parseStructure(ctx, &c.files[i])
	}

	return nil
}

// Compile resolves and parses every procedure body independently.
// A failed procedure contributes diagnostics and no Unit; the others
// are unaffected.
func (c *Front) Compile(ctx context.Context) (units []*Unit, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: compile procedures", "procs", len(c.procs))
	defer tr.Finish("units", len(units), "err", &err)

	for _, p := range c.procs {
		body, ok := c.resolve(ctx, p)
		if !ok {
			continue
		}

		nodes, ok := c.parseBody(ctx, p, body)
		if !ok {
			continue
		}

		units = append(units, &Unit{
			Header: ir.Header{
				Name:     p.name,
				Context:  p.context,
				Params:   len(p.params),
				Reporter: p.reporter,
			},
			Body: nodes,
		})
	}

	return units, nil
}
