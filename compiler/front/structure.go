package front

import (
	"context"
	"strings"

	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler/lex"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	// decl is a deferred top-level variable declaration block.
	// Breeds register during the walk so <breed>-own blocks and
	// breed agentset references work in any order.
	decl struct {
		kind  string // globals, turtles-own, patches-own, breed-own
		breed string
		names []lex.Token
	}
)

var contextKeywords = map[string]sym.AgentKind{
	"observer-only": sym.Observer,
	"turtle-only":   sym.Turtle,
	"patch-only":    sym.Patch,
	"link-only":     sym.Link,
}

// parseStructure splits one file's token stream into declarations and
// procedure definitions, populating the symbol table.
func (c *Front) parseStructure(ctx context.Context, f *file) {
	tr := tlog.SpanFromContext(ctx)

	toks := lex.Tokens(f.text)

	var decls []decl

	for i := 0; toks[i].Kind != lex.EOF; {
		t := toks[i]

		switch {
		case t.Kind == lex.Keyword && (low(t.Text) == "globals" || low(t.Text) == "turtles-own" || low(t.Text) == "patches-own"):
			names, j := c.nameBlock(toks, i+1, t)
			decls = append(decls, decl{kind: low(t.Text), names: names})
			i = j
		case t.Kind == lex.Keyword && low(t.Text) == "breed":
			names, j := c.nameBlock(toks, i+1, t)
			i = j

			if len(names) == 0 || len(names) > 2 {
				c.ds.Addf(t.Pos, t.End, "", "BREED expects one or two names")
				continue
			}

			singular := names[0].Text
			if len(names) == 2 {
				singular = names[1].Text
			}

			err := c.tab.DeclareBreed(names[0].Text, singular)
			if err != nil {
				c.ds.Addf(names[0].Pos, names[0].End, "", "%v", err)
			}
		case t.Kind == lex.Ident && strings.HasSuffix(low(t.Text), "-own"):
			names, j := c.nameBlock(toks, i+1, t)
			decls = append(decls, decl{kind: "breed-own", breed: strings.TrimSuffix(low(t.Text), "-own"), names: names})
			i = j
		case t.Kind == lex.Keyword && (low(t.Text) == "to" || low(t.Text) == "to-report"):
			i = c.parseProcedure(ctx, toks, i)
		default:
			c.ds.Addf(t.Pos, t.End, "", "Expected a declaration or TO here, got %v", strings.ToUpper(t.Text))
			i++
		}
	}

	for _, d := range decls {
		c.declare(d)
	}

	tr.V("structure").Printw("file structure", "name", f.name, "decls", len(decls), "procs", len(c.procs))
}

func (c *Front) declare(d decl) {
	kind := sym.Turtle

	switch d.kind {
	case "globals":
		for _, n := range d.names {
			err := c.tab.DeclareGlobal(n.Text)
			if err != nil {
				c.ds.Addf(n.Pos, n.End, "", "%v", err)
			}
		}

		return
	case "patches-own":
		kind = sym.Patch
	case "breed-own":
		if _, ok := c.tab.Breed(d.breed); !ok {
			if len(d.names) != 0 {
				n := d.names[0]
				c.ds.Addf(n.Pos, n.End, "", "There is no breed called %v", strings.ToUpper(d.breed))
			}

			return
		}
	}

	for _, n := range d.names {
		err := c.tab.DeclareOwn(kind, n.Text)
		if err != nil {
			c.ds.Addf(n.Pos, n.End, "", "%v", err)
		}
	}
}

// nameBlock reads a bracketed list of fresh identifiers.
func (c *Front) nameBlock(toks []lex.Token, i int, kw lex.Token) (names []lex.Token, _ int) {
	if toks[i].Kind != lex.OpenBracket {
		c.ds.Addf(kw.Pos, kw.End, "", "%v expects [ ... ]", strings.ToUpper(kw.Text))
		return nil, i
	}

	i++

	for {
		switch t := toks[i]; t.Kind {
		case lex.CloseBracket:
			return names, i + 1
		case lex.EOF:
			c.ds.Addf(kw.Pos, kw.End, "", "%v is missing its closing bracket", strings.ToUpper(kw.Text))
			return names, i
		case lex.Ident:
			names = append(names, t)
			i++
		default:
			c.ds.Addf(t.Pos, t.End, "", "%v is not a valid name here", strings.ToUpper(t.Text))
			i++
		}
	}
}

// parseProcedure reads one to/to-report definition through its end.
// A missing end invalidates this procedure only; everything parsed
// before stays valid.
func (c *Front) parseProcedure(ctx context.Context, toks []lex.Token, i int) int {
	kw := toks[i]
	reporter := low(kw.Text) == "to-report"
	i++

	if toks[i].Kind != lex.Ident {
		c.ds.Addf(toks[i].Pos, toks[i].End, "", "Expected a procedure name here, got %v", strings.ToUpper(toks[i].Text))
		return c.skipToEnd(toks, i)
	}

	p := &procedure{
		name:    low(toks[i].Text),
		context: sym.AnyContext,
		agent:   sym.Observer,
		pos:     kw.Pos,
	}
	nameTok := toks[i]
	i++

	if t := toks[i]; t.Kind == lex.Ident {
		if agent, ok := contextKeywords[low(t.Text)]; ok {
			p.agent = agent
			p.context = agent.Context()
			i++
		}
	}

	if toks[i].Kind == lex.OpenBracket {
		i++

		for toks[i].Kind == lex.Ident {
			p.params = append(p.params, low(toks[i].Text))
			i++
		}

		if toks[i].Kind != lex.CloseBracket {
			c.ds.Addf(toks[i].Pos, toks[i].End, p.name, "Expected a parameter name or ] here")
			return c.skipToEnd(toks, i)
		}

		i++
	}

	depth := 0

	for {
		t := toks[i]

		switch {
		case t.Kind == lex.EOF:
			c.ds.Addf(kw.Pos, nameTok.End, p.name, "END expected")
			return i
		case t.Kind == lex.Keyword && low(t.Text) == "end":
			if depth != 0 {
				c.ds.Addf(t.Pos, t.End, p.name, "Mismatched brackets: %d unclosed before END", depth)
				return i + 1
			}

			p.end = t.End

			err := c.tab.DeclareProcedure(sym.Signature{
				Name:     p.name,
				Context:  p.context,
				Params:   len(p.params),
				Reporter: reporter,
			})
			if err != nil {
				c.ds.Addf(nameTok.Pos, nameTok.End, p.name, "%v", err)
				return i + 1
			}

			p.reporter = reporter
			c.procs = append(c.procs, p)

			return i + 1
		case t.Kind == lex.Keyword:
			c.ds.Addf(t.Pos, t.End, p.name, "%v can only be used at the top level", strings.ToUpper(t.Text))
			i++
		case t.Kind == lex.OpenBracket:
			depth++
			p.body = append(p.body, t)
			i++
		case t.Kind == lex.CloseBracket:
			depth--

			if depth < 0 {
				c.ds.Addf(t.Pos, t.End, p.name, "Closing bracket with no opening bracket")
				return c.skipToEnd(toks, i)
			}

			p.body = append(p.body, t)
			i++
		default:
			p.body = append(p.body, t)
			i++
		}
	}
}

func (c *Front) skipToEnd(toks []lex.Token, i int) int {
	for {
		switch t := toks[i]; {
		case t.Kind == lex.EOF:
			return i
		case t.Kind == lex.Keyword && low(t.Text) == "end":
			return i + 1
		default:
			i++
		}
	}
}

func low(s string) string { return strings.ToLower(s) }
