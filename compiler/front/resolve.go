package front

import (
	"context"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/amblelang/amble/compiler/lex"
	"github.com/amblelang/amble/compiler/sym"
)

type (
	// scope tracks let-locals by the bracket depth they were
	// declared at; closing a bracket drops them. Slot indices are
	// never reused, each local keeps its own.
	scope struct {
		locals []localVar
		next   int
	}

	localVar struct {
		name  string
		index int
		depth int
	}
)

// resolve rewrites every identifier token of the body into a bound
// token: local, own variable of the enclosing context, global, breed,
// or procedure — most specific first. It is purely a rewrite; no
// expression tree yet. Unresolved names fail the procedure but the
// walk continues so one pass reports them all.
func (c *Front) resolve(ctx context.Context, p *procedure) (out []lex.Token, ok bool) {
	tr := tlog.SpanFromContext(ctx)

	s := scope{}
	for _, name := range p.params {
		s.define(name, 0)
	}

	out = make([]lex.Token, 0, len(p.body)+1)
	ok = true
	depth := 0

	for i := 0; i < len(p.body); i++ {
		t := p.body[i]

		switch t.Kind {
		case lex.OpenBracket:
			depth++
		case lex.CloseBracket:
			depth--
			s.close(depth)
		case lex.Command:
			if low(t.Text) == "let" && i+1 < len(p.body) && p.body[i+1].Kind == lex.Ident {
				name := low(p.body[i+1].Text)

				if _, exists := s.find(name); exists {
					c.ds.Addf(p.body[i+1].Pos, p.body[i+1].End, p.name, "There is already a local variable here called %v", name)
					ok = false
				}

				l := s.define(name, depth)

				tr.V("vars").Printw("define local", "proc", p.name, "name", name, "index", l.index, "depth", depth, "from", loc.Callers(1, 2))

				nt := p.body[i+1]
				nt.Bind = &sym.Binding{Kind: sym.BindLocal, Index: l.index, Name: name}

				out = append(out, t, nt)
				i++

				continue
			}
		case lex.Ident:
			name := low(t.Text)

			if l, exists := s.find(name); exists {
				t.Bind = &sym.Binding{Kind: sym.BindLocal, Index: l.index, Name: name}
				break
			}

			if b, exists := c.tab.Resolve(name, p.agent); exists {
				b := b
				t.Bind = &b
				break
			}

			c.ds.Nothing(t.Pos, t.End, p.name, name)
			ok = false
		}

		out = append(out, t)
	}

	out = append(out, lex.Token{Kind: lex.EOF, Pos: p.end, End: p.end})

	return out, ok
}

func (s *scope) define(name string, depth int) localVar {
	l := localVar{name: name, index: s.next, depth: depth}
	s.next++
	s.locals = append(s.locals, l)

	return l
}

// find returns the innermost in-scope local with the name.
func (s *scope) find(name string) (localVar, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].name == name {
			return s.locals[i], true
		}
	}

	return localVar{}, false
}

// close drops locals declared deeper than depth.
func (s *scope) close(depth int) {
	for len(s.locals) != 0 && s.locals[len(s.locals)-1].depth > depth {
		s.locals = s.locals[:len(s.locals)-1]
	}
}
