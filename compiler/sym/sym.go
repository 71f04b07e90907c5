package sym

import (
	"fmt"
	"strings"

	"tlog.app/go/errors"
)

type (
	// AgentKind is the address space a variable belongs to.
	AgentKind int8

	// Mode selects the spatial configuration of the world.
	// It changes which built-in variables exist and their indices,
	// so the table must be rebuilt whenever it changes.
	Mode int8

	// Context is a set of agent kinds a primitive or procedure
	// may run in.
	Context uint8

	// BindKind tags a resolved variable binding.
	BindKind int8

	// Binding is a resolved reference to a storage location or
	// a procedure.
	Binding struct {
		Kind  BindKind
		Agent AgentKind // Own only
		Index int       // Local, Own, Global
		Name  string
	}

	// Ref is the externally comparable address form of a variable:
	// agent kind, dense index, uppercased name.
	Ref struct {
		Agent AgentKind
		Index int
		Name  string
	}

	// Signature describes a declared procedure.
	Signature struct {
		Name     string
		Context  Context
		Params   int
		Reporter bool
	}

	// Breed is a user-declared turtle population.
	Breed struct {
		Plural   string
		Singular string
	}

	// Table assigns every variable a dense index within its agent
	// kind's address space and resolves names for the identifier
	// parser. It is built once per compilation and frozen before
	// any procedure body is resolved.
	Table struct {
		mode Mode

		globals []string
		own     map[AgentKind][]string
		breeds  []Breed
		procs   map[string]Signature
	}
)

const (
	Observer AgentKind = iota
	Turtle
	Patch
	Link
)

const (
	Mode2D Mode = iota
	Mode3D
)

const (
	ObserverContext Context = 1 << iota
	TurtleContext
	PatchContext
	LinkContext

	AnyContext = ObserverContext | TurtleContext | PatchContext | LinkContext
)

const (
	BindLocal BindKind = iota
	BindOwn
	BindGlobal
	BindBreed
	BindProcedure
)

// builtin variable layout per agent kind and spatial mode.
// Order is the external contract: user variables continue the
// sequence after the last built-in. Data, not types.
var builtins = map[AgentKind]map[Mode][]string{
	Turtle: {
		Mode2D: {
			"who", "color", "heading", "xcor", "ycor",
			"shape", "label", "label-color", "breed",
			"hidden?", "size", "pen-size", "pen-mode",
		},
		Mode3D: {
			"who", "color", "heading", "pitch", "roll",
			"xcor", "ycor", "zcor",
			"shape", "label", "label-color", "breed",
			"hidden?", "size", "pen-size", "pen-mode",
		},
	},
	Patch: {
		Mode2D: {
			"pxcor", "pycor", "pcolor", "plabel", "plabel-color",
		},
		Mode3D: {
			"pxcor", "pycor", "pzcor", "pcolor", "plabel", "plabel-color",
		},
	},
}

// Builtins returns the ordered built-in variable names for the kind
// and mode. Observer has no built-ins: globals start at 0.
func Builtins(kind AgentKind, mode Mode) []string {
	return builtins[kind][mode]
}

func New(mode Mode) *Table {
	return &Table{
		mode:  mode,
		own:   map[AgentKind][]string{},
		procs: map[string]Signature{},
	}
}

func (t *Table) Mode() Mode { return t.mode }

func (t *Table) DeclareGlobal(name string) error {
	name = strings.ToLower(name)

	for _, g := range t.globals {
		if g == name {
			return errors.New("There is already a global variable called %v", strings.ToUpper(name))
		}
	}

	t.globals = append(t.globals, name)

	return nil
}

// DeclareOwn appends a user variable to the kind's address space,
// after all built-ins for the current mode.
func (t *Table) DeclareOwn(kind AgentKind, name string) error {
	name = strings.ToLower(name)

	if idx := index(Builtins(kind, t.mode), name); idx >= 0 {
		return errors.New("%v is a built-in variable", strings.ToUpper(name))
	}

	if idx := index(t.own[kind], name); idx >= 0 {
		return errors.New("There is already a variable called %v", strings.ToUpper(name))
	}

	t.own[kind] = append(t.own[kind], name)

	return nil
}

func (t *Table) DeclareBreed(plural, singular string) error {
	plural = strings.ToLower(plural)

	for _, b := range t.breeds {
		if b.Plural == plural {
			return errors.New("There is already a breed called %v", strings.ToUpper(plural))
		}
	}

	t.breeds = append(t.breeds, Breed{Plural: plural, Singular: strings.ToLower(singular)})

	return nil
}

func (t *Table) Breed(plural string) (Breed, bool) {
	plural = strings.ToLower(plural)

	for _, b := range t.breeds {
		if b.Plural == plural {
			return b, true
		}
	}

	return Breed{}, false
}

func (t *Table) DeclareProcedure(sig Signature) error {
	name := strings.ToLower(sig.Name)

	if _, ok := t.procs[name]; ok {
		return errors.New("There is already a procedure called %v", strings.ToUpper(name))
	}

	sig.Name = name
	t.procs[name] = sig

	return nil
}

func (t *Table) Procedure(name string) (Signature, bool) {
	sig, ok := t.procs[strings.ToLower(name)]
	return sig, ok
}

// Resolve maps a name to a binding as seen from the given agent
// context. Locals are the caller's business; the table resolves own
// variables of the context first, then globals, then own variables of
// the other kinds, then procedures. First match wins.
func (t *Table) Resolve(name string, ctx AgentKind) (Binding, bool) {
	name = strings.ToLower(name)

	if b, ok := t.resolveOwn(name, ctx); ok {
		return b, true
	}

	if idx := index(t.globals, name); idx >= 0 {
		return Binding{Kind: BindGlobal, Agent: Observer, Index: idx, Name: name}, true
	}

	for _, kind := range []AgentKind{Turtle, Patch} {
		if kind == ctx {
			continue
		}

		if b, ok := t.resolveOwn(name, kind); ok {
			return b, true
		}
	}

	if b, ok := t.Breed(name); ok {
		return Binding{Kind: BindBreed, Agent: Turtle, Name: b.Plural}, true
	}

	if sig, ok := t.procs[name]; ok {
		return Binding{Kind: BindProcedure, Name: sig.Name}, true
	}

	return Binding{}, false
}

func (t *Table) resolveOwn(name string, kind AgentKind) (Binding, bool) {
	if kind != Turtle && kind != Patch {
		return Binding{}, false
	}

	bs := Builtins(kind, t.mode)

	if idx := index(bs, name); idx >= 0 {
		return Binding{Kind: BindOwn, Agent: kind, Index: idx, Name: name}, true
	}

	if idx := index(t.own[kind], name); idx >= 0 {
		return Binding{Kind: BindOwn, Agent: kind, Index: len(bs) + idx, Name: name}, true
	}

	return Binding{}, false
}

// Reference answers the debug addressing query: the stable
// [AGENT-KIND, INDEX, NAME] triple for a variable as seen from the
// given context.
func (t *Table) Reference(name string, ctx AgentKind) (Ref, error) {
	b, ok := t.Resolve(name, ctx)
	if !ok || b.Kind == BindProcedure || b.Kind == BindBreed {
		return Ref{}, errors.New("Nothing named %v has been defined.", strings.ToUpper(name))
	}

	kind := b.Agent
	if b.Kind == BindGlobal {
		kind = Observer
	}

	return Ref{Agent: kind, Index: b.Index, Name: strings.ToUpper(b.Name)}, nil
}

func index(l []string, name string) int {
	for i, s := range l {
		if s == name {
			return i
		}
	}

	return -1
}

func (k AgentKind) String() string {
	switch k {
	case Observer:
		return "OBSERVER"
	case Turtle:
		return "TURTLE"
	case Patch:
		return "PATCH"
	case Link:
		return "LINK"
	default:
		return fmt.Sprintf("AgentKind(%d)", int(k))
	}
}

func (k AgentKind) Context() Context {
	switch k {
	case Observer:
		return ObserverContext
	case Turtle:
		return TurtleContext
	case Patch:
		return PatchContext
	case Link:
		return LinkContext
	default:
		return AnyContext
	}
}

func (m Mode) String() string {
	if m == Mode3D {
		return "3D"
	}

	return "2D"
}

func (c Context) Has(kind AgentKind) bool {
	return c&kind.Context() != 0
}

func (c Context) String() string {
	if c == AnyContext {
		return "any"
	}

	var b strings.Builder

	for _, k := range []AgentKind{Observer, Turtle, Patch, Link} {
		if !c.Has(k) {
			continue
		}

		if b.Len() != 0 {
			b.WriteByte('/')
		}

		b.WriteString(strings.ToLower(k.String()))
	}

	return b.String()
}

func (r Ref) String() string {
	return fmt.Sprintf("[%q,%d,%q]", r.Agent.String(), r.Index, r.Name)
}

func (k BindKind) String() string {
	switch k {
	case BindLocal:
		return "local"
	case BindOwn:
		return "own"
	case BindGlobal:
		return "global"
	case BindBreed:
		return "breed"
	case BindProcedure:
		return "procedure"
	default:
		return fmt.Sprintf("BindKind(%d)", int(k))
	}
}

func (b Binding) String() string {
	switch b.Kind {
	case BindLocal:
		return fmt.Sprintf("local[%d] %v", b.Index, b.Name)
	case BindOwn:
		return fmt.Sprintf("%v[%d] %v", strings.ToLower(b.Agent.String()), b.Index, b.Name)
	case BindGlobal:
		return fmt.Sprintf("global[%d] %v", b.Index, b.Name)
	case BindBreed:
		return fmt.Sprintf("breed %v", b.Name)
	case BindProcedure:
		return fmt.Sprintf("procedure %v", b.Name)
	default:
		return fmt.Sprintf("binding(%d)", int(b.Kind))
	}
}
