// Package diag is the accumulating result type threaded through every
// compilation stage: failures are collected, never raised as
// control-flow interrupts.
package diag

import (
	"fmt"
	"strings"

	"nikand.dev/go/heap"
)

type (
	// Diagnostic is one compile error as the shell consumes it.
	Diagnostic struct {
		Message     string
		SourceStart int
		SourceEnd   int
		Procedure   string
	}

	// List accumulates diagnostics across independently compiled
	// procedures and reports them in source-position order.
	List struct {
		h heap.Heap[Diagnostic]
		n int
	}
)

func (l *List) Add(d Diagnostic) {
	if l.h.Less == nil {
		l.h.Less = diagLess
	}

	l.h.Push(d)
	l.n++
}

func (l *List) Addf(start, end int, proc, msg string, args ...any) {
	l.Add(Diagnostic{
		Message:     fmt.Sprintf(msg, args...),
		SourceStart: start,
		SourceEnd:   end,
		Procedure:   proc,
	})
}

// Nothing is the canonical unresolved-identifier diagnostic.
func (l *List) Nothing(start, end int, proc, name string) {
	l.Addf(start, end, proc, "Nothing named %v has been defined.", strings.ToUpper(name))
}

func (l *List) Len() int { return l.n }

func (l *List) Empty() bool { return l.n == 0 }

// All drains the list in source-position order.
func (l *List) All() []Diagnostic {
	if l.n == 0 {
		return nil
	}

	res := make([]Diagnostic, 0, l.n)

	for l.h.Len() != 0 {
		res = append(res, l.h.Pop())
	}

	l.n = 0

	return res
}

func diagLess(d []Diagnostic, i, j int) bool {
	if d[i].SourceStart != d[j].SourceStart {
		return d[i].SourceStart < d[j].SourceStart
	}

	return d[i].Message < d[j].Message
}

func (d Diagnostic) String() string {
	if d.Procedure == "" {
		return fmt.Sprintf("%d:%d: %v", d.SourceStart, d.SourceEnd, d.Message)
	}

	return fmt.Sprintf("%d:%d: %v (in %v)", d.SourceStart, d.SourceEnd, d.Message, d.Procedure)
}
