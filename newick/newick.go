// Package newick emits a plain Tree (see package arg's GetTree/Tree) as a
// Newick-format string. It is a thin client adapter: no parsing, no I/O,
// no wire format of its own — the spec scopes the Newick encoder to this
// single direction.
package newick

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samsledje/compbio/arg"
)

// Emit renders t as a Newick string, terminated with ";".
func Emit(t *arg.Tree) string {
	var b strings.Builder
	writeNode(&b, t, t.Root)
	b.WriteString(";")
	return b.String()
}

func writeNode(b *strings.Builder, t *arg.Tree, idx int) {
	node := t.Nodes[idx]
	if len(node.Children) > 0 {
		b.WriteString("(")
		for i, c := range node.Children {
			if i > 0 {
				b.WriteString(",")
			}
			writeNode(b, t, c)
		}
		b.WriteString(")")
	}
	b.WriteString(string(node.Name))
	if idx != t.Root {
		b.WriteString(":")
		b.WriteString(formatBranchLength(node.BranchLength))
	}
}

func formatBranchLength(bl float64) string {
	return strconv.FormatFloat(bl, 'g', -1, 64)
}

// String is a convenience wrapper matching fmt.Stringer, for callers that
// want to pass a *arg.Tree directly to fmt-style sinks.
type String struct{ Tree *arg.Tree }

func (s String) String() string { return Emit(s.Tree) }

var _ fmt.Stringer = String{}
