package paint

import (
	"fmt"
	"strings"

	"svgtrav/pkg/geom"
)

// Snapshot is a comparable copy of a render tree's structure.
type Snapshot struct {
	Kind      Kind
	Tag       string
	ID        string
	Transform geom.Matrix
	Extents   geom.Rect
	Visible   bool
	Runs      int
	Children  []Snapshot
}

// Snap captures n and its descendants.
func Snap(n *Node) Snapshot {
	s := Snapshot{
		Kind:      n.Kind,
		Tag:       n.Tag,
		ID:        n.ID,
		Transform: n.Transform,
		Extents:   n.Extents(),
		Visible:   n.Visible,
		Runs:      len(n.Runs),
	}
	for c := n.first; c != nil; c = c.next {
		s.Children = append(s.Children, Snap(c))
	}
	return s
}

// Dump renders the tree as indented text, one node per line.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	if n.Tag != "" {
		sb.WriteString(" " + n.Tag)
	}
	if n.ID != "" {
		sb.WriteString("#" + n.ID)
	}
	fmt.Fprintf(sb, " %v", n.Extents())
	if !n.Transform.IsIdentity() {
		fmt.Fprintf(sb, " %v", n.Transform)
	}
	if !n.Visible {
		sb.WriteString(" hidden")
	}
	for _, r := range n.Runs {
		fmt.Fprintf(sb, " %q", r.Text)
	}
	sb.WriteByte('\n')
	for c := n.first; c != nil; c = c.next {
		dump(sb, c, depth+1)
	}
}
