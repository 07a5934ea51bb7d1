package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// Tree owns every node parsed from one source file. Nodes live in a flat
// arena and refer to each other by index; a Node value is only a handle.
type Tree struct {
	path  string
	src   []byte
	nodes []nodeData
	lines []int // byte offset of the start of each line
}

type nodeData struct {
	kind     Kind
	start    int
	end      int
	parent   int32 // -1 for the root
	children []int32
}

// Node is a handle to one node of a Tree. The zero Node is invalid. Node
// values are comparable: two handles are equal iff they denote the same node
// of the same tree.
type Node struct {
	t *Tree
	i int32
}

// Position is a 1-based line and column (in bytes).
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Path returns the file path the tree was parsed from.
func (t *Tree) Path() string { return t.path }

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, or the zero Node for an empty tree.
func (t *Tree) Root() Node {
	if t == nil || len(t.nodes) == 0 {
		return Node{}
	}
	return Node{t: t, i: 0}
}

// Position converts a byte offset to a line and column.
func (t *Tree) Position(off int) Position {
	line := sort.Search(len(t.lines), func(i int) bool { return t.lines[i] > off }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Col: off - t.lines[line] + 1}
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool { return n.t != nil }

// Tree returns the tree that owns n.
func (n Node) Tree() *Tree { return n.t }

func (n Node) data() *nodeData { return &n.t.nodes[n.i] }

// Kind returns the grammar kind of n, or KindInvalid for the zero Node.
func (n Node) Kind() Kind {
	if n.t == nil {
		return KindInvalid
	}
	return n.data().kind
}

// Text returns the source text covered by n.
func (n Node) Text() string {
	if n.t == nil {
		return ""
	}
	d := n.data()
	return string(n.t.src[d.start:d.end])
}

// Offset returns the byte offsets [start, end) covered by n.
func (n Node) Offset() (start, end int) {
	d := n.data()
	return d.start, d.end
}

// Pos returns the start position of n.
func (n Node) Pos() Position {
	if n.t == nil {
		return Position{}
	}
	return n.t.Position(n.data().start)
}

// Parent returns the parent of n, or the zero Node for the root.
func (n Node) Parent() Node {
	if n.t == nil {
		return Node{}
	}
	p := n.data().parent
	if p < 0 {
		return Node{}
	}
	return Node{t: n.t, i: p}
}

// ChildCount returns the number of children of n.
func (n Node) ChildCount() int {
	if n.t == nil {
		return 0
	}
	return len(n.data().children)
}

// Child returns the i-th child of n.
func (n Node) Child(i int) Node {
	return Node{t: n.t, i: n.data().children[i]}
}

// Children returns the children of n in source order.
func (n Node) Children() []Node {
	if n.t == nil {
		return nil
	}
	ids := n.data().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{t: n.t, i: id}
	}
	return out
}

// LastChild returns the last child of n, or the zero Node if n is a leaf.
func (n Node) LastChild() Node {
	if n.ChildCount() == 0 {
		return Node{}
	}
	ids := n.data().children
	return Node{t: n.t, i: ids[len(ids)-1]}
}

// ChildOfKind returns the first direct child of kind k.
func (n Node) ChildOfKind(k Kind) Node {
	if n.t == nil {
		return Node{}
	}
	for _, id := range n.data().children {
		if n.t.nodes[id].kind == k {
			return Node{t: n.t, i: id}
		}
	}
	return Node{}
}

// Ancestor returns the nearest ancestor of n (n included) of kind k.
func (n Node) Ancestor(k Kind) Node {
	for cur := n; cur.Valid(); cur = cur.Parent() {
		if cur.Kind() == k {
			return cur
		}
	}
	return Node{}
}

// EnclosingRoot returns the api root that contains n.
func (n Node) EnclosingRoot() Node {
	return n.Ancestor(KindAPI)
}

// Key returns the semantic name n declares: the declared name for names and
// handlers, "METHOD path" for routes. Nodes that declare nothing (anonymous
// structs, punctuation) have an empty key.
func (n Node) Key() string {
	switch n.Kind() {
	case KindStructNameID, KindHandlerValue, KindReferenceID, KindServiceName:
		return strings.TrimSpace(n.Text())
	case KindHTTPRoute:
		method := n.ChildOfKind(KindRouteMethod)
		path := n.ChildOfKind(KindRoutePath)
		if !method.Valid() || !path.Valid() {
			return ""
		}
		return strings.ToUpper(method.Text()) + " " + path.Text()
	}
	return ""
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited.
func (n Node) Walk(fn func(Node) bool) {
	if n.t == nil {
		return
	}
	stack := []int32{n.i}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(Node{t: n.t, i: id}) {
			continue
		}
		children := n.t.nodes[id].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

func (n Node) String() string {
	if n.t == nil {
		return "<invalid>"
	}
	return fmt.Sprintf("%s@%s:%s", n.Kind(), n.t.path, n.Pos())
}

// Dump renders the subtree rooted at n as an indented outline, one node per
// line, with token text quoted. Used in tests and by the CLI's debug output.
func (n Node) Dump() string {
	var b strings.Builder
	var rec func(Node, int)
	rec = func(cur Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(cur.Kind().String())
		if cur.Kind().IsToken() {
			fmt.Fprintf(&b, " %q", cur.Text())
		}
		b.WriteByte('\n')
		for _, c := range cur.Children() {
			rec(c, depth+1)
		}
	}
	if n.Valid() {
		rec(n, 0)
	}
	return b.String()
}
