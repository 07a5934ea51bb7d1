package syntax

// Index maps a grammar kind to the nodes of that kind in pre-order.
type Index map[Kind][]Node

// IndexOf traverses the subtree rooted at root and collects every node whose
// kind is one of kinds. Requesting no kinds yields an empty Index. root must
// be a valid node.
func IndexOf(root Node, kinds ...Kind) Index {
	if !root.Valid() {
		panic("syntax: IndexOf on invalid node")
	}
	idx := make(Index)
	if len(kinds) == 0 {
		return idx
	}
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	root.Walk(func(n Node) bool {
		if k := n.Kind(); want[k] {
			idx[k] = append(idx[k], n)
		}
		return true
	})
	return idx
}

// Kinds returns the kinds present in idx in ascending order.
func (idx Index) Kinds() []Kind {
	var out []Kind
	for k := KindInvalid; k < kindCount; k++ {
		if _, ok := idx[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Path is a chain of kinds from a scope node down to a target node, e.g.
// api/apiBody/typeStatement/... Each element must match one level of nesting.
type Path []Kind

func (p Path) String() string {
	s := ""
	for _, k := range p {
		s += "/" + k.String()
	}
	return s
}

// Join returns base followed by p.
func (p Path) Join(base Path) Path {
	out := make(Path, 0, len(base)+len(p))
	out = append(out, base...)
	return append(out, p...)
}

// FindAll returns the nodes reached by following p from scope. The first
// element of p must match scope itself; each following element selects the
// children of that kind. Results are in pre-order.
func FindAll(scope Node, p Path) []Node {
	if !scope.Valid() || len(p) == 0 || scope.Kind() != p[0] {
		return nil
	}
	cur := []Node{scope}
	for _, k := range p[1:] {
		var next []Node
		for _, n := range cur {
			for _, c := range n.Children() {
				if c.Kind() == k {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		cur = next
	}
	return cur
}
