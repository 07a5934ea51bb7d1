package syntax

// Builder assembles a Tree top-down. Rules are opened and closed in nesting
// order; tokens are attached to the innermost open rule.
type Builder struct {
	t     *Tree
	stack []int32
}

// NewBuilder starts a tree for the given file.
func NewBuilder(path string, src []byte) *Builder {
	lines := []int{0}
	for i, c := range src {
		if c == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Builder{t: &Tree{path: path, src: src, lines: lines}}
}

func (b *Builder) add(kind Kind, start, end int) int32 {
	id := int32(len(b.t.nodes))
	parent := int32(-1)
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
		b.t.nodes[parent].children = append(b.t.nodes[parent].children, id)
	}
	b.t.nodes = append(b.t.nodes, nodeData{kind: kind, start: start, end: end, parent: parent})
	return id
}

// Open starts a rule node at byte offset start and makes it the current parent.
func (b *Builder) Open(kind Kind, start int) {
	b.stack = append(b.stack, b.add(kind, start, start))
}

// Close ends the innermost open rule at byte offset end.
func (b *Builder) Close(end int) {
	id := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	d := &b.t.nodes[id]
	if end < d.start {
		end = d.start
	}
	d.end = end
}

// Token attaches a leaf covering src[start:end] to the innermost open rule.
func (b *Builder) Token(kind Kind, start, end int) {
	b.add(kind, start, end)
}

// Depth returns the number of open rules.
func (b *Builder) Depth() int { return len(b.stack) }

// Finish closes any rules left open and returns the tree.
func (b *Builder) Finish() *Tree {
	for len(b.stack) > 0 {
		b.Close(len(b.t.src))
	}
	return b.t
}
