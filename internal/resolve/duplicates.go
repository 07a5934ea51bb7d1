package resolve

import "github.com/jward/apiscope/internal/syntax"

// DeclarationKinds are the kinds whose names must be unique within a file.
var DeclarationKinds = []syntax.Kind{
	syntax.KindHandlerValue,
	syntax.KindStructNameID,
	syntax.KindHTTPRoute,
}

// DeclarationKey identifies a potential collision: same kind, same name.
type DeclarationKey struct {
	Kind syntax.Kind
	Name string
}

// DuplicateGroup is every node sharing one DeclarationKey, in source order.
type DuplicateGroup struct {
	Key   DeclarationKey
	Nodes []syntax.Node
}

// DeclarationIndex indexes the declaration kinds under root.
func DeclarationIndex(root syntax.Node) syntax.Index {
	return syntax.IndexOf(root, DeclarationKinds...)
}

// FindDuplicates groups the nodes of idx by DeclarationKey and reports the
// groups with more than one distinct node, first occurrence included. Kinds
// without a collision are absent. Nodes with an empty key, such as anonymous
// structs, never collide.
func FindDuplicates(idx syntax.Index) map[syntax.Kind][]DuplicateGroup {
	var order []DeclarationKey
	groups := make(map[DeclarationKey][]syntax.Node)
	seen := make(map[syntax.Node]bool)
	for _, kind := range idx.Kinds() {
		for _, n := range idx[kind] {
			name := n.Key()
			if name == "" || seen[n] {
				continue
			}
			seen[n] = true
			key := DeclarationKey{Kind: kind, Name: name}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], n)
		}
	}

	out := make(map[syntax.Kind][]DuplicateGroup)
	for _, key := range order {
		nodes := groups[key]
		if len(nodes) < 2 {
			continue
		}
		out[key.Kind] = append(out[key.Kind], DuplicateGroup{Key: key, Nodes: nodes})
	}
	return out
}
