package resolve

import "github.com/jward/apiscope/internal/syntax"

// StructMap maps each declared type name under root to its structNameId
// nodes: named structs, aliases and group aliases alike.
func StructMap(root syntax.Node) map[string][]syntax.Node {
	idx := syntax.IndexOf(root, syntax.KindStructType, syntax.KindTypeAlias, syntax.KindTypeGroupAlias)
	var decls []syntax.Node
	for _, k := range idx.Kinds() {
		decls = append(decls, idx[k]...)
	}

	out := make(map[string][]syntax.Node)
	seen := make(map[syntax.Node]bool)
	for _, d := range decls {
		name := d.ChildOfKind(syntax.KindStructNameID)
		if !name.Valid() || seen[name] {
			continue
		}
		seen[name] = true
		out[name.Key()] = append(out[name.Key()], name)
	}
	return out
}

// Declared reports whether idx holds a node of kind whose key is name.
func Declared(idx syntax.Index, kind syntax.Kind, name string) bool {
	for _, n := range idx[kind] {
		if n.Key() == name {
			return true
		}
	}
	return false
}
