package apiscope

import (
	"strings"

	"github.com/jward/apiscope/internal/resolve"
	apirt "github.com/jward/apiscope/internal/runtime"
	"github.com/jward/apiscope/internal/syntax"
)

// extractFacts flattens a parsed file into the declarations, imports and
// routes shared by rule scripts and the persisted index.
func extractFacts(path string, root syntax.Node) *apirt.FileFacts {
	facts := &apirt.FileFacts{Path: path}
	idx := syntax.IndexOf(root,
		syntax.KindSyntaxLang,
		syntax.KindImportValue,
		syntax.KindStructNameID,
		syntax.KindHandlerValue,
		syntax.KindHTTPRoute,
		syntax.KindServiceRoute,
	)

	if langs := idx[syntax.KindSyntaxLang]; len(langs) > 0 {
		facts.Syntax = unquote(langs[0].ChildOfKind(syntax.KindString).Text())
	}
	for _, n := range idx[syntax.KindImportValue] {
		if lit := n.LastChild(); lit.Valid() {
			facts.Imports = append(facts.Imports, strings.ReplaceAll(lit.Text(), `"`, ""))
		}
	}
	for _, kind := range resolve.DeclarationKinds {
		for _, n := range idx[kind] {
			name := n.Key()
			if name == "" {
				continue
			}
			pos := n.Pos()
			facts.Declarations = append(facts.Declarations, apirt.Declaration{
				Name: name,
				Kind: kind.String(),
				Line: pos.Line,
				Col:  pos.Col,
			})
		}
	}
	for _, n := range idx[syntax.KindServiceRoute] {
		if r, ok := routeFacts(n); ok {
			facts.Routes = append(facts.Routes, r)
		}
	}
	return facts
}

func routeFacts(route syntax.Node) (apirt.Route, bool) {
	http := route.ChildOfKind(syntax.KindHTTPRoute)
	if !http.Valid() {
		return apirt.Route{}, false
	}
	pos := http.Pos()
	r := apirt.Route{
		Method: strings.ToLower(strings.TrimSpace(http.ChildOfKind(syntax.KindRouteMethod).Text())),
		Path:   strings.TrimSpace(http.ChildOfKind(syntax.KindRoutePath).Text()),
		Line:   pos.Line,
		Col:    pos.Col,
	}
	if svc := route.Ancestor(syntax.KindServiceStatement); svc.Valid() {
		r.Service = svc.ChildOfKind(syntax.KindServiceName).Key()
	}
	if h := route.ChildOfKind(syntax.KindAtHandler); h.Valid() {
		r.Handler = h.ChildOfKind(syntax.KindHandlerValue).Key()
	}
	if doc := route.ChildOfKind(syntax.KindAtDoc); doc.Valid() {
		r.Doc = docText(doc)
	}
	if req := http.ChildOfKind(syntax.KindRouteRequest); req.Valid() {
		r.Request = strings.TrimSpace(req.ChildOfKind(syntax.KindDataType).Text())
	}
	if resp := http.ChildOfKind(syntax.KindRouteResponse); resp.Valid() {
		r.Response = strings.TrimSpace(resp.ChildOfKind(syntax.KindDataType).Text())
	}
	return r, true
}

// docText returns the text of @doc "..." or the summary value of
// @doc(summary: ...). Other forms yield the first value.
func docText(doc syntax.Node) string {
	if s := doc.ChildOfKind(syntax.KindString); s.Valid() {
		return unquote(s.Text())
	}
	first := ""
	for _, kv := range doc.Children() {
		if kv.Kind() != syntax.KindKVPair || kv.ChildCount() == 0 {
			continue
		}
		v := unquote(strings.TrimSpace(kv.LastChild().Text()))
		if kv.Child(0).Text() == "summary" {
			return v
		}
		if first == "" {
			first = v
		}
	}
	return first
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
