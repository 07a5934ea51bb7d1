// Package parser turns .api source text into a syntax.Tree.
//
// The grammar is goctl's v1 API language: a syntax declaration, an info
// block, imports, type declarations (single or grouped, structs or aliases)
// and service blocks holding annotated HTTP routes. The parser is tolerant:
// it records errors, resynchronises at the next top-level keyword and always
// returns a tree.
package parser

import (
	"fmt"

	"github.com/jward/apiscope/internal/syntax"
)

type parser struct {
	path string
	src  []byte
	s    scanner
	b    *syntax.Builder

	tok     token
	peeked  *token
	prevEnd int

	errs []errAt
}

type errAt struct {
	off int
	msg string
}

// Parse parses one .api file. The returned tree is never nil; the error, if
// any, is an ErrorList.
func Parse(path string, src []byte) (*syntax.Tree, error) {
	p := &parser{path: path, src: src, b: syntax.NewBuilder(path, src)}
	p.s = scanner{src: src, err: p.errorAt}
	p.next()
	p.parseAPI()
	tree := p.b.Finish()

	var list ErrorList
	for _, e := range p.errs {
		list = append(list, &Error{Path: path, Pos: tree.Position(e.off), Msg: e.msg})
	}
	list.Sort()
	return tree, list.Err()
}

func (p *parser) errorAt(off int, msg string) {
	p.errs = append(p.errs, errAt{off: off, msg: msg})
}

func (p *parser) errorf(format string, args ...any) {
	p.errorAt(p.tok.start, fmt.Sprintf(format, args...))
}

func (p *parser) next() {
	p.prevEnd = p.tok.end
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
		return
	}
	p.tok = p.s.scan()
}

func (p *parser) peek() token {
	if p.peeked == nil {
		t := p.s.scan()
		p.peeked = &t
	}
	return *p.peeked
}

// rewind drops a pending lookahead token so that the scanner sits directly
// behind the current token again.
func (p *parser) rewind() {
	if p.peeked != nil {
		p.s.off = p.tok.end
		p.peeked = nil
	}
}

func (p *parser) lit() string {
	return string(p.src[p.tok.start:p.tok.end])
}

func (p *parser) isPunct(c string) bool {
	return p.tok.kind == tPunct && p.lit() == c
}

func (p *parser) isIdent(word string) bool {
	return p.tok.kind == tIdent && p.lit() == word
}

func (p *parser) describe() string {
	if p.tok.kind == tEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", p.tok.kind, p.lit())
}

// emit attaches the current token as a leaf of the given kind and advances.
func (p *parser) emit(kind syntax.Kind) {
	p.b.Token(kind, p.tok.start, p.tok.end)
	p.next()
}

func (p *parser) open(kind syntax.Kind) {
	p.b.Open(kind, p.tok.start)
}

func (p *parser) close() {
	p.b.Close(p.prevEnd)
}

func (p *parser) expectPunct(c string) bool {
	if !p.isPunct(c) {
		p.errorf("expected %q, found %s", c, p.describe())
		return false
	}
	p.emit(syntax.KindPunct)
	return true
}

func (p *parser) expectKeyword(word string) bool {
	if !p.isIdent(word) {
		p.errorf("expected %q, found %s", word, p.describe())
		return false
	}
	p.emit(syntax.KindKeyword)
	return true
}

// atTopLevel reports whether the current token can start a top-level
// statement.
func (p *parser) atTopLevel() bool {
	if p.tok.kind == tPunct && p.lit() == "@" {
		return true
	}
	if p.tok.kind != tIdent {
		return false
	}
	switch p.lit() {
	case "syntax", "info", "import", "type", "service":
		return true
	}
	return false
}

// sync skips tokens until one that starts a line and a top-level statement.
func (p *parser) sync() {
	for p.tok.kind != tEOF {
		p.next()
		if p.tok.nl && p.atTopLevel() {
			return
		}
	}
}

func (p *parser) parseAPI() {
	p.b.Open(syntax.KindAPI, 0)
	for p.tok.kind != tEOF {
		start := p.tok.start
		switch {
		case p.isIdent("syntax"):
			p.parseSyntax()
		case p.isIdent("info"):
			p.parseInfo()
		case p.isIdent("import"):
			p.parseImport()
		case p.isIdent("type"):
			p.open(syntax.KindAPIBody)
			p.parseTypeStatement()
			p.close()
		case p.isIdent("service") || p.isPunct("@"):
			p.open(syntax.KindAPIBody)
			p.parseService()
			p.close()
		default:
			p.errorf("unexpected %s", p.describe())
			p.sync()
		}
		if p.tok.start == start && p.tok.kind != tEOF {
			p.sync()
		}
	}
	p.b.Close(len(p.src))
}

func (p *parser) parseSyntax() {
	p.open(syntax.KindSyntaxLang)
	p.emit(syntax.KindKeyword)
	if p.expectPunct("=") {
		if p.tok.kind == tString {
			p.emit(syntax.KindString)
		} else {
			p.errorf("expected syntax version string, found %s", p.describe())
		}
	}
	p.close()
}

func (p *parser) parseInfo() {
	p.open(syntax.KindInfoStatement)
	p.emit(syntax.KindKeyword)
	if p.expectPunct("(") {
		p.parseKVs()
		p.expectPunct(")")
	}
	p.close()
}

// parseKVs parses "key: value" lines up to a closing parenthesis.
func (p *parser) parseKVs() {
	for p.tok.kind != tEOF && !p.isPunct(")") {
		if p.tok.kind != tIdent {
			p.errorf("expected key, found %s", p.describe())
			p.next()
			continue
		}
		p.open(syntax.KindKVPair)
		p.emit(syntax.KindIdent)
		if !p.isPunct(":") {
			p.errorf("expected \":\", found %s", p.describe())
			p.close()
			continue
		}
		// The value is scanned straight from the source, so the colon is
		// attached without reading ahead.
		p.rewind()
		p.b.Token(syntax.KindPunct, p.tok.start, p.tok.end)
		v := p.s.scanValue()
		kind := syntax.KindText
		switch v.kind {
		case tString:
			kind = syntax.KindString
		case tRaw:
			kind = syntax.KindRawString
		}
		p.b.Token(kind, v.start, v.end)
		p.tok = v
		p.next()
		p.close()
	}
}

func (p *parser) parseImport() {
	p.open(syntax.KindImportStatement)
	p.emit(syntax.KindKeyword)
	if p.isPunct("(") {
		p.open(syntax.KindImportSpec)
		p.emit(syntax.KindPunct)
		for p.tok.kind != tEOF && !p.isPunct(")") {
			if p.tok.kind != tString {
				p.errorf("expected import path, found %s", p.describe())
				p.next()
				continue
			}
			p.parseImportValue()
		}
		p.expectPunct(")")
		p.close()
	} else if p.tok.kind == tString {
		p.parseImportValue()
	} else {
		p.errorf("expected import path, found %s", p.describe())
	}
	p.close()
}

func (p *parser) parseImportValue() {
	p.open(syntax.KindImportValue)
	p.emit(syntax.KindString)
	p.close()
}

func (p *parser) parseTypeStatement() {
	p.open(syntax.KindTypeStatement)
	p.emit(syntax.KindKeyword)
	if p.isPunct("(") {
		p.parseTypeGroup()
	} else {
		p.parseTypeSingle()
	}
	p.close()
}

// startsStruct reports whether the token after a declared name opens a
// struct body.
func (p *parser) startsStruct() bool {
	next := p.peek()
	text := string(p.src[next.start:next.end])
	return (next.kind == tIdent && text == "struct") || (next.kind == tPunct && text == "{")
}

func (p *parser) parseStructName() {
	p.open(syntax.KindStructNameID)
	p.emit(syntax.KindIdent)
	p.close()
}

func (p *parser) parseTypeSingle() {
	p.open(syntax.KindTypeSingleSpec)
	if p.tok.kind != tIdent {
		p.errorf("expected type name, found %s", p.describe())
		p.close()
		return
	}
	if p.startsStruct() {
		p.open(syntax.KindTypeStruct)
		p.open(syntax.KindStructType)
		p.parseStructName()
		p.parseStructBody()
		p.close()
		p.close()
	} else {
		p.open(syntax.KindTypeAlias)
		p.parseStructName()
		p.parseAliasTarget()
		p.close()
	}
	p.close()
}

func (p *parser) parseAliasTarget() {
	if p.isPunct("=") {
		p.emit(syntax.KindPunct)
	}
	p.parseDataType()
}

func (p *parser) parseTypeGroup() {
	p.open(syntax.KindTypeGroupSpec)
	p.emit(syntax.KindPunct)
	p.open(syntax.KindTypeGroupBody)
	for p.tok.kind != tEOF && !p.isPunct(")") {
		if p.tok.kind != tIdent {
			p.errorf("expected type name, found %s", p.describe())
			p.next()
			continue
		}
		if p.startsStruct() {
			p.open(syntax.KindStructType)
			p.parseStructName()
			p.parseStructBody()
			p.close()
		} else {
			p.open(syntax.KindTypeGroupAlias)
			p.parseStructName()
			p.parseAliasTarget()
			p.close()
		}
	}
	p.close()
	p.expectPunct(")")
	p.close()
}

func (p *parser) parseStructBody() {
	if p.isIdent("struct") {
		p.emit(syntax.KindKeyword)
	}
	if !p.expectPunct("{") {
		return
	}
	for p.tok.kind != tEOF && !p.isPunct("}") {
		start := p.tok.start
		p.parseField()
		if p.tok.start == start {
			p.errorf("unexpected %s in struct", p.describe())
			p.next()
		}
	}
	p.expectPunct("}")
}

func (p *parser) parseField() {
	p.open(syntax.KindField)
	named := false
	if p.tok.kind == tIdent && !p.isIdent("struct") && !p.isIdent("map") {
		next := p.peek()
		nextText := string(p.src[next.start:next.end])
		named = !next.nl && next.kind != tRaw && next.kind != tEOF &&
			!(next.kind == tPunct && (nextText == "}" || nextText == "."))
	}
	if named {
		p.emit(syntax.KindIdent)
	}
	p.parseDataType()
	if p.tok.kind == tRaw && !p.tok.nl {
		p.open(syntax.KindTag)
		p.emit(syntax.KindRawString)
		p.close()
	}
	p.close()
}

func (p *parser) parseDataType() {
	p.open(syntax.KindDataType)
	defer p.close()
	switch {
	case p.isPunct("*"):
		p.emit(syntax.KindPunct)
		p.parseDataType()
	case p.isPunct("["):
		p.emit(syntax.KindPunct)
		if p.tok.kind == tIdent {
			p.emit(syntax.KindText)
		}
		if p.expectPunct("]") {
			p.parseDataType()
		}
	case p.isIdent("map"):
		p.emit(syntax.KindKeyword)
		if p.expectPunct("[") {
			p.parseDataType()
			if p.expectPunct("]") {
				p.parseDataType()
			}
		}
	case p.isIdent("struct") || p.isPunct("{"):
		p.open(syntax.KindAnonymousStruct)
		p.parseStructBody()
		p.close()
	case p.isIdent("interface"):
		p.emit(syntax.KindKeyword)
		if p.expectPunct("{") {
			p.expectPunct("}")
		}
	case p.tok.kind == tIdent:
		next := p.peek()
		if next.kind == tPunct && string(p.src[next.start:next.end]) == "." && !next.nl {
			// Qualified names such as time.Time are external, never declared
			// in a schema file.
			p.emit(syntax.KindIdent)
			p.emit(syntax.KindPunct)
			if p.tok.kind == tIdent {
				p.emit(syntax.KindIdent)
			} else {
				p.errorf("expected type name after \".\", found %s", p.describe())
			}
			return
		}
		if IsBuiltinType(p.lit()) {
			p.emit(syntax.KindIdent)
			return
		}
		p.open(syntax.KindReferenceID)
		p.emit(syntax.KindIdent)
		p.close()
	default:
		p.errorf("expected type, found %s", p.describe())
	}
}

func (p *parser) parseService() {
	p.open(syntax.KindServiceStatement)
	if p.isPunct("@") {
		p.open(syntax.KindServerMeta)
		p.emit(syntax.KindPunct)
		if p.expectKeyword("server") && p.expectPunct("(") {
			p.parseKVs()
			p.expectPunct(")")
		}
		p.close()
	}
	if !p.expectKeyword("service") {
		p.close()
		p.sync()
		return
	}
	p.parseServiceName()
	if p.expectPunct("{") {
		p.open(syntax.KindServiceBody)
		for p.tok.kind != tEOF && !p.isPunct("}") {
			start := p.tok.start
			p.parseRoute()
			if p.tok.start == start {
				p.errorf("unexpected %s in service", p.describe())
				p.next()
			}
		}
		p.close()
		p.expectPunct("}")
	}
	p.close()
}

func (p *parser) parseServiceName() {
	if p.tok.kind != tIdent {
		p.errorf("expected service name, found %s", p.describe())
		return
	}
	p.open(syntax.KindServiceName)
	p.emit(syntax.KindIdent)
	for p.isPunct("-") && !p.tok.nl {
		p.emit(syntax.KindPunct)
		if p.tok.kind != tIdent {
			p.errorf("expected service name, found %s", p.describe())
			break
		}
		p.emit(syntax.KindIdent)
	}
	p.close()
}

func (p *parser) parseRoute() {
	p.open(syntax.KindServiceRoute)
	defer p.close()
	for p.isPunct("@") {
		next := p.peek()
		switch string(p.src[next.start:next.end]) {
		case "doc":
			p.open(syntax.KindAtDoc)
			p.emit(syntax.KindPunct)
			p.emit(syntax.KindKeyword)
			switch {
			case p.isPunct("("):
				p.emit(syntax.KindPunct)
				p.parseKVs()
				p.expectPunct(")")
			case p.tok.kind == tString:
				p.emit(syntax.KindString)
			default:
				p.errorf("expected doc string, found %s", p.describe())
			}
			p.close()
		case "handler":
			p.open(syntax.KindAtHandler)
			p.emit(syntax.KindPunct)
			p.emit(syntax.KindKeyword)
			if p.tok.kind == tIdent {
				p.open(syntax.KindHandlerValue)
				p.emit(syntax.KindIdent)
				p.close()
			} else {
				p.errorf("expected handler name, found %s", p.describe())
			}
			p.close()
		default:
			p.errorf("unknown annotation @%s", string(p.src[next.start:next.end]))
			p.next()
			p.next()
		}
	}
	if p.tok.kind != tIdent {
		p.errorf("expected route method, found %s", p.describe())
		return
	}
	p.parseHTTPRoute()
}

func (p *parser) parseHTTPRoute() {
	p.open(syntax.KindHTTPRoute)
	defer p.close()

	p.rewind()
	p.open(syntax.KindRouteMethod)
	p.b.Token(syntax.KindIdent, p.tok.start, p.tok.end)
	p.b.Close(p.tok.end)

	// The path is scanned straight from the source; the method is the
	// current token, so the scanner sits right behind it.
	path := p.s.scanPath()
	if path.start == path.end {
		p.errorAt(path.start, "expected route path")
	} else {
		p.b.Open(syntax.KindRoutePath, path.start)
		p.b.Token(syntax.KindText, path.start, path.end)
		p.b.Close(path.end)
	}
	p.tok = path
	p.next()

	if p.isPunct("(") {
		p.open(syntax.KindRouteRequest)
		p.emit(syntax.KindPunct)
		p.parseDataType()
		p.expectPunct(")")
		p.close()
	}
	if p.isIdent("returns") {
		p.open(syntax.KindRouteResponse)
		p.emit(syntax.KindKeyword)
		if p.expectPunct("(") {
			p.parseDataType()
			p.expectPunct(")")
		}
		p.close()
	}
}
