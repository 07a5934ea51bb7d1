package parser

import (
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tString
	tRaw
	tPunct
)

func (k tokKind) String() string {
	switch k {
	case tEOF:
		return "EOF"
	case tIdent:
		return "identifier"
	case tString:
		return "string"
	case tRaw:
		return "raw string"
	case tPunct:
		return "punctuation"
	}
	return "token"
}

type token struct {
	kind  tokKind
	start int
	end   int
	nl    bool // preceded by a newline (or first token of the file)
}

// scanner splits .api source into tokens. Comments and whitespace are
// skipped; route paths and key/value values are scanned on demand because
// their lexical shape depends on the parser's position.
type scanner struct {
	src []byte
	off int
	err func(off int, msg string)
}

func (s *scanner) peekByte() byte {
	if s.off < len(s.src) {
		return s.src[s.off]
	}
	return 0
}

// skip consumes whitespace and comments, reporting whether a newline was seen.
func (s *scanner) skip() bool {
	nl := false
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == '\n':
			nl = true
			s.off++
		case c == ' ' || c == '\t' || c == '\r':
			s.off++
		case c == '/' && s.off+1 < len(s.src) && s.src[s.off+1] == '/':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.off++
			}
		case c == '/' && s.off+1 < len(s.src) && s.src[s.off+1] == '*':
			start := s.off
			s.off += 2
			for {
				if s.off+1 >= len(s.src) {
					s.err(start, "comment not terminated")
					s.off = len(s.src)
					break
				}
				if s.src[s.off] == '*' && s.src[s.off+1] == '/' {
					s.off += 2
					break
				}
				if s.src[s.off] == '\n' {
					nl = true
				}
				s.off++
			}
		default:
			return nl
		}
	}
	return nl
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (s *scanner) scan() token {
	first := s.off == 0
	nl := s.skip() || first
	start := s.off
	if s.off >= len(s.src) {
		return token{kind: tEOF, start: start, end: start, nl: true}
	}
	r, size := utf8.DecodeRune(s.src[s.off:])
	switch {
	case isIdentRune(r):
		for s.off < len(s.src) {
			r, size = utf8.DecodeRune(s.src[s.off:])
			if !isIdentRune(r) {
				break
			}
			s.off += size
		}
		return token{kind: tIdent, start: start, end: s.off, nl: nl}
	case r == '"':
		s.scanString()
		return token{kind: tString, start: start, end: s.off, nl: nl}
	case r == '`':
		s.scanRaw()
		return token{kind: tRaw, start: start, end: s.off, nl: nl}
	}
	s.off += size
	return token{kind: tPunct, start: start, end: s.off, nl: nl}
}

// scanString consumes a double-quoted literal starting at s.off.
func (s *scanner) scanString() {
	start := s.off
	s.off++
	for {
		if s.off >= len(s.src) || s.src[s.off] == '\n' {
			s.err(start, "string literal not terminated")
			return
		}
		c := s.src[s.off]
		s.off++
		if c == '\\' && s.off < len(s.src) {
			s.off++
			continue
		}
		if c == '"' {
			return
		}
	}
}

func (s *scanner) scanRaw() {
	start := s.off
	s.off++
	for {
		if s.off >= len(s.src) {
			s.err(start, "raw string literal not terminated")
			return
		}
		c := s.src[s.off]
		s.off++
		if c == '`' {
			return
		}
	}
}

func (s *scanner) skipBlanks() {
	for s.off < len(s.src) && (s.src[s.off] == ' ' || s.src[s.off] == '\t') {
		s.off++
	}
}

// scanValue scans the value of a key/value pair: a quoted literal, or the
// rest of the line up to a closing parenthesis.
func (s *scanner) scanValue() token {
	s.skipBlanks()
	start := s.off
	switch s.peekByte() {
	case '"':
		s.scanString()
		return token{kind: tString, start: start, end: s.off}
	case '`':
		s.scanRaw()
		return token{kind: tRaw, start: start, end: s.off}
	}
	for s.off < len(s.src) && s.src[s.off] != '\n' && s.src[s.off] != ')' {
		s.off++
	}
	end := s.off
	for end > start && (s.src[end-1] == ' ' || s.src[end-1] == '\t' || s.src[end-1] == '\r') {
		end--
	}
	return token{kind: tIdent, start: start, end: end}
}

// scanPath scans a route path such as /user/:id/info.
func (s *scanner) scanPath() token {
	s.skipBlanks()
	start := s.off
	for s.off < len(s.src) {
		c := s.src[s.off]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '(' {
			break
		}
		s.off++
	}
	return token{kind: tIdent, start: start, end: s.off}
}
