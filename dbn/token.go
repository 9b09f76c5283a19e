package dbn

import (
	"fmt"
	"io"
	"strings"
	"text/scanner"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLF
	tokInt
	tokString
	tokIdent

	tokPaper
	tokPen
	tokLine
	tokSet
	tokRepeat
	tokSame
	tokNotSame
	tokSmaller
	tokNotSmaller
	tokCommand
	tokNumber
	tokValue
	tokLoad

	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLT
	tokGT
	tokOperator
	tokOther
)

// keywords maps both spellings of each keyword. The conditional keywords
// only count when immediately followed by '?'.
var keywords = map[string]tokenKind{
	"Paper": tokPaper, "paper": tokPaper,
	"Pen": tokPen, "pen": tokPen,
	"Line": tokLine, "line": tokLine,
	"Set": tokSet, "set": tokSet,
	"Repeat": tokRepeat, "repeat": tokRepeat,
	"Command": tokCommand, "command": tokCommand,
	"Number": tokNumber, "number": tokNumber,
	"Value": tokValue, "value": tokValue,
	"Load": tokLoad, "load": tokLoad,
}

var questionKeywords = map[string]tokenKind{
	"Same": tokSame, "same": tokSame,
	"NotSame": tokNotSame, "notsame": tokNotSame,
	"Smaller": tokSmaller, "smaller": tokSmaller,
	"NotSmaller": tokNotSmaller, "notsmaller": tokNotSmaller,
}

// Token is a lexed token. Pos is where it starts and End is just past it.
type Token struct {
	Literal string
	Pos     scanner.Position
	End     scanner.Position
	kind    tokenKind
}

// At formats the end position as a "file:line:col: " message prefix.
func (t Token) At() string {
	return positionPrefix(t.End)
}

func positionPrefix(p scanner.Position) string {
	return fmt.Sprintf("%s:%d:%d: ", p.Filename, p.Line, p.Column)
}

// lex scans src into tokens. Newlines are significant and come back as
// tokLF. Go-style comments are skipped.
func lex(src io.Reader, filename string) ([]Token, []string) {
	var (
		s      scanner.Scanner
		errs   []string
		tokens []Token
	)
	s.Init(src)
	s.Filename = filename
	s.Whitespace ^= 1 << '\n'
	s.Error = func(s *scanner.Scanner, msg string) {
		errs = append(errs, positionPrefix(s.Pos())+msg)
	}

	for {
		r := s.Scan()
		tok := Token{Literal: s.TokenText(), Pos: s.Position}
		switch r {
		case scanner.EOF:
			tok.kind = tokEOF
		case scanner.Int:
			tok.kind = tokInt
		case scanner.String, scanner.RawString:
			tok.kind = tokString
			tok.Literal = strings.Trim(tok.Literal, "\"`")
		case scanner.Ident:
			tok.kind = tokIdent
			if k, ok := keywords[tok.Literal]; ok {
				tok.kind = k
			} else if k, ok := questionKeywords[tok.Literal]; ok && s.Peek() == '?' {
				s.Next()
				tok.kind = k
			}
		case '\n':
			tok.kind = tokLF
		case '{':
			tok.kind = tokLBrace
		case '}':
			tok.kind = tokRBrace
		case '(':
			tok.kind = tokLParen
		case ')':
			tok.kind = tokRParen
		case '[':
			tok.kind = tokLBracket
		case ']':
			tok.kind = tokRBracket
		case '<':
			tok.kind = tokLT
		case '>':
			tok.kind = tokGT
		case '+', '-', '*', '/':
			tok.kind = tokOperator
		default:
			tok.kind = tokOther
		}
		tok.End = s.Pos()
		tokens = append(tokens, tok)
		if r == scanner.EOF {
			return tokens, errs
		}
	}
}
