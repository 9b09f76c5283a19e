package dbn

import (
	"io"
	"strconv"
	"strings"
)

// ErrorList collects "file:line:col: message" diagnostics.
type ErrorList []string

func (l ErrorList) Error() string {
	return strings.Join(l, "\n")
}

// Parse reads a DBN program. It stops at the first syntax error.
func Parse(src io.Reader, filename string) ([]Statement, error) {
	toks, errs := lex(src, filename)
	if len(errs) > 0 {
		return nil, ErrorList(errs)
	}
	p := &parser{toks: toks}
	stmts := p.statements(tokEOF)
	if p.err != "" {
		return nil, ErrorList{p.err}
	}
	return stmts, nil
}

type parser struct {
	toks []Token
	pos  int
	err  string
}

func (p *parser) cur() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) failed() bool {
	return p.err != ""
}

// fail records a syntax error at the current token. Only the first error
// is kept.
func (p *parser) fail() {
	if p.err != "" {
		return
	}
	t := p.cur()
	pos := t.Pos
	if !pos.IsValid() {
		pos = t.End
	}
	p.err = positionPrefix(pos) + "syntax error"
}

func (p *parser) expect(k tokenKind) (Token, bool) {
	if p.cur().kind != k {
		p.fail()
		return Token{}, false
	}
	return p.next(), true
}

func (p *parser) skipLines() {
	for p.cur().kind == tokLF {
		p.next()
	}
}

// statements parses newline-separated statements until end, which is left
// unconsumed.
func (p *parser) statements(end tokenKind) []Statement {
	var out []Statement
	for {
		p.skipLines()
		if p.failed() {
			return nil
		}
		switch p.cur().kind {
		case end:
			return out
		case tokEOF:
			p.fail()
			return nil
		}

		s := p.statement()
		if p.failed() {
			return nil
		}
		out = append(out, s)

		switch p.cur().kind {
		case tokLF, end:
		default:
			p.fail()
			return nil
		}
	}
}

func (p *parser) block() *BlockStatement {
	p.skipLines()
	if _, ok := p.expect(tokLBrace); !ok {
		return nil
	}
	stmts := p.statements(tokRBrace)
	if _, ok := p.expect(tokRBrace); !ok {
		return nil
	}
	return &BlockStatement{Statements: stmts}
}

func (p *parser) statement() Statement {
	switch p.cur().kind {
	case tokPaper:
		p.next()
		return &PaperStatement{Value: p.expression()}
	case tokPen:
		p.next()
		return &PenStatement{Value: p.expression()}
	case tokLine:
		p.next()
		return &LineStatement{X1: p.expression(), Y1: p.expression(), X2: p.expression(), Y2: p.expression()}
	case tokSet:
		p.next()
		return p.set()
	case tokRepeat:
		p.next()
		name, _ := p.expect(tokIdent)
		s := &RepeatStatement{Name: name, From: p.expression(), To: p.expression()}
		s.Body = p.block()
		return s
	case tokSame, tokNotSame, tokSmaller, tokNotSmaller:
		kw := p.next()
		s := &ConditionStatement{Keyword: kw, Left: p.expression(), Right: p.expression()}
		s.Body = p.block()
		return s
	case tokCommand:
		p.next()
		name, params, body := p.definition()
		return &DefineCommandStatement{Name: name, Parameters: params, Body: body}
	case tokNumber:
		p.next()
		name, params, body := p.definition()
		return &DefineNumberStatement{Name: name, Parameters: params, Body: body}
	case tokValue:
		p.next()
		return &ValueStatement{Result: p.expression()}
	case tokLoad:
		p.next()
		path, _ := p.expect(tokString)
		return &LoadStatement{Path: path}
	case tokIdent:
		name := p.next()
		return &CallCommandStatement{Token: name, Arguments: p.arguments()}
	default:
		p.fail()
		return nil
	}
}

func (p *parser) set() Statement {
	if p.cur().kind == tokLBracket {
		p.next()
		x, y := p.expression(), p.expression()
		p.expect(tokRBracket)
		return &DotStatement{X: x, Y: y, Value: p.expression()}
	}

	name, ok := p.expect(tokIdent)
	if !ok {
		return nil
	}
	if p.cur().kind == tokLBracket {
		p.next()
		x, y := p.expression(), p.expression()
		p.expect(tokRBracket)
		return &CopyStatement{Name: name, X: x, Y: y}
	}
	return &SetStatement{Name: name, Value: p.expression()}
}

func (p *parser) definition() (Token, []Token, *BlockStatement) {
	name, _ := p.expect(tokIdent)
	var params []Token
	for !p.failed() && p.cur().kind == tokIdent {
		params = append(params, p.next())
	}
	return name, params, p.block()
}

func startsExpression(k tokenKind) bool {
	switch k {
	case tokInt, tokIdent, tokLParen, tokLT:
		return true
	}
	return false
}

func (p *parser) arguments() []Expression {
	var args []Expression
	for !p.failed() && startsExpression(p.cur().kind) {
		args = append(args, p.expression())
	}
	return args
}

func (p *parser) expression() Expression {
	if p.failed() {
		return nil
	}
	switch p.cur().kind {
	case tokInt:
		t := p.next()
		n, err := strconv.Atoi(t.Literal)
		if err != nil {
			p.pos--
			p.fail()
			return nil
		}
		return &IntegerExpression{Token: t, Value: n}
	case tokIdent:
		return &IdentifierExpression{Token: p.next()}
	case tokLParen:
		p.next()
		e := p.sum()
		p.expect(tokRParen)
		return e
	case tokLT:
		p.next()
		name, _ := p.expect(tokIdent)
		args := p.arguments()
		p.expect(tokGT)
		return &CallNumberExpression{Token: name, Arguments: args}
	default:
		p.fail()
		return nil
	}
}

func (p *parser) sum() Expression {
	left := p.product()
	for !p.failed() && isOperator(p.cur(), "+", "-") {
		op := p.next()
		left = &CalculateExpression{Left: left, Operator: op, Right: p.product()}
	}
	return left
}

func (p *parser) product() Expression {
	left := p.expression()
	for !p.failed() && isOperator(p.cur(), "*", "/") {
		op := p.next()
		left = &CalculateExpression{Left: left, Operator: op, Right: p.expression()}
	}
	return left
}

func isOperator(t Token, ops ...string) bool {
	if t.kind != tokOperator {
		return false
	}
	for _, op := range ops {
		if t.Literal == op {
			return true
		}
	}
	return false
}
