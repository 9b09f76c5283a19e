package dbn

import "strings"

// Expression is a number-valued node.
type Expression interface {
	String() string
	expr()
}

// Statement is an executable node.
type Statement interface {
	String() string
	stmt()
}

type (
	IntegerExpression struct {
		Token Token
		Value int
	}

	IdentifierExpression struct {
		Token Token
	}

	// CalculateExpression is a parenthesized binary operation.
	CalculateExpression struct {
		Left     Expression
		Right    Expression
		Operator Token
	}

	// CallNumberExpression is <Name args...>.
	CallNumberExpression struct {
		Token     Token
		Arguments []Expression
	}
)

func (*IntegerExpression) expr()    {}
func (*IdentifierExpression) expr() {}
func (*CalculateExpression) expr()  {}
func (*CallNumberExpression) expr() {}

func (e *IntegerExpression) String() string    { return e.Token.Literal }
func (e *IdentifierExpression) String() string { return e.Token.Literal }

func (e *CalculateExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator.Literal + " " + e.Right.String() + ")"
}

func (e *CallNumberExpression) String() string {
	return "<" + e.Token.Literal + joinExpressions(e.Arguments) + ">"
}

type (
	PaperStatement struct {
		Value Expression
	}

	PenStatement struct {
		Value Expression
	}

	LineStatement struct {
		X1, Y1, X2, Y2 Expression
	}

	// SetStatement assigns a variable: Set Name value.
	SetStatement struct {
		Name  Token
		Value Expression
	}

	// DotStatement paints one pixel: Set [x y] value.
	DotStatement struct {
		X, Y, Value Expression
	}

	// CopyStatement reads one pixel into a variable: Set Name [x y].
	CopyStatement struct {
		Name Token
		X, Y Expression
	}

	BlockStatement struct {
		Statements []Statement
	}

	// RepeatStatement runs Body with Name bound to From..To inclusive.
	RepeatStatement struct {
		Name     Token
		From, To Expression
		Body     *BlockStatement
	}

	// ConditionStatement is one of Same?, NotSame?, Smaller?, NotSmaller?.
	ConditionStatement struct {
		Keyword     Token
		Left, Right Expression
		Body        *BlockStatement
	}

	DefineCommandStatement struct {
		Name       Token
		Parameters []Token
		Body       *BlockStatement
	}

	CallCommandStatement struct {
		Token     Token
		Arguments []Expression
	}

	DefineNumberStatement struct {
		Name       Token
		Parameters []Token
		Body       *BlockStatement
	}

	// ValueStatement returns from the enclosing Number.
	ValueStatement struct {
		Result Expression
	}

	LoadStatement struct {
		Path Token
	}
)

func (*PaperStatement) stmt()         {}
func (*PenStatement) stmt()           {}
func (*LineStatement) stmt()          {}
func (*SetStatement) stmt()           {}
func (*DotStatement) stmt()           {}
func (*CopyStatement) stmt()          {}
func (*BlockStatement) stmt()         {}
func (*RepeatStatement) stmt()        {}
func (*ConditionStatement) stmt()     {}
func (*DefineCommandStatement) stmt() {}
func (*CallCommandStatement) stmt()   {}
func (*DefineNumberStatement) stmt()  {}
func (*ValueStatement) stmt()         {}
func (*LoadStatement) stmt()          {}

func (s *PaperStatement) String() string { return "Paper " + s.Value.String() }
func (s *PenStatement) String() string   { return "Pen " + s.Value.String() }

func (s *LineStatement) String() string {
	return "Line" + joinExpressions([]Expression{s.X1, s.Y1, s.X2, s.Y2})
}

func (s *SetStatement) String() string { return "Set " + s.Name.Literal + " " + s.Value.String() }

func (s *DotStatement) String() string {
	return "Set [" + s.X.String() + " " + s.Y.String() + "] " + s.Value.String()
}

func (s *CopyStatement) String() string {
	return "Set " + s.Name.Literal + " [" + s.X.String() + " " + s.Y.String() + "]"
}

func (s *BlockStatement) String() string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, st := range s.Statements {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}

func (s *RepeatStatement) String() string {
	return "Repeat " + s.Name.Literal + " " + s.From.String() + " " + s.To.String() + " " + s.Body.String()
}

func (s *ConditionStatement) String() string {
	return s.Keyword.Literal + "? " + s.Left.String() + " " + s.Right.String() + " " + s.Body.String()
}

func (s *DefineCommandStatement) String() string {
	return "Command " + s.Name.Literal + joinTokens(s.Parameters) + " " + s.Body.String()
}

func (s *CallCommandStatement) String() string {
	return s.Token.Literal + joinExpressions(s.Arguments)
}

func (s *DefineNumberStatement) String() string {
	return "Number " + s.Name.Literal + joinTokens(s.Parameters) + " " + s.Body.String()
}

func (s *ValueStatement) String() string { return "Value " + s.Result.String() }
func (s *LoadStatement) String() string  { return "Load \"" + s.Path.Literal + "\"" }

func joinExpressions(exprs []Expression) string {
	var b strings.Builder
	for _, e := range exprs {
		b.WriteByte(' ')
		b.WriteString(e.String())
	}
	return b.String()
}

func joinTokens(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteByte(' ')
		b.WriteString(t.Literal)
	}
	return b.String()
}
