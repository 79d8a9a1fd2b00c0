package parser

// Expression represents a node of an arithmetic expression.
type Expression interface {
	expr()
}

// NumberLit is a numeric literal exactly as written.
type NumberLit struct {
	Value string
}

func (*NumberLit) expr() {}

// UnaryOp enumerates prefix operators.
type UnaryOp string

const (
	UnaryPlus  UnaryOp = "+"
	UnaryMinus UnaryOp = "-"
)

// UnaryExpr applies a sign to its operand.
type UnaryExpr struct {
	Op   UnaryOp
	Expr Expression
}

func (*UnaryExpr) expr() {}

// BinaryOp enumerates infix arithmetic operators.
type BinaryOp string

const (
	BinaryAdd      BinaryOp = "+"
	BinarySubtract BinaryOp = "-"
	BinaryMultiply BinaryOp = "*"
	BinaryDivide   BinaryOp = "/"
)

// BinaryExpr describes an infix arithmetic expression.
type BinaryExpr struct {
	Left  Expression
	Right Expression
	Op    BinaryOp
}

func (*BinaryExpr) expr() {}
