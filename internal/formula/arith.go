package formula

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/boardcalc/internal/formula/parser"
	"github.com/example/boardcalc/internal/value"
)

// evalArithmetic computes a parsed arithmetic expression in decimal.
func evalArithmetic(node parser.Expression) (decimal.Decimal, error) {
	switch n := node.(type) {
	case *parser.NumberLit:
		d, ok := value.ParseNumber(n.Value)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("invalid number %q", n.Value)
		}
		return d, nil
	case *parser.UnaryExpr:
		inner, err := evalArithmetic(n.Expr)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if n.Op == parser.UnaryMinus {
			return inner.Neg(), nil
		}
		return inner, nil
	case *parser.BinaryExpr:
		l, err := evalArithmetic(n.Left)
		if err != nil {
			return decimal.Decimal{}, err
		}
		r, err := evalArithmetic(n.Right)
		if err != nil {
			return decimal.Decimal{}, err
		}
		switch n.Op {
		case parser.BinaryAdd:
			return l.Add(r), nil
		case parser.BinarySubtract:
			return l.Sub(r), nil
		case parser.BinaryMultiply:
			return l.Mul(r), nil
		case parser.BinaryDivide:
			if r.IsZero() {
				return decimal.Decimal{}, fmt.Errorf("division by zero")
			}
			return l.Div(r), nil
		default:
			return decimal.Decimal{}, fmt.Errorf("unsupported operator %s", n.Op)
		}
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported expression %T", node)
	}
}
