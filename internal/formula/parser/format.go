package parser

// FormatExpression renders the AST into a canonical string with the
// minimum parentheses needed, used in diagnostics.
func FormatExpression(expr Expression) string {
	return formatExpressionWithPrecedence(expr, lowestPrecedence)
}

func formatExpressionWithPrecedence(expr Expression, parent int) string {
	switch e := expr.(type) {
	case *NumberLit:
		return e.Value
	case *UnaryExpr:
		text := string(e.Op) + formatExpressionWithPrecedence(e.Expr, prefixPrecedence)
		if prefixPrecedence < parent {
			return "(" + text + ")"
		}
		return text
	case *BinaryExpr:
		prec := precedenceForBinary(e.Op)
		left := formatExpressionWithPrecedence(e.Left, prec)
		right := formatExpressionWithPrecedence(e.Right, prec+1)
		text := left + " " + string(e.Op) + " " + right
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	default:
		return "?"
	}
}
