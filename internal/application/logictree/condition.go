// Package logictree implements the Logic-Tree schema's condition grammar
// (C3): parsing a Conditional branch's raw condition string into a typed
// shape, and translating a validated LogicTree into the platform's
// Symphony JSON wire format.
//
// Grammar validation is grounded on the teacher's
// executor.ConditionEvaluator (conditions.go), which also reaches for
// expr-lang to parse boolean expressions. This package only ever calls
// the parser, never expr.Run: conditions are never evaluated here, only
// checked for grammatical well-formedness before being handed to the
// Translator (§4.3, §4.6).
package logictree

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// comparisonOperators is the closed set of operators the condition
// grammar allows at the root of an expression (§4.6 "<TICKER>_<metric>
// operator value").
var comparisonOperators = map[string]bool{
	">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
}

// booleanOperators are disallowed anywhere in a condition (§4.3 "boolean
// operators"): every condition must be a single flat comparison.
var booleanOperators = map[string]bool{
	"and": true, "or": true, "&&": true, "||": true,
}

// operandPattern matches the closed `<TICKER>_<metric>` vocabulary this
// domain supports: a ticker prefix followed by one of a fixed set of
// metric suffixes.
var operandPattern = regexp.MustCompile(`^([A-Z0-9]{1,6})_(price|\d+d_ma|\d+d_return|\d+d_cumulative_return|\d+d_standard_deviation_return|\d+d_standard_deviation_price|rsi_\d+|ema_\d+)$`)

// Condition is a parsed, grammar-valid Conditional branch condition.
type Condition struct {
	LeftTicker string
	LeftMetric string
	Operator   string

	// Exactly one of RightLiteral or (RightTicker, RightMetric) is set.
	RightLiteral  *float64
	RightTicker   string
	RightMetric   string
	RightIsTicker bool
}

// ParseCondition parses raw into a Condition, or returns an error
// describing the first grammar violation found. It never evaluates the
// expression.
func ParseCondition(raw string) (*Condition, error) {
	tree, err := parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", raw, err)
	}

	if err := rejectBooleanOperators(tree.Node); err != nil {
		return nil, fmt.Errorf("condition %q: %w", raw, err)
	}

	bin, ok := tree.Node.(*ast.BinaryNode)
	if !ok || !comparisonOperators[bin.Operator] {
		return nil, fmt.Errorf("condition %q: not a single comparison expression", raw)
	}

	leftTicker, leftMetric, err := parseOperand(bin.Left)
	if err != nil {
		return nil, fmt.Errorf("condition %q: left operand: %w", raw, err)
	}

	cond := &Condition{
		LeftTicker: leftTicker,
		LeftMetric: leftMetric,
		Operator:   bin.Operator,
	}

	switch right := bin.Right.(type) {
	case *ast.IntegerNode:
		v := float64(right.Value)
		cond.RightLiteral = &v
	case *ast.FloatNode:
		v := right.Value
		cond.RightLiteral = &v
	case *ast.UnaryNode:
		v, err := negatedLiteral(right)
		if err != nil {
			return nil, fmt.Errorf("condition %q: right operand: %w", raw, err)
		}
		cond.RightLiteral = &v
	default:
		rightTicker, rightMetric, err := parseOperand(bin.Right)
		if err != nil {
			return nil, fmt.Errorf("condition %q: right operand: %w", raw, err)
		}
		cond.RightTicker = rightTicker
		cond.RightMetric = rightMetric
		cond.RightIsTicker = true
	}

	return cond, nil
}

func negatedLiteral(u *ast.UnaryNode) (float64, error) {
	if u.Operator != "-" {
		return 0, fmt.Errorf("unsupported unary operator %q", u.Operator)
	}
	switch n := u.Node.(type) {
	case *ast.IntegerNode:
		return -float64(n.Value), nil
	case *ast.FloatNode:
		return -n.Value, nil
	default:
		return 0, fmt.Errorf("unsupported negated operand")
	}
}

func parseOperand(node ast.Node) (ticker, metric string, err error) {
	ident, ok := node.(*ast.IdentifierNode)
	if !ok {
		return "", "", fmt.Errorf("expected a <TICKER>_<metric> identifier")
	}
	m := operandPattern.FindStringSubmatch(ident.Value)
	if m == nil {
		return "", "", fmt.Errorf("%q is not a recognized <TICKER>_<metric> operand", ident.Value)
	}
	return m[1], m[2], nil
}

// rejectBooleanOperators walks the whole tree looking for any and/or/not
// node, since the grammar permits only a single flat comparison.
func rejectBooleanOperators(node ast.Node) error {
	switch n := node.(type) {
	case *ast.BinaryNode:
		if booleanOperators[n.Operator] {
			return fmt.Errorf("boolean operator %q not permitted", n.Operator)
		}
		if err := rejectBooleanOperators(n.Left); err != nil {
			return err
		}
		return rejectBooleanOperators(n.Right)
	case *ast.UnaryNode:
		if n.Operator == "not" || n.Operator == "!" {
			return fmt.Errorf("boolean operator %q not permitted", n.Operator)
		}
		return rejectBooleanOperators(n.Node)
	}
	return nil
}
