package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprKind tags the variant of an expression node.
type ExprKind int

const (
	ExprNumber ExprKind = iota
	ExprString
	ExprBool
	ExprVarRef
	ExprBinary
	ExprUnary
)

var exprKindNames = [...]string{
	ExprNumber: "number",
	ExprString: "string",
	ExprBool:   "bool",
	ExprVarRef: "varRef",
	ExprBinary: "binaryOp",
	ExprUnary:  "unaryOp",
}

func (k ExprKind) String() string {
	if int(k) >= 0 && int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return fmt.Sprintf("ExprKind(%d)", int(k))
}

// ParseExprKind maps a serialized expression kind name back to its ExprKind.
func ParseExprKind(name string) (ExprKind, bool) {
	for k, n := range exprKindNames {
		if n == name {
			return ExprKind(k), true
		}
	}
	return ExprNumber, false
}

// Expr is an immutable expression tree node, owned by the single value slot
// that holds it. Numeric literals keep the exact text they were authored
// with (Raw) so emission round-trips losslessly: "1.50" stays "1.50".
type Expr struct {
	Kind ExprKind

	Raw  string // numeric literal, original text
	Str  string // string literal value (unquoted)
	Bool bool   // bool literal value
	Name string // variable reference

	Op      string // binary / unary operator
	Left    *Expr
	Right   *Expr
	Operand *Expr
}

// Number creates a numeric literal from its source text. The text is kept
// verbatim; callers that need the value use AsNumber.
func Number(raw string) *Expr {
	return &Expr{Kind: ExprNumber, Raw: strings.TrimSpace(raw)}
}

// String creates a string literal.
func String(value string) *Expr {
	return &Expr{Kind: ExprString, Str: value}
}

// Bool creates a boolean literal.
func Bool(value bool) *Expr {
	return &Expr{Kind: ExprBool, Bool: value}
}

// VarRef creates a variable reference.
func VarRef(name string) *Expr {
	return &Expr{Kind: ExprVarRef, Name: name}
}

// Binary creates a binary operation node.
func Binary(op string, left, right *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Op: op, Left: left, Right: right}
}

// Unary creates a unary operation node.
func Unary(op string, operand *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Op: op, Operand: operand}
}

// Text renders the expression as target-language source. Literal emission is
// lossless: a number renders as its original text, a bool as the Python
// spelling, a string with single quotes (the convention of the emitted
// scripts).
func (e *Expr) Text() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprNumber:
		return e.Raw
	case ExprString:
		return "'" + strings.ReplaceAll(e.Str, "'", "\\'") + "'"
	case ExprBool:
		if e.Bool {
			return "True"
		}
		return "False"
	case ExprVarRef:
		return e.Name
	case ExprBinary:
		return fmt.Sprintf("%s %s %s", e.Left.Text(), e.Op, e.Right.Text())
	case ExprUnary:
		return fmt.Sprintf("%s%s", e.Op, e.Operand.Text())
	default:
		return ""
	}
}

// AsNumber returns the numeric value of the expression when it is, or folds
// to, a numeric constant.
func (e *Expr) AsNumber() (float64, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ExprNumber:
		f, err := strconv.ParseFloat(e.Raw, 64)
		return f, err == nil
	case ExprUnary:
		v, ok := e.Operand.AsNumber()
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "-":
			return -v, true
		case "+":
			return v, true
		}
		return 0, false
	case ExprBinary:
		l, lok := e.Left.AsNumber()
		r, rok := e.Right.AsNumber()
		if !lok || !rok {
			return 0, false
		}
		switch e.Op {
		case "+":
			return l + r, true
		case "-":
			return l - r, true
		case "*":
			return l * r, true
		case "/":
			if r == 0 {
				return 0, false
			}
			return l / r, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsInt returns the value as an int when the expression folds to an integer.
func (e *Expr) AsInt() (int, bool) {
	f, ok := e.AsNumber()
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// FlatText renders the expression pre-evaluated to literal form where
// possible. Step projection uses this: expression trees are not preserved in
// steps, only their textual value.
func (e *Expr) FlatText() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprNumber, ExprString, ExprBool, ExprVarRef:
		return e.Text()
	default:
		if f, ok := e.AsNumber(); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return e.Text()
	}
}

// Clone deep-copies an expression tree.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	c := *e
	c.Left = e.Left.Clone()
	c.Right = e.Right.Clone()
	c.Operand = e.Operand.Clone()
	return &c
}
