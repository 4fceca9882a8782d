package graph

import "testing"

func TestExprTextLossless(t *testing.T) {
	tests := []struct {
		name string
		expr *Expr
		want string
	}{
		{"trailing zero preserved", Number("1.50"), "1.50"},
		{"exponent form preserved", Number("2.5e-3"), "2.5e-3"},
		{"integer", Number("42"), "42"},
		{"string single-quoted", String("hello"), "'hello'"},
		{"string with quote", String("it's"), "'it\\'s'"},
		{"bool true", Bool(true), "True"},
		{"bool false", Bool(false), "False"},
		{"var ref", VarRef("freq"), "freq"},
		{"binary", Binary("+", VarRef("i"), Number("1")), "i + 1"},
		{"unary", Unary("-", Number("3")), "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExprFolding(t *testing.T) {
	tests := []struct {
		name   string
		expr   *Expr
		want   float64
		wantOK bool
	}{
		{"literal", Number("5"), 5, true},
		{"sum", Binary("+", Number("2"), Number("3")), 5, true},
		{"product", Binary("*", Number("4"), Number("2.5")), 10, true},
		{"negation", Unary("-", Number("7")), -7, true},
		{"division by zero", Binary("/", Number("1"), Number("0")), 0, false},
		{"var ref does not fold", VarRef("n"), 0, false},
		{"mixed does not fold", Binary("+", VarRef("n"), Number("1")), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.expr.AsNumber()
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("AsNumber() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFlatTextPreEvaluates(t *testing.T) {
	e := Binary("+", Number("2"), Number("3"))
	if got := e.FlatText(); got != "5" {
		t.Errorf("FlatText() = %q, want %q", got, "5")
	}
	// Unfoldable expressions fall back to source text
	u := Binary("+", VarRef("n"), Number("1"))
	if got := u.FlatText(); got != "n + 1" {
		t.Errorf("FlatText() = %q, want %q", got, "n + 1")
	}
}

func TestExprClone(t *testing.T) {
	orig := Binary("+", VarRef("a"), Unary("-", Number("2")))
	clone := orig.Clone()
	if clone == orig || clone.Left == orig.Left || clone.Right.Operand == orig.Right.Operand {
		t.Error("Clone shares structure with the original")
	}
	if clone.Text() != orig.Text() {
		t.Errorf("clone text %q differs from original %q", clone.Text(), orig.Text())
	}
}
