package scpi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectMnemonicIndexWithSchema(t *testing.T) {
	// The schema aligns to component ordinals; ordinal 0 is CH<x>. The
	// numeric literal has no schema entry and must not become editable.
	raw := "CH<x>:SCALE 1.0"
	cmd := Parse(raw)
	schema := []ParamSchema{
		{Name: "channel", Type: SchemaMnemonicIndex, Min: 1, Max: 4},
	}

	params := Detect(cmd, schema)
	if len(params) != 1 {
		t.Fatalf("detected %d parameters, want exactly 1: %+v", len(params), params)
	}

	p := params[0]
	if p.Type != ParamMnemonicIndex {
		t.Errorf("Type = %v, want mnemonicIndex", p.Type)
	}
	if p.Mnemonic != MnemonicChannel {
		t.Errorf("Mnemonic = %q, want channel", p.Mnemonic)
	}
	if raw[p.StartIndex:p.EndIndex] != "<x>" {
		t.Errorf("span covers %q, want %q", raw[p.StartIndex:p.EndIndex], "<x>")
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4"}, p.ValidOptions); diff != "" {
		t.Errorf("valid options (-want +got):\n%s", diff)
	}
}

func TestDetectIsIndependentOfLiteralValue(t *testing.T) {
	schema := []ParamSchema{{Name: "channel", Type: SchemaMnemonicIndex, Min: 1, Max: 4}}
	for _, raw := range []string{"CH<x>:SCALE 1.0", "CH<x>:SCALE 2.71", "CH<x>:SCALE -5e-3"} {
		params := Detect(Parse(raw), schema)
		if len(params) != 1 {
			t.Errorf("Detect(%q) found %d parameters, want 1", raw, len(params))
		}
	}
}

func TestDetectHeuristicMnemonic(t *testing.T) {
	// No schema at all: mnemonic prefixes are still recognized.
	raw := "MATH2:DEFINE"
	params := Detect(Parse(raw), nil)
	if len(params) != 1 {
		t.Fatalf("detected %d parameters, want 1", len(params))
	}
	p := params[0]
	if p.Mnemonic != MnemonicMath || p.CurrentValue != "2" {
		t.Errorf("got mnemonic %q value %q, want math 2", p.Mnemonic, p.CurrentValue)
	}
	if raw[p.StartIndex:p.EndIndex] != "2" {
		t.Errorf("span covers %q, want the index digit", raw[p.StartIndex:p.EndIndex])
	}
}

func TestDetectHeuristicOptionsPattern(t *testing.T) {
	raw := "CH1:COUPLING {AC|DC|GND}"
	params := Detect(Parse(raw), nil)
	if len(params) != 2 {
		t.Fatalf("detected %d parameters, want channel index + enumeration", len(params))
	}
	enum := params[1]
	if enum.Type != ParamEnumeration {
		t.Errorf("Type = %v, want enumeration", enum.Type)
	}
	if diff := cmp.Diff([]string{"AC", "DC", "GND"}, enum.ValidOptions); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestDetectNumericRequiresSchema(t *testing.T) {
	raw := "HORIZONTAL:SCALE 4e-6"
	if params := Detect(Parse(raw), nil); len(params) != 0 {
		t.Errorf("numeric literal editable without schema: %+v", params)
	}

	schema := []ParamSchema{
		{}, {},
		{Name: "scale", Type: SchemaNumeric},
	}
	params := Detect(Parse(raw), schema)
	if len(params) != 1 || params[0].Type != ParamNumeric {
		t.Fatalf("numeric schema entry not honored: %+v", params)
	}
	if raw[params[0].StartIndex:params[0].EndIndex] != "4e-6" {
		t.Errorf("span covers %q, want the numeric literal",
			raw[params[0].StartIndex:params[0].EndIndex])
	}
}

func TestDetectBusPrefixLongestWins(t *testing.T) {
	params := Detect(Parse("BUS4:STATE"), nil)
	if len(params) != 1 {
		t.Fatalf("detected %d parameters, want 1", len(params))
	}
	if params[0].Mnemonic != MnemonicBus || params[0].CurrentValue != "4" {
		t.Errorf("got %q index %q, want bus 4", params[0].Mnemonic, params[0].CurrentValue)
	}
}

func TestReplaceParameter(t *testing.T) {
	raw := "CH<x>:SCALE 1.0"
	params := Detect(Parse(raw), []ParamSchema{{Name: "channel", Type: SchemaMnemonicIndex, Min: 1, Max: 4}})
	p := params[0]

	got := ReplaceParameter(raw, p, "3")
	if got != "CH3:SCALE 1.0" {
		t.Errorf("ReplaceParameter = %q, want %q", got, "CH3:SCALE 1.0")
	}
}

func TestReplaceParameterIdempotent(t *testing.T) {
	raw := "CH2:COUPLING {AC|DC|GND}"
	params := Detect(Parse(raw), nil)
	for _, p := range params {
		if got := ReplaceParameter(raw, p, p.CurrentValue); got != raw {
			t.Errorf("replacing %q with its current value changed the string: %q", p.CurrentValue, got)
		}
	}
}

func TestReplaceParameterPreservesOtherSpans(t *testing.T) {
	raw := "CH1:COUPLING {AC|DC|GND}"
	cmd := Parse(raw)
	params := Detect(cmd, nil)
	if len(params) != 2 {
		t.Fatalf("want channel + enumeration, got %+v", params)
	}

	// Replace the channel index, then verify the enumeration span (shifted
	// but byte-identical) survives and replacing it works on the new string.
	next := ReplaceParameter(raw, params[0], "12")
	if next != "CH12:COUPLING {AC|DC|GND}" {
		t.Fatalf("first replace = %q", next)
	}
	nextParams := Detect(Parse(next), nil)
	if len(nextParams) != 2 {
		t.Fatalf("re-detect after replace: %+v", nextParams)
	}
	final := ReplaceParameter(next, nextParams[1], "DC")
	if final != "CH12:COUPLING DC" {
		t.Errorf("second replace = %q, want %q", final, "CH12:COUPLING DC")
	}
}

func TestReplaceParameterOutOfRangeSpanIsNoop(t *testing.T) {
	p := EditableParameter{StartIndex: 5, EndIndex: 99}
	if got := ReplaceParameter("CH1", p, "2"); got != "CH1" {
		t.Errorf("out-of-range span modified the command: %q", got)
	}
}
