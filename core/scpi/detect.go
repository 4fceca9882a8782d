package scpi

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamType classifies an editable span.
type ParamType int

const (
	ParamEnumeration ParamType = iota
	ParamNumeric
	ParamMnemonicIndex
	ParamText
)

var paramTypeNames = [...]string{
	ParamEnumeration:   "enumeration",
	ParamNumeric:       "numeric",
	ParamMnemonicIndex: "mnemonicIndex",
	ParamText:          "text",
}

func (t ParamType) String() string {
	if int(t) >= 0 && int(t) < len(paramTypeNames) {
		return paramTypeNames[t]
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// MnemonicType is the category of a recognized mnemonic prefix.
type MnemonicType string

const (
	MnemonicNone         MnemonicType = ""
	MnemonicChannel      MnemonicType = "channel"
	MnemonicMath         MnemonicType = "math"
	MnemonicReference    MnemonicType = "reference"
	MnemonicBus          MnemonicType = "bus"
	MnemonicMeasurement  MnemonicType = "measurement"
	MnemonicSpectrumView MnemonicType = "spectrumView"
	MnemonicZoom         MnemonicType = "zoom"
)

// mnemonicEntry is one row of the built-in prefix table.
type mnemonicEntry struct {
	prefix   string
	maxIndex int
	category MnemonicType
}

// The table is ordered longest-prefix-first; matching walks it in order so
// BUS wins over B and MATH over MEAS never collides.
var mnemonicTable = []mnemonicEntry{
	{"MEAS", 8, MnemonicMeasurement},
	{"MATH", 4, MnemonicMath},
	{"ZOOM", 4, MnemonicZoom},
	{"BUS", 16, MnemonicBus},
	{"REF", 8, MnemonicReference},
	{"CH", 8, MnemonicChannel},
	{"SV", 8, MnemonicSpectrumView},
	{"B", 16, MnemonicBus},
}

// mnemonicSplit splits a component like CH<x> or MATH2 into its prefix and
// index text. ok is false when the component has no mnemonic shape: the
// remainder must be a <...> placeholder or a plain index number.
func mnemonicSplit(text string) (prefix, index string, ok bool) {
	upper := strings.ToUpper(text)
	for _, e := range mnemonicTable {
		if !strings.HasPrefix(upper, e.prefix) {
			continue
		}
		rest := text[len(e.prefix):]
		if rest == "" {
			continue
		}
		if rest[0] == '<' && rest[len(rest)-1] == '>' && len(rest) >= 3 {
			return text[:len(e.prefix)], rest, true
		}
		if _, err := strconv.Atoi(rest); err == nil {
			return text[:len(e.prefix)], rest, true
		}
	}
	return "", "", false
}

func mnemonicCategory(prefix string) (MnemonicType, int) {
	upper := strings.ToUpper(prefix)
	for _, e := range mnemonicTable {
		if e.prefix == upper {
			return e.category, e.maxIndex
		}
	}
	return MnemonicNone, 0
}

// EditableParameter is one editable span located inside a raw command
// string. StartIndex/EndIndex are byte offsets into the raw string;
// ReplaceParameter splices exactly that span.
type EditableParameter struct {
	Name         string
	Position     int // component ordinal in the parse
	StartIndex   int
	EndIndex     int
	Type         ParamType
	Mnemonic     MnemonicType
	ValidOptions []string
	CurrentValue string
}

// Detect locates the editable spans of a parsed command. schema is the
// library-supplied parameter list for the command's header, aligned to
// component ordinals; it may be nil or shorter than the part list, in which
// case the remaining components fall back to built-in mnemonic-prefix
// recognition (and explicit {A|B|C} patterns). Plain numeric literals are
// editable only when the schema says so.
func Detect(cmd ParsedCommand, schema []ParamSchema) []EditableParameter {
	var out []EditableParameter
	for i, part := range cmd.Parts {
		var sch *ParamSchema
		if i < len(schema) && schema[i].Type != "" {
			sch = &schema[i]
		}
		if p, ok := detectPart(part, i, sch); ok {
			out = append(out, p)
		}
	}
	return out
}

func detectPart(part Part, pos int, sch *ParamSchema) (EditableParameter, bool) {
	if sch != nil {
		switch sch.Type {
		case SchemaMnemonicIndex:
			return detectMnemonic(part, pos, sch)
		case SchemaEnumeration:
			opts := sch.Options
			if len(opts) == 0 {
				opts = part.Options
			}
			return EditableParameter{
				Name:         sch.Name,
				Position:     pos,
				StartIndex:   part.Start,
				EndIndex:     part.End,
				Type:         ParamEnumeration,
				ValidOptions: opts,
				CurrentValue: part.Text,
			}, true
		case SchemaNumeric:
			if !numericLike(part) {
				return EditableParameter{}, false
			}
			return EditableParameter{
				Name:         sch.Name,
				Position:     pos,
				StartIndex:   part.Start,
				EndIndex:     part.End,
				Type:         ParamNumeric,
				CurrentValue: part.Text,
			}, true
		default: // SchemaText and anything unrecognized degrade to text
			return EditableParameter{
				Name:         sch.Name,
				Position:     pos,
				StartIndex:   part.Start,
				EndIndex:     part.End,
				Type:         ParamText,
				CurrentValue: part.Text,
			}, true
		}
	}

	// Heuristic fallback: explicit option patterns and mnemonic prefixes.
	if part.Kind == PartOptions {
		return EditableParameter{
			Position:     pos,
			StartIndex:   part.Start,
			EndIndex:     part.End,
			Type:         ParamEnumeration,
			ValidOptions: part.Options,
			CurrentValue: part.Text,
		}, true
	}
	return detectMnemonic(part, pos, nil)
}

func detectMnemonic(part Part, pos int, sch *ParamSchema) (EditableParameter, bool) {
	prefix, index, ok := mnemonicSplit(part.Text)
	if !ok {
		return EditableParameter{}, false
	}
	category, maxIndex := mnemonicCategory(prefix)

	p := EditableParameter{
		Position:     pos,
		StartIndex:   part.Start + len(prefix),
		EndIndex:     part.Start + len(prefix) + len(index),
		Type:         ParamMnemonicIndex,
		Mnemonic:     category,
		CurrentValue: index,
	}
	lo, hi := 1, maxIndex
	if sch != nil {
		p.Name = sch.Name
		if len(sch.Options) > 0 {
			p.ValidOptions = sch.Options
			return p, true
		}
		if sch.Min > 0 {
			lo = sch.Min
		}
		if sch.Max > 0 {
			hi = sch.Max
		}
	}
	for v := lo; v <= hi; v++ {
		p.ValidOptions = append(p.ValidOptions, strconv.Itoa(v))
	}
	return p, true
}

func numericLike(part Part) bool {
	if part.Kind == PartPlaceholder {
		return true
	}
	_, err := strconv.ParseFloat(part.Text, 64)
	return err == nil
}

// ReplaceParameter returns a new command string with exactly the span
// [StartIndex, EndIndex) replaced by newValue. Every other byte of the
// command is preserved. Replacing a span with its current value returns an
// identical string.
func ReplaceParameter(command string, p EditableParameter, newValue string) string {
	if p.StartIndex < 0 || p.EndIndex > len(command) || p.StartIndex > p.EndIndex {
		return command
	}
	return command[:p.StartIndex] + newValue + command[p.EndIndex:]
}
