// Package step implements the flat step list: a serialization-friendly
// projection of a statement graph consumed by the simplified step editor.
// Steps do not preserve expression trees; expressions are pre-evaluated to
// literal or text form when projected.
package step

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StepKind mirrors the graph kind vocabulary 1:1 but stays an open string:
// imported step lists may carry kinds this build does not know, and the
// importer degrades those to a labeled comment instead of rejecting the
// document.
type StepKind string

const (
	KindConnect      StepKind = "connect"
	KindDisconnect   StepKind = "disconnect"
	KindSetContext   StepKind = "setContext"
	KindWrite        StepKind = "write"
	KindQuery        StepKind = "query"
	KindWait         StepKind = "wait"
	KindWaitComplete StepKind = "waitForCompletion"
	KindSaveArtifact StepKind = "saveArtifact"
	KindComment      StepKind = "comment"
	KindRawCode      StepKind = "rawCode"
	KindRepeat       StepKind = "repeat"
	KindForRange     StepKind = "forRange"
	KindIfElse       StepKind = "ifElse"
	KindWhileUntil   StepKind = "whileUntil"
	KindAssign       StepKind = "assign"
	KindGroup        StepKind = "group"
)

// Step is one entry of an exported step list. A conversion always produces a
// fresh list; steps are not mutated after export.
type Step struct {
	ID            string            `json:"id"`
	Kind          StepKind          `json:"kind"`
	Label         string            `json:"label,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
	BoundDeviceID string            `json:"boundDeviceId,omitempty"`
	Children      []Step            `json:"children,omitempty"`
}

// Param returns a parameter value, empty when absent.
func (s Step) Param(name string) string {
	return s.Params[name]
}

// List is an ordered step sequence, the export unit.
type List struct {
	Steps []Step `json:"steps"`
}

// MarshalJSON for List always emits a steps array, never null.
func (l List) MarshalJSON() ([]byte, error) {
	steps := l.Steps
	if steps == nil {
		steps = []Step{}
	}
	type alias struct {
		Steps []Step `json:"steps"`
	}
	return json.Marshal(alias{Steps: steps})
}

// Decode parses a serialized step list. Unknown fields are ignored; unknown
// kinds are kept verbatim for the importer to degrade.
func Decode(data []byte) (List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return List{}, fmt.Errorf("decode step list: %w", err)
	}
	return l, nil
}

// Encode serializes a step list with indentation for the flat editor.
func Encode(l List) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Render returns a human-readable tree of the list for CLI display.
func Render(l List) string {
	var b strings.Builder
	for i, s := range l.Steps {
		renderStep(&b, s, "", i == len(l.Steps)-1)
	}
	return b.String()
}

func renderStep(b *strings.Builder, s Step, prefix string, isLast bool) {
	connector, nextPrefix := "├─ ", prefix+"│  "
	if isLast {
		connector, nextPrefix = "└─ ", prefix+"   "
	}

	label := s.Label
	if label == "" {
		label = string(s.Kind)
	}
	if len(label) > 80 {
		label = label[:77] + "..."
	}
	if s.BoundDeviceID != "" {
		label = fmt.Sprintf("%s  [%s]", label, s.BoundDeviceID)
	}
	fmt.Fprintf(b, "%s%s%s\n", prefix, connector, label)

	for i, child := range s.Children {
		renderStep(b, child, nextPrefix, i == len(s.Children)-1)
	}
}

// Kinds returns the kind sequence of the list's top level, a convenience for
// round-trip comparisons.
func Kinds(l List) []StepKind {
	out := make([]StepKind, len(l.Steps))
	for i, s := range l.Steps {
		out[i] = s.Kind
	}
	return out
}
