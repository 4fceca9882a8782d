// Package workspace persists editing sessions: the named statement graph as
// a JSON document, and a SQLite-backed store of saved workspaces.
//
// Decoding is tolerant by construction. A document written by a newer build
// may carry statement kinds or attributes this build does not know; those
// degrade (unknown kinds to comments, missing attributes to defaults) and
// produce warnings, but a load never aborts over vocabulary drift.
package workspace

import (
	"encoding/json"
	"fmt"

	"github.com/scopeflow/scopeflow/core/graph"
	"github.com/scopeflow/scopeflow/pkgs/errors"
)

// Document is one workspace: a named statement graph.
type Document struct {
	Name string
	Head *graph.Node
}

type docJSON struct {
	Name       string     `json:"name"`
	Statements []nodeJSON `json:"statements"`
}

type nodeJSON struct {
	Kind         string               `json:"kind"`
	Fields       map[string]string    `json:"fields,omitempty"`
	ShowAdvanced bool                 `json:"showAdvanced,omitempty"`
	Body         []nodeJSON           `json:"body,omitempty"`
	Then         []nodeJSON           `json:"then,omitempty"`
	Else         []nodeJSON           `json:"else,omitempty"`
	Values       map[string]*exprJSON `json:"values,omitempty"`
}

type exprJSON struct {
	Kind    string    `json:"kind"`
	Raw     string    `json:"raw,omitempty"`
	Value   string    `json:"value,omitempty"`
	Bool    bool      `json:"bool,omitempty"`
	Name    string    `json:"name,omitempty"`
	Op      string    `json:"op,omitempty"`
	Left    *exprJSON `json:"left,omitempty"`
	Right   *exprJSON `json:"right,omitempty"`
	Operand *exprJSON `json:"operand,omitempty"`
}

// EncodeDocument serializes a workspace document.
func EncodeDocument(doc *Document) ([]byte, error) {
	out := docJSON{
		Name:       doc.Name,
		Statements: encodeChain(doc.Head),
	}
	if out.Statements == nil {
		out.Statements = []nodeJSON{}
	}
	return json.MarshalIndent(out, "", "  ")
}

// DecodeDocument parses a workspace document. The error is non-nil only for
// malformed JSON; recoverable problems come back as warnings.
func DecodeDocument(data []byte) (*Document, []string, error) {
	var in docJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, nil, errors.NewWorkspaceParseError("workspace document is not valid JSON", err)
	}
	var warnings []string
	head := decodeChain(in.Statements, &warnings)
	return &Document{Name: in.Name, Head: head}, warnings, nil
}

func encodeChain(head *graph.Node) []nodeJSON {
	var out []nodeJSON
	for n := head; n != nil; n = n.Next {
		out = append(out, encodeNode(n))
	}
	return out
}

func encodeNode(n *graph.Node) nodeJSON {
	j := nodeJSON{
		Kind:         n.Kind.String(),
		ShowAdvanced: n.ShowAdvanced,
	}
	if len(n.Fields) > 0 {
		j.Fields = n.Fields
	}
	j.Body = encodeChain(n.Body(graph.SlotBody))
	j.Then = encodeChain(n.Body(graph.SlotThen))
	j.Else = encodeChain(n.Body(graph.SlotElse))
	for slot, e := range n.ValueSlots {
		if j.Values == nil {
			j.Values = make(map[string]*exprJSON)
		}
		j.Values[slot] = encodeExpr(e)
	}
	return j
}

func decodeChain(in []nodeJSON, warnings *[]string) *graph.Node {
	var nodes []*graph.Node
	for i := range in {
		nodes = append(nodes, decodeNode(&in[i], warnings))
	}
	return graph.Chain(nodes...)
}

func decodeNode(j *nodeJSON, warnings *[]string) *graph.Node {
	kind, known := graph.ParseKind(j.Kind)
	if !known {
		*warnings = append(*warnings,
			fmt.Sprintf("unknown statement kind %q kept as comment", j.Kind))
		n := graph.New(graph.KindComment).
			WithField(graph.FieldText, "unsupported statement: "+j.Kind)
		n.ShowAdvanced = j.ShowAdvanced
		return n
	}

	n := graph.New(kind)
	n.ShowAdvanced = j.ShowAdvanced
	for k, v := range j.Fields {
		n.WithField(k, v)
	}
	if body := decodeChain(j.Body, warnings); body != nil {
		n.SetBody(graph.SlotBody, body)
	}
	if then := decodeChain(j.Then, warnings); then != nil {
		n.SetBody(graph.SlotThen, then)
	}
	if els := decodeChain(j.Else, warnings); els != nil {
		n.SetBody(graph.SlotElse, els)
	}
	for slot, ej := range j.Values {
		if e := decodeExpr(ej, warnings); e != nil {
			n.SetValue(slot, e)
		}
	}
	return n
}

func encodeExpr(e *graph.Expr) *exprJSON {
	if e == nil {
		return nil
	}
	j := &exprJSON{Kind: e.Kind.String()}
	switch e.Kind {
	case graph.ExprNumber:
		j.Raw = e.Raw
	case graph.ExprString:
		j.Value = e.Str
	case graph.ExprBool:
		j.Bool = e.Bool
	case graph.ExprVarRef:
		j.Name = e.Name
	case graph.ExprBinary:
		j.Op = e.Op
		j.Left = encodeExpr(e.Left)
		j.Right = encodeExpr(e.Right)
	case graph.ExprUnary:
		j.Op = e.Op
		j.Operand = encodeExpr(e.Operand)
	}
	return j
}

func decodeExpr(j *exprJSON, warnings *[]string) *graph.Expr {
	if j == nil {
		return nil
	}
	kind, known := graph.ParseExprKind(j.Kind)
	if !known {
		*warnings = append(*warnings,
			fmt.Sprintf("unknown expression kind %q dropped", j.Kind))
		return nil
	}
	switch kind {
	case graph.ExprNumber:
		return graph.Number(j.Raw)
	case graph.ExprString:
		return graph.String(j.Value)
	case graph.ExprBool:
		return graph.Bool(j.Bool)
	case graph.ExprVarRef:
		return graph.VarRef(j.Name)
	case graph.ExprBinary:
		return graph.Binary(j.Op, decodeExpr(j.Left, warnings), decodeExpr(j.Right, warnings))
	case graph.ExprUnary:
		return graph.Unary(j.Op, decodeExpr(j.Operand, warnings))
	}
	return nil
}
