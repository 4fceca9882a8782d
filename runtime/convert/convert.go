// Package convert translates between the statement graph and the flat step
// list. The two directions are asymmetric: flattening drops connect and
// context-switch statements into a per-step device binding, and collapses
// control flow into raw code blocks; rebuilding synthesizes context switches
// where the binding changes and reconstructs loops when their shape is
// recognized. Converting graph → steps → graph → steps is a fixed point at
// the step level.
package convert

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/graph"
	"github.com/scopeflow/scopeflow/core/step"
	"github.com/scopeflow/scopeflow/runtime/codegen"
	"github.com/scopeflow/scopeflow/runtime/reparse"
)

// GraphToSteps flattens a statement chain into a step list. The registry is
// used when rendering loop bodies to code; it may be nil.
func GraphToSteps(head *graph.Node, reg *device.Registry) step.List {
	f := flattener{reg: reg}
	steps, _ := f.chain(head, "")
	return step.List{Steps: steps}
}

type flattener struct {
	reg *device.Registry
}

// chain flattens one node chain. context is the device alias in effect at
// entry; the updated alias is returned so groups propagate context changes
// to their siblings.
func (f *flattener) chain(head *graph.Node, context string) ([]step.Step, string) {
	var out []step.Step
	for n := head; n != nil; n = n.Next {
		switch n.Kind {
		case graph.KindConnect, graph.KindSetContext:
			// These never export as steps; they move the binding context.
			if alias := n.ExplicitDevice(); alias != "" {
				context = alias
			}

		case graph.KindGroup:
			children, next := f.chain(n.Body(graph.SlotBody), context)
			context = next
			label := n.Field(graph.FieldText)
			if label == "" {
				label = "Group"
			}
			out = append(out, step.Step{
				ID:       uuid.NewString(),
				Kind:     step.KindGroup,
				Label:    label,
				Children: children,
			})

		case graph.KindRepeat, graph.KindForRange, graph.KindIfElse, graph.KindWhileUntil:
			out = append(out, f.control(n, context))

		default:
			out = append(out, f.statement(n, context))
		}
	}
	return out, context
}

// control collapses a structured construct into a raw code step. Loops also
// carry their header as side-channel parameters plus their body as child
// steps, so a same-vocabulary import rebuilds them without parsing text.
func (f *flattener) control(n *graph.Node, context string) step.Step {
	s := step.Step{
		ID:    uuid.NewString(),
		Kind:  step.KindRawCode,
		Label: controlLabel(n),
		Params: map[string]string{
			graph.FieldCode: codegen.Fragment(n, f.reg, context),
		},
	}

	switch n.Kind {
	case graph.KindRepeat:
		s.Params[reparse.ParamLoopKind] = reparse.LoopKindRepeat
		s.Params[reparse.ParamLoopCount] = n.Field(graph.FieldCount)
		if v := n.Field(graph.FieldVar); v != "" {
			s.Params[reparse.ParamLoopVar] = v
		}
		s.Children, _ = f.chain(n.Body(graph.SlotBody), context)
	case graph.KindForRange:
		s.Params[reparse.ParamLoopKind] = reparse.LoopKindForRange
		s.Params[reparse.ParamLoopFrom] = n.Field(graph.FieldFrom)
		s.Params[reparse.ParamLoopTo] = n.Field(graph.FieldTo)
		s.Params[reparse.ParamLoopBy] = n.Field(graph.FieldBy)
		if v := n.Field(graph.FieldVar); v != "" {
			s.Params[reparse.ParamLoopVar] = v
		}
		s.Children, _ = f.chain(n.Body(graph.SlotBody), context)
	}
	return s
}

func (f *flattener) statement(n *graph.Node, context string) step.Step {
	s := step.Step{
		ID:     uuid.NewString(),
		Kind:   step.StepKind(n.Kind.String()),
		Params: map[string]string{},
	}

	bind := func() {
		if alias := n.ExplicitDevice(); alias != "" {
			s.BoundDeviceID = alias
		} else if context != "" {
			s.BoundDeviceID = context
		} else {
			s.BoundDeviceID = device.UnknownAlias
		}
	}

	switch n.Kind {
	case graph.KindWrite:
		bind()
		s.Params[graph.FieldCommand] = n.Field(graph.FieldCommand)
		s.Label = "Write " + n.Field(graph.FieldCommand)

	case graph.KindQuery:
		bind()
		s.Params[graph.FieldCommand] = n.Field(graph.FieldCommand)
		if t := n.Field(graph.FieldTarget); t != "" {
			s.Params[graph.FieldTarget] = t
		}
		s.Label = "Query " + n.Field(graph.FieldCommand)

	case graph.KindWaitComplete:
		bind()
		s.Label = "Wait for completion"

	case graph.KindDisconnect:
		bind()
		s.Label = "Disconnect"

	case graph.KindSaveArtifact:
		bind()
		path := n.Field(graph.FieldPath)
		if path != "" {
			s.Params[graph.FieldPath] = path
		} else {
			path = "capture.png"
		}
		s.Label = "Save screenshot to " + path

	case graph.KindWait:
		secs := n.Field(graph.FieldSeconds)
		if secs == "" {
			secs = "1"
		}
		s.Params[graph.FieldSeconds] = secs
		s.Label = "Wait " + secs + " s"

	case graph.KindComment:
		text := n.Field(graph.FieldText)
		s.Params[graph.FieldText] = text
		s.Label = "# " + firstLine(text)

	case graph.KindRawCode:
		s.Params[graph.FieldCode] = n.Fields[graph.FieldCode]
		s.Label = "Raw code"

	case graph.KindAssign:
		name := n.Field(graph.FieldName)
		value := n.Value(graph.SlotValue).FlatText()
		if value == "" {
			value = n.Field(graph.FieldValue)
		}
		s.Params[graph.FieldName] = name
		s.Params[graph.FieldValue] = value
		s.Label = name + " = " + value

	default:
		s.Label = n.Kind.String()
	}

	if len(s.Params) == 0 {
		s.Params = nil
	}
	return s
}

func controlLabel(n *graph.Node) string {
	switch n.Kind {
	case graph.KindRepeat:
		return "Repeat " + orDefault(n.Field(graph.FieldCount), "1") + " times"
	case graph.KindForRange:
		label := fmt.Sprintf("For %s = %s..%s",
			orDefault(n.Field(graph.FieldVar), "i"),
			orDefault(n.Field(graph.FieldFrom), "0"),
			orDefault(n.Field(graph.FieldTo), "0"))
		if by := n.Field(graph.FieldBy); by != "" && by != "1" {
			label += " by " + by
		}
		return label
	case graph.KindIfElse:
		return "If " + n.Value(graph.SlotCond).Text()
	case graph.KindWhileUntil:
		if n.Field(graph.FieldMode) == "until" {
			return "Until " + n.Value(graph.SlotCond).Text()
		}
		return "While " + n.Value(graph.SlotCond).Text()
	}
	return "Raw code"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// StepsToGraph rebuilds a statement chain from a step list. Unknown step
// kinds degrade to comments; each degradation adds a warning. The rebuild
// never fails: a malformed step loses detail, not its place in the sequence.
func StepsToGraph(l step.List) (*graph.Node, []string) {
	r := rebuilder{}
	head, _ := r.chain(l.Steps, "")
	return head, r.warnings
}

type rebuilder struct {
	warnings []string
}

func (r *rebuilder) chain(steps []step.Step, context string) (*graph.Node, string) {
	var nodes []*graph.Node
	for _, s := range steps {
		if s.BoundDeviceID != "" && s.BoundDeviceID != device.UnknownAlias && s.BoundDeviceID != context {
			nodes = append(nodes, graph.New(graph.KindSetContext).
				WithField(graph.FieldDevice, s.BoundDeviceID))
			context = s.BoundDeviceID
		}
		n, next := r.node(s, context)
		context = next
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return graph.Chain(nodes...), context
}

func (r *rebuilder) node(s step.Step, context string) (*graph.Node, string) {
	kind, known := graph.ParseKind(string(s.Kind))
	if !known {
		r.warnings = append(r.warnings,
			fmt.Sprintf("step %s: unknown kind %q imported as comment", s.ID, s.Kind))
		text := "unsupported step: " + string(s.Kind)
		if s.Label != "" {
			text += " (" + s.Label + ")"
		}
		return graph.New(graph.KindComment).WithField(graph.FieldText, text), context
	}

	switch kind {
	case graph.KindWrite:
		return graph.New(graph.KindWrite).
			WithField(graph.FieldCommand, s.Param(graph.FieldCommand)), context

	case graph.KindQuery:
		n := graph.New(graph.KindQuery).
			WithField(graph.FieldCommand, s.Param(graph.FieldCommand))
		if t := s.Param(graph.FieldTarget); t != "" {
			n.WithField(graph.FieldTarget, t)
		}
		return n, context

	case graph.KindWait:
		return graph.New(graph.KindWait).
			WithField(graph.FieldSeconds, orDefault(s.Param(graph.FieldSeconds), "1")), context

	case graph.KindWaitComplete, graph.KindDisconnect:
		return graph.New(kind), context

	case graph.KindSaveArtifact:
		n := graph.New(graph.KindSaveArtifact)
		if p := s.Param(graph.FieldPath); p != "" {
			n.WithField(graph.FieldPath, p)
		}
		return n, context

	case graph.KindComment:
		return graph.New(graph.KindComment).
			WithField(graph.FieldText, s.Param(graph.FieldText)), context

	case graph.KindAssign:
		n := graph.New(graph.KindAssign).
			WithField(graph.FieldName, s.Param(graph.FieldName))
		raw := s.Param(graph.FieldValue)
		if expr, ok := reparse.Literal(raw); ok {
			n.SetValue(graph.SlotValue, expr)
		} else {
			n.WithField(graph.FieldValue, raw)
		}
		return n, context

	case graph.KindGroup:
		n := graph.New(graph.KindGroup)
		if s.Label != "" && s.Label != "Group" {
			n.WithField(graph.FieldText, s.Label)
		}
		body, next := r.chain(s.Children, context)
		if body != nil {
			n.SetBody(graph.SlotBody, body)
		}
		return n, next

	case graph.KindRawCode:
		return r.rawCode(s, context), context

	case graph.KindConnect, graph.KindSetContext:
		// Step lists normally carry neither; tolerate hand-authored ones.
		alias := s.Param(graph.FieldDevice)
		if alias == "" {
			alias = s.BoundDeviceID
		}
		n := graph.New(kind).WithField(graph.FieldDevice, alias)
		if alias != "" {
			context = alias
		}
		return n, context

	case graph.KindRepeat, graph.KindForRange, graph.KindIfElse, graph.KindWhileUntil:
		// Structured kinds normally travel as rawCode; accept them anyway by
		// copying fields and rebuilding children as the body.
		n := graph.New(kind)
		for k, v := range s.Params {
			n.WithField(k, v)
		}
		if body, _ := r.chain(s.Children, context); body != nil {
			n.SetBody(graph.SlotBody, body)
		}
		return n, context
	}
	return graph.New(graph.KindComment).WithField(graph.FieldText, s.Label), context
}

// rawCode turns a raw step back into structure when possible. Precedence:
// the side-channel loop header, then textual loop reconstruction, then a
// verbatim raw code node. The header wins even for a loop with no children:
// an empty body is a valid body, and the header carries the authored loop
// fields where the text parser could only guess at generator defaults.
func (r *rebuilder) rawCode(s step.Step, context string) *graph.Node {
	if n, ok := reparse.Header(s.Params); ok {
		if len(s.Children) > 0 {
			if body, _ := r.chain(s.Children, context); body != nil {
				n.SetBody(graph.SlotBody, body)
			}
		} else if parsed, pok := reparse.Loop(s.Param(graph.FieldCode)); pok {
			// Foreign step lists may carry the body only as text.
			if body := parsed.Body(graph.SlotBody); body != nil {
				n.SetBody(graph.SlotBody, body)
			}
		}
		return n
	}
	if n, ok := reparse.Loop(s.Param(graph.FieldCode)); ok {
		return n
	}
	return graph.New(graph.KindRawCode).
		WithField(graph.FieldCode, s.Param(graph.FieldCode))
}
