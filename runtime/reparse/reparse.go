// Package reparse reconstructs structured loop nodes from generated Python
// source. The recognizer is deliberately narrow: it accepts exactly the two
// loop shapes the generator emits, with integer literal bounds, and abstains
// on everything else. An abstained fragment stays a raw code block; it is
// never half-parsed.
package reparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scopeflow/scopeflow/core/graph"
)

// Side-channel parameter names carried on exported loop steps. When these
// survive a round trip the loop header is rebuilt without touching the
// source text at all.
const (
	ParamLoopKind  = "loopKind"
	ParamLoopCount = "loopCount"
	ParamLoopVar   = "loopVar"
	ParamLoopFrom  = "loopFrom"
	ParamLoopTo    = "loopTo"
	ParamLoopBy    = "loopBy"

	LoopKindRepeat   = "repeat"
	LoopKindForRange = "forRange"
)

var (
	forRe        = regexp.MustCompile(`^for\s+([A-Za-z_][A-Za-z0-9_]*)\s+in\s+range\(([^)]*)\)\s*:$`)
	writeRe      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\.write\('(.*)'\)$`)
	queryBareRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\.query\('(.*)'\)$`)
	queryAsgnRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([A-Za-z_][A-Za-z0-9_]*)\.query\('(.*)'\)$`)
	sleepRe      = regexp.MustCompile(`^time\.sleep\(([^)]+)\)$`)
	assignRe     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	intLiteralRe = regexp.MustCompile(`^-?[0-9]+$`)
)

// Header rebuilds a loop node from side-channel step parameters alone. The
// returned node has no body; the caller attaches one from the step's
// children.
func Header(params map[string]string) (*graph.Node, bool) {
	switch params[ParamLoopKind] {
	case LoopKindRepeat:
		count := params[ParamLoopCount]
		if !isInt(count) {
			return nil, false
		}
		n := graph.New(graph.KindRepeat).WithField(graph.FieldCount, count)
		if v := params[ParamLoopVar]; v != "" {
			n.WithField(graph.FieldVar, v)
		}
		return n, true
	case LoopKindForRange:
		from, to, by := params[ParamLoopFrom], params[ParamLoopTo], params[ParamLoopBy]
		if !isInt(from) || !isInt(to) {
			return nil, false
		}
		if by == "" {
			by = "1"
		}
		if !isInt(by) {
			return nil, false
		}
		n := graph.New(graph.KindForRange).
			WithField(graph.FieldFrom, from).
			WithField(graph.FieldTo, to).
			WithField(graph.FieldBy, by)
		if v := params[ParamLoopVar]; v != "" {
			n.WithField(graph.FieldVar, v)
		}
		return n, true
	}
	return nil, false
}

// Loop reconstructs a structured loop from a Python for-loop fragment. It
// returns false, leaving the fragment untouched, whenever the header or any
// body line falls outside the recognized grammar.
func Loop(code string) (*graph.Node, bool) {
	lines := splitSource(code)
	if len(lines) == 0 {
		return nil, false
	}
	node, next, ok := parseFor(lines, 0)
	if !ok || next != len(lines) {
		return nil, false
	}
	return node, true
}

type srcLine struct {
	indent int
	text   string
}

func splitSource(code string) []srcLine {
	var out []srcLine
	for _, raw := range strings.Split(code, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		if raw == "" {
			continue
		}
		trimmed := strings.TrimLeft(raw, " ")
		out = append(out, srcLine{indent: len(raw) - len(trimmed), text: trimmed})
	}
	return out
}

func isInt(s string) bool {
	return intLiteralRe.MatchString(s)
}

// parseFor parses a loop header at lines[i] plus its indented body. The two
// accepted shapes are range(N), which becomes a repeat, and
// range(a, b[, c]) with positive step, which becomes an inclusive counted
// loop over a..b-1. range(0, b) and range(0, b, 1) also collapse to repeat.
func parseFor(lines []srcLine, i int) (*graph.Node, int, bool) {
	m := forRe.FindStringSubmatch(lines[i].text)
	if m == nil {
		return nil, 0, false
	}
	loopVar := m[1]

	var args []int
	for _, a := range strings.Split(m[2], ",") {
		a = strings.TrimSpace(a)
		if !isInt(a) {
			return nil, 0, false
		}
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, 0, false
		}
		args = append(args, v)
	}

	var node *graph.Node
	switch len(args) {
	case 1:
		if args[0] < 0 {
			return nil, 0, false
		}
		node = graph.New(graph.KindRepeat).
			WithField(graph.FieldCount, strconv.Itoa(args[0])).
			WithField(graph.FieldVar, loopVar)
	case 2, 3:
		from, stop, by := args[0], args[1], 1
		if len(args) == 3 {
			by = args[2]
		}
		if by < 1 {
			return nil, 0, false
		}
		if from == 0 && by == 1 {
			if stop < 0 {
				return nil, 0, false
			}
			node = graph.New(graph.KindRepeat).
				WithField(graph.FieldCount, strconv.Itoa(stop)).
				WithField(graph.FieldVar, loopVar)
			break
		}
		node = graph.New(graph.KindForRange).
			WithField(graph.FieldVar, loopVar).
			WithField(graph.FieldFrom, strconv.Itoa(from)).
			WithField(graph.FieldTo, strconv.Itoa(stop-1)).
			WithField(graph.FieldBy, strconv.Itoa(by))
	default:
		return nil, 0, false
	}

	body, next, ok := parseBlock(lines, i+1, lines[i].indent)
	if !ok {
		return nil, 0, false
	}
	if body != nil {
		node.SetBody(graph.SlotBody, body)
	}
	return node, next, true
}

func parseBlock(lines []srcLine, i, parentIndent int) (*graph.Node, int, bool) {
	if i >= len(lines) || lines[i].indent <= parentIndent {
		return nil, i, true
	}
	blockIndent := lines[i].indent

	var nodes []*graph.Node
	for i < len(lines) && lines[i].indent >= blockIndent {
		if lines[i].indent != blockIndent {
			return nil, 0, false
		}
		if forRe.MatchString(lines[i].text) {
			n, next, ok := parseFor(lines, i)
			if !ok {
				return nil, 0, false
			}
			nodes = append(nodes, n)
			i = next
			continue
		}
		n, ok := parseStatement(lines[i].text)
		if !ok {
			return nil, 0, false
		}
		if n != nil {
			nodes = append(nodes, n)
		}
		i++
	}
	return graph.Chain(nodes...), i, true
}

// parseStatement recognizes a single generated body line. A nil node with
// ok=true means the line carries no statement (pass). Unrecognized lines,
// including any if or while, reject the whole fragment.
func parseStatement(text string) (*graph.Node, bool) {
	switch {
	case text == "pass":
		return nil, true

	case strings.HasPrefix(text, "#"):
		return graph.New(graph.KindComment).
			WithField(graph.FieldText, strings.TrimSpace(strings.TrimPrefix(text, "#"))), true
	}

	if m := sleepRe.FindStringSubmatch(text); m != nil {
		secs := strings.TrimSpace(m[1])
		if _, err := strconv.ParseFloat(secs, 64); err != nil {
			return nil, false
		}
		return graph.New(graph.KindWait).WithField(graph.FieldSeconds, secs), true
	}

	if m := writeRe.FindStringSubmatch(text); m != nil {
		return graph.New(graph.KindWrite).
			WithField(graph.FieldDevice, "("+m[1]+")").
			WithField(graph.FieldCommand, unescape(m[2])), true
	}

	if m := queryAsgnRe.FindStringSubmatch(text); m != nil {
		return graph.New(graph.KindQuery).
			WithField(graph.FieldTarget, m[1]).
			WithField(graph.FieldDevice, "("+m[2]+")").
			WithField(graph.FieldCommand, unescape(m[3])), true
	}

	if m := queryBareRe.FindStringSubmatch(text); m != nil {
		if unescape(m[2]) == "*OPC?" {
			return graph.New(graph.KindWaitComplete).
				WithField(graph.FieldDevice, "("+m[1]+")"), true
		}
		return nil, false
	}

	if m := assignRe.FindStringSubmatch(text); m != nil {
		expr, ok := Literal(strings.TrimSpace(m[2]))
		if !ok {
			return nil, false
		}
		return graph.New(graph.KindAssign).
			WithField(graph.FieldName, m[1]).
			SetValue(graph.SlotValue, expr), true
	}

	return nil, false
}

// Literal parses a Python literal (number, bool, single-quoted string) or a
// bare identifier into an expression node.
func Literal(raw string) (*graph.Expr, bool) {
	switch raw {
	case "True":
		return graph.Bool(true), true
	case "False":
		return graph.Bool(false), true
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return graph.Number(raw), true
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		inner := raw[1 : len(raw)-1]
		if strings.ContainsAny(strings.ReplaceAll(strings.ReplaceAll(inner, `\\`, ""), `\'`, ""), `'\`) {
			return nil, false
		}
		return graph.String(unescape(inner)), true
	}
	if identRe.MatchString(raw) {
		return graph.VarRef(raw), true
	}
	return nil, false
}

// unescape reverses the generator's string literal escaping.
func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\'' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
