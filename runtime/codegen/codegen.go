// Package codegen walks a statement graph and emits the executable Python
// automation script. It tracks a per-device output-handle table, an
// indentation counter across body slots, and the set of declared variables.
// The cleanup block is driven by the handle table and nothing else: a
// generation pass with zero connects emits zero close calls.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/graph"
	"github.com/scopeflow/scopeflow/runtime/resolve"
)

// Generator holds the state of one generation pass. A Generator is used for
// a single Generate or Fragment call and then discarded; the package keeps
// no cross-call state.
type Generator struct {
	reg  *device.Registry
	snap *graph.Snapshot

	lines  []string
	indent int

	// Output-handle table: alias → backend, in connect order. Cleanup closes
	// exactly what is still in this table.
	handles     map[string]device.Backend
	handleOrder []string

	vars map[string]bool

	// fallback is the device context inherited from outside a fragment.
	fallback string

	usesTime   bool
	usesVisa   bool
	usesSocket bool
}

func newGenerator(reg *device.Registry) *Generator {
	return &Generator{
		reg:     reg,
		handles: make(map[string]device.Backend),
		vars:    make(map[string]bool),
	}
}

// Generate emits a standalone script for the chain starting at head.
func Generate(head *graph.Node, reg *device.Registry) string {
	g := newGenerator(reg)
	g.snap = graph.Capture(head)
	for n := head; n != nil; n = n.Next {
		g.emitNode(n)
	}
	return g.assemble()
}

// Fragment emits just one construct (typically a loop) at zero indentation,
// with no preamble or cleanup. contextAlias is the device context in effect
// where the construct sits, used when the construct's own subtree cannot
// resolve a device.
func Fragment(node *graph.Node, reg *device.Registry, contextAlias string) string {
	g := newGenerator(reg)
	g.snap = graph.Capture(node)
	g.fallback = contextAlias
	g.emitNode(node)
	return strings.Join(g.lines, "\n")
}

func (g *Generator) assemble() string {
	var out []string

	if g.usesTime {
		out = append(out, "import time")
	}
	if g.usesVisa {
		out = append(out, "import pyvisa")
	}
	if g.usesSocket {
		out = append(out, "from socket_instr import SocketInstr")
	}
	if len(out) > 0 {
		out = append(out, "")
	}
	if g.usesVisa {
		out = append(out, "rm = pyvisa.ResourceManager()", "")
	}

	out = append(out, g.lines...)

	if len(g.handleOrder) > 0 || g.usesVisa {
		out = append(out, "")
		for _, alias := range g.handleOrder {
			out = append(out, fmt.Sprintf("%s.close()", alias))
		}
		if g.usesVisa {
			out = append(out, "rm.close()")
		}
	}
	return strings.Join(out, "\n") + "\n"
}

func (g *Generator) emit(format string, args ...interface{}) {
	g.lines = append(g.lines, strings.Repeat("    ", g.indent)+fmt.Sprintf(format, args...))
}

// emitBody emits a nested chain at indentation+1, inserting the required
// "pass" when the body contributes no statement.
func (g *Generator) emitBody(head *graph.Node) {
	g.indent++
	statements := 0
	for n := head; n != nil; n = n.Next {
		before := len(g.lines)
		g.emitNode(n)
		for _, line := range g.lines[before:] {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				statements++
			}
		}
	}
	if statements == 0 {
		g.emit("pass")
	}
	g.indent--
}

// deviceAlias resolves the instrument a node targets. When nothing resolves
// it emits a warning comment and returns the sentinel name: generation never
// invents a default target.
func (g *Generator) deviceAlias(n *graph.Node) string {
	res := resolve.DeviceFor(g.snap, n)
	if res.Source == resolve.SourceUnknown {
		if g.fallback != "" {
			return g.fallback
		}
		g.emit("# WARNING: no device context for %s statement", n.Kind)
		return device.UnknownAlias
	}
	return res.Alias
}

func (g *Generator) uniqueVar(base string) string {
	if base == "" {
		base = "resp"
	}
	name := base
	for i := 2; g.vars[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	g.vars[name] = true
	return name
}

func (g *Generator) emitNode(n *graph.Node) {
	switch n.Kind {
	case graph.KindConnect:
		g.emitConnect(n)

	case graph.KindDisconnect:
		alias := g.deviceAlias(n)
		g.emit("%s.close()", alias)
		if _, open := g.handles[alias]; open {
			delete(g.handles, alias)
			for i, a := range g.handleOrder {
				if a == alias {
					g.handleOrder = append(g.handleOrder[:i], g.handleOrder[i+1:]...)
					break
				}
			}
		}

	case graph.KindSetContext:
		// Context switches shape resolution; they emit no code.

	case graph.KindWrite:
		g.emit("%s.write(%s)", g.deviceAlias(n), pyString(n.Field(graph.FieldCommand)))

	case graph.KindQuery:
		alias := g.deviceAlias(n)
		name := n.Field(graph.FieldTarget)
		if name == "" {
			name = g.uniqueVar("resp")
		} else {
			g.vars[name] = true
		}
		g.emit("%s = %s.query(%s)", name, alias, pyString(n.Field(graph.FieldCommand)))

	case graph.KindWait:
		secs := n.Field(graph.FieldSeconds)
		if secs == "" {
			secs = "1"
		}
		g.usesTime = true
		g.emit("time.sleep(%s)", secs)

	case graph.KindWaitComplete:
		g.emit("%s.query('*OPC?')", g.deviceAlias(n))

	case graph.KindSaveArtifact:
		g.emitSaveArtifact(n)

	case graph.KindComment:
		for _, line := range strings.Split(n.Field(graph.FieldText), "\n") {
			g.emit("# %s", line)
		}

	case graph.KindRawCode:
		for _, line := range strings.Split(n.Fields[graph.FieldCode], "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				g.lines = append(g.lines, "")
				continue
			}
			g.emit("%s", line)
		}

	case graph.KindRepeat:
		count := n.Field(graph.FieldCount)
		if count == "" {
			count = "1"
		}
		loopVar := n.Field(graph.FieldVar)
		if loopVar == "" {
			loopVar = "_i"
		}
		g.emit("for %s in range(%s):", loopVar, count)
		g.emitBody(n.Body(graph.SlotBody))

	case graph.KindForRange:
		g.emitForRange(n)

	case graph.KindIfElse:
		g.emit("if %s:", g.condition(n))
		g.emitBody(n.Body(graph.SlotThen))
		if elseBody := n.Body(graph.SlotElse); elseBody != nil {
			g.emit("else:")
			g.emitBody(elseBody)
		}

	case graph.KindWhileUntil:
		cond := g.condition(n)
		if n.Field(graph.FieldMode) == "until" {
			g.emit("while not (%s):", cond)
		} else {
			g.emit("while %s:", cond)
		}
		g.emitBody(n.Body(graph.SlotBody))

	case graph.KindAssign:
		name := n.Field(graph.FieldName)
		if name == "" {
			name = g.uniqueVar("value")
		} else {
			g.vars[name] = true
		}
		rhs := n.Value(graph.SlotValue).Text()
		if rhs == "" {
			rhs = n.Field(graph.FieldValue)
		}
		if rhs == "" {
			rhs = "None"
		}
		g.emit("%s = %s", name, rhs)

	case graph.KindGroup:
		// Groups are editor-side organization; their bodies emit inline.
		if label := n.Field(graph.FieldText); label != "" {
			g.emit("# %s", label)
		}
		for b := n.Body(graph.SlotBody); b != nil; b = b.Next {
			g.emitNode(b)
		}

	default:
		g.emit("# WARNING: unrecognized statement kind %q", n.Kind)
	}
}

func (g *Generator) emitConnect(n *graph.Node) {
	alias := n.ExplicitDevice()
	if alias == "" {
		g.emit("# WARNING: connect statement with no device")
		return
	}

	dev, found := g.reg.ByAlias(alias)
	if !found {
		// No registry entry: fall back to connection parameters carried on
		// the node itself, defaulting to the generic network backend.
		dev = device.Device{
			Alias:      alias,
			Backend:    device.BackendVISA,
			Host:       n.Field(graph.FieldHost),
			TimeoutSec: 10,
		}
		if p, err := strconv.Atoi(n.Field(graph.FieldPort)); err == nil {
			dev.Port = p
		} else {
			dev.Port = 4000
		}
		if dev.Host == "" {
			g.emit("# WARNING: device %q is not in the registry", alias)
		}
	}

	switch dev.Backend {
	case device.BackendSocket:
		g.usesSocket = true
		g.emit("%s = SocketInstr('%s', %d, timeout=%d)", alias, dev.Host, dev.Port, dev.TimeoutSec)
	case device.BackendGPIB:
		g.usesVisa = true
		g.emit("%s = rm.open_resource('GPIB0::%d::INSTR')", alias, dev.Port)
		g.emit("%s.timeout = %d", alias, dev.TimeoutSec*1000)
	default:
		g.usesVisa = true
		g.emit("%s = rm.open_resource('TCPIP0::%s::%d::SOCKET')", alias, dev.Host, dev.Port)
		g.emit("%s.read_termination = '\\n'", alias)
		g.emit("%s.timeout = %d", alias, dev.TimeoutSec*1000)
	}

	if _, open := g.handles[alias]; !open {
		g.handles[alias] = dev.Backend
		g.handleOrder = append(g.handleOrder, alias)
	}
}

func (g *Generator) emitForRange(n *graph.Node) {
	loopVar := n.Field(graph.FieldVar)
	if loopVar == "" {
		loopVar = "i"
	}
	from := n.Field(graph.FieldFrom)
	if from == "" {
		from = "0"
	}
	to := n.Field(graph.FieldTo)
	if to == "" {
		to = "0"
	}
	by := n.Field(graph.FieldBy)
	if by == "" {
		by = "1"
	}

	// The node's bounds are inclusive; range() excludes the stop, so the
	// emitted stop is to+1. The loop reconstructor inverts this convention.
	stop := to + " + 1"
	if v, err := strconv.Atoi(to); err == nil {
		stop = strconv.Itoa(v + 1)
	}

	if by == "1" {
		g.emit("for %s in range(%s, %s):", loopVar, from, stop)
	} else {
		g.emit("for %s in range(%s, %s, %s):", loopVar, from, stop, by)
	}
	g.emitBody(n.Body(graph.SlotBody))
}

func (g *Generator) emitSaveArtifact(n *graph.Node) {
	alias := g.deviceAlias(n)
	path := n.Field(graph.FieldPath)
	if path == "" {
		path = "capture.png"
	}

	// Screenshot capture: trigger the save on the instrument, wait for it,
	// transfer the file, write it locally.
	scratch := "C:/Temp/scopeflow.png"
	imgVar := g.uniqueVar("img")
	g.emit("%s.write('SAVE:IMAGe \"%s\"')", alias, scratch)
	g.emit("%s.query('*OPC?')", alias)
	g.emit("%s = %s.query_binary_values('FILESystem:READFile \"%s\"', datatype='B', container=bytes)",
		imgVar, alias, scratch)
	g.emit("with open(%s, 'wb') as f:", pyString(path))
	g.indent++
	g.emit("f.write(%s)", imgVar)
	g.indent--
}

// condition renders a node's condition slot, preferring the expression tree
// and falling back to a raw text field.
func (g *Generator) condition(n *graph.Node) string {
	if e := n.Value(graph.SlotCond); e != nil {
		return e.Text()
	}
	if c := n.Field("cond"); c != "" {
		return c
	}
	return "True"
}

// pyString renders a Python single-quoted string literal.
func pyString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return "'" + s + "'"
}
