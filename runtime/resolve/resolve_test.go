package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/graph"
)

func connect(alias string) *graph.Node {
	return graph.New(graph.KindConnect).WithField(graph.FieldDevice, alias)
}

func setContext(alias string) *graph.Node {
	return graph.New(graph.KindSetContext).WithField(graph.FieldDevice, alias)
}

func TestSetContextBeatsInterveningConnect(t *testing.T) {
	// connect(A) → setContext(B) → connect(C) → write: the write resolves to
	// B. The intervening connect(C) is passed over; the scan stops at the
	// first setContext regardless.
	write := graph.New(graph.KindWrite)
	head := graph.Chain(connect("A"), setContext("B"), connect("C"), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "B", res.Alias)
	assert.Equal(t, SourceContextSwitch, res.Source)
}

func TestConnectFallbackWithoutSetContext(t *testing.T) {
	write := graph.New(graph.KindWrite)
	head := graph.Chain(connect("A"), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "A", res.Alias)
	assert.Equal(t, SourceConnect, res.Source)
}

func TestNearestConnectWins(t *testing.T) {
	write := graph.New(graph.KindWrite)
	head := graph.Chain(connect("A"), connect("C"), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "C", res.Alias, "the nearest preceding connect is used")
}

func TestNoContextResolvesUnknown(t *testing.T) {
	write := graph.New(graph.KindWrite)
	head := graph.Chain(graph.New(graph.KindComment), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, device.UnknownAlias, res.Alias)
	assert.Equal(t, SourceUnknown, res.Source)
}

func TestExplicitDeviceFieldWinsOverWalk(t *testing.T) {
	// A measurement block with an explicit "(scope)" override inside a loop
	// preceded by setContext(smu) must target scope.
	write := graph.New(graph.KindWrite).WithField(graph.FieldDevice, "(scope)")
	loop := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "5")
	loop.SetBody(graph.SlotBody, write)
	head := graph.Chain(connect("smu"), setContext("smu"), loop)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "scope", res.Alias)
	assert.Equal(t, SourceExplicit, res.Source)
}

func TestEmptyParenthesesOverrideIsIgnored(t *testing.T) {
	write := graph.New(graph.KindWrite).WithField(graph.FieldDevice, "()")
	head := graph.Chain(connect("A"), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "A", res.Alias, "empty parentheses are not a valid override")
}

func TestWalkAscendsOutOfLoopBody(t *testing.T) {
	write := graph.New(graph.KindWrite)
	loop := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "3")
	loop.SetBody(graph.SlotBody, write)
	head := graph.Chain(connect("smu"), setContext("scope"), loop)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "scope", res.Alias)
	assert.Equal(t, SourceContextSwitch, res.Source)
}

func TestWalkAscendsNestedBodies(t *testing.T) {
	write := graph.New(graph.KindWrite)
	inner := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "2")
	inner.SetBody(graph.SlotBody, write)
	outer := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "2")
	outer.SetBody(graph.SlotBody, inner)
	head := graph.Chain(connect("awg"), outer)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "awg", res.Alias)
}

func TestSetContextInsideBodyBindsSiblingsOnly(t *testing.T) {
	// setContext inside the loop body binds statements after it in the body;
	// a statement before it still sees the outer context.
	before := graph.New(graph.KindWrite)
	after := graph.New(graph.KindWrite)
	body := graph.Chain(before, setContext("smu"), after)
	loop := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "2")
	loop.SetBody(graph.SlotBody, body)
	head := graph.Chain(connect("scope"), loop)
	snap := graph.Capture(head)

	assert.Equal(t, "scope", DeviceFor(snap, before).Alias)
	assert.Equal(t, "smu", DeviceFor(snap, after).Alias)
}

func TestConnectInsideGroupBindsFollowers(t *testing.T) {
	// Group bodies emit inline, so a connect inside a group is really behind
	// every statement after the group.
	write := graph.New(graph.KindWrite)
	group := graph.New(graph.KindGroup).WithField(graph.FieldText, "Setup")
	group.SetBody(graph.SlotBody, graph.Chain(
		connect("scope"),
		graph.New(graph.KindWrite),
	))
	head := graph.Chain(group, write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "scope", res.Alias)
	assert.Equal(t, SourceConnect, res.Source)
}

func TestSetContextInsideGroupBindsFollowers(t *testing.T) {
	write := graph.New(graph.KindWrite)
	group := graph.New(graph.KindGroup)
	group.SetBody(graph.SlotBody, graph.Chain(connect("awg"), setContext("smu")))
	head := graph.Chain(connect("scope"), group, write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "smu", res.Alias)
	assert.Equal(t, SourceContextSwitch, res.Source)
}

func TestNestedGroupBodiesUnfold(t *testing.T) {
	write := graph.New(graph.KindWrite)
	inner := graph.New(graph.KindGroup)
	inner.SetBody(graph.SlotBody, connect("scope"))
	outer := graph.New(graph.KindGroup)
	outer.SetBody(graph.SlotBody, graph.Chain(graph.New(graph.KindComment), inner))
	head := graph.Chain(outer, write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "scope", res.Alias)
}

func TestLoopBodyInsidePrecedingGroupStaysOpaque(t *testing.T) {
	// Groups unfold, loop bodies do not: a connect buried in a loop inside a
	// preceding group is still invisible, matching the walk's behavior for a
	// bare preceding loop.
	write := graph.New(graph.KindWrite)
	loop := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "2")
	loop.SetBody(graph.SlotBody, connect("scope"))
	group := graph.New(graph.KindGroup)
	group.SetBody(graph.SlotBody, loop)
	head := graph.Chain(group, write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, device.UnknownAlias, res.Alias)
}

func TestOwnGroupBodyIsNotRescannedOnAscent(t *testing.T) {
	// A setContext after the statement in the same group body must not win:
	// the walk ascends out of the group without reading its body again.
	write := graph.New(graph.KindWrite)
	group := graph.New(graph.KindGroup)
	group.SetBody(graph.SlotBody, graph.Chain(write, setContext("smu")))
	head := graph.Chain(connect("scope"), group)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "scope", res.Alias)
	assert.Equal(t, SourceConnect, res.Source)
}

func TestSetContextWithoutDeviceIsSkipped(t *testing.T) {
	write := graph.New(graph.KindWrite)
	head := graph.Chain(connect("A"), graph.New(graph.KindSetContext), write)

	res := DeviceFor(graph.Capture(head), write)
	assert.Equal(t, "A", res.Alias, "a setContext with no device must not shadow the connect")
}

func TestLabels(t *testing.T) {
	w1 := graph.New(graph.KindWrite)
	w2 := graph.New(graph.KindQuery)
	head := graph.Chain(connect("scope"), w1, setContext("smu"), w2)
	snap := graph.Capture(head)

	labels := Labels(snap)
	require.Len(t, labels, 4)
	assert.Equal(t, "scope", labels[1].Alias)
	assert.Equal(t, "smu", labels[3].Alias)
}
