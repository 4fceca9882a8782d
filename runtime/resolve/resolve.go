// Package resolve implements device context resolution: determining which
// configured instrument an otherwise device-agnostic statement implicitly
// targets, purely from structural position in the graph.
package resolve

import (
	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/graph"
)

// Source records how a device binding was found, so the editor can label it.
type Source int

const (
	// SourceUnknown means no context could be resolved; the binding is the
	// sentinel alias and the user has to fix the procedure.
	SourceUnknown Source = iota
	// SourceExplicit means the node carries its own device field.
	SourceExplicit
	// SourceContextSwitch means the nearest preceding setContext won.
	SourceContextSwitch
	// SourceConnect means the fallback to a preceding connect was used.
	SourceConnect
)

var sourceNames = [...]string{
	SourceUnknown:       "unknown",
	SourceExplicit:      "explicit",
	SourceContextSwitch: "contextSwitch",
	SourceConnect:       "connect",
}

func (s Source) String() string {
	if int(s) >= 0 && int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// Resolution is the outcome of a context walk.
type Resolution struct {
	Alias  string
	Source Source
}

// DeviceFor resolves the device context of a node against a snapshot.
//
// Priority order, preserved exactly from the procedure editor's behavior:
//
//  1. The node's own device field wins outright (an explicit per-statement
//     override set in the editor; empty or "()" values are ignored).
//  2. Walking backward through the snapshot, the FIRST setContext node
//     encountered wins. Connect nodes passed over on the way there do not
//     matter: a later connect without an intervening setContext never
//     overrides a still-active context switch further back.
//  3. If the walk reaches the front without a setContext, the first connect
//     recorded during the same walk (the nearest preceding one) is used.
//  4. Otherwise the sentinel unknown.
//
// The walk ascends out of body slots: a statement inside a loop body sees
// the setContext/connect nodes preceding the loop. Groups are transparent
// in both directions: the walk also descends into a preceding group's body,
// tail first, because group bodies emit inline and their statements really
// do precede the group's followers in the script.
func DeviceFor(snap *graph.Snapshot, n *graph.Node) Resolution {
	if explicit := n.ExplicitDevice(); explicit != "" {
		return Resolution{Alias: explicit, Source: SourceExplicit}
	}

	idx, ok := snap.IndexOf(n)
	if !ok {
		return Resolution{Alias: device.UnknownAlias, Source: SourceUnknown}
	}

	firstConnect := ""
	i := idx
	for {
		j := snap.Backstep(i)
		if j < 0 {
			break
		}
		// Backstep returns the parent only at a chain head, so this detects
		// ascent out of a body slot. The owning group is then just a wrapper
		// around statements already behind the walk; scanning its body here
		// would see statements that come after the starting node.
		ascended := snap.At(i).Prev < 0 && snap.At(i).Parent == j
		cur := snap.At(j).Node
		if !(ascended && cur.Kind == graph.KindGroup) {
			if res, done := examine(cur, &firstConnect); done {
				return res
			}
		}
		i = j
	}

	if firstConnect != "" {
		return Resolution{Alias: firstConnect, Source: SourceConnect}
	}
	return Resolution{Alias: device.UnknownAlias, Source: SourceUnknown}
}

// examine inspects one node visited by the backward walk. done is true only
// when a winning context switch was found.
func examine(cur *graph.Node, firstConnect *string) (Resolution, bool) {
	switch cur.Kind {
	case graph.KindSetContext:
		if alias := cur.ExplicitDevice(); alias != "" {
			return Resolution{Alias: alias, Source: SourceContextSwitch}, true
		}
		// A setContext with no device is invalid input; skip it.
	case graph.KindConnect:
		if *firstConnect == "" {
			*firstConnect = cur.ExplicitDevice()
		}
	case graph.KindGroup:
		return scanGroupTail(cur, firstConnect)
	}
	return Resolution{}, false
}

// scanGroupTail walks a group's body in reverse inline order. Loop and
// branch bodies inside the group stay opaque, as they do everywhere else;
// nested groups keep unfolding.
func scanGroupTail(group *graph.Node, firstConnect *string) (Resolution, bool) {
	var tail *graph.Node
	for b := group.Body(graph.SlotBody); b != nil; b = b.Next {
		tail = b
	}
	for b := tail; b != nil; b = b.Prev {
		if res, done := examine(b, firstConnect); done {
			return res, true
		}
	}
	return Resolution{}, false
}

// Labels resolves every node of a snapshot in one pass, for the editor's
// context badges. The result is index-aligned with the snapshot.
func Labels(snap *graph.Snapshot) []Resolution {
	out := make([]Resolution, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		out[i] = DeviceFor(snap, snap.At(i).Node)
	}
	return out
}
