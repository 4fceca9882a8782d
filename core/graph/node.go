// Package graph implements the statement graph: doubly linked chains of
// typed nodes with named body slots for nested chains and value slots for
// expression trees. A chain owns its nodes; conversions traverse chain order
// (Next pointers), never any visual order.
package graph

import "strings"

// Node is a single statement in a chain.
//
// Invariants maintained by the mutators:
//   - Prev/Next are mutually consistent: a.Next == b implies b.Prev == a.
//   - A node is a member of exactly one chain at a time; InsertAfter and
//     AppendBody refuse nodes that are still linked.
type Node struct {
	Kind   Kind
	Fields map[string]string

	// BodySlots maps slot name to the head of a nested chain. Absent or nil
	// entries mean an empty body.
	BodySlots map[string]*Node

	// ValueSlots maps slot name to an expression tree. The node owns the
	// expression; expressions are immutable once attached.
	ValueSlots map[string]*Expr

	// ShowAdvanced is presentation-only state ("advanced settings" expanded
	// in the editor). It survives serialization but never affects any
	// conversion.
	ShowAdvanced bool

	Prev *Node
	Next *Node
}

// New creates a detached node of the given kind with empty maps.
func New(kind Kind) *Node {
	return &Node{
		Kind:       kind,
		Fields:     make(map[string]string),
		BodySlots:  make(map[string]*Node),
		ValueSlots: make(map[string]*Expr),
	}
}

// WithField sets a field and returns the node, for construction chains.
func (n *Node) WithField(name, value string) *Node {
	n.Fields[name] = value
	return n
}

// Field returns the named field, trimmed; empty when absent.
func (n *Node) Field(name string) string {
	return strings.TrimSpace(n.Fields[name])
}

// ExplicitDevice returns the node's own device override, normalized. The
// editing surface historically stored the alias wrapped in parentheses, so
// "(scope)", "scope" and " scope " all resolve to "scope"; "()" and "" mean
// no override.
func (n *Node) ExplicitDevice() string {
	d := strings.TrimSpace(n.Fields[FieldDevice])
	d = strings.TrimPrefix(d, "(")
	d = strings.TrimSuffix(d, ")")
	return strings.TrimSpace(d)
}

// Body returns the head of the named body slot, nil for an empty body.
func (n *Node) Body(slot string) *Node {
	return n.BodySlots[slot]
}

// SetBody installs head as the named body chain. head must be a chain head
// (no Prev); passing nil clears the slot.
func (n *Node) SetBody(slot string, head *Node) {
	if head == nil {
		delete(n.BodySlots, slot)
		return
	}
	if head.Prev != nil {
		panic("graph: body head is not the head of its chain")
	}
	n.BodySlots[slot] = head
}

// Value returns the named value slot expression, nil when absent.
func (n *Node) Value(slot string) *Expr {
	return n.ValueSlots[slot]
}

// SetValue installs an expression in a value slot.
func (n *Node) SetValue(slot string, e *Expr) *Node {
	if e == nil {
		delete(n.ValueSlots, slot)
		return n
	}
	n.ValueSlots[slot] = e
	return n
}

// InsertAfter links m directly after n in n's chain. m must be detached.
func (n *Node) InsertAfter(m *Node) {
	if m.Prev != nil || m.Next != nil {
		panic("graph: InsertAfter requires a detached node")
	}
	m.Prev = n
	m.Next = n.Next
	if n.Next != nil {
		n.Next.Prev = m
	}
	n.Next = m
}

// Unlink detaches n from its chain, healing Prev/Next around it. Body and
// value slots travel with the node. A node unreachable from any chain head
// after Unlink is garbage.
func (n *Node) Unlink() {
	if n.Prev != nil {
		n.Prev.Next = n.Next
	}
	if n.Next != nil {
		n.Next.Prev = n.Prev
	}
	n.Prev = nil
	n.Next = nil
}

// Append links m (detached) at the end of the chain starting at n and
// returns m, so builds can chain: head := New(...); tail := head.Append(...).
func (n *Node) Append(m *Node) *Node {
	tail := n
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.InsertAfter(m)
	return m
}

// Head walks back to the head of n's chain.
func (n *Node) Head() *Node {
	h := n
	for h.Prev != nil {
		h = h.Prev
	}
	return h
}

// ChainSlice collects a chain into a slice, in chain order. head may be nil.
func ChainSlice(head *Node) []*Node {
	var out []*Node
	for n := head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}

// ChainLen returns the number of nodes in the chain starting at head.
func ChainLen(head *Node) int {
	count := 0
	for n := head; n != nil; n = n.Next {
		count++
	}
	return count
}

// Chain builds a chain from detached nodes in order and returns the head.
// Chain() with no arguments returns nil.
func Chain(nodes ...*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	head := nodes[0]
	cur := head
	for _, n := range nodes[1:] {
		cur.InsertAfter(n)
		cur = n
	}
	return head
}
