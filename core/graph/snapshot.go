package graph

// Snapshot is an arena-indexed flattening of a graph, captured in chain
// order. Traversals (device resolution in particular) run against a
// Snapshot instead of pointer-chasing live nodes, so they see a stable view
// independent of concurrent edits by the caller.
type Snapshot struct {
	recs  []Record
	index map[*Node]int
}

// Record is one arena entry.
type Record struct {
	Node *Node

	// Prev is the arena index of the predecessor in the same chain, -1 at a
	// chain head.
	Prev int

	// Parent is the arena index of the node owning this record's chain
	// through a body slot, -1 for the root chain. Set on every body-chain
	// member so the backward walk can ascend from a body head to the
	// statements preceding the owning construct.
	Parent int

	// Slot is the body slot name this record's chain hangs from, "" for the
	// root chain.
	Slot string
}

// Capture flattens the chain starting at head, recursing into body slots.
func Capture(head *Node) *Snapshot {
	s := &Snapshot{index: make(map[*Node]int)}
	s.capture(head, -1, "")
	return s
}

func (s *Snapshot) capture(head *Node, parent int, slot string) {
	prev := -1
	for n := head; n != nil; n = n.Next {
		idx := len(s.recs)
		s.recs = append(s.recs, Record{Node: n, Prev: prev, Parent: parent, Slot: slot})
		s.index[n] = idx
		for _, name := range BodySlotNames(n.Kind) {
			if body := n.Body(name); body != nil {
				s.capture(body, idx, name)
			}
		}
		prev = idx
	}
}

// Len returns the number of captured nodes.
func (s *Snapshot) Len() int {
	return len(s.recs)
}

// At returns the record at an arena index.
func (s *Snapshot) At(i int) Record {
	return s.recs[i]
}

// IndexOf returns the arena index of a node.
func (s *Snapshot) IndexOf(n *Node) (int, bool) {
	i, ok := s.index[n]
	return i, ok
}

// Backstep returns the arena index the backward walk visits after i: the
// chain predecessor when there is one, otherwise the node owning i's body
// chain. Returns -1 when the walk is exhausted.
func (s *Snapshot) Backstep(i int) int {
	r := s.recs[i]
	if r.Prev >= 0 {
		return r.Prev
	}
	return r.Parent
}

// Nodes returns all captured nodes in capture (chain) order.
func (s *Snapshot) Nodes() []*Node {
	out := make([]*Node, len(s.recs))
	for i, r := range s.recs {
		out[i] = r.Node
	}
	return out
}
