package graph

import "fmt"

// Kind identifies the statement type of a Node. The vocabulary is closed:
// every component that dispatches on Kind carries an explicit default arm for
// the degraded-input path, but no new kinds appear at runtime.
type Kind int

const (
	KindConnect Kind = iota
	KindDisconnect
	KindSetContext
	KindWrite
	KindQuery
	KindWait
	KindWaitComplete
	KindSaveArtifact
	KindComment
	KindRawCode
	KindRepeat
	KindForRange
	KindIfElse
	KindWhileUntil
	KindAssign
	KindGroup
)

// Pre-computed kind name lookup, also the serialized form
var kindNames = [...]string{
	KindConnect:      "connect",
	KindDisconnect:   "disconnect",
	KindSetContext:   "setContext",
	KindWrite:        "write",
	KindQuery:        "query",
	KindWait:         "wait",
	KindWaitComplete: "waitForCompletion",
	KindSaveArtifact: "saveArtifact",
	KindComment:      "comment",
	KindRawCode:      "rawCode",
	KindRepeat:       "repeat",
	KindForRange:     "forRange",
	KindIfElse:       "ifElse",
	KindWhileUntil:   "whileUntil",
	KindAssign:       "assign",
	KindGroup:        "group",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a serialized kind name back to its Kind. The second return
// is false for names outside the vocabulary; callers degrade those to a
// comment node rather than failing.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindComment, false
}

// AllKinds returns the full vocabulary in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// HasBody reports whether nodes of this kind own nested chains.
func (k Kind) HasBody() bool {
	switch k {
	case KindRepeat, KindForRange, KindIfElse, KindWhileUntil, KindGroup:
		return true
	default:
		return false
	}
}

// BodySlotNames returns the closed list of body slot identifiers for a kind,
// in emission order. Kinds without bodies return nil.
func BodySlotNames(k Kind) []string {
	switch k {
	case KindRepeat, KindForRange, KindWhileUntil, KindGroup:
		return []string{SlotBody}
	case KindIfElse:
		return []string{SlotThen, SlotElse}
	default:
		return nil
	}
}

// Body slot identifiers
const (
	SlotBody = "body"
	SlotThen = "then"
	SlotElse = "else"
)

// Well-known field names shared by the converters and the code generator.
const (
	FieldDevice  = "device"  // alias of the targeted instrument
	FieldCommand = "command" // raw command text for write/query
	FieldTarget  = "target"  // variable receiving a query result
	FieldText    = "text"    // comment text
	FieldCode    = "code"    // raw code lines
	FieldSeconds = "seconds" // wait duration
	FieldCount   = "count"   // repeat iteration count
	FieldVar     = "var"     // loop variable name
	FieldFrom    = "from"    // range start (inclusive)
	FieldTo      = "to"      // range stop (inclusive)
	FieldBy      = "by"      // range step
	FieldMode    = "mode"    // whileUntil: "while" or "until"
	FieldName    = "name"    // assign target
	FieldPath    = "path"    // saveArtifact local file path
	FieldHost    = "host"    // connect fallback when no registry entry
	FieldPort    = "port"
	FieldValue   = "value"   // assign right-hand side when not an expression tree
)

// Value slot identifiers
const (
	SlotCond  = "cond"  // ifElse / whileUntil condition
	SlotValue = "value" // assign right-hand side
)
