// Package hir provides the resolved syntax model consumed by MIR construction.
//
// HIR sits between the parsed design description and MIR. Every expression
// and declaration is a node in a Store and is addressed by a NodeID that is
// stable for the whole session. Names are already attached to the
// declarations they denote through the Store scope; types of declarations are
// interned types.TypeIDs.
package hir

// NodeID is a session-stable node identifier.
type NodeID uint32

// ParamEnv identifies the parameter bindings a node is elaborated under.
// The same node lowered under two environments may produce different MIR,
// so (NodeID, ParamEnv) is the unit of caching.
type ParamEnv uint32

// Invalid ID constants (zero is sentinel).
const (
	NoNodeID NodeID   = 0
	RootEnv  ParamEnv = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool { return id != NoNodeID }
