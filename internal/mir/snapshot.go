package mir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"svir/internal/types"
)

// SnapshotSchema is bumped whenever the snapshot layout changes.
const SnapshotSchema uint16 = 1

// Snapshot is a self-contained, serialisable copy of one lowered lvalue.
// Types are stored formatted because TypeIDs only mean something inside the
// interner that produced them.
type Snapshot struct {
	Schema uint16         `msgpack:"schema"`
	Root   int            `msgpack:"root"`
	Nodes  []SnapshotNode `msgpack:"nodes"`
}

// SnapshotNode is one lvalue or rvalue of a Snapshot. Children refer to other
// nodes by index; -1 means absent.
type SnapshotNode struct {
	Rvalue bool   `msgpack:"rv,omitempty"`
	Kind   string `msgpack:"kind"`
	Type   string `msgpack:"type"`
	Origin uint32 `msgpack:"origin"`
	Env    uint32 `msgpack:"env"`
	Decl   uint32 `msgpack:"decl,omitempty"`
	Member uint32 `msgpack:"member,omitempty"`
	Field  int    `msgpack:"field,omitempty"`
	Length uint32 `msgpack:"len,omitempty"`
	Count  uint32 `msgpack:"count,omitempty"`
	Const  int64  `msgpack:"const,omitempty"`
	Op     string `msgpack:"op,omitempty"`
	Value  int    `msgpack:"value"`
	Base   int    `msgpack:"base"`
	Parts  []int  `msgpack:"parts,omitempty"`
}

type snapshotter struct {
	in    *types.Interner
	nodes []SnapshotNode
	lseen map[*Lvalue]int
	rseen map[*Rvalue]int
}

// TakeSnapshot flattens the tree rooted at l. Shared subtrees are stored once.
func TakeSnapshot(l *Lvalue, in *types.Interner) *Snapshot {
	s := &snapshotter{in: in, lseen: map[*Lvalue]int{}, rseen: map[*Rvalue]int{}}
	root := s.lvalue(l)
	return &Snapshot{Schema: SnapshotSchema, Root: root, Nodes: s.nodes}
}

// TakeRvalueSnapshot flattens the tree rooted at r.
func TakeRvalueSnapshot(r *Rvalue, in *types.Interner) *Snapshot {
	s := &snapshotter{in: in, lseen: map[*Lvalue]int{}, rseen: map[*Rvalue]int{}}
	root := s.rvalue(r)
	return &Snapshot{Schema: SnapshotSchema, Root: root, Nodes: s.nodes}
}

func (s *snapshotter) push(n SnapshotNode) int {
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

func (s *snapshotter) lvalue(l *Lvalue) int {
	if l == nil {
		return -1
	}
	if idx, ok := s.lseen[l]; ok {
		return idx
	}
	n := SnapshotNode{
		Kind:   l.Kind.String(),
		Type:   typeStr(s.in, l.Type),
		Origin: uint32(l.Origin),
		Env:    uint32(l.Env),
		Decl:   uint32(l.Decl),
		Member: uint32(l.Member),
		Field:  l.Field,
		Length: l.Length,
		Count:  l.Count,
		Value:  s.lvalue(l.Value),
		Base:   s.rvalue(l.Base),
	}
	for _, p := range l.Parts {
		n.Parts = append(n.Parts, s.lvalue(p))
	}
	idx := s.push(n)
	s.lseen[l] = idx
	return idx
}

func (s *snapshotter) rvalue(r *Rvalue) int {
	if r == nil {
		return -1
	}
	if idx, ok := s.rseen[r]; ok {
		return idx
	}
	n := SnapshotNode{
		Rvalue: true,
		Kind:   r.Kind.String(),
		Type:   typeStr(s.in, r.Type),
		Origin: uint32(r.Origin),
		Env:    uint32(r.Env),
		Decl:   uint32(r.Decl),
		Member: uint32(r.Member),
		Field:  r.Field,
		Length: r.Length,
		Count:  r.Count,
		Const:  r.Const,
		Value:  s.rvalue(r.Value),
		Base:   s.rvalue(r.Base),
	}
	switch r.Kind {
	case RvalueBinary:
		n.Op = r.BinaryOp.String()
	case RvalueUnary:
		n.Op = r.UnaryOp.String()
	}
	for _, a := range r.Args {
		n.Parts = append(n.Parts, s.rvalue(a))
	}
	idx := s.push(n)
	s.rseen[r] = idx
	return idx
}

// Encode writes the snapshot as msgpack.
func (s *Snapshot) Encode(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(s)
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	if s.Schema != SnapshotSchema {
		return nil, fmt.Errorf("snapshot schema %d, want %d", s.Schema, SnapshotSchema)
	}
	if s.Root < 0 || s.Root >= len(s.Nodes) {
		return nil, fmt.Errorf("snapshot root %d out of range", s.Root)
	}
	return &s, nil
}
