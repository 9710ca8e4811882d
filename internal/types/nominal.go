package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"svir/internal/source"
)

// StructMember describes a single member of a struct type.
type StructMember struct {
	Name source.StringID
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name    source.StringID
	Decl    source.Span
	Packed  bool
	Members []StructMember
}

// InterfaceInfo stores metadata for an interface type. Node is the declaring
// HIR node, kept opaque here so scope lookups stay in the resolver.
type InterfaceInfo struct {
	Name source.StringID
	Decl source.Span
	Node uint32
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name source.StringID, decl source.Span, packed bool) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nominalSlot(len(in.structs))
	in.structs = append(in.structs, StructInfo{Name: name, Decl: decl, Packed: packed})
	return in.internRawLocked(Type{Kind: KindStruct, Payload: slot})
}

// SetStructMembers stores the resolved member descriptors for the struct type.
func (in *Interner) SetStructMembers(typeID TypeID, members []StructMember) {
	in.mu.Lock()
	defer in.mu.Unlock()
	info := in.structInfoLocked(typeID)
	if info == nil {
		return
	}
	info.Members = slices.Clone(members)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	info := in.structInfoLocked(typeID)
	return info, info != nil
}

// MemberIndex finds a struct member by name.
func (in *Interner) MemberIndex(typeID TypeID, name source.StringID) (int, TypeID, bool) {
	info, ok := in.StructInfo(typeID)
	if !ok {
		return -1, NoTypeID, false
	}
	for i, m := range info.Members {
		if m.Name == name {
			return i, m.Type, true
		}
	}
	return -1, NoTypeID, false
}

func (in *Interner) structInfoLocked(typeID TypeID) *StructInfo {
	if typeID == NoTypeID || int(typeID) >= len(in.types) {
		return nil
	}
	tt := in.types[typeID]
	if tt.Kind != KindStruct || tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

// RegisterInterface allocates a nominal interface type.
func (in *Interner) RegisterInterface(name source.StringID, decl source.Span, node uint32) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nominalSlot(len(in.intfs))
	in.intfs = append(in.intfs, InterfaceInfo{Name: name, Decl: decl, Node: node})
	return in.internRawLocked(Type{Kind: KindInterface, Payload: slot})
}

// ModportView returns the interface type restricted to the named modport.
// Views of the same interface and modport are identical.
func (in *Interner) ModportView(intf TypeID, modport source.StringID) TypeID {
	tt, ok := in.Lookup(intf)
	if !ok || tt.Kind != KindInterface {
		return in.builtins.Error
	}
	return in.Intern(Type{Kind: KindInterface, Payload: tt.Payload, Modport: uint32(modport)})
}

// Interface returns interface metadata for an interface type or modport view.
func (in *Interner) Interface(id TypeID) (*InterfaceInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return nil, false
	}
	tt := in.types[id]
	if tt.Kind != KindInterface || tt.Payload == 0 || int(tt.Payload) >= len(in.intfs) {
		return nil, false
	}
	return &in.intfs[tt.Payload], true
}

// Modport returns the modport a view is restricted to, if any.
func (in *Interner) Modport(id TypeID) (source.StringID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInterface || tt.Modport == 0 {
		return source.NoStringID, false
	}
	return source.StringID(tt.Modport), true
}

func nominalSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("nominal slot overflow: %w", err))
	}
	return slot
}
