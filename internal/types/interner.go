package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"svir/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Error    TypeID
	Void     TypeID
	Bit      TypeID
	Logic    TypeID
	Byte     TypeID
	Shortint TypeID
	Int      TypeID
	Longint  TypeID
	Integer  TypeID
	Time     TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Two structurally equal descriptors always share a TypeID, so type identity
// is a plain TypeID comparison. Nominal types (structs, interfaces) get a
// fresh slot per registration.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	structs  []StructInfo
	intfs    []InterfaceInfo

	Strings *source.Interner
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner(strs *source.Interner) *Interner {
	if strs == nil {
		strs = source.NewInterner()
	}
	in := &Interner{
		types:   make([]Type, 0, 64),
		index:   make(map[typeKey]TypeID, 64),
		Strings: strs,
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 as NoTypeID
	in.structs = append(in.structs, StructInfo{})      // reserve 0 as invalid sentinel
	in.intfs = append(in.intfs, InterfaceInfo{})
	in.builtins.Error = in.Intern(Type{Kind: KindError})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bit = in.Intern(MakeScalar(TwoValued, Unsigned))
	in.builtins.Logic = in.Intern(MakeScalar(FourValued, Unsigned))
	in.builtins.Byte = in.Intern(MakeIntAtom(TwoValued, Signed, 8))
	in.builtins.Shortint = in.Intern(MakeIntAtom(TwoValued, Signed, 16))
	in.builtins.Int = in.Intern(MakeIntAtom(TwoValued, Signed, 32))
	in.builtins.Longint = in.Intern(MakeIntAtom(TwoValued, Signed, 64))
	in.builtins.Integer = in.Intern(MakeIntAtom(FourValued, Signed, 32))
	in.builtins.Time = in.Intern(MakeIntAtom(FourValued, Unsigned, 64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRawLocked(t)
}

// internRawLocked adds the descriptor to the storage without consulting the map.
func (in *Interner) internRawLocked(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// IsError reports whether id is absent or the error type.
func (in *Interner) IsError(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return !ok || tt.Kind == KindError
}

// Len returns the number of interned types including the reserved slot.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Domain  Domain
	Sign    Sign
	Width   uint32
	Left    int32
	Right   int32
	Payload uint32
	Modport uint32
}
