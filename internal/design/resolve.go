package design

import (
	"svir/internal/hir"
	"svir/internal/types"
)

// typeNames resolves user type names for the parser. Broken definitions
// resolve to the error type so their users stay quiet.
type typeNames struct {
	in     *types.Interner
	store  *hir.Store
	byName map[string]types.TypeID
	intfs  map[string]*hir.InterfaceDecl
	broken map[string]bool
}

func (r *typeNames) ResolveType(name, modport string) (types.TypeID, bool) {
	if r.broken[name] {
		return r.in.Builtins().Error, true
	}
	ty, ok := r.byName[name]
	if !ok {
		return types.NoTypeID, false
	}
	if modport == "" {
		return ty, true
	}
	intf, ok := r.intfs[name]
	if !ok {
		return types.NoTypeID, false
	}
	member, ok := r.store.LookupMember(intf.ID(), modport)
	if !ok {
		return types.NoTypeID, false
	}
	if n, _ := r.store.Node(member); !hir.IsModportName(n) {
		return types.NoTypeID, false
	}
	return r.in.ModportView(ty, r.in.Strings.Intern(modport)), true
}
