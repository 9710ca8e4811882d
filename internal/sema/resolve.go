package sema

import (
	"fmt"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/query"
	"svir/internal/source"
	"svir/internal/types"
)

// ResolveNode returns the declaration an identifier, scoped identifier or
// call names. Resolution does not depend on env; results are shared.
func (db *DB) ResolveNode(id hir.NodeID, _ hir.ParamEnv) (hir.NodeID, error) {
	r := db.names.Get(query.Key{Node: id, Env: hir.RootEnv}, func() resolution {
		decl, err := db.resolveNode(id)
		return resolution{decl: decl, err: err}
	})
	return r.decl, r.err
}

func (db *DB) resolveNode(id hir.NodeID) (hir.NodeID, error) {
	e, ok := db.store.Expr(id)
	if !ok {
		return hir.NoNodeID, fmt.Errorf("%w: %d is not an expression", ErrNoNode, id)
	}
	var scope, name string
	switch d := e.Data.(type) {
	case hir.IdentData:
		name = d.Name
	case hir.ScopeData:
		scope, name = d.Scope, d.Name
	case hir.CallData:
		name = d.Callee
	default:
		return hir.NoNodeID, fmt.Errorf("%w: %s does not name a declaration", ErrUnresolved, e.Desc())
	}
	if decl, ok := db.store.Lookup(scope, name); ok {
		return decl, nil
	}
	full := name
	if scope != "" {
		full = scope + "::" + name
	}
	diag.ReportError(db.reporter, diag.SemaUnresolvedName, e.Span(),
		fmt.Sprintf("unknown name `%s`", full)).Emit()
	return hir.NoNodeID, fmt.Errorf("%w: %s", ErrUnresolved, full)
}

// ResolveFieldAccess resolves `target.name` on a struct to the member ordinal
// and member type.
func (db *DB) ResolveFieldAccess(id hir.NodeID, env hir.ParamEnv) (int, types.TypeID, error) {
	e, ok := db.store.Expr(id)
	if !ok {
		return -1, types.NoTypeID, fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	d, ok := e.Data.(hir.FieldData)
	if !ok {
		return -1, types.NoTypeID, fmt.Errorf("%w: %s is not a member access", ErrUnknownField, e.Desc())
	}
	target := db.SelfDeterminedType(d.Target, env)
	if db.types.IsError(target) {
		return -1, types.NoTypeID, ErrUpstream
	}
	if _, ok := db.types.StructInfo(target); !ok {
		diag.ReportError(db.reporter, diag.SemaNoFieldsOnType, e.Span(),
			fmt.Sprintf("type `%s` has no members", db.types.Format(target))).Emit()
		return -1, types.NoTypeID, fmt.Errorf("%w: %s", ErrUnknownField, d.Name)
	}
	idx, ty, ok := db.types.MemberIndex(target, db.types.Strings.Intern(d.Name))
	if !ok {
		diag.ReportError(db.reporter, diag.SemaUnknownField, e.Span(),
			fmt.Sprintf("no member `%s` in `%s`", d.Name, db.types.Format(target))).Emit()
		return -1, types.NoTypeID, fmt.Errorf("%w: %s", ErrUnknownField, d.Name)
	}
	return idx, ty, nil
}

// ResolveHierarchical looks name up among the signals and modports of the
// interface declared by scope.
func (db *DB) ResolveHierarchical(name string, span source.Span, scope hir.NodeID) (hir.NodeID, error) {
	if member, ok := db.store.LookupMember(scope, name); ok {
		return member, nil
	}
	owner := "interface"
	if n, ok := db.store.Node(scope); ok {
		owner = n.Desc()
	}
	diag.ReportError(db.reporter, diag.SemaUnknownMember, span,
		fmt.Sprintf("no member `%s` in %s", name, owner)).Emit()
	return hir.NoNodeID, fmt.Errorf("%w: %s", ErrUnknownField, name)
}
