package sema

import (
	"fmt"

	"svir/internal/diag"
	"svir/internal/hir"
)

// ConstantIntValueOf evaluates id as an elaboration-time integer under env.
// Parameters take their env binding or their default; genvars are constant
// only when env binds them.
func (db *DB) ConstantIntValueOf(id hir.NodeID, env hir.ParamEnv) (int64, error) {
	e, ok := db.store.Expr(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	switch d := e.Data.(type) {
	case hir.IntLitData:
		return d.Value, nil

	case hir.IdentData, hir.ScopeData:
		decl, err := db.ResolveNode(id, env)
		if err != nil {
			return 0, err
		}
		n, _ := db.store.Node(decl)
		switch dn := n.(type) {
		case *hir.ParamDecl:
			if v, ok := db.binding(env, decl); ok {
				return v, nil
			}
			return dn.Value, nil
		case *hir.GenvarDecl:
			if v, ok := db.binding(env, decl); ok {
				return v, nil
			}
		}
		return 0, db.notConstant(e, fmt.Sprintf("%s is not a constant", n.Desc()))

	case hir.BinaryData:
		lhs, err := db.ConstantIntValueOf(d.LHS, env)
		if err != nil {
			return 0, err
		}
		rhs, err := db.ConstantIntValueOf(d.RHS, env)
		if err != nil {
			return 0, err
		}
		switch d.Op {
		case hir.BinaryAdd:
			return lhs + rhs, nil
		case hir.BinarySub:
			return lhs - rhs, nil
		case hir.BinaryMul:
			return lhs * rhs, nil
		}

	case hir.UnaryData:
		v, err := db.ConstantIntValueOf(d.Operand, env)
		if err != nil {
			return 0, err
		}
		if d.Op == hir.UnaryNeg {
			return -v, nil
		}
	}
	return 0, db.notConstant(e, fmt.Sprintf("%s is not a constant expression", e.Desc()))
}

func (db *DB) notConstant(e *hir.Expr, msg string) error {
	diag.ReportError(db.reporter, diag.SemaNotConstant, e.Span(), msg).Emit()
	return fmt.Errorf("%w: %s", ErrNotConstant, e.Desc())
}
