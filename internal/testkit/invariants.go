// Package testkit holds structural checks shared by parser tests and fuzz
// harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/hir"
	"svir/internal/source"
)

// CheckExprInvariants walks the expression tree under root and checks:
// 1) every span is non-empty, points at sf and ends inside its content
// 2) every operand span lies inside the span of its parent
// 3) the store records the parent of every operand
// 4) non-identifier nodes keep the exact source text of their span
// Operands are checked before the text of their parent, so a misplaced
// operand is reported as such.
func CheckExprInvariants(store *hir.Store, root hir.NodeID, sf *source.File) error {
	if store == nil || sf == nil {
		return fmt.Errorf("nil store or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	return checkExpr(store, root, hir.NoNodeID, source.Span{}, sf, size)
}

func checkExpr(store *hir.Store, id, parent hir.NodeID, outer source.Span, sf *source.File, size uint32) error {
	e, ok := store.Expr(id)
	if !ok {
		return fmt.Errorf("node %d is not an expression", id)
	}
	sp := e.Span()
	if sp.Empty() {
		return fmt.Errorf("%s: empty span %v", e.Kind, sp)
	}
	if sp.File != sf.ID {
		return fmt.Errorf("%s: span points to file %d, want %d", e.Kind, sp.File, sf.ID)
	}
	if sp.End > size {
		return fmt.Errorf("%s: span end beyond content: %d > %d", e.Kind, sp.End, size)
	}
	if parent != hir.NoNodeID {
		if !outer.Contains(sp) {
			return fmt.Errorf("%s span %v is outside its parent %v", e.Kind, sp, outer)
		}
		if got := store.Parent(id); got != parent {
			return fmt.Errorf("%s: parent %d, want %d", e.Kind, got, parent)
		}
	}
	for _, child := range hir.Children(e) {
		if err := checkExpr(store, child, id, sp, sf, size); err != nil {
			return err
		}
	}
	// имена нормализуются в NFC, их текст может отличаться от исходника
	if e.Kind != hir.ExprIdent {
		if text := string(sf.Content[sp.Start:sp.End]); e.Text != text {
			return fmt.Errorf("%s: text %q, source has %q", e.Kind, e.Text, text)
		}
	}
	return nil
}
