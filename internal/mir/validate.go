package mir

import (
	"errors"
	"fmt"

	"svir/internal/hir"
	"svir/internal/types"
)

// ValidateLvalue checks the structural invariants of an lvalue tree.
// Returns error if any invariant is violated.
func ValidateLvalue(l *Lvalue, typesIn *types.Interner) error {
	if l == nil {
		return errors.New("nil lvalue")
	}
	var errs []error
	walkLvalue(l, func(n *Lvalue) {
		if err := validateLvalueNode(n, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("%s #%d: %w", n.Kind, n.ID, err))
		}
	})
	return errors.Join(errs...)
}

func walkLvalue(l *Lvalue, visit func(*Lvalue)) {
	if l == nil {
		return
	}
	visit(l)
	walkLvalue(l.Value, visit)
	for _, p := range l.Parts {
		walkLvalue(p, visit)
	}
}

func validateLvalueNode(l *Lvalue, typesIn *types.Interner) error {
	if l.Kind == LvalueError {
		if !typesIn.IsError(l.Type) {
			return fmt.Errorf("error node has type `%s`", typesIn.Format(l.Type))
		}
		return nil
	}
	if typesIn.IsError(l.Type) {
		return errors.New("non-error node has the error type")
	}
	width, sized := typesIn.BitSize(l.Type)

	switch l.Kind {
	case LvalueGenvar, LvalueVar, LvaluePort, LvalueIntf:
		if l.Decl == hir.NoNodeID {
			return errors.New("missing declaration")
		}

	case LvalueIntfSignal:
		if l.Value == nil || l.Member == hir.NoNodeID {
			return errors.New("interface signal without interface or member")
		}

	case LvalueIndex:
		if l.Value == nil {
			return errors.New("index without target")
		}
		if l.Base == nil || l.Base.IsError() {
			return errors.New("index without base")
		}
		if l.Length == 0 {
			return errors.New("empty selection")
		}
		elem, ok := typesIn.PopDim(l.Value.Type)
		if !ok {
			return fmt.Errorf("target `%s` has no dimension", typesIn.Format(l.Value.Type))
		}
		if ew, ok := typesIn.BitSize(elem); ok && sized && uint64(ew)*uint64(l.Length) != uint64(width) {
			return fmt.Errorf("selects %d x %d bits into `%s`", l.Length, ew, typesIn.Format(l.Type))
		}

	case LvalueMember:
		if l.Value == nil {
			return errors.New("member without target")
		}
		info, ok := typesIn.StructInfo(l.Value.Type)
		if !ok || l.Field < 0 || l.Field >= len(info.Members) {
			return fmt.Errorf("field %d out of range for `%s`", l.Field, typesIn.Format(l.Value.Type))
		}
		if info.Members[l.Field].Type != l.Type {
			return fmt.Errorf("member type `%s` relabelled as `%s`",
				typesIn.Format(info.Members[l.Field].Type), typesIn.Format(l.Type))
		}

	case LvalueConcat:
		if len(l.Parts) == 0 {
			return errors.New("empty concatenation")
		}
		var sum uint64
		for i, p := range l.Parts {
			if p == nil {
				return fmt.Errorf("part %d is nil", i)
			}
			if !typesIn.CoalescesToScalar(p.Type) {
				return fmt.Errorf("part %d of type `%s` is not flat", i, typesIn.Format(p.Type))
			}
			w, _ := typesIn.BitSize(p.Type)
			sum += uint64(w)
		}
		if !sized || sum != uint64(width) {
			return fmt.Errorf("parts sum to %d bits, node is `%s`", sum, typesIn.Format(l.Type))
		}

	case LvalueRepeat:
		if l.Value == nil || l.Value.Kind != LvalueConcat {
			return errors.New("repeat of a non-concatenation")
		}
		inner, _ := typesIn.BitSize(l.Value.Type)
		if uint64(inner)*uint64(l.Count) != uint64(width) {
			return fmt.Errorf("%d x %d bits repeated into `%s`", l.Count, inner, typesIn.Format(l.Type))
		}

	case LvalueTransmute:
		if l.Value == nil {
			return errors.New("transmute of nothing")
		}
		from, _ := typesIn.BitSize(l.Value.Type)
		if !sized || from != width {
			return fmt.Errorf("transmute changes width from %d to %d", from, width)
		}

	default:
		return fmt.Errorf("unknown lvalue kind %d", l.Kind)
	}
	return nil
}
