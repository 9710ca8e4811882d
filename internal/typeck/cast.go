// Package typeck computes self-determined types and the cast chains that
// take an expression from its own type to the type its context demands.
package typeck

import (
	"fmt"
	"strings"

	"svir/internal/types"
)

// CastOp is a primitive conversion step.
type CastOp uint8

const (
	// CastPackSBV reinterprets a value as its simple bit vector.
	CastPackSBV CastOp = iota + 1
	// CastPickModport restricts an interface to one of its modports.
	CastPickModport
	// CastSign changes signedness.
	CastSign
	// CastRange truncates or extends to a different width.
	CastRange
	// CastDomain converts between two- and four-valued bits.
	CastDomain
	// CastBool reduces a vector to a single truth bit.
	CastBool
)

func (op CastOp) String() string {
	switch op {
	case CastPackSBV:
		return "PackSBV"
	case CastPickModport:
		return "PickModport"
	case CastSign:
		return "Sign"
	case CastRange:
		return "Range"
	case CastDomain:
		return "Domain"
	case CastBool:
		return "Bool"
	default:
		return fmt.Sprintf("CastOp(%d)", op)
	}
}

// Cast is one step of a cast chain.
type Cast struct {
	Op CastOp
	To types.TypeID
}

// CastType is the initial type of an expression, the steps applied to it and
// the final type demanded by its context. With no steps Init == Ty.
type CastType struct {
	Init  types.TypeID
	Casts []Cast
	Ty    types.TypeID
}

// Identity is the empty chain over ty.
func Identity(ty types.TypeID) CastType {
	return CastType{Init: ty, Ty: ty}
}

// ErrorChain is the chain of an expression whose type could not be computed.
func ErrorChain(in *types.Interner) CastType {
	return Identity(in.Builtins().Error)
}

// Then appends a step and returns the extended chain.
func (c CastType) Then(op CastOp, to types.TypeID) CastType {
	casts := make([]Cast, len(c.Casts), len(c.Casts)+1)
	copy(casts, c.Casts)
	return CastType{Init: c.Init, Casts: append(casts, Cast{Op: op, To: to}), Ty: to}
}

// IsError reports whether either end of the chain is the error type.
func (c CastType) IsError(in *types.Interner) bool {
	return in.IsError(c.Init) || in.IsError(c.Ty)
}

// Format renders the chain as "`init` -> Op `to` -> ...".
func (c CastType) Format(in *types.Interner) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`", in.Format(c.Init))
	for _, step := range c.Casts {
		fmt.Fprintf(&sb, " -> %s `%s`", step.Op, in.Format(step.To))
	}
	return sb.String()
}
