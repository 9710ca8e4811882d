package parser

import (
	"svir/internal/hir"
	"svir/internal/token"
)

// getBinaryOperatorPrec возвращает приоритет бинарного оператора; -1 если это не оператор.
// Все операторы левоассоциативны.
func getBinaryOperatorPrec(k token.Kind) int {
	switch k {
	case token.Plus, token.Minus:
		return 1
	case token.Star:
		return 2
	default:
		return -1
	}
}

func tokenKindToBinaryOp(k token.Kind) hir.BinaryOp {
	switch k {
	case token.Minus:
		return hir.BinarySub
	case token.Star:
		return hir.BinaryMul
	default:
		return hir.BinaryAdd
	}
}
