package token

import (
	"svir/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsTypeKeyword reports whether the token names a built-in data type.
func (t Token) IsTypeKeyword() bool {
	switch t.Kind {
	case KwBit, KwLogic, KwReg, KwByte, KwShortint, KwInt, KwLongint, KwInteger, KwTime:
		return true
	default:
		return false
	}
}

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind >= Plus && t.Kind <= RBracket
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
