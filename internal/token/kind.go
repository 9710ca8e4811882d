package token

import "fmt"

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// Number is a decimal, sized or based integer literal.
	Number

	// KwBit represents the 'bit' keyword.
	KwBit
	// KwLogic represents the 'logic' keyword.
	KwLogic
	// KwReg is an alias of logic.
	KwReg
	// KwByte represents the 'byte' keyword.
	KwByte
	// KwShortint represents the 'shortint' keyword.
	KwShortint
	// KwInt represents the 'int' keyword.
	KwInt
	// KwLongint represents the 'longint' keyword.
	KwLongint
	// KwInteger represents the 'integer' keyword.
	KwInteger
	// KwTime represents the 'time' keyword.
	KwTime
	// KwSigned represents the 'signed' keyword.
	KwSigned
	// KwUnsigned represents the 'unsigned' keyword.
	KwUnsigned

	// Plus represents the plus operator token.
	Plus // +
	// Minus represents the minus operator token.
	Minus // -
	// Star represents the star operator token.
	Star // *
	// Colon represents the colon operator token.
	Colon // :
	// PlusColon starts an ascending indexed part-select.
	PlusColon // +:
	// MinusColon starts a descending indexed part-select.
	MinusColon // -:
	// ColonColon represents the scope resolution operator.
	ColonColon // ::
	// Comma represents the comma operator token.
	Comma // ,
	// Dot represents the dot operator token.
	Dot // .
	// Dollar separates packed from unpacked dimensions in type descriptions.
	Dollar // $
	// LParen represents the left parenthesis operator token.
	LParen // (
	// RParen represents the right parenthesis operator token.
	RParen // )
	// LBrace represents the left brace operator token.
	LBrace // {
	// RBrace represents the right brace operator token.
	RBrace // }
	// LBracket represents the left bracket operator token.
	LBracket // [
	// RBracket represents the right bracket operator token.
	RBracket // ]
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of input",
	Ident:      "identifier",
	Number:     "number",
	KwBit:      "bit",
	KwLogic:    "logic",
	KwReg:      "reg",
	KwByte:     "byte",
	KwShortint: "shortint",
	KwInt:      "int",
	KwLongint:  "longint",
	KwInteger:  "integer",
	KwTime:     "time",
	KwSigned:   "signed",
	KwUnsigned: "unsigned",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Colon:      ":",
	PlusColon:  "+:",
	MinusColon: "-:",
	ColonColon: "::",
	Comma:      ",",
	Dot:        ".",
	Dollar:     "$",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}
