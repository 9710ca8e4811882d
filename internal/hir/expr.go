package hir

import "fmt"

// ExprKind enumerates HIR expression kinds.
type ExprKind uint8

const (
	// ExprIdent is a plain identifier (`x`).
	ExprIdent ExprKind = iota
	// ExprScope is a scoped identifier (`pkg::x`).
	ExprScope
	// ExprIntLit is an integer literal.
	ExprIntLit
	// ExprIndex is bit/part-select or array element access (`x[i]`, `x[a:b]`, `x[a+:w]`).
	ExprIndex
	// ExprField is member or interface signal access (`x.name`).
	ExprField
	// ExprConcat is a concatenation, optionally replicated (`{a, b}`, `{n{a}}`).
	ExprConcat
	// ExprBinary is a binary arithmetic operator.
	ExprBinary
	// ExprUnary is a unary operator.
	ExprUnary
	// ExprCall is a function call.
	ExprCall
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "Ident"
	case ExprScope:
		return "Scope"
	case ExprIntLit:
		return "IntLit"
	case ExprIndex:
		return "Index"
	case ExprField:
		return "Field"
	case ExprConcat:
		return "Concat"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprCall:
		return "Call"
	default:
		return "Unknown"
	}
}

// Expr is an expression node. Sub-expressions are referenced by NodeID.
type Expr struct {
	NodeBase
	Kind ExprKind
	Text string // source text, used in descriptions
	Data ExprData
}

// Desc describes the expression the way diagnostics quote it.
func (e *Expr) Desc() string {
	var what string
	switch e.Kind {
	case ExprIdent, ExprScope:
		what = "name"
	case ExprIntLit:
		what = "literal"
	case ExprIndex:
		what = "index"
	case ExprField:
		what = "field access"
	case ExprConcat:
		what = "concatenation"
	case ExprBinary, ExprUnary:
		what = "operator"
	case ExprCall:
		what = "function call"
	default:
		what = "expression"
	}
	if e.Text == "" {
		return what
	}
	return fmt.Sprintf("%s `%s`", what, e.Text)
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// IdentData holds data for ExprIdent.
type IdentData struct {
	Name string
}

func (IdentData) exprData() {}

// ScopeData holds data for ExprScope.
type ScopeData struct {
	Scope string
	Name  string
}

func (ScopeData) exprData() {}

// IntLitData holds data for ExprIntLit.
type IntLitData struct {
	Value int64
}

func (IntLitData) exprData() {}

// IndexModeKind distinguishes the syntactic index forms.
type IndexModeKind uint8

const (
	// IndexOne selects a single element: `[a]`.
	IndexOne IndexModeKind = iota
	// IndexRange is an absolute part-select: `[a:b]`.
	IndexRange
	// IndexUp is an indexed part-select: `[a+:b]`.
	IndexUp
	// IndexDown is an indexed part-select: `[a-:b]`.
	IndexDown
)

// IndexMode is the index expression of ExprIndex. B is unused for IndexOne.
type IndexMode struct {
	Kind IndexModeKind
	A    NodeID
	B    NodeID
}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Target NodeID
	Mode   IndexMode
}

func (IndexData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Target NodeID
	Name   string
}

func (FieldData) exprData() {}

// ConcatData holds data for ExprConcat. Repeat is NoNodeID when the
// concatenation is not replicated.
type ConcatData struct {
	Repeat NodeID
	Parts  []NodeID
}

func (ConcatData) exprData() {}

// BinaryOp enumerates the supported binary operators.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryAdd:
		return "+"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	default:
		return "?"
	}
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op  BinaryOp
	LHS NodeID
	RHS NodeID
}

func (BinaryData) exprData() {}

// UnaryOp enumerates the supported unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
)

func (op UnaryOp) String() string {
	if op == UnaryNeg {
		return "-"
	}
	return "?"
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand NodeID
}

func (UnaryData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee string
	Args   []NodeID
}

func (CallData) exprData() {}
