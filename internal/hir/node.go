package hir

import (
	"fmt"

	"svir/internal/source"
	"svir/internal/types"
)

// Node is any HIR node.
type Node interface {
	ID() NodeID
	Span() source.Span
	// Desc is a short description such as "variable `x`".
	Desc() string
	node()
}

// NodeBase carries identity and location shared by all nodes.
type NodeBase struct {
	id   NodeID
	span source.Span
}

func (b NodeBase) ID() NodeID        { return b.id }
func (b NodeBase) Span() source.Span { return b.span }
func (NodeBase) node()               {}

func named(kind, name string) string {
	return fmt.Sprintf("%s `%s`", kind, name)
}

// PortDir is the direction of a module port.
type PortDir uint8

const (
	PortInput PortDir = iota
	PortOutput
	PortInout
	PortRef
)

func (d PortDir) String() string {
	switch d {
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	case PortInout:
		return "inout"
	case PortRef:
		return "ref"
	default:
		return "port"
	}
}

// VarDecl is a variable or net declaration.
type VarDecl struct {
	NodeBase
	Name string
	Type types.TypeID
	Net  bool
}

func (d *VarDecl) Desc() string {
	if d.Net {
		return named("net", d.Name)
	}
	return named("variable", d.Name)
}

// GenvarDecl is a generate loop variable.
type GenvarDecl struct {
	NodeBase
	Name string
}

func (d *GenvarDecl) Desc() string { return named("genvar", d.Name) }

// PortDecl is a module port. Interface ports have an interface (or modport
// view) type.
type PortDecl struct {
	NodeBase
	Name string
	Dir  PortDir
	Type types.TypeID
}

func (d *PortDecl) Desc() string { return named(d.Dir.String()+" port", d.Name) }

// InstDecl instantiates a module or interface.
type InstDecl struct {
	NodeBase
	Name   string
	Target NodeID
	Type   types.TypeID // interface type for interface instances, else NoTypeID
}

func (d *InstDecl) Desc() string { return named("instance", d.Name) }

// ParamDecl is a value parameter. Value is the default used under the root
// environment.
type ParamDecl struct {
	NodeBase
	Name  string
	Type  types.TypeID
	Value int64
	Local bool
}

func (d *ParamDecl) Desc() string {
	if d.Local {
		return named("localparam", d.Name)
	}
	return named("parameter", d.Name)
}

// ModportDecl is a named view inside an interface.
type ModportDecl struct {
	NodeBase
	Name string
}

func (d *ModportDecl) Desc() string { return named("modport", d.Name) }

// InterfaceDecl declares an interface; Members are signals (VarDecl) and
// modports (ModportDecl).
type InterfaceDecl struct {
	NodeBase
	Name    string
	Type    types.TypeID
	Members []NodeID
}

func (d *InterfaceDecl) Desc() string { return named("interface", d.Name) }

// ModuleDecl declares a module.
type ModuleDecl struct {
	NodeBase
	Name string
}

func (d *ModuleDecl) Desc() string { return named("module", d.Name) }

// FuncDecl declares a function.
type FuncDecl struct {
	NodeBase
	Name   string
	Result types.TypeID
}

func (d *FuncDecl) Desc() string { return named("function", d.Name) }

// IsModportName reports whether n names a modport.
func IsModportName(n Node) bool {
	_, ok := n.(*ModportDecl)
	return ok
}
