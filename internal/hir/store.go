package hir

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"svir/internal/source"
	"svir/internal/types"
)

// Store owns every HIR node of a session. Nodes are append-only; NodeIDs are
// dense and start at 1.
type Store struct {
	mu      sync.RWMutex
	nodes   []Node
	parents []NodeID
	names   map[string]NodeID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes:   []Node{nil}, // reserve 0 as NoNodeID
		parents: []NodeID{NoNodeID},
		names:   make(map[string]NodeID),
	}
}

func (s *Store) nextID() NodeID {
	n, err := safecast.Conv[uint32](len(s.nodes))
	if err != nil {
		panic(fmt.Errorf("hir: node id overflow: %w", err))
	}
	return NodeID(n)
}

func (s *Store) push(n Node) {
	s.nodes = append(s.nodes, n)
	s.parents = append(s.parents, NoNodeID)
}

// Len returns the number of nodes including the reserved slot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Node returns the node for id.
func (s *Store) Node(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == NoNodeID || int(id) >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[id], true
}

// Expr returns the expression node for id, or false if id is not an expression.
func (s *Store) Expr(id NodeID) (*Expr, bool) {
	n, ok := s.Node(id)
	if !ok {
		return nil, false
	}
	e, ok := n.(*Expr)
	return e, ok
}

// Parent returns the expression enclosing id, or NoNodeID for roots.
func (s *Store) Parent(id NodeID) NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.parents) {
		return NoNodeID
	}
	return s.parents[id]
}

// Declarations ---------------------------------------------------------------

// AddVar declares a variable or net.
func (s *Store) AddVar(name string, ty types.TypeID, net bool, span source.Span) *VarDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &VarDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Type: ty, Net: net}
	s.push(d)
	return d
}

// AddGenvar declares a genvar.
func (s *Store) AddGenvar(name string, span source.Span) *GenvarDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &GenvarDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name}
	s.push(d)
	return d
}

// AddPort declares a module port.
func (s *Store) AddPort(name string, dir PortDir, ty types.TypeID, span source.Span) *PortDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &PortDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Dir: dir, Type: ty}
	s.push(d)
	return d
}

// AddInst declares an instance of target. ty is the interface type for
// interface instances.
func (s *Store) AddInst(name string, target NodeID, ty types.TypeID, span source.Span) *InstDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &InstDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Target: target, Type: ty}
	s.push(d)
	return d
}

// AddParam declares a parameter with its default value.
func (s *Store) AddParam(name string, ty types.TypeID, value int64, local bool, span source.Span) *ParamDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &ParamDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Type: ty, Value: value, Local: local}
	s.push(d)
	return d
}

// AddModport declares a modport; attach it to an interface with AddMember.
func (s *Store) AddModport(name string, span source.Span) *ModportDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &ModportDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name}
	s.push(d)
	return d
}

// AddInterface declares an interface of type ty.
func (s *Store) AddInterface(name string, ty types.TypeID, span source.Span) *InterfaceDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &InterfaceDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Type: ty}
	s.push(d)
	return d
}

// AddMember appends a signal or modport to an interface.
func (s *Store) AddMember(intf *InterfaceDecl, member NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intf.Members = append(intf.Members, member)
	if int(member) < len(s.parents) {
		s.parents[member] = intf.id
	}
}

// AddModule declares a module.
func (s *Store) AddModule(name string, span source.Span) *ModuleDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &ModuleDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name}
	s.push(d)
	return d
}

// AddFunc declares a function.
func (s *Store) AddFunc(name string, result types.TypeID, span source.Span) *FuncDecl {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &FuncDecl{NodeBase: NodeBase{id: s.nextID(), span: span}, Name: name, Result: result}
	s.push(d)
	return d
}

// Expressions ----------------------------------------------------------------

// AddExpr appends an expression and records it as the parent of its operands.
func (s *Store) AddExpr(kind ExprKind, data ExprData, text string, span source.Span) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Expr{NodeBase: NodeBase{id: s.nextID(), span: span}, Kind: kind, Text: text, Data: data}
	s.push(e)
	for _, child := range Children(e) {
		if child != NoNodeID && int(child) < len(s.parents) {
			s.parents[child] = e.id
		}
	}
	return e.id
}

// Ident appends an identifier expression.
func (s *Store) Ident(name string, span source.Span) NodeID {
	return s.AddExpr(ExprIdent, IdentData{Name: name}, name, span)
}

// IntLit appends an integer literal.
func (s *Store) IntLit(v int64, span source.Span) NodeID {
	return s.AddExpr(ExprIntLit, IntLitData{Value: v}, fmt.Sprint(v), span)
}

// Children lists the operand expressions of e in source order.
func Children(e *Expr) []NodeID {
	switch d := e.Data.(type) {
	case IndexData:
		if d.Mode.Kind == IndexOne {
			return []NodeID{d.Target, d.Mode.A}
		}
		return []NodeID{d.Target, d.Mode.A, d.Mode.B}
	case FieldData:
		return []NodeID{d.Target}
	case ConcatData:
		out := make([]NodeID, 0, len(d.Parts)+1)
		if d.Repeat != NoNodeID {
			out = append(out, d.Repeat)
		}
		return append(out, d.Parts...)
	case BinaryData:
		return []NodeID{d.LHS, d.RHS}
	case UnaryData:
		return []NodeID{d.Operand}
	case CallData:
		return d.Args
	default:
		return nil
	}
}

// Scope ----------------------------------------------------------------------

// Declare binds name to a declaration. Qualified names use "scope::name".
func (s *Store) Declare(name string, id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.names[name]; ok {
		return fmt.Errorf("%q already declared as node %d", name, prev)
	}
	s.names[name] = id
	return nil
}

// Lookup finds the declaration bound to name; scope may be empty.
func (s *Store) Lookup(scope, name string) (NodeID, bool) {
	key := name
	if scope != "" {
		key = scope + "::" + name
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[key]
	return id, ok
}

// LookupMember finds a signal or modport of an interface declaration by name.
func (s *Store) LookupMember(intf NodeID, name string) (NodeID, bool) {
	n, ok := s.Node(intf)
	if !ok {
		return NoNodeID, false
	}
	decl, ok := n.(*InterfaceDecl)
	if !ok {
		return NoNodeID, false
	}
	for _, m := range decl.Members {
		mn, ok := s.Node(m)
		if !ok {
			continue
		}
		if DeclName(mn) == name {
			return m, true
		}
	}
	return NoNodeID, false
}

// DeclName returns the declared name of a declaration node, or "" for
// expressions.
func DeclName(n Node) string {
	switch d := n.(type) {
	case *VarDecl:
		return d.Name
	case *GenvarDecl:
		return d.Name
	case *PortDecl:
		return d.Name
	case *InstDecl:
		return d.Name
	case *ParamDecl:
		return d.Name
	case *ModportDecl:
		return d.Name
	case *InterfaceDecl:
		return d.Name
	case *ModuleDecl:
		return d.Name
	case *FuncDecl:
		return d.Name
	default:
		return ""
	}
}
