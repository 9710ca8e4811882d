package design

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/lexer"
	"svir/internal/parser"
	"svir/internal/project"
	"svir/internal/project/dag"
	"svir/internal/sema"
	"svir/internal/source"
	"svir/internal/token"
	"svir/internal/typeck"
	"svir/internal/types"
)

type builder struct {
	fs      *source.FileSet
	m       *project.Manifest
	rep     diag.Reporter
	d       *Design
	names   *typeNames
	modules map[string]*hir.ModuleDecl
}

// typeDef is a struct or interface definition before registration.
type typeDef struct {
	meta    project.DefMeta
	strct   *project.StructSpec
	intf    *project.InterfaceSpec
	members []*source.File // type snippets of members or signals
	index   int            // position in its manifest section
}

func newBuilder(fs *source.FileSet, m *project.Manifest, reporter diag.Reporter) *builder {
	in := types.NewInterner(nil)
	store := hir.NewStore()
	return &builder{
		fs:  fs,
		m:   m,
		rep: reporter,
		d: &Design{
			Name:  m.Name,
			Files: fs,
			Store: store,
			Types: in,
			DB:    sema.New(store, in, reporter),
			Envs:  []Env{{Name: RootEnv, ID: hir.RootEnv}},
		},
		names: &typeNames{
			in:     in,
			store:  store,
			byName: make(map[string]types.TypeID),
			intfs:  make(map[string]*hir.InterfaceDecl),
			broken: make(map[string]bool),
		},
		modules: make(map[string]*hir.ModuleDecl),
	}
}

// snippet registers one string of the description as a virtual file so
// diagnostics can point into it, e.g. `svir.toml#vars[2].type`.
func (b *builder) snippet(text, format string, args ...any) *source.File {
	id := b.fs.AddVirtual(b.m.Path+"#"+fmt.Sprintf(format, args...), []byte(text))
	return b.fs.Get(id)
}

func whole(f *source.File) source.Span {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("snippet %q too large: %w", f.Path, err))
	}
	return source.Span{File: f.ID, End: end}
}

func normName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// named registers the snippet holding a declaration name; empty names are
// reported and yield false.
func (b *builder) named(raw, format string, args ...any) (string, source.Span, bool) {
	f := b.snippet(raw, format, args...)
	name := normName(raw)
	if name == "" {
		diag.ReportError(b.rep, diag.DesLoadError, whole(f), "declaration has an empty name").Emit()
		return "", whole(f), false
	}
	return name, whole(f), true
}

func (b *builder) parseType(f *source.File) types.TypeID {
	ty, _ := parser.ParseType(f, b.d.Types, b.names, parser.Options{Reporter: b.rep})
	return ty
}

func (b *builder) declare(name string, n hir.Node) {
	if err := b.d.Store.Declare(name, n.ID()); err == nil {
		return
	}
	scope, local := splitName(name)
	rb := diag.ReportError(b.rep, diag.DesDuplicateDecl, n.Span(), fmt.Sprintf("`%s` is declared more than once", name))
	if prev, ok := b.d.Store.Lookup(scope, local); ok {
		if pn, ok := b.d.Store.Node(prev); ok {
			rb.WithNote(pn.Span(), "previous declaration")
		}
	}
	rb.Emit()
}

func splitName(name string) (scope, local string) {
	if s, l, ok := strings.Cut(name, "::"); ok {
		return s, l
	}
	return "", name
}

// firstUse returns the user type a type description starts with, if any.
func firstUse(f *source.File) (project.UseMeta, bool) {
	tok := lexer.New(f, lexer.Options{}).Next()
	if tok.Kind != token.Ident {
		return project.UseMeta{}, false
	}
	return project.UseMeta{Name: normName(tok.Text), Span: tok.Span}, true
}

// Types ----------------------------------------------------------------------

func (b *builder) typeDefs() {
	var defs []*typeDef
	for i := range b.m.Structs {
		s := &b.m.Structs[i]
		name, sp, ok := b.named(s.Name, "structs[%d]", i)
		if !ok {
			continue
		}
		def := &typeDef{meta: project.DefMeta{Name: name, Span: sp}, strct: s, index: i}
		for j, mem := range s.Members {
			def.members = append(def.members, b.snippet(mem.Type, "structs[%d].members[%d]", i, j))
		}
		defs = append(defs, def)
	}
	for i := range b.m.Interfaces {
		s := &b.m.Interfaces[i]
		name, sp, ok := b.named(s.Name, "interfaces[%d]", i)
		if !ok {
			continue
		}
		def := &typeDef{meta: project.DefMeta{Name: name, Span: sp}, intf: s, index: i}
		for j, sig := range s.Signals {
			def.members = append(def.members, b.snippet(sig.Type, "interfaces[%d].signals[%d]", i, j))
		}
		defs = append(defs, def)
	}

	metas := make([]project.DefMeta, 0, len(defs))
	nodes := make([]dag.DefNode, 0, len(defs))
	for _, def := range defs {
		for _, f := range def.members {
			if use, ok := firstUse(f); ok {
				def.meta.Uses = append(def.meta.Uses, use)
			}
		}
		metas = append(metas, def.meta)
		nodes = append(nodes, dag.DefNode{Meta: def.meta, Reporter: b.rep})
	}
	idx := dag.BuildIndex(metas)
	graph, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(graph)
	dag.ReportCycles(idx, slots, topo)
	dag.PropagateBroken(graph, slots, topo)
	for _, slot := range slots {
		if slot.Present && slot.Broken {
			b.names.broken[slot.Meta.Name] = true
		}
	}

	// все имена регистрируются до разбора членов: ссылки номинальные
	byName := make(map[string]*typeDef, len(defs))
	for _, def := range defs {
		name := def.meta.Name
		if b.names.broken[name] {
			continue
		}
		byName[name] = def
		sid := b.d.Types.Strings.Intern(name)
		if def.strct != nil {
			b.names.byName[name] = b.d.Types.RegisterStruct(sid, def.meta.Span, def.strct.Packed)
			continue
		}
		decl := b.d.Store.AddInterface(name, types.NoTypeID, def.meta.Span)
		decl.Type = b.d.Types.RegisterInterface(sid, def.meta.Span, uint32(decl.ID()))
		b.names.byName[name] = decl.Type
		b.names.intfs[name] = decl
	}

	for _, id := range topo.Order {
		def, ok := byName[idx.IDToName[int(id)]]
		if !ok {
			continue
		}
		if def.strct != nil {
			b.structMembers(def)
		} else {
			b.interfaceMembers(def)
		}
	}
}

func (b *builder) structMembers(def *typeDef) {
	in := b.d.Types
	if len(def.strct.Members) == 0 {
		diag.ReportError(b.rep, diag.DesBadType, def.meta.Span,
			fmt.Sprintf("struct `%s` has no members", def.meta.Name)).Emit()
	}
	seen := make(map[string]bool, len(def.members))
	members := make([]types.StructMember, 0, len(def.members))
	for j, mem := range def.strct.Members {
		f := def.members[j]
		name := normName(mem.Name)
		if seen[name] {
			diag.ReportError(b.rep, diag.DesDuplicateDecl, whole(f),
				fmt.Sprintf("struct `%s` has more than one member `%s`", def.meta.Name, name)).Emit()
			continue
		}
		seen[name] = true
		ty := b.parseType(f)
		switch {
		case in.IsError(ty):
		case def.strct.Packed && !isPackedType(in, ty):
			diag.ReportError(b.rep, diag.DesBadType, whole(f),
				fmt.Sprintf("member `%s` of packed struct `%s` must be packed, not `%s`", name, def.meta.Name, in.Format(ty))).Emit()
			ty = in.Builtins().Error
		case isInterface(in, ty):
			diag.ReportError(b.rep, diag.DesBadType, whole(f),
				fmt.Sprintf("member `%s` of struct `%s` cannot be an interface", name, def.meta.Name)).Emit()
			ty = in.Builtins().Error
		}
		members = append(members, types.StructMember{Name: in.Strings.Intern(name), Type: ty})
	}
	in.SetStructMembers(b.names.byName[def.meta.Name], members)
}

func (b *builder) interfaceMembers(def *typeDef) {
	in := b.d.Types
	decl := b.names.intfs[def.meta.Name]
	seen := make(map[string]bool)
	for j, mem := range def.intf.Signals {
		f := def.members[j]
		name := normName(mem.Name)
		if seen[name] {
			diag.ReportError(b.rep, diag.DesDuplicateDecl, whole(f),
				fmt.Sprintf("interface `%s` has more than one member `%s`", def.meta.Name, name)).Emit()
			continue
		}
		seen[name] = true
		ty := b.parseType(f)
		if isInterface(in, ty) {
			diag.ReportError(b.rep, diag.DesBadType, whole(f),
				fmt.Sprintf("signal `%s` of interface `%s` cannot be an interface", name, def.meta.Name)).Emit()
			ty = in.Builtins().Error
		}
		b.d.Store.AddMember(decl, b.d.Store.AddVar(name, ty, false, whole(f)).ID())
	}
	for j, raw := range def.intf.Modports {
		name, sp, ok := b.named(raw, "interfaces[%d].modports[%d]", def.index, j)
		if !ok {
			continue
		}
		if seen[name] {
			diag.ReportError(b.rep, diag.DesDuplicateDecl, sp,
				fmt.Sprintf("interface `%s` has more than one member `%s`", def.meta.Name, name)).Emit()
			continue
		}
		seen[name] = true
		b.d.Store.AddMember(decl, b.d.Store.AddModport(name, sp).ID())
	}
}

func isPackedType(in *types.Interner, ty types.TypeID) bool {
	tt, ok := in.Lookup(ty)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindScalar, types.KindIntAtom, types.KindPacked:
		return true
	case types.KindStruct:
		info, ok := in.StructInfo(ty)
		return ok && info.Packed
	default:
		return false
	}
}

func isInterface(in *types.Interner, ty types.TypeID) bool {
	tt, ok := in.Lookup(ty)
	return ok && tt.Kind == types.KindInterface
}

// Declarations ---------------------------------------------------------------

var portDirs = map[string]hir.PortDir{
	"":       hir.PortInout,
	"input":  hir.PortInput,
	"output": hir.PortOutput,
	"inout":  hir.PortInout,
	"ref":    hir.PortRef,
}

func (b *builder) declarations() {
	st, in := b.d.Store, b.d.Types
	for i, p := range b.m.Params {
		name, sp, ok := b.named(p.Name, "params[%d]", i)
		if !ok {
			continue
		}
		ty := types.NoTypeID
		if strings.TrimSpace(p.Type) != "" {
			ty = b.parseType(b.snippet(p.Type, "params[%d].type", i))
		}
		b.declare(name, st.AddParam(name, ty, p.Value, p.Local, sp))
	}
	for i, g := range b.m.Genvars {
		if name, sp, ok := b.named(g, "genvars[%d]", i); ok {
			b.declare(name, st.AddGenvar(name, sp))
		}
	}
	for i, v := range b.m.Vars {
		name, sp, ok := b.named(v.Name, "vars[%d]", i)
		if !ok {
			continue
		}
		f := b.snippet(v.Type, "vars[%d].type", i)
		ty := b.parseType(f)
		if isInterface(in, ty) {
			diag.ReportError(b.rep, diag.DesBadType, whole(f),
				fmt.Sprintf("variable `%s` cannot have interface type `%s`; declare an instance or port", name, in.Format(ty))).Emit()
			ty = in.Builtins().Error
		}
		b.declare(name, st.AddVar(name, ty, v.Net, sp))
	}
	for i, p := range b.m.Ports {
		name, sp, ok := b.named(p.Name, "ports[%d]", i)
		if !ok {
			continue
		}
		ty := b.parseType(b.snippet(p.Type, "ports[%d].type", i))
		b.declare(name, st.AddPort(name, portDirs[p.Dir], ty, sp))
	}
	for i, raw := range b.m.Modules {
		name, sp, ok := b.named(raw, "modules[%d]", i)
		if !ok {
			continue
		}
		if prev, dup := b.modules[name]; dup {
			diag.ReportError(b.rep, diag.DesDuplicateDecl, sp, fmt.Sprintf("module `%s` is declared more than once", name)).
				WithNote(prev.Span(), "previous declaration").Emit()
			continue
		}
		b.modules[name] = st.AddModule(name, sp)
	}
	for i, f := range b.m.Functions {
		name, sp, ok := b.named(f.Name, "functions[%d]", i)
		if !ok {
			continue
		}
		result := types.NoTypeID
		if strings.TrimSpace(f.Result) != "" {
			result = b.parseType(b.snippet(f.Result, "functions[%d].result", i))
		}
		b.declare(name, st.AddFunc(name, result, sp))
	}
	for i, inst := range b.m.Instances {
		name, sp, ok := b.named(inst.Name, "instances[%d]", i)
		if !ok {
			continue
		}
		target := normName(inst.Target)
		var decl *hir.InstDecl
		switch {
		case b.modules[target] != nil:
			decl = st.AddInst(name, b.modules[target].ID(), types.NoTypeID, sp)
		case b.names.intfs[target] != nil:
			intf := b.names.intfs[target]
			decl = st.AddInst(name, intf.ID(), intf.Type, sp)
		default:
			if !b.names.broken[target] {
				diag.ReportError(b.rep, diag.DesLoadError, sp,
					fmt.Sprintf("instance `%s` of unknown module or interface `%s`", name, target)).Emit()
			}
			decl = st.AddInst(name, hir.NoNodeID, in.Builtins().Error, sp)
		}
		b.declare(name, decl)
	}
}

// Environments and roots -----------------------------------------------------

func (b *builder) envs() {
	for i, e := range b.m.Envs {
		name, sp, ok := b.named(e.Name, "envs[%d]", i)
		if !ok {
			continue
		}
		if name == RootEnv {
			diag.ReportError(b.rep, diag.DesLoadError, sp, "environment name `root` is reserved").Emit()
			continue
		}
		if _, dup := b.d.Env(name); dup {
			diag.ReportError(b.rep, diag.DesDuplicateDecl, sp, fmt.Sprintf("environment `%s` is declared more than once", name)).Emit()
			continue
		}
		binds := make(map[hir.NodeID]int64, len(e.Bind))
		for _, key := range slices.Sorted(maps.Keys(e.Bind)) {
			scope, local := splitName(normName(key))
			decl, ok := b.d.Store.Lookup(scope, local)
			if !ok {
				diag.ReportError(b.rep, diag.SemaUnknownParameter, sp,
					fmt.Sprintf("environment `%s` binds unknown parameter `%s`", name, key)).Emit()
				continue
			}
			switch n, _ := b.d.Store.Node(decl); n.(type) {
			case *hir.ParamDecl, *hir.GenvarDecl:
				binds[decl] = e.Bind[key]
			default:
				diag.ReportError(b.rep, diag.DesLoadError, sp,
					fmt.Sprintf("environment `%s` binds %s, which is not a parameter or genvar", name, n.Desc())).Emit()
			}
		}
		b.d.Envs = append(b.d.Envs, Env{Name: name, ID: b.d.DB.NewEnv(binds)})
	}
}

func (b *builder) roots() {
	in := b.d.Types
	for i, l := range b.m.Lower {
		f := b.snippet(l.Expr, "lower[%d]", i)
		root := Root{Index: i, Text: l.Expr, Span: whole(f), Kind: Lvalue}
		if l.Kind == "rvalue" {
			root.Kind = Rvalue
		}
		if id, ok := parser.ParseExpr(f, b.d.Store, parser.Options{Reporter: b.rep}); ok {
			root.Expr = id
		}

		names := l.Envs
		if len(names) == 0 {
			names = []string{RootEnv}
		}
		for _, raw := range names {
			name := normName(raw)
			env, ok := b.d.Env(name)
			if !ok {
				diag.ReportError(b.rep, diag.DesLoadError, root.Span,
					fmt.Sprintf("unknown environment `%s`", name)).Emit()
				continue
			}
			root.Envs = append(root.Envs, Env{Name: name, ID: env})
		}

		if strings.TrimSpace(l.Expect) != "" {
			root.Expect = b.parseType(b.snippet(l.Expect, "lower[%d].expect", i))
		}
		if root.Expr != hir.NoNodeID && root.Expect != types.NoTypeID {
			for _, env := range root.Envs {
				if in.IsError(root.Expect) {
					b.d.DB.SetCast(root.Expr, env.ID, typeck.ErrorChain(in))
					continue
				}
				// ошибка уже сообщена через sema
				_ = b.d.DB.Expect(root.Expr, env.ID, root.Expect, root.Kind == Lvalue)
			}
		}
		b.d.Roots = append(b.d.Roots, root)
	}
}
