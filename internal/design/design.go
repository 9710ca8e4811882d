// Package design turns a svir.toml description into a lowering session: the
// HIR store, interned types, parameter environments and the expressions to
// lower, with their contextual casts already recorded in the sema database.
package design

import (
	"errors"
	"fmt"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/project"
	"svir/internal/sema"
	"svir/internal/source"
	"svir/internal/types"
)

// Kind selects the query a root is lowered with.
type Kind uint8

const (
	Lvalue Kind = iota
	Rvalue
)

func (k Kind) String() string {
	if k == Rvalue {
		return "rvalue"
	}
	return "lvalue"
}

// Env is a named parametrization; the root environment is named "root".
type Env struct {
	Name string
	ID   hir.ParamEnv
}

// Root is one `[[lower]]` entry.
type Root struct {
	Index  int
	Text   string
	Span   source.Span
	Expr   hir.NodeID // NoNodeID when the expression did not parse
	Kind   Kind
	Expect types.TypeID // NoTypeID when the context demands nothing
	Envs   []Env
}

// Design is a loaded description ready for lowering.
type Design struct {
	Name   string
	Files  *source.FileSet
	Store  *hir.Store
	Types  *types.Interner
	DB     *sema.DB
	Envs   []Env
	Roots  []Root
	Digest project.Digest
}

// RootEnv is the name of the environment that binds nothing.
const RootEnv = "root"

// Load reads path into fs and builds the design. A description that cannot
// be decoded is reported once and returned as an error; problems inside a
// decoded description are reported and leave error types behind.
func Load(fs *source.FileSet, path string, reporter diag.Reporter) (*Design, error) {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design: %w", err)
	}
	file := fs.Get(id)
	m, err := project.DecodeManifest(file.Path, file.Content)
	if err != nil {
		code := diag.DesLoadError
		if errors.Is(err, project.ErrSchemaVersion) {
			code = diag.DesSchemaVersion
		}
		diag.ReportError(reporter, code, source.Span{File: id}, err.Error()).Emit()
		return nil, err
	}
	d := Build(fs, m, reporter)
	d.Digest = project.Combine(project.Sum(file.Content), project.Sum([]byte(m.Version.String())))
	return d, nil
}

// Build creates the session for an already decoded manifest.
func Build(fs *source.FileSet, m *project.Manifest, reporter diag.Reporter) *Design {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	b := newBuilder(fs, m, reporter)
	b.typeDefs()
	b.declarations()
	b.envs()
	b.roots()
	return b.d
}

// Env looks up an environment by name.
func (d *Design) Env(name string) (hir.ParamEnv, bool) {
	for _, e := range d.Envs {
		if e.Name == name {
			return e.ID, true
		}
	}
	return hir.RootEnv, false
}
