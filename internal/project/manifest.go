package project

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// SchemaConstraint is the range of design schema versions this build reads.
const SchemaConstraint = "^1"

var (
	// ErrSchemaMissing indicates that the top-level `schema` key is absent.
	ErrSchemaMissing = errors.New("missing schema version")
	// ErrSchemaVersion indicates a schema outside SchemaConstraint.
	ErrSchemaVersion = errors.New("unsupported schema version")
)

// MemberSpec is a struct member or interface signal.
type MemberSpec struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// StructSpec describes `[[structs]]`.
type StructSpec struct {
	Name    string       `toml:"name"`
	Packed  bool         `toml:"packed"`
	Members []MemberSpec `toml:"members"`
}

// InterfaceSpec describes `[[interfaces]]`.
type InterfaceSpec struct {
	Name     string       `toml:"name"`
	Signals  []MemberSpec `toml:"signals"`
	Modports []string     `toml:"modports"`
}

// ParamSpec describes `[[params]]`. Package parameters use `pkg::NAME`.
type ParamSpec struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Value int64  `toml:"value"`
	Local bool   `toml:"local"`
}

// VarSpec describes `[[vars]]`.
type VarSpec struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	Net  bool   `toml:"net"`
}

// PortSpec describes `[[ports]]`; Dir is input, output, inout or ref.
type PortSpec struct {
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
	Type string `toml:"type"`
}

// InstanceSpec describes `[[instances]]` of a module or interface.
type InstanceSpec struct {
	Name   string `toml:"name"`
	Target string `toml:"target"`
}

// FunctionSpec describes `[[functions]]`; an empty Result means void.
type FunctionSpec struct {
	Name   string `toml:"name"`
	Result string `toml:"result"`
}

// EnvSpec binds parameter overrides under a name, e.g. one generate iteration.
type EnvSpec struct {
	Name string           `toml:"name"`
	Bind map[string]int64 `toml:"bind"`
}

// LowerSpec is one expression to lower.
type LowerSpec struct {
	Expr   string   `toml:"expr"`
	Kind   string   `toml:"kind"`   // lvalue (default) or rvalue
	Expect string   `toml:"expect"` // optional target type of the cast chain
	Envs   []string `toml:"envs"`   // environments; empty means the root one
}

// Manifest is a decoded svir.toml.
type Manifest struct {
	Path    string          `toml:"-"`
	Version *semver.Version `toml:"-"`

	Schema     string          `toml:"schema"`
	Name       string          `toml:"name"`
	Structs    []StructSpec    `toml:"structs"`
	Interfaces []InterfaceSpec `toml:"interfaces"`
	Params     []ParamSpec     `toml:"params"`
	Genvars    []string        `toml:"genvars"`
	Vars       []VarSpec       `toml:"vars"`
	Ports      []PortSpec      `toml:"ports"`
	Modules    []string        `toml:"modules"`
	Instances  []InstanceSpec  `toml:"instances"`
	Functions  []FunctionSpec  `toml:"functions"`
	Envs       []EnvSpec       `toml:"envs"`
	Lower      []LowerSpec     `toml:"lower"`
}

// LoadManifest parses a design description from disk.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return finish(path, &m, meta)
}

// DecodeManifest parses a design description already read into memory.
func DecodeManifest(path string, data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return finish(path, &m, meta)
}

func finish(path string, m *Manifest, meta toml.MetaData) (*Manifest, error) {
	m.Path = path
	if !meta.IsDefined("schema") {
		return nil, fmt.Errorf("%s: %w", path, ErrSchemaMissing)
	}
	v, err := semver.NewVersion(strings.TrimSpace(m.Schema))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid schema %q: %w", path, m.Schema, err)
	}
	c, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return nil, err
	}
	if !c.Check(v) {
		return nil, fmt.Errorf("%s: %w %s (want %s)", path, ErrSchemaVersion, v, SchemaConstraint)
	}
	m.Version = v

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	for i, p := range m.Ports {
		switch p.Dir {
		case "", "input", "output", "inout", "ref":
		default:
			return nil, fmt.Errorf("%s: ports[%d] %q: invalid dir %q", path, i, p.Name, p.Dir)
		}
	}
	for i, l := range m.Lower {
		switch l.Kind {
		case "", "lvalue", "rvalue":
		default:
			return nil, fmt.Errorf("%s: lower[%d]: invalid kind %q", path, i, l.Kind)
		}
		if strings.TrimSpace(l.Expr) == "" {
			return nil, fmt.Errorf("%s: lower[%d]: missing expr", path, i)
		}
	}
	return m, nil
}
