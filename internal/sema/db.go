// Package sema answers name, type and constant queries over a hir.Store.
//
// DB is the session database the MIR builder works against. Every query that
// depends on a parametrization is memoised per (node, env) in a query.Table;
// diagnostics go through a DedupReporter so a failure recomputed under a
// second env is still reported once.
package sema

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"fortio.org/safecast"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/query"
	"svir/internal/source"
	"svir/internal/typeck"
	"svir/internal/types"
)

var (
	// ErrNoNode is returned for ids that do not name a node.
	ErrNoNode = errors.New("no such node")
	// ErrUnresolved is returned when a name does not resolve.
	ErrUnresolved = errors.New("unresolved name")
	// ErrUnknownField is returned for member accesses that do not resolve.
	ErrUnknownField = errors.New("unknown member")
	// ErrNotConstant is returned when constant evaluation fails.
	ErrNotConstant = errors.New("not a constant")
	// ErrUpstream marks failures caused by an earlier, already reported error.
	ErrUpstream = errors.New("upstream error")
)

type resolution struct {
	decl hir.NodeID
	err  error
}

// DB is the semantic database of one session.
type DB struct {
	store    *hir.Store
	types    *types.Interner
	reporter diag.Reporter

	envMu sync.RWMutex
	envs  []map[hir.NodeID]int64

	castMu    sync.RWMutex
	overrides map[query.Key]typeck.CastType

	selfTypes *query.Table[types.TypeID]
	casts     *query.Table[typeck.CastType]
	names     *query.Table[resolution]
}

// New creates a database over store. Diagnostics are deduplicated before they
// reach reporter.
func New(store *hir.Store, in *types.Interner, reporter diag.Reporter) *DB {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &DB{
		store:     store,
		types:     in,
		reporter:  diag.NewDedupReporter(reporter),
		envs:      []map[hir.NodeID]int64{nil}, // RootEnv binds nothing
		overrides: make(map[query.Key]typeck.CastType),
		selfTypes: query.NewTable[types.TypeID]("self_determined_type"),
		casts:     query.NewTable[typeck.CastType]("cast_type"),
		names:     query.NewTable[resolution]("resolve_node"),
	}
}

func (db *DB) Store() *hir.Store       { return db.store }
func (db *DB) Types() *types.Interner  { return db.types }
func (db *DB) Reporter() diag.Reporter { return db.reporter }

// Tables returns counters of the memo tables owned by the database.
func (db *DB) Tables() []query.Stats {
	return []query.Stats{db.selfTypes.Stats(), db.casts.Stats(), db.names.Stats()}
}

// NewEnv registers a parametrization that binds parameters (and genvars) to
// values. Nodes not bound fall back to their declared default.
func (db *DB) NewEnv(bindings map[hir.NodeID]int64) hir.ParamEnv {
	db.envMu.Lock()
	defer db.envMu.Unlock()
	db.envs = append(db.envs, maps.Clone(bindings))
	n, err := safecast.Conv[uint32](len(db.envs) - 1)
	if err != nil {
		panic(fmt.Errorf("sema: env overflow: %w", err))
	}
	return hir.ParamEnv(n)
}

func (db *DB) binding(env hir.ParamEnv, id hir.NodeID) (int64, bool) {
	db.envMu.RLock()
	defer db.envMu.RUnlock()
	if int(env) >= len(db.envs) {
		return 0, false
	}
	v, ok := db.envs[env][id]
	return v, ok
}

// HIROf returns the node for id.
func (db *DB) HIROf(id hir.NodeID) (hir.Node, error) {
	n, ok := db.store.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	return n, nil
}

// Span returns the source span of id, or an empty span.
func (db *DB) Span(id hir.NodeID) source.Span {
	n, ok := db.store.Node(id)
	if !ok {
		return source.Span{}
	}
	return n.Span()
}

// SelfDeterminedType returns the memoised self-determined type of id.
func (db *DB) SelfDeterminedType(id hir.NodeID, env hir.ParamEnv) types.TypeID {
	return db.selfTypes.Get(query.Key{Node: id, Env: env}, func() types.TypeID {
		return typeck.SelfDetermined(db, id, env)
	})
}

// SetCast records the chain the context of id demands, overriding the
// default computed from its parent.
func (db *DB) SetCast(id hir.NodeID, env hir.ParamEnv, chain typeck.CastType) {
	db.castMu.Lock()
	defer db.castMu.Unlock()
	db.overrides[query.Key{Node: id, Env: env}] = chain
}

// Expect demands that id be usable as a value of type ty under env and
// records the resulting cast chain. lvalue restricts the chain to steps that
// keep the storage addressable.
func (db *DB) Expect(id hir.NodeID, env hir.ParamEnv, ty types.TypeID, lvalue bool) error {
	self := db.SelfDeterminedType(id, env)
	chain, err := typeck.Convert(db.types, self, ty, lvalue)
	if err != nil {
		diag.ReportError(db.reporter, diag.SemaError, db.Span(id), err.Error()).Emit()
		db.SetCast(id, env, typeck.ErrorChain(db.types))
		return err
	}
	db.SetCast(id, env, chain)
	return nil
}

// CastType returns the cast chain of id under env.
func (db *DB) CastType(id hir.NodeID, env hir.ParamEnv) (typeck.CastType, error) {
	if _, ok := db.store.Node(id); !ok {
		return typeck.ErrorChain(db.types), fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	key := query.Key{Node: id, Env: env}
	db.castMu.RLock()
	chain, ok := db.overrides[key]
	db.castMu.RUnlock()
	if ok {
		return chain, nil
	}
	return db.casts.Get(key, func() typeck.CastType {
		return typeck.CastChain(db, id, env)
	}), nil
}
