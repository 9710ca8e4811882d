// Package parser reads the expression and type snippets of a design
// description into HIR nodes and interned types.
package parser

import (
	"slices"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/lexer"
	"svir/internal/source"
	"svir/internal/token"
	"svir/internal/types"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// TypeResolver maps a user type name (struct or interface, optionally
// restricted to a modport) to its TypeID.
type TypeResolver interface {
	ResolveType(name, modport string) (types.TypeID, bool)
}

// Parser — состояние парсера на один фрагмент
type Parser struct {
	lx       *lexer.Lexer
	file     *source.File
	store    *hir.Store
	types    *types.Interner
	names    TypeResolver
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
	parens   map[hir.NodeID]source.Span
}

func newParser(file *source.File, opts Options) *Parser {
	return &Parser{
		lx:       lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		file:     file,
		opts:     opts,
		lastSpan: source.Span{File: file.ID},
	}
}

// ParseExpr parses the whole file as a single expression and appends its
// nodes to store. It returns false when any syntax error was reported.
func ParseExpr(file *source.File, store *hir.Store, opts Options) (hir.NodeID, bool) {
	p := newParser(file, opts)
	p.store = store
	id, ok := p.parseExpr()
	if ok && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, "unexpected "+p.describe(p.lx.Peek())+" after expression")
		ok = false
	}
	return id, ok && !p.IsError()
}

// ParseType parses the whole file as a type description such as
// `logic signed [7:0] $ [0:3]` or `bus.master`.
func ParseType(file *source.File, in *types.Interner, names TypeResolver, opts Options) (types.TypeID, bool) {
	p := newParser(file, opts)
	p.types = in
	p.names = names
	ty, ok := p.parseType()
	if ok && !p.at(token.EOF) {
		p.err(diag.SynTrailingInput, "unexpected "+p.describe(p.lx.Peek())+" after type")
		ok = false
	}
	if !ok || p.IsError() {
		return in.Builtins().Error, false
	}
	return ty, true
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) IsError() bool {
	return p.opts.CurrentErrors != 0
}
