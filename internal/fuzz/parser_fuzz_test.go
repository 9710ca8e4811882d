package fuzztests

import (
	"context"
	"testing"
	"time"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/parser"
	"svir/internal/source"
	"svir/internal/testkit"
	"svir/internal/types"
)

// parseTimeout is the maximum time allowed for one snippet. Snippets are
// tiny, so anything slower is a loop in error recovery.
const parseTimeout = 5 * time.Second

// noNames resolves no user types.
type noNames struct{}

func (noNames) ResolveType(string, string) (types.TypeID, bool) { return types.NoTypeID, false }

func FuzzParseExpr(f *testing.F) {
	addSeeds(f, exprSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.expr", input))
		store := hir.NewStore()
		bag := diag.NewBag(64)

		root, ok := parser.ParseExpr(file, store, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 64})
		if !ok {
			if !bag.HasErrors() {
				t.Fatalf("parse of %q failed without a diagnostic", input)
			}
			return
		}
		if err := testkit.CheckExprInvariants(store, root, file); err != nil {
			t.Fatalf("%q: %v", input, err)
		}
	})
}

func FuzzParseType(f *testing.F) {
	addSeeds(f, typeSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.type", input))
		in := types.NewInterner(nil)
		bag := diag.NewBag(64)

		ty, ok := parser.ParseType(file, in, noNames{}, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 64})
		if !ok {
			if ty != in.Builtins().Error || !bag.HasErrors() {
				t.Fatalf("%q: failed parse returned `%s` with %d diagnostics", input, in.Format(ty), bag.Len())
			}
			return
		}
		// всё, что разобралось, должно форматироваться
		if in.Format(ty) == "" {
			t.Fatalf("%q: empty type name", input)
		}
	})
}

// FuzzParserNoHang runs the expression parser under a deadline to catch
// loops in error recovery.
func FuzzParserNoHang(f *testing.F) {
	addSeeds(f, exprSeeds)
	f.Add([]byte("{{{{{{{{"))
	f.Add([]byte("x[[[[[["))
	f.Add([]byte("f(,,,,)"))
	f.Add([]byte("a::::b"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("fuzz.expr", input))
			bag := diag.NewBag(128)
			_, _ = parser.ParseExpr(file, hir.NewStore(), parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
