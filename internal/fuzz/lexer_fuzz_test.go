package fuzztests

import (
	"testing"

	"svir/internal/diag"
	"svir/internal/lexer"
	"svir/internal/source"
	"svir/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addSeeds(f, exprSeeds)
	addSeeds(f, typeSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.expr", input))

		bag := diag.NewBag(64)
		toks := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}}).All()
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("token stream does not end with EOF")
		}
		var prev uint32
		for _, tok := range toks {
			if tok.Span.Start < prev || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %s span %v overlaps the previous one", tok.Kind, tok.Span)
			}
			if int(tok.Span.End) > len(input) {
				t.Fatalf("token %s span %v past end of input", tok.Kind, tok.Span)
			}
			prev = tok.Span.End
		}
	})
}
