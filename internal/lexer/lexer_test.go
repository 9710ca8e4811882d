package lexer_test

import (
	"testing"

	"svir/internal/diag"
	"svir/internal/lexer"
	"svir/internal/source"
	"svir/internal/token"
)

func lexAll(t *testing.T, input string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.expr", []byte(input))
	bag := diag.NewBag(16)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"x[3]", []token.Kind{token.Ident, token.LBracket, token.Number, token.RBracket, token.EOF}},
		{"x[i+:4]", []token.Kind{token.Ident, token.LBracket, token.Ident, token.PlusColon, token.Number, token.RBracket, token.EOF}},
		{"x[i -: 4]", []token.Kind{token.Ident, token.LBracket, token.Ident, token.MinusColon, token.Number, token.RBracket, token.EOF}},
		{"{2{a, b}}", []token.Kind{token.LBrace, token.Number, token.LBrace, token.Ident, token.Comma, token.Ident, token.RBrace, token.RBrace, token.EOF}},
		{"pkg::W", []token.Kind{token.Ident, token.ColonColon, token.Ident, token.EOF}},
		{"p.data", []token.Kind{token.Ident, token.Dot, token.Ident, token.EOF}},
		{"logic signed [7:0] $ [0:3]", []token.Kind{
			token.KwLogic, token.KwSigned, token.LBracket, token.Number, token.Colon, token.Number, token.RBracket,
			token.Dollar, token.LBracket, token.Number, token.Colon, token.Number, token.RBracket, token.EOF,
		}},
		{"f(a*2 - 1)", []token.Kind{token.Ident, token.LParen, token.Ident, token.Star, token.Number, token.Minus, token.Number, token.RParen, token.EOF}},
		{"", []token.Kind{token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, bag := lexAll(t, tt.input)
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	for _, input := range []string{"0", "1_000", "8'hff", "4'b10_10", "'d7", "16'sh8000", "3'o7"} {
		t.Run(input, func(t *testing.T) {
			toks, bag := lexAll(t, input)
			if len(toks) != 2 || toks[0].Kind != token.Number || toks[0].Text != input {
				t.Fatalf("got %+v", toks)
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
		})
	}
}

func TestLexerBadNumbers(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{"4'bx1", "4'bx1"},
		{"4'b102", "4'b102"},
		{"8'q1", "8'q"},
		{"8'h", "8'h"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, bag := lexAll(t, tt.input)
			if toks[0].Kind != token.Invalid || toks[0].Text != tt.text {
				t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
			}
			items := bag.Items()
			if len(items) != 1 || items[0].Code != diag.SynBadNumber {
				t.Fatalf("diagnostics = %+v", items)
			}
		})
	}
}

func TestLexerUnknownCharacter(t *testing.T) {
	toks, bag := lexAll(t, "a # b")
	if got := kinds(toks); len(got) != 4 || got[1] != token.Invalid {
		t.Fatalf("got %v", got)
	}
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.SynUnexpectedToken {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestLexerUnicodeIdent(t *testing.T) {
	toks, _ := lexAll(t, "данные[0]")
	if toks[0].Kind != token.Ident || toks[0].Text != "данные" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
	}
	if toks[1].Kind != token.LBracket {
		t.Fatalf("got %v", toks[1].Kind)
	}
}

func TestLexerSpans(t *testing.T) {
	toks, _ := lexAll(t, "  ab [12]")
	want := []source.Span{{Start: 2, End: 4}, {Start: 5, End: 6}, {Start: 6, End: 8}, {Start: 8, End: 9}, {Start: 9, End: 9}}
	for i, w := range want {
		if toks[i].Span.Start != w.Start || toks[i].Span.End != w.End {
			t.Errorf("token %d span %v, want %d-%d", i, toks[i].Span, w.Start, w.End)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.expr", []byte("a b"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("next = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("next = %q", n.Text)
	}
	for range 3 {
		if n := lx.Next(); n.Kind != token.EOF {
			t.Fatalf("after end: %v", n.Kind)
		}
	}
}
