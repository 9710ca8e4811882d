package fuzztests

import (
	"testing"
)

const maxFuzzInput = 1 << 14 // фрагменты короткие, 16 KiB хватает

var exprSeeds = []string{
	"",
	"x",
	"x[3]",
	"x[7:4]",
	"x[i+:4]",
	"x[W-1 -: 2]",
	"pkg::DEPTH",
	"s.a",
	"p.data[7:4]",
	"{x, s}",
	"{2{x, y}}",
	"-(a + b) * 3",
	"f(a, b)",
	"8'hFF",
	"4'b10_x1",
	"32'sd7",
	"имя[0]",
	"x[",
	"{",
	"((((x))))",
}

var typeSeeds = []string{
	"bit",
	"logic [7:0]",
	"logic signed [7:0]",
	"bit [3:0][1:0]",
	"int",
	"byte $ [4]",
	"logic [7:0] $ [0:3]",
	"pair $ [2][3]",
	"bus.master",
	"logic [7",
	"$",
}

const manifestSeed = `schema = "1.0"
name = "top"
genvars = ["i"]

[[structs]]
name = "pair"
packed = true
members = [{ name = "a", type = "logic [3:0]" }, { name = "b", type = "logic [1:0]" }]

[[vars]]
name = "x"
type = "logic [7:0]"

[[vars]]
name = "s"
type = "pair"

[[envs]]
name = "i2"
bind = { i = 2 }

[[lower]]
expr = "x[i]"
envs = ["root", "i2"]

[[lower]]
expr = "s"
expect = "logic [5:0]"
`

func addSeeds(f *testing.F, seeds []string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
