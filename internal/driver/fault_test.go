package driver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"svir/internal/design"
	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/project"
	"svir/internal/source"
	"svir/internal/typeck"
	"svir/internal/types"
)

func TestLowerAllReturnsInternalFault(t *testing.T) {
	m, err := project.DecodeManifest("svir.toml", []byte(`schema = "1.0"
[[vars]]
name = "x"
type = "bit [7:0]"
[[lower]]
expr = "x"
[[lower]]
expr = "x[0]"`))
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(8)
	d := design.Build(source.NewFileSet(), m, diag.BagReporter{Bag: bag})
	root := d.Roots[0]
	x := d.DB.SelfDeterminedType(root.Expr, hir.RootEnv)
	signed := d.Types.SimpleBitVector(types.TwoValued, types.Signed, 8)
	d.DB.SetCast(root.Expr, hir.RootEnv, typeck.Identity(x).Then(typeck.CastSign, signed))

	res := &Result{Bag: bag}
	err = lowerAll(context.Background(), mir.NewLowerer(d.DB, nil, nil), d, res, LowerOptions{Jobs: 1})
	var fault *mir.InternalFault
	if !errors.As(err, &fault) {
		t.Fatalf("err = %v", err)
	}
	if fault.Node != root.Expr || !strings.Contains(err.Error(), "lowering x [root]") {
		t.Fatalf("err = %v", err)
	}
}

func TestLowerOneRepanicsForeignPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected the panic to propagate")
		}
	}()
	out := &Output{Text: "x", Env: "root"}
	// nil lowerer: the call panics with a runtime error, not a fault
	_ = lowerOne(nil, nil, task{root: design.Root{Expr: 1}}, out, nil)
}
