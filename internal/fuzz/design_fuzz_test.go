package fuzztests

import (
	"testing"

	"svir/internal/design"
	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/project"
	"svir/internal/source"
)

// FuzzBuildDesign decodes arbitrary descriptions and lowers whatever they
// declare. User errors must come back as diagnostics, never as panics or
// trees that fail validation.
func FuzzBuildDesign(f *testing.F) {
	f.Add([]byte(manifestSeed))
	f.Add([]byte(`schema = "1.0"`))
	f.Add([]byte("schema = \"1.0\"\n[[vars]]\nname = \"x\"\ntype = \"bit $ [0]\"\n[[lower]]\nexpr = \"x\"\n"))
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		m, err := project.DecodeManifest(project.ManifestName, input)
		if err != nil {
			return
		}
		bag := diag.NewBag(256)
		d := design.Build(source.NewFileSet(), m, diag.BagReporter{Bag: bag})
		low := mir.NewLowerer(d.DB, nil, nil)
		for _, r := range d.Roots {
			if r.Expr == hir.NoNodeID {
				continue
			}
			for _, env := range r.Envs {
				if r.Kind == design.Rvalue {
					_ = low.Rvalue(r.Expr, env.ID)
					continue
				}
				if err := mir.ValidateLvalue(low.Lvalue(r.Expr, env.ID), d.Types); err != nil {
					t.Fatalf("%s: %v", r.Text, err)
				}
			}
		}
	})
}
