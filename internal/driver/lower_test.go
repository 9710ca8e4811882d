package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"svir/internal/design"
	"svir/internal/diag"
	"svir/internal/driver"
	"svir/internal/project"
)

const sample = `
schema = "1.0"
name = "top"
genvars = ["i"]

[[structs]]
name = "pair"
packed = true
members = [
  { name = "a", type = "logic [3:0]" },
  { name = "b", type = "logic [1:0]" },
]

[[vars]]
name = "x"
type = "logic [7:0]"

[[vars]]
name = "s"
type = "pair"

[[envs]]
name = "i5"
bind = { i = 5 }

[[lower]]
expr = "x[3]"

[[lower]]
expr = "s"
expect = "logic [5:0]"

[[lower]]
expr = "x[i]"
kind = "rvalue"
envs = ["root", "i5"]
`

func writeDesign(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type recorder struct {
	mu     sync.Mutex
	events []driver.Event
}

func (r *recorder) OnEvent(ev driver.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestLowerDesign(t *testing.T) {
	path := writeDesign(t, t.TempDir(), sample)
	rec := &recorder{}
	var phases []string
	res, err := driver.LowerDesign(context.Background(), path, driver.LowerOptions{
		Jobs:     2,
		Progress: rec,
		PhaseObserver: func(ev driver.PhaseEvent) {
			if ev.Status == driver.PhaseEnd {
				phases = append(phases, ev.Name)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("diagnostics: %s", diag.FormatShort(res.Bag.Items(), res.Files, false))
	}
	labels := make([]string, 0, len(res.Outputs))
	for _, out := range res.Outputs {
		labels = append(labels, out.Label())
		if out.Failed || out.Snapshot == nil || out.Dump == "" {
			t.Fatalf("%s: failed=%t dump=%q", out.Label(), out.Failed, out.Dump)
		}
	}
	want := []string{"x[3] [root]", "s [root]", "x[i] [root]", "x[i] [i5]"}
	if !slices.Equal(labels, want) {
		t.Fatalf("outputs = %v", labels)
	}
	if !strings.HasPrefix(res.Outputs[0].Dump, "Index len=1 : logic\n") {
		t.Fatalf("dump:\n%s", res.Outputs[0].Dump)
	}
	if !strings.HasPrefix(res.Outputs[1].Dump, "Concat : logic [5:0]\n") {
		t.Fatalf("dump:\n%s", res.Outputs[1].Dump)
	}
	if res.Outputs[2].Rvalue == nil || res.Outputs[3].Lvalue != nil {
		t.Fatalf("rvalue roots keep the wrong tree")
	}
	if !slices.Equal(phases, []string{"load", "lower"}) {
		t.Fatalf("phases = %v", phases)
	}

	done := 0
	for _, ev := range rec.events {
		if ev.Root != "" && ev.Status == driver.StatusDone {
			done++
		}
	}
	if done != len(want) {
		t.Fatalf("%d roots reported done, want %d", done, len(want))
	}
}

func TestLowerDesignReportsDescriptionErrors(t *testing.T) {
	dir := t.TempDir()
	res, err := driver.LowerDesign(context.Background(), writeDesign(t, dir, `schema = "9.0"`), driver.LowerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Design != nil || len(res.Outputs) != 0 {
		t.Fatalf("undecodable design produced outputs")
	}
	if items := res.Bag.Items(); len(items) != 1 || items[0].Code != diag.DesSchemaVersion {
		t.Fatalf("diagnostics = %+v", items)
	}

	if _, err := driver.LowerDesign(context.Background(), filepath.Join(dir, "nope.toml"), driver.LowerOptions{}); err == nil {
		t.Fatal("expected a read error")
	}
}

func TestLowerDesignKeepsGoingPastUserErrors(t *testing.T) {
	path := writeDesign(t, t.TempDir(), `schema = "1.0"
[[vars]]
name = "x"
type = "bit [3:0]"
[[lower]]
expr = "x.y"
[[lower]]
expr = "x[1]"
[[lower]]
expr = "x["`)
	res, err := driver.LowerDesign(context.Background(), path, driver.LowerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 2 || !res.Outputs[0].Failed || res.Outputs[1].Failed {
		t.Fatalf("outputs = %+v", res.Outputs)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected diagnostics")
	}
}

func TestLowerDesignTimings(t *testing.T) {
	path := writeDesign(t, t.TempDir(), sample)
	res, err := driver.LowerDesign(context.Background(), path, driver.LowerOptions{EmitTimings: true})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.ObsTimings || items[0].Severity != diag.SevInfo {
		t.Fatalf("diagnostics = %+v", items)
	}
	if !strings.Contains(items[0].Notes[0].Msg, `"phases"`) {
		t.Fatalf("payload = %s", items[0].Notes[0].Msg)
	}
	if res.Timing == nil || len(res.Timing.Phases) != 2 {
		t.Fatalf("timing = %+v", res.Timing)
	}
}

func TestLowerDesignUsesCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := driver.NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	path := writeDesign(t, dir, sample)
	opts := driver.LowerOptions{Cache: cache}

	first, err := driver.LowerDesign(context.Background(), path, opts)
	if err != nil || first.CacheErr != nil {
		t.Fatal(err, first.CacheErr)
	}
	second, err := driver.LowerDesign(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("cached = %t, %t", first.Cached, second.Cached)
	}
	if len(second.Outputs) != len(first.Outputs) {
		t.Fatalf("cached outputs = %d", len(second.Outputs))
	}
	for i := range first.Outputs {
		a, b := first.Outputs[i], second.Outputs[i]
		if a.Label() != b.Label() || a.Dump != b.Dump || a.Kind != b.Kind || b.Lvalue != nil {
			t.Fatalf("output %d differs: %+v vs %+v", i, a, b)
		}
	}
	if second.Outputs[2].Kind != design.Rvalue {
		t.Fatalf("kind = %s", second.Outputs[2].Kind)
	}

	// designs with diagnostics are never cached
	broken := writeDesign(t, dir, sample+"\n[[lower]]\nexpr = \"ghost\"\n")
	for range 2 {
		res, err := driver.LowerDesign(context.Background(), broken, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Fatal("broken design served from cache")
		}
	}
}

func TestLowerDesignCancelled(t *testing.T) {
	path := writeDesign(t, t.TempDir(), sample)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.LowerDesign(ctx, path, driver.LowerOptions{}); err == nil {
		t.Fatal("expected cancellation")
	}
}

func TestLowerDesignReportsEachProblemOnce(t *testing.T) {
	path := writeDesign(t, t.TempDir(), `schema = "1.0"
genvars = ["i"]
[[vars]]
name = "x"
type = "bit [3:0]"
[[envs]]
name = "i1"
bind = { i = 1 }
[[lower]]
expr = "x.y"
envs = ["root", "i1"]`)
	res, err := driver.LowerDesign(context.Background(), path, driver.LowerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("outputs = %d", len(res.Outputs))
	}
	if n := res.Bag.Len(); n != 1 {
		t.Fatalf("diagnostics = %s", diag.FormatShort(res.Bag.Items(), res.Files, false))
	}
}
