package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"svir/internal/diag"
	"svir/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/d/svir.toml#vars[0].type", []byte("logic [7"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.SynUnexpectedToken, source.Span{File: fileID, Start: 8, End: 8}, "expected ':'").
		WithNote(source.Span{File: fileID, Start: 6, End: 7}, "dimension starts here"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "SYN2001" || d.Title != "Unexpected token" {
		t.Errorf("diagnostic = %+v", d)
	}
	if d.Location.File != "svir.toml#vars[0].type" || d.Location.StartCol != 9 || d.Location.StartLine != 1 {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartCol != 7 {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestJSONLimitsAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("e", []byte("x"))
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings").WithNote(source.Span{}, `{"kind":"lower"}`))
	bag.Add(diag.NewError(diag.SemaError, source.Span{File: id, End: 1}, "a").WithNote(source.Span{File: id}, "hidden"))
	bag.Add(diag.NewError(diag.SemaError, source.Span{File: id, End: 1}, "b"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Errorf("timing payload dropped")
	}
	if len(out.Diagnostics[1].Notes) != 0 {
		t.Errorf("notes included without IncludeNotes")
	}
	if out.Diagnostics[1].Location.StartLine != 0 {
		t.Errorf("positions included without IncludePositions")
	}
}
