package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeQuery, false},
		{LevelDetail, ScopeQuery, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s/%s: got %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	span := Begin(tr, ScopePass, "lower", 0)
	Point(tr, ScopeNode, "cast", span.ID(), func() string { return "pack-sbv" })
	span.WithExtra("roots", "3").End("ok")

	out := buf.String()
	for _, want := range []string{"→ lower", "• cast (pack-sbv)", "← lower (ok) {roots=3}"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPointIsLazy(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	called := false
	Point(tr, ScopeNode, "cast", 0, func() string {
		called = true
		return ""
	})
	if called || buf.Len() != 0 {
		t.Fatalf("node-level point must not be built at phase level")
	}
}

func TestRingTracerWraps(t *testing.T) {
	tr := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		tr.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	snap := tr.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
	tr := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != Tracer(tr) {
		t.Fatalf("tracer not propagated")
	}
	span := Begin(tr, ScopeDriver, "root", 0)
	if CurrentSpan(WithSpan(ctx, span)) != span.ID() {
		t.Fatalf("span not propagated")
	}
}
