package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"svir/internal/design"
	"svir/internal/mir"
	"svir/internal/project"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum([]byte("design"))
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("empty cache: ok=%t err=%v", ok, err)
	}

	outputs := []Output{
		{Root: 0, Text: "x", Env: "root", Kind: design.Lvalue, Dump: "Var decl=1 : bit\n",
			Snapshot: &mir.Snapshot{Schema: mir.SnapshotSchema, Nodes: []mir.SnapshotNode{{Kind: "Var", Type: "bit", Value: -1, Base: -1}}}},
		{Root: 1, Text: "x + 1", Env: "e", Kind: design.Rvalue, Dump: "Binary + : int\n"},
	}
	if err := c.Put(key, outputsToCache("top", "svir.toml", outputs)); err != nil {
		t.Fatal(err)
	}
	payload, ok, err := c.Get(key)
	if !ok || err != nil {
		t.Fatalf("ok=%t err=%v", ok, err)
	}
	got := cacheToOutputs(payload)
	if len(got) != 2 || got[1].Kind != design.Rvalue || got[1].Env != "e" || got[0].Snapshot.Nodes[0].Kind != "Var" {
		t.Fatalf("outputs = %+v", got)
	}

	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Fatal("entry survived DropAll")
	}
}

func TestDiskCacheIgnoresOtherSchema(t *testing.T) {
	c, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Sum([]byte("old"))
	data, err := msgpack.Marshal(&CachedDesign{Schema: diskCacheSchemaVersion + 1, Name: "old"})
	if err != nil {
		t.Fatal(err)
	}
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("ok=%t err=%v", ok, err)
	}

	if err := os.WriteFile(p, []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get(key); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestNilDiskCache(t *testing.T) {
	var c *DiskCache
	if err := c.Put(project.Digest{}, &CachedDesign{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(project.Digest{}); ok || err != nil {
		t.Fatalf("ok=%t err=%v", ok, err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
}
