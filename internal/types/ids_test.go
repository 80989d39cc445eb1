package types

import "testing"

func TestNewNodeIDFormat(t *testing.T) {
	id := NewNodeID(NodeKindFunction, "repo1", "pkg/a.go", "pkg.Foo")
	want := NodeID("FUNCTION:repo1:pkg/a.go:pkg.Foo")
	if id != want {
		t.Fatalf("got %q want %q", id, want)
	}
}

func TestExternalNodeUsesSentinelFile(t *testing.T) {
	id := NewNodeID(NodeKindExternalSymbol, "repo1", ExternalFile, "os.Open")
	want := NodeID("EXTERNAL_SYMBOL:repo1:<external>:os.Open")
	if id != want {
		t.Fatalf("got %q want %q", id, want)
	}
	if !NodeKindExternalSymbol.IsExternal() {
		t.Fatal("EXTERNAL_SYMBOL should report IsExternal")
	}
}

func TestNewEdgeIDDisambiguation(t *testing.T) {
	dedup := map[string]int{}
	src := NodeID("FUNCTION:r:a.go:a.foo")
	dst := NodeID("FUNCTION:r:b.go:b.bar")

	first := NewEdgeID(EdgeKindCalls, src, dst, dedup)
	second := NewEdgeID(EdgeKindCalls, src, dst, dedup)
	third := NewEdgeID(EdgeKindCalls, src, dst, dedup)

	if first == second || second == third {
		t.Fatalf("repeated (kind,source,target) triples must disambiguate: %q %q %q", first, second, third)
	}
	if first != EdgeID("CALLS:FUNCTION:r:a.go:a.foo→FUNCTION:r:b.go:b.bar") {
		t.Fatalf("unexpected base edge id: %q", first)
	}
}

func TestNewEdgeIDNilDedupAlwaysBare(t *testing.T) {
	src := NodeID("A")
	dst := NodeID("B")
	first := NewEdgeID(EdgeKindCalls, src, dst, nil)
	second := NewEdgeID(EdgeKindCalls, src, dst, nil)
	if first != second {
		t.Fatal("nil dedup set must always produce the bare id")
	}
}

func TestLanguageForExtension(t *testing.T) {
	cases := map[string]Language{
		".go":  LangGo,
		".py":  LangPython,
		".ts":  LangTypeScript,
		".tsx": LangTypeScript,
		".rb":  LangUnknown,
	}
	for ext, want := range cases {
		if got := LanguageForExtension(ext); got != want {
			t.Errorf("LanguageForExtension(%q) = %v, want %v", ext, got, want)
		}
	}
}
