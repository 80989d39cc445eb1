package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/structural"
	"github.com/standardbeagle/codeir/internal/types"
)

func buildDoc(t *testing.T, filePath string, src []byte) *ir.IRDocument {
	t.Helper()
	port := parserport.NewTreeSitterPort()
	lang := types.LanguageForExtension(".py")
	pf, err := port.Parse(context.Background(), filePath, src, lang)
	require.NoError(t, err)
	b := structural.New("repo1", "test-engine")
	return b.Build(pf, src)
}

func TestResolveRewritesCrossFileInheritsEdge(t *testing.T) {
	baseSrc := []byte("class Base:\n    pass\n")
	fooSrc := []byte("from base import Base\n\nclass Foo(Base):\n    pass\n")

	baseDoc := buildDoc(t, "base.py", baseSrc)
	fooDoc := buildDoc(t, "foo.py", fooSrc)

	docs := map[string]*ir.IRDocument{
		"base.py": baseDoc,
		"foo.py":  fooDoc,
	}
	sources := map[string][]byte{
		"base.py": baseSrc,
		"foo.py":  fooSrc,
	}

	gc := NewGlobalContext("repo1", docs, sources)
	Resolve(gc, docs)

	fooClasses := fooDoc.ByKind(types.NodeKindClass)
	var foo *ir.Node
	for i := range fooClasses {
		if fooClasses[i].FQN == "foo.Foo" {
			foo = fooClasses[i]
		}
	}
	require.NotNil(t, foo)

	edges := fooDoc.EdgesFrom(foo.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, types.EdgeKindInherits, edges[0].Kind)
	assert.False(t, isExternalID(edges[0].TargetID), "inherits edge must resolve off the external sentinel")

	baseClasses := baseDoc.ByKind(types.NodeKindClass)
	require.Len(t, baseClasses, 1)
	assert.Equal(t, baseClasses[0].ID, edges[0].TargetID)
}

func TestResolveLeavesUnresolvableExternalEdgeAlone(t *testing.T) {
	fooSrc := []byte("class Foo(SomeUnknownBase):\n    pass\n")
	fooDoc := buildDoc(t, "foo.py", fooSrc)

	docs := map[string]*ir.IRDocument{"foo.py": fooDoc}
	sources := map[string][]byte{"foo.py": fooSrc}

	gc := NewGlobalContext("repo1", docs, sources)
	Resolve(gc, docs)

	classes := fooDoc.ByKind(types.NodeKindClass)
	var foo *ir.Node
	for i := range classes {
		if classes[i].FQN == "foo.Foo" {
			foo = classes[i]
		}
	}
	require.NotNil(t, foo)

	edges := fooDoc.EdgesFrom(foo.ID)
	require.Len(t, edges, 1)
	assert.True(t, isExternalID(edges[0].TargetID), "an unimportable base class stays external")
}

func TestModulePathForStripsExtensionAndSlashes(t *testing.T) {
	assert.Equal(t, "pkg.foo.bar", modulePathFor("pkg/foo/bar.py"))
}

func TestExtractImportsPython(t *testing.T) {
	bindings := ExtractImports("foo.py", []byte("from base import Base\n"))
	require.Len(t, bindings, 1)
	assert.Equal(t, "Base", bindings[0].ImportedName)
	assert.Equal(t, "base", bindings[0].ModulePath)
}
