package structural

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

func TestBuildGoFunctionEmitsContainsEdge(t *testing.T) {
	port := parserport.NewTreeSitterPort()
	src := []byte("package main\n\nfunc foo() {\n\treturn\n}\n")
	pf, err := port.Parse(context.Background(), "a.go", src, types.LangGo)
	require.NoError(t, err)

	b := New("repo1", "test-engine")
	doc := b.Build(pf, src)

	fns := doc.ByKind(types.NodeKindFunction)
	require.Len(t, fns, 1)
	assert.Contains(t, fns[0].FQN, "foo")

	in := doc.EdgesTo(fns[0].ID)
	require.Len(t, in, 1)
	assert.Equal(t, types.EdgeKindContains, in[0].Kind)
}

func TestBuildPythonClassExtractsBasesAndDocstring(t *testing.T) {
	port := parserport.NewTreeSitterPort()
	src := []byte("class Foo(Base1, Base2):\n    \"\"\"does a thing\"\"\"\n    def bar(self):\n        pass\n")
	pf, err := port.Parse(context.Background(), "a.py", src, types.LangPython)
	require.NoError(t, err)

	b := New("repo1", "test-engine")
	doc := b.Build(pf, src)

	classes := doc.ByKind(types.NodeKindClass)
	require.GreaterOrEqual(t, len(classes), 1)

	var fooClass *struct {
		bases []string
		doc   string
	}
	for _, c := range classes {
		if bases, ok := c.Attr("base_classes"); ok {
			fooClass = &struct {
				bases []string
				doc   string
			}{}
			fooClass.bases = bases.([]string)
			if d, ok := c.Attr("docstring"); ok {
				fooClass.doc = d.(string)
			}
		}
	}
	require.NotNil(t, fooClass, "expected a class node with base_classes attr")
	assert.ElementsMatch(t, []string{"Base1", "Base2"}, fooClass.bases)

	methods := doc.ByKind(types.NodeKindFunction)
	require.GreaterOrEqual(t, len(methods), 1)
}

func TestBuildRedeclarationKeepsBothNodesDistinctHash(t *testing.T) {
	port := parserport.NewTreeSitterPort()
	src := []byte("def foo():\n    pass\n\ndef foo():\n    return 1\n")
	pf, err := port.Parse(context.Background(), "a.py", src, types.LangPython)
	require.NoError(t, err)

	b := New("repo1", "test-engine")
	doc := b.Build(pf, src)

	fns := doc.ByKind(types.NodeKindFunction)
	require.Len(t, fns, 2)
	assert.Equal(t, fns[0].ID, fns[1].ID, "re-declarations keep the same symbol-table NodeId")
	assert.False(t, fns[1].ContentHash.IsZero(), "the later declaration must carry a distinct content hash")
}

func TestModuleFQNFromPath(t *testing.T) {
	assert.Equal(t, "pkg.foo.bar", moduleFQN("pkg/foo/bar.py"))
}
