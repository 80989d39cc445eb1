package parserport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/types"
)

func TestTreeSitterPortSupports(t *testing.T) {
	p := NewTreeSitterPort()
	assert.True(t, p.Supports(types.LangGo))
	assert.True(t, p.Supports(types.LangPython))
	assert.True(t, p.Supports(types.LangJavaScript))
	assert.True(t, p.Supports(types.LangTypeScript))
	assert.True(t, p.Supports(types.LangJava))
	assert.False(t, p.Supports(types.LangUnknown))
}

func TestTreeSitterPortParseGoFunction(t *testing.T) {
	p := NewTreeSitterPort()
	src := []byte("package main\n\nfunc foo() {\n\treturn\n}\n")

	pf, err := p.Parse(context.Background(), "a.go", src, types.LangGo)
	require.NoError(t, err)
	require.NotNil(t, pf.Root)
	assert.Equal(t, "a.go", pf.FilePath)
	assert.Greater(t, pf.LineCount, 0)

	var found bool
	var walk func(n *CSTNode)
	walk = func(n *CSTNode) {
		if n.Kind == CSTFunction && n.Name == "foo" {
			found = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(pf.Root)
	assert.True(t, found, "expected to find a function decl named foo")

	var sawDef bool
	for _, occ := range pf.Occurrences {
		if occ.Name == "foo" && occ.Role == types.RoleDef {
			sawDef = true
		}
	}
	assert.True(t, sawDef, "expected a DEF occurrence for foo")
}

func TestTreeSitterPortParsePythonClass(t *testing.T) {
	p := NewTreeSitterPort()
	src := []byte("class Foo:\n    def bar(self):\n        pass\n")

	pf, err := p.Parse(context.Background(), "a.py", src, types.LangPython)
	require.NoError(t, err)
	require.NotNil(t, pf.Root)

	var foundClass, foundMethod bool
	var walk func(n *CSTNode)
	walk = func(n *CSTNode) {
		if n.Kind == CSTClass && n.Name == "Foo" {
			foundClass = true
		}
		if n.Kind == CSTFunction && n.Name == "bar" {
			foundMethod = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(pf.Root)
	assert.True(t, foundClass)
	assert.True(t, foundMethod)
}

func TestTreeSitterPortRejectsUnsupportedLanguage(t *testing.T) {
	p := NewTreeSitterPort()
	_, err := p.Parse(context.Background(), "a.rb", []byte("x"), types.LangUnknown)
	require.Error(t, err)
}

func TestTreeSitterPortPartialTreeOnSyntaxError(t *testing.T) {
	p := NewTreeSitterPort()
	src := []byte("func foo( {\n")

	pf, err := p.Parse(context.Background(), "a.go", src, types.LangGo)
	require.Error(t, err)
	require.NotNil(t, pf, "a recoverable parse error must still carry a usable partial tree")
}
