package resolve

import (
	"path"
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// GlobalContext aggregates every file's symbol table and import bindings,
// the data the fixed-point pass in resolver.go needs to rewrite local
// references into global NodeIds (§4.5).
type GlobalContext struct {
	repoID string
	// bySymbolName maps a bare declared name to every NodeID declaring it,
	// across all files — the GLOSSARY's "global module index" collapsed
	// to name lookup since this repo does not model package-level
	// export lists beyond what's already a top-level declaration.
	bySymbolName map[string][]types.NodeID
	// fqnByID maps a NodeID to the FQN it was declared with, so occurrence
	// rewriting can recover a human-readable symbol_fqn after resolving to
	// a concrete NodeID.
	fqnByID map[types.NodeID]string
	// fileOfModule maps a best-effort module path to the file path that
	// declares it, used to narrow a multi-hit bySymbolName lookup to the
	// file the importing file's import table actually points at.
	fileOfModule map[string]string
	// imports maps a file path to the import bindings extracted from it.
	imports map[string][]ImportBinding
}

// NewGlobalContext builds the aggregate context from every file's
// IRDocument and raw source (needed to extract import statements, since
// the Structural IR doesn't retain raw text for that).
func NewGlobalContext(repoID string, docs map[string]*ir.IRDocument, sources map[string][]byte) *GlobalContext {
	gc := &GlobalContext{
		repoID:       repoID,
		bySymbolName: make(map[string][]types.NodeID),
		fqnByID:      make(map[types.NodeID]string),
		fileOfModule: make(map[string]string),
		imports:      make(map[string][]ImportBinding),
	}

	for filePath, doc := range docs {
		gc.fileOfModule[modulePathFor(filePath)] = filePath
		for _, n := range doc.Nodes {
			if n.FilePath == types.ExternalFile {
				continue
			}
			name := lastFQNSegment(n.FQN)
			gc.bySymbolName[name] = append(gc.bySymbolName[name], n.ID)
			gc.fqnByID[n.ID] = n.FQN
		}
		if content, ok := sources[filePath]; ok {
			gc.imports[filePath] = ExtractImports(filePath, content)
		}
	}

	return gc
}

// modulePathFor derives a best-effort module path for a file, the same
// join(...) convention internal/structural uses for FQNs, so a relative
// import like "./foo" or "pkg.foo" can plausibly match it.
func modulePathFor(filePath string) string {
	p := filePath
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		p = p[:i]
	}
	return strings.ReplaceAll(strings.ReplaceAll(p, "/", "."), "\\", ".")
}

func lastFQNSegment(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// resolveImportedName implements §4.5 steps 1-3: look up importedName in
// fromFile's import table to get module_path, look up module_path in the
// global module index, then find an exported symbol of that name in the
// target module's symbol table.
func (gc *GlobalContext) resolveImportedName(fromFile, importedName string) (types.NodeID, bool) {
	for _, binding := range gc.imports[fromFile] {
		if binding.IsWildcard {
			if targetFile, ok := gc.moduleFile(fromFile, binding.ModulePath); ok {
				if id, ok := gc.symbolInFile(targetFile, importedName); ok {
					return id, true
				}
			}
			continue
		}
		if binding.ImportedName != importedName {
			continue
		}
		targetFile, ok := gc.moduleFile(fromFile, binding.ModulePath)
		if !ok {
			continue
		}
		if id, ok := gc.symbolInFile(targetFile, importedName); ok {
			return id, true
		}
	}
	return "", false
}

func (gc *GlobalContext) moduleFile(fromFile, modulePath string) (string, bool) {
	candidate := modulePath
	if strings.HasPrefix(modulePath, ".") {
		dir := path.Dir(fromFile)
		candidate = modulePathFor(path.Join(dir, strings.TrimLeft(modulePath, "./")))
	}
	f, ok := gc.fileOfModule[candidate]
	if ok {
		return f, true
	}
	// Fall back to matching the last path element, which covers imports
	// like "package/sub" resolving to a file whose module path is just
	// "sub" when the repo root isn't part of the FQN convention.
	last := lastPathElem(candidate)
	f, ok = gc.fileOfModule[last]
	return f, ok
}

// FQN returns the declared FQN for a concrete (non-external) NodeID, or
// false if gc has no record of it.
func (gc *GlobalContext) FQN(id types.NodeID) (string, bool) {
	fqn, ok := gc.fqnByID[id]
	return fqn, ok
}

func (gc *GlobalContext) symbolInFile(filePath, name string) (types.NodeID, bool) {
	for _, id := range gc.bySymbolName[name] {
		if strings.Contains(string(id), ":"+filePath+":") {
			return id, true
		}
	}
	return "", false
}
