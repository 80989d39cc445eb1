// Package resolve implements the Cross-File Resolver (§4.5): it rewrites
// local, unresolved references into global NodeIds by aggregating
// per-file symbol tables and import declarations into a GlobalContext and
// iterating to a fixed point.
package resolve

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ImportBinding is one "imported_name comes from module_path" fact,
// mirroring the teacher's ImportBinding in internal/core/import_resolver.go.
type ImportBinding struct {
	ImportedName string
	ModulePath   string
	IsWildcard   bool
}

// importPattern bundles the regexes and extraction logic for one
// language's import syntax, grounded directly in the teacher's
// per-extension ImportPattern table.
type importPattern struct {
	regexes   []*regexp.Regexp
	extractor func(match string) []ImportBinding
}

var patterns = map[string]*importPattern{
	".go": {
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`import\s+"([^"]+)"`),
			regexp.MustCompile(`(?s)import\s*\(\s*([^)]+)\s*\)`),
		},
		extractor: extractGoImports,
	},
	".py": {
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`from\s+(\.*[^\s]+)\s+import\s+([^#\n]+)`),
			regexp.MustCompile(`^import\s+([^\s#\n]+)`),
		},
		extractor: extractPythonImports,
	},
	".js": {
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`import\s+\{([^}]+)\}\s+from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`import\s+(\w+)\s+from\s+['"]([^'"]+)['"]`),
		},
		extractor: extractJSImports,
	},
}

func init() {
	patterns[".ts"] = patterns[".js"]
	patterns[".tsx"] = patterns[".js"]
	patterns[".jsx"] = patterns[".js"]
}

// ExtractImports scans content for import/from-import statements using
// the extension's pattern set. Unsupported extensions yield nil, not an
// error — the Structural IR already has whatever the language's grammar
// could tell it, and a missing import table just means more references
// fall back to an external node.
func ExtractImports(filePath string, content []byte) []ImportBinding {
	ext := strings.ToLower(filepath.Ext(filePath))
	pat, ok := patterns[ext]
	if !ok {
		return nil
	}

	text := string(content)
	var out []ImportBinding
	for _, re := range pat.regexes {
		for _, m := range re.FindAllString(text, -1) {
			out = append(out, pat.extractor(m)...)
		}
	}
	return out
}

func extractGoImports(match string) []ImportBinding {
	var out []ImportBinding
	if strings.Contains(match, "(") {
		inner := match[strings.Index(match, "(")+1 : strings.LastIndex(match, ")")]
		for _, line := range strings.Split(inner, "\n") {
			line = strings.TrimSpace(strings.Trim(line, `"`))
			if line == "" {
				continue
			}
			out = append(out, ImportBinding{ImportedName: lastPathElem(line), ModulePath: line})
		}
		return out
	}
	path := strings.Trim(strings.TrimSpace(strings.TrimPrefix(match, "import")), `"`)
	return []ImportBinding{{ImportedName: lastPathElem(path), ModulePath: path}}
}

func extractPythonImports(match string) []ImportBinding {
	if strings.HasPrefix(strings.TrimSpace(match), "from") {
		parts := strings.SplitN(match, "import", 2)
		if len(parts) != 2 {
			return nil
		}
		module := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "from"))
		var out []ImportBinding
		for _, name := range strings.Split(parts[1], ",") {
			name = strings.TrimSpace(name)
			if name == "*" {
				out = append(out, ImportBinding{ModulePath: module, IsWildcard: true})
				continue
			}
			if name != "" {
				out = append(out, ImportBinding{ImportedName: name, ModulePath: module})
			}
		}
		return out
	}
	module := strings.TrimSpace(strings.TrimPrefix(match, "import"))
	return []ImportBinding{{ImportedName: lastPathElem(module), ModulePath: module}}
}

func extractJSImports(match string) []ImportBinding {
	idx := strings.LastIndex(match, "from")
	if idx < 0 {
		return nil
	}
	namesPart := match[:idx]
	modulePart := strings.Trim(strings.TrimSpace(match[idx+len("from"):]), `'"`)

	namesPart = strings.TrimPrefix(strings.TrimSpace(namesPart), "import")
	namesPart = strings.TrimSpace(namesPart)

	var out []ImportBinding
	if strings.HasPrefix(namesPart, "{") {
		inner := strings.Trim(namesPart, "{}")
		for _, name := range strings.Split(inner, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				out = append(out, ImportBinding{ImportedName: name, ModulePath: modulePart})
			}
		}
		return out
	}
	if namesPart != "" {
		out = append(out, ImportBinding{ImportedName: namesPart, ModulePath: modulePart})
	}
	return out
}

func lastPathElem(p string) string {
	p = strings.Trim(p, `"`)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
