package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDL parses a .codeir.kdl document and overlays its fields onto
// cfg, following the teacher's node-by-node AST walk (kdl_config.go):
// top-level nodes name a section, section children name a field, and a
// field's first argument carries its value.
func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse .codeir.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "root":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Root = s
					}
				case "name":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Name = s
						cfg.Build.RepoID = s
					}
				}
			}
		case "build":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "engine_version":
					if s, ok := firstStringArg(cn); ok {
						cfg.Build.EngineVersion = s
					}
				case "schema_version":
					if s, ok := firstStringArg(cn); ok {
						cfg.Build.SchemaVersion = s
					}
				case "max_impact_reindex_files":
					if v, ok := firstIntArg(cn); ok {
						cfg.Build.MaxImpactReindexFiles = v
					}
				case "worker_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.Build.WorkerCount = v
					}
				case "progress_interval":
					if v, ok := firstIntArg(cn); ok {
						cfg.Build.ProgressInterval = v
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Build.WatchDebounce = msDuration(v)
					}
				}
			}
		case "exclude":
			if patterns := collectStringArgs(n); len(patterns) > 0 {
				cfg.Build.ExcludePatterns = patterns
			}
		case "include_default_excludes":
			if b, ok := firstBoolArg(n); ok && b {
				cfg.Build.ExcludePatterns = append(cfg.Build.ExcludePatterns, orchestratorDefaultExcludes()...)
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs reads an "exclude { \"a/**\" \"b/**\" }"-style block,
// accepting both inline arguments and one-pattern-per-child-node form.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
