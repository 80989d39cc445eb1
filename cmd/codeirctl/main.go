// Command codeirctl is a thin CLI demonstrator over the core library
// (§1 "Deliberately out of scope: Command-line front-end... thin
// transport glue"). It wires the orchestrator, graph store, query
// engine, taint engine, and hybrid retriever together the way a real
// front end would, but owns no indexing logic itself — every flag maps
// directly onto a call into internal/.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeir/internal/config"
	"github.com/standardbeagle/codeir/internal/diag"
	"github.com/standardbeagle/codeir/internal/ircache"
	"github.com/standardbeagle/codeir/internal/orchestrator"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/taint"
	"github.com/standardbeagle/codeir/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "codeirctl",
		Usage:   "layered-IR code understanding: index, query, and search a repository",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "repository root to operate on",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "rules",
				Usage: "taint rule directory (YAML atoms)",
				Value: "rules/v1",
			},
			&cli.BoolFlag{
				Name:  "incremental",
				Usage: "reuse the last promoted version's manifest for change detection",
			},
		},
		Commands: []*cli.Command{
			indexCommand,
			statusCommand,
			queryCommand,
			searchCommand,
			findingsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "codeirctl: %v\n", err)
		os.Exit(1)
	}
}

// loadProjectConfig loads .codeir.kdl (or defaults) for the --root flag
// and folds in the --rules path, matching the teacher's
// loadConfigWithOverrides shape: config.Load does the file/manifest
// work, the CLI only applies flag overrides on top.
func loadProjectConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// runSession builds a BuildSession against cfg, wired with the
// tree-sitter parser port, a memory+disk IR cache under
// <root>/.codeir/cache, and the taint rule set loaded from --rules (a
// missing or empty rule directory just means no findings, not a
// failure — the taint layer is optional at the CLI boundary).
func runSession(c *cli.Context, cfg *config.Config) (*orchestrator.Result, error) {
	stateDir := filepath.Join(cfg.Project.Root, ".codeir")
	cacheDir := filepath.Join(stateDir, "cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("preparing cache dir: %w", err)
	}

	rules, err := loadRules(c.String("rules"))
	if err != nil {
		return nil, err
	}

	versions := orchestrator.NewVersionStore(stateDir)
	var previousID string
	if c.Bool("incremental") {
		if latest, ok := latestCompletedVersion(versions, cfg.Build.RepoID); ok {
			previousID = latest
		}
	}

	session := &orchestrator.BuildSession{
		RepoPath:          cfg.Project.Root,
		RepoID:            cfg.Build.RepoID,
		IsIncremental:     c.Bool("incremental") && previousID != "",
		PreviousVersionID: previousID,
		Config:            cfg.Build,
		Parser:            parserport.NewTreeSitterPort(),
		Cache: ircache.New(
			ircache.NewMemoryCache(2048),
			ircache.NewDiskCache(cacheDir, cfg.Build.SchemaVersion, cfg.Build.EngineVersion, true),
		),
		Rules:    rules,
		Versions: versions,
		Log:      diag.New("codeirctl", diag.LevelWarn, os.Stderr),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return session.Run(ctx)
}

func loadRules(dir string) (*taint.RuleSet, error) {
	if dir == "" {
		return taint.NewRuleSet(), nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return taint.NewRuleSet(), nil
	}
	return taint.LoadRuleDir(dir)
}

// latestCompletedVersion is a best-effort scan for the last COMPLETED
// IndexVersion under a repo's state dir; codeirctl keeps no index of its
// own beyond what VersionStore persists, so --incremental degrades to a
// full build whenever no prior version can be found rather than failing.
func latestCompletedVersion(vs *orchestrator.VersionStore, repoID string) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(vs.StateDir, "versions"))
	if err != nil {
		return "", false
	}
	var best orchestrator.IndexVersion
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := trimVersionExt(e.Name())
		v, err := vs.Load(id)
		if err != nil || v.Status != orchestrator.StatusCompleted || v.RepoID != repoID {
			continue
		}
		if !found || v.CreatedAt.After(best.CreatedAt) {
			best, found = v, true
		}
	}
	return best.VersionID, found
}

func trimVersionExt(name string) string {
	const ext = ".json"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		return name[:len(name)-len(ext)]
	}
	return name
}

func formatDuration(ms int64) string {
	return time.Duration(ms * int64(time.Millisecond)).String()
}
