package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeir/internal/orchestrator"
)

var statusCommand = &cli.Command{
	Name:    "status",
	Aliases: []string{"st"},
	Usage:   "show the last promoted IndexVersion for --root",
	Action: func(c *cli.Context) error {
		cfg, err := loadProjectConfig(c)
		if err != nil {
			return err
		}
		stateDir := filepath.Join(cfg.Project.Root, ".codeir")
		versions := orchestrator.NewVersionStore(stateDir)

		versionID, ok := latestCompletedVersion(versions, cfg.Build.RepoID)
		if !ok {
			fmt.Println("no completed index version found; run 'codeirctl index' first")
			return nil
		}
		v, err := versions.Load(versionID)
		if err != nil {
			return fmt.Errorf("loading version %s: %w", versionID, err)
		}

		fmt.Printf("repo          %s\n", v.RepoID)
		fmt.Printf("version       %s\n", v.VersionID)
		fmt.Printf("status        %s\n", v.Status)
		fmt.Printf("files         %d\n", v.FileCount)
		fmt.Printf("created       %s\n", v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("duration      %s\n", formatDuration(v.DurationMs))
		return nil
	},
}
