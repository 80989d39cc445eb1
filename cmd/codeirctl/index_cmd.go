package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var indexCommand = &cli.Command{
	Name:    "index",
	Aliases: []string{"i"},
	Usage:   "run the layered IR pipeline over --root and promote a new IndexVersion",
	Action: func(c *cli.Context) error {
		cfg, err := loadProjectConfig(c)
		if err != nil {
			return err
		}

		result, err := runSession(c, cfg)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		if result.Cancelled {
			fmt.Fprintln(os.Stderr, "indexing cancelled")
			return nil
		}

		var findingCount int
		for _, doc := range result.Docs {
			findingCount += len(doc.Findings)
		}

		fmt.Printf("version       %s\n", result.Version.VersionID)
		fmt.Printf("status        %s\n", result.Version.Status)
		fmt.Printf("files indexed %d\n", result.Version.FileCount)
		fmt.Printf("changed       +%d ~%d -%d\n", len(result.ChangeSet.Added), len(result.ChangeSet.Modified), len(result.ChangeSet.Deleted))
		fmt.Printf("nodes         %d\n", result.Store.NodeCount())
		fmt.Printf("edges         %d\n", result.Store.EdgeCount())
		fmt.Printf("findings      %d\n", findingCount)
		fmt.Printf("duration      %s\n", formatDuration(result.Version.DurationMs))
		return nil
	},
}
