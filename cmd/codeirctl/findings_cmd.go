package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/taint"
)

var findingsCommand = &cli.Command{
	Name:    "findings",
	Aliases: []string{"f"},
	Usage:   "run taint analysis over --root and list, save, or diff Findings",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "save", Usage: "write this run's findings to a JSON file for a future 'findings diff --baseline'"},
	},
	Action: func(c *cli.Context) error {
		current, err := runTaintAnalysis(c)
		if err != nil {
			return err
		}
		if save := c.String("save"); save != "" {
			if err := saveFindings(save, current); err != nil {
				return fmt.Errorf("saving findings: %w", err)
			}
		}
		if len(current) == 0 {
			fmt.Println("no findings")
			return nil
		}
		for _, f := range current {
			printFinding(string(f.Severity), f)
		}
		return nil
	},
	Subcommands: []*cli.Command{
		{
			// findings diff is the CLI surface over compare_findings
			// (§4.7 "Regression proof"): "new = ∅" is the acceptance
			// criterion for regression gates, so a non-clean diff exits
			// non-zero.
			Name:  "diff",
			Usage: "compare this run's findings against a saved baseline; fails if any finding is new",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "baseline", Required: true, Usage: "path to a findings JSON file saved by 'findings --save'"},
			},
			Action: func(c *cli.Context) error {
				current, err := runTaintAnalysis(c)
				if err != nil {
					return err
				}
				prior, err := loadFindings(c.String("baseline"))
				if err != nil {
					return fmt.Errorf("loading baseline: %w", err)
				}

				diff := taint.CompareFindings(prior, current)
				fmt.Printf("new           %d\n", len(diff.New))
				fmt.Printf("removed       %d\n", len(diff.Removed))
				fmt.Printf("unchanged     %d\n", len(diff.Unchanged))
				fmt.Printf("passed        %t\n", diff.Passed)
				for _, f := range diff.New {
					printFinding("NEW", f)
				}
				if !diff.Passed {
					return fmt.Errorf("regression gate failed: %d new finding(s)", len(diff.New))
				}
				return nil
			},
		},
	},
}

// runTaintAnalysis builds the current session and flattens every
// document's Findings, shared by the list action and the diff
// subcommand so both run the identical analysis.
func runTaintAnalysis(c *cli.Context) ([]ir.Finding, error) {
	cfg, err := loadProjectConfig(c)
	if err != nil {
		return nil, err
	}
	result, err := runSession(c, cfg)
	if err != nil {
		return nil, fmt.Errorf("indexing failed: %w", err)
	}
	if result.Cancelled {
		return nil, fmt.Errorf("indexing cancelled")
	}

	var findings []ir.Finding
	for _, doc := range result.Docs {
		findings = append(findings, doc.Findings...)
	}
	return findings, nil
}

func printFinding(label string, f ir.Finding) {
	fmt.Printf("[%s] %s %s:%d rule=%s\n", label, f.Kind, f.FilePath, f.SinkLine, f.RuleID)
	if len(f.Path) > 0 {
		fmt.Printf("    path: %v\n", f.Path)
	}
}

func saveFindings(path string, findings []ir.Finding) error {
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func loadFindings(path string) ([]ir.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var findings []ir.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, err
	}
	return findings, nil
}
