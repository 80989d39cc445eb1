package taint

import "github.com/standardbeagle/codeir/internal/ir"

// FindingDiff is the result of comparing two finding sets addressed by
// (rule_id, file_path, sink_line) (§4.7 "Regression proof"). "new = ∅" is
// the acceptance criterion for regression gates.
type FindingDiff struct {
	New       []ir.Finding
	Removed   []ir.Finding
	Unchanged []ir.Finding
	Passed    bool
}

// CompareFindings diffs baseline against current by Finding.Address().
// Passed reports whether the diff is clean: no new findings introduced.
func CompareFindings(baseline, current []ir.Finding) FindingDiff {
	byAddr := make(map[ir.Address]ir.Finding, len(baseline))
	for _, f := range baseline {
		byAddr[f.Address()] = f
	}

	var diff FindingDiff
	seen := make(map[ir.Address]bool, len(current))
	for _, f := range current {
		seen[f.Address()] = true
		if _, ok := byAddr[f.Address()]; ok {
			diff.Unchanged = append(diff.Unchanged, f)
		} else {
			diff.New = append(diff.New, f)
		}
	}
	for _, f := range baseline {
		if !seen[f.Address()] {
			diff.Removed = append(diff.Removed, f)
		}
	}
	diff.Passed = len(diff.New) == 0
	return diff
}
