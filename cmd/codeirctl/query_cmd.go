package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/query"
	"github.com/standardbeagle/codeir/internal/types"
)

var queryCommand = &cli.Command{
	Name:    "query",
	Aliases: []string{"q"},
	Usage:   "run a bounded path-DSL flow query (S >> T) against a freshly built graph",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "source-fqn-prefix", Usage: "source selector: FQN prefix (module/package path)"},
		&cli.StringFlag{Name: "source-kind", Usage: "source selector: node kind (e.g. FUNCTION)"},
		&cli.StringFlag{Name: "target-fqn-prefix", Usage: "target selector: FQN prefix"},
		&cli.StringFlag{Name: "target-kind", Usage: "target selector: node kind"},
		&cli.StringSliceFlag{Name: "via", Usage: "restrict to these edge kinds (e.g. CALLS, DFG)"},
		&cli.IntFlag{Name: "depth", Usage: "max path length in edges", Value: query.DefaultDepth},
		&cli.IntFlag{Name: "limit-paths", Usage: "max number of paths returned", Value: query.DefaultLimitPaths},
		&cli.BoolFlag{Name: "reverse", Usage: "walk S << T instead of S >> T"},
	},
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
			return fmt.Errorf("indexing cancelled")
		}

		source := buildSelector(c.String("source-kind"), c.String("source-fqn-prefix"))
		target := buildSelector(c.String("target-kind"), c.String("target-fqn-prefix"))
		if source == nil || target == nil {
			return fmt.Errorf("must supply --source-kind/--source-fqn-prefix and --target-kind/--target-fqn-prefix")
		}

		var q *query.Query
		if c.Bool("reverse") {
			q = query.ReverseFlow(source, target)
		} else {
			q = query.Flow(source, target)
		}
		q.Depth(c.Int("depth")).LimitPaths(c.Int("limit-paths")).Timeout(5 * time.Second)
		if kinds := c.StringSlice("via"); len(kinds) > 0 {
			edgeKinds := make([]types.EdgeKind, len(kinds))
			for i, k := range kinds {
				edgeKinds[i] = types.EdgeKind(strings.ToUpper(k))
			}
			q.Via(edgeKinds...)
		}

		pathSet := query.Execute(result.Store, q)
		fmt.Printf("complete      %t\n", pathSet.Complete)
		if !pathSet.Complete {
			fmt.Printf("truncated_by  %s\n", pathSet.TruncationReason)
		}
		fmt.Printf("paths         %d\n", len(pathSet.Paths))
		for i, p := range pathSet.Paths {
			fmt.Printf("  [%d] %s\n", i, formatPath(p))
		}
		return nil
	},
}

func buildSelector(kind, fqnPrefix string) query.Selector {
	var sels []query.Selector
	if kind != "" {
		sels = append(sels, query.ByKind(types.NodeKind(strings.ToUpper(kind))))
	}
	if fqnPrefix != "" {
		sels = append(sels, query.ByFQNPrefix(fqnPrefix))
	}
	switch len(sels) {
	case 0:
		return nil
	case 1:
		return sels[0]
	default:
		return allOf(sels)
	}
}

// allOf is the conjunction of several selectors; query.Union only
// builds disjunctions, so the CLI composes AND itself for the common
// "this kind AND this FQN prefix" case.
func allOf(sels []query.Selector) query.Selector {
	return query.ByPredicate(func(n *ir.Node) bool {
		for _, s := range sels {
			if !s.Matches(n) {
				return false
			}
		}
		return true
	})
}

func formatPath(p query.PathResult) string {
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			b.WriteString(" -")
			if i-1 < len(p.Kinds) {
				b.WriteString(string(p.Kinds[i-1]))
			}
			b.WriteString("-> ")
		}
		b.WriteString(string(n))
	}
	return b.String()
}
