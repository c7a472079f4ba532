package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/pacsea-project/pacsea/internal/model"
	"golang.org/x/exp/slices"
)

// ResolveReverseDependencies runs a breadth-first walk of "Required By" for
// each removal root, so the remove preflight can warn about (and the
// cascade modes can act on) packages that would be left broken.
func ResolveReverseDependencies(ctx context.Context, run Runner, roots []string) (model.ReverseDependencyReport, error) {
	report := model.ReverseDependencyReport{}

	for _, root := range roots {
		visited := map[string]int{root: 0}
		queue := []string{root}
		var deps []model.ReverseDependency
		pathTo := map[string][]string{root: nil}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			depth := visited[current]

			requiredBy, err := requiredByOf(ctx, run, current)
			if err != nil {
				continue
			}
			for _, name := range requiredBy {
				if isRoot(name, roots) {
					continue // don't report a target blocking another target
				}
				if _, already := visited[name]; already {
					continue
				}
				visited[name] = depth + 1
				via := append(append([]string{}, pathTo[current]...), current)
				pathTo[name] = via
				queue = append(queue, name)

				deps = append(deps, model.ReverseDependency{
					Root:   root,
					Name:   name,
					Depth:  depth + 1,
					Via:    via,
					Reason: reverseReason(root, name, depth+1, via),
				})
			}
		}

		report.Dependencies = append(report.Dependencies, deps...)
		direct, transitive := 0, 0
		for _, d := range deps {
			if d.Depth == 1 {
				direct++
			} else {
				transitive++
			}
		}
		report.Summaries = append(report.Summaries, model.ReverseDependencySummary{
			Root: root, DirectDependents: direct, TransitiveDependents: transitive,
		})
	}

	return report, nil
}

func isRoot(name string, roots []string) bool {
	return slices.Contains(roots, name)
}

func requiredByOf(ctx context.Context, run Runner, name string) ([]string, error) {
	out, err := run(ctx, "pacman", "-Qii", name)
	if err != nil {
		return nil, err
	}
	block := lines(out)
	v, ok := pacmanField(block, "Required By")
	if !ok || v == "None" {
		return nil, nil
	}
	return splitFields(v), nil
}

func reverseReason(root, name string, depth int, via []string) string {
	if depth == 1 {
		return fmt.Sprintf("%s directly requires %s", name, root)
	}
	return fmt.Sprintf("%s requires %s (depth %d via %s)", name, root, depth, strings.Join(via, ", "))
}
