// Package depgraph implements the Dependency Builder: it folds
// per-class couplings up to the project level and produces the project
// dependency graph (spec.md §4.4).
package depgraph

import (
	"sort"

	"github.com/ciacob/MASCOT/pkg/model"
)

// Build folds classCatalog's couplings to project level. Each project
// in projects gets a node (even with zero dependencies), seeded with
// root_classes from its retained descriptors. Nodes are returned sorted
// by num_dependencies ascending (stable), per spec.md §4.4 "Output
// ordering" — this is not a topological sort.
func Build(projects []model.Project, classCatalog []model.ClassRecord) []model.ProjectDependencyNode {
	nodes := make(map[string]*model.ProjectDependencyNode, len(projects))
	order := make([]string, 0, len(projects))

	for _, p := range projects {
		node := &model.ProjectDependencyNode{ProjectPath: p.HomePath}
		for _, d := range p.Descriptors {
			if d.RelatedClassPath != "" {
				node.RootClasses = append(node.RootClasses, d.RelatedClassPath)
			}
		}
		nodes[p.HomePath] = node
		order = append(order, p.HomePath)
	}

	seen := make(map[string]map[string]bool, len(projects))

	for _, cr := range classCatalog {
		owner := cr.AnalyzedClass.OwningProjectPath
		node, ok := nodes[owner]
		if !ok {
			continue
		}
		for _, c := range cr.ClassCouplings {
			if !c.ClassExists || c.MatchingProject == "" || c.MatchingProject == owner {
				continue
			}
			if seen[owner] == nil {
				seen[owner] = make(map[string]bool)
			}
			if seen[owner][c.MatchingProject] {
				continue
			}
			seen[owner][c.MatchingProject] = true
			node.ProjectDependencies = append(node.ProjectDependencies, c.MatchingProject)
		}
	}

	result := make([]model.ProjectDependencyNode, 0, len(order))
	for _, path := range order {
		node := nodes[path]
		node.NumDependencies = len(node.ProjectDependencies)
		result = append(result, *node)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].NumDependencies < result[j].NumDependencies
	})

	return result
}
