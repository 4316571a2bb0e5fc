// Package planner implements the Task Planner and the Dirtiness Filter:
// it turns the project dependency graph into a per-project, cycle-
// tolerant transitive build order, then prunes each order down to only
// the transitively dirty entries (spec.md §4.5, §4.6).
package planner

import (
	"github.com/ciacob/MASCOT/pkg/model"
)

// Plan computes the transitive build-task list for every node in
// graph: a depth-first post-order traversal of each node's reachable
// subgraph, deduplicated by first occurrence, with the node itself
// last. Cycles are tolerated (an in-progress node is not re-entered)
// and logged; dependency paths absent from the graph are logged too.
func Plan(graph []model.ProjectDependencyNode) ([]model.BuildTask, []model.Problem) {
	byPath := make(map[string]model.ProjectDependencyNode, len(graph))
	for _, n := range graph {
		byPath[n.ProjectPath] = n
	}

	var problems []model.Problem
	tasks := make([]model.BuildTask, 0, len(graph))

	for _, n := range graph {
		order := make([]string, 0)
		visited := make(map[string]bool)
		inProgress := make(map[string]bool)
		visit(n.ProjectPath, byPath, visited, inProgress, &order, &problems)

		tasks = append(tasks, model.BuildTask{
			ProjectPath:       n.ProjectPath,
			ProjectBuildTasks: order,
			NumTasks:          len(order),
		})
	}

	return tasks, problems
}

// visit performs the depth-first post-order walk rooted at path,
// appending to order. inProgress tracks the current DFS stack so a
// cycle back onto it is skipped (and logged) rather than recursed into
// again; visited tracks everything already appended, for the
// first-occurrence dedup spec.md §4.5 requires.
func visit(path string, byPath map[string]model.ProjectDependencyNode, visited, inProgress map[string]bool, order *[]string, problems *[]model.Problem) {
	if visited[path] {
		return
	}
	if inProgress[path] {
		*problems = append(*problems, model.Problem{
			Kind:    model.ProblemCycle,
			Path:    path,
			Message: "dependency cycle detected: " + path + " is reachable from itself",
		})
		return
	}

	node, ok := byPath[path]
	if !ok {
		*problems = append(*problems, model.Problem{
			Kind:    model.ProblemMissingGraphNode,
			Path:    path,
			Message: "referenced project is not present in the dependency graph",
		})
		return
	}

	inProgress[path] = true
	for _, dep := range node.ProjectDependencies {
		visit(dep, byPath, visited, inProgress, order, problems)
	}
	inProgress[path] = false

	if !visited[path] {
		visited[path] = true
		*order = append(*order, path)
	}
}

// Filter rewrites each task's ProjectBuildTasks to retain only
// transitively dirty entries, per spec.md §4.6. isDirty maps project
// path → its own is_dirty flag (from the project catalog); graph
// supplies reachability. tasks is mutated in place and also returned
// for convenience.
func Filter(tasks []model.BuildTask, graph []model.ProjectDependencyNode, isDirty map[string]bool) []model.BuildTask {
	byPath := make(map[string]model.ProjectDependencyNode, len(graph))
	for _, n := range graph {
		byPath[n.ProjectPath] = n
	}

	memo := make(map[string]bool)

	for i := range tasks {
		filtered := make([]string, 0, len(tasks[i].ProjectBuildTasks))
		for _, p := range tasks[i].ProjectBuildTasks {
			dirty, known := transitivelyDirty(p, byPath, isDirty, memo, make(map[string]bool))
			if known && dirty {
				filtered = append(filtered, p)
			}
		}
		tasks[i].ProjectBuildTasks = filtered
		tasks[i].NumTasks = len(filtered)
	}

	return tasks
}

// transitivelyDirty reports whether path is directly dirty or can
// reach a dirty project, memoizing results across calls. inStack
// guards against infinite recursion on a cycle; a cycle member that
// reaches no external dirty project resolves to false rather than
// looping.
func transitivelyDirty(path string, byPath map[string]model.ProjectDependencyNode, isDirty, memo map[string]bool, inStack map[string]bool) (result, known bool) {
	if v, ok := memo[path]; ok {
		return v, true
	}
	if inStack[path] {
		return false, true
	}
	node, ok := byPath[path]
	if !ok {
		return false, false
	}

	if isDirty[path] {
		memo[path] = true
		return true, true
	}

	inStack[path] = true
	for _, dep := range node.ProjectDependencies {
		if dirty, depKnown := transitivelyDirty(dep, byPath, isDirty, memo, inStack); depKnown && dirty {
			inStack[path] = false
			memo[path] = true
			return true, true
		}
	}
	inStack[path] = false

	memo[path] = false
	return false, true
}
