package planner

import (
	"testing"

	"github.com/ciacob/MASCOT/pkg/model"
)

func node(path string, deps ...string) model.ProjectDependencyNode {
	return model.ProjectDependencyNode{ProjectPath: path, ProjectDependencies: deps, NumDependencies: len(deps)}
}

// TestPlan_TopologicalOrder verifies a diamond dependency resolves so
// every project appears after its own dependencies.
func TestPlan_TopologicalOrder(t *testing.T) {
	graph := []model.ProjectDependencyNode{
		node("app", "libB", "libC"),
		node("libB", "libA"),
		node("libC", "libA"),
		node("libA"),
	}

	tasks, problems := Plan(graph)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}

	var appTask *model.BuildTask
	for i, tk := range tasks {
		if tk.ProjectPath == "app" {
			appTask = &tasks[i]
		}
	}
	if appTask == nil {
		t.Fatal("expected a task for app")
	}
	if appTask.ProjectBuildTasks[len(appTask.ProjectBuildTasks)-1] != "app" {
		t.Errorf("expected app last, got %v", appTask.ProjectBuildTasks)
	}

	pos := make(map[string]int)
	for i, p := range appTask.ProjectBuildTasks {
		pos[p] = i
	}
	if pos["libA"] >= pos["libB"] || pos["libA"] >= pos["libC"] {
		t.Errorf("libA must precede both libB and libC: %v", appTask.ProjectBuildTasks)
	}
	// libA must appear exactly once despite two paths reaching it.
	count := 0
	for _, p := range appTask.ProjectBuildTasks {
		if p == "libA" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected libA deduplicated to 1 occurrence, got %d", count)
	}
}

// TestPlan_CycleTolerated covers scenario S4: a cycle does not error,
// is logged, and every node still gets a task list.
func TestPlan_CycleTolerated(t *testing.T) {
	graph := []model.ProjectDependencyNode{
		node("x", "y"),
		node("y", "x"),
	}

	tasks, problems := Plan(graph)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	found := false
	for _, p := range problems {
		if p.Kind == model.ProblemCycle {
			found = true
		}
	}
	if !found {
		t.Error("expected a cycle problem to be logged")
	}
}

func TestPlan_MissingDependencyLogged(t *testing.T) {
	graph := []model.ProjectDependencyNode{
		node("app", "ghost"),
	}
	_, problems := Plan(graph)

	found := false
	for _, p := range problems {
		if p.Kind == model.ProblemMissingGraphNode && p.Path == "ghost" {
			found = true
		}
	}
	if !found {
		t.Error("expected a missing_graph_node problem for 'ghost'")
	}
}

// TestFilter_RetainsOnlyTransitivelyDirty covers scenario S5.
func TestFilter_RetainsOnlyTransitivelyDirty(t *testing.T) {
	graph := []model.ProjectDependencyNode{
		node("app", "libB", "libC"),
		node("libB", "libA"),
		node("libC"),
		node("libA"),
	}
	tasks, _ := Plan(graph)

	isDirty := map[string]bool{
		"app":  false,
		"libB": false,
		"libC": false,
		"libA": true,
	}

	filtered := Filter(tasks, graph, isDirty)

	var appTask *model.BuildTask
	for i, tk := range filtered {
		if tk.ProjectPath == "app" {
			appTask = &filtered[i]
		}
	}
	if appTask == nil {
		t.Fatal("expected app task")
	}

	contains := func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}

	if !contains(appTask.ProjectBuildTasks, "libA") {
		t.Error("expected libA retained (directly dirty)")
	}
	if !contains(appTask.ProjectBuildTasks, "libB") {
		t.Error("expected libB retained (transitively dirty via libA)")
	}
	if contains(appTask.ProjectBuildTasks, "libC") {
		t.Error("expected libC pruned (neither dirty nor reaching a dirty project)")
	}
	if appTask.NumTasks != len(appTask.ProjectBuildTasks) {
		t.Errorf("num_tasks out of sync: %d vs %d", appTask.NumTasks, len(appTask.ProjectBuildTasks))
	}
}
