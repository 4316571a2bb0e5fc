package depgraph

import (
	"os"
	"testing"

	"github.com/ciacob/MASCOT/pkg/analyzer"
	"github.com/ciacob/MASCOT/pkg/scanner"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(parentDir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func parentDir(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	return path[:i]
}

func TestBuild_FoldsClassCouplingsToProjectLevel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/libA/src/a/A.as", "package a;\nclass A {}\n")
	writeFile(t, root+"/app/src/m/M.as", "package m;\nclass M {\nimport a.A;\n}\n")
	writeFile(t, root+"/app/src/m/M2.as", "package m;\nclass M2 {\nimport a.A;\n}\n")
	writeFile(t, root+"/app/src/m-app.xml", "<application/>")

	scan, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	analyzed := analyzer.Analyze(scan.Projects)

	nodes := Build(scan.Projects, analyzed.Records)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}

	var appNode *struct {
		deps  []string
		roots []string
	}
	for _, n := range nodes {
		if n.NumDependencies > 0 {
			appNode = &struct {
				deps  []string
				roots []string
			}{n.ProjectDependencies, n.RootClasses}
		}
	}
	if appNode == nil {
		t.Fatal("expected the app node to carry a dependency")
	}
	if len(appNode.deps) != 1 {
		t.Fatalf("expected exactly 1 deduplicated dependency (two M classes both importing a.A), got %d", len(appNode.deps))
	}
	if len(appNode.roots) != 1 {
		t.Fatalf("expected 1 root class from the retained descriptor, got %d", len(appNode.roots))
	}
}

func TestBuild_OrderedByAscendingDependencyCount(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root+"/libA/src/a/A.as", "package a;\nclass A {}\n")
	writeFile(t, root+"/libB/src/b/B.as", "package b;\nclass B {\nimport a.A;\n}\n")
	writeFile(t, root+"/app/src/m/M.as", "package m;\nclass M {\nimport a.A;\nimport b.B;\n}\n")

	scan, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	analyzed := analyzer.Analyze(scan.Projects)
	nodes := Build(scan.Projects, analyzed.Records)

	for i := 1; i < len(nodes); i++ {
		if nodes[i].NumDependencies < nodes[i-1].NumDependencies {
			t.Fatalf("nodes not sorted ascending by num_dependencies: %+v", nodes)
		}
	}
}
