package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestScan_SingleLibrary covers S1: a library project with no
// descriptors, no bin/lib siblings.
func TestScan_SingleLibrary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libA", "src", "a", "A.as"), "package a;\nclass A {}\n")

	res, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(res.Projects))
	}

	p := res.Projects[0]
	if p.Name != "libA" {
		t.Errorf("expected name libA, got %s", p.Name)
	}
	if p.AppProbability != 0 {
		t.Errorf("expected is_app_probability=0, got %d", p.AppProbability)
	}
	if len(p.ClassFiles) != 1 || p.ClassFiles[0] != "a/A.as" {
		t.Errorf("unexpected class files: %v", p.ClassFiles)
	}
}

// TestScan_AppWithDescriptor covers the descriptor-retention half of S2:
// an app project whose descriptor name case-insensitively matches a
// class file basename.
func TestScan_AppWithDescriptor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "src", "m", "M.as"), "package m;\nclass M {}\n")
	writeFile(t, filepath.Join(root, "app", "src", "m-app.xml"), "<application/>")

	res, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(res.Projects))
	}
	p := res.Projects[0]
	if len(p.Descriptors) != 1 {
		t.Fatalf("expected 1 retained descriptor, got %d", len(p.Descriptors))
	}
	if p.Descriptors[0].RelatedClassPath != "m/M.as" {
		t.Errorf("expected related class m/M.as, got %s", p.Descriptors[0].RelatedClassPath)
	}
	if p.AppProbability != 1 {
		t.Errorf("expected is_app_probability=1, got %d", p.AppProbability)
	}
}

// TestScan_NestedProjectRejected asserts invariant 1 of spec.md §8: a
// project whose src contains a further src is rejected and logged, but
// its siblings are still scanned.
func TestScan_NestedProjectRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "outer", "src", "inner", "src", "a", "A.as"), "package a;\nclass A {}\n")
	writeFile(t, filepath.Join(root, "sibling", "src", "b", "B.as"), "package b;\nclass B {}\n")

	res, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	names := make([]string, 0, len(res.Projects))
	for _, p := range res.Projects {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	if len(names) != 1 || names[0] != "sibling" {
		t.Fatalf("expected only sibling project, got %v", names)
	}

	found := false
	for _, prob := range res.Problems {
		if prob.Kind == "nested_project" {
			found = true
		}
	}
	if !found {
		t.Error("expected a nested_project problem to be logged")
	}
}

// TestScan_Dirtiness verifies is_dirty is computed from code vs binary
// timestamps (spec.md §3).
func TestScan_Dirtiness(t *testing.T) {
	root := t.TempDir()
	classPath := filepath.Join(root, "libA", "src", "a", "A.as")
	writeFile(t, classPath, "package a;\nclass A {}\n")

	binPath := filepath.Join(root, "libA", "bin", "libA.swc")
	writeFile(t, binPath, "swc")

	// Chtimes refreshes a file's ctime, which fileTimestamp folds in, so
	// the class file is moved into the future rather than the binary
	// into the past.
	newer := time.Now().Add(time.Hour)
	if err := os.Chtimes(classPath, newer, newer); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	res, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	p := res.Projects[0]
	if !p.IsDirty {
		t.Error("expected project to be dirty (code newer than binary)")
	}
	if !p.HasBinaries {
		t.Error("expected has_binaries=true")
	}
}

// TestScan_LibDirRequiresSwc verifies has_lib_dir is only set when lib
// contains at least one .swc file.
func TestScan_LibDirRequiresSwc(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libA", "src", "a", "A.as"), "package a;\nclass A {}\n")
	writeFile(t, filepath.Join(root, "libA", "lib", "readme.txt"), "not a swc")

	res, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Projects[0].HasLibDir {
		t.Error("expected has_lib_dir=false without a .swc file")
	}

	writeFile(t, filepath.Join(root, "libA", "lib", "dep.swc"), "swc")
	res, err = Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Projects[0].HasLibDir {
		t.Error("expected has_lib_dir=true with a .swc present")
	}
}
