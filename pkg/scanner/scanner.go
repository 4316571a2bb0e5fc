// Package scanner implements the Shallow Scanner: it walks a workspace,
// identifies project roots, and builds the project catalog (spec.md §4.1).
package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ciacob/MASCOT/pkg/model"
)

var sourceExtensions = map[string]bool{
	".as":   true,
	".mxml": true,
	".fxg":  true,
}

var binaryExtensions = map[string]bool{
	".swf": true,
	".swc": true,
}

var nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9$_.\-]`)

var descriptorPattern = regexp.MustCompile(`^(.+)-app\.xml$`)

// Result is the outcome of a Shallow Scan: the project catalog plus any
// problems encountered (nested projects, unreadable directories).
type Result struct {
	Projects []model.Project
	Problems []model.Problem
}

// Scan walks workspaceRoot and returns the project catalog, in the
// order the walk naturally produces: depth-first, each project before
// the projects below it, sibling directories in name order (see
// DESIGN.md's "first-match resolution order" decision: this order is
// later reused verbatim by the Deep Scanner's coupling resolver).
func Scan(workspaceRoot string) (*Result, error) {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	walkDir(root, res)
	return res, nil
}

// walkDir tests dir for projecthood, records it (or rejects it as an
// illegally nested project), and recurses into its children — a
// directory being a project does not prevent recursion into its
// children (spec.md §4.1 "Traversal policy"). A rejected candidate is
// not descended into.
func walkDir(dir string, res *Result) {
	srcDir := filepath.Join(dir, "src")
	if info, err := os.Stat(srcDir); err == nil && info.IsDir() {
		if nestedSrc := findNestedSrc(srcDir); nestedSrc != "" {
			res.Problems = append(res.Problems, model.Problem{
				Kind:    model.ProblemNestedProject,
				Path:    dir,
				Message: "project rejected: nested src directory found at " + nestedSrc,
			})
			return
		}

		project := buildProject(dir, srcDir)
		res.Projects = append(res.Projects, project)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		walkDir(filepath.Join(dir, e.Name()), res)
	}
}

// findNestedSrc reports the path of the first directory named "src"
// found at any depth below srcDir, or "" if none exists.
func findNestedSrc(srcDir string) string {
	var found string
	var walk func(dir string)
	walk = func(dir string) {
		if found != "" {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			child := filepath.Join(dir, e.Name())
			if e.Name() == "src" {
				found = child
				return
			}
			walk(child)
			if found != "" {
				return
			}
		}
	}
	walk(srcDir)
	return found
}

func buildProject(home, srcDir string) model.Project {
	classFiles, assetFiles, codeTimestamp := scanSource(srcDir)

	p := model.Project{
		HomePath:      home,
		Name:          nameSanitizer.ReplaceAllString(filepath.Base(home), ""),
		ClassFiles:    classFiles,
		AssetFiles:    assetFiles,
		CodeTimestamp: codeTimestamp,
	}

	binDir := filepath.Join(home, "bin")
	p.BinaryTimestamp, p.HasBinaries, p.HasAppBinary = scanBin(binDir)

	libDir := filepath.Join(home, "lib")
	p.HasLibDir = scanLib(libDir)

	p.Descriptors = scanDescriptors(srcDir, classFiles)

	p.IsDirty = p.CodeTimestamp > p.BinaryTimestamp
	if len(p.Descriptors) > 0 || p.HasAppBinary {
		p.AppProbability = 1
	}

	return p
}

// scanSource recursively enumerates srcDir, classifying files by
// extension into class files and assets (both relative to srcDir,
// forward-slash separated), and computes the max class-file timestamp.
func scanSource(srcDir string) (classFiles, assetFiles []string, codeTimestamp int64) {
	filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		ext := strings.ToLower(filepath.Ext(path))
		if sourceExtensions[ext] {
			classFiles = append(classFiles, rel)
			if ts := fileTimestamp(info); ts > codeTimestamp {
				codeTimestamp = ts
			}
		} else {
			assetFiles = append(assetFiles, rel)
		}
		return nil
	})
	return classFiles, assetFiles, codeTimestamp
}

// scanBin scans binDir non-recursively for .swf/.swc artifacts.
func scanBin(binDir string) (binaryTimestamp int64, hasBinaries, hasAppBinary bool) {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return 0, false, false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !binaryExtensions[ext] {
			continue
		}
		hasBinaries = true
		if ext == ".swf" {
			hasAppBinary = true
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if ts := fileTimestamp(info); ts > binaryTimestamp {
			binaryTimestamp = ts
		}
	}
	return binaryTimestamp, hasBinaries, hasAppBinary
}

// scanLib reports whether libDir contains at least one .swc file.
func scanLib(libDir string) bool {
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) == ".swc" {
			return true
		}
	}
	return false
}

// scanDescriptors finds <name>-app.xml files anywhere under srcDir and
// retains those whose <name> matches (case-insensitively) the basename
// of at least one class file in the project.
func scanDescriptors(srcDir string, classFiles []string) []model.Descriptor {
	var descriptors []model.Descriptor

	filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		m := descriptorPattern.FindStringSubmatch(info.Name())
		if m == nil {
			return nil
		}
		name := m[1]

		if !anyBasenameMatches(classFiles, name) {
			return nil
		}

		relatedPath, relatedPkg := findRelatedClass(classFiles, name)
		descriptors = append(descriptors, model.Descriptor{
			SimpleName:          name,
			Filename:            info.Name(),
			AbsolutePath:        path,
			RelatedClassPath:    relatedPath,
			RelatedClassPackage: relatedPkg,
		})
		return nil
	})

	return descriptors
}

func anyBasenameMatches(classFiles []string, name string) bool {
	for _, cf := range classFiles {
		base := strings.TrimSuffix(filepath.Base(cf), filepath.Ext(cf))
		if strings.EqualFold(base, name) {
			return true
		}
	}
	return false
}

// findRelatedClass returns the relative path and inferred package of the
// first class file (in discovery order) whose relative path begins
// (case-insensitively) with name.
func findRelatedClass(classFiles []string, name string) (relPath, pkg string) {
	lowerName := strings.ToLower(name)
	for _, cf := range classFiles {
		if strings.HasPrefix(strings.ToLower(cf), lowerName) {
			dir := filepath.Dir(cf)
			if dir == "." {
				return cf, ""
			}
			return cf, strings.ReplaceAll(dir, "/", ".")
		}
	}
	return "", ""
}

func fileTimestamp(info os.FileInfo) int64 {
	mtime := info.ModTime().UnixMilli()
	ctime := statCtimeMillis(info)
	if ctime > mtime {
		return ctime
	}
	return mtime
}
