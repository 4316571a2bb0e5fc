// Package patch implements the Manual-Dependency Patcher: it mutates
// the class catalog in place, injecting synthetic couplings that the
// textual extractor in pkg/analyzer cannot discover on its own
// (spec.md §4.3).
package patch

import (
	"fmt"
	"os"

	"github.com/ciacob/MASCOT/pkg/model"
)

// Record is one manually-declared dependency: project depends on each
// entry of dependencies, all given as absolute project home paths.
type Record struct {
	Project      string   `json:"project"`
	Dependencies []string `json:"dependencies"`
}

// Apply mutates records into classCatalog, prepending a synthetic
// "patch" coupling to the first class file of each valid project for
// each of its valid dependencies. It returns the problems encountered
// for invalid records; classCatalog is modified in place.
//
// Applying the same records twice is safe: duplicate patch couplings
// are suppressed via dedup on (matching_project, expected_class_file,
// coupling_type), matching the idempotency requirement of spec.md §4.3.
func Apply(classCatalog []model.ClassRecord, projects []model.Project, records []Record) []model.Problem {
	var problems []model.Problem

	firstClassFile := buildFirstClassFileIndex(projects, classCatalog)

	for _, r := range records {
		ownerIdx, ok := firstClassFile[r.Project]
		if !ok {
			problems = append(problems, model.Problem{
				Kind:    model.ProblemInvalidManualPatch,
				Path:    r.Project,
				Message: "manual patch skipped: project not found in catalog or has no class files",
			})
			continue
		}
		if info, err := os.Stat(r.Project); err != nil || !info.IsDir() {
			problems = append(problems, model.Problem{
				Kind:    model.ProblemInvalidManualPatch,
				Path:    r.Project,
				Message: "manual patch skipped: project path does not exist on disk",
			})
			continue
		}

		for _, dep := range r.Dependencies {
			depIdx, ok := firstClassFile[dep]
			if !ok {
				problems = append(problems, model.Problem{
					Kind:    model.ProblemInvalidManualPatch,
					Path:    dep,
					Message: fmt.Sprintf("manual patch skipped: dependency %q not found in catalog or has no class files", dep),
				})
				continue
			}
			if info, err := os.Stat(dep); err != nil || !info.IsDir() {
				problems = append(problems, model.Problem{
					Kind:    model.ProblemInvalidManualPatch,
					Path:    dep,
					Message: fmt.Sprintf("manual patch skipped: dependency path %q does not exist on disk", dep),
				})
				continue
			}

			depClass := &classCatalog[depIdx]
			coupling := model.Coupling{
				ReferencedClass:      depClass.AnalyzedClass.DeclaredClass,
				ReferencedPackage:    depClass.AnalyzedClass.DeclaredPackage,
				ExpectedRelativePath: depClass.AnalyzedClass.ExpectedRelativePath,
				Kind:                 model.CouplingPatch,
				MatchingProject:      dep,
				ExpectedClassFile:    depClass.AnalyzedClass.AbsolutePath,
				ClassExists:          true,
			}

			owner := &classCatalog[ownerIdx]
			if hasDuplicate(owner.ClassCouplings, coupling) {
				continue
			}
			owner.ClassCouplings = append([]model.Coupling{coupling}, owner.ClassCouplings...)
		}
	}

	return problems
}

// buildFirstClassFileIndex maps each project's home path to the index,
// within classCatalog, of its first class file — "first" meaning the
// earliest entry of classCatalog whose OwningProjectPath matches, which
// for a freshly-produced catalog is also source order.
func buildFirstClassFileIndex(projects []model.Project, classCatalog []model.ClassRecord) map[string]int {
	index := make(map[string]int, len(projects))
	for _, p := range projects {
		for i, cr := range classCatalog {
			if cr.AnalyzedClass.OwningProjectPath == p.HomePath {
				index[p.HomePath] = i
				break
			}
		}
	}
	return index
}

func hasDuplicate(existing []model.Coupling, candidate model.Coupling) bool {
	for _, c := range existing {
		if c.Kind == candidate.Kind &&
			c.MatchingProject == candidate.MatchingProject &&
			c.ExpectedClassFile == candidate.ExpectedClassFile {
			return true
		}
	}
	return false
}
