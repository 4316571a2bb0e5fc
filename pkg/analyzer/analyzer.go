// Package analyzer implements the Deep Scanner: a regex-grade
// class/coupling extractor over the project catalog's source files
// (spec.md §4.2). It is deliberately not a compiler front end — see
// SPEC_FULL.md §3 for why a full grammar (e.g. tree-sitter) is not
// wired in here.
package analyzer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ciacob/MASCOT/pkg/model"
)

var (
	packagePattern = regexp.MustCompile(`package\s+([\w.]*)\s*[{;]`)
	classPattern   = regexp.MustCompile(`\bclass\s+(\w+)`)
	importPattern  = regexp.MustCompile(`import\s+([\w.]+)\s*;`)
	fqnNewPattern  = regexp.MustCompile(`\bnew\s+((?:[A-Za-z_]\w*\.)+[A-Za-z_]\w*)`)
)

// Result is the outcome of a Deep Scan.
type Result struct {
	Records  []model.ClassRecord
	Problems []model.Problem
}

// Analyze reads every class file in the catalog, extracts its declared
// package/class and outgoing couplings, and resolves each coupling
// against the catalog. Project order (and, within a project, class-file
// order) is preserved exactly as given, since that order is also what
// first-match coupling resolution relies on (spec.md §4.2 "Determinism").
func Analyze(projects []model.Project) *Result {
	res := &Result{}

	for _, p := range projects {
		for _, cf := range p.ClassFiles {
			record, problems := analyzeClassFile(p, cf, projects)
			if record == nil {
				res.Problems = append(res.Problems, problems...)
				continue
			}
			res.Records = append(res.Records, *record)
			res.Problems = append(res.Problems, problems...)
		}
	}

	return res
}

func analyzeClassFile(p model.Project, cf string, catalog []model.Project) (*model.ClassRecord, []model.Problem) {
	absPath := filepath.ToSlash(filepath.Join(p.HomePath, "src", cf))
	ext := strings.ToLower(filepath.Ext(cf))

	var problems []model.Problem
	var declaredClass, declaredPackage string
	var rawText string
	pathMatches := true

	if ext == ".as" {
		content, err := os.ReadFile(filepath.Join(p.HomePath, "src", filepath.FromSlash(cf)))
		if err != nil {
			return nil, []model.Problem{{
				Kind:    model.ProblemParseFailure,
				Path:    absPath,
				Message: fmt.Sprintf("failed to read source file: %v", err),
			}}
		}
		rawText = string(content)

		declaredPackage = extractPackage(rawText)
		declaredClass = extractClass(rawText)
		if declaredClass == "" {
			return nil, []model.Problem{{
				Kind:    model.ProblemParseFailure,
				Path:    absPath,
				Message: "no class declaration found",
			}}
		}

		dirInferred := dirToPackage(filepath.Dir(cf))
		if dirInferred != declaredPackage {
			pathMatches = false
			problems = append(problems, model.Problem{
				Kind:    model.ProblemPackageMismatch,
				Path:    absPath,
				Message: fmt.Sprintf("declared package %q does not match directory-inferred package %q", declaredPackage, dirInferred),
			})
		}
	} else {
		declaredClass = strings.TrimSuffix(filepath.Base(cf), filepath.Ext(cf))
		declaredPackage = dirToPackage(filepath.Dir(cf))
	}

	expectedRel := expectedRelativePath(declaredPackage, declaredClass) + ext

	analyzed := model.AnalyzedClass{
		AbsolutePath:         absPath,
		DeclaredClass:        declaredClass,
		DeclaredPackage:      declaredPackage,
		ExpectedRelativePath: expectedRel,
		PathMatchesPackage:   pathMatches,
		OwningProjectPath:    p.HomePath,
	}

	var couplings []model.Coupling
	if ext == ".as" {
		couplings, problems = appendCouplings(couplings, problems, rawText, absPath, declaredClass, catalog)
	}

	return &model.ClassRecord{AnalyzedClass: analyzed, ClassCouplings: couplings}, problems
}

func extractPackage(text string) string {
	m := packagePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func extractClass(text string) string {
	m := classPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// dirToPackage converts a file's directory (relative to its source
// root) into a dotted package name; "." (source root itself) maps to
// the empty (default) package.
func dirToPackage(dir string) string {
	dir = filepath.ToSlash(dir)
	if dir == "." || dir == "" {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// expectedRelativePath computes <package with dots→slashes>/<class>
// (without extension; callers append the appropriate extension).
func expectedRelativePath(pkg, class string) string {
	if pkg == "" {
		return class
	}
	return strings.ReplaceAll(pkg, ".", "/") + "/" + class
}

func appendCouplings(couplings []model.Coupling, problems []model.Problem, text, ownerAbsPath, ownerClass string, catalog []model.Project) ([]model.Coupling, []model.Problem) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		for _, m := range importPattern.FindAllStringSubmatch(line, -1) {
			c, problem := resolveCoupling(m[1], model.CouplingImport, ownerAbsPath, ownerClass, catalog)
			couplings = append(couplings, c)
			if problem != nil {
				problems = append(problems, *problem)
			}
		}

		for _, m := range fqnNewPattern.FindAllStringSubmatch(line, -1) {
			c, problem := resolveCoupling(m[1], model.CouplingFQNInstantiation, ownerAbsPath, ownerClass, catalog)
			couplings = append(couplings, c)
			if problem != nil {
				problems = append(problems, *problem)
			}
		}
	}

	return couplings, problems
}

// resolveCoupling splits a dotted reference into package/class, computes
// its expected relative path, and resolves it against the catalog.
func resolveCoupling(dotted string, kind model.CouplingKind, ownerAbsPath, ownerClass string, catalog []model.Project) (model.Coupling, *model.Problem) {
	pkg, class := splitDotted(dotted)
	expectedRel := expectedRelativePath(pkg, class) + ".as"

	c := model.Coupling{
		ReferencedClass:      class,
		ReferencedPackage:    pkg,
		ExpectedRelativePath: expectedRel,
		Kind:                 kind,
	}

	matchProject, matchFile := resolveAgainstCatalog(expectedRel, catalog)
	if matchProject == "" {
		return c, &model.Problem{
			Kind:    model.ProblemUnresolvedCoupling,
			Path:    ownerAbsPath,
			Message: fmt.Sprintf("Unresolved dependency: %s (from class %s)", dotted, ownerClass),
		}
	}

	c.MatchingProject = matchProject
	c.ExpectedClassFile = matchFile
	c.ClassExists = true
	return c, nil
}

// resolveAgainstCatalog performs first-match suffix resolution, in
// catalog (project) order, then class-file order within a project.
func resolveAgainstCatalog(expectedRel string, catalog []model.Project) (projectPath, classFile string) {
	suffix := "/" + expectedRel
	for _, p := range catalog {
		for _, cf := range p.ClassFiles {
			abs := filepath.ToSlash(filepath.Join(p.HomePath, "src", cf))
			if abs == expectedRel || strings.HasSuffix(abs, suffix) {
				if _, err := os.Stat(filepath.FromSlash(abs)); err == nil {
					return p.HomePath, abs
				}
			}
		}
	}
	return "", ""
}

func splitDotted(dotted string) (pkg, class string) {
	idx := strings.LastIndex(dotted, ".")
	if idx < 0 {
		return "", dotted
	}
	return dotted[:idx], dotted[idx+1:]
}
