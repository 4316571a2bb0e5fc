// Package pipeline orchestrates the MASCOT stages against a cache
// directory: projects.json, classes.json, deps.json, tasks.json, and
// problems.log (spec.md §2, §6). Each stage reads its predecessors'
// cache files and writes its own, so any stage can be resumed in
// isolation.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ciacob/MASCOT/pkg/analyzer"
	"github.com/ciacob/MASCOT/pkg/depgraph"
	"github.com/ciacob/MASCOT/pkg/emitter"
	"github.com/ciacob/MASCOT/pkg/model"
	"github.com/ciacob/MASCOT/pkg/patch"
	"github.com/ciacob/MASCOT/pkg/planner"
	"github.com/ciacob/MASCOT/pkg/scanner"
)

const (
	projectsFile = "projects.json"
	classesFile  = "classes.json"
	depsFile     = "deps.json"
	tasksFile    = "tasks.json"
	problemsFile = "problems.log"
)

// classEntry is the on-disk shape of one classes.json element.
type classEntry = model.ClassRecord

// Cache is a handle on a cache directory.
type Cache struct {
	Dir string
}

// New returns a Cache rooted at dir, creating dir if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &Cache{Dir: dir}, nil
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.Dir, name)
}

// Scan runs the Shallow Scanner followed by the Deep Scanner over
// workspaceRoot, writes projects.json and classes.json, and appends any
// problems to problems.log.
func (c *Cache) Scan(workspaceRoot string) error {
	shallow, err := scanner.Scan(workspaceRoot)
	if err != nil {
		return fmt.Errorf("shallow scan of %s: %w", workspaceRoot, err)
	}
	if err := writeJSON(c.path(projectsFile), shallow.Projects); err != nil {
		return fmt.Errorf("writing %s: %w", projectsFile, err)
	}

	deep := analyzer.Analyze(shallow.Projects)
	if err := writeJSON(c.path(classesFile), deep.Records); err != nil {
		return fmt.Errorf("writing %s: %w", classesFile, err)
	}

	return c.appendProblems(append(shallow.Problems, deep.Problems...))
}

// ApplyManualPatches loads classes.json, mutates it in place with
// patch's synthetic couplings, and rewrites classes.json.
func (c *Cache) ApplyManualPatches(records []patch.Record) error {
	projects, err := c.loadProjects()
	if err != nil {
		return err
	}
	classCatalog, err := c.loadClasses()
	if err != nil {
		return err
	}

	problems := patch.Apply(classCatalog, projects, records)
	if err := writeJSON(c.path(classesFile), classCatalog); err != nil {
		return fmt.Errorf("writing %s: %w", classesFile, err)
	}

	return c.appendProblems(problems)
}

// Graph runs the Dependency Builder, Task Planner, and (unless
// rebuildAll) the Dirtiness Filter, writing deps.json and tasks.json.
func (c *Cache) Graph(rebuildAll bool) error {
	projects, err := c.loadProjects()
	if err != nil {
		return err
	}
	classCatalog, err := c.loadClasses()
	if err != nil {
		return err
	}

	graph := depgraph.Build(projects, classCatalog)
	if err := writeJSON(c.path(depsFile), graph); err != nil {
		return fmt.Errorf("writing %s: %w", depsFile, err)
	}

	tasks, problems := planner.Plan(graph)
	if !rebuildAll {
		isDirty := make(map[string]bool, len(projects))
		for _, p := range projects {
			isDirty[p.HomePath] = p.IsDirty
		}
		tasks = planner.Filter(tasks, graph, isDirty)
	}

	if err := writeJSON(c.path(tasksFile), tasks); err != nil {
		return fmt.Errorf("writing %s: %w", tasksFile, err)
	}

	return c.appendProblems(problems)
}

// Emit runs the Config Emitter and the Editor-Config Emitter.
func (c *Cache) Emit(opts emitter.Options) error {
	projects, err := c.loadProjects()
	if err != nil {
		return err
	}
	graph, err := c.loadGraph()
	if err != nil {
		return err
	}
	tasks, err := c.loadTasks()
	if err != nil {
		return err
	}

	var problems []model.Problem
	problems = append(problems, emitter.EmitConfigs(projects, graph, opts)...)
	problems = append(problems, emitter.EmitEditorConfig(projects, tasks, opts)...)

	return c.appendProblems(problems)
}

func (c *Cache) loadProjects() ([]model.Project, error) {
	var projects []model.Project
	if err := readJSON(c.path(projectsFile), &projects); err != nil {
		return nil, fmt.Errorf("missing input artifact %s: %w", projectsFile, err)
	}
	return projects, nil
}

func (c *Cache) loadClasses() ([]classEntry, error) {
	var classes []classEntry
	if err := readJSON(c.path(classesFile), &classes); err != nil {
		return nil, fmt.Errorf("missing input artifact %s: %w", classesFile, err)
	}
	return classes, nil
}

func (c *Cache) loadGraph() ([]model.ProjectDependencyNode, error) {
	var graph []model.ProjectDependencyNode
	if err := readJSON(c.path(depsFile), &graph); err != nil {
		return nil, fmt.Errorf("missing input artifact %s: %w", depsFile, err)
	}
	return graph, nil
}

func (c *Cache) loadTasks() ([]model.BuildTask, error) {
	var tasks []model.BuildTask
	if err := readJSON(c.path(tasksFile), &tasks); err != nil {
		return nil, fmt.Errorf("missing input artifact %s: %w", tasksFile, err)
	}
	return tasks, nil
}

func (c *Cache) appendProblems(problems []model.Problem) error {
	if len(problems) == 0 {
		return nil
	}

	f, err := os.OpenFile(c.path(problemsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", problemsFile, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, p := range problems {
		b.WriteString(p.String())
		b.WriteString("\n\n")
	}
	_, err = f.WriteString(b.String())
	return err
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
