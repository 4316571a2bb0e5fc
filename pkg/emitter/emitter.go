// Package emitter implements the Config Emitter and the Editor-Config
// Emitter: the two stages that turn the (filtered) build-task list and
// project catalog into per-project on-disk artifacts — a compiler
// configuration file and a pair of editor files (spec.md §4.7, §4.8).
package emitter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ciacob/MASCOT/pkg/model"
)

var outputSanitizer = regexp.MustCompile(`[^A-Za-z0-9_\-]`)

// WorkerEntry is one internal worker registered for a project: the
// worker's own class file and the output path it compiles to.
type WorkerEntry struct {
	File   string `json:"file"`
	Output string `json:"output"`
}

// Options carries the caller-configurable inputs of spec.md §6 that
// bear on the two emitters.
type Options struct {
	ConfigType  string // defaults to "air"
	CopyAssets  *bool  // defaults to true
	BinDir      string // defaults to "bin"
	SrcDir      string // defaults to "src"
	Overwrite   bool   // asconfig.json: rewrite even if present
	AsconfigBase map[string]interface{}

	// ExternalWorkers maps a project home path to the caller-supplied
	// output path used instead of the computed <bin>/<main>.swf.
	ExternalWorkers map[string]string
	// InternalWorkers maps a project home path to the worker list
	// added under compilerOptions.workers.
	InternalWorkers map[string][]WorkerEntry

	SDKPath string
	// SettingsExtra are caller-provided keys merged into
	// .vscode/settings.json; a "$sdk" key is mapped to
	// as3mxml.sdk.framework.
	SettingsExtra map[string]interface{}
	Purge         bool

	// CompilerCommand is the external compiler driver's executable
	// path, joined with SDKPath at call sites (e.g. "bin/mxmlc").
	CompilerCommand string
}

func (o Options) configType() string {
	if o.ConfigType != "" {
		return o.ConfigType
	}
	return "air"
}

func (o Options) copyAssets() bool {
	if o.CopyAssets != nil {
		return *o.CopyAssets
	}
	return true
}

func (o Options) binDir() string {
	if o.BinDir != "" {
		return o.BinDir
	}
	return "bin"
}

func (o Options) srcDir() string {
	if o.SrcDir != "" {
		return o.SrcDir
	}
	return "src"
}

func (o Options) compilerCommand() string {
	if o.CompilerCommand != "" {
		return o.CompilerCommand
	}
	return "bin/mxmlc"
}

// EmitConfigs writes asconfig.json for every project, in catalog order.
// A per-project write failure is logged and does not stop the others.
func EmitConfigs(projects []model.Project, graph []model.ProjectDependencyNode, opts Options) []model.Problem {
	byPath := make(map[string]model.ProjectDependencyNode, len(graph))
	for _, n := range graph {
		byPath[n.ProjectPath] = n
	}

	var problems []model.Problem
	for _, p := range projects {
		path := filepath.Join(p.HomePath, "asconfig.json")
		if !opts.Overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}

		cfg := buildAsconfig(p, byPath[p.HomePath], opts)
		merged := cfg
		if opts.AsconfigBase != nil {
			merged = deepMergeUnder(cfg, opts.AsconfigBase, ownedAsconfigKeys)
		}

		if err := writeJSON(path, merged); err != nil {
			problems = append(problems, model.Problem{
				Kind:    model.ProblemEmitFailure,
				Path:    path,
				Message: fmt.Sprintf("failed to write asconfig.json: %v", err),
			})
		}
	}
	return problems
}

func buildAsconfig(p model.Project, node model.ProjectDependencyNode, opts Options) map[string]interface{} {
	isApp := p.IsApp()
	projType := "lib"
	if isApp {
		projType = "app"
	}

	libraryPath := []string{}
	if p.HasLibDir {
		libraryPath = append(libraryPath, "lib")
	}
	for _, dep := range node.ProjectDependencies {
		libraryPath = append(libraryPath, filepath.ToSlash(filepath.Join(dep, opts.binDir())))
	}

	var mainClass, application string
	if isApp {
		mainClass = "Main"
		if len(node.RootClasses) > 0 {
			base := filepath.Base(node.RootClasses[0])
			mainClass = strings.TrimSuffix(base, filepath.Ext(base))
		}
		for _, d := range p.Descriptors {
			if len(node.RootClasses) > 0 && d.RelatedClassPath == node.RootClasses[0] {
				application = d.AbsolutePath
				break
			}
		}
	}

	var output string
	sanitizedName := outputSanitizer.ReplaceAllString(p.Name, "_")
	if isApp {
		if externalOut, ok := opts.ExternalWorkers[p.HomePath]; ok {
			output = externalOut
		} else {
			output = filepath.ToSlash(filepath.Join(opts.binDir(), mainClass+".swf"))
		}
	} else {
		output = filepath.ToSlash(filepath.Join(opts.binDir(), sanitizedName+".swc"))
	}

	compilerOptions := map[string]interface{}{
		"debug":        true,
		"library-path": libraryPath,
		"output":       output,
		"source-path":  []string{opts.srcDir()},
	}
	if !isApp {
		compilerOptions["include-sources"] = []string{opts.srcDir()}
	}
	if workers, ok := opts.InternalWorkers[p.HomePath]; ok && len(workers) > 0 {
		compilerOptions["workers"] = workers
	}

	cfg := map[string]interface{}{
		"config":               opts.configType(),
		"type":                 projType,
		"copySourcePathAssets": opts.copyAssets(),
		"compilerOptions":      compilerOptions,
	}
	if isApp {
		cfg["mainClass"] = mainClass
		if application != "" {
			cfg["application"] = application
		}
	}
	return cfg
}

// ownedAsconfigKeys are the dotted paths the computed configuration
// always wins on, per spec.md §4.7's "Inherited base" rule.
var ownedAsconfigKeys = map[string]bool{
	"config":                            true,
	"type":                              true,
	"mainClass":                         true,
	"application":                       true,
	"copySourcePathAssets":              true,
	"compilerOptions.debug":             true,
	"compilerOptions.library-path":      true,
	"compilerOptions.output":            true,
	"compilerOptions.source-path":       true,
	"compilerOptions.include-sources":   true,
	"compilerOptions.workers":           true,
}

// deepMergeUnder merges base underneath computed. Where both sides hold
// an object under the same key the two are merged recursively (e.g.
// compilerOptions itself is not owned as a whole, only its individual
// sub-keys are). Otherwise, for an owned key the computed value wins
// outright, arrays included; for an unowned key the base's value is
// kept when the base has one, and the computed value is used only when
// the base lacks the key.
func deepMergeUnder(computed, base map[string]interface{}, owned map[string]bool) map[string]interface{} {
	return mergeAt("", computed, base, owned)
}

func mergeAt(prefix string, computed, base map[string]interface{}, owned map[string]bool) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(computed))
	for k, v := range base {
		result[k] = v
	}

	for k, cv := range computed {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		bv, baseHas := result[k]
		cMap, cIsMap := cv.(map[string]interface{})
		bMap, bIsMap := bv.(map[string]interface{})

		switch {
		case cIsMap && bIsMap:
			result[k] = mergeAt(path, cMap, bMap, owned)
		case owned[path] || !baseHas:
			result[k] = cv
		default:
			// unowned key already present in base: base keeps its value.
		}
	}

	return result
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EmitEditorConfig writes .vscode/settings.json and .vscode/tasks.json
// for every project, in catalog order (spec.md §4.8).
func EmitEditorConfig(projects []model.Project, tasks []model.BuildTask, opts Options) []model.Problem {
	taskByPath := make(map[string]model.BuildTask, len(tasks))
	for _, tk := range tasks {
		taskByPath[tk.ProjectPath] = tk
	}

	var problems []model.Problem
	for _, p := range projects {
		if err := writeSettings(p, opts); err != nil {
			problems = append(problems, model.Problem{
				Kind:    model.ProblemEmitFailure,
				Path:    filepath.Join(p.HomePath, ".vscode", "settings.json"),
				Message: fmt.Sprintf("failed to write settings.json: %v", err),
			})
		}
		if err := writeTasks(p, taskByPath[p.HomePath], opts); err != nil {
			problems = append(problems, model.Problem{
				Kind:    model.ProblemEmitFailure,
				Path:    filepath.Join(p.HomePath, ".vscode", "tasks.json"),
				Message: fmt.Sprintf("failed to write tasks.json: %v", err),
			})
		}
	}
	return problems
}

func writeSettings(p model.Project, opts Options) error {
	path := filepath.Join(p.HomePath, ".vscode", "settings.json")

	settings := map[string]interface{}{}
	if !opts.Purge {
		if existing, err := readJSONObject(path); err == nil {
			settings = existing
		}
	}

	for k, v := range opts.SettingsExtra {
		if k == "$sdk" {
			settings["as3mxml.sdk.framework"] = v
			continue
		}
		settings[k] = v
	}
	if opts.SDKPath != "" {
		settings["as3mxml.sdk.framework"] = opts.SDKPath
	}

	return writeJSON(path, settings)
}

const mascotTaskMarker = "mascot:"

func writeTasks(p model.Project, task model.BuildTask, opts Options) error {
	path := filepath.Join(p.HomePath, ".vscode", "tasks.json")

	existingTasks := []map[string]interface{}{}
	if existing, err := readTasksFile(path); err == nil {
		if !opts.Purge {
			for _, t := range existing {
				if label, ok := t["label"].(string); ok && strings.HasPrefix(label, mascotTaskMarker) {
					// A MASCOT task already exists and purge was not
					// requested: per spec.md §4.8 the write is skipped.
					return nil
				}
			}
		}
		existingTasks = existing
	}

	generated := buildTasks(p, task, opts)
	final := append(nonMascotTasks(existingTasks), generated...)

	return writeJSON(path, map[string]interface{}{
		"version": "2.0.0",
		"tasks":   final,
	})
}

func nonMascotTasks(tasks []map[string]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		if label, ok := t["label"].(string); ok && strings.HasPrefix(label, mascotTaskMarker) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// buildTasks emits, for debug and release, one chained sub-task per
// dependency (with the project itself popped off the end) followed by
// one master task of the editor's ActionScript build type.
func buildTasks(p model.Project, task model.BuildTask, opts Options) []map[string]interface{} {
	var out []map[string]interface{}

	for _, mode := range []string{"debug", "release"} {
		deps := append([]string(nil), task.ProjectBuildTasks...)
		originallyEmpty := len(task.ProjectBuildTasks) == 0
		if len(deps) > 0 {
			deps = deps[:len(deps)-1] // pop the root project itself
		}

		var lastLabel string
		for i, dep := range deps {
			label := fmt.Sprintf("%sbuild %s (%s) [%d]", mascotTaskMarker, filepath.Base(dep), mode, i)
			sub := map[string]interface{}{
				"label":   label,
				"type":    "shell",
				"command": filepath.ToSlash(filepath.Join(opts.SDKPath, opts.compilerCommand())),
				"args":    []string{dep, fmt.Sprintf("--debug=%v", mode == "debug")},
				"group":   "build",
			}
			if lastLabel != "" {
				sub["dependsOn"] = lastLabel
			}
			out = append(out, sub)
			lastLabel = label
		}

		suffix := ""
		switch {
		case len(deps) > 0:
			suffix = " (with deps)"
		case originallyEmpty:
			suffix = " (not needed)"
		}

		master := map[string]interface{}{
			"label":          fmt.Sprintf("%sbuild %s%s", mascotTaskMarker, mode, suffix),
			"type":           "as3mxml",
			"asconfig":       "asconfig.json",
			"debug":          mode == "debug",
			"group":          "build",
			"problemMatcher": "$nextgenas",
		}
		if lastLabel != "" {
			master["dependsOn"] = lastLabel
		}
		out = append(out, master)
	}

	return out
}

func readJSONObject(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func readTasksFile(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Tasks []map[string]interface{} `json:"tasks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}
