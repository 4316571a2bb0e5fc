// Package model defines the data types that flow through the MASCOT
// pipeline: the project catalog, the class catalog, the project
// dependency graph, and the build-task list.
package model

// Project is one discovered compilable unit: a directory whose immediate
// children include a src directory.
type Project struct {
	HomePath        string       `json:"home_path"`
	Name            string       `json:"name"`
	ClassFiles      []string     `json:"class_files"`
	AssetFiles      []string     `json:"asset_files"`
	HasLibDir       bool         `json:"has_lib_dir"`
	HasBinaries     bool         `json:"has_binaries"`
	HasAppBinary    bool         `json:"has_app_binary"`
	Descriptors     []Descriptor `json:"descriptors"`
	CodeTimestamp   int64        `json:"code_timestamp"`
	BinaryTimestamp int64        `json:"binary_timestamp"`
	IsDirty         bool         `json:"is_dirty"`
	AppProbability  int          `json:"is_app_probability"`
}

// IsApp reports whether the project is classified as an application
// (is_app_probability >= 0.5, per spec.md §4.7).
func (p *Project) IsApp() bool {
	return p.AppProbability != 0
}

// Descriptor is an application descriptor file (<name>-app.xml) retained
// because some class file's basename matches <name>.
type Descriptor struct {
	SimpleName          string `json:"simple_name"`
	Filename             string `json:"filename"`
	AbsolutePath         string `json:"absolute_path"`
	RelatedClassPath     string `json:"related_class_path"`
	RelatedClassPackage  string `json:"related_class_package"`
}

// AnalyzedClass is the result of reading one class file and extracting
// its declared package/class.
type AnalyzedClass struct {
	AbsolutePath        string `json:"absolute_path"`
	DeclaredClass       string `json:"declared_class"`
	DeclaredPackage     string `json:"declared_package"`
	ExpectedRelativePath string `json:"expected_relative_path"`
	PathMatchesPackage  bool   `json:"path_matches_package"`
	OwningProjectPath   string `json:"owning_project_path"`
}

// CouplingKind enumerates the ways one class can reference another.
type CouplingKind string

const (
	CouplingImport           CouplingKind = "import"
	CouplingFQNInstantiation CouplingKind = "fqn_instantiation"
	CouplingPatch            CouplingKind = "patch"
)

// Coupling is a directed reference from the owning AnalyzedClass to
// another class, resolved (or not) against the project catalog.
type Coupling struct {
	ReferencedClass      string       `json:"referenced_class"`
	ReferencedPackage     string       `json:"referenced_package"`
	ExpectedRelativePath  string       `json:"expected_relative_path"`
	Kind                  CouplingKind `json:"coupling_type"`
	MatchingProject       string       `json:"matching_project,omitempty"`
	ExpectedClassFile     string       `json:"expected_class_file,omitempty"`
	ClassExists           bool         `json:"class_exists"`
}

// ClassRecord pairs an AnalyzedClass with its extracted couplings, the
// unit stored per-entry in classes.json.
type ClassRecord struct {
	AnalyzedClass  AnalyzedClass `json:"analyzed_class"`
	ClassCouplings []Coupling    `json:"class_couplings"`
}

// ProjectDependencyNode is one project's position in the project
// dependency graph.
type ProjectDependencyNode struct {
	ProjectPath          string   `json:"project_path"`
	ProjectDependencies  []string `json:"project_dependencies"`
	NumDependencies      int      `json:"num_dependencies"`
	RootClasses          []string `json:"root_classes"`
}

// BuildTask is a project's transitive, topologically-ordered build-task
// list, with the project itself last.
type BuildTask struct {
	ProjectPath       string   `json:"project_path"`
	ProjectBuildTasks []string `json:"project_build_tasks"`
	NumTasks          int      `json:"num_tasks"`
}

// ProblemKind enumerates the error taxonomy of spec.md §7.
type ProblemKind string

const (
	ProblemMissingArtifact      ProblemKind = "missing_input_artifact"
	ProblemParseFailure         ProblemKind = "parse_failure"
	ProblemUnresolvedCoupling   ProblemKind = "unresolved_coupling"
	ProblemPackageMismatch      ProblemKind = "path_package_mismatch"
	ProblemNestedProject        ProblemKind = "nested_project"
	ProblemCycle                ProblemKind = "cycle"
	ProblemEmitFailure          ProblemKind = "emit_failure"
	ProblemInvalidManualPatch   ProblemKind = "invalid_manual_patch"
	ProblemMissingGraphNode     ProblemKind = "missing_graph_node"
)

// Problem is one entry in the problems log: a kind, the path it
// concerns, and a human-readable message.
type Problem struct {
	Kind    ProblemKind
	Path    string
	Message string
}

// String renders the problem the way it is appended to problems.log:
// the kind and path on one line, the message on the next, entries later
// separated by a blank line.
func (p Problem) String() string {
	return "[" + string(p.Kind) + "] " + p.Path + "\n" + p.Message
}
