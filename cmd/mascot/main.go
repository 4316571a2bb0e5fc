package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ciacob/MASCOT/internal/ghclone"
	"github.com/ciacob/MASCOT/pkg/emitter"
	"github.com/ciacob/MASCOT/pkg/mconfig"
	"github.com/ciacob/MASCOT/pkg/patch"
	"github.com/ciacob/MASCOT/pkg/pipeline"
)

type CLI struct {
	Workspace string `short:"w" help:"Workspace root directory" default:"."`
	Cache     string `short:"c" help:"Cache directory for projects.json/classes.json/deps.json/tasks.json/problems.log" default:".mascot"`

	Scan  ScanCmd  `cmd:"" help:"Run the Shallow Scanner and Deep Scanner"`
	Graph GraphCmd `cmd:"" help:"Run the Dependency Builder, Task Planner, and Dirtiness Filter"`
	Emit  EmitCmd  `cmd:"" help:"Run the Config Emitter and Editor-Config Emitter"`
	Build BuildCmd `cmd:"" help:"Run the full pipeline: scan, graph, emit"`
	Clone CloneCmd `cmd:"" help:"Clone (or update) a GitHub repository into the workspace"`
}

type ScanCmd struct {
	ManualDeps string `help:"Path to a JSON file of {project,dependencies[]} manual-dependency records"`
}

func (s *ScanCmd) Run(cli *CLI) error {
	cache, err := pipeline.New(cli.Cache)
	if err != nil {
		return err
	}
	if err := cache.Scan(cli.Workspace); err != nil {
		return err
	}
	if s.ManualDeps == "" {
		return nil
	}
	records, err := loadManualDeps(s.ManualDeps)
	if err != nil {
		return err
	}
	return cache.ApplyManualPatches(records)
}

type GraphCmd struct {
	RebuildAll bool `help:"Disable the Dirtiness Filter; every dependency is considered dirty"`
}

func (g *GraphCmd) Run(cli *CLI) error {
	cache, err := pipeline.New(cli.Cache)
	if err != nil {
		return err
	}
	return cache.Graph(g.RebuildAll)
}

type EmitCmd struct {
	SDK             string `help:"SDK directory (required)" required:""`
	AsconfigBase    string `help:"Path to a JSON file used as the asconfig.json inherited base"`
	Overwrite       bool   `help:"Rewrite asconfig.json even if it already exists"`
	Purge           bool   `help:"Replace existing .vscode/settings.json and tasks.json instead of merging"`
	ExternalWorkers string `help:"Path to a JSON file mapping project home paths to external worker output paths"`
	InternalWorkers string `help:"Path to a JSON file mapping project home paths to internal worker {file,output} lists"`
	CompilerCommand string `help:"External compiler driver executable, relative to --sdk (default: bin/mxmlc)"`
}

func (e *EmitCmd) Run(cli *CLI) error {
	cache, err := pipeline.New(cli.Cache)
	if err != nil {
		return err
	}

	cfg, err := mconfig.Load(cli.Workspace)
	if err != nil {
		return err
	}

	opts := emitter.Options{
		ConfigType:      cfg.ConfigType,
		CopyAssets:      cfg.CopyAssets,
		BinDir:          cfg.BinDir,
		SrcDir:          cfg.SrcDir,
		AsconfigBase:    cfg.AsconfigBase,
		SettingsExtra:   cfg.SettingsExtra,
		SDKPath:         e.SDK,
		Overwrite:       e.Overwrite,
		Purge:           e.Purge,
		CompilerCommand: e.CompilerCommand,
	}
	if opts.SDKPath == "" {
		opts.SDKPath = cfg.SDKPath
	}
	if opts.CompilerCommand == "" {
		opts.CompilerCommand = cfg.CompilerCommand
	}

	if e.AsconfigBase != "" {
		base, err := loadJSONObject(e.AsconfigBase)
		if err != nil {
			return err
		}
		opts.AsconfigBase = base
	}
	if e.ExternalWorkers != "" {
		workers, err := loadStringMap(e.ExternalWorkers)
		if err != nil {
			return err
		}
		opts.ExternalWorkers = workers
	}
	if e.InternalWorkers != "" {
		workers, err := loadWorkerMap(e.InternalWorkers)
		if err != nil {
			return err
		}
		opts.InternalWorkers = workers
	}

	return cache.Emit(opts)
}

type BuildCmd struct {
	RebuildAll      bool   `help:"Disable the Dirtiness Filter"`
	SDK             string `help:"SDK directory (required)" required:""`
	CompilerCommand string `help:"External compiler driver executable, relative to --sdk (default: bin/mxmlc)"`
}

func (b *BuildCmd) Run(cli *CLI) error {
	cache, err := pipeline.New(cli.Cache)
	if err != nil {
		return err
	}
	fmt.Println("scanning workspace...")
	if err := cache.Scan(cli.Workspace); err != nil {
		return err
	}
	fmt.Println("building dependency graph...")
	if err := cache.Graph(b.RebuildAll); err != nil {
		return err
	}
	fmt.Println("emitting project configuration...")
	cfg, err := mconfig.Load(cli.Workspace)
	if err != nil {
		return err
	}
	opts := emitter.Options{
		ConfigType:      cfg.ConfigType,
		CopyAssets:      cfg.CopyAssets,
		BinDir:          cfg.BinDir,
		SrcDir:          cfg.SrcDir,
		AsconfigBase:    cfg.AsconfigBase,
		SettingsExtra:   cfg.SettingsExtra,
		SDKPath:         b.SDK,
		CompilerCommand: b.CompilerCommand,
	}
	if opts.CompilerCommand == "" {
		opts.CompilerCommand = cfg.CompilerCommand
	}
	return cache.Emit(opts)
}

type CloneCmd struct {
	URL    string `arg:"" help:"Repository URL to clone"`
	Branch string `help:"Branch to check out"`
}

func (c *CloneCmd) Run(cli *CLI) error {
	if _, err := os.Stat(cli.Workspace); err == nil {
		fmt.Println("workspace already present, pulling latest changes...")
		return ghclone.Update(cli.Workspace)
	}
	fmt.Printf("cloning %s into %s...\n", c.URL, cli.Workspace)
	return ghclone.Clone(cli.Workspace, ghclone.Options{URL: c.URL, Branch: c.Branch})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)
	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadManualDeps(path string) ([]patch.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manual dependencies file %s: %w", path, err)
	}
	var records []patch.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing manual dependencies file %s: %w", path, err)
	}
	return records, nil
}

func loadJSONObject(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

func loadStringMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

func loadWorkerMap(path string) (map[string][]emitter.WorkerEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string][]emitter.WorkerEntry
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
