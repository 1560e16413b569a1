package pipeline

// This file contains the pipeline definition: the YAML file format,
// built-in defaults and target derivation.

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the pipeline definition looked up when no --config is given.
const DefaultFile = "crossforge.yaml"

// Target is one fully derived build leg of the matrix.
type Target struct {
	// Platform identifier
	OS OS
	// Executable suffix ("" or ".exe"), derived from OS
	ExeSuffix string
	// Whether the post-build strip step applies, derived from OS
	SupportsStrip bool
	// Artifact name the target publishes under, unique within the run
	ArtifactName string
	// Path the build writes the executable to
	OutputPath string
}

// Pipeline is the loaded, validated build definition for one run.
type Pipeline struct {
	// Name of the binary the build produces
	Binary string
	// Toolchain channel to provision (e.g., "stable")
	Channel string
	// Build command and arguments, identical on every platform
	BuildCommand []string
	// Directory the build writes executables to
	ReleaseDir string
	// Directory the artifact store publishes into
	StoreDir string
	// One target per platform, unique artifact names
	Targets []Target
}

// file is the YAML shape of a pipeline definition.
type file struct {
	Binary    string `yaml:"binary"`
	Toolchain struct {
		Channel string `yaml:"channel"`
	} `yaml:"toolchain"`
	Build struct {
		Command    []string `yaml:"command"`
		ReleaseDir string   `yaml:"release_dir"`
	} `yaml:"build"`
	Artifacts struct {
		Dir string `yaml:"dir"`
	} `yaml:"artifacts"`
	Targets []struct {
		OS   string `yaml:"os"`
		Name string `yaml:"name"`
	} `yaml:"targets"`
}

// Default returns the built-in vault-hunter release pipeline.
func Default() *Pipeline {
	p, err := fromFile(file{})
	if err != nil {
		// The empty definition falls back to defaults everywhere and
		// cannot fail validation.
		panic(err)
	}
	return p
}

// Load reads a pipeline definition from path. A missing DefaultFile falls
// back to the built-in defaults; any other missing path is an error.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultFile {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read pipeline definition %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML pipeline definition.
func Parse(data []byte) (*Pipeline, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline definition: %w", err)
	}
	return fromFile(f)
}

func fromFile(f file) (*Pipeline, error) {
	p := &Pipeline{
		Binary:       f.Binary,
		Channel:      f.Toolchain.Channel,
		BuildCommand: f.Build.Command,
		ReleaseDir:   f.Build.ReleaseDir,
		StoreDir:     f.Artifacts.Dir,
	}

	if p.Binary == "" {
		p.Binary = "vault-hunter"
	}
	if p.Channel == "" {
		p.Channel = "stable"
	}
	if len(p.BuildCommand) == 0 {
		p.BuildCommand = []string{"cargo", "build", "--release"}
	}
	if p.ReleaseDir == "" {
		p.ReleaseDir = filepath.Join("target", "release")
	}
	if p.StoreDir == "" {
		p.StoreDir = "dist"
	}

	// An absent targets list means the full matrix.
	if len(f.Targets) == 0 {
		for _, id := range AllOS() {
			f.Targets = append(f.Targets, struct {
				OS   string `yaml:"os"`
				Name string `yaml:"name"`
			}{OS: string(id)})
		}
	}

	seen := make(map[string]OS, len(f.Targets))
	for _, ft := range f.Targets {
		target, err := p.deriveTarget(OS(ft.OS), ft.Name)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[target.ArtifactName]; ok {
			return nil, fmt.Errorf("duplicate artifact name %q (targets %s and %s)", target.ArtifactName, prev, target.OS)
		}
		seen[target.ArtifactName] = target.OS
		p.Targets = append(p.Targets, target)
	}

	return p, nil
}

// deriveTarget expands an OS identifier into a full target using the
// platform table. An empty name selects the "<binary>-<label>" convention.
func (p *Pipeline) deriveTarget(id OS, name string) (Target, error) {
	attrs, err := attrsFor(id)
	if err != nil {
		return Target{}, err
	}
	if name == "" {
		name = fmt.Sprintf("%s-%s", p.Binary, attrs.ArtifactLabel)
	}
	return Target{
		OS:            id,
		ExeSuffix:     attrs.ExeSuffix,
		SupportsStrip: attrs.SupportsStrip,
		ArtifactName:  name,
		OutputPath:    filepath.Join(p.ReleaseDir, p.Binary+attrs.ExeSuffix),
	}, nil
}

// Filter returns the subset of targets matching the given OS identifiers.
// An empty filter keeps the full matrix.
func (p *Pipeline) Filter(oses []string) ([]Target, error) {
	if len(oses) == 0 {
		return p.Targets, nil
	}
	var targets []Target
	for _, name := range oses {
		found := false
		for _, t := range p.Targets {
			if string(t.OS) == name {
				targets = append(targets, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target %q is not part of the pipeline", name)
		}
	}
	return targets, nil
}
