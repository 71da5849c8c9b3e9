package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the project root.
const FileName = "pfbuild.yaml"

// Repo is an installer repository.
type Repo struct {
	URL    string `yaml:"url"`
	Script string `yaml:"script"`
}

// Bundle is the metadata embedded into iOS bundles.
type Bundle struct {
	Name             string `yaml:"name"`
	Identifier       string `yaml:"identifier"`
	Copyright        string `yaml:"copyright"`
	DeploymentTarget string `yaml:"deployment_target"`
}

// Tools overrides tool executables. Empty entries are looked up on PATH.
type Tools struct {
	Git    string `yaml:"git"`
	CMake  string `yaml:"cmake"`
	CTest  string `yaml:"ctest"`
	Python string `yaml:"python"`
}

// File is the content of pfbuild.yaml.
type File struct {
	Project      string `yaml:"project"`
	BuildType    string `yaml:"build_type"`
	GitBackend   string `yaml:"git_backend"`
	EnvFile      string `yaml:"env_file"`
	Tools        Tools  `yaml:"tools"`
	Dependencies Repo   `yaml:"dependencies"`
	Assets       Repo   `yaml:"assets"`
	Bundle       Bundle `yaml:"bundle"`
}

// Default returns the settings used when pfbuild.yaml is absent.
func Default() *File {
	return &File{
		Project:    "projectfarm",
		BuildType:  string(Release),
		GitBackend: "git",
		Dependencies: Repo{
			URL:    "https://github.com/snowmeltarcade/project-dependencies.git",
			Script: "install_all.py",
		},
		Assets: Repo{
			URL:    "https://github.com/snowmeltarcade/project-assets.git",
			Script: "install.py",
		},
		Bundle: Bundle{
			Name:             "projectfarm",
			Identifier:       "com.snowmeltarcade.projectfarm",
			Copyright:        "Copyright © Snowmelt Arcade",
			DeploymentTarget: "14.0",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*File, error) {
	f := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if _, err := ParseBuildType(f.BuildType); err != nil {
		return nil, fmt.Errorf("%s: build_type: %w", path, err)
	}
	return f, nil
}

// LoadEnv reads the env file named by f, relative to root. It returns nil
// when no env file is configured.
func (f *File) LoadEnv(root string) (map[string]string, error) {
	if f.EnvFile == "" {
		return nil, nil
	}
	path := f.EnvFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}
