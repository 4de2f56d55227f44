// Copyright © 2018 One Concern

package core

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/oneconcern/lineagesync/pkg/core/status"
)

const (
	// ProjectDir is the name of the directory holding a lineage project at
	// the root of a repository
	ProjectDir = "lineage.project"

	modelDir          = "model"
	projectFile       = "project.yaml"
	remoteProjectFile = "project.yaml_remote"
	gitignoreFile     = ".gitignore"
)

var ignored = []string{
	"/" + ProjectDir + "/" + projectFile,
}

// Project describes the local settings of a lineage project. The shared
// copy is kept next to it and restored when cloning.
type Project struct {
	Name       string `json:"name" yaml:"name"`
	ImageData  string `json:"imageData,omitempty" yaml:"image_data,omitempty"`
	SpaceUnits string `json:"spaceUnits,omitempty" yaml:"space_units,omitempty"`
	TimeUnits  string `json:"timeUnits,omitempty" yaml:"time_units,omitempty"`
}

// modelPath is the path of the snapshot relative to the repository root
func modelPath() string {
	return ProjectDir + "/" + modelDir
}

// checkProjectRoot tells if a directory is the project directory of a repository
func checkProjectRoot(projectRoot string) error {
	if filepath.Base(projectRoot) != ProjectDir {
		return status.ErrNotARepository.WrapMessage(projectRoot)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(projectRoot), ".git")); err != nil {
		return status.ErrNotARepository.WrapMessage(projectRoot)
	}
	return nil
}

func isEmptyDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func writeProject(projectRoot string, p Project) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectRoot, projectFile), b, 0o644)
}

// ReadProject reads the local settings of a project
func ReadProject(projectRoot string) (Project, error) {
	var p Project
	b, err := os.ReadFile(filepath.Join(projectRoot, projectFile))
	if err != nil {
		return p, err
	}
	err = yaml.Unmarshal(b, &p)
	return p, err
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}

func appendGitignore(root string) error {
	f, err := os.OpenFile(filepath.Join(root, gitignoreFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	for _, pattern := range ignored {
		if _, err := f.WriteString(pattern + "\n"); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}
