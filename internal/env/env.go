// Package env locates the project the tool operates on.
package env

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/snowmeltarcade/pfbuild/internal/manifest"
)

// ProjectDir returns the absolute form of dir when it is non-empty.
// Otherwise it walks up from the working directory to the nearest directory
// holding a CMakeLists.txt that declares a project version.
func ProjectDir(dir, project string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findRoot(wd, project)
}

func findRoot(start, project string) (string, error) {
	for dir := start; ; {
		if _, err := manifest.Load(dir, project); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s declaring %s VERSION found above %s", manifest.FileName, project, start)
		}
		dir = parent
	}
}
