// Package manifest reads the project version declared in CMakeLists.txt.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/mod/semver"
)

// FileName is the manifest file looked up in the project root.
const FileName = "CMakeLists.txt"

// DefaultProject is the project name whose VERSION declaration is read.
const DefaultProject = "projectfarm"

// Version is a MAJOR.MINOR.PATCH project version.
type Version string

func (v Version) String() string { return string(v) }

// ParseError reports a missing or malformed version declaration.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("manifest: %v", e.Err)
	}
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseVersion returns the X.Y.Z of the first "<project> VERSION X.Y.Z"
// declaration in text.
func ParseVersion(text []byte, project string) (Version, error) {
	if project == "" {
		project = DefaultProject
	}
	re := regexp.MustCompile(regexp.QuoteMeta(project) + `\s+VERSION\s+(\d+\.\d+\.\d+)\b`)
	m := re.FindSubmatch(text)
	if m == nil {
		return "", &ParseError{Err: fmt.Errorf("no %q VERSION declaration", project)}
	}
	v := string(m[1])
	if !semver.IsValid("v" + v) {
		return "", &ParseError{Err: fmt.Errorf("invalid version %q", v)}
	}
	return Version(v), nil
}

// Load reads root/CMakeLists.txt and parses the version of project.
func Load(root, project string) (Version, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	v, err := ParseVersion(data, project)
	if err != nil {
		err.(*ParseError).Path = path
		return "", err
	}
	return v, nil
}
