// Package archive packages an installed tree into a versioned zip file.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
	"github.com/snowmeltarcade/pfbuild/internal/manifest"
)

// DirName is the directory, relative to the project root, archives are
// written to.
const DirName = "archives"

// Format is the archive format produced.
const Format = "zip"

// Archive describes a written archive.
type Archive struct {
	Path     string // relative to the project root
	Format   string
	BaseName string
}

// WriteError reports a failure to produce an archive.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write archive %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Name returns override when set, otherwise projectfarm-<version>-<host>.
func Name(project string, version manifest.Version, hostOS, override string) string {
	if override != "" {
		return override
	}
	if project == "" {
		project = manifest.DefaultProject
	}
	return fmt.Sprintf("%s-%s-%s", project, version, strings.ToLower(hostOS))
}

// Packager writes archives into DirName.
type Packager struct {
	FS      billy.Filesystem // rooted at the project root
	Project string
	HostOS  string
	Log     *zap.SugaredLogger
}

// Pack compresses the tree under src into archives/<name>.zip.
func (p *Packager) Pack(src string, version manifest.Version, override string) (*Archive, error) {
	name := Name(p.Project, version, p.HostOS, override)
	a := &Archive{
		Path:     filepath.Join(DirName, name+"."+Format),
		Format:   Format,
		BaseName: name,
	}
	p.Log.Infow("Packaging", "src", src, "archive", a.Path)

	if fsutil.IsEmptyDir(p.FS, src) {
		return nil, &WriteError{Path: a.Path, Err: fmt.Errorf("nothing to archive in %s", src)}
	}
	if err := fsutil.MakeDir(p.FS, DirName); err != nil {
		return nil, &WriteError{Path: a.Path, Err: err}
	}
	if err := zipDir(p.FS, src, a.Path); err != nil {
		if rerr := p.FS.Remove(a.Path); rerr != nil && !os.IsNotExist(rerr) {
			p.Log.Warnw("Failed to remove partial archive", "error", rerr)
		}
		return nil, &WriteError{Path: a.Path, Err: err}
	}

	p.Log.Infow("Created archive", "path", a.Path)
	return a, nil
}

// zipDir creates a zip archive at dest from the contents of srcDir.
func zipDir(fs billy.Filesystem, srcDir, dest string) error {
	f, err := fs.Create(dest)
	if err != nil {
		return err
	}
	w := zip.NewWriter(f)

	err = util.Walk(fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil || rel == "." {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
			_, err = w.CreateHeader(header)
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Stored as the link target, the way zip -y records links.
			link, err := fs.Readlink(path)
			if err != nil {
				return err
			}
			header.Method = zip.Store
			writer, err := w.CreateHeader(header)
			if err != nil {
				return err
			}
			_, err = io.WriteString(writer, filepath.ToSlash(link))
			return err
		}
		header.Method = zip.Deflate

		writer, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := fs.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(writer, file)
		return err
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
