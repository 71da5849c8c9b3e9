// Package cleanup removes the transient directories of a pipeline run.
package cleanup

import (
	"github.com/go-git/go-billy/v5"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/snowmeltarcade/pfbuild/internal/fsutil"
)

// Clean attempts to remove every dir. Failures are logged and collected;
// a failure never stops the remaining removals.
func Clean(fs billy.Filesystem, log *zap.SugaredLogger, dirs ...string) error {
	log.Infow("Cleaning up build environment", "dirs", dirs)

	var result *multierror.Error
	for _, dir := range dirs {
		if err := fsutil.RemoveDir(fs, dir); err != nil {
			log.Warnw("Failed to remove directory", "dir", dir, "error", err)
			result = multierror.Append(result, err)
			continue
		}
		log.Debugw("Removed directory", "dir", dir)
	}
	return result.ErrorOrNil()
}
