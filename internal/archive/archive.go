// Package archive manages the local side of a backup: destination
// directories, archive file naming, overwrite handling, and retention-based
// pruning of old archives.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glexport/glexport/internal/config"
	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/logging"
)

// Extension is the fixed suffix of export archives; pruning only ever touches
// files with this suffix.
const Extension = ".tar.gz"

// Dir returns the destination directory for a project's archives: the
// configured destination root, plus a per-project subdirectory when
// project_dirs is enabled.
func Dir(cfg config.BackupConfig, projectPath string) string {
	if cfg.ProjectDirs {
		return filepath.Join(cfg.Destination, filepath.FromSlash(projectPath))
	}
	return cfg.Destination
}

// Filename renders the backup_name template for a project at the given time.
// {PROJECT_NAME} becomes the namespaced path with slashes turned into dashes;
// {TIME} becomes now formatted with backup_time_format (spaces become
// underscores so the result is always a single path element).
func Filename(cfg config.BackupConfig, projectPath string, now time.Time) string {
	name := strings.ReplaceAll(cfg.BackupName, "{PROJECT_NAME}", strings.ReplaceAll(projectPath, "/", "-"))
	layout := strings.ReplaceAll(cfg.BackupTimeFormat, " ", "_")
	return strings.ReplaceAll(name, "{TIME}", now.Format(layout))
}

// Prepare makes sure dest can be written. An existing file is an error unless
// force is set, in which case it is removed first.
func Prepare(dest string, force bool) error {
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking destination %s: %w", dest, err)
	}
	if !force {
		return fmt.Errorf("%s: %w", dest, errors.ErrDestinationExists)
	}
	if err := os.Remove(dest); err != nil {
		return fmt.Errorf("removing existing %s: %w", dest, err)
	}
	return nil
}

// Prune deletes archives in dir older than retentionDays, judged by file
// modification time against now. A retention of zero or less disables
// pruning. Only regular files with the archive extension are considered.
// Returns the paths removed.
func Prune(dir string, retentionDays float64, now time.Time, log *logging.Logger) ([]string, error) {
	if retentionDays <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	cutoff := now.Add(-time.Duration(retentionDays * 24 * float64(time.Hour)))
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("pruning %s: %w", path, err)
			}
			log.Debug("pruned old archive", "path", path, "age", now.Sub(info.ModTime()).String())
			removed = append(removed, path)
		}
	}
	return removed, nil
}
