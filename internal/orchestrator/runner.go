package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"

	"github.com/glexport/glexport/internal/archive"
	"github.com/glexport/glexport/internal/config"
	"github.com/glexport/glexport/internal/gitlab"
	"github.com/glexport/glexport/internal/logging"
	"github.com/glexport/glexport/internal/selector"
)

// Result records the outcome of one project's backup.
type Result struct {
	Project gitlab.Project
	Archive string // destination file, set on success
	Bytes   int64
	Err     error
}

// OK reports whether the project was backed up successfully.
func (r Result) OK() bool { return r.Err == nil }

// Summary is the outcome of a whole run. The cumulative failure count feeds
// the process exit status; there is no process-global counter.
type Summary struct {
	Selection selector.Selection
	Results   []Result
	Noop      bool
}

// Failed returns the number of projects whose backup failed.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Runner executes one backup run: catalog, selection, then a sequential
// per-project export/download loop. Per-project failures are recorded and the
// run continues; only catalog-level failures abort it.
type Runner struct {
	API    gitlab.API
	Clock  clock.Clock
	Config *config.Config
	Log    *logging.Logger
	Force  bool // overwrite an existing archive at the destination
	Noop   bool // resolve the selection, then stop

	// OnStart and OnResult, when set, are invoked before and after each
	// project is processed. Used by the CLI for progress output.
	OnStart  func(gitlab.Project)
	OnResult func(Result)
}

// Run performs the backup run and returns its summary. The returned error is
// non-nil only for run-fatal conditions: catalog fetch failure or an empty
// catalog.
func (r *Runner) Run() (*Summary, error) {
	catalog, err := r.API.ListProjects()
	if err != nil {
		return nil, err
	}

	sel, err := selector.Select(catalog, r.Config.Gitlab.Projects, r.Config.Gitlab.ExcludeProjects)
	if err != nil {
		return nil, err
	}
	r.Log.Info("selection resolved", "catalog", len(catalog), "selected", len(sel))

	summary := &Summary{Selection: sel, Noop: r.Noop}
	if r.Noop {
		return summary, nil
	}

	exporter := &Exporter{
		API:          r.API,
		Clock:        r.Clock,
		MaxTries:     r.Config.Gitlab.MaxTriesNumber,
		PollInterval: r.Config.Gitlab.PollInterval,
		Unbounded:    r.Config.Gitlab.UnboundedWhileProgressing,
		Log:          r.Log,
	}

	for i, project := range sel {
		if r.OnStart != nil {
			r.OnStart(project)
		}
		result := r.processProject(exporter, project)
		summary.Results = append(summary.Results, result)
		if r.OnResult != nil {
			r.OnResult(result)
		}

		// Politeness delay between projects, skipped after the last one.
		if wait := r.Config.Gitlab.WaitBetweenExports; wait > 0 && i < len(sel)-1 {
			r.Log.Debug("waiting between exports", "wait", wait.String())
			<-r.Clock.After(wait)
		}
	}

	return summary, nil
}

// processProject backs up a single project: destination setup, retention
// pruning, export orchestration, archive download.
func (r *Runner) processProject(exporter *Exporter, project gitlab.Project) Result {
	result := Result{Project: project}
	log := r.Log.WithProject(project.PathWithNamespace)

	dir := archive.Dir(r.Config.Backup, project.PathWithNamespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Err = fmt.Errorf("creating destination %s: %w", dir, err)
		return result
	}
	dest := filepath.Join(dir, archive.Filename(r.Config.Backup, project.PathWithNamespace, r.Clock.Now()))
	log.Debug("destination resolved", "file", dest)

	if err := archive.Prepare(dest, r.Force); err != nil {
		result.Err = err
		return result
	}
	if _, err := archive.Prune(dir, r.Config.Backup.RetentionPeriod, r.Clock.Now(), log); err != nil {
		log.Warn("pruning old archives failed", "error", err.Error())
	}

	downloadURL, err := exporter.Export(project)
	if err != nil {
		result.Err = err
		return result
	}

	n, err := r.download(downloadURL, dest)
	if err != nil {
		result.Err = err
		return result
	}
	log.Info("archive downloaded", "file", dest, "size", humanize.Bytes(uint64(n)))

	result.Archive = dest
	result.Bytes = n
	return result
}

// download streams the archive to dest, removing the partial file on failure
// so a bad download never masquerades as a backup.
func (r *Runner) download(url, dest string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", dest, err)
	}

	n, err := r.API.Download(url, f)
	closeErr := f.Close()
	if err != nil {
		os.Remove(dest)
		return 0, err
	}
	if closeErr != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("writing %s: %w", dest, closeErr)
	}
	return n, nil
}
