// Package orchestrator drives asynchronous GitLab export and import jobs to
// completion: it submits the job, polls the server's status endpoint, and
// turns the observed status sequence into a usable result or a definitive
// failure. All waiting goes through an injected clock so tests never sleep
// real wall time.
package orchestrator

import (
	"time"

	"github.com/juju/clock"

	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/gitlab"
	"github.com/glexport/glexport/internal/logging"
)

// Exporter drives one project's export job at a time.
//
// The poll budget is fixed: at most MaxTries status checks per export, so the
// worst-case wait is bounded by MaxTries * PollInterval. Setting
// UnboundedWhileProgressing re-arms the budget whenever the server reports a
// still-working status, trading the bounded wait for patience with very large
// exports.
type Exporter struct {
	API          gitlab.API
	Clock        clock.Clock
	MaxTries     int
	PollInterval time.Duration
	Unbounded    bool // re-arm the budget while the server reports progress
	Log          *logging.Logger
}

// Export submits an export job for the project and polls until it produces a
// download locator. Success requires status finished AND a locator in the
// response: finished without one is not yet usable and polling continues.
// A non-2xx poll response aborts immediately. When the budget runs out the
// job is abandoned; a later invocation must submit a fresh one.
func (e *Exporter) Export(project gitlab.Project) (string, error) {
	log := e.Log.WithProject(project.PathWithNamespace).WithOperation("export")

	if err := e.API.ScheduleExport(project.ID); err != nil {
		return "", errors.NewExportError("export request rejected", err).WithProject(project.PathWithNamespace)
	}
	log.Debug("export scheduled", "project_id", project.ID)

	remaining := e.MaxTries
	polls := 0
	lastStatus := ""
	for remaining > 0 {
		remaining--
		polls++

		poll, err := e.API.PollExport(project.ID)
		if err != nil {
			return "", errors.NewExportError("status check failed", err).WithProject(project.PathWithNamespace)
		}
		lastStatus = poll.Status

		if poll.Finished() {
			log.Debug("export finished", "polls", polls, "download_url", poll.DownloadURL)
			return poll.DownloadURL, nil
		}
		if e.Unbounded && poll.InProgress() {
			remaining = e.MaxTries
		}
		log.Debug("export not ready", "status", poll.Status, "remaining", remaining)

		if remaining > 0 {
			<-e.Clock.After(e.PollInterval)
		}
	}

	return "", &errors.ExportTimedOutError{
		Project:    project.PathWithNamespace,
		LastStatus: lastStatus,
		Polls:      polls,
	}
}
