package orchestrator

import (
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/juju/clock"

	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/gitlab"
	"github.com/glexport/glexport/internal/logging"
)

// Importer drives one archive import job.
//
// Unlike export, import polling carries no attempt limit: it relies on the
// server eventually reporting finished or failed. A server that stalls in
// started forever would block the process; kill it if that happens, the
// server-side job is independent of this client.
type Importer struct {
	API          gitlab.API
	Clock        clock.Clock
	PollInterval time.Duration
	Log          *logging.Logger
}

// Import uploads the archive at archivePath and drives the import job for
// destPath (a namespaced path like group/subgroup/name) to a terminal state.
// The destination is decomposed into leaf name and parent namespace for the
// upload; the import always overwrites an existing project at that path.
func (i *Importer) Import(destPath, archivePath string) error {
	log := i.Log.WithProject(destPath).WithOperation("import")

	leaf := path.Base(destPath)
	namespace := path.Dir(destPath)
	if namespace == "." {
		namespace = ""
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return errors.NewImportError("opening archive", err).WithPath(destPath)
	}
	defer f.Close()

	if err := i.API.ScheduleImport(leaf, namespace, filepath.Base(archivePath), f); err != nil {
		return errors.NewImportError("import request rejected", err).WithPath(destPath)
	}
	log.Debug("import scheduled", "leaf", leaf, "namespace", namespace)

	for {
		poll, err := i.API.PollImport(destPath)
		if err != nil {
			return errors.NewImportError("status check failed", err).WithPath(destPath)
		}

		switch poll.Status {
		case gitlab.ImportStatusFinished:
			log.Debug("import finished")
			return nil
		case gitlab.ImportStatusFailed:
			return &errors.ImportFailedError{Path: destPath, Detail: poll.Detail}
		}
		log.Debug("import not ready", "status", poll.Status)

		<-i.Clock.After(i.PollInterval)
	}
}
