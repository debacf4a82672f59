package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/glexport/glexport/internal/errors"
	"github.com/glexport/glexport/internal/gitlab"
	"github.com/glexport/glexport/internal/logging"
	"github.com/glexport/glexport/internal/testutil"
)

const importInterval = time.Second

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := os.WriteFile(path, []byte("archive-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runImport mirrors runExport for the import direction.
func runImport(t *testing.T, i *Importer, clk *testclock.Clock, destPath, archivePath string) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- i.Import(destPath, archivePath)
	}()

	for {
		select {
		case err := <-done:
			return err
		default:
			if err := clk.WaitAdvance(importInterval, 100*time.Millisecond, 1); err != nil {
				select {
				case err := <-done:
					return err
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
	}
}

func newImporter(api gitlab.API, clk *testclock.Clock) *Importer {
	return &Importer{
		API:          api,
		Clock:        clk,
		PollInterval: importInterval,
		Log:          logging.NopLogger(),
	}
}

func TestImport_Succeeds(t *testing.T) {
	api := &testutil.FakeAPI{
		ImportScript: []testutil.ImportStep{
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusStarted}},
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusStarted}},
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusFinished}},
		},
	}
	clk := testclock.NewClock(time.Time{})

	err := runImport(t, newImporter(api, clk), clk, "group/subgroup/name", writeArchive(t))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if api.ImportPolls != 3 {
		t.Errorf("polls = %d, want 3", api.ImportPolls)
	}

	if len(api.ImportScheduled) != 1 {
		t.Fatalf("ScheduleImport called %d times, want 1", len(api.ImportScheduled))
	}
	req := api.ImportScheduled[0]
	if req.Leaf != "name" {
		t.Errorf("leaf = %q, want %q", req.Leaf, "name")
	}
	if req.Namespace != "group/subgroup" {
		t.Errorf("namespace = %q, want %q", req.Namespace, "group/subgroup")
	}
	if req.Filename != "backup.tar.gz" {
		t.Errorf("filename = %q, want %q", req.Filename, "backup.tar.gz")
	}
	if req.Content != "archive-bytes" {
		t.Errorf("content = %q, want archive bytes uploaded", req.Content)
	}
}

func TestImport_FailedIsTerminal(t *testing.T) {
	api := &testutil.FakeAPI{
		ImportScript: []testutil.ImportStep{
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusStarted}},
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusFailed, Detail: "namespace not found"}},
			// Would repeat failed forever; the importer must stop at the
			// first failed poll.
		},
	}
	clk := testclock.NewClock(time.Time{})

	err := runImport(t, newImporter(api, clk), clk, "group/name", writeArchive(t))

	if !errors.Is(err, errors.ErrImportFailed) {
		t.Fatalf("Import() error = %v, want ErrImportFailed", err)
	}
	var failed *errors.ImportFailedError
	errors.As(err, &failed)
	if failed.Detail != "namespace not found" {
		t.Errorf("Detail = %q, want server-provided text", failed.Detail)
	}
	if api.ImportPolls != 2 {
		t.Errorf("polls = %d, want 2 (no polls after failed)", api.ImportPolls)
	}
}

func TestImport_ScheduleRejected(t *testing.T) {
	api := &testutil.FakeAPI{
		ImportScheduleErr: errors.NewUnexpectedStatusError("schedule import", 400, "bad path"),
		ImportScript: []testutil.ImportStep{
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusStarted}},
		},
	}
	clk := testclock.NewClock(time.Time{})

	err := newImporter(api, clk).Import("group/name", writeArchive(t))

	if !errors.IsUnexpectedStatus(err) {
		t.Fatalf("Import() error = %v, want UnexpectedStatusError", err)
	}
	if api.ImportPolls != 0 {
		t.Errorf("polls = %d, want 0 after rejected submission", api.ImportPolls)
	}
}

func TestImport_PollErrorAborts(t *testing.T) {
	api := &testutil.FakeAPI{
		ImportScript: []testutil.ImportStep{
			{Err: errors.NewUnexpectedStatusError("poll import", 500, "oops")},
		},
	}
	clk := testclock.NewClock(time.Time{})

	err := newImporter(api, clk).Import("group/name", writeArchive(t))

	if !errors.IsUnexpectedStatus(err) {
		t.Fatalf("Import() error = %v, want UnexpectedStatusError", err)
	}
	if api.ImportPolls != 1 {
		t.Errorf("polls = %d, want 1", api.ImportPolls)
	}
}

func TestImport_MissingArchive(t *testing.T) {
	api := &testutil.FakeAPI{}
	clk := testclock.NewClock(time.Time{})

	err := newImporter(api, clk).Import("group/name", filepath.Join(t.TempDir(), "missing.tar.gz"))
	if err == nil {
		t.Fatal("Import() error = nil, want failure for missing archive")
	}
	if len(api.ImportScheduled) != 0 {
		t.Error("nothing should be uploaded when the archive cannot be opened")
	}
}

func TestImport_RootLevelDestination(t *testing.T) {
	api := &testutil.FakeAPI{
		ImportScript: []testutil.ImportStep{
			{Poll: gitlab.ImportPoll{Status: gitlab.ImportStatusFinished}},
		},
	}
	clk := testclock.NewClock(time.Time{})

	if err := newImporter(api, clk).Import("name", writeArchive(t)); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	req := api.ImportScheduled[0]
	if req.Leaf != "name" || req.Namespace != "" {
		t.Errorf("leaf, namespace = %q, %q, want %q, empty", req.Leaf, req.Namespace, "name")
	}
}
