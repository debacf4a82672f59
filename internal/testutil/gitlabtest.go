// Package testutil provides test doubles shared across glexport test suites.
package testutil

import (
	"fmt"
	"io"

	"github.com/glexport/glexport/internal/gitlab"
)

// ExportStep is one scripted answer to an export status check.
type ExportStep struct {
	Poll gitlab.ExportPoll
	Err  error
}

// ImportStep is one scripted answer to an import status check.
type ImportStep struct {
	Poll gitlab.ImportPoll
	Err  error
}

// ImportRequest records one ScheduleImport call.
type ImportRequest struct {
	Leaf      string
	Namespace string
	Filename  string
	Content   string
}

// FakeAPI is a scripted gitlab.API. Poll sequences are consumed one step per
// call; when a sequence runs out the last step repeats, which models a server
// stuck on a status.
type FakeAPI struct {
	ProjectList []gitlab.Project
	ListErr     error
	ListCalls   int

	ExportScheduleErr map[int]error
	ExportScheduled   []int
	ExportScript      map[int][]ExportStep
	ExportPolls       map[int]int

	ImportScheduleErr error
	ImportScheduled   []ImportRequest
	ImportScript      []ImportStep
	ImportPolls       int

	Archives    map[string]string // locator -> content
	DownloadErr error
}

var _ gitlab.API = (*FakeAPI)(nil)

func (f *FakeAPI) ListProjects() ([]gitlab.Project, error) {
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.ProjectList, nil
}

func (f *FakeAPI) ScheduleExport(projectID int) error {
	f.ExportScheduled = append(f.ExportScheduled, projectID)
	if err := f.ExportScheduleErr[projectID]; err != nil {
		return err
	}
	return nil
}

func (f *FakeAPI) PollExport(projectID int) (gitlab.ExportPoll, error) {
	if f.ExportPolls == nil {
		f.ExportPolls = make(map[int]int)
	}
	script := f.ExportScript[projectID]
	if len(script) == 0 {
		return gitlab.ExportPoll{}, fmt.Errorf("no export script for project %d", projectID)
	}
	i := f.ExportPolls[projectID]
	f.ExportPolls[projectID]++
	if i >= len(script) {
		i = len(script) - 1
	}
	return script[i].Poll, script[i].Err
}

func (f *FakeAPI) ScheduleImport(leaf, namespace, filename string, archive io.Reader) error {
	content, err := io.ReadAll(archive)
	if err != nil {
		return err
	}
	f.ImportScheduled = append(f.ImportScheduled, ImportRequest{
		Leaf:      leaf,
		Namespace: namespace,
		Filename:  filename,
		Content:   string(content),
	})
	return f.ImportScheduleErr
}

func (f *FakeAPI) PollImport(projectPath string) (gitlab.ImportPoll, error) {
	if len(f.ImportScript) == 0 {
		return gitlab.ImportPoll{}, fmt.Errorf("no import script configured")
	}
	i := f.ImportPolls
	f.ImportPolls++
	if i >= len(f.ImportScript) {
		i = len(f.ImportScript) - 1
	}
	return f.ImportScript[i].Poll, f.ImportScript[i].Err
}

func (f *FakeAPI) Download(locator string, w io.Writer) (int64, error) {
	if f.DownloadErr != nil {
		return 0, f.DownloadErr
	}
	content, found := f.Archives[locator]
	if !found {
		return 0, fmt.Errorf("no archive at %s", locator)
	}
	n, err := io.WriteString(w, content)
	return int64(n), err
}
