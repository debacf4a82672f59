package gitlab

// Project identifies one remote project. The ID is authoritative for API
// calls; the namespaced path is authoritative for pattern matching and file
// naming.
type Project struct {
	ID                int    `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
}

// Export statuses reported by the server.
const (
	ExportStatusNone         = "none"
	ExportStatusQueued       = "queued"
	ExportStatusStarted      = "started"
	ExportStatusFinished     = "finished"
	ExportStatusRegenerating = "regeneration_in_progress"
)

// Import statuses reported by the server.
const (
	ImportStatusScheduled = "scheduled"
	ImportStatusStarted   = "started"
	ImportStatusFinished  = "finished"
	ImportStatusFailed    = "failed"
)

// ExportPoll is the decoded result of one export status check. DownloadURL is
// empty until the server includes a _links object; an export is only usable
// once the status is finished AND a locator is present.
type ExportPoll struct {
	Status      string
	DownloadURL string
}

// Finished reports whether the export reached a usable terminal state.
func (p ExportPoll) Finished() bool {
	return p.Status == ExportStatusFinished && p.DownloadURL != ""
}

// InProgress reports whether the server is still working on the export.
func (p ExportPoll) InProgress() bool {
	switch p.Status {
	case ExportStatusQueued, ExportStatusStarted, ExportStatusRegenerating:
		return true
	}
	return false
}

// ImportPoll is the decoded result of one import status check. Detail carries
// the server-provided error text when the import failed.
type ImportPoll struct {
	Status string
	Detail string
}

type exportStatusResponse struct {
	ID           int          `json:"id"`
	ExportStatus string       `json:"export_status"`
	Links        *exportLinks `json:"_links"`
}

type exportLinks struct {
	APIURL string `json:"api_url"`
	WebURL string `json:"web_url"`
}

type importStatusResponse struct {
	ID           int    `json:"id"`
	ImportStatus string `json:"import_status"`
	ImportError  string `json:"import_error"`
}
