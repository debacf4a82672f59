// Package errors provides centralized error definitions and error handling
// utilities for glexport. It defines domain-specific errors for the export and
// import pipelines, semantic error types for transport and protocol failures,
// and classification helpers used to decide whether a failure aborts the whole
// run or only the current project.
//
// # Error Types
//
// Domain-specific errors represent failures of one unit of work:
//   - ExportError: errors while driving a server-side export job
//   - ImportError: errors while driving a server-side import job
//
// Semantic errors represent common conditions:
//   - TransportError: connection-level HTTP failure (DNS, TLS, timeout)
//   - UnexpectedStatusError: non-2xx response on a well-formed request
//   - ExportTimedOutError: poll budget exhausted before the export finished
//   - ImportFailedError: server explicitly reported the import as failed
//
// # Usage
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNoProjectsAvailable) { ... }
//
//	var status *errors.UnexpectedStatusError
//	if errors.As(err, &status) { ... }
//
//	if errors.IsRunFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoProjectsAvailable indicates the project catalog fetch returned
	// nothing at all. Distinct from an empty selection after filtering,
	// which is not an error.
	ErrNoProjectsAvailable = New("no projects available for this account")
	// ErrDestinationExists indicates the local archive path already exists
	// and overwrite was not requested.
	ErrDestinationExists = New("destination file already exists")
	// ErrExportTimedOut indicates the export poll budget ran out before the
	// job reached a usable finished state.
	ErrExportTimedOut = New("export timed out")
	// ErrImportFailed indicates the server reported the import as failed.
	ErrImportFailed = New("import failed")
)

// -----------------------------------------------------------------------------
// Transport / Protocol Errors
// -----------------------------------------------------------------------------

// TransportError represents a connection-level HTTP failure: DNS resolution,
// TLS handshake, or a timeout below the HTTP layer. It is fatal for the whole
// run when it occurs during catalog listing, and fatal for the current project
// only when it occurs during a per-project call.
type TransportError struct {
	Op    string // the API operation being attempted, e.g. "list projects"
	cause error
}

// NewTransportError creates a TransportError wrapping the underlying failure.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, cause: cause}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.cause)
}

func (e *TransportError) Unwrap() error { return e.cause }

// UnexpectedStatusError represents a non-2xx HTTP response on an otherwise
// well-formed request. The full response body is retained for diagnosis.
// Never retried automatically.
type UnexpectedStatusError struct {
	Op         string
	StatusCode int
	Body       string
}

// NewUnexpectedStatusError creates an UnexpectedStatusError for the given
// operation and response.
func NewUnexpectedStatusError(op string, code int, body string) *UnexpectedStatusError {
	return &UnexpectedStatusError{Op: op, StatusCode: code, Body: strings.TrimSpace(body)}
}

func (e *UnexpectedStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API responded with an unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: API responded with an unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ExportError represents a failure while exporting a single project.
//
// Example:
//
//	err := errors.NewExportError("export request rejected", cause).WithProject("group/name")
type ExportError struct {
	Project string
	message string
	cause   error
}

// NewExportError creates a new ExportError.
func NewExportError(message string, cause error) *ExportError {
	return &ExportError{message: message, cause: cause}
}

// WithProject adds the project path to the error context.
func (e *ExportError) WithProject(path string) *ExportError {
	e.Project = path
	return e
}

func (e *ExportError) Error() string {
	prefix := "export error"
	if e.Project != "" {
		prefix = fmt.Sprintf("export error [project=%s]", e.Project)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

func (e *ExportError) Unwrap() error { return e.cause }

// ImportError represents a failure while importing an archive.
type ImportError struct {
	Path    string
	message string
	cause   error
}

// NewImportError creates a new ImportError.
func NewImportError(message string, cause error) *ImportError {
	return &ImportError{message: message, cause: cause}
}

// WithPath adds the destination project path to the error context.
func (e *ImportError) WithPath(path string) *ImportError {
	e.Path = path
	return e
}

func (e *ImportError) Error() string {
	prefix := "import error"
	if e.Path != "" {
		prefix = fmt.Sprintf("import error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

func (e *ImportError) Unwrap() error { return e.cause }

// ExportTimedOutError indicates the export poll budget was exhausted before
// the job reached finished with a usable download locator. The last status
// the server reported is retained for diagnosis.
type ExportTimedOutError struct {
	Project    string
	LastStatus string
	Polls      int
}

func (e *ExportTimedOutError) Error() string {
	last := e.LastStatus
	if last == "" {
		last = "unknown"
	}
	return fmt.Sprintf("export of %s timed out after %d status checks (last status: %s)", e.Project, e.Polls, last)
}

// Is reports a match against ErrExportTimedOut.
func (e *ExportTimedOutError) Is(target error) bool {
	return target == ErrExportTimedOut
}

// ImportFailedError indicates the server explicitly reported import_status
// "failed". Detail carries the server-provided text.
type ImportFailedError struct {
	Path   string
	Detail string
}

func (e *ImportFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("import of %s failed", e.Path)
	}
	return fmt.Sprintf("import of %s failed: %s", e.Path, e.Detail)
}

// Is reports a match against ErrImportFailed.
func (e *ImportFailedError) Is(target error) bool {
	return target == ErrImportFailed
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRunFatal reports whether the error aborts the entire run rather than the
// current project. Only catalog-level failures qualify: per-project errors
// are counted and the run continues.
func IsRunFatal(err error) bool {
	return Is(err, ErrNoProjectsAvailable)
}

// IsTransport reports whether the error is a connection-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return As(err, &te)
}

// IsUnexpectedStatus reports whether the error is a non-2xx API response.
func IsUnexpectedStatus(err error) bool {
	var se *UnexpectedStatusError
	return As(err, &se)
}
