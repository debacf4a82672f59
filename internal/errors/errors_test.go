package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewTransportError("list projects", cause)

	if !strings.Contains(err.Error(), "list projects") {
		t.Errorf("Error() = %q, want operation name included", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
	if !IsTransport(err) {
		t.Error("IsTransport(TransportError) = false, want true")
	}
	if IsTransport(errors.New("plain")) {
		t.Error("IsTransport(plain error) = true, want false")
	}
}

func TestUnexpectedStatusError(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{
			name: "with body",
			code: 404,
			body: `{"message":"404 Project Not Found"}`,
			want: `schedule export: API responded with an unexpected status 404: {"message":"404 Project Not Found"}`,
		},
		{
			name: "empty body",
			code: 500,
			body: "",
			want: "schedule export: API responded with an unexpected status 500",
		},
		{
			name: "body whitespace trimmed",
			code: 403,
			body: "forbidden\n",
			want: "schedule export: API responded with an unexpected status 403: forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnexpectedStatusError("schedule export", tt.code, tt.body)
			if got := err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportError_WithProject(t *testing.T) {
	err := NewExportError("export request rejected", ErrExportTimedOut).WithProject("group/name")

	if !strings.Contains(err.Error(), "project=group/name") {
		t.Errorf("Error() = %q, want project context included", err.Error())
	}
	if !errors.Is(err, ErrExportTimedOut) {
		t.Error("errors.Is should match the wrapped sentinel")
	}
}

func TestExportTimedOutError(t *testing.T) {
	err := &ExportTimedOutError{Project: "group/name", LastStatus: "queued", Polls: 12}

	if !errors.Is(err, ErrExportTimedOut) {
		t.Error("ExportTimedOutError should match ErrExportTimedOut")
	}
	want := "export of group/name timed out after 12 status checks (last status: queued)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExportTimedOutError_UnknownStatus(t *testing.T) {
	err := &ExportTimedOutError{Project: "a/b", Polls: 1}
	if !strings.Contains(err.Error(), "last status: unknown") {
		t.Errorf("Error() = %q, want unknown status placeholder", err.Error())
	}
}

func TestImportFailedError(t *testing.T) {
	err := &ImportFailedError{Path: "group/name", Detail: "namespace is not valid"}

	if !errors.Is(err, ErrImportFailed) {
		t.Error("ImportFailedError should match ErrImportFailed")
	}
	if !strings.Contains(err.Error(), "namespace is not valid") {
		t.Errorf("Error() = %q, want server detail included", err.Error())
	}

	// Wrapped through a domain error the sentinel still matches.
	wrapped := fmt.Errorf("processing: %w", err)
	if !errors.Is(wrapped, ErrImportFailed) {
		t.Error("wrapped ImportFailedError should still match ErrImportFailed")
	}
}

func TestIsRunFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no projects", ErrNoProjectsAvailable, true},
		{"wrapped no projects", fmt.Errorf("listing: %w", ErrNoProjectsAvailable), true},
		{"export timeout", &ExportTimedOutError{Project: "a/b"}, false},
		{"destination exists", ErrDestinationExists, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRunFatal(tt.err); got != tt.want {
				t.Errorf("IsRunFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUnexpectedStatus(t *testing.T) {
	err := NewExportError("poll failed", NewUnexpectedStatusError("poll export", 502, "bad gateway"))
	if !IsUnexpectedStatus(err) {
		t.Error("IsUnexpectedStatus should see through domain error wrapping")
	}
}
