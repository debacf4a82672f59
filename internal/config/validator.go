package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glexport/glexport/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "gitlab.access.token")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for hard errors: values without which no run can
// proceed. Recoverable problems are handled by Normalize instead.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Gitlab.Access.GitlabURL == "" {
		errors = append(errors, ValidationError{
			Field:   "gitlab.access.gitlab_url",
			Value:   c.Gitlab.Access.GitlabURL,
			Message: "must be set",
		})
	}
	if c.Gitlab.Access.Token == "" {
		errors = append(errors, ValidationError{
			Field:   "gitlab.access.token",
			Value:   "",
			Message: "must be set",
		})
	}
	if c.Backup.Destination == "" {
		errors = append(errors, ValidationError{
			Field:   "backup.destination",
			Value:   c.Backup.Destination,
			Message: "must be set",
		})
	}

	switch c.Gitlab.Access.SSLVerify.(type) {
	case nil, bool, string:
	default:
		errors = append(errors, ValidationError{
			Field:   "gitlab.access.ssl_verify",
			Value:   c.Gitlab.Access.SSLVerify,
			Message: "must be a boolean or a path to a CA bundle",
		})
	}

	return errors
}

// ValidateForImport checks only the fields the import command needs. The
// backup section may legitimately be absent when re-importing an archive.
func (c *Config) ValidateForImport() []ValidationError {
	var errors []ValidationError

	if c.Gitlab.Access.GitlabURL == "" {
		errors = append(errors, ValidationError{
			Field:   "gitlab.access.gitlab_url",
			Value:   c.Gitlab.Access.GitlabURL,
			Message: "must be set",
		})
	}
	if c.Gitlab.Access.Token == "" {
		errors = append(errors, ValidationError{
			Field:   "gitlab.access.token",
			Value:   "",
			Message: "must be set",
		})
	}

	return errors
}

// Normalize downgrades recoverable configuration problems to warnings,
// replacing the offending value with a safe default. It never fails: an
// unattended backup run should not abort over a fixable setting.
func (c *Config) Normalize(log *logging.Logger) {
	if c.Gitlab.MaxTriesNumber <= 0 {
		log.Warn("invalid value for max_tries_number, using default",
			"value", c.Gitlab.MaxTriesNumber, "default", 12)
		c.Gitlab.MaxTriesNumber = 12
	}

	if c.Gitlab.PollInterval <= 0 {
		log.Warn("invalid value for poll_interval, using default",
			"value", c.Gitlab.PollInterval.String(), "default", "5s")
		c.Gitlab.PollInterval = 5 * time.Second
	}

	if c.Gitlab.WaitBetweenExports < 0 {
		log.Warn("invalid value for wait_between_exports, ignoring",
			"value", c.Gitlab.WaitBetweenExports.String())
		c.Gitlab.WaitBetweenExports = 0
	}

	if c.Backup.RetentionPeriod < 0 {
		log.Warn("invalid value for retention_period, ignoring",
			"value", c.Backup.RetentionPeriod)
		c.Backup.RetentionPeriod = 0
	}

	// A trust bundle path that does not exist falls back to default
	// verification rather than failing every request later.
	if path, ok := c.Gitlab.Access.SSLVerify.(string); ok {
		if _, err := os.Stat(path); err != nil {
			log.Warn("provided path to ssl bundle does not exist, using default verification",
				"path", path)
			c.Gitlab.Access.SSLVerify = true
		}
	}
}
