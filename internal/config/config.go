package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete glexport configuration
type Config struct {
	Gitlab GitlabConfig `mapstructure:"gitlab"`
	Backup BackupConfig `mapstructure:"backup"`
}

// GitlabConfig controls the connection to the GitLab server and the
// selection of projects to operate on
type GitlabConfig struct {
	Access AccessConfig `mapstructure:"access"`
	// Projects is the ordered list of include patterns. Patterns are
	// regular expressions matched against the start of a project's
	// namespaced path.
	Projects []string `mapstructure:"projects"`
	// ExcludeProjects is the ordered list of exclude patterns, applied
	// after the include patterns.
	ExcludeProjects []string `mapstructure:"exclude_projects"`
	// Membership restricts the catalog listing to projects the token's
	// user is a member of.
	Membership bool `mapstructure:"membership"`
	// IncludeArchived includes archived projects in the catalog listing.
	IncludeArchived bool `mapstructure:"include_archived"`
	// MaxTriesNumber bounds the number of export status checks per project.
	MaxTriesNumber int `mapstructure:"max_tries_number"`
	// PollInterval is the delay between export status checks.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// WaitBetweenExports is a politeness delay between successive projects,
	// skipped after the last one.
	WaitBetweenExports time.Duration `mapstructure:"wait_between_exports"`
	// UnboundedWhileProgressing re-arms the poll budget whenever the server
	// reports a still-working status (queued, started,
	// regeneration_in_progress). Off by default: the bounded budget keeps
	// the worst-case wait predictable for unattended runs.
	UnboundedWhileProgressing bool `mapstructure:"unbounded_while_progressing"`
}

// AccessConfig holds credentials and TLS settings for the GitLab server
type AccessConfig struct {
	// GitlabURL is the server origin, e.g. https://gitlab.example.com
	GitlabURL string `mapstructure:"gitlab_url"`
	// Token is the private token sent with every request.
	Token string `mapstructure:"token"`
	// SSLVerify is either a bool (enable/disable TLS verification) or a
	// string path to a CA trust bundle. A path that does not exist falls
	// back to default verification with a warning.
	SSLVerify any `mapstructure:"ssl_verify"`
}

// BackupConfig controls where archives land and how long they are kept
type BackupConfig struct {
	// Destination is the root directory for downloaded archives.
	Destination string `mapstructure:"destination"`
	// ProjectDirs places each project's archives in its own subdirectory.
	ProjectDirs bool `mapstructure:"project_dirs"`
	// BackupName is the archive filename template. {PROJECT_NAME} is
	// replaced by the project path with slashes turned into dashes,
	// {TIME} by the current time formatted with BackupTimeFormat.
	BackupName string `mapstructure:"backup_name"`
	// BackupTimeFormat is a Go time layout used for the {TIME} substitution.
	BackupTimeFormat string `mapstructure:"backup_time_format"`
	// RetentionPeriod in days; archives older than this are pruned before a
	// new export is written. Zero or negative disables pruning.
	RetentionPeriod float64 `mapstructure:"retention_period"`
}

// TLS resolves the ssl_verify setting into (verify, caBundlePath).
// verify reports whether certificate verification is enabled; caBundlePath is
// non-empty when a trust bundle file should be loaded.
func (a AccessConfig) TLS() (verify bool, caBundlePath string) {
	switch v := a.SSLVerify.(type) {
	case nil:
		return true, ""
	case bool:
		return v, ""
	case string:
		return true, v
	default:
		return true, ""
	}
}

// Default returns a Config with all default values set
func Default() *Config {
	return &Config{
		Gitlab: GitlabConfig{
			Access: AccessConfig{
				SSLVerify: true,
			},
			Membership:      true,
			IncludeArchived: false,
			MaxTriesNumber:  12,
			PollInterval:    5 * time.Second,
		},
		Backup: BackupConfig{
			ProjectDirs:      true,
			BackupName:       "{PROJECT_NAME}-{TIME}.tar.gz",
			BackupTimeFormat: "20060102",
		},
	}
}

// SetDefaults registers default values with viper. Call before reading the
// config file so defaults apply even when keys are absent.
func SetDefaults() {
	viper.SetDefault("gitlab.access.ssl_verify", true)
	viper.SetDefault("gitlab.membership", true)
	viper.SetDefault("gitlab.include_archived", false)
	viper.SetDefault("gitlab.max_tries_number", 12)
	viper.SetDefault("gitlab.poll_interval", "5s")
	viper.SetDefault("gitlab.wait_between_exports", "0s")
	viper.SetDefault("gitlab.unbounded_while_progressing", false)
	viper.SetDefault("backup.project_dirs", true)
	viper.SetDefault("backup.backup_name", "{PROJECT_NAME}-{TIME}.tar.gz")
	viper.SetDefault("backup.backup_time_format", "20060102")
	viper.SetDefault("backup.retention_period", 0)
}

// Load unmarshals the current viper state into a Config. Validation is the
// caller's job: the export command needs the backup section, the import
// command does not, so each picks the validator that fits.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glexport")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".glexport"
	}
	return filepath.Join(home, ".config", "glexport")
}
