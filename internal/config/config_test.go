package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if !cfg.Gitlab.Membership {
		t.Error("Gitlab.Membership should be true by default")
	}
	if cfg.Gitlab.IncludeArchived {
		t.Error("Gitlab.IncludeArchived should be false by default")
	}
	if cfg.Gitlab.MaxTriesNumber != 12 {
		t.Errorf("Gitlab.MaxTriesNumber = %d, want 12", cfg.Gitlab.MaxTriesNumber)
	}
	if cfg.Gitlab.PollInterval != 5*time.Second {
		t.Errorf("Gitlab.PollInterval = %v, want 5s", cfg.Gitlab.PollInterval)
	}
	if cfg.Gitlab.UnboundedWhileProgressing {
		t.Error("Gitlab.UnboundedWhileProgressing should be false by default")
	}

	if !cfg.Backup.ProjectDirs {
		t.Error("Backup.ProjectDirs should be true by default")
	}
	if cfg.Backup.BackupName != "{PROJECT_NAME}-{TIME}.tar.gz" {
		t.Errorf("Backup.BackupName = %q, want default template", cfg.Backup.BackupName)
	}
	if cfg.Backup.BackupTimeFormat != "20060102" {
		t.Errorf("Backup.BackupTimeFormat = %q, want %q", cfg.Backup.BackupTimeFormat, "20060102")
	}
	if cfg.Backup.RetentionPeriod != 0 {
		t.Errorf("Backup.RetentionPeriod = %v, want 0", cfg.Backup.RetentionPeriod)
	}
}

func TestAccessConfig_TLS(t *testing.T) {
	tests := []struct {
		name       string
		sslVerify  any
		wantVerify bool
		wantBundle string
	}{
		{"unset", nil, true, ""},
		{"enabled", true, true, ""},
		{"disabled", false, false, ""},
		{"bundle path", "/etc/ssl/internal-ca.pem", true, "/etc/ssl/internal-ca.pem"},
		{"unexpected type", 7, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AccessConfig{SSLVerify: tt.sslVerify}
			verify, bundle := a.TLS()
			if verify != tt.wantVerify {
				t.Errorf("verify = %v, want %v", verify, tt.wantVerify)
			}
			if bundle != tt.wantBundle {
				t.Errorf("bundle = %q, want %q", bundle, tt.wantBundle)
			}
		})
	}
}
