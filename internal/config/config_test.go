package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
env: test
organization_id: org_1
default_campaign_id: camp_default
reconciler_db:
  dsn: postgres://localhost/reconciler
workers:
  count: 4
  queue_size: 16
  shutdown_timeout: 5s
metadata_keys:
  campaign: ["sf_campaign", "Designation Code"]
crms:
  - name: sfdc
    primary: true
    kind: ledger
    mapping:
      strategy: sfdc
  - name: hubspot
    kind: http
    base_url: http://hubspot-bridge:9000
    timeout: 3s
    mapping:
      strategy: hubspot
      pipeline: donations
      stages:
        posted: closedwon
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Given a complete file When loading Then values and defaults are populated", func(t *testing.T) {
		// Given
		path := writeConfig(t, sampleYAML)

		// When
		cfg, err := Load(path)

		// Then
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.OrganizationID != "org_1" || cfg.DefaultCampaignID != "camp_default" {
			t.Errorf("unexpected top level values %+v", cfg)
		}
		if cfg.Workers.Count != 4 || cfg.Workers.ShutdownTimeout != 5*time.Second {
			t.Errorf("unexpected workers %+v", cfg.Workers)
		}
		if cfg.HTTPServer.Port != "8080" {
			t.Errorf("expected default http port 8080, got %q", cfg.HTTPServer.Port)
		}
		if len(cfg.MetadataKeys.Campaign) != 2 || cfg.MetadataKeys.Campaign[1] != "Designation Code" {
			t.Errorf("unexpected campaign keys %v", cfg.MetadataKeys.Campaign)
		}
		if len(cfg.CRMs) != 2 || cfg.CRMs[1].Mapping.Stages.Posted != "closedwon" || cfg.CRMs[1].Timeout != 3*time.Second {
			t.Errorf("unexpected crms %+v", cfg.CRMs)
		}
		if cfg.KafkaService.Enabled() {
			t.Error("expected kafka to be disabled without brokers")
		}
	})

	t.Run("Given a missing file When loading Then an error is returned", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "two primaries",
			mutate:  func(s string) string { return strings.Replace(s, "kind: http", "kind: http\n    primary: true", 1) },
			wantErr: "exactly one primary",
		},
		{
			name:    "unknown kind",
			mutate:  func(s string) string { return strings.Replace(s, "kind: ledger", "kind: soap", 1) },
			wantErr: "unknown kind",
		},
		{
			name:    "http without base url",
			mutate:  func(s string) string { return strings.Replace(s, "base_url: http://hubspot-bridge:9000", "", 1) },
			wantErr: "base_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.mutate(sampleYAML)))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
