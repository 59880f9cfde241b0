package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "uaview.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
connections:
  plant:
    endpoint: "opc.tcp://plant:4840"
    security_policy: Basic256Sha256
    security_mode: SignAndEncrypt
    username: operator
    password: hunter2
    publish_interval: 250ms
  lab:
    endpoint: "opc.tcp://localhost:4840"
export:
  enabled: true
  port: 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	plant, ok := cfg.Connection("plant")
	if !ok {
		t.Fatal("connection 'plant' missing")
	}
	if plant.Endpoint != "opc.tcp://plant:4840" {
		t.Errorf("endpoint = %q", plant.Endpoint)
	}
	if plant.PublishInterval.Std() != 250*time.Millisecond {
		t.Errorf("publish_interval = %v, want 250ms", plant.PublishInterval)
	}

	// Unset interval falls back to the default.
	lab, _ := cfg.Connection("lab")
	if lab.PublishInterval.Std() != 500*time.Millisecond {
		t.Errorf("lab publish_interval = %v, want default 500ms", lab.PublishInterval)
	}

	if !cfg.Export.Enabled {
		t.Error("export not enabled")
	}
	if cfg.Export.Port != 9000 {
		t.Errorf("export port = %d, want 9000", cfg.Export.Port)
	}
	// Host keeps its default when only the port is overridden.
	if got := cfg.Export.Addr(); got != "127.0.0.1:9000" {
		t.Errorf("export addr = %q", got)
	}
	if cfg.UI.LogLines != 500 {
		t.Errorf("ui log_lines = %d, want default 500", cfg.UI.LogLines)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestNamesSorted(t *testing.T) {
	cfg := &Config{
		Connections: map[string]Connection{
			"zeta": {}, "alpha": {}, "mid": {},
		},
	}
	names := cfg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestMaskedRows(t *testing.T) {
	conn := Connection{
		Endpoint: "opc.tcp://plant:4840",
		Username: "operator",
		Password: "hunter2",
	}
	for _, row := range conn.MaskedRows() {
		if row[0] == "password" && row[1] == "hunter2" {
			t.Error("password displayed in clear")
		}
		if row[0] == "password" && row[1] == "" {
			t.Error("set password rendered empty instead of masked")
		}
	}

	// An empty password renders empty, not as a mask.
	for _, row := range (Connection{}).MaskedRows() {
		if row[0] == "password" && row[1] != "" {
			t.Errorf("empty password rendered as %q", row[1])
		}
	}
}
