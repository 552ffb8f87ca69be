package provision

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webship.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("expected no errors and got err=%v", err.Error())
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
host:
  address: 203.0.113.7
  user: deploy
  password: hunter2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}
	if cfg.Host.Port != 22 {
		t.Errorf("expected default port 22 and got %d", cfg.Host.Port)
	}
	if cfg.App.Name != "webapp" {
		t.Errorf("expected default app name webapp and got %s", cfg.App.Name)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `
host:
  address: 203.0.113.7
  port: 2222
  user: deploy
app:
  name: storefront
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}
	if cfg.Host.Port != 2222 {
		t.Errorf("expected port 2222 and got %d", cfg.Host.Port)
	}
	if cfg.App.Name != "storefront" {
		t.Errorf("expected app name storefront and got %s", cfg.App.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Errorf("expected an error and got nil")
	}
}

func TestLoadConfigCorruptedFile(t *testing.T) {
	path := writeConfig(t, "host: [not: a: mapping")
	_, err := LoadConfig(path)
	if err == nil {
		t.Errorf("expected an error and got nil")
	}
}

func TestLoadConfigRequiresAddressAndUser(t *testing.T) {
	path := writeConfig(t, "host:\n  user: deploy\n")
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected an error for missing address and got nil")
	}

	path = writeConfig(t, "host:\n  address: 203.0.113.7\n")
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected an error for missing user and got nil")
	}
}
