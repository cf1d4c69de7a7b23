package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvAccessToken, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TaskList != "Tasks" {
		t.Errorf("Expected default task list 'Tasks', got '%s'", cfg.TaskList)
	}
	if cfg.ProjectID != "" || cfg.AccessToken != "" {
		t.Errorf("Expected empty project and token, got %+v", cfg)
	}
}

func TestSaveLoadWithEnvOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvAccessToken, "")

	if err := Save(&Config{ProjectID: "from-file", TaskList: "Work", AccessToken: "secret"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path, _ := GetConfigPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Errorf("Expected access token not to be saved, got %s", raw)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ProjectID != "from-file" || cfg.TaskList != "Work" {
		t.Errorf("Expected file values, got %+v", cfg)
	}

	t.Setenv(EnvProjectID, "from-env")
	t.Setenv(EnvAccessToken, "token")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ProjectID != "from-env" {
		t.Errorf("Expected environment to override project, got '%s'", cfg.ProjectID)
	}
	if cfg.AccessToken != "token" {
		t.Errorf("Expected access token from environment, got '%s'", cfg.AccessToken)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := Save(&Config{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	path, _ := GetConfigPath()
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Expected an error for a corrupt config file")
	}
}
