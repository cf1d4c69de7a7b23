package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	xdgAppName = "sotasks"
	configFile = "config.json"

	defaultTaskList = "Tasks"

	// Environment variables, also read from a .env file in the working directory.
	EnvAccessToken = "ASANA_PERSONAL_ACCESS_TOKEN"
	EnvProjectID   = "ASANA_PROJECT_ID"
)

type Config struct {
	ProjectID string `json:"project_id"`
	TaskList  string `json:"task_list"`

	// AccessToken only ever comes from the environment.
	AccessToken string `json:"-"`
}

func GetConfigPath() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName, configFile), nil
}

// Load reads the config file and overlays the environment on top of it.
// A missing file yields the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvProjectID); v != "" {
		cfg.ProjectID = v
	}
	cfg.AccessToken = os.Getenv(EnvAccessToken)
	return cfg, nil
}

func loadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{TaskList: defaultTaskList}, nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.TaskList == "" {
		cfg.TaskList = defaultTaskList
	}
	return &cfg, nil
}

// Save writes the file-backed settings. The access token is never written.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
