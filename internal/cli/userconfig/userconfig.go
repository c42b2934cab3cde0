package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "coursehub"
	configFileName = "config.json"
)

// UserConfig is the per-user state kept in ~/.config/coursehub/config.json:
// which server alias is selected and what the user last did on each server.
type UserConfig struct {
	SelectedServer string                 `json:"selected_server,omitempty"`
	Servers        map[string]ServerState `json:"servers,omitempty"`
}

// ServerState is remembered per server alias
type ServerState struct {
	// LastRole is the role of the last successful login, offered first next time
	LastRole string `json:"last_role,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the user configuration file. A missing file is an empty config.
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the user configuration, creating its directory if needed
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// update loads the config, applies fn and saves the result
func update(fn func(cfg *UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer records the selected server alias
func SetSelectedServer(alias string) error {
	return update(func(cfg *UserConfig) {
		cfg.SelectedServer = alias
	})
}

// GetSelectedServer returns the selected server alias, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServer, nil
}

// RememberRole records the role of a successful login on a server
func RememberRole(alias, role string) error {
	return update(func(cfg *UserConfig) {
		if cfg.Servers == nil {
			cfg.Servers = make(map[string]ServerState)
		}
		state := cfg.Servers[alias]
		state.LastRole = role
		cfg.Servers[alias] = state
	})
}

// LastRole returns the role last used on a server, or empty string
func LastRole(alias string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.Servers[alias].LastRole, nil
}
