package commands

import (
	"github.com/benvon/login-demo/internal/config"
)

// loadConfig loads settings from path, or from AUTH_CONFIG_PATH when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}
