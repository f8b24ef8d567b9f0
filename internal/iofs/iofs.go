// Package iofs prepares the file system for idb: its directories and
// the default configuration file.
package iofs

import (
	_ "embed"
	"os"

	"github.com/idrop/idb/pkg/config"
)

// ConfigYAML is the default config.yaml written on the first run.
//
//go:embed config.yaml
var ConfigYAML string

// EnsureDirs creates config, cache and log directories under homeDir.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the default config.yaml unless the file
// exists already.
func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.WriteFile(configPath, []byte(ConfigYAML), 0644); err != nil {
		return CopyFileError(configPath, err)
	}

	return nil
}

// ReadFile reads a user supplied file, such as a GeoJSON polygon.
func ReadFile(path string) ([]byte, error) {
	res, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadFileError(path, err)
	}
	return res, nil
}
