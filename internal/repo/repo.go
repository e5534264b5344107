package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/meshplus/bitxhub-kit/fileutil"
	"github.com/mitchellh/go-homedir"
)

const (
	// DefaultPathName is the default config dir name
	DefaultPathName = ".beerus"

	// DefaultPathRoot is the path to the default config dir location.
	DefaultPathRoot = "~/" + DefaultPathName

	// EnvDir is the environment variable used to change the path root.
	EnvDir = "BEERUS_PATH"

	// EnvPrefix prefixes the environment variables overriding config keys
	EnvPrefix = "BEERUS"

	// ConfigName is config name
	ConfigName = "beerus.toml"
)

var RootPath string

// ErrRepoExists is returned by Initialize when the config file is present
// and overwriting was not requested.
var ErrRepoExists = fmt.Errorf("%s already exists", ConfigName)

// Initialize creates the repo dir and writes a default beerus.toml. A
// non-empty starknetRPC is written as the upstream node url.
func Initialize(repoRoot, starknetRPC string, overwrite bool) error {
	if err := os.MkdirAll(repoRoot, 0755); err != nil {
		return err
	}

	configPath := filepath.Join(repoRoot, ConfigName)
	if fileutil.Exist(configPath) && !overwrite {
		return ErrRepoExists
	}

	config := DefaultConfig()
	config.StarknetRPC = starknetRPC

	v := newViper()
	for key, value := range config.settings() {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}

	return nil
}

// WatchConfig calls onChange with the reloaded config each time the file
// at configPath changes. Reload errors are passed to onError.
func WatchConfig(repoRoot, configPath string, onChange func(*Config), onError func(error)) error {
	if configPath == "" {
		configPath = filepath.Join(repoRoot, ConfigName)
	}
	if !fileutil.Exist(configPath) {
		return fmt.Errorf("config file %s does not exist", configPath)
	}

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		config := &Config{}
		if err := v.Unmarshal(config); err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		config.RepoRoot = repoRoot
		onChange(config)
	})
	v.WatchConfig()

	return nil
}

// PathRoot returns root path (default .beerus)
func PathRoot() (string, error) {
	if RootPath != "" {
		return RootPath, nil
	}
	dir := os.Getenv(EnvDir)
	var err error
	if len(dir) == 0 {
		dir, err = homedir.Expand(DefaultPathRoot)
	}
	return dir, err
}

// SetPath sets global config path
func SetPath(root string) {
	RootPath = root
}

// PathRootWithDefault gets current config path with default value
func PathRootWithDefault(path string) (string, error) {
	if len(path) == 0 {
		return PathRoot()
	}

	return path, nil
}
