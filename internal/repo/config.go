package repo

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meshplus/bitxhub-kit/fileutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the necessary config data for starting beerus
type Config struct {
	RepoRoot        string   `mapstructure:"-" json:"repo_root"`
	StarknetRPC     string   `mapstructure:"starknet_rpc" toml:"starknet_rpc" json:"starknet_rpc"`
	RPCAddr         string   `mapstructure:"rpc_addr" toml:"rpc_addr" json:"rpc_addr"`
	PollSecs        uint64   `mapstructure:"poll_secs" toml:"poll_secs" json:"poll_secs"`
	TimeoutSecs     uint64   `mapstructure:"timeout_secs" toml:"timeout_secs" json:"timeout_secs"`
	StartupAttempts uint     `mapstructure:"startup_attempts" toml:"startup_attempts" json:"startup_attempts"`
	BatchWorkers    int      `mapstructure:"batch_workers" toml:"batch_workers" json:"batch_workers"`
	CORSOrigins     []string `mapstructure:"cors_origins" toml:"cors_origins" json:"cors_origins"`
	PProfPort       int64    `mapstructure:"pprof_port" toml:"pprof_port" json:"pprof_port"`
	Metrics         Metrics  `toml:"metrics" json:"metrics"`
	Store           Store    `toml:"store" json:"store"`
	Log             Log      `toml:"log" json:"log"`
}

type Metrics struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// Store is the on-disk checkpoint of the latest state
type Store struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// Log are config about log
type Log struct {
	Dir          string    `toml:"dir" json:"dir"`
	Filename     string    `toml:"filename" json:"filename"`
	ReportCaller bool      `mapstructure:"report_caller" toml:"report_caller" json:"report_caller"`
	Persist      bool      `toml:"persist" json:"persist"`
	Level        string    `toml:"level" json:"level"`
	Module       LogModule `toml:"module" json:"module"`
}

type LogModule struct {
	ApiServer string `mapstructure:"api_server" toml:"api_server" json:"api_server"`
	Lite      string `toml:"lite" json:"lite"`
	RPC       string `toml:"rpc" json:"rpc"`
	State     string `toml:"state" json:"state"`
	Syncer    string `toml:"syncer" json:"syncer"`
	Upstream  string `toml:"upstream" json:"upstream"`
}

// DefaultConfig returns config with default value
func DefaultConfig() *Config {
	return &Config{
		RepoRoot:        DefaultPathName,
		RPCAddr:         "0.0.0.0:3030",
		PollSecs:        5,
		TimeoutSecs:     30,
		StartupAttempts: 3,
		BatchWorkers:    8,
		CORSOrigins:     []string{"*"},
		Metrics: Metrics{
			Enabled: true,
		},
		Store: Store{
			Enabled: false,
			Path:    "store",
		},
		Log: Log{
			Level:    "info",
			Dir:      "logs",
			Filename: "beerus.log",
			Module: LogModule{
				ApiServer: "info",
				Lite:      "info",
				RPC:       "info",
				State:     "info",
				Syncer:    "info",
				Upstream:  "info",
			},
		},
	}
}

// settings flattens c into viper keys. Numbers are widened to int64 so the
// written toml stays integral.
func (c *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"starknet_rpc":          c.StarknetRPC,
		"rpc_addr":              c.RPCAddr,
		"poll_secs":             int64(c.PollSecs),
		"timeout_secs":          int64(c.TimeoutSecs),
		"startup_attempts":      int64(c.StartupAttempts),
		"batch_workers":         int64(c.BatchWorkers),
		"cors_origins":          c.CORSOrigins,
		"pprof_port":            c.PProfPort,
		"metrics.enabled":       c.Metrics.Enabled,
		"store.enabled":         c.Store.Enabled,
		"store.path":            c.Store.Path,
		"log.dir":               c.Log.Dir,
		"log.filename":          c.Log.Filename,
		"log.report_caller":     c.Log.ReportCaller,
		"log.persist":           c.Log.Persist,
		"log.level":             c.Log.Level,
		"log.module.api_server": c.Log.Module.ApiServer,
		"log.module.lite":       c.Log.Module.Lite,
		"log.module.rpc":        c.Log.Module.RPC,
		"log.module.state":      c.Log.Module.State,
		"log.module.syncer":     c.Log.Module.Syncer,
		"log.module.upstream":   c.Log.Module.Upstream,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range DefaultConfig().settings() {
		v.SetDefault(key, value)
	}
	return v
}

// UnmarshalConfig reads the config of the repo at repoRoot. configPath
// overrides the repo's beerus.toml and must exist when given. Without any
// file the defaults and BEERUS_* environment variables are used.
func UnmarshalConfig(repoRoot, configPath string) (*Config, error) {
	v := newViper()

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(repoRoot, ConfigName)
	}

	switch {
	case fileutil.Exist(configPath):
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	case explicit:
		return nil, fmt.Errorf("config file %s does not exist", configPath)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	config.RepoRoot = repoRoot

	return config, nil
}

// Check validates every field.
func (c *Config) Check() error {
	if c.StarknetRPC == "" {
		return fmt.Errorf("starknet_rpc is required")
	}
	u, err := url.Parse(c.StarknetRPC)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("starknet_rpc %q is not an http(s) url", c.StarknetRPC)
	}

	_, port, err := net.SplitHostPort(c.RPCAddr)
	if err != nil {
		return fmt.Errorf("rpc_addr %q: %w", c.RPCAddr, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("rpc_addr %q has an invalid port", c.RPCAddr)
	}

	if c.PollSecs < 1 || c.PollSecs > 3600 {
		return fmt.Errorf("poll_secs must be in [1, 3600], got %d", c.PollSecs)
	}
	if c.TimeoutSecs < 1 || c.TimeoutSecs > 600 {
		return fmt.Errorf("timeout_secs must be in [1, 600], got %d", c.TimeoutSecs)
	}
	if c.StartupAttempts < 1 {
		return fmt.Errorf("startup_attempts must be at least 1")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be at least 1")
	}
	if c.PProfPort < 0 || c.PProfPort > 65535 {
		return fmt.Errorf("pprof_port %d out of range", c.PProfPort)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}

	levels := map[string]string{
		"log.level":             c.Log.Level,
		"log.module.api_server": c.Log.Module.ApiServer,
		"log.module.lite":       c.Log.Module.Lite,
		"log.module.rpc":        c.Log.Module.RPC,
		"log.module.state":      c.Log.Module.State,
		"log.module.syncer":     c.Log.Module.Syncer,
		"log.module.upstream":   c.Log.Module.Upstream,
	}
	for key, level := range levels {
		if _, err := logrus.ParseLevel(level); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSecs) * time.Second
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StorePath resolves store.path against the repo root.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.RepoRoot, c.Store.Path)
}
