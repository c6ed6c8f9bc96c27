// Package config provides a reusable loader for icnd configuration files and
// environment variables, grounded on the viper loading pattern of
// _examples/orbas1-Synnergy/synnergy-network/pkg/config/config.go but
// reshaped around ICN's own subsystems (DAG storage, mana ledger, mesh
// scheduler, network transport, governance defaults) rather than a
// blockchain node's consensus/VM sections.
package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/icn-network/icn-node/internal/codes"
)

// Config is the unified configuration for an icnd node.
type Config struct {
	Node struct {
		DID         string `mapstructure:"did" json:"did"`
		DataDir     string `mapstructure:"data_dir" json:"data_dir"`
		PolicyScope string `mapstructure:"policy_scope" json:"policy_scope"`
	} `mapstructure:"node" json:"node"`

	DAG struct {
		Backend          string `mapstructure:"backend" json:"backend"` // memory, kv, sql
		Path             string `mapstructure:"path" json:"path"`
		IntegrityCheckMS int    `mapstructure:"integrity_check_ms" json:"integrity_check_ms"`
	} `mapstructure:"dag" json:"dag"`

	Ledger struct {
		Backend string `mapstructure:"backend" json:"backend"` // memory, file
		Path    string `mapstructure:"path" json:"path"`
	} `mapstructure:"ledger" json:"ledger"`

	Governance struct {
		Backend             string  `mapstructure:"backend" json:"backend"`
		Path                string  `mapstructure:"path" json:"path"`
		DefaultQuorum       int     `mapstructure:"default_quorum" json:"default_quorum"`
		DefaultThreshold    float64 `mapstructure:"default_threshold" json:"default_threshold"`
		VotingWindowSeconds int     `mapstructure:"voting_window_seconds" json:"voting_window_seconds"`
	} `mapstructure:"governance" json:"governance"`

	Network struct {
		Transport       string   `mapstructure:"transport" json:"transport"` // memory, libp2p
		ListenAddr      string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag    string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers  []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
		GossipRateLimit float64  `mapstructure:"gossip_rate_limit" json:"gossip_rate_limit"`
	} `mapstructure:"network" json:"network"`

	Scheduler struct {
		BidWindowMS      int     `mapstructure:"bid_window_ms" json:"bid_window_ms"`
		WeightPrice      float64 `mapstructure:"weight_price" json:"weight_price"`
		WeightReputation float64 `mapstructure:"weight_reputation" json:"weight_reputation"`
		WeightLoad       float64 `mapstructure:"weight_load" json:"weight_load"`
	} `mapstructure:"scheduler" json:"scheduler"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// OnChange is invoked (if non-nil) whenever the active config file is
// rewritten on disk after Watch has been called. Callers that need safe
// hot-reload should re-read AppConfig's fields under their own lock; Watch
// does not attempt to reconcile a config change with already-constructed
// subsystems.
var OnChange func(*Config)

// Load reads the base configuration, merges an optional environment-named
// override, applies a .env file if present, and unmarshals the result into
// AppConfig.
func Load(env string) (*Config, error) {
	// .env values are merged into the process environment first so
	// viper.AutomaticEnv below can see them; a missing .env is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ICN")
	if err := viper.ReadInConfig(); err != nil {
		return nil, codes.Wrap(codes.InternalError, "load config", err)
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, codes.Wrap(codes.InternalError, fmt.Sprintf("merge %s config", env), err)
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, codes.Wrap(codes.InternalError, "unmarshal config", err)
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ICN_ENV environment variable to
// pick an override file, falling back to the default config alone.
func LoadFromEnv() (*Config, error) {
	return Load(EnvOrDefault("ICN_ENV", ""))
}

// Watch starts a fsnotify watcher on the config file viper last read and
// invokes OnChange on every write event. It returns the watcher so the
// caller can Close it on shutdown.
func Watch() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, codes.Wrap(codes.InternalError, "create config watcher", err)
	}
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		watcher.Close()
		return nil, codes.New(codes.InvalidArgument, "no config file loaded to watch")
	}
	if err := watcher.Add(configFile); err != nil {
		watcher.Close()
		return nil, codes.Wrap(codes.InternalError, "watch config file", err)
	}
	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := viper.ReadInConfig(); err != nil {
				continue
			}
			if err := viper.Unmarshal(&AppConfig); err != nil {
				continue
			}
			if OnChange != nil {
				OnChange(&AppConfig)
			}
		}
	}()
	return watcher, nil
}
