// Package config loads and validates the simulator configuration from a
// TOML file. Loading is fatal-on-error at startup; nothing here is
// consulted again after the App is constructed.
package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Delay distribution names accepted in the config file.
const (
	DelayConstant       = "constant"
	DelayUniform        = "uniform"
	DelayPositiveNormal = "positive_normal"
)

// Topology names accepted in the config file.
const (
	TopologyFull = "full"
	TopologyRing = "ring"
	TopologyStar = "star"
)

// Config mirrors config.toml field for field. Optional fields are pointers
// so that "absent" and "zero" stay distinguishable during validation.
type Config struct {
	Seed     uint64 `toml:"seed"`
	NumPeers uint32 `toml:"num_peers"`
	K        int    `toml:"k"`
	Alpha    int    `toml:"alpha"`

	Topology          string   `toml:"topology"`
	DelayDistribution string   `toml:"delay_distribution"`
	DelayMean         *float64 `toml:"delay_mean"`
	DelayStdDev       *float64 `toml:"delay_std_dev"`
	DelayMin          *float64 `toml:"delay_min"`
	DelayMax          *float64 `toml:"delay_max"`

	QueryTimeout              float64 `toml:"query_timeout"`
	RecordExpirationInterval  float64 `toml:"record_expiration_interval"`
	RecordPublicationInterval float64 `toml:"record_publication_interval"`
	KBucketsRefreshInterval   float64 `toml:"kbuckets_refresh_interval"`
	CachingMaxPeers           int     `toml:"caching_max_peers"`

	EnableBootstrap    bool `toml:"enable_bootstrap"`
	EnableRepublishing bool `toml:"enable_republishing"`

	EnableUserLoadGeneration bool     `toml:"enable_user_load_generation"`
	UserLoadBlockSize        *int     `toml:"user_load_block_size"`
	UserLoadBlocksPoolSize   *int     `toml:"user_load_blocks_pool_size"`
	UserLoadEventsInterval   *float64 `toml:"user_load_events_interval"`

	LogLevelFilter string `toml:"log_level_filter"`
	LogFilePath    string `toml:"log_file_path"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error

	if c.NumPeers == 0 {
		err = multierr.Append(err, errors.New("num_peers must be positive"))
	}
	if c.K <= 0 {
		err = multierr.Append(err, errors.New("k must be positive"))
	}
	if c.Alpha <= 0 {
		err = multierr.Append(err, errors.New("alpha must be positive"))
	}
	if c.QueryTimeout <= 0 {
		err = multierr.Append(err, errors.New("query_timeout must be positive"))
	}
	if c.RecordExpirationInterval <= 0 {
		err = multierr.Append(err, errors.New("record_expiration_interval must be positive"))
	}
	if c.RecordPublicationInterval <= 0 {
		err = multierr.Append(err, errors.New("record_publication_interval must be positive"))
	}
	if c.KBucketsRefreshInterval <= 0 {
		err = multierr.Append(err, errors.New("kbuckets_refresh_interval must be positive"))
	}
	if c.CachingMaxPeers < 0 {
		err = multierr.Append(err, errors.New("caching_max_peers must be non-negative"))
	}

	err = multierr.Append(err, c.validateDelayDistribution())
	err = multierr.Append(err, c.validateTopology())
	err = multierr.Append(err, c.validateUserLoad())

	if c.LogLevelFilter != "" {
		if _, parseErr := zapcore.ParseLevel(c.LogLevelFilter); parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("invalid log_level_filter %q", c.LogLevelFilter))
		}
	}
	return err
}

func (c *Config) validateDelayDistribution() error {
	switch c.DelayDistribution {
	case DelayConstant:
		if c.DelayMean == nil {
			return errors.New("missing delay_mean for constant distribution")
		}
		if *c.DelayMean < 0 {
			return errors.New("delay_mean must be non-negative")
		}
	case DelayUniform:
		if c.DelayMin == nil {
			return errors.New("missing delay_min for uniform distribution")
		}
		if c.DelayMax == nil {
			return errors.New("missing delay_max for uniform distribution")
		}
		if *c.DelayMin < 0 {
			return errors.New("delay_min must be non-negative")
		}
		if *c.DelayMax <= *c.DelayMin {
			return errors.New("delay_max must be greater than delay_min")
		}
	case DelayPositiveNormal:
		if c.DelayMean == nil {
			return errors.New("missing delay_mean for positive_normal distribution")
		}
		if c.DelayStdDev == nil {
			return errors.New("missing delay_std_dev for positive_normal distribution")
		}
		if *c.DelayMean < 0 {
			return errors.New("delay_mean must be non-negative")
		}
		if *c.DelayStdDev < 0 {
			return errors.New("delay_std_dev must be non-negative")
		}
	default:
		return fmt.Errorf("invalid delay_distribution %q", c.DelayDistribution)
	}
	return nil
}

func (c *Config) validateTopology() error {
	switch c.Topology {
	case TopologyFull, TopologyRing, TopologyStar:
		return nil
	default:
		return fmt.Errorf("invalid topology %q", c.Topology)
	}
}

func (c *Config) validateUserLoad() error {
	if !c.EnableUserLoadGeneration {
		return nil
	}
	var err error
	if c.UserLoadBlockSize == nil || *c.UserLoadBlockSize <= 0 {
		err = multierr.Append(err, errors.New("user_load_block_size must be set and positive"))
	}
	if c.UserLoadBlocksPoolSize == nil || *c.UserLoadBlocksPoolSize <= 0 {
		err = multierr.Append(err, errors.New("user_load_blocks_pool_size must be set and positive"))
	}
	if c.UserLoadEventsInterval == nil || *c.UserLoadEventsInterval <= 0 {
		err = multierr.Append(err, errors.New("user_load_events_interval must be set and positive"))
	}
	return err
}
