package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	mean := 0.2
	std := 0.1
	return &Config{
		Seed:                      42,
		NumPeers:                  1000,
		K:                         20,
		Alpha:                     3,
		Topology:                  TopologyFull,
		DelayDistribution:         DelayPositiveNormal,
		DelayMean:                 &mean,
		DelayStdDev:               &std,
		QueryTimeout:              10,
		RecordExpirationInterval:  3600,
		RecordPublicationInterval: 1800,
		KBucketsRefreshInterval:   600,
		CachingMaxPeers:           5,
		EnableBootstrap:           true,
		EnableRepublishing:        true,
		LogLevelFilter:            "info",
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingDistributionFields(t *testing.T) {
	cfg := validConfig()
	cfg.DelayDistribution = DelayUniform
	cfg.DelayMin = nil
	cfg.DelayMax = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_min")
}

func TestValidate_NonMonotoneBounds(t *testing.T) {
	cfg := validConfig()
	lo, hi := 2.0, 1.0
	cfg.DelayDistribution = DelayUniform
	cfg.DelayMin = &lo
	cfg.DelayMax = &hi
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_max must be greater than delay_min")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.NumPeers = 0
	cfg.K = 0
	cfg.Topology = "mesh"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num_peers")
	assert.Contains(t, err.Error(), "k must be positive")
	assert.Contains(t, err.Error(), "invalid topology")
}

func TestValidate_UserLoadRequiresParameters(t *testing.T) {
	cfg := validConfig()
	cfg.EnableUserLoadGeneration = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_load_block_size")
	assert.Contains(t, err.Error(), "user_load_events_interval")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
seed = 42
num_peers = 100
k = 20
alpha = 3
topology = "full"
delay_distribution = "constant"
delay_mean = 1.0
query_timeout = 10.0
record_expiration_interval = 3600.0
record_publication_interval = 1800.0
kbuckets_refresh_interval = 600.0
caching_max_peers = 5
enable_bootstrap = false
enable_republishing = false
enable_user_load_generation = false
log_level_filter = "warn"
log_file_path = ""
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, uint32(100), cfg.NumPeers)
	assert.Equal(t, DelayConstant, cfg.DelayDistribution)
	require.NotNil(t, cfg.DelayMean)
	assert.Equal(t, 1.0, *cfg.DelayMean)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
