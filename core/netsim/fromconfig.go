package netsim

import (
	"fmt"

	"github.com/nmxmxh/kadsim/config"
	"github.com/nmxmxh/kadsim/sim"
)

// TopologyFromConfig maps the validated configuration to a topology. The
// ring spans all peer ids; the star centers on peer 0.
func TopologyFromConfig(cfg *config.Config) (Topology, error) {
	switch cfg.Topology {
	case config.TopologyFull:
		return FullTopology{}, nil
	case config.TopologyRing:
		return RingTopology{First: 0, Last: sim.ID(cfg.NumPeers - 1)}, nil
	case config.TopologyStar:
		return StarTopology{Center: 0}, nil
	default:
		return nil, fmt.Errorf("invalid topology %q", cfg.Topology)
	}
}

// DistributionFromConfig maps the validated configuration to a delay
// distribution.
func DistributionFromConfig(cfg *config.Config) (DelayDistribution, error) {
	switch cfg.DelayDistribution {
	case config.DelayConstant:
		return ConstantDelay(*cfg.DelayMean), nil
	case config.DelayUniform:
		return UniformDelay{Left: *cfg.DelayMin, Right: *cfg.DelayMax}, nil
	case config.DelayPositiveNormal:
		return PositiveNormalDelay{Mean: *cfg.DelayMean, StdDev: *cfg.DelayStdDev}, nil
	default:
		return nil, fmt.Errorf("invalid delay_distribution %q", cfg.DelayDistribution)
	}
}

// FromConfig builds the production network agent from the configuration.
func FromConfig(cfg *config.Config) (*Agent, error) {
	topology, err := TopologyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	distr, err := DistributionFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return FromTopologyAndDistribution(topology, distr), nil
}
