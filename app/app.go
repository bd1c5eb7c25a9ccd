// Package app wires the simulator together: it builds the keyspace and the
// network agent from the configuration, constructs and seeds every peer,
// and drives the scenario scripts.
package app

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nmxmxh/kadsim/config"
	"github.com/nmxmxh/kadsim/core/dht"
	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/core/netsim"
	"github.com/nmxmxh/kadsim/sim"
	"github.com/nmxmxh/kadsim/utils"
)

// App owns one simulation run.
type App struct {
	cfg     *config.Config
	sim     *sim.Simulation
	ks      *kad.Keyspace
	network *netsim.Agent
	peers   []*dht.Peer
	ctx     *sim.Context
	log     *zap.Logger
	runID   string
}

// New builds the simulation: keyspace, network agent, peers with
// oracle-seeded routing tables, and the optional user-load generator.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	network, err := netsim.FromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "build network agent")
	}

	a := &App{
		cfg:     cfg,
		sim:     sim.New(cfg.Seed),
		ks:      kad.NewKeyspace(cfg.NumPeers, cfg.K, cfg.Alpha),
		network: network,
		log:     logger.Named("app"),
		runID:   utils.RunID(),
	}

	a.peers = make([]*dht.Peer, cfg.NumPeers)
	for i := range a.peers {
		a.peers[i] = dht.NewPeer(a.sim, fmt.Sprintf("peer-%d", i), cfg, a.ks, network, logger)
	}
	for _, p := range a.peers {
		p.FillKBucketsUnfair()
	}

	if cfg.EnableUserLoadGeneration {
		RegisterUserLoadGenerator(a.sim, a.peers, cfg)
	}

	// the app's own context comes last so peer ids stay dense from zero
	a.ctx = a.sim.CreateContext("app")

	a.log.Info("simulation built",
		zap.String("run_id", a.runID),
		zap.Uint32("num_peers", cfg.NumPeers),
		zap.Int("k", cfg.K),
		zap.Int("alpha", cfg.Alpha),
		zap.String("topology", cfg.Topology),
	)
	return a, nil
}

// RunID identifies this run in logs and output.
func (a *App) RunID() string { return a.runID }

// Simulation exposes the event kernel.
func (a *App) Simulation() *sim.Simulation { return a.sim }

// Peers exposes the peer handles.
func (a *App) Peers() []*dht.Peer { return a.peers }

// Keyspace exposes the shared keyspace.
func (a *App) Keyspace() *kad.Keyspace { return a.ks }

// RandomPeer picks a peer uniformly from the app's RNG stream.
func (a *App) RandomPeer() *dht.Peer {
	return a.peers[a.ctx.IntN(len(a.peers))]
}

// SummarizeStats merges every peer's counters into the run aggregate.
func (a *App) SummarizeStats() dht.QueriesStats {
	var stats dht.QueriesStats
	for _, p := range a.peers {
		stats.Merge(p.Stats())
	}
	return stats
}

// ClearAllStorage wipes every peer's stores between scenario iterations.
func (a *App) ClearAllStorage() {
	for _, p := range a.peers {
		p.ClearStorage()
	}
}
