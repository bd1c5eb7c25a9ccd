package app

import (
	"github.com/nmxmxh/kadsim/config"
	"github.com/nmxmxh/kadsim/core/dht"
	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// userLoadTimer paces the generator; it is the only payload the generator
// handles.
type userLoadTimer struct{}

// UserLoadGenerator injects synthetic traffic: on every tick a random peer
// either publishes a random block from a fixed pool or retrieves a random
// pool key. A retrieval may therefore target a block that has not been
// published yet.
type UserLoadGenerator struct {
	ctx      *sim.Context
	peers    []*dht.Peer
	blocks   [][]byte
	keys     []kad.Key
	interval float64
}

// RegisterUserLoadGenerator creates the generator, pre-generates its block
// pool, and arms the first tick.
func RegisterUserLoadGenerator(s *sim.Simulation, peers []*dht.Peer, cfg *config.Config) *UserLoadGenerator {
	ctx := s.CreateContext("user_load_generator")

	blocks := make([][]byte, *cfg.UserLoadBlocksPoolSize)
	keys := make([]kad.Key, len(blocks))
	for i := range blocks {
		blocks[i] = []byte(ctx.RandomString(*cfg.UserLoadBlockSize))
		keys[i] = kad.KeyFromSHA256(blocks[i])
	}

	g := &UserLoadGenerator{
		ctx:      ctx,
		peers:    peers,
		blocks:   blocks,
		keys:     keys,
		interval: *cfg.UserLoadEventsInterval,
	}
	s.AddHandler(ctx.ID(), g)
	ctx.EmitSelf(userLoadTimer{}, g.interval)
	return g
}

// OnEvent handles one tick and rearms the timer.
func (g *UserLoadGenerator) OnEvent(ev sim.Event) {
	if _, ok := ev.Data.(userLoadTimer); !ok {
		return
	}
	peer := g.peers[g.ctx.IntN(len(g.peers))]
	if g.ctx.Float64() < 0.5 {
		peer.PublishData(g.blocks[g.ctx.IntN(len(g.blocks))])
	} else {
		peer.RetrieveData(g.keys[g.ctx.IntN(len(g.keys))])
	}
	g.ctx.EmitSelf(userLoadTimer{}, g.interval)
}
