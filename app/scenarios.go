package app

import (
	"fmt"

	"github.com/nmxmxh/kadsim/core/kad"
)

// RunIdle steps the simulation forward without injecting traffic. A zero
// duration runs to quiescence, which only terminates when the periodic
// timers are disabled.
func (a *App) RunIdle(duration float64) {
	if duration > 0 {
		a.sim.StepUntilTime(a.sim.Time() + duration)
		return
	}
	a.sim.StepUntilNoEvents()
}

// RunManualLookups has every peer look up one random key, then runs to
// quiescence.
func (a *App) RunManualLookups() {
	for _, p := range a.peers {
		p.FindRandomNode()
	}
	a.sim.StepUntilNoEvents()
}

// RunIntensivePublish publishes the given number of distinct blocks from
// uniformly random peers and runs to quiescence.
func (a *App) RunIntensivePublish(blocks int) {
	for _, block := range makeBlocks(blocks) {
		a.RandomPeer().PublishData(block)
	}
	a.sim.StepUntilNoEvents()
}

// RunIntensiveRetrieve publishes a block pool, lets the PUTs settle, then
// retrieves every key from uniformly random peers.
func (a *App) RunIntensiveRetrieve(blocks int) {
	data := makeBlocks(blocks)
	for _, block := range data {
		a.RandomPeer().PublishData(block)
	}
	a.sim.StepUntilNoEvents()
	for _, block := range data {
		a.RandomPeer().RetrieveData(kad.KeyFromSHA256(block))
	}
	a.sim.StepUntilNoEvents()
}

// RunPublishRetrieveRace races publication against retrieval of the same
// block pool. A non-negative timedelta publishes first and retrieves
// timedelta seconds later; a negative one retrieves first.
func (a *App) RunPublishRetrieveRace(timedelta float64, blocks int) {
	a.raceOnce(timedelta, makeBlocks(blocks))
	a.sim.StepUntilNoEvents()
}

// RunSweep repeats the race across offsets in [-0.35, 0.25) in steps of
// 0.01, clearing storage between iterations, and prints one line of
// cumulative retrieval counters per offset.
func (a *App) RunSweep(blocks int) {
	for i := 0; i < 60; i++ {
		offset := float64(i-35) * 0.01
		a.raceOnce(offset, makeBlocks(blocks))
		a.sim.StepUntilNoEvents()
		a.ClearAllStorage()

		stats := a.SummarizeStats()
		fmt.Printf("%.3f %d %d %d\n",
			offset,
			stats.RetrieveDataQueriesStarted,
			stats.RetrieveDataQueriesCompleted,
			stats.RetrieveDataQueriesFailed,
		)
	}
}

func (a *App) raceOnce(timedelta float64, blocks [][]byte) {
	keys := make([]kad.Key, len(blocks))
	for i, block := range blocks {
		keys[i] = kad.KeyFromSHA256(block)
	}

	if timedelta >= 0 {
		for _, block := range blocks {
			a.RandomPeer().PublishData(block)
		}
		a.sim.StepUntilTime(a.sim.Time() + timedelta)
		for _, key := range keys {
			a.RandomPeer().RetrieveData(key)
		}
	} else {
		for _, key := range keys {
			a.RandomPeer().RetrieveData(key)
		}
		a.sim.StepUntilTime(a.sim.Time() - timedelta)
		for _, block := range blocks {
			a.RandomPeer().PublishData(block)
		}
	}
}

func makeBlocks(n int) [][]byte {
	blocks := make([][]byte, n)
	for i := range blocks {
		blocks[i] = []byte(fmt.Sprintf("file_%d", i))
	}
	return blocks
}
