package dht

import (
	"math/bits"

	"go.uber.org/zap"

	"github.com/nmxmxh/kadsim/config"
	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/core/netsim"
	"github.com/nmxmxh/kadsim/sim"
)

// Bucket-index saturation point: at the network sizes studied, buckets
// beyond this index are essentially never populated, so the refresh loop
// does not waste lookups on them.
const maxRefreshedBuckets = 15

// Peer is one simulated DHT node: an event handler composing the routing
// table, the query pool, both stores and the network agent. All of its
// state is private; peers interact only through emitted events.
type Peer struct {
	ctx       *sim.Context
	cfg       *config.Config
	ks        *kad.Keyspace
	kbuckets  *kad.KBucketsTable
	queries   *QueriesPool
	dhtStore  *RecordStore
	fileStore *FileStore
	network   *netsim.Agent
	stats     QueriesStats
	log       *zap.Logger
}

// NewPeer registers a peer with the simulation under the given name. If
// bootstrap is enabled the first refresh fires at a uniform random offset
// within the refresh interval, spreading the initial lookup burst.
func NewPeer(s *sim.Simulation, name string, cfg *config.Config, ks *kad.Keyspace, network *netsim.Agent, logger *zap.Logger) *Peer {
	ctx := s.CreateContext(name)
	p := &Peer{
		ctx:       ctx,
		cfg:       cfg,
		ks:        ks,
		kbuckets:  kad.NewKBucketsTable(ks, ks.PeerKey(ctx.ID()), cfg.KBucketsRefreshInterval),
		queries:   NewQueriesPool(),
		dhtStore:  NewRecordStore(),
		fileStore: NewFileStore(),
		network:   network,
		log:       logger.Named(name),
	}
	s.AddHandler(ctx.ID(), p)
	if cfg.EnableBootstrap {
		ctx.EmitSelf(BootstrapTimer{}, ctx.Float64()*cfg.KBucketsRefreshInterval)
	}
	return p
}

// ID returns the peer's handle.
func (p *Peer) ID() sim.ID { return p.ctx.ID() }

// LocalKey returns the peer's key.
func (p *Peer) LocalKey() kad.Key { return p.kbuckets.LocalKey() }

// Stats exposes the peer's counters for merging.
func (p *Peer) Stats() *QueriesStats { return &p.stats }

// KBuckets exposes the routing table for inspection.
func (p *Peer) KBuckets() *kad.KBucketsTable { return p.kbuckets }

// HasData reports whether the peer's content store holds key.
func (p *Peer) HasData(key kad.Key) bool { return p.fileStore.Has(key) }

// ClearStorage wipes both stores, used between scenario iterations.
func (p *Peer) ClearStorage() {
	p.dhtStore.Clear()
	p.fileStore.Clear()
}

// AddPeer acknowledges a peer in the routing table.
func (p *Peer) AddPeer(id sim.ID) {
	p.kbuckets.AddPeer(id, p.ctx.Time())
}

// FillKBucketsUnfair pre-populates the routing table from the oracle: for
// every bucket index up to log2(N), K random targets in that bucket are
// resolved to their single closest peer. This assumes global knowledge no
// real node has and exists only for correctness-measurement scenarios.
func (p *Peer) FillKBucketsUnfair() {
	local := p.kbuckets.LocalKey()
	limit := bits.Len32(p.cfg.NumPeers - 1)
	for i := 0; i < limit; i++ {
		for j := 0; j < p.ks.K(); j++ {
			target := kad.RandomKeyInBucket(p.ctx.RNG(), local, i)
			if closest := p.ks.ClosestPeers(target, 1); len(closest) == 1 {
				p.kbuckets.AddPeer(closest[0], p.ctx.Time())
			}
		}
	}
}

// FindRandomNode starts a manual lookup for a uniformly random key.
func (p *Peer) FindRandomNode() QueryID {
	return p.FindNode(kad.RandomKey(p.ctx.RNG()), ManualTrigger())
}

// FindNode starts an iterative lookup for key. The bootstrap request is
// addressed to the peer itself with zero delay; the self response seeds
// the candidate set from the local routing table.
func (p *Peer) FindNode(key kad.Key, trigger Trigger) QueryID {
	id := p.queries.NextQueryID()
	q, request := NewFindNodeQuery(p.ks, id, trigger, key, p.ctx.ID())
	p.queries.AddFindNode(id, q)
	p.stats.FindNodeQueriesStarted++
	p.sendMessage(request, p.ctx.ID())
	p.ctx.EmitSelf(FindNodeQueryTimeout{QueryID: id}, p.cfg.QueryTimeout)
	return id
}

// PublishData stores content locally, advertises a provider record to the
// K closest peers, and arms the republish timer. Returns the content key.
func (p *Peer) PublishData(content []byte) kad.Key {
	key := kad.KeyFromSHA256(content)
	record := NewProviderRecord(p.ctx.ID(), key, p.ctx.Time(), p.cfg.RecordExpirationInterval)
	p.fileStore.Put(key, content)
	p.dhtStore.Put(key, record)
	p.putValue(record)
	if p.cfg.EnableRepublishing {
		p.ctx.EmitSelf(RepublishTimer{Key: key}, p.cfg.RecordPublicationInterval)
	}
	p.log.Debug("publish_data", zap.String("key", key.String()))
	return key
}

// RetrieveData looks up the provider record for key and fetches the
// content from the first provider that answers.
func (p *Peer) RetrieveData(key kad.Key) QueryID {
	id := p.getValue(key)
	p.queries.AddRetrieveData(id)
	p.stats.RetrieveDataQueriesStarted++
	p.ctx.EmitSelf(RetrieveDataQueryTimeout{QueryID: id}, p.cfg.QueryTimeout)
	p.log.Debug("retrieve_data", zap.String("key", key.String()))
	return id
}

// Ping probes a peer for liveness. Pings carry no query id; the counters
// on both ends are the only observable effect.
func (p *Peer) Ping(dst sim.ID) {
	p.sendMessage(PingRequest{}, dst)
	p.ctx.EmitSelf(PingTimeout{}, p.cfg.QueryTimeout)
}

func (p *Peer) putValue(record *Record) QueryID {
	id := p.queries.NextQueryID()
	p.queries.AddPutValue(id, NewPutValueQuery(record))
	p.stats.PutValueQueriesStarted++
	p.FindNode(record.Key, PutValueTrigger(id))
	p.ctx.EmitSelf(PutValueQueryTimeout{QueryID: id}, p.cfg.QueryTimeout)
	return id
}

func (p *Peer) getValue(key kad.Key) QueryID {
	id := p.queries.NextQueryID()
	p.queries.AddGetValue(id, NewGetValueQuery(key, p.cfg.CachingMaxPeers))
	p.stats.GetValueQueriesStarted++
	p.FindNode(key, GetValueTrigger(id))
	p.ctx.EmitSelf(GetValueQueryTimeout{QueryID: id}, p.cfg.QueryTimeout)
	return id
}

// sendMessage emits data to dst with the delay sampled by the network
// agent. An unreachable destination drops the emit; the receiver never
// observes the request and any enclosing query times out.
func (p *Peer) sendMessage(data any, dst sim.ID) {
	if delay, ok := p.network.SampleMessageDelay(p.ctx, p.ctx.ID(), dst); ok {
		p.ctx.Emit(data, dst, delay)
	}
}

// OnEvent dispatches one incoming event. The sender is acknowledged in the
// routing table first, whatever the payload.
func (p *Peer) OnEvent(ev sim.Event) {
	p.kbuckets.AddPeer(ev.Src, p.ctx.Time())

	switch data := ev.Data.(type) {
	case FindNodeRequest:
		closest := p.kbuckets.LocalClosestPeersApproximate(data.Key, p.ks.K())
		p.sendMessage(FindNodeResponse{QueryID: data.QueryID, ClosestPeers: closest}, ev.Src)

	case FindNodeResponse:
		p.onFindNodeResponse(ev.Src, data)

	case GetValueRequest:
		p.sendMessage(GetValueResponse{QueryID: data.QueryID, Record: p.dhtStore.Get(data.Key)}, ev.Src)

	case GetValueResponse:
		p.onGetValueResponse(ev.Src, data)

	case PutValueRequest:
		p.dhtStore.Put(data.Key, data.Record)

	case RetrieveDataRequest:
		if content, ok := p.fileStore.Get(data.Key); ok {
			p.sendMessage(RetrieveDataResponse{QueryID: data.QueryID, Data: content}, ev.Src)
		}

	case RetrieveDataResponse:
		if data.Data != nil && p.queries.RemoveRetrieveData(data.QueryID) {
			p.stats.RetrieveDataQueriesCompleted++
		}

	case PingRequest:
		p.stats.PingRequestsCount++
		p.sendMessage(PingResponse{}, ev.Src)

	case PingResponse:
		p.stats.PingResponsesCount++

	case FindNodeQueryTimeout:
		if p.queries.RemoveFindNode(data.QueryID) {
			p.stats.FindNodeQueriesFailed++
		}

	case GetValueQueryTimeout:
		if p.queries.RemoveGetValue(data.QueryID) {
			p.stats.GetValueQueriesFailed++
		}

	case PutValueQueryTimeout:
		if _, ok := p.queries.RemovePutValue(data.QueryID); ok {
			p.stats.PutValueQueriesFailed++
		}

	case RetrieveDataQueryTimeout:
		if p.queries.RemoveRetrieveData(data.QueryID) {
			p.stats.RetrieveDataQueriesFailed++
		}

	case BootstrapTimer:
		p.onBootstrapTimer()

	case RepublishTimer:
		p.onRepublishTimer(data.Key)
	}
}

func (p *Peer) onFindNodeResponse(src sim.ID, data FindNodeResponse) {
	q, ok := p.queries.FindNode(data.QueryID)
	if !ok {
		return
	}
	outcome := q.OnResponse(src, data.QueryID, data.ClosestPeers)
	if !outcome.Completed {
		for _, r := range outcome.Requests {
			p.sendMessage(r.Request, r.Dst)
		}
		return
	}

	p.queries.RemoveFindNode(data.QueryID)
	p.stats.FindNodeQueriesCompleted++
	p.stats.Evaluate(p.ks, outcome.TargetKey, outcome.ClosestPeers)

	switch trigger := q.Trigger(); trigger.Kind {
	case TriggerPutValue:
		if pq, ok := p.queries.RemovePutValue(trigger.Parent); ok {
			p.stats.PutValueQueriesCompleted++
			request := PutValueRequest{Key: pq.Key(), Record: pq.Record()}
			for _, dst := range outcome.ClosestPeers {
				p.sendMessage(request, dst)
			}
		}
	case TriggerGetValue:
		if gq, ok := p.queries.GetValue(trigger.Parent); ok {
			request := GetValueRequest{QueryID: trigger.Parent, Key: gq.Key()}
			for _, dst := range outcome.ClosestPeers {
				p.sendMessage(request, dst)
			}
		}
	}
}

func (p *Peer) onGetValueResponse(src sim.ID, data GetValueResponse) {
	gq, ok := p.queries.GetValue(data.QueryID)
	if !ok {
		return
	}
	outcome := gq.OnResponse(src, data.Record)
	if !outcome.Completed {
		return
	}

	p.queries.RemoveGetValue(data.QueryID)
	p.stats.GetValueQueriesCompleted++
	for _, put := range outcome.CachingPuts {
		p.sendMessage(put.Request, put.Dst)
	}
	if p.queries.HasRetrieveData(data.QueryID) {
		request := RetrieveDataRequest{QueryID: data.QueryID, Key: gq.Key()}
		for _, provider := range outcome.Record.Providers {
			p.sendMessage(request, provider)
		}
	}
}

// onBootstrapTimer sweeps expired records and refreshes the routing table
// with one lookup per allocated bucket index, empty ones included and at
// most maxRefreshedBuckets of them, plus a lookup of the local key, then
// rearms itself.
func (p *Peer) onBootstrapTimer() {
	p.dhtStore.RemoveExpired(p.ctx.Time())
	local := p.kbuckets.LocalKey()
	n := p.kbuckets.BucketsCount()
	if n > maxRefreshedBuckets {
		n = maxRefreshedBuckets
	}
	for i := 0; i < n; i++ {
		p.FindNode(kad.RandomKeyInBucket(p.ctx.RNG(), local, i), BootstrapTrigger())
	}
	p.FindNode(local, BootstrapTrigger())
	p.ctx.EmitSelf(BootstrapTimer{}, p.cfg.KBucketsRefreshInterval)
}

// onRepublishTimer re-advertises a record the peer still provides. The
// local DHT entry is removed and the refreshed record goes out through a
// new PutValue; this peer stores it again only if it is among the peers
// that PutValue reaches. The timer rearms only when both stores held the
// key at firing time, so a firing that finds the DHT entry gone ends the
// cycle.
func (p *Peer) onRepublishTimer(key kad.Key) {
	record := p.dhtStore.Get(key)
	if record == nil || !p.fileStore.Has(key) {
		return
	}
	p.dhtStore.Remove(key)
	p.putValue(record.Refreshed(p.ctx.Time(), p.cfg.RecordExpirationInterval))
	p.ctx.EmitSelf(RepublishTimer{Key: key}, p.cfg.RecordPublicationInterval)
}
