package dht

// QueriesPool holds a peer's in-flight queries, one keyed registry per
// query kind, plus the next-id counter. Ids are shared across kinds: the
// id of a retrieval is the id of its inner GetValue query.
type QueriesPool struct {
	nextID       QueryID
	findNode     map[QueryID]*FindNodeQuery
	getValue     map[QueryID]*GetValueQuery
	putValue     map[QueryID]*PutValueQuery
	retrieveData map[QueryID]struct{}
}

// NewQueriesPool creates an empty pool.
func NewQueriesPool() *QueriesPool {
	return &QueriesPool{
		findNode:     make(map[QueryID]*FindNodeQuery),
		getValue:     make(map[QueryID]*GetValueQuery),
		putValue:     make(map[QueryID]*PutValueQuery),
		retrieveData: make(map[QueryID]struct{}),
	}
}

// NextQueryID returns a fresh id.
func (p *QueriesPool) NextQueryID() QueryID {
	id := p.nextID
	p.nextID++
	return id
}

// AddFindNode registers a FindNode query under id.
func (p *QueriesPool) AddFindNode(id QueryID, q *FindNodeQuery) {
	p.findNode[id] = q
}

// FindNode looks up a registered FindNode query.
func (p *QueriesPool) FindNode(id QueryID) (*FindNodeQuery, bool) {
	q, ok := p.findNode[id]
	return q, ok
}

// RemoveFindNode drops a FindNode query, reporting whether it existed.
func (p *QueriesPool) RemoveFindNode(id QueryID) bool {
	if _, ok := p.findNode[id]; !ok {
		return false
	}
	delete(p.findNode, id)
	return true
}

// AddGetValue registers a GetValue query under id.
func (p *QueriesPool) AddGetValue(id QueryID, q *GetValueQuery) {
	p.getValue[id] = q
}

// GetValue looks up a registered GetValue query.
func (p *QueriesPool) GetValue(id QueryID) (*GetValueQuery, bool) {
	q, ok := p.getValue[id]
	return q, ok
}

// RemoveGetValue drops a GetValue query, reporting whether it existed.
func (p *QueriesPool) RemoveGetValue(id QueryID) bool {
	if _, ok := p.getValue[id]; !ok {
		return false
	}
	delete(p.getValue, id)
	return true
}

// AddPutValue registers a PutValue query under id.
func (p *QueriesPool) AddPutValue(id QueryID, q *PutValueQuery) {
	p.putValue[id] = q
}

// RemovePutValue drops and returns a PutValue query.
func (p *QueriesPool) RemovePutValue(id QueryID) (*PutValueQuery, bool) {
	q, ok := p.putValue[id]
	if ok {
		delete(p.putValue, id)
	}
	return q, ok
}

// AddRetrieveData registers a pending retrieval id.
func (p *QueriesPool) AddRetrieveData(id QueryID) {
	p.retrieveData[id] = struct{}{}
}

// HasRetrieveData reports whether a retrieval id is still pending.
func (p *QueriesPool) HasRetrieveData(id QueryID) bool {
	_, ok := p.retrieveData[id]
	return ok
}

// RemoveRetrieveData drops a retrieval id, reporting whether it existed.
func (p *QueriesPool) RemoveRetrieveData(id QueryID) bool {
	if _, ok := p.retrieveData[id]; !ok {
		return false
	}
	delete(p.retrieveData, id)
	return true
}
