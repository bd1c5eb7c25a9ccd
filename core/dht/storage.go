package dht

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// Record is a DHT record. The only variant is the provider record: a set
// of peers advertising that they hold the content for Key. Records are
// shared immutably between peers; refresh produces a new value.
type Record struct {
	Key       kad.Key
	Providers []sim.ID
	ExpiresAt float64
}

// NewProviderRecord creates the record a publisher stores for its own
// content.
func NewProviderRecord(self sim.ID, key kad.Key, now, ttl float64) *Record {
	return &Record{
		Key:       key,
		Providers: []sim.ID{self},
		ExpiresAt: now + ttl,
	}
}

// Refreshed returns a copy with a renewed expiration time.
func (r *Record) Refreshed(now, ttl float64) *Record {
	return &Record{
		Key:       r.Key,
		Providers: r.Providers,
		ExpiresAt: now + ttl,
	}
}

const (
	recordFilterCapacity = 4096
	recordFilterFPRate   = 0.01
)

// RecordStore maps keys to DHT records. A bloom filter fronts the map:
// most GetValue requests land on peers that do not hold the record yet,
// and the filter answers those misses without touching the map. The filter
// admits stale keys after removals, which only costs a map lookup.
type RecordStore struct {
	records map[kad.Key]*Record
	filter  *bloom.BloomFilter
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[kad.Key]*Record),
		filter:  bloom.NewWithEstimates(recordFilterCapacity, recordFilterFPRate),
	}
}

// Get returns the record under key, or nil.
func (s *RecordStore) Get(key kad.Key) *Record {
	b := key.Bytes()
	if !s.filter.Test(b[:]) {
		return nil
	}
	return s.records[key]
}

// Put stores a record under key, replacing any previous one.
func (s *RecordStore) Put(key kad.Key, record *Record) {
	b := key.Bytes()
	s.filter.Add(b[:])
	s.records[key] = record
}

// Remove deletes the record under key, reporting whether it was present.
func (s *RecordStore) Remove(key kad.Key) bool {
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	return true
}

// RemoveExpired drops every record whose expiration time has passed and
// rebuilds the filter over the survivors.
func (s *RecordStore) RemoveExpired(now float64) {
	for key, record := range s.records {
		if record.ExpiresAt <= now {
			delete(s.records, key)
		}
	}
	s.rebuildFilter()
}

// Clear removes all records.
func (s *RecordStore) Clear() {
	s.records = make(map[kad.Key]*Record)
	s.filter.ClearAll()
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

func (s *RecordStore) rebuildFilter() {
	s.filter.ClearAll()
	for key := range s.records {
		b := key.Bytes()
		s.filter.Add(b[:])
	}
}

// FileStore is the content-addressed blob store. Blobs are held
// brotli-compressed at rest; synthetic load blocks run to hundreds of KiB
// and every peer on a record's replication path may hold a copy.
type FileStore struct {
	blobs map[kad.Key][]byte
}

// NewFileStore creates an empty content store.
func NewFileStore() *FileStore {
	return &FileStore{blobs: make(map[kad.Key][]byte)}
}

// Get returns the decompressed content under key.
func (s *FileStore) Get(key kad.Key) ([]byte, bool) {
	blob, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	data, err := io.ReadAll(brotli.NewReader(bytes.NewReader(blob)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Has reports whether content is stored under key.
func (s *FileStore) Has(key kad.Key) bool {
	_, ok := s.blobs[key]
	return ok
}

// Put stores content under key.
func (s *FileStore) Put(key kad.Key, data []byte) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	_, _ = w.Write(data)
	_ = w.Close()
	s.blobs[key] = buf.Bytes()
}

// Remove deletes the content under key, reporting whether it was present.
func (s *FileStore) Remove(key kad.Key) bool {
	if _, ok := s.blobs[key]; !ok {
		return false
	}
	delete(s.blobs, key)
	return true
}

// Clear removes all content.
func (s *FileStore) Clear() {
	s.blobs = make(map[kad.Key][]byte)
}

// Len returns the number of stored blobs.
func (s *FileStore) Len() int {
	return len(s.blobs)
}
