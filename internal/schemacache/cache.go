// Package schemacache holds the per-client schema caches consulted before writes.
package schemacache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

// VectorEntry is the cached vector schema of a collection.
type VectorEntry struct {
	Dimension int
	Distance  collection.Distance
	ETag      string
}

// VectorStore maps collection names to vector schemas.
// Entries are overwritten on every fetch and only removed by Clear/ClearAll.
type VectorStore struct {
	mu      sync.RWMutex
	entries map[string]VectorEntry
	lookups *prometheus.CounterVec
}

// NewVectorStore creates an empty store.
// lookups is a counter vec with labels "cache" and "result", may be nil.
func NewVectorStore(lookups *prometheus.CounterVec) *VectorStore {
	return &VectorStore{entries: make(map[string]VectorEntry), lookups: lookups}
}

// Get returns the cached entry, if any.
func (s *VectorStore) Get(name string) (VectorEntry, bool) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if ok {
		inc(s.lookups, "vector", "hit")
	} else {
		inc(s.lookups, "vector", "miss")
	}
	return e, ok
}

// Put stores or overwrites the entry.
func (s *VectorStore) Put(name string, e VectorEntry) {
	s.mu.Lock()
	s.entries[name] = e
	s.mu.Unlock()
}

// Clear removes one collection's entry.
func (s *VectorStore) Clear(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// ClearAll removes every entry.
func (s *VectorStore) ClearAll() {
	s.mu.Lock()
	s.entries = make(map[string]VectorEntry)
	s.mu.Unlock()
}

// PayloadEntry is a cached payload schema.
type PayloadEntry struct {
	Schema      schema.Schema
	ETag        string
	Enforcement schema.Enforcement
}

// State is the outcome of a payload schema lookup.
type State int

// Lookup states.
const (
	// Unknown means the collection was never looked up (or was cleared).
	Unknown State = iota
	// KnownAbsent means the server confirmed there is no schema.
	KnownAbsent
	// Known means a schema is cached.
	Known
)

func (s State) String() string {
	switch s {
	case Known:
		return "known"
	case KnownAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Lookup is the tri-state result of PayloadStore.Lookup.
// Entry is only set when State is Known.
type Lookup struct {
	State State
	Entry PayloadEntry
}

type payloadSlot struct {
	absent bool
	entry  PayloadEntry
}

// PayloadStore maps collection names to payload schemas or a confirmed-absent marker.
type PayloadStore struct {
	mu      sync.RWMutex
	entries map[string]payloadSlot
	lookups *prometheus.CounterVec
}

// NewPayloadStore creates an empty store.
func NewPayloadStore(lookups *prometheus.CounterVec) *PayloadStore {
	return &PayloadStore{entries: make(map[string]payloadSlot), lookups: lookups}
}

// Lookup returns Known, KnownAbsent or Unknown for the collection.
func (s *PayloadStore) Lookup(name string) Lookup {
	s.mu.RLock()
	slot, ok := s.entries[name]
	s.mu.RUnlock()

	var l Lookup
	switch {
	case !ok:
		l = Lookup{State: Unknown}
		inc(s.lookups, "payload", "miss")
	case slot.absent:
		l = Lookup{State: KnownAbsent}
		inc(s.lookups, "payload", "absent")
	default:
		l = Lookup{State: Known, Entry: slot.entry}
		l.Entry.Schema = slot.entry.Schema.Clone()
		inc(s.lookups, "payload", "hit")
	}
	return l
}

// Put caches a copy of the schema. An empty enforcement mode is stored as off.
// Lookup hands out copies too, so callers never share the cached fields.
func (s *PayloadStore) Put(name string, e PayloadEntry) {
	if !e.Enforcement.IsValid() {
		e.Enforcement = schema.Off
	}
	e.Schema = e.Schema.Clone()
	s.mu.Lock()
	s.entries[name] = payloadSlot{entry: e}
	s.mu.Unlock()
}

// MarkAbsent records that the collection has no schema.
func (s *PayloadStore) MarkAbsent(name string) {
	s.mu.Lock()
	s.entries[name] = payloadSlot{absent: true}
	s.mu.Unlock()
}

// Clear forgets the collection, returning it to Unknown.
func (s *PayloadStore) Clear(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// ClearAll forgets every collection.
func (s *PayloadStore) ClearAll() {
	s.mu.Lock()
	s.entries = make(map[string]payloadSlot)
	s.mu.Unlock()
}

func inc(c *prometheus.CounterVec, cache, result string) {
	if c != nil {
		c.WithLabelValues(cache, result).Inc()
	}
}
