package snapshot

import (
	"sort"
	"sync"

	"ZoneSentinel/internal/model"
)

// Store holds the latest snapshot per watch target and fans new snapshots
// out to subscribers. Snapshots are replaced wholesale, never patched.
type Store struct {
	mu     sync.RWMutex
	snaps  map[string]*model.Snapshot
	health model.BackendHealth
	subs   map[chan *model.Snapshot]struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		snaps: make(map[string]*model.Snapshot),
		subs:  make(map[chan *model.Snapshot]struct{}),
	}
}

// Put replaces the snapshot for its target, returns the one it replaced
// and publishes the new one. Slow subscribers miss updates rather than
// blocking the refresh loop.
func (s *Store) Put(snap *model.Snapshot) (prev *model.Snapshot) {
	key := snap.Target().Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.snaps[key]
	s.snaps[key] = snap
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	return prev
}

// Get returns the latest snapshot for symbol and timeframe.
func (s *Store) Get(symbol string, tf model.Timeframe) (*model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[model.WatchTarget{Symbol: symbol, Timeframe: tf}.Key()]
	return snap, ok
}

// List returns every stored snapshot ordered by target key.
func (s *Store) List() []*model.Snapshot {
	s.mu.RLock()
	keys := make([]string, 0, len(s.snaps))
	for k := range s.snaps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*model.Snapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.snaps[k])
	}
	s.mu.RUnlock()
	return out
}

// Subscribe returns a channel receiving every snapshot put after the call.
func (s *Store) Subscribe(buffer int) chan *model.Snapshot {
	ch := make(chan *model.Snapshot, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch chan *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// SetHealth records the latest backend health probe.
func (s *Store) SetHealth(h model.BackendHealth) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()
}

// Health returns the latest backend health probe.
func (s *Store) Health() model.BackendHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}
