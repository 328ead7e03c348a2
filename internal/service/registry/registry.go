package registry

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"TradeGate/internal/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const shardCount = 32

// Registry owns the shared mutable admission state: per-symbol in-flight
// order sets and per-user submission history. Symbols are spread over lock
// shards so unrelated symbols never serialize on one mutex.
type Registry struct {
	shards [shardCount]symbolShard
	users  [shardCount]historyShard
}

type symbolShard struct {
	mu      sync.RWMutex
	buckets map[string][]models.TradeRequest
}

type historyShard struct {
	mu     sync.Mutex
	stamps map[string][]time.Time
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].buckets = make(map[string][]models.TradeRequest)
	}
	for i := range r.users {
		r.users[i].stamps = make(map[string][]time.Time)
	}
	return r
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}

func (r *Registry) symbolShard(symbol string) *symbolShard {
	return &r.shards[shardIndex(symbol)]
}

// Register inserts req into its symbol's active set, creating the set if
// absent. Admission decisions happen upstream; this never rejects.
func (r *Registry) Register(req models.TradeRequest) {
	s := r.symbolShard(req.Symbol)
	s.mu.Lock()
	s.buckets[req.Symbol] = append(s.buckets[req.Symbol], req)
	s.mu.Unlock()
}

// Complete removes every entry for (userID, symbol). An empty resulting set
// deletes the symbol key so memory stays bounded. Returns how many entries
// were removed.
func (r *Registry) Complete(userID, symbol string) int {
	s := r.symbolShard(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, ok := s.buckets[symbol]
	if !ok {
		return 0
	}
	kept := orders[:0]
	removed := 0
	for _, o := range orders {
		if o.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	if len(kept) == 0 {
		delete(s.buckets, symbol)
	} else {
		s.buckets[symbol] = kept
	}
	return removed
}

// Remove deletes the single order with the given ID from the symbol's
// active set. Reports whether an entry was removed.
func (r *Registry) Remove(id uuid.UUID, symbol string) bool {
	s := r.symbolShard(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, ok := s.buckets[symbol]
	if !ok {
		return false
	}
	for i, o := range orders {
		if o.ID == id {
			orders = append(orders[:i], orders[i+1:]...)
			if len(orders) == 0 {
				delete(s.buckets, symbol)
			} else {
				s.buckets[symbol] = orders
			}
			return true
		}
	}
	return false
}

// DistinctUsers counts unique user IDs in the symbol's active set.
func (r *Registry) DistinctUsers(symbol string) int {
	s := r.symbolShard(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinct(s.buckets[symbol])
}

func distinct(orders []models.TradeRequest) int {
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		seen[o.UserID] = struct{}{}
	}
	return len(seen)
}

// HasUser reports whether userID already holds an active entry on symbol.
func (r *Registry) HasUser(symbol, userID string) bool {
	s := r.symbolShard(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.buckets[symbol] {
		if o.UserID == userID {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the symbol's active set, safe to read while
// concurrent registrations and completions continue.
func (r *Registry) Snapshot(symbol string) []models.TradeRequest {
	s := r.symbolShard(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := s.buckets[symbol]
	if len(orders) == 0 {
		return nil
	}
	out := make([]models.TradeRequest, len(orders))
	copy(out, orders)
	return out
}

// ActiveOrders counts entries in the symbol's active set.
func (r *Registry) ActiveOrders(symbol string) int {
	s := r.symbolShard(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[symbol])
}

// RecordSubmission appends a submission timestamp to the user's history.
// The history is diagnostic only and trimmed by Sweep.
func (r *Registry) RecordSubmission(userID string, at time.Time) {
	h := &r.users[shardIndex(userID)]
	h.mu.Lock()
	h.stamps[userID] = append(h.stamps[userID], at)
	h.mu.Unlock()
}

// UserHistory returns a copy of the user's retained submission timestamps.
func (r *Registry) UserHistory(userID string) []time.Time {
	h := &r.users[shardIndex(userID)]
	h.mu.Lock()
	defer h.mu.Unlock()
	stamps := h.stamps[userID]
	if len(stamps) == 0 {
		return nil
	}
	out := make([]time.Time, len(stamps))
	copy(out, stamps)
	return out
}

// Sweep drops every order and history timestamp older than cutoff, deleting
// keys whose set becomes empty. It takes the same per-shard locks as Register
// and Complete, so a sweep never races a concurrent completion into a
// double-remove. Returns the number of entries evicted.
func (r *Registry) Sweep(cutoff time.Time) int {
	removed := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for symbol, orders := range s.buckets {
			kept := orders[:0]
			for _, o := range orders {
				if o.SubmittedAt.Before(cutoff) {
					removed++
					continue
				}
				kept = append(kept, o)
			}
			if len(kept) == 0 {
				delete(s.buckets, symbol)
			} else {
				s.buckets[symbol] = kept
			}
		}
		s.mu.Unlock()
	}
	for i := range r.users {
		h := &r.users[i]
		h.mu.Lock()
		for userID, stamps := range h.stamps {
			kept := stamps[:0]
			for _, ts := range stamps {
				if ts.Before(cutoff) {
					removed++
					continue
				}
				kept = append(kept, ts)
			}
			if len(kept) == 0 {
				delete(h.stamps, userID)
			} else {
				h.stamps[userID] = kept
			}
		}
		h.mu.Unlock()
	}
	return removed
}

// StatusFor aggregates the read-only dashboard view for one symbol.
func (r *Registry) StatusFor(symbol string) models.SymbolStatus {
	s := r.symbolShard(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return status(symbol, s.buckets[symbol])
}

// Status aggregates the dashboard view for every active symbol, sorted by
// symbol for stable output.
func (r *Registry) Status() []models.SymbolStatus {
	var out []models.SymbolStatus
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for symbol, orders := range s.buckets {
			out = append(out, status(symbol, orders))
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func status(symbol string, orders []models.TradeRequest) models.SymbolStatus {
	st := models.SymbolStatus{Symbol: symbol, ActiveOrders: len(orders), TotalNotional: decimal.Zero}
	st.DistinctUsers = distinct(orders)
	for _, o := range orders {
		st.TotalNotional = st.TotalNotional.Add(o.Notional())
		if st.OldestOrder.IsZero() || o.SubmittedAt.Before(st.OldestOrder) {
			st.OldestOrder = o.SubmittedAt
		}
	}
	return st
}
