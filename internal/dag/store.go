package dag

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/codes"
)

// Store is the synchronous storage-backend capability set (spec.md §9):
// put, get, contains, delete, list, pin, prune. In-memory backends satisfy
// it directly and are wrapped by SyncAdapter where a SuspendingStore is
// expected; persistent backends satisfy SuspendingStore only.
type Store interface {
	Put(b Block) error
	Get(c icid.CID) (Block, bool, error)
	Contains(c icid.CID) (bool, error)
	Delete(c icid.CID) error
	ListBlocks() ([]Block, error)
	SetTTL(c icid.CID, deadline *uint64) error
	PinBlock(c icid.CID) error
	UnpinBlock(c icid.CID) error
	PruneExpired(now uint64) ([]icid.CID, error)
	Traverse(start icid.CID) ([]icid.CID, error)
}

// SuspendingStore is the same capability set through a context-aware,
// potentially-blocking API, used by persistent backends per spec.md §5
// ("put/get on the DAG store are suspending for async backends").
type SuspendingStore interface {
	Put(ctx context.Context, b Block) error
	Get(ctx context.Context, c icid.CID) (Block, bool, error)
	Contains(ctx context.Context, c icid.CID) (bool, error)
	Delete(ctx context.Context, c icid.CID) error
	ListBlocks(ctx context.Context) ([]Block, error)
	SetTTL(ctx context.Context, c icid.CID, deadline *uint64) error
	PinBlock(ctx context.Context, c icid.CID) error
	UnpinBlock(ctx context.Context, c icid.CID) error
	PruneExpired(ctx context.Context, now uint64) ([]icid.CID, error)
	Traverse(ctx context.Context, start icid.CID) ([]icid.CID, error)
}

// SyncAdapter wraps a synchronous Store so it can be passed anywhere a
// SuspendingStore is expected (spec.md §9: "core generally consumes the
// suspending one and wraps synchronous backends in an adapter").
type SyncAdapter struct{ Store }

func (a SyncAdapter) Put(_ context.Context, b Block) error { return a.Store.Put(b) }
func (a SyncAdapter) Get(_ context.Context, c icid.CID) (Block, bool, error) {
	return a.Store.Get(c)
}
func (a SyncAdapter) Contains(_ context.Context, c icid.CID) (bool, error) {
	return a.Store.Contains(c)
}
func (a SyncAdapter) Delete(_ context.Context, c icid.CID) error { return a.Store.Delete(c) }
func (a SyncAdapter) ListBlocks(_ context.Context) ([]Block, error) {
	return a.Store.ListBlocks()
}
func (a SyncAdapter) SetTTL(_ context.Context, c icid.CID, deadline *uint64) error {
	return a.Store.SetTTL(c, deadline)
}
func (a SyncAdapter) PinBlock(_ context.Context, c icid.CID) error   { return a.Store.PinBlock(c) }
func (a SyncAdapter) UnpinBlock(_ context.Context, c icid.CID) error { return a.Store.UnpinBlock(c) }
func (a SyncAdapter) PruneExpired(_ context.Context, now uint64) ([]icid.CID, error) {
	return a.Store.PruneExpired(now)
}
func (a SyncAdapter) Traverse(_ context.Context, start icid.CID) ([]icid.CID, error) {
	return a.Store.Traverse(start)
}

type entry struct {
	block  Block
	pinned bool
	ttl    *uint64 // absolute deadline in seconds, nil = no TTL
}

// Memory is the in-memory DAG store backend: a map CID -> Block guarded by
// one RWMutex, with a derived adjacency index cid -> []child cid rebuilt
// incrementally on Put/Delete.
type Memory struct {
	mu    sync.RWMutex
	byCID map[string]*entry
	// order preserves insertion order so ListBlocks is stable within a
	// snapshot, per spec.md §4.1.
	order     []string
	adjacency map[string][]icid.CID
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byCID:     make(map[string]*entry),
		adjacency: make(map[string][]icid.CID),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Put(b Block) error {
	if err := VerifyIntegrity(b); err != nil {
		return codes.Wrap(codes.InvalidBlock, "put block", err)
	}
	key := b.CID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byCID[key]; exists {
		return nil // idempotent
	}
	m.byCID[key] = &entry{block: b}
	m.order = append(m.order, key)

	children := make([]icid.CID, 0, len(b.Links))
	for _, l := range b.Links {
		children = append(children, l.CID)
	}
	m.adjacency[key] = children
	return nil
}

func (m *Memory) Get(c icid.CID) (Block, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byCID[c.String()]
	if !ok {
		return Block{}, false, nil
	}
	return e.block, true, nil
}

func (m *Memory) Contains(c icid.CID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCID[c.String()]
	return ok, nil
}

func (m *Memory) Delete(c icid.CID) error {
	key := c.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCID[key]; !ok {
		return nil
	}
	delete(m.byCID, key)
	delete(m.adjacency, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	// Does not cascade: only remove entries whose key equals the deleted
	// CID; other blocks' adjacency lists may still reference it.
	return nil
}

func (m *Memory) ListBlocks() ([]Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Block, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byCID[k].block)
	}
	return out, nil
}

func (m *Memory) SetTTL(c icid.CID, deadline *uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byCID[c.String()]
	if !ok {
		return codes.New(codes.NotFound, "set_ttl: block not found: "+c.String())
	}
	e.ttl = deadline
	return nil
}

func (m *Memory) PinBlock(c icid.CID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byCID[c.String()]
	if !ok {
		return codes.New(codes.NotFound, "pin_block: block not found: "+c.String())
	}
	e.pinned = true
	return nil
}

func (m *Memory) UnpinBlock(c icid.CID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byCID[c.String()]
	if !ok {
		return codes.New(codes.NotFound, "unpin_block: block not found: "+c.String())
	}
	e.pinned = false
	return nil
}

func (m *Memory) PruneExpired(now uint64) ([]icid.CID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []icid.CID
	remainingOrder := m.order[:0:0]
	for _, k := range m.order {
		e := m.byCID[k]
		if !e.pinned && e.ttl != nil && *e.ttl < now {
			removed = append(removed, e.block.CID)
			delete(m.byCID, k)
			delete(m.adjacency, k)
			continue
		}
		remainingOrder = append(remainingOrder, k)
	}
	m.order = remainingOrder
	if removed == nil {
		removed = []icid.CID{}
	}
	logrus.WithField("count", len(removed)).Debug("dag: prune_expired removed blocks")
	return removed, nil
}

// Traverse performs a depth-first walk from start, visiting children in
// their declared link order and each CID at most once.
func (m *Memory) Traverse(start icid.CID) ([]icid.CID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.byCID[start.String()]; !ok {
		return nil, codes.New(codes.NotFound, "traverse: start block not found: "+start.String())
	}

	visited := make(map[string]bool)
	var order []icid.CID
	var walk func(c icid.CID)
	walk = func(c icid.CID) {
		key := c.String()
		if visited[key] {
			return
		}
		visited[key] = true
		order = append(order, c)
		for _, child := range m.adjacency[key] {
			walk(child)
		}
	}
	walk(start)
	return order, nil
}

// sortedSnapshot returns blocks in CID-key order, a stable order that does
// not rely on map iteration. No backend calls it: KVStore lists in
// insertion order and SQLStore orders by cid in its query.
func sortedSnapshot(blocks map[string]Block) []Block {
	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Block, 0, len(keys))
	for _, k := range keys {
		out = append(out, blocks[k])
	}
	return out
}
