// Package catalog keeps the latest known copy of the restaurant menu.
//
// The menu service owns the data; this package only holds an immutable
// snapshot of it and swaps in a new one whenever a refresh or a menu event
// arrives. Readers never block on a refresh.
package catalog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
)

// Snapshot is an immutable view of the menu at one point in time.
type Snapshot struct {
	items    []domain.MenuItem
	index    map[string]int
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from items. When an ID repeats, the later
// entry wins but keeps the position of the first.
func NewSnapshot(items []domain.MenuItem, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		items:    make([]domain.MenuItem, 0, len(items)),
		index:    make(map[string]int, len(items)),
		loadedAt: loadedAt,
	}
	for _, item := range items {
		if i, ok := s.index[item.ID]; ok {
			s.items[i] = item
			continue
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	return s
}

// Lookup returns the menu item with the given ID.
func (s *Snapshot) Lookup(id string) (domain.MenuItem, bool) {
	if s == nil {
		return domain.MenuItem{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return domain.MenuItem{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the menu in source order.
func (s *Snapshot) Items() []domain.MenuItem {
	if s == nil {
		return []domain.MenuItem{}
	}
	out := make([]domain.MenuItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct menu items.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// AvailableCount returns how many items are currently enabled.
func (s *Snapshot) AvailableCount() int {
	if s == nil {
		return 0
	}
	var n int
	for _, item := range s.items {
		if item.IsAvailable {
			n++
		}
	}
	return n
}

// LoadedAt is when the snapshot was produced. Zero means never loaded.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// with returns a copy of s with item inserted or replaced.
func (s *Snapshot) with(item domain.MenuItem, at time.Time) *Snapshot {
	items := s.Items()
	if i, ok := s.index[item.ID]; ok {
		items[i] = item
	} else {
		items = append(items, item)
	}
	return NewSnapshot(items, at)
}

// without returns a copy of s with id removed.
func (s *Snapshot) without(id string, at time.Time) *Snapshot {
	items := make([]domain.MenuItem, 0, s.Len())
	for _, item := range s.items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	return NewSnapshot(items, at)
}

// Catalog publishes the most recent menu snapshot.
// Writers are serialized; readers load the current pointer without locking.
type Catalog struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

// New creates a catalog holding an empty snapshot.
func New() *Catalog {
	c := &Catalog{now: time.Now}
	c.current.Store(NewSnapshot(nil, time.Time{}))
	return c
}

// Current returns the latest snapshot. It never blocks on a refresh.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Lookup finds an item in the latest snapshot.
func (c *Catalog) Lookup(id string) (domain.MenuItem, bool) {
	return c.Current().Lookup(id)
}

// Loaded reports whether any menu data has been received, either a full
// load or a single item event.
func (c *Catalog) Loaded() bool {
	return !c.Current().LoadedAt().IsZero()
}

// Replace swaps in a complete menu.
func (c *Catalog) Replace(items []domain.MenuItem) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := NewSnapshot(items, c.now().UTC())
	c.current.Store(s)
	observeSnapshot(s)
	return s
}

// Upsert inserts or replaces a single item.
func (c *Catalog) Upsert(item domain.MenuItem) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.Current().with(item, c.now().UTC())
	c.current.Store(s)
	observeSnapshot(s)
	return s
}

// SetAvailability flips the availability flag of a known item. Unknown IDs
// are ignored and reported as false.
func (c *Catalog) SetAvailability(id string, available bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.Current()
	item, ok := cur.Lookup(id)
	if !ok {
		return false
	}
	item.IsAvailable = available
	s := cur.with(item, c.now().UTC())
	c.current.Store(s)
	observeSnapshot(s)
	return true
}

// Remove withdraws an item from the menu.
func (c *Catalog) Remove(id string) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.Current().without(id, c.now().UTC())
	c.current.Store(s)
	observeSnapshot(s)
	return s
}
