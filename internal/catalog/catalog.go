// Package catalog provides the immutable item catalog snapshot the optimizer
// searches over.
package catalog

import (
	"sort"

	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
)

// Snapshot is a read-only view of the item catalog: item-by-id and
// item-by-category indexes plus set-legality metadata. It is built once and
// shared by reference across the entire run and all rescue tiers.
type Snapshot struct {
	items      map[string]gear.Item
	byCategory map[gear.Category][]string
	sets       map[string]gear.SetInfo
}

// Config holds the raw inputs for building a Snapshot.
type Config struct {
	Items []gear.Item
	Sets  []gear.SetInfo
}

// Validate ensures the config describes a well-formed catalog.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if len(cfg.Items) == 0 {
		return errors.InvalidArgument("catalog must contain at least one item")
	}
	seen := make(map[string]bool, len(cfg.Items))
	for i := range cfg.Items {
		it := &cfg.Items[i]
		if it.ID == "" {
			return errors.InvalidArgument("catalog item with empty id")
		}
		if seen[it.ID] {
			return errors.InvalidArgumentf("duplicate catalog item id %q", it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

// New builds an immutable Snapshot from raw items and set metadata.
func New(cfg *Config) (*Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		items:      make(map[string]gear.Item, len(cfg.Items)),
		byCategory: make(map[gear.Category][]string),
		sets:       make(map[string]gear.SetInfo, len(cfg.Sets)),
	}
	for _, it := range cfg.Items {
		snap.items[it.ID] = it
		snap.byCategory[it.Category] = append(snap.byCategory[it.Category], it.ID)
	}
	// Category lists are kept in sorted id order so every downstream
	// traversal is deterministic regardless of input order.
	for cat := range snap.byCategory {
		sort.Strings(snap.byCategory[cat])
	}
	for _, s := range cfg.Sets {
		snap.sets[s.ID] = s
	}
	return snap, nil
}

// Item returns the catalog entry for an id.
func (s *Snapshot) Item(id string) (gear.Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// CategoryItems returns the sorted item ids of a category. The returned
// slice is shared; callers must not mutate it.
func (s *Snapshot) CategoryItems(cat gear.Category) []string {
	return s.byCategory[cat]
}

// Set returns the set metadata for a set id.
func (s *Snapshot) Set(id string) (gear.SetInfo, bool) {
	info, ok := s.sets[id]
	return info, ok
}

// Sets returns all set metadata, sorted by set id.
func (s *Snapshot) Sets() []gear.SetInfo {
	out := make([]gear.SetInfo, 0, len(s.sets))
	for _, info := range s.sets {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns all catalog items, sorted by id.
func (s *Snapshot) Items() []gear.Item {
	out := make([]gear.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Size returns the number of catalog items.
func (s *Snapshot) Size() int {
	return len(s.items)
}
