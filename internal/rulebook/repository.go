package rulebook

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

// Repository is the query surface the engine consumes. Lookups never
// fail hard: a miss returns ok=false and the caller skips the entry.
type Repository interface {
	// ItemByID returns the item with the given stable ID.
	ItemByID(id string) (*Item, bool)

	// ItemByName returns the item with the given name, matched exactly but
	// case-insensitively.
	ItemByName(name string) (*Item, bool)

	// Search is the fuzzy fallback: slug-normalized containment first,
	// then closest edit distance within a small budget.
	Search(name string) (*Item, bool)

	// ItemsByType returns every item of a type, for choice filters.
	ItemsByType(itemType ItemType) []*Item
}

// Store is the in-memory Repository implementation. It is immutable after
// construction and safe for concurrent reads.
type Store struct {
	byID   map[string]*Item
	byName map[string]*Item
	bySlug map[string]*Item
	byType map[ItemType][]*Item
}

// NewStore builds a Store from a list of items. Later duplicates of an ID
// or name win, matching reload-in-place semantics.
func NewStore(items []*Item) *Store {
	s := &Store{
		byID:   make(map[string]*Item, len(items)),
		byName: make(map[string]*Item, len(items)),
		bySlug: make(map[string]*Item, len(items)),
		byType: make(map[ItemType][]*Item),
	}
	for _, item := range items {
		s.byID[item.ID] = item
		s.byName[strings.ToLower(item.Name)] = item
		s.bySlug[item.Slug()] = item
		s.byType[item.Type] = append(s.byType[item.Type], item)
	}
	return s
}

// ItemByID implements Repository.
func (s *Store) ItemByID(id string) (*Item, bool) {
	item, ok := s.byID[id]
	return item, ok
}

// ItemByName implements Repository.
func (s *Store) ItemByName(name string) (*Item, bool) {
	item, ok := s.byName[strings.ToLower(name)]
	return item, ok
}

// maxSearchDistance bounds how far a fuzzy match may drift from the query.
const maxSearchDistance = 3

// Search implements Repository.
func (s *Store) Search(name string) (*Item, bool) {
	slug := pf2e.Slugify(name)
	if item, ok := s.bySlug[slug]; ok {
		return item, true
	}

	// Containment: "sudden charge" should find "Sudden Charge (Barbarian)".
	for key, item := range s.bySlug {
		if strings.Contains(key, slug) || strings.Contains(slug, key) {
			return item, true
		}
	}

	var best *Item
	bestDistance := maxSearchDistance + 1
	for key, item := range s.bySlug {
		if d := levenshtein.ComputeDistance(slug, key); d < bestDistance {
			bestDistance = d
			best = item
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// ItemsByType implements Repository.
func (s *Store) ItemsByType(itemType ItemType) []*Item {
	return s.byType[itemType]
}

// Len returns the number of loaded items.
func (s *Store) Len() int {
	return len(s.byID)
}

var _ Repository = (*Store)(nil)
