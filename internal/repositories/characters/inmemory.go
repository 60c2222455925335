package characters

import (
	"context"
	"sync"
	"time"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
	"github.com/KirkDiggler/pf2e-sheet/internal/uuid"
)

// InMemoryRepository is an in-memory implementation of the character
// repository. Useful for testing and development.
type InMemoryRepository struct {
	mu            sync.RWMutex
	characters    map[string]*character.Character
	uuidGenerator uuid.Generator
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		characters:    make(map[string]*character.Character),
		uuidGenerator: uuid.NewGoogleUUIDGenerator(),
	}
}

// Create stores a new character
func (r *InMemoryRepository) Create(ctx context.Context, chr *character.Character) error {
	if chr == nil {
		return sheeterr.InvalidArgument("character cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if chr.ID == "" {
		chr.ID = r.uuidGenerator.New()
	}
	if _, exists := r.characters[chr.ID]; exists {
		return sheeterr.AlreadyExistsf("character with ID '%s' already exists", chr.ID).
			WithMeta("character_id", chr.ID)
	}

	// The repository owns the timestamps, matching the Redis
	// implementation.
	chr.CreatedAt = time.Now().UTC()
	chr.UpdatedAt = chr.CreatedAt

	r.characters[chr.ID] = chr.Clone()
	return nil
}

// Get retrieves a character by ID
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	if id == "" {
		return nil, sheeterr.InvalidArgument("character ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	chr, exists := r.characters[id]
	if !exists {
		return nil, sheeterr.NotFoundf("character with ID '%s' not found", id).
			WithMeta("character_id", id)
	}
	return chr.Clone(), nil
}

// GetByOwner retrieves all characters for a specific owner
func (r *InMemoryRepository) GetByOwner(ctx context.Context, ownerID string) ([]*character.Character, error) {
	if ownerID == "" {
		return nil, sheeterr.InvalidArgument("owner ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*character.Character
	for _, chr := range r.characters {
		if chr.OwnerID == ownerID {
			result = append(result, chr.Clone())
		}
	}
	return result, nil
}

// Update updates an existing character
func (r *InMemoryRepository) Update(ctx context.Context, chr *character.Character) error {
	if chr == nil {
		return sheeterr.InvalidArgument("character cannot be nil")
	}
	if chr.ID == "" {
		return sheeterr.InvalidArgument("character ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.characters[chr.ID]
	if !exists {
		return sheeterr.NotFoundf("character with ID '%s' not found", chr.ID).
			WithMeta("character_id", chr.ID)
	}

	chr.CreatedAt = existing.CreatedAt
	chr.UpdatedAt = time.Now().UTC()

	r.characters[chr.ID] = chr.Clone()
	return nil
}

// Delete removes a character
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sheeterr.InvalidArgument("character ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.characters[id]; !exists {
		return sheeterr.NotFoundf("character with ID '%s' not found", id).
			WithMeta("character_id", id)
	}

	delete(r.characters, id)
	return nil
}
