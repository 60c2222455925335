package characters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
	"github.com/KirkDiggler/pf2e-sheet/internal/uuid"
)

// redisRepo implements the Repository interface using Redis
type redisRepo struct {
	client        redis.UniversalClient
	uuidGenerator uuid.Generator
	ttl           time.Duration // TTL for ownerless (imported) characters
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
	ImportTTL     time.Duration // How long to keep ownerless imports (default: 24 hours)
}

// NewRedisRepository creates a new Redis-backed character repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}
	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.NewGoogleUUIDGenerator()
	}

	ttl := cfg.ImportTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &redisRepo{
		client:        cfg.Client,
		uuidGenerator: cfg.UUIDGenerator,
		ttl:           ttl,
	}
}

// key generates the Redis key for a character
func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("character:%s", id)
}

// ownerCharactersKey generates the Redis key for an owner's character list
func (r *redisRepo) ownerCharactersKey(ownerID string) string {
	return fmt.Sprintf("owner:%s:characters", ownerID)
}

// expiration returns the TTL for a character: owned characters never
// expire, ownerless imports are kept for the configured window.
func (r *redisRepo) expiration(chr *character.Character) time.Duration {
	if chr.OwnerID == "" {
		return r.ttl
	}
	return 0
}

// Create stores a new character
func (r *redisRepo) Create(ctx context.Context, chr *character.Character) error {
	if chr == nil {
		return sheeterr.InvalidArgument("character cannot be nil")
	}
	if chr.ID == "" {
		chr.ID = r.uuidGenerator.New()
	}

	exists, err := r.client.Exists(ctx, r.key(chr.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check character existence: %w", err)
	}
	if exists > 0 {
		return sheeterr.AlreadyExistsf("character with ID '%s' already exists", chr.ID).
			WithMeta("character_id", chr.ID)
	}

	chr.CreatedAt = time.Now().UTC()
	chr.UpdatedAt = chr.CreatedAt

	jsonData, err := json.Marshal(chr)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(chr.ID), jsonData, r.expiration(chr))
	if chr.OwnerID != "" {
		pipe.SAdd(ctx, r.ownerCharactersKey(chr.OwnerID), chr.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}

	return nil
}

// Get retrieves a character by ID. Documents are decoded through the
// migration path, so legacy formats come back in the current shape.
func (r *redisRepo) Get(ctx context.Context, id string) (*character.Character, error) {
	if id == "" {
		return nil, sheeterr.InvalidArgument("character ID is required")
	}

	jsonData, err := r.client.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sheeterr.NotFoundf("character with ID '%s' not found", id).
			WithMeta("character_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	chr, err := character.Unmarshal([]byte(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode character '%s': %w", id, err)
	}
	return chr, nil
}

// GetByOwner retrieves all characters for a specific owner
func (r *redisRepo) GetByOwner(ctx context.Context, ownerID string) ([]*character.Character, error) {
	if ownerID == "" {
		return nil, sheeterr.InvalidArgument("owner ID is required")
	}

	ids, err := r.client.SMembers(ctx, r.ownerCharactersKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list character IDs: %w", err)
	}

	result := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		chr, err := r.Get(ctx, id)
		if err != nil {
			// Skip characters that can't be loaded
			continue
		}
		result = append(result, chr)
	}
	return result, nil
}

// Update updates an existing character
func (r *redisRepo) Update(ctx context.Context, chr *character.Character) error {
	if chr == nil {
		return sheeterr.InvalidArgument("character cannot be nil")
	}
	if chr.ID == "" {
		return sheeterr.InvalidArgument("character ID is required")
	}

	existing, err := r.Get(ctx, chr.ID)
	if err != nil {
		return err
	}

	chr.CreatedAt = existing.CreatedAt
	chr.UpdatedAt = time.Now().UTC()

	jsonData, err := json.Marshal(chr)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	if err := r.client.Set(ctx, r.key(chr.ID), jsonData, r.expiration(chr)).Err(); err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}

	// Keep the owner index current when ownership changed.
	if existing.OwnerID != chr.OwnerID {
		pipe := r.client.Pipeline()
		if existing.OwnerID != "" {
			pipe.SRem(ctx, r.ownerCharactersKey(existing.OwnerID), chr.ID)
		}
		if chr.OwnerID != "" {
			pipe.SAdd(ctx, r.ownerCharactersKey(chr.OwnerID), chr.ID)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to update owner index: %w", err)
		}
	}

	return nil
}

// Delete removes a character
func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sheeterr.InvalidArgument("character ID is required")
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id))
	if existing.OwnerID != "" {
		pipe.SRem(ctx, r.ownerCharactersKey(existing.OwnerID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}
