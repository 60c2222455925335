// Package character is the orchestration layer between transports and the
// rules engine: every mutation loads the document, applies the change,
// runs a full recalculation, and persists the result.
package character

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
	"github.com/KirkDiggler/pf2e-sheet/internal/engine"
	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
	characterRepo "github.com/KirkDiggler/pf2e-sheet/internal/repositories/characters"
)

// Repository is an alias for the character repository interface
type Repository = characterRepo.Repository

// Service defines the character service interface
type Service interface {
	// Create creates a new character and runs the first recalculation
	Create(ctx context.Context, input *CreateInput) (*character.Character, error)

	// Get retrieves a character by ID
	Get(ctx context.Context, id string) (*character.Character, error)

	// List lists all characters for an owner
	List(ctx context.Context, ownerID string) ([]*character.Character, error)

	// Delete removes a character
	Delete(ctx context.Context, id string) error

	// SetLevel changes the character's level; feat entries above the new
	// level stay recorded but contribute nothing
	SetLevel(ctx context.Context, id string, level int) (*character.Character, error)

	// AddFeat records a feat selection at a level slot
	AddFeat(ctx context.Context, id string, sel character.FeatSelection) (*character.Character, error)

	// RemoveFeat removes a feat selection; derived state retains no trace
	RemoveFeat(ctx context.Context, id, featID string) (*character.Character, error)

	// SetChoice records or replaces a flagged answer inside a feat entry
	SetChoice(ctx context.Context, id, featID, flag, value string) (*character.Character, error)

	// PendingChoices lists the unanswered choices for one feat entry
	PendingChoices(ctx context.Context, id, featID string) ([]*engine.ChoiceRule, error)

	// AddCondition applies or raises a condition by ID
	AddCondition(ctx context.Context, id string, cond effects.Condition) (*character.Character, error)

	// RemoveCondition clears a condition
	RemoveCondition(ctx context.Context, id, conditionID string) (*character.Character, error)

	// AddBuff applies a named bonus or penalty
	AddBuff(ctx context.Context, id string, buff effects.Buff) (*character.Character, error)

	// RemoveBuff clears a buff
	RemoveBuff(ctx context.Context, id, buffID string) (*character.Character, error)

	// TickRound advances round-based durations on conditions and buffs
	TickRound(ctx context.Context, id string) (*character.Character, error)

	// Export encodes a character as a portable URL-safe string
	Export(ctx context.Context, id string) (string, error)

	// Import decodes an exported string, migrates legacy formats, and
	// stores the character under a fresh ID
	Import(ctx context.Context, ownerID, encoded string) (*character.Character, error)
}

// CreateInput contains all data needed to create a character
type CreateInput struct {
	OwnerID      string
	Name         string
	Level        int
	AncestryID   string
	HeritageID   string
	BackgroundID string
	ClassID      string

	AbilityBoosts character.AbilityBoosts
	VariantRules  *pf2e.VariantRules
}

// service implements the Service interface
type service struct {
	engine     *engine.Engine
	repository Repository
	calc       *effects.Calculator
	log        *zap.Logger
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Engine     *engine.Engine // Required
	Repository Repository     // Required
	Logger     *zap.Logger    // Optional
}

// NewService creates a new character service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Engine == nil {
		panic("engine is required")
	}
	if cfg.Repository == nil {
		panic("repository is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		engine:     cfg.Engine,
		repository: cfg.Repository,
		calc:       effects.NewCalculator(),
		log:        log,
	}
}

func (s *service) Create(ctx context.Context, input *CreateInput) (*character.Character, error) {
	if input == nil {
		return nil, sheeterr.InvalidArgument("input cannot be nil")
	}
	if input.Name == "" {
		return nil, sheeterr.InvalidArgument("character name is required")
	}

	chr := character.Migrate(&character.Character{
		OwnerID:       input.OwnerID,
		Name:          input.Name,
		Level:         input.Level,
		AncestryID:    input.AncestryID,
		HeritageID:    input.HeritageID,
		BackgroundID:  input.BackgroundID,
		ClassID:       input.ClassID,
		AbilityBoosts: input.AbilityBoosts,
	})
	if input.VariantRules != nil {
		chr.VariantRules = *input.VariantRules
	}

	resolved := s.engine.Recalculate(chr)
	if err := s.repository.Create(ctx, resolved); err != nil {
		return nil, err
	}

	s.log.Info("character created",
		zap.String("character_id", resolved.ID),
		zap.String("name", resolved.Name),
		zap.Int("level", resolved.Level))
	return resolved, nil
}

func (s *service) Get(ctx context.Context, id string) (*character.Character, error) {
	return s.repository.Get(ctx, id)
}

func (s *service) List(ctx context.Context, ownerID string) ([]*character.Character, error) {
	return s.repository.GetByOwner(ctx, ownerID)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repository.Delete(ctx, id)
}

func (s *service) SetLevel(ctx context.Context, id string, level int) (*character.Character, error) {
	if level < 1 || level > 20 {
		return nil, sheeterr.InvalidArgumentf("level must be between 1 and 20, got %d", level)
	}
	return s.mutate(ctx, id, func(chr *character.Character) error {
		chr.Level = level
		return nil
	})
}

func (s *service) AddFeat(ctx context.Context, id string, sel character.FeatSelection) (*character.Character, error) {
	if sel.FeatID == "" {
		return nil, sheeterr.InvalidArgument("feat ID is required")
	}
	return s.mutate(ctx, id, func(chr *character.Character) error {
		chr.Feats = append(chr.Feats, sel)
		return nil
	})
}

func (s *service) RemoveFeat(ctx context.Context, id, featID string) (*character.Character, error) {
	return s.mutate(ctx, id, func(chr *character.Character) error {
		kept := chr.Feats[:0]
		found := false
		for _, sel := range chr.Feats {
			if sel.FeatID == featID && !found {
				found = true
				continue
			}
			kept = append(kept, sel)
		}
		if !found {
			return sheeterr.NotFoundf("character has no feat '%s'", featID)
		}
		chr.Feats = kept
		return nil
	})
}

func (s *service) SetChoice(ctx context.Context, id, featID, flag, value string) (*character.Character, error) {
	if flag == "" {
		return nil, sheeterr.InvalidArgument("choice flag is required")
	}
	return s.mutate(ctx, id, func(chr *character.Character) error {
		sel, ok := chr.Feat(featID)
		if !ok {
			return sheeterr.NotFoundf("character has no feat '%s'", featID)
		}
		sel.SetChoice(flag, value)
		return nil
	})
}

func (s *service) PendingChoices(ctx context.Context, id, featID string) ([]*engine.ChoiceRule, error) {
	chr, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := s.engine.Lookup(featID)
	if !ok {
		return nil, sheeterr.NotFoundf("content item '%s' not found", featID)
	}

	sel, _ := chr.Feat(featID)
	var pending []*engine.ChoiceRule
	for _, choice := range s.engine.ItemChoices(item, chr) {
		if sel != nil {
			if _, answered := sel.Choice(choice.Flag); answered {
				continue
			}
		}
		pending = append(pending, choice)
	}
	return pending, nil
}

func (s *service) AddCondition(ctx context.Context, id string, cond effects.Condition) (*character.Character, error) {
	if cond.ID == "" {
		return nil, sheeterr.InvalidArgument("condition ID is required")
	}
	return s.mutate(ctx, id, func(chr *character.Character) error {
		for i := range chr.Conditions {
			if chr.Conditions[i].ID == cond.ID {
				chr.Conditions[i] = cond
				return nil
			}
		}
		chr.Conditions = append(chr.Conditions, cond)
		return nil
	})
}

func (s *service) RemoveCondition(ctx context.Context, id, conditionID string) (*character.Character, error) {
	return s.mutate(ctx, id, func(chr *character.Character) error {
		kept := chr.Conditions[:0]
		for _, cond := range chr.Conditions {
			if cond.ID != conditionID {
				kept = append(kept, cond)
			}
		}
		chr.Conditions = kept
		return nil
	})
}

func (s *service) AddBuff(ctx context.Context, id string, buff effects.Buff) (*character.Character, error) {
	if buff.ID == "" {
		return nil, sheeterr.InvalidArgument("buff ID is required")
	}
	return s.mutate(ctx, id, func(chr *character.Character) error {
		for i := range chr.Buffs {
			if chr.Buffs[i].ID == buff.ID {
				chr.Buffs[i] = buff
				return nil
			}
		}
		chr.Buffs = append(chr.Buffs, buff)
		return nil
	})
}

func (s *service) RemoveBuff(ctx context.Context, id, buffID string) (*character.Character, error) {
	return s.mutate(ctx, id, func(chr *character.Character) error {
		kept := chr.Buffs[:0]
		for _, buff := range chr.Buffs {
			if buff.ID != buffID {
				kept = append(kept, buff)
			}
		}
		chr.Buffs = kept
		return nil
	})
}

func (s *service) TickRound(ctx context.Context, id string) (*character.Character, error) {
	return s.mutate(ctx, id, func(chr *character.Character) error {
		chr.Conditions, chr.Buffs = s.calc.TickRound(chr.Conditions, chr.Buffs)
		return nil
	})
}

func (s *service) Export(ctx context.Context, id string) (string, error) {
	chr, err := s.repository.Get(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(chr)
	if err != nil {
		return "", sheeterr.Wrap(err, "failed to encode character for export")
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func (s *service) Import(ctx context.Context, ownerID, encoded string) (*character.Character, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "export string is not valid base64")
	}
	chr, err := character.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	// Imports get a fresh identity under the importing owner.
	chr.ID = ""
	chr.OwnerID = ownerID

	s.engine.AdoptLegacyChoices(chr)
	resolved := s.engine.Recalculate(chr)
	if err := s.repository.Create(ctx, resolved); err != nil {
		return nil, err
	}

	s.log.Info("character imported",
		zap.String("character_id", resolved.ID),
		zap.String("owner_id", ownerID))
	return resolved, nil
}

// mutate is the single write path: load, change, recalculate, persist.
func (s *service) mutate(ctx context.Context, id string, change func(*character.Character) error) (*character.Character, error) {
	chr, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(chr); err != nil {
		return nil, err
	}

	resolved := s.engine.Recalculate(chr)
	resolved.UpdatedAt = time.Now().UTC()
	if err := s.repository.Update(ctx, resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}
