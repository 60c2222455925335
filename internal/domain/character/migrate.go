package character

import (
	"encoding/json"
	"time"

	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
)

// UnmarshalJSON accepts both the current choice format ({flag, value}
// pairs) and the legacy positional string array. Legacy values land in
// LegacyChoices for the engine to resolve onto flags at import time.
func (f *FeatSelection) UnmarshalJSON(data []byte) error {
	type alias struct {
		FeatID   string            `json:"feat_id"`
		Level    int               `json:"level"`
		Source   string            `json:"source"`
		SlotType string            `json:"slot_type"`
		Choices  []json.RawMessage `json:"choices"`
	}

	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.FeatID = aux.FeatID
	f.Level = aux.Level
	f.Source = aux.Source
	f.SlotType = aux.SlotType
	f.Choices = nil
	f.LegacyChoices = nil

	for _, raw := range aux.Choices {
		var pair ChoiceSelection
		if err := json.Unmarshal(raw, &pair); err == nil && pair.Flag != "" {
			f.Choices = append(f.Choices, pair)
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil {
			f.LegacyChoices = append(f.LegacyChoices, value)
			continue
		}
		// Unrecognized choice shapes are dropped rather than failing the
		// whole document.
	}

	return nil
}

// Migrate brings a decoded character forward: missing fields get safe
// defaults so older documents can enter the engine unchanged in meaning.
func Migrate(c *Character) *Character {
	if c.Level < 1 {
		c.Level = 1
	}
	if c.Level > 20 {
		c.Level = 20
	}
	if c.Feats == nil {
		c.Feats = []FeatSelection{}
	}
	if c.IntBonusSkills == nil {
		c.IntBonusSkills = make(map[int]string)
	}
	if c.SkillIncreases == nil {
		c.SkillIncreases = make(map[int]string)
	}
	if c.Derived.Skills == nil {
		c.Derived = NewDerived()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return c
}

// Unmarshal decodes a persisted character document and migrates it
// forward. A corrupt document is an explicit failure; no partial character
// is returned.
func Unmarshal(data []byte) (*Character, error) {
	var c Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, sheeterr.WrapWithCode(err, sheeterr.CodeValidation, "failed to decode character document")
	}
	if c.ID == "" {
		return nil, sheeterr.Validation("character document has no id")
	}
	return Migrate(&c), nil
}
