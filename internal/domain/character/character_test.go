package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
)

func sampleCharacter() *Character {
	return Migrate(&Character{
		ID:      "char-1",
		Name:    "Valeros",
		Level:   5,
		ClassID: "class-fighter",
		AbilityBoosts: AbilityBoosts{
			Ancestry: []pf2e.Ability{pf2e.Strength},
			LevelUp:  map[int][]pf2e.Ability{5: {pf2e.Strength}},
		},
		Feats: []FeatSelection{
			{FeatID: "feat-a", Level: 1, Choices: []ChoiceSelection{{Flag: "skill", Value: "stealth"}}},
		},
		SkillIncreases: map[int]string{3: "Athletics"},
		Conditions:     []effects.Condition{{ID: "frightened", Value: 1}},
	})
}

func TestFeatSelection_Choices(t *testing.T) {
	sel := FeatSelection{FeatID: "feat-a"}

	_, ok := sel.Choice("skill")
	assert.False(t, ok)

	sel.SetChoice("skill", "stealth")
	value, ok := sel.Choice("skill")
	require.True(t, ok)
	assert.Equal(t, "stealth", value)

	sel.SetChoice("skill", "medicine")
	value, _ = sel.Choice("skill")
	assert.Equal(t, "medicine", value)
	assert.Len(t, sel.Choices, 1)
}

func TestCharacter_Feat(t *testing.T) {
	chr := sampleCharacter()

	sel, ok := chr.Feat("feat-a")
	require.True(t, ok)
	assert.Equal(t, 1, sel.Level)

	_, ok = chr.Feat("feat-missing")
	assert.False(t, ok)
}

func TestCharacter_Clone(t *testing.T) {
	original := sampleCharacter()
	original.Derived.Skills["Athletics"] = pf2e.Expert

	clone := original.Clone()
	require.Equal(t, original, clone)

	t.Run("mutating the clone leaves the original intact", func(t *testing.T) {
		clone.Level = 20
		clone.Feats[0].SetChoice("skill", "arcana")
		clone.AbilityBoosts.LevelUp[5] = append(clone.AbilityBoosts.LevelUp[5], pf2e.Wisdom)
		clone.SkillIncreases[7] = "Stealth"
		clone.Derived.Skills["Athletics"] = pf2e.Legendary
		clone.Conditions[0].Value = 3

		assert.Equal(t, 5, original.Level)
		value, _ := original.Feats[0].Choice("skill")
		assert.Equal(t, "stealth", value)
		assert.Len(t, original.AbilityBoosts.LevelUp[5], 1)
		assert.NotContains(t, original.SkillIncreases, 7)
		assert.Equal(t, pf2e.Expert, original.Derived.Skills["Athletics"])
		assert.Equal(t, 1, original.Conditions[0].Value)
	})
}

func TestSkillRank(t *testing.T) {
	chr := sampleCharacter()
	chr.Derived.Skills["Athletics"] = pf2e.Master

	assert.Equal(t, pf2e.Master, chr.SkillRank("Athletics"))
	assert.Equal(t, pf2e.Untrained, chr.SkillRank("Occultism"))
}
