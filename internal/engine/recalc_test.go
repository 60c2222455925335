package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
)

func TestRecalculate_Baseline(t *testing.T) {
	e := fixtureEngine()
	chr := e.Recalculate(fighter(5))

	t.Run("ability scores from boosts", func(t *testing.T) {
		assert.Equal(t, 18, chr.Derived.AbilityScores[pf2e.Strength])
		assert.Equal(t, 14, chr.Derived.AbilityScores[pf2e.Dexterity])
		assert.Equal(t, 14, chr.Derived.AbilityScores[pf2e.Constitution])
		assert.Equal(t, 10, chr.Derived.AbilityScores[pf2e.Intelligence])
	})

	t.Run("class and background skills", func(t *testing.T) {
		assert.Equal(t, pf2e.Trained, chr.Derived.Skills["Athletics"])
		assert.Equal(t, pf2e.Trained, chr.Derived.Skills["Intimidation"])
		assert.Equal(t, pf2e.Trained, chr.Derived.Skills["Warfare Lore"])
	})

	t.Run("initial proficiencies", func(t *testing.T) {
		assert.Equal(t, pf2e.Expert, chr.Derived.WeaponProficiencies[pf2e.WeaponMartial])
		assert.Equal(t, pf2e.Trained, chr.Derived.ArmorProficiencies[pf2e.ArmorHeavy])
		assert.Equal(t, pf2e.Expert, chr.Derived.SaveRanks[character.Fortitude])
		assert.Equal(t, pf2e.Trained, chr.Derived.SaveRanks[character.Will])
		assert.Equal(t, pf2e.Expert, chr.Derived.PerceptionRank)
	})

	t.Run("derived totals", func(t *testing.T) {
		assert.Equal(t, 68, chr.Derived.MaxHP)                // 8 ancestry + (10+2)*5
		assert.Equal(t, 19, chr.Derived.AC)                  // 10 + 2 dex + trained(7)
		assert.Equal(t, 11, chr.Derived.Saves[character.Fortitude])
		assert.Equal(t, 9, chr.Derived.Saves[character.Will])
		assert.Equal(t, 11, chr.Derived.Perception)

		require.Len(t, chr.Derived.ClassDCs, 1)
		assert.Equal(t, "Fighter", chr.Derived.ClassDCs[0].Name)
		assert.Equal(t, 21, chr.Derived.ClassDCs[0].DC) // 10 + 4 str + trained(7)
	})

	t.Run("ancestry language", func(t *testing.T) {
		assert.Contains(t, chr.Derived.Languages, "Common")
	})
}

func TestRecalculate_Idempotence(t *testing.T) {
	e := fixtureEngine()

	chr := fighter(5)
	chr.Feats = append(chr.Feats,
		character.FeatSelection{FeatID: "feat-skill-training", Level: 2, Source: "skill",
			Choices: []character.ChoiceSelection{{Flag: "skill", Value: "stealth"}}},
		character.FeatSelection{FeatID: "feat-medic-dedication", Level: 4, Source: "class"},
	)

	once := e.Recalculate(chr)
	twice := e.Recalculate(once)

	assert.Equal(t, once.Derived, twice.Derived)
	assert.Equal(t, once.Feats, twice.Feats)
}

func TestRecalculate_InputNotMutated(t *testing.T) {
	e := fixtureEngine()
	chr := fighter(5)

	_ = e.Recalculate(chr)

	// The input keeps its empty derived tables; only the returned copy
	// carries the snapshot.
	assert.Empty(t, chr.Derived.Skills)
}

func TestRecalculate_LevelGating(t *testing.T) {
	e := fixtureEngine()

	build := fighter(20)
	build.Feats = append(build.Feats,
		character.FeatSelection{FeatID: "feat-skill-training", Level: 2,
			Choices: []character.ChoiceSelection{{Flag: "skill", Value: "stealth"}}},
		character.FeatSelection{FeatID: "feat-medic-dedication", Level: 12},
	)

	t.Run("high-level entries are inert at low level", func(t *testing.T) {
		atTwenty := e.Recalculate(build)
		assert.Equal(t, pf2e.Trained, atTwenty.Derived.Skills["Medicine"])
		assert.Equal(t, pf2e.Expert, atTwenty.Derived.ArmorProficiencies[pf2e.ArmorHeavy])

		down := atTwenty.Clone()
		down.Level = 5
		atFive := e.Recalculate(down)

		assert.Equal(t, pf2e.Untrained, atFive.Derived.Skills["Medicine"])
		assert.Equal(t, pf2e.Trained, atFive.Derived.ArmorProficiencies[pf2e.ArmorHeavy])
		assert.Equal(t, pf2e.Trained, atFive.Derived.Skills["Stealth"])

		// No feat entries were lost on the way down.
		assert.Equal(t, atTwenty.Feats, atFive.Feats)

		t.Run("levelling back up restores the original state", func(t *testing.T) {
			up := atFive.Clone()
			up.Level = 20
			restored := e.Recalculate(up)

			assert.Equal(t, atTwenty.Derived, restored.Derived)
			assert.Equal(t, atTwenty.Feats, restored.Feats)
		})
	})

	t.Run("level-up boosts above current level are inert", func(t *testing.T) {
		low := fighter(4)
		atFour := e.Recalculate(low)
		assert.Equal(t, 16, atFour.Derived.AbilityScores[pf2e.Strength])
	})
}

func TestRecalculate_NoResidue(t *testing.T) {
	e := fixtureEngine()

	withFeat := fighter(5)
	withFeat.Feats = append(withFeat.Feats, character.FeatSelection{
		FeatID:  "feat-skill-training",
		Level:   2,
		Choices: []character.ChoiceSelection{{Flag: "skill", Value: "stealth"}},
	})

	resolved := e.Recalculate(withFeat)
	require.Equal(t, pf2e.Trained, resolved.Derived.Skills["Stealth"])

	// Retraining: drop the feat from the resolved character and
	// recalculate. The result must match a character that never had it.
	removed := resolved.Clone()
	removed.Feats = removed.Feats[:0]
	after := e.Recalculate(removed)

	never := e.Recalculate(fighter(5))
	assert.Equal(t, never.Derived, after.Derived)
	assert.Equal(t, pf2e.Untrained, after.Derived.Skills["Stealth"])
}

func TestRecalculate_Spellcasting(t *testing.T) {
	e := fixtureEngine()

	wizard := character.Migrate(&character.Character{
		ID:      "char-wiz",
		Name:    "Ezren",
		Level:   3,
		ClassID: "class-wizard",
	})

	chr := e.Recalculate(wizard)
	assert.True(t, chr.Derived.Spellcaster)
	assert.Equal(t, "arcane", chr.Derived.SpellTradition)
	assert.Equal(t, character.SpellSlots{0: 5, 1: 3, 2: 2}, chr.Derived.SpellSlots)

	t.Run("slot row falls back to the highest configured level", func(t *testing.T) {
		wizard.Level = 4 // no explicit row; row 3 applies
		chr := e.Recalculate(wizard)
		assert.Equal(t, character.SpellSlots{0: 5, 1: 3, 2: 2}, chr.Derived.SpellSlots)
	})

	t.Run("non-casters get no slots", func(t *testing.T) {
		chr := e.Recalculate(fighter(5))
		assert.False(t, chr.Derived.Spellcaster)
		assert.Empty(t, chr.Derived.SpellSlots)
	})
}

func TestRecalculate_ClassFeatures(t *testing.T) {
	e := fixtureEngine()

	t.Run("feature roll options become facts", func(t *testing.T) {
		// Combat Flexibility arrives at 9 and only sets a roll option;
		// reaching it must not disturb anything else.
		nine := fighter(5)
		nine.Level = 9
		chr := e.Recalculate(nine)
		assert.Equal(t, pf2e.Trained, chr.Derived.ArmorProficiencies[pf2e.ArmorHeavy])
	})

	t.Run("armor expertise lands at 11", func(t *testing.T) {
		eleven := fighter(5)
		eleven.Level = 11
		chr := e.Recalculate(eleven)
		assert.Equal(t, pf2e.Expert, chr.Derived.ArmorProficiencies[pf2e.ArmorHeavy])
	})
}

func TestRecalculate_SkillRecords(t *testing.T) {
	e := fixtureEngine()

	chr := fighter(5)
	chr.IntBonusSkills[1] = "Society"
	chr.SkillIncreases[3] = "Athletics"
	chr.SkillIncreases[5] = "Intimidation"
	chr.SkillIncreases[7] = "Athletics" // above level, inert

	resolved := e.Recalculate(chr)
	assert.Equal(t, pf2e.Trained, resolved.Derived.Skills["Society"])
	assert.Equal(t, pf2e.Expert, resolved.Derived.Skills["Athletics"])
	assert.Equal(t, pf2e.Expert, resolved.Derived.Skills["Intimidation"])
}

func TestRecalculate_VariantRules(t *testing.T) {
	e := fixtureEngine()

	t.Run("proficiency without level", func(t *testing.T) {
		chr := fighter(5)
		chr.VariantRules.ProficiencyWithoutLevel = true
		resolved := e.Recalculate(chr)

		// Trained armor is +2 instead of +7.
		assert.Equal(t, 14, resolved.Derived.AC)
	})

	t.Run("automatic bonus progression", func(t *testing.T) {
		chr := fighter(5)
		chr.VariantRules.AutomaticBonusProgression = true
		resolved := e.Recalculate(chr)

		base := e.Recalculate(fighter(5))
		assert.Equal(t, base.Derived.AC+1, resolved.Derived.AC)

		// Attack potency reaches the class DC at level 2.
		require.Len(t, resolved.Derived.ClassDCs, 1)
		assert.Equal(t, base.Derived.ClassDCs[0].DC+1, resolved.Derived.ClassDCs[0].DC)
	})

	t.Run("gradual ability boosts spread the level-up sets", func(t *testing.T) {
		chr := fighter(5)
		chr.VariantRules.GradualAbilityBoosts = true
		chr.AbilityBoosts.LevelUp = map[int][]pf2e.Ability{
			2: {pf2e.Strength},
			3: {pf2e.Dexterity},
			4: {pf2e.Constitution},
			5: {pf2e.Wisdom},
		}
		resolved := e.Recalculate(chr)

		// One boost per level from 2 through 5 lands where the standard
		// four-at-level-5 set does.
		base := e.Recalculate(fighter(5))
		assert.Equal(t, base.Derived.AbilityScores, resolved.Derived.AbilityScores)
	})

	t.Run("gradual caps each level-up bucket at one boost", func(t *testing.T) {
		chr := fighter(5)
		chr.VariantRules.GradualAbilityBoosts = true
		resolved := e.Recalculate(chr)

		// Only the first boost of the standard level-5 set counts.
		assert.Equal(t, 18, resolved.Derived.AbilityScores[pf2e.Strength])
		assert.Equal(t, 12, resolved.Derived.AbilityScores[pf2e.Dexterity])
	})

	t.Run("off-cadence level-up buckets are inert", func(t *testing.T) {
		chr := fighter(5)
		chr.AbilityBoosts.LevelUp[3] = []pf2e.Ability{pf2e.Intelligence}
		resolved := e.Recalculate(chr)
		assert.Equal(t, 10, resolved.Derived.AbilityScores[pf2e.Intelligence])
	})

	t.Run("dual class applies both classes", func(t *testing.T) {
		chr := fighter(5)
		chr.SecondaryClassID = "class-wizard"
		chr.VariantRules.DualClass = true
		resolved := e.Recalculate(chr)

		assert.Equal(t, pf2e.Trained, resolved.Derived.Skills["Arcana"])
		assert.Equal(t, pf2e.Expert, resolved.Derived.SaveRanks[character.Will])
		assert.Len(t, resolved.Derived.ClassDCs, 2)
	})
}

func TestRecalculate_ConditionsAndBuffs(t *testing.T) {
	e := fixtureEngine()

	chr := fighter(5)
	chr.Conditions = append(chr.Conditions, effects.Condition{ID: "frightened", Value: 1})
	chr.Buffs = append(chr.Buffs, effects.Buff{
		ID: "shield", Name: "Shield", Bonus: 2, Type: effects.TypeCircumstance, Selector: effects.SelectorAC,
	})

	base := e.Recalculate(fighter(5))
	resolved := e.Recalculate(chr)

	// +2 circumstance to AC, -1 status everywhere from frightened.
	assert.Equal(t, base.Derived.AC+1, resolved.Derived.AC)
	assert.Equal(t, base.Derived.Perception-1, resolved.Derived.Perception)
}

func TestRecalculate_MissingContent(t *testing.T) {
	e := fixtureEngine()

	chr := fighter(5)
	chr.Feats = append(chr.Feats, character.FeatSelection{FeatID: "feat-does-not-exist-anywhere", Level: 1})

	// A lookup miss skips the entry and never aborts the pass.
	resolved := e.Recalculate(chr)
	assert.Equal(t, pf2e.Trained, resolved.Derived.Skills["Athletics"])
	assert.Len(t, resolved.Feats, 1)
}
