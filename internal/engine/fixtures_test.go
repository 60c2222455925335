package engine

import (
	"encoding/json"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

// fixtureStore builds a small but complete content repository: a martial
// class with features, an ancestry, a background, a handful of feats and
// two dedication items.
func fixtureStore() *rulebook.Store {
	items := []*rulebook.Item{
		{
			ID:   "class-fighter",
			Type: rulebook.ItemTypeClass,
			Name: "Fighter",
			Class: &rulebook.ClassData{
				KeyAbility:     pf2e.Strength,
				HP:             10,
				TrainedSkills:  []string{"Athletics"},
				FreeSkillCount: 3,
				Proficiencies: rulebook.InitialProficiencies{
					Perception: pf2e.Expert,
					Fortitude:  pf2e.Expert,
					Reflex:     pf2e.Expert,
					Will:       pf2e.Trained,
					ClassDC:    pf2e.Trained,
					Weapons: map[pf2e.WeaponCategory]pf2e.Rank{
						pf2e.WeaponUnarmed: pf2e.Expert,
						pf2e.WeaponSimple:  pf2e.Expert,
						pf2e.WeaponMartial: pf2e.Expert,
					},
					Armor: map[pf2e.ArmorCategory]pf2e.Rank{
						pf2e.ArmorLight:  pf2e.Trained,
						pf2e.ArmorMedium: pf2e.Trained,
						pf2e.ArmorHeavy:  pf2e.Trained,
					},
				},
				Features: []rulebook.FeatureGrant{
					{Level: 9, ItemID: "feature-combat-flexibility"},
					{Level: 11, ItemID: "feature-armor-expertise"},
				},
			},
		},
		{
			ID:   "class-wizard",
			Type: rulebook.ItemTypeClass,
			Name: "Wizard",
			Class: &rulebook.ClassData{
				KeyAbility:    pf2e.Intelligence,
				HP:            6,
				TrainedSkills: []string{"Arcana"},
				Proficiencies: rulebook.InitialProficiencies{
					Perception: pf2e.Trained,
					Fortitude:  pf2e.Trained,
					Reflex:     pf2e.Trained,
					Will:       pf2e.Expert,
					ClassDC:    pf2e.Trained,
					Weapons: map[pf2e.WeaponCategory]pf2e.Rank{
						pf2e.WeaponUnarmed: pf2e.Trained,
						pf2e.WeaponSimple:  pf2e.Trained,
					},
				},
				Spellcasting: &rulebook.Spellcasting{
					Tradition: "arcane",
					Style:     rulebook.StylePrepared,
					Slots: map[int][]int{
						1: {5, 2},
						2: {5, 3},
						3: {5, 3, 2},
						5: {5, 3, 3, 2},
					},
				},
			},
		},
		{
			ID:   "feature-armor-expertise",
			Type: rulebook.ItemTypeClassFeature,
			Name: "Armor Expertise",
			Rules: []json.RawMessage{
				raw(`{"key":"ActiveEffectLike","path":"system.proficiencies.defenses.light.rank","mode":"upgrade","value":2}`),
				raw(`{"key":"ActiveEffectLike","path":"system.proficiencies.defenses.medium.rank","mode":"upgrade","value":2}`),
				raw(`{"key":"ActiveEffectLike","path":"system.proficiencies.defenses.heavy.rank","mode":"upgrade","value":2}`),
			},
		},
		{
			ID:   "feature-combat-flexibility",
			Type: rulebook.ItemTypeClassFeature,
			Name: "Combat Flexibility",
			Rules: []json.RawMessage{
				raw(`{"key":"RollOption","domain":"all","option":"feature:combat-flexibility"}`),
			},
		},
		{
			ID:   "ancestry-human",
			Type: rulebook.ItemTypeAncestry,
			Name: "Human",
			Ancestry: &rulebook.AncestryData{
				HP:        8,
				Speed:     25,
				Languages: []string{"Common"},
			},
		},
		{
			ID:   "background-warrior",
			Type: rulebook.ItemTypeBackground,
			Name: "Warrior",
			Background: &rulebook.BackgroundData{
				TrainedSkills: []string{"Intimidation", "Warfare Lore"},
			},
		},
		{
			ID:    "feat-intimidating-glare",
			Type:  rulebook.ItemTypeFeat,
			Name:  "Intimidating Glare",
			Level: 1,
		},
		{
			ID:    "feat-skill-training",
			Type:  rulebook.ItemTypeFeat,
			Name:  "Skill Training",
			Level: 1,
			Rules: []json.RawMessage{
				raw(`{"key":"ChoiceSet","flag":"skill","prompt":"Choose a skill to become trained in","config":"skills"}`),
				raw(`{"key":"ActiveEffectLike","path":"system.skills.{item|flags.pf2e.rulesSelections.skill}.rank","mode":"upgrade","value":1}`),
			},
		},
		{
			ID:     "feat-medic-dedication",
			Type:   rulebook.ItemTypeFeat,
			Name:   "Medic Dedication",
			Level:  2,
			Traits: []string{"archetype", "dedication"},
			Description: "You become trained in Medicine. If you were already trained in Medicine, " +
				"you instead become trained in a skill of your choice, and you become an expert in Medicine.",
			Rules: []json.RawMessage{
				raw(`{"key":"ActiveEffectLike","path":"system.skills.medicine.rank","mode":"upgrade","value":1}`),
			},
		},
		{
			ID:     "feat-champion-dedication",
			Type:   rulebook.ItemTypeFeat,
			Name:   "Champion Dedication",
			Level:  2,
			Traits: []string{"archetype", "dedication"},
			Description: "Choose a deity. You become trained in Religion and your deity's associated skill; " +
				"for each of these skills in which you were already trained, you instead become trained in a skill of your choice. " +
				"You become trained in your choice's class DC.",
			Rules: []json.RawMessage{
				raw(`{"key":"ChoiceSet","flag":"deity","prompt":"Choose a deity","choices":[{"label":"Sarenrae","value":"Sarenrae"},{"label":"Gorum","value":"Gorum"}]}`),
				raw(`{"key":"ActiveEffectLike","path":"system.skills.religion.rank","mode":"upgrade","value":1}`),
			},
		},
		{
			ID:   "deity-sarenrae",
			Type: rulebook.ItemTypeDeity,
			Name: "Sarenrae",
			Deity: &rulebook.DeityData{
				KeySkill:      "Medicine",
				FavoredWeapon: "scimitar",
			},
		},
		{
			ID:   "deity-gorum",
			Type: rulebook.ItemTypeDeity,
			Name: "Gorum",
			Deity: &rulebook.DeityData{
				KeySkill:      "Athletics",
				FavoredWeapon: "greatsword",
			},
		},
		{
			ID:     "feat-wizard-dedication",
			Type:   rulebook.ItemTypeFeat,
			Name:   "Wizard Dedication",
			Level:  2,
			Traits: []string{"archetype", "dedication"},
			Description: "You cast spells like a wizard. You become trained in Arcana; if you were " +
				"already trained in Arcana, you instead become trained in a skill of your choice.",
			Rules: []json.RawMessage{
				raw(`{"key":"ActiveEffectLike","path":"system.skills.arcana.rank","mode":"upgrade","value":1}`),
				raw(`{"key":"ActiveEffectLike","path":"system.spellcasting","mode":"override","value":1}`),
			},
		},
	}
	return rulebook.NewStore(items)
}

func fixtureEngine() *Engine {
	return New(fixtureStore(), nil)
}

// fighter returns a level-5 fighter with warrior background, trained in
// Athletics (class), Intimidation and Warfare Lore (background).
func fighter(level int) *character.Character {
	return character.Migrate(&character.Character{
		ID:           "char-1",
		Name:         "Valeros",
		Level:        level,
		AncestryID:   "ancestry-human",
		BackgroundID: "background-warrior",
		ClassID:      "class-fighter",
		AbilityBoosts: character.AbilityBoosts{
			Ancestry:   []pf2e.Ability{pf2e.Strength, pf2e.Constitution},
			Background: []pf2e.Ability{pf2e.Strength},
			Class:      []pf2e.Ability{pf2e.Strength},
			Free:       []pf2e.Ability{pf2e.Dexterity, pf2e.Wisdom},
			LevelUp: map[int][]pf2e.Ability{
				5: {pf2e.Strength, pf2e.Dexterity, pf2e.Constitution, pf2e.Wisdom},
			},
		},
	})
}
