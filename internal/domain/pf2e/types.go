// Package pf2e holds the shared vocabulary of the Pathfinder 2e Remastered
// ruleset: proficiency ranks, abilities, skills, and equipment categories.
package pf2e

import "strings"

// Rank is a proficiency rank. Ranks are totally ordered and only ever
// move upward during a single recalculation pass.
type Rank int

const (
	Untrained Rank = iota
	Trained
	Expert
	Master
	Legendary
)

var rankNames = [...]string{"untrained", "trained", "expert", "master", "legendary"}

func (r Rank) String() string {
	if r < Untrained || r > Legendary {
		return "untrained"
	}
	return rankNames[r]
}

// Clamp returns the rank limited to the valid range.
func (r Rank) Clamp() Rank {
	if r < Untrained {
		return Untrained
	}
	if r > Legendary {
		return Legendary
	}
	return r
}

// Bonus returns the proficiency bonus the rank contributes. Under the
// proficiency-without-level variant the character level is not added.
func (r Rank) Bonus(level int, withoutLevel bool) int {
	if r == Untrained {
		return 0
	}
	if withoutLevel {
		return int(r) * 2
	}
	return int(r)*2 + level
}

// Ability is one of the six ability scores.
type Ability string

const (
	Strength     Ability = "str"
	Dexterity    Ability = "dex"
	Constitution Ability = "con"
	Intelligence Ability = "int"
	Wisdom       Ability = "wis"
	Charisma     Ability = "cha"
)

// Abilities lists the six abilities in their conventional order.
var Abilities = []Ability{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Modifier converts an ability score to its modifier.
func Modifier(score int) int {
	if score >= 10 {
		return (score - 10) / 2
	}
	// Integer division truncates toward zero; odd scores below 10 need the
	// extra -1.
	return (score - 11) / 2
}

// WeaponCategory groups weapons for proficiency purposes.
type WeaponCategory string

const (
	WeaponUnarmed WeaponCategory = "unarmed"
	WeaponSimple  WeaponCategory = "simple"
	WeaponMartial WeaponCategory = "martial"
)

// ArmorCategory groups armor for proficiency purposes.
type ArmorCategory string

const (
	ArmorLight  ArmorCategory = "light"
	ArmorMedium ArmorCategory = "medium"
	ArmorHeavy  ArmorCategory = "heavy"
)

// Skills is the canonical skill list with each skill's key ability.
// Lore skills are open-ended and handled by name; everything else is here.
var Skills = map[string]Ability{
	"Acrobatics":   Dexterity,
	"Arcana":       Intelligence,
	"Athletics":    Strength,
	"Crafting":     Intelligence,
	"Deception":    Charisma,
	"Diplomacy":    Charisma,
	"Intimidation": Charisma,
	"Medicine":     Wisdom,
	"Nature":       Wisdom,
	"Occultism":    Intelligence,
	"Performance":  Charisma,
	"Religion":     Wisdom,
	"Society":      Intelligence,
	"Stealth":      Dexterity,
	"Survival":     Wisdom,
	"Thievery":     Dexterity,
}

// CanonicalSkill returns the canonical casing for a skill name, matching
// case-insensitively. ok is false for names that are not core skills.
func CanonicalSkill(name string) (string, bool) {
	for skill := range Skills {
		if strings.EqualFold(skill, name) {
			return skill, true
		}
	}
	return "", false
}

// SkillAbility returns the key ability for a skill. Lore skills key off
// Intelligence.
func SkillAbility(name string) Ability {
	if ability, ok := Skills[name]; ok {
		return ability
	}
	if strings.HasSuffix(name, "Lore") || strings.HasSuffix(name, "lore") {
		return Intelligence
	}
	return Intelligence
}

// VariantRules are the optional rules that change formulas, never the shape
// of the character document.
type VariantRules struct {
	GradualAbilityBoosts      bool `json:"gradual_ability_boosts"`
	ProficiencyWithoutLevel   bool `json:"proficiency_without_level"`
	AutomaticBonusProgression bool `json:"automatic_bonus_progression"`
	DualClass                 bool `json:"dual_class"`
}

// Slugify normalizes an item name for fuzzy lookup: lower-case with
// spaces, apostrophes and hyphens removed.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\'', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
