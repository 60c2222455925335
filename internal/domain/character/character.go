// Package character defines the persisted character document and its
// derived snapshot. The persisted part is the player's choices; everything
// else is rebuilt from scratch by the engine on every mutation.
package character

import (
	"time"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
)

// ChoiceSelection records one answer the player gave inside a feat or
// feature: which deity, which skill, which key attribute. Selections are
// keyed by flag so their order never matters.
type ChoiceSelection struct {
	Flag  string `json:"flag"`
	Value string `json:"value"`
}

// FeatSelection is one entry in the append-only feat record. Entries are
// never deleted on level-down; entries above the character's current level
// simply contribute no effects.
type FeatSelection struct {
	FeatID   string            `json:"feat_id"`
	Level    int               `json:"level"`
	Source   string            `json:"source,omitempty"` // class, ancestry, skill, general, archetype, bonus
	SlotType string            `json:"slot_type,omitempty"`
	Choices  []ChoiceSelection `json:"choices,omitempty"`

	// LegacyChoices holds pre-migration positional answers. The engine
	// resolves them onto flags once at import and clears the field.
	LegacyChoices []string `json:"-"`
}

// Choice returns the recorded answer for a flag.
func (f *FeatSelection) Choice(flag string) (string, bool) {
	for _, c := range f.Choices {
		if c.Flag == flag {
			return c.Value, true
		}
	}
	return "", false
}

// SetChoice records or replaces the answer for a flag.
func (f *FeatSelection) SetChoice(flag, value string) {
	for i, c := range f.Choices {
		if c.Flag == flag {
			f.Choices[i].Value = value
			return
		}
	}
	f.Choices = append(f.Choices, ChoiceSelection{Flag: flag, Value: value})
}

// AbilityBoosts are the persisted boost buckets. Ability scores are always
// derivable from these plus the ancestry flaws; they are never edited
// directly.
type AbilityBoosts struct {
	Ancestry   []pf2e.Ability         `json:"ancestry,omitempty"`
	Background []pf2e.Ability         `json:"background,omitempty"`
	Class      []pf2e.Ability         `json:"class,omitempty"`
	Free       []pf2e.Ability         `json:"free,omitempty"`
	LevelUp    map[int][]pf2e.Ability `json:"level_up,omitempty"`
}

// ClassDC is one derived class DC entry. Archetype dedications can add
// entries beyond the base class.
type ClassDC struct {
	Name    string       `json:"name"`
	Ability pf2e.Ability `json:"ability"`
	Rank    pf2e.Rank    `json:"rank"`
	DC      int          `json:"dc"`
}

// Save identifies one of the three saving throws.
type Save string

const (
	Fortitude Save = "fortitude"
	Reflex    Save = "reflex"
	Will      Save = "will"
)

// SpellSlots maps spell rank to available slots at the current level.
type SpellSlots map[int]int

// Derived is the snapshot rebuilt by every recalculation. It is computed
// into a fresh value and swapped onto the character in one assignment so a
// half-applied pass is never observable.
type Derived struct {
	AbilityScores       map[pf2e.Ability]int             `json:"ability_scores"`
	Skills              map[string]pf2e.Rank             `json:"skills"`
	WeaponProficiencies map[pf2e.WeaponCategory]pf2e.Rank `json:"weapon_proficiencies"`
	ArmorProficiencies  map[pf2e.ArmorCategory]pf2e.Rank  `json:"armor_proficiencies"`
	ClassDCs            []ClassDC                        `json:"class_dcs,omitempty"`
	Languages           []string                         `json:"languages,omitempty"`
	PerceptionRank      pf2e.Rank                        `json:"perception_rank"`
	Perception          int                              `json:"perception"`
	SaveRanks           map[Save]pf2e.Rank               `json:"save_ranks"`
	Saves               map[Save]int                     `json:"saves"`
	MaxHP               int                              `json:"max_hp"`
	AC                  int                              `json:"ac"`
	Spellcaster         bool                             `json:"spellcaster,omitempty"`
	SpellTradition      string                           `json:"spell_tradition,omitempty"`
	SpellSlots          SpellSlots                       `json:"spell_slots,omitempty"`
}

// NewDerived returns an empty snapshot with every table allocated and
// untrained.
func NewDerived() Derived {
	return Derived{
		AbilityScores:       make(map[pf2e.Ability]int),
		Skills:              make(map[string]pf2e.Rank),
		WeaponProficiencies: make(map[pf2e.WeaponCategory]pf2e.Rank),
		ArmorProficiencies:  make(map[pf2e.ArmorCategory]pf2e.Rank),
		SaveRanks:           make(map[Save]pf2e.Rank),
		Saves:               make(map[Save]int),
		SpellSlots:          make(SpellSlots),
	}
}

// Character is the document root. Only the identity, choice, condition and
// buff fields are authoritative; Derived is a pure function of them.
type Character struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id,omitempty"`
	Name             string `json:"name"`
	Level            int    `json:"level"`
	AncestryID       string `json:"ancestry_id,omitempty"`
	HeritageID       string `json:"heritage_id,omitempty"`
	BackgroundID     string `json:"background_id,omitempty"`
	ClassID          string `json:"class_id,omitempty"`
	SecondaryClassID string `json:"secondary_class_id,omitempty"`

	AbilityBoosts AbilityBoosts  `json:"ability_boosts"`
	AncestryFlaws []pf2e.Ability `json:"ancestry_flaws,omitempty"`

	Feats []FeatSelection `json:"feats"`

	// Level-keyed records of which skill was upgraded where. Recalculation
	// must reproduce the same picks, not just a flat count.
	IntBonusSkills map[int]string `json:"int_bonus_skills,omitempty"`
	SkillIncreases map[int]string `json:"skill_increases,omitempty"`

	Conditions []effects.Condition `json:"conditions,omitempty"`
	Buffs      []effects.Buff      `json:"buffs,omitempty"`

	VariantRules pf2e.VariantRules `json:"variant_rules"`

	Derived Derived `json:"derived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feat returns the first recorded selection of a feat, if any.
func (c *Character) Feat(featID string) (*FeatSelection, bool) {
	for i := range c.Feats {
		if c.Feats[i].FeatID == featID {
			return &c.Feats[i], true
		}
	}
	return nil, false
}

// SkillRank returns the derived rank for a skill, untrained if absent.
func (c *Character) SkillRank(name string) pf2e.Rank {
	return c.Derived.Skills[name]
}

// Clone returns a deep copy. The engine clones its input so recalculation
// never mutates the caller's document in place.
func (c *Character) Clone() *Character {
	clone := *c

	clone.AbilityBoosts = AbilityBoosts{
		Ancestry:   append([]pf2e.Ability(nil), c.AbilityBoosts.Ancestry...),
		Background: append([]pf2e.Ability(nil), c.AbilityBoosts.Background...),
		Class:      append([]pf2e.Ability(nil), c.AbilityBoosts.Class...),
		Free:       append([]pf2e.Ability(nil), c.AbilityBoosts.Free...),
	}
	if c.AbilityBoosts.LevelUp != nil {
		clone.AbilityBoosts.LevelUp = make(map[int][]pf2e.Ability, len(c.AbilityBoosts.LevelUp))
		for level, boosts := range c.AbilityBoosts.LevelUp {
			clone.AbilityBoosts.LevelUp[level] = append([]pf2e.Ability(nil), boosts...)
		}
	}
	clone.AncestryFlaws = append([]pf2e.Ability(nil), c.AncestryFlaws...)

	clone.Feats = make([]FeatSelection, len(c.Feats))
	for i, feat := range c.Feats {
		clone.Feats[i] = feat
		clone.Feats[i].Choices = append([]ChoiceSelection(nil), feat.Choices...)
		clone.Feats[i].LegacyChoices = append([]string(nil), feat.LegacyChoices...)
	}

	clone.IntBonusSkills = copyIntMap(c.IntBonusSkills)
	clone.SkillIncreases = copyIntMap(c.SkillIncreases)
	clone.Conditions = append([]effects.Condition(nil), c.Conditions...)
	clone.Buffs = append([]effects.Buff(nil), c.Buffs...)
	clone.Derived = c.Derived.clone()

	return &clone
}

func (d Derived) clone() Derived {
	out := d
	out.AbilityScores = copyMap(d.AbilityScores)
	out.Skills = copyMap(d.Skills)
	out.WeaponProficiencies = copyMap(d.WeaponProficiencies)
	out.ArmorProficiencies = copyMap(d.ArmorProficiencies)
	out.ClassDCs = append([]ClassDC(nil), d.ClassDCs...)
	out.Languages = append([]string(nil), d.Languages...)
	out.SaveRanks = copyMap(d.SaveRanks)
	out.Saves = copyMap(d.Saves)
	out.SpellSlots = copyMap(d.SpellSlots)
	return out
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyIntMap(in map[int]string) map[int]string {
	return copyMap(in)
}
