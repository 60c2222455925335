// Package rulebook is the read-only content repository: the catalogue of
// feats, classes, ancestries, backgrounds, class features, deities and
// conditions the engine resolves characters against. Content is loaded
// once at process start and never mutated.
package rulebook

import (
	"encoding/json"
	"strings"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

// ItemType classifies a content item.
type ItemType string

const (
	ItemTypeFeat         ItemType = "feat"
	ItemTypeClass        ItemType = "class"
	ItemTypeAncestry     ItemType = "ancestry"
	ItemTypeHeritage     ItemType = "heritage"
	ItemTypeBackground   ItemType = "background"
	ItemTypeClassFeature ItemType = "class_feature"
	ItemTypeDeity        ItemType = "deity"
	ItemTypeSpell        ItemType = "spell"
	ItemTypeCondition    ItemType = "condition"
)

// Item is one content entry. Rules carries the raw declarative rule
// fragments exactly as authored; the engine parses them into typed
// descriptors.
type Item struct {
	ID          string            `json:"id"`
	Type        ItemType          `json:"type"`
	Name        string            `json:"name"`
	Level       int               `json:"level"`
	Traits      []string          `json:"traits,omitempty"`
	Rules       []json.RawMessage `json:"rules,omitempty"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"` // feat category: skill, general, class...

	Class      *ClassData      `json:"class,omitempty"`
	Ancestry   *AncestryData   `json:"ancestry,omitempty"`
	Background *BackgroundData `json:"background,omitempty"`
	Deity      *DeityData      `json:"deity,omitempty"`
}

// HasTrait reports whether the item carries a trait, case-insensitively.
func (i *Item) HasTrait(trait string) bool {
	for _, t := range i.Traits {
		if strings.EqualFold(t, trait) {
			return true
		}
	}
	return false
}

// IsDedication reports whether the item is a dedication-style archetype
// entry point. The dedication analyzer only runs on these.
func (i *Item) IsDedication() bool {
	return i.HasTrait("archetype") && i.HasTrait("dedication")
}

// Slug returns the normalized lookup key for the item name.
func (i *Item) Slug() string {
	return pf2e.Slugify(i.Name)
}

// InitialProficiencies are the ranks a class grants at level 1. Later
// upgrades arrive as class-feature items with their own rules.
type InitialProficiencies struct {
	Perception pf2e.Rank                        `json:"perception"`
	Fortitude  pf2e.Rank                        `json:"fortitude"`
	Reflex     pf2e.Rank                        `json:"reflex"`
	Will       pf2e.Rank                        `json:"will"`
	ClassDC    pf2e.Rank                        `json:"class_dc"`
	Weapons    map[pf2e.WeaponCategory]pf2e.Rank `json:"weapons,omitempty"`
	Armor      map[pf2e.ArmorCategory]pf2e.Rank  `json:"armor,omitempty"`
}

// SpellcastingStyle distinguishes prepared from spontaneous progression.
type SpellcastingStyle string

const (
	StylePrepared    SpellcastingStyle = "prepared"
	StyleSpontaneous SpellcastingStyle = "spontaneous"
)

// Spellcasting is a caster class's slot configuration. Slots maps
// character level to slots per spell rank (index 0 = cantrips).
type Spellcasting struct {
	Tradition string            `json:"tradition"`
	Style     SpellcastingStyle `json:"style"`
	Slots     map[int][]int     `json:"slots"`
}

// FeatureGrant schedules a class feature at a level.
type FeatureGrant struct {
	Level  int    `json:"level"`
	ItemID string `json:"item_id"`
}

// ClassData is the class-specific payload of a class item.
type ClassData struct {
	KeyAbility       pf2e.Ability         `json:"key_ability"`
	HP               int                  `json:"hp"`
	TrainedSkills    []string             `json:"trained_skills,omitempty"`
	FreeSkillCount   int                  `json:"free_skill_count"`
	Proficiencies    InitialProficiencies `json:"proficiencies"`
	Features         []FeatureGrant       `json:"features,omitempty"`
	Spellcasting     *Spellcasting        `json:"spellcasting,omitempty"`
	DefaultDCAbility pf2e.Ability         `json:"default_dc_ability,omitempty"`
}

// AncestryData is the ancestry-specific payload.
type AncestryData struct {
	HP        int            `json:"hp"`
	Speed     int            `json:"speed"`
	Boosts    []pf2e.Ability `json:"boosts,omitempty"`
	Flaws     []pf2e.Ability `json:"flaws,omitempty"`
	Languages []string       `json:"languages,omitempty"`
}

// BackgroundData is the background-specific payload.
type BackgroundData struct {
	Boosts        []pf2e.Ability `json:"boosts,omitempty"`
	TrainedSkills []string       `json:"trained_skills,omitempty"`
	GrantedFeat   string         `json:"granted_feat,omitempty"`
}

// DeityData is the deity-specific payload. The key skill feeds the
// dedication analyzer's transitive skill discovery.
type DeityData struct {
	KeySkill      string   `json:"key_skill,omitempty"`
	FavoredWeapon string   `json:"favored_weapon,omitempty"`
	DivineSkills  []string `json:"divine_skills,omitempty"`
}
