package engine

import (
	"strings"

	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

// maxGrantDepth bounds transitive GrantItem chains. Content never nests
// deeper than a feature granting a feature.
const maxGrantDepth = 8

// applyItem walks an item's rules and mutates the working accumulator.
// sel carries the player's recorded answers for this item; it may be nil
// for items applied without a feat slot (class features, granted feats).
func (e *Engine) applyItem(st *State, item *rulebook.Item, sel *character.FeatSelection) {
	e.applyItemDepth(st, item, sel, 0, map[string]bool{})
}

func (e *Engine) applyItemDepth(st *State, item *rulebook.Item, sel *character.FeatSelection, depth int, visited map[string]bool) {
	if depth > maxGrantDepth || visited[item.ID] {
		return
	}
	visited[item.ID] = true

	prevChoices := st.Choices
	st.Choices = choiceMap(sel)
	defer func() { st.Choices = prevChoices }()

	rules := e.parsedRules(item)

	// Decide the analyzer-inferred choices before the item's own effects
	// land: "already trained" means trained from other sources.
	var inferred []*ChoiceRule
	if item.IsDedication() {
		inferred = e.additionalChoices(item, sel, func(name string) pf2e.Rank {
			return st.Derived.Skills[name]
		})
	}

	// Roll options first so predicates on sibling rules can see them.
	for _, rule := range rules {
		if ro, ok := rule.(*RollOptionRule); ok {
			if st.Evaluate(ro.Predicate) {
				st.RollOptions[ro.Option] = true
			}
		}
	}
	for _, rule := range rules {
		if choice, ok := rule.(*ChoiceRule); ok && choice.RollOption != "" {
			if _, answered := st.Choices[choice.Flag]; answered {
				st.RollOptions[choice.RollOption] = true
			}
		}
	}

	for _, rule := range rules {
		switch r := rule.(type) {
		case *EffectRule:
			e.applyEffect(st, item, r)
		case *GrantRule:
			e.applyGrant(st, r, sel, depth, visited)
		}
	}

	// Analyzer-inferred skill choices: answers are skill names to train.
	for _, choice := range inferred {
		value, ok := st.Choices[choice.Flag]
		if !ok {
			continue
		}
		if name, ok := pf2e.CanonicalSkill(value); ok {
			upgradeSkill(st.Derived, name, pf2e.Trained)
		}
	}
}

// applyEffect resolves one effect descriptor against the accumulator.
// Malformed paths and unanswered choice flags are no-ops, never errors.
func (e *Engine) applyEffect(st *State, item *rulebook.Item, rule *EffectRule) {
	if !st.Evaluate(rule.Predicate) {
		return
	}

	path := rule.Path
	if rule.Flag != "" {
		value, ok := st.Choices[rule.Flag]
		if !ok {
			return // choice not made yet; the effect stays dormant
		}
		path = substituteFlag(path, value)
	}
	path = strings.TrimPrefix(path, "system.")

	value := rule.Value.Eval(st)

	switch {
	case strings.Contains(path, "skills."):
		name, ok := skillFromPath(path)
		if !ok {
			// Lore skills and anything else pass through verbatim.
			name = segmentAfter(path, "skills.")
			if name == "" {
				return
			}
		}
		writeRank(&st.Derived.Skills, name, rule.Mode, value)

	case strings.Contains(path, "proficiencies.attacks."):
		category := pf2e.WeaponCategory(segmentAfter(path, "attacks."))
		writeRank(&st.Derived.WeaponProficiencies, category, rule.Mode, value)

	case strings.Contains(path, "proficiencies.defenses."):
		category := pf2e.ArmorCategory(segmentAfter(path, "defenses."))
		writeRank(&st.Derived.ArmorProficiencies, category, rule.Mode, value)

	case strings.Contains(path, "classDCs.") || strings.HasSuffix(path, "classDC.rank"):
		name := segmentAfter(path, "classDCs.")
		if name == "" {
			name = item.Name
		}
		e.upgradeClassDC(st, name, pf2e.Rank(value).Clamp())

	case strings.HasSuffix(path, "perception.rank"):
		if rank := pf2e.Rank(value).Clamp(); rule.Mode == ModeSet || rank > st.Derived.PerceptionRank {
			st.Derived.PerceptionRank = rank
		}

	case strings.Contains(path, "saves."):
		save := character.Save(segmentAfter(path, "saves."))
		writeRank(&st.Derived.SaveRanks, save, rule.Mode, value)

	case strings.Contains(path, "languages"):
		if rule.RawValue != "" {
			addLanguage(st.Derived, rule.RawValue)
		}

	case strings.Contains(path, "spellcasting"):
		st.Derived.Spellcaster = value != 0

	default:
		e.log.Debug("unrecognized effect path", zap.String("item", item.ID), zap.String("path", rule.Path))
	}
}

// applyGrant resolves a granted item and applies it transitively.
func (e *Engine) applyGrant(st *State, rule *GrantRule, sel *character.FeatSelection, depth int, visited map[string]bool) {
	ref := rule.UUID
	if rule.Flag != "" {
		value, ok := st.Choices[rule.Flag]
		if !ok {
			return
		}
		ref = substituteFlag(ref, value)
	}

	granted, ok := e.lookupItem(grantName(ref))
	if !ok {
		return
	}
	e.applyItemDepth(st, granted, sel, depth+1, visited)
}

// grantName extracts the lookup key from a compendium-style UUID: the
// final dot-separated segment.
func grantName(uuid string) string {
	if idx := strings.LastIndex(uuid, "."); idx >= 0 {
		return uuid[idx+1:]
	}
	return uuid
}

// upgradeClassDC adds or upgrades a class DC entry. The key ability is
// the player's attribute choice when present, otherwise the matching
// class's default.
func (e *Engine) upgradeClassDC(st *State, name string, rank pf2e.Rank) {
	for i := range st.Derived.ClassDCs {
		if strings.EqualFold(st.Derived.ClassDCs[i].Name, name) {
			if rank > st.Derived.ClassDCs[i].Rank {
				st.Derived.ClassDCs[i].Rank = rank
			}
			return
		}
	}
	st.Derived.ClassDCs = append(st.Derived.ClassDCs, character.ClassDC{
		Name:    name,
		Ability: e.classDCAbility(st, name),
		Rank:    rank,
	})
}

func (e *Engine) classDCAbility(st *State, name string) pf2e.Ability {
	if chosen, ok := st.Choices["attribute"]; ok {
		return pf2e.Ability(chosen)
	}
	if classItem, ok := e.lookupItem(name); ok && classItem.Class != nil {
		if classItem.Class.DefaultDCAbility != "" {
			return classItem.Class.DefaultDCAbility
		}
		return classItem.Class.KeyAbility
	}
	return pf2e.Strength
}

// writeRank applies the proficiency law to one table entry: upgrade is
// max(current, value); set replaces, clamped to the valid range.
func writeRank[K comparable](table *map[K]pf2e.Rank, key K, mode EffectMode, value int) {
	if *table == nil {
		*table = make(map[K]pf2e.Rank)
	}
	rank := pf2e.Rank(value).Clamp()
	if mode == ModeSet {
		(*table)[key] = rank
		return
	}
	if rank > (*table)[key] {
		(*table)[key] = rank
	}
}

func upgradeSkill(d *character.Derived, name string, rank pf2e.Rank) {
	if rank > d.Skills[name] {
		d.Skills[name] = rank
	}
}

func addLanguage(d *character.Derived, language string) {
	for _, existing := range d.Languages {
		if strings.EqualFold(existing, language) {
			return
		}
	}
	d.Languages = append(d.Languages, language)
}

func segmentAfter(path, marker string) string {
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	rest := path[idx+len(marker):]
	if end := strings.IndexByte(rest, '.'); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func choiceMap(sel *character.FeatSelection) map[string]string {
	out := make(map[string]string)
	if sel == nil {
		return out
	}
	for _, choice := range sel.Choices {
		out[choice.Flag] = choice.Value
	}
	return out
}
