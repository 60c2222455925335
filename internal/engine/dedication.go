package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

// Flags for analyzer-inferred skill choices. The unconditional bonus
// choice always comes first, then the conditional replacements in
// discovery order.
const (
	FlagAdditionalSkill     = "additionalSkill"
	FlagConditionalSkillFmt = "conditionalSkill_%d"
)

// AdditionalChoices infers the extra skill choices a dedication-style item
// requires beyond its declared ChoiceSet rules. Many dedications grant a
// fixed skill "unless already trained", in which case the player picks a
// replacement; that logic lives in description text, not structured rules,
// so it is recovered generically here.
//
// The character is inspected as it stands BEFORE the item's own effects
// apply: "already trained" refers to training from other sources.
func (e *Engine) AdditionalChoices(item *rulebook.Item, chr *character.Character) []*ChoiceRule {
	sel, _ := chr.Feat(item.ID)
	return e.additionalChoices(item, sel, chr.SkillRank)
}

// additionalChoices is the recalculation-path variant: rank looks up the
// working accumulator rather than the character's previous snapshot.
func (e *Engine) additionalChoices(item *rulebook.Item, sel *character.FeatSelection, rank func(string) pf2e.Rank) []*ChoiceRule {
	if !item.IsDedication() {
		return nil
	}

	skills := e.discoverSkills(item, sel)
	description := strings.ToLower(item.Description)

	var out []*ChoiceRule

	if strings.Contains(description, "plus one skill") || strings.Contains(description, "plus an additional skill") {
		out = append(out, &ChoiceRule{
			Flag:   FlagAdditionalSkill,
			Prompt: "Choose an additional skill to become trained in",
			Type:   ChoiceSkill,
			Count:  1,
		})
	}

	if strings.Contains(description, "already trained") {
		alreadyTrained := 0
		for _, skill := range skills {
			if rank(skill) > pf2e.Untrained {
				alreadyTrained++
			}
		}

		count := alreadyTrained
		switch {
		case strings.Contains(description, "for each of these"):
			if count > len(skills) {
				count = len(skills)
			}
		case strings.Contains(description, "both"):
			// "if trained in both X and Y": one replacement, all or nothing.
			if alreadyTrained == len(skills) && len(skills) > 0 {
				count = 1
			} else {
				count = 0
			}
		default:
			if count > len(skills) {
				count = len(skills)
			}
		}

		for i := 0; i < count; i++ {
			out = append(out, &ChoiceRule{
				Flag:   fmt.Sprintf(FlagConditionalSkillFmt, i),
				Prompt: "Choose a skill to become trained in instead",
				Type:   ChoiceSkill,
				Count:  1,
			})
		}
	}

	return out
}

// discoverSkills finds every skill the item can grant: from structured
// upgrade rules, from skill-valued choice options, transitively through
// sub-features the player chose, and as a last resort from the
// description text.
func (e *Engine) discoverSkills(item *rulebook.Item, sel *character.FeatSelection) []string {
	var skills []string
	seen := make(map[string]bool)
	add := func(name string) {
		canonical, ok := pf2e.CanonicalSkill(name)
		if !ok || seen[canonical] {
			return
		}
		seen[canonical] = true
		skills = append(skills, canonical)
	}

	structured := false
	for _, rule := range e.parsedRules(item) {
		switch r := rule.(type) {
		case *EffectRule:
			if name, ok := skillFromPath(r.Path); ok {
				structured = true
				add(name)
			}
		case *ChoiceRule:
			for _, opt := range r.Options {
				if canonical, ok := pf2e.CanonicalSkill(opt.Value); ok {
					structured = true
					add(canonical)
				}
			}
		}
	}

	// Sub-features the player picked can carry the skill: a chosen deity
	// has a key skill, a chosen bloodline/order/muse grants its own.
	if sel != nil {
		for _, choice := range sel.Choices {
			sub, ok := e.lookupItem(choice.Value)
			if !ok {
				continue
			}
			if sub.Deity != nil && sub.Deity.KeySkill != "" {
				structured = true
				add(sub.Deity.KeySkill)
				continue
			}
			if sub.Type == rulebook.ItemTypeClassFeature {
				for _, rule := range e.parsedRules(sub) {
					if effect, ok := rule.(*EffectRule); ok {
						if name, ok := skillFromPath(effect.Path); ok {
							structured = true
							add(name)
						}
					}
				}
				for _, name := range skillsFromText(sub.Description) {
					structured = true
					add(name)
				}
			}
		}
	}

	if !structured {
		for _, name := range skillsFromText(item.Description) {
			add(name)
		}
	}

	return skills
}

// skillFromPath extracts the skill a rule path targets, if any.
func skillFromPath(path string) (string, bool) {
	idx := strings.Index(path, "skills.")
	if idx < 0 {
		return "", false
	}
	rest := path[idx+len("skills."):]
	if end := strings.IndexByte(rest, '.'); end >= 0 {
		rest = rest[:end]
	}
	return pf2e.CanonicalSkill(rest)
}

// skillsFromText scans a description for "trained in <Skill>" phrases
// against the canonical skill list, case-insensitively.
func skillsFromText(description string) []string {
	lower := strings.ToLower(description)
	var found []string
	for skill := range pf2e.Skills {
		needle := "trained in " + strings.ToLower(skill)
		if strings.Contains(lower, needle) {
			found = append(found, skill)
		}
	}
	// Map iteration order is random; discovery order must be stable
	// because conditional flags are numbered from it.
	sort.Strings(found)
	return found
}
