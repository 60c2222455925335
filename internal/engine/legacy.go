package engine

import (
	"fmt"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

// AdoptLegacyChoices converts pre-migration positional choice arrays into
// flagged pairs, once, at import time. The positional convention was:
// structural ChoiceSet flags in rule order, then analyzer-inferred flags
// (additionalSkill, conditionalSkill_0, ...) appended. After adoption the
// document is order-independent.
func (e *Engine) AdoptLegacyChoices(chr *character.Character) {
	for i := range chr.Feats {
		sel := &chr.Feats[i]
		if len(sel.LegacyChoices) == 0 {
			continue
		}

		item, found := e.lookupItem(sel.FeatID)

		var flags []string
		if found {
			for _, choice := range e.structuralChoices(item) {
				flags = append(flags, choice.Flag)
			}
		}

		// Structural answers are adopted first: a chosen deity or
		// sub-feature feeds the analyzer's transitive skill discovery,
		// which decides how many conditional flags exist.
		next := 0
		for ; next < len(sel.LegacyChoices) && next < len(flags); next++ {
			adoptChoice(sel, flags[next], sel.LegacyChoices[next])
		}

		if found {
			for _, choice := range e.additionalChoices(item, sel, chr.SkillRank) {
				flags = append(flags, choice.Flag)
			}
		}

		for ; next < len(sel.LegacyChoices); next++ {
			flag := fmt.Sprintf("choice_%d", next)
			if next < len(flags) {
				flag = flags[next]
			}
			adoptChoice(sel, flag, sel.LegacyChoices[next])
		}
		sel.LegacyChoices = nil
	}
}

// adoptChoice records a positional value under a flag unless the flag
// already carries an answer.
func adoptChoice(sel *character.FeatSelection, flag, value string) {
	if _, exists := sel.Choice(flag); !exists {
		sel.SetChoice(flag, value)
	}
}

// structuralChoices returns the item's declared choice prompts in rule
// order, using the parse cache.
func (e *Engine) structuralChoices(item *rulebook.Item) []*ChoiceRule {
	var choices []*ChoiceRule
	for _, rule := range e.parsedRules(item) {
		if choice, ok := rule.(*ChoiceRule); ok {
			choices = append(choices, choice)
		}
	}
	return choices
}
