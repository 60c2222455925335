package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
)

// Recalculate rebuilds every derived field of a character from its
// persisted choices and current level. It is a pure function: the input
// is never mutated, calling it on its own output is a no-op, and a
// half-finished pass is never observable because the derived snapshot is
// swapped in as a single assignment at the end.
func (e *Engine) Recalculate(in *character.Character) *character.Character {
	chr := in.Clone()
	st := newState(chr)

	e.applyAbilityScores(st, chr)
	e.applyAncestry(st, chr)
	e.applyClasses(st, chr)
	e.applyBackground(st, chr)
	e.applyFeats(st, chr)
	e.applySkillRecords(st, chr)
	e.applySpellcasting(st, chr)
	e.applyTotals(st, chr)

	chr.Derived = *st.Derived
	return chr
}

// applyAbilityScores recomputes the six scores from the boost buckets and
// ancestry flaws. A boost is +2 below 18 and +1 at 18 or above; flaws are
// a flat -2. Level-up buckets above the current level or outside the
// boost cadence are inert.
func (e *Engine) applyAbilityScores(st *State, chr *character.Character) {
	scores := st.Derived.AbilityScores
	for _, ability := range pf2e.Abilities {
		scores[ability] = 10
	}
	for _, flaw := range chr.AncestryFlaws {
		scores[flaw] -= 2
	}

	boost := func(ability pf2e.Ability) {
		if scores[ability] >= 18 {
			scores[ability]++
		} else {
			scores[ability] += 2
		}
	}

	for _, bucket := range [][]pf2e.Ability{
		chr.AbilityBoosts.Ancestry,
		chr.AbilityBoosts.Background,
		chr.AbilityBoosts.Class,
		chr.AbilityBoosts.Free,
	} {
		for _, ability := range bucket {
			boost(ability)
		}
	}

	levels := make([]int, 0, len(chr.AbilityBoosts.LevelUp))
	for level := range chr.AbilityBoosts.LevelUp {
		if level <= chr.Level {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	for _, level := range levels {
		bucket := chr.AbilityBoosts.LevelUp[level]
		if limit := levelBoostCapacity(level, chr.VariantRules); len(bucket) > limit {
			bucket = bucket[:limit]
		}
		for _, ability := range bucket {
			boost(ability)
		}
	}
}

// levelBoostCapacity is the cadence gate on level-up boost buckets.
// Standard progression grants four boosts at levels 5, 10, 15 and 20; the
// gradual ability boosts variant spreads each set across the four
// preceding levels, one boost per level.
func levelBoostCapacity(level int, variant pf2e.VariantRules) int {
	if variant.GradualAbilityBoosts {
		switch level {
		case 2, 3, 4, 5, 7, 8, 9, 10, 12, 13, 14, 15, 17, 18, 19, 20:
			return 1
		}
		return 0
	}
	switch level {
	case 5, 10, 15, 20:
		return 4
	}
	return 0
}

func (e *Engine) applyAncestry(st *State, chr *character.Character) {
	if chr.AncestryID == "" {
		return
	}
	ancestry, ok := e.lookupItem(chr.AncestryID)
	if !ok || ancestry.Ancestry == nil {
		return
	}
	for _, language := range ancestry.Ancestry.Languages {
		addLanguage(st.Derived, language)
	}
	e.applyItem(st, ancestry, nil)
	if chr.HeritageID != "" {
		if heritage, ok := e.lookupItem(chr.HeritageID); ok {
			e.applyItem(st, heritage, nil)
		}
	}
}

// applyClasses applies the base class and, under the dual-class variant,
// the secondary class: initial proficiencies, auto-trained skills, and
// every class feature at or below the current level.
func (e *Engine) applyClasses(st *State, chr *character.Character) {
	classIDs := []string{chr.ClassID}
	if chr.VariantRules.DualClass && chr.SecondaryClassID != "" {
		classIDs = append(classIDs, chr.SecondaryClassID)
	}

	for _, classID := range classIDs {
		if classID == "" {
			continue
		}
		classItem, ok := e.lookupItem(classID)
		if !ok || classItem.Class == nil {
			if ok {
				e.log.Warn("class item has no class payload", zap.String("id", classID))
			}
			continue
		}
		class := classItem.Class

		profs := class.Proficiencies
		if profs.Perception > st.Derived.PerceptionRank {
			st.Derived.PerceptionRank = profs.Perception
		}
		upgradeSave(st.Derived, character.Fortitude, profs.Fortitude)
		upgradeSave(st.Derived, character.Reflex, profs.Reflex)
		upgradeSave(st.Derived, character.Will, profs.Will)
		for category, rank := range profs.Weapons {
			writeRank(&st.Derived.WeaponProficiencies, category, ModeUpgrade, int(rank))
		}
		for category, rank := range profs.Armor {
			writeRank(&st.Derived.ArmorProficiencies, category, ModeUpgrade, int(rank))
		}
		if profs.ClassDC > pf2e.Untrained {
			e.upgradeClassDC(st, classItem.Name, profs.ClassDC)
		}

		for _, skill := range class.TrainedSkills {
			if name, ok := pf2e.CanonicalSkill(skill); ok {
				upgradeSkill(st.Derived, name, pf2e.Trained)
			}
		}

		e.applyItem(st, classItem, nil)

		for _, grant := range class.Features {
			if grant.Level > chr.Level {
				continue
			}
			feature, ok := e.lookupItem(grant.ItemID)
			if !ok {
				continue
			}
			// A feature configured by a feat-level choice (bloodline,
			// order, muse) reads the answers recorded on the class feat
			// entry if one exists.
			sel, _ := chr.Feat(grant.ItemID)
			e.applyItem(st, feature, sel)
		}
	}
}

func (e *Engine) applyBackground(st *State, chr *character.Character) {
	if chr.BackgroundID == "" {
		return
	}
	background, ok := e.lookupItem(chr.BackgroundID)
	if !ok {
		return
	}
	if background.Background != nil {
		for _, skill := range background.Background.TrainedSkills {
			if name, ok := pf2e.CanonicalSkill(skill); ok {
				upgradeSkill(st.Derived, name, pf2e.Trained)
			} else {
				// Lore skills from backgrounds keep their given name.
				upgradeSkill(st.Derived, skill, pf2e.Trained)
			}
		}
		if background.Background.GrantedFeat != "" {
			if feat, ok := e.lookupItem(background.Background.GrantedFeat); ok {
				sel, _ := chr.Feat(feat.ID)
				e.applyItem(st, feat, sel)
			}
		}
	}
	e.applyItem(st, background, nil)
}

// applyFeats walks the feat record in level order. Entries above the
// current level stay in the document but contribute nothing; entries
// whose content cannot be found are skipped with a diagnostic.
func (e *Engine) applyFeats(st *State, chr *character.Character) {
	order := make([]int, 0, len(chr.Feats))
	for i := range chr.Feats {
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return chr.Feats[order[a]].Level < chr.Feats[order[b]].Level
	})

	for _, idx := range order {
		sel := &chr.Feats[idx]
		if sel.Level > chr.Level {
			continue
		}
		item, ok := e.lookupItem(sel.FeatID)
		if !ok {
			e.log.Debug("feat not found, skipping", zap.String("feat_id", sel.FeatID))
			continue
		}
		e.applyItem(st, item, sel)
	}
}

// applySkillRecords replays the level-keyed skill training records:
// intelligence-bonus trainings and skill increases at or below the
// current level.
func (e *Engine) applySkillRecords(st *State, chr *character.Character) {
	for level, skill := range chr.IntBonusSkills {
		if level > chr.Level {
			continue
		}
		if name, ok := pf2e.CanonicalSkill(skill); ok {
			upgradeSkill(st.Derived, name, pf2e.Trained)
		}
	}

	levels := make([]int, 0, len(chr.SkillIncreases))
	for level := range chr.SkillIncreases {
		if level <= chr.Level {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	for _, level := range levels {
		skill := chr.SkillIncreases[level]
		name, ok := pf2e.CanonicalSkill(skill)
		if !ok {
			name = skill
		}
		next := (st.Derived.Skills[name] + 1).Clamp()
		if next <= maxSkillRank(level) {
			st.Derived.Skills[name] = next
		}
	}
}

// maxSkillRank is the level gate on skill increases: expert at 1, master
// at 7, legendary at 15.
func maxSkillRank(level int) pf2e.Rank {
	switch {
	case level >= 15:
		return pf2e.Legendary
	case level >= 7:
		return pf2e.Master
	default:
		return pf2e.Expert
	}
}

func (e *Engine) applySpellcasting(st *State, chr *character.Character) {
	if chr.ClassID == "" {
		return
	}
	classItem, ok := e.lookupItem(chr.ClassID)
	if !ok || classItem.Class == nil || classItem.Class.Spellcasting == nil {
		return
	}
	casting := classItem.Class.Spellcasting
	st.Derived.Spellcaster = true
	st.Derived.SpellTradition = casting.Tradition

	// Use the highest configured row at or below the current level.
	bestLevel := -1
	for level := range casting.Slots {
		if level <= chr.Level && level > bestLevel {
			bestLevel = level
		}
	}
	if bestLevel < 0 {
		return
	}
	for rank, slots := range casting.Slots[bestLevel] {
		if slots > 0 {
			st.Derived.SpellSlots[rank] = slots
		}
	}
}

// applyTotals computes HP, AC, saves, perception and class DCs from the
// finalized tables, ability scores, variant rules, and active
// condition/buff penalties.
func (e *Engine) applyTotals(st *State, chr *character.Character) {
	totals := e.calc.Resolve(chr.Conditions, chr.Buffs)
	d := st.Derived
	withoutLevel := chr.VariantRules.ProficiencyWithoutLevel

	mod := func(ability pf2e.Ability) int {
		return pf2e.Modifier(d.AbilityScores[ability]) + totals.ForAbility(string(ability))
	}

	ancestryHP := 0
	classHP := 0
	if chr.AncestryID != "" {
		if ancestry, ok := e.lookupItem(chr.AncestryID); ok && ancestry.Ancestry != nil {
			ancestryHP = ancestry.Ancestry.HP
		}
	}
	if chr.ClassID != "" {
		if classItem, ok := e.lookupItem(chr.ClassID); ok && classItem.Class != nil {
			classHP = classItem.Class.HP
		}
	}
	d.MaxHP = ancestryHP + (classHP+mod(pf2e.Constitution))*chr.Level

	armorRank := pf2e.Untrained
	for _, rank := range d.ArmorProficiencies {
		if rank > armorRank {
			armorRank = rank
		}
	}
	d.AC = 10 + mod(pf2e.Dexterity) + armorRank.Bonus(chr.Level, withoutLevel) +
		totals.For(effects.SelectorAC) + abpPotency(chr, 5, 11, 18)

	saveAbility := map[character.Save]pf2e.Ability{
		character.Fortitude: pf2e.Constitution,
		character.Reflex:    pf2e.Dexterity,
		character.Will:      pf2e.Wisdom,
	}
	saveSelector := map[character.Save]effects.Selector{
		character.Fortitude: effects.SelectorFortitude,
		character.Reflex:    effects.SelectorReflex,
		character.Will:      effects.SelectorWill,
	}
	for save, ability := range saveAbility {
		d.Saves[save] = mod(ability) + d.SaveRanks[save].Bonus(chr.Level, withoutLevel) +
			totals.ForSave(saveSelector[save]) + abpPotency(chr, 8, 14, 20)
	}

	d.Perception = mod(pf2e.Wisdom) + d.PerceptionRank.Bonus(chr.Level, withoutLevel) +
		totals.For(effects.SelectorPerception)

	// Class DCs take the attack potency item bonus (levels 2/10/16) under
	// automatic bonus progression.
	for i := range d.ClassDCs {
		dc := &d.ClassDCs[i]
		dc.DC = 10 + mod(dc.Ability) + dc.Rank.Bonus(chr.Level, withoutLevel) +
			abpPotency(chr, 2, 10, 16)
	}
}

// abpPotency is the automatic bonus progression item bonus: +1/+2/+3 at
// the given level thresholds, zero when the variant is off.
func abpPotency(chr *character.Character, first, second, third int) int {
	if !chr.VariantRules.AutomaticBonusProgression {
		return 0
	}
	switch {
	case chr.Level >= third:
		return 3
	case chr.Level >= second:
		return 2
	case chr.Level >= first:
		return 1
	}
	return 0
}

func upgradeSave(d *character.Derived, save character.Save, rank pf2e.Rank) {
	if rank > d.SaveRanks[save] {
		d.SaveRanks[save] = rank
	}
}
