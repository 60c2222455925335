// Package effects derives numeric bonus and penalty totals from active
// conditions and buffs under the PF2e stacking law: the highest bonus of
// each type counts, penalties always sum.
package effects

import "strings"

// Calculator folds a character's active conditions and buffs into
// per-selector and per-ability totals. It holds no state between calls.
type Calculator struct{}

// NewCalculator creates a new penalty calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// bucket accumulates modifiers for one selector.
type bucket struct {
	status       int
	circumstance int
	item         int
	penalty      int
}

func (b *bucket) add(bonusType BonusType, value int) {
	if value < 0 || bonusType == TypePenalty {
		if value > 0 {
			value = -value
		}
		b.penalty += value
		return
	}
	switch bonusType {
	case TypeStatus:
		if value > b.status {
			b.status = value
		}
	case TypeCircumstance:
		if value > b.circumstance {
			b.circumstance = value
		}
	case TypeItem:
		if value > b.item {
			b.item = value
		}
	}
}

func (b *bucket) total() int {
	return b.status + b.circumstance + b.item + b.penalty
}

// Totals holds the resolved modifier for every selector and ability that
// had at least one contribution.
type Totals struct {
	selectors map[Selector]*bucket
	abilities map[string]*bucket
}

func newTotals() *Totals {
	return &Totals{
		selectors: make(map[Selector]*bucket),
		abilities: make(map[string]*bucket),
	}
}

func (t *Totals) selectorBucket(s Selector) *bucket {
	b, ok := t.selectors[s]
	if !ok {
		b = &bucket{}
		t.selectors[s] = b
	}
	return b
}

func (t *Totals) abilityBucket(ability string) *bucket {
	b, ok := t.abilities[ability]
	if !ok {
		b = &bucket{}
		t.abilities[ability] = b
	}
	return b
}

// For returns the total modifier for a selector, including anything that
// applies to SelectorAll.
func (t *Totals) For(s Selector) int {
	total := 0
	if b, ok := t.selectors[s]; ok {
		total += b.total()
	}
	if s != SelectorAll {
		if b, ok := t.selectors[SelectorAll]; ok {
			total += b.total()
		}
	}
	return total
}

// ForSave returns the total for a specific save, folding in the generic
// save selector.
func (t *Totals) ForSave(s Selector) int {
	total := t.For(s)
	if b, ok := t.selectors[SelectorSave]; ok {
		total += b.total()
	}
	return total
}

// ForAbility returns the penalty bucket total for checks keyed off an
// ability (clumsy, enfeebled, stupefied, drained).
func (t *Totals) ForAbility(ability string) int {
	if b, ok := t.abilities[ability]; ok {
		return b.total()
	}
	return 0
}

// Resolve computes stacked totals from the given conditions and buffs.
func (c *Calculator) Resolve(conditions []Condition, buffs []Buff) *Totals {
	totals := newTotals()

	for _, cond := range conditions {
		def, ok := conditionTable[strings.ToLower(cond.ID)]
		if !ok || cond.Value == 0 {
			continue
		}
		for _, sel := range def.selectors {
			totals.selectorBucket(sel).add(TypeStatus, -cond.Value)
		}
		for _, ability := range def.abilities {
			totals.abilityBucket(ability).add(TypeStatus, -cond.Value)
		}
	}

	for _, buff := range buffs {
		sel := buff.Selector
		if sel == "" {
			sel = SelectorAll
		}
		totals.selectorBucket(sel).add(buff.Type, buff.Bonus)
	}

	return totals
}

// TickRound decrements round-based durations and drops anything that has
// expired. It returns fresh slices; the inputs are not modified.
func (c *Calculator) TickRound(conditions []Condition, buffs []Buff) ([]Condition, []Buff) {
	keptConditions := make([]Condition, 0, len(conditions))
	for _, cond := range conditions {
		if cond.Duration != nil {
			remaining := *cond.Duration - 1
			if remaining <= 0 {
				continue
			}
			cond.Duration = &remaining
		}
		keptConditions = append(keptConditions, cond)
	}

	keptBuffs := make([]Buff, 0, len(buffs))
	for _, buff := range buffs {
		if buff.Duration != nil {
			remaining := *buff.Duration - 1
			if remaining <= 0 {
				continue
			}
			buff.Duration = &remaining
		}
		keptBuffs = append(keptBuffs, buff)
	}

	return keptConditions, keptBuffs
}
