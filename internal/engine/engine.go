// Package engine is the rules-resolution core: it parses declarative rule
// fragments from content items, resolves player choices and predicates,
// and rebuilds every derived character statistic from scratch on each
// mutation.
package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/effects"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

// Engine resolves characters against an injected content repository. It
// holds no per-character state; the only cache is parsed rules, which is
// safe because content is immutable for the life of the process.
type Engine struct {
	repo rulebook.Repository
	log  *zap.Logger
	calc *effects.Calculator

	mu        sync.RWMutex
	ruleCache map[string][]Rule
}

// New creates an engine over a content repository. A nil logger disables
// diagnostics.
func New(repo rulebook.Repository, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		repo:      repo,
		log:       log,
		calc:      effects.NewCalculator(),
		ruleCache: make(map[string][]Rule),
	}
}

// State is the working accumulator for one recalculation pass. Effects
// mutate State.Derived only; the character's previous derived tables are
// never touched until the final swap.
type State struct {
	Level       int
	Derived     *character.Derived
	RollOptions map[string]bool

	// Choices holds the answers for the item currently being applied,
	// keyed by flag.
	Choices map[string]string
}

func newState(chr *character.Character) *State {
	derived := character.NewDerived()
	return &State{
		Level:       chr.Level,
		Derived:     &derived,
		RollOptions: make(map[string]bool),
	}
}

// parsedRules returns the typed rules for an item, parsing at most once.
func (e *Engine) parsedRules(item *rulebook.Item) []Rule {
	e.mu.RLock()
	rules, ok := e.ruleCache[item.ID]
	e.mu.RUnlock()
	if ok {
		return rules
	}

	rules = ParseRules(item)
	e.mu.Lock()
	e.ruleCache[item.ID] = rules
	e.mu.Unlock()
	return rules
}

// ItemChoices returns every choice an item requires from the player: the
// declared ChoiceSet prompts in rule order, then any analyzer-inferred
// skill choices. The view layer renders these and records answers by
// flag.
func (e *Engine) ItemChoices(item *rulebook.Item, chr *character.Character) []*ChoiceRule {
	sel, _ := chr.Feat(item.ID)
	out := append([]*ChoiceRule{}, e.structuralChoices(item)...)
	return append(out, e.additionalChoices(item, sel, chr.SkillRank)...)
}

// Lookup resolves a content reference by ID, exact name, then fuzzy
// search.
func (e *Engine) Lookup(ref string) (*rulebook.Item, bool) {
	return e.lookupItem(ref)
}

// lookupItem finds a content item by ID, exact name, then fuzzy search.
// A miss is logged and the caller skips the entry.
func (e *Engine) lookupItem(ref string) (*rulebook.Item, bool) {
	if item, ok := e.repo.ItemByID(ref); ok {
		return item, true
	}
	if item, ok := e.repo.ItemByName(ref); ok {
		return item, true
	}
	if item, ok := e.repo.Search(ref); ok {
		return item, true
	}
	e.log.Debug("content lookup miss", zap.String("ref", ref))
	return nil, false
}
