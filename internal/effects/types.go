package effects

// BonusType classifies a numeric modifier for stacking purposes. Typed
// bonuses of the same type do not stack (highest wins); penalties always
// sum.
type BonusType string

const (
	TypeStatus       BonusType = "status"
	TypeCircumstance BonusType = "circumstance"
	TypeItem         BonusType = "item"
	TypePenalty      BonusType = "penalty"
)

// Selector names what a modifier applies to.
type Selector string

const (
	SelectorAC         Selector = "ac"
	SelectorAttack     Selector = "attack"
	SelectorPerception Selector = "perception"
	SelectorSpeed      Selector = "speed"
	SelectorFortitude  Selector = "fortitude"
	SelectorReflex     Selector = "reflex"
	SelectorWill       Selector = "will"
	SelectorSave       Selector = "save"  // all three saves
	SelectorSkill      Selector = "skill" // all skill checks
	SelectorAll        Selector = "all"
)

// Buff is an active modifier on a character: a spell effect, an item bonus,
// or an ad-hoc adjustment entered on the sheet. Negative Bonus values and
// TypePenalty values are penalties.
type Buff struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Bonus    int       `json:"bonus"`
	Type     BonusType `json:"type"`
	Selector Selector  `json:"selector"`
	Duration *int      `json:"duration,omitempty"` // rounds remaining, nil = indefinite
	Source   string    `json:"source,omitempty"`
}

// Condition is an active condition instance. Value carries the level for
// valued conditions (frightened 2, clumsy 1); zero for flat conditions.
type Condition struct {
	ID       string `json:"id"`
	Value    int    `json:"value,omitempty"`
	Duration *int   `json:"duration,omitempty"`
}

// conditionDef describes which selectors and abilities a well-known
// condition penalizes. All condition penalties are status penalties equal
// to the condition value.
type conditionDef struct {
	selectors []Selector
	abilities []string // ability short names whose checks/DCs are penalized
}

// conditionTable covers the valued conditions the sheet tracks. Conditions
// not listed here still persist on the character; they just carry no
// numeric effect.
var conditionTable = map[string]conditionDef{
	"frightened": {selectors: []Selector{SelectorAll}},
	"sickened":   {selectors: []Selector{SelectorAll}},
	"clumsy":     {abilities: []string{"dex"}},
	"enfeebled":  {abilities: []string{"str"}},
	"stupefied":  {abilities: []string{"int", "wis", "cha"}},
	"drained":    {abilities: []string{"con"}},
}
