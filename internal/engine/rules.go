package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
)

// RuleKind tags the closed set of rule variants.
type RuleKind string

const (
	KindEffect     RuleKind = "ActiveEffectLike"
	KindChoice     RuleKind = "ChoiceSet"
	KindGrant      RuleKind = "GrantItem"
	KindRollOption RuleKind = "RollOption"
)

// Rule is one parsed rule fragment.
type Rule interface {
	RuleKind() RuleKind
}

// EffectMode is how an effect writes its target.
type EffectMode string

const (
	ModeUpgrade EffectMode = "upgrade" // max(current, value)
	ModeSet     EffectMode = "set"     // replace, clamped
	ModeAdd     EffectMode = "add"     // append (languages and similar lists)
)

// EffectRule grants or upgrades a proficiency, rank, or list entry.
// Flag names the player choice the target path depends on; empty means
// the effect is unconditional.
type EffectRule struct {
	Path      string
	Mode      EffectMode
	Value     Formula
	RawValue  string // non-numeric values (languages) keep their text
	Flag      string
	Predicate *Predicate
}

func (r *EffectRule) RuleKind() RuleKind { return KindEffect }

// ChoiceType is what kind of answer a choice prompt collects.
type ChoiceType string

const (
	ChoiceString  ChoiceType = "string"
	ChoiceSkill   ChoiceType = "skill"
	ChoiceFeat    ChoiceType = "feat"
	ChoiceSpell   ChoiceType = "spell"
	ChoiceAbility ChoiceType = "ability"
	ChoiceNumber  ChoiceType = "number"
)

// ChoiceOption is one enumerated answer, optionally predicate-gated.
type ChoiceOption struct {
	Label     string
	Value     string
	Predicate *Predicate
}

// Filter narrows a feat or spell choice to matching content.
type Filter struct {
	Level    int
	HasLevel bool
	Category string
	Traits   []string
	Slugs    []string
}

// Matches reports whether an item passes the filter. Slugs are
// alternatives; traits must all be present.
func (f *Filter) Matches(item *rulebook.Item) bool {
	if f.HasLevel && item.Level > f.Level {
		return false
	}
	if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
		return false
	}
	for _, trait := range f.Traits {
		if !item.HasTrait(trait) {
			return false
		}
	}
	if len(f.Slugs) > 0 {
		for _, slug := range f.Slugs {
			if item.Slug() == pf2e.Slugify(slug) {
				return true
			}
		}
		return false
	}
	return true
}

// ChoiceRule prompts the player for an answer recorded under Flag.
type ChoiceRule struct {
	Flag       string
	Prompt     string
	Type       ChoiceType
	Count      int
	Options    []ChoiceOption
	Filter     *Filter
	RollOption string
}

func (r *ChoiceRule) RuleKind() RuleKind { return KindChoice }

// GrantRule grants another content item. A UUID containing an unresolved
// {...} placeholder is choice-dependent and must be substituted from the
// player's answer before lookup.
type GrantRule struct {
	UUID string
	Type ChoiceType // ChoiceSpell if the uuid mentions spells, else ChoiceFeat
	Flag string
}

func (r *GrantRule) RuleKind() RuleKind { return KindGrant }

// RollOptionRule sets a named boolean fact.
type RollOptionRule struct {
	Domain    string
	Option    string
	Predicate *Predicate
}

func (r *RollOptionRule) RuleKind() RuleKind { return KindRollOption }

// ruleParsers dispatches raw fragments by their key. Unknown keys are
// discarded without error.
var ruleParsers = map[string]func(json.RawMessage) Rule{
	string(KindEffect):     parseEffectRule,
	string(KindChoice):     parseChoiceRule,
	string(KindGrant):      parseGrantRule,
	string(KindRollOption): parseRollOptionRule,
}

// ParseRules converts an item's raw rule fragments into typed rules,
// skipping anything unrecognized or malformed.
func ParseRules(item *rulebook.Item) []Rule {
	var rules []Rule
	for _, raw := range item.Rules {
		var head struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			continue
		}
		parser, ok := ruleParsers[head.Key]
		if !ok {
			continue
		}
		if rule := parser(raw); rule != nil {
			rules = append(rules, rule)
		}
	}
	return rules
}

// flagPattern matches {item|flags.pf2e.rulesSelections.skill} style
// placeholders; the trailing segment is the flag name.
var flagPattern = regexp.MustCompile(`\{[^{}]*flags\.[^{}]*?([A-Za-z0-9_]+)\}`)

// extractFlag returns the flag a placeholder references, "" if none.
func extractFlag(s string) string {
	m := flagPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// substituteFlag replaces the placeholder with the chosen value.
func substituteFlag(s, value string) string {
	return flagPattern.ReplaceAllString(s, value)
}

func parseEffectRule(raw json.RawMessage) Rule {
	var body struct {
		Path      string          `json:"path"`
		Mode      string          `json:"mode"`
		Value     json.RawMessage `json:"value"`
		Predicate json.RawMessage `json:"predicate"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Path == "" {
		return nil
	}

	rule := &EffectRule{
		Path:      body.Path,
		Flag:      extractFlag(body.Path),
		Predicate: ParsePredicate(body.Predicate),
	}

	switch body.Mode {
	case "override", "set":
		rule.Mode = ModeSet
	case "add":
		rule.Mode = ModeAdd
	default:
		rule.Mode = ModeUpgrade
	}

	var num int
	if err := json.Unmarshal(body.Value, &num); err == nil {
		rule.Value = literal(num)
		return rule
	}
	var str string
	if err := json.Unmarshal(body.Value, &str); err == nil {
		rule.RawValue = str
		rule.Value = ParseFormula(str)
		if flag := extractFlag(str); flag != "" && rule.Flag == "" {
			rule.Flag = flag
		}
		return rule
	}
	rule.Value = literal(0)
	return rule
}

func parseChoiceRule(raw json.RawMessage) Rule {
	var body struct {
		Flag       string          `json:"flag"`
		Prompt     string          `json:"prompt"`
		Config     string          `json:"config"`
		ItemType   string          `json:"itemType"`
		Count      int             `json:"count"`
		RollOption string          `json:"rollOption"`
		Choices    json.RawMessage `json:"choices"`
		Filter     json.RawMessage `json:"filter"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Flag == "" {
		return nil
	}

	rule := &ChoiceRule{
		Flag:       body.Flag,
		Prompt:     body.Prompt,
		Count:      body.Count,
		RollOption: body.RollOption,
	}
	if rule.Count == 0 {
		rule.Count = 1
	}

	// Type inference: enumerated options make a string choice, the skills
	// config makes a skill choice, an itemType makes a feat or spell
	// choice carrying a parsed filter.
	switch {
	case len(body.Choices) > 0 && string(body.Choices) != "null":
		rule.Type = ChoiceString
		var rawOptions []struct {
			Label     string          `json:"label"`
			Value     string          `json:"value"`
			Predicate json.RawMessage `json:"predicate"`
		}
		if err := json.Unmarshal(body.Choices, &rawOptions); err != nil {
			return nil
		}
		for _, opt := range rawOptions {
			rule.Options = append(rule.Options, ChoiceOption{
				Label:     opt.Label,
				Value:     opt.Value,
				Predicate: ParsePredicate(opt.Predicate),
			})
		}
	case body.Config == "skills":
		rule.Type = ChoiceSkill
	case body.ItemType == "feat":
		rule.Type = ChoiceFeat
		rule.Filter = parseFilter(body.Filter)
	case body.ItemType == "spell":
		rule.Type = ChoiceSpell
		rule.Filter = parseFilter(body.Filter)
	case body.Flag == "attribute":
		rule.Type = ChoiceAbility
	default:
		rule.Type = ChoiceString
	}

	return rule
}

// parseFilter reads a flat token array: item:level:N, item:trait:X,
// item:category:X, item:slug:X, plus {or:[...]} groups of slug
// alternatives.
func parseFilter(raw json.RawMessage) *Filter {
	if len(raw) == 0 {
		return nil
	}
	var tokens []json.RawMessage
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil
	}

	filter := &Filter{}
	var applyToken func(token string)
	applyToken = func(token string) {
		parts := strings.SplitN(token, ":", 3)
		if len(parts) != 3 || parts[0] != "item" {
			return
		}
		switch parts[1] {
		case "level":
			if n, err := strconv.Atoi(parts[2]); err == nil {
				filter.Level = n
				filter.HasLevel = true
			}
		case "trait":
			filter.Traits = append(filter.Traits, parts[2])
		case "category":
			filter.Category = parts[2]
		case "slug":
			filter.Slugs = append(filter.Slugs, parts[2])
		}
	}

	for _, rawToken := range tokens {
		var token string
		if err := json.Unmarshal(rawToken, &token); err == nil {
			applyToken(token)
			continue
		}
		var group struct {
			Or []string `json:"or"`
		}
		if err := json.Unmarshal(rawToken, &group); err == nil {
			for _, token := range group.Or {
				applyToken(token)
			}
		}
	}

	if !filter.HasLevel && filter.Category == "" && len(filter.Traits) == 0 && len(filter.Slugs) == 0 {
		return nil
	}
	return filter
}

func parseGrantRule(raw json.RawMessage) Rule {
	var body struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.UUID == "" {
		return nil
	}

	rule := &GrantRule{UUID: body.UUID, Type: ChoiceFeat}
	if strings.Contains(strings.ToLower(body.UUID), "spell") {
		rule.Type = ChoiceSpell
	}
	if strings.Contains(body.UUID, "{") {
		rule.Flag = extractFlag(body.UUID)
		if rule.Flag == "" {
			// Placeholder we cannot name; the grant can never resolve.
			return nil
		}
	}
	return rule
}

func parseRollOptionRule(raw json.RawMessage) Rule {
	var body struct {
		Domain    string          `json:"domain"`
		Option    string          `json:"option"`
		Predicate json.RawMessage `json:"predicate"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Option == "" {
		return nil
	}
	return &RollOptionRule{
		Domain:    body.Domain,
		Option:    body.Option,
		Predicate: ParsePredicate(body.Predicate),
	}
}
