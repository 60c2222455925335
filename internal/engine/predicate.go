package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

// Predicate is a parsed boolean expression tree. A node is exactly one of:
// a primitive string, an n-ary operator over children, or an lte
// comparison against a numeric state path.
type Predicate struct {
	Str      string
	Op       string // "and", "or", "not", "nor"
	Children []*Predicate
	LtePath  string
	LteBound int
}

// ParsePredicate converts a raw predicate fragment into a tree. A JSON
// array is an implicit "and". Unrecognized shapes parse to nil, which
// evaluates to true (an absent predicate never gates anything).
func ParsePredicate(raw json.RawMessage) *Predicate {
	if len(raw) == 0 {
		return nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return &Predicate{Str: str}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		node := &Predicate{Op: "and"}
		for _, child := range list {
			if parsed := ParsePredicate(child); parsed != nil {
				node.Children = append(node.Children, parsed)
			}
		}
		return node
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	for _, op := range []string{"and", "or", "not", "nor"} {
		childRaw, ok := obj[op]
		if !ok {
			continue
		}
		node := &Predicate{Op: op}
		var children []json.RawMessage
		if err := json.Unmarshal(childRaw, &children); err != nil {
			// A single unwrapped child is allowed.
			if parsed := ParsePredicate(childRaw); parsed != nil {
				node.Children = append(node.Children, parsed)
			}
			return node
		}
		for _, child := range children {
			if parsed := ParsePredicate(child); parsed != nil {
				node.Children = append(node.Children, parsed)
			}
		}
		return node
	}

	if lteRaw, ok := obj["lte"]; ok {
		var bounds map[string]int
		if err := json.Unmarshal(lteRaw, &bounds); err == nil {
			for path, bound := range bounds {
				return &Predicate{LtePath: path, LteBound: bound}
			}
		}
	}

	return nil
}

// Evaluate resolves a predicate against the working state. It has no side
// effects and may be called any number of times within a pass.
func (st *State) Evaluate(p *Predicate) bool {
	if p == nil {
		return true
	}

	switch {
	case p.Op == "and":
		for _, child := range p.Children {
			if !st.Evaluate(child) {
				return false
			}
		}
		return true
	case p.Op == "or":
		for _, child := range p.Children {
			if st.Evaluate(child) {
				return true
			}
		}
		return false
	case p.Op == "not" || p.Op == "nor":
		// Both mean "none of the children are true"; the n-ary form is
		// deliberate.
		for _, child := range p.Children {
			if st.Evaluate(child) {
				return false
			}
		}
		return true
	case p.LtePath != "":
		return st.numericPath(p.LtePath) <= p.LteBound
	}

	return st.evaluateString(p.Str)
}

// evaluateString dispatches a primitive predicate on its prefix. Anything
// without a recognized prefix is a roll-option lookup.
func (st *State) evaluateString(s string) bool {
	parts := strings.Split(s, ":")
	switch parts[0] {
	case "defense":
		if len(parts) < 2 {
			return false
		}
		required := pf2e.Trained
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				required = pf2e.Rank(n)
			}
		}
		return st.Derived.ArmorProficiencies[pf2e.ArmorCategory(parts[1])] >= required
	case "skill":
		if len(parts) < 2 {
			return false
		}
		name, ok := pf2e.CanonicalSkill(parts[1])
		if !ok {
			name = parts[1]
		}
		required := pf2e.Trained
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				required = pf2e.Rank(n)
			}
		}
		rank := st.Derived.Skills[name]
		// A skill picked earlier in the same choice sequence counts as
		// trained even though it has not been applied yet.
		for _, chosen := range st.Choices {
			if strings.EqualFold(chosen, name) && rank < pf2e.Trained {
				rank = pf2e.Trained
			}
		}
		return rank >= required
	}
	return st.RollOptions[s]
}

// numericPath resolves a dotted path to a number, 0 when missing.
func (st *State) numericPath(path string) int {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "level":
		return st.Level
	case "skills":
		if len(parts) >= 2 {
			name, ok := pf2e.CanonicalSkill(parts[1])
			if !ok {
				name = parts[1]
			}
			return int(st.Derived.Skills[name])
		}
	case "proficiencies":
		if len(parts) >= 3 {
			switch parts[1] {
			case "defenses":
				return int(st.Derived.ArmorProficiencies[pf2e.ArmorCategory(parts[2])])
			case "attacks":
				return int(st.Derived.WeaponProficiencies[pf2e.WeaponCategory(parts[2])])
			}
		}
	}
	return 0
}
