package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

func TestParseFormula(t *testing.T) {
	st := testState() // level 5
	st.Derived.ArmorProficiencies[pf2e.ArmorLight] = pf2e.Expert

	cases := []struct {
		name string
		src  string
		want int
	}{
		{"number", "3", 3},
		{"negative number", "-2", -2},
		{"actor level", "@actor.level", 5},
		{"defense rank path", "@actor.system.proficiencies.defenses.light.rank", 2},
		{"max", "max(1,3,2)", 3},
		{"min", "min(4,2)", 2},
		{"nested calls", "max(min(9,7),@actor.level)", 7},
		{"ternary true branch", "ternary(gte(@actor.level,5),10,20)", 10},
		{"ternary false branch", "ternary(gte(@actor.level,6),10,20)", 20},
		{"ternary on defense rank", "ternary(gte(@actor.system.proficiencies.defenses.light.rank,2),2,1)", 2},
		{"unknown token is zero", "@actor.system.unknown.path", 0},
		{"unknown function is zero", "foo(1,2)", 0},
		{"bare identifier is zero", "whatever", 0},
		{"malformed is zero", "max(1,", 0},
		{"empty is zero", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseFormula(tc.src).Eval(st))
		})
	}
}

func TestParseFormula_ParseOnce(t *testing.T) {
	// The AST is built once and can be evaluated against different states.
	formula := ParseFormula("max(@actor.level,3)")

	low := testState()
	low.Level = 1
	high := testState()
	high.Level = 20

	assert.Equal(t, 3, formula.Eval(low))
	assert.Equal(t, 20, formula.Eval(high))
}
