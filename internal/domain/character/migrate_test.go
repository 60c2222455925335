package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheeterr "github.com/KirkDiggler/pf2e-sheet/internal/errors"
)

func TestUnmarshal_CurrentFormat(t *testing.T) {
	doc := `{
		"id": "char-1",
		"name": "Valeros",
		"level": 5,
		"class_id": "class-fighter",
		"feats": [
			{"feat_id": "feat-a", "level": 1, "choices": [{"flag": "skill", "value": "stealth"}]}
		]
	}`

	chr, err := Unmarshal([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "char-1", chr.ID)
	assert.Equal(t, 5, chr.Level)

	value, ok := chr.Feats[0].Choice("skill")
	require.True(t, ok)
	assert.Equal(t, "stealth", value)
	assert.Empty(t, chr.Feats[0].LegacyChoices)
}

func TestUnmarshal_LegacyChoiceArrays(t *testing.T) {
	doc := `{
		"id": "char-2",
		"name": "Seelah",
		"level": 4,
		"feats": [
			{"feat_id": "feat-champion-dedication", "level": 2, "choices": ["Sarenrae", "Survival"]}
		]
	}`

	chr, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	sel := chr.Feats[0]
	assert.Empty(t, sel.Choices)
	assert.Equal(t, []string{"Sarenrae", "Survival"}, sel.LegacyChoices)
}

func TestUnmarshal_MixedAndUnknownChoiceShapes(t *testing.T) {
	doc := `{
		"id": "char-3",
		"feats": [
			{"feat_id": "feat-a", "level": 1, "choices": [
				{"flag": "deity", "value": "Sarenrae"},
				"Survival",
				{"unexpected": true},
				42
			]}
		]
	}`

	chr, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	sel := chr.Feats[0]
	require.Len(t, sel.Choices, 1)
	assert.Equal(t, "deity", sel.Choices[0].Flag)
	assert.Equal(t, []string{"Survival"}, sel.LegacyChoices)
}

func TestUnmarshal_CorruptDocument(t *testing.T) {
	t.Run("invalid json fails with a validation code", func(t *testing.T) {
		_, err := Unmarshal([]byte(`{"id": "char-4", "level": `))
		require.Error(t, err)
		assert.Equal(t, sheeterr.CodeValidation, sheeterr.GetCode(err))
	})

	t.Run("missing id fails", func(t *testing.T) {
		_, err := Unmarshal([]byte(`{"name": "No Identity"}`))
		require.Error(t, err)
	})
}

func TestMigrate_Defaults(t *testing.T) {
	chr := Migrate(&Character{ID: "char-5"})

	assert.Equal(t, 1, chr.Level)
	assert.NotNil(t, chr.Feats)
	assert.NotNil(t, chr.IntBonusSkills)
	assert.NotNil(t, chr.SkillIncreases)
	assert.NotNil(t, chr.Derived.Skills)
	assert.False(t, chr.CreatedAt.IsZero())
}

func TestMigrate_LevelClamp(t *testing.T) {
	assert.Equal(t, 20, Migrate(&Character{ID: "c", Level: 27}).Level)
	assert.Equal(t, 1, Migrate(&Character{ID: "c", Level: -3}).Level)
}
