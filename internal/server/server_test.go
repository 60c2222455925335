package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/character"
	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
	"github.com/KirkDiggler/pf2e-sheet/internal/engine"
	"github.com/KirkDiggler/pf2e-sheet/internal/repositories/characters"
	"github.com/KirkDiggler/pf2e-sheet/internal/rulebook"
	"github.com/KirkDiggler/pf2e-sheet/internal/server"
	charactersvc "github.com/KirkDiggler/pf2e-sheet/internal/services/character"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := rulebook.NewStore([]*rulebook.Item{
		{
			ID:   "class-fighter",
			Type: rulebook.ItemTypeClass,
			Name: "Fighter",
			Class: &rulebook.ClassData{
				KeyAbility:    pf2e.Strength,
				HP:            10,
				TrainedSkills: []string{"Athletics"},
			},
		},
		{
			ID:    "feat-skill-training",
			Type:  rulebook.ItemTypeFeat,
			Name:  "Skill Training",
			Level: 1,
			Rules: []json.RawMessage{
				json.RawMessage(`{"key":"ChoiceSet","flag":"skill","prompt":"Choose a skill","config":"skills"}`),
				json.RawMessage(`{"key":"ActiveEffectLike","path":"system.skills.{item|flags.pf2e.rulesSelections.skill}.rank","mode":"upgrade","value":1}`),
			},
		},
	})

	svc := charactersvc.NewService(&charactersvc.ServiceConfig{
		Engine:     engine.New(store, nil),
		Repository: characters.NewInMemoryRepository(),
	})
	ts := httptest.NewServer(server.New(&server.Config{Service: svc}))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeCharacter(t *testing.T, resp *http.Response) *character.Character {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var chr character.Character
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chr))
	return &chr
}

func TestServer_CharacterLifecycle(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/characters", map[string]any{
		"OwnerID": "owner-1",
		"Name":    "Valeros",
		"Level":   5,
		"ClassID": "class-fighter",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	chr := decodeCharacter(t, resp)
	require.NotEmpty(t, chr.ID)
	assert.Equal(t, pf2e.Trained, chr.Derived.Skills["Athletics"])

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/characters/%s", ts.URL, chr.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeCharacter(t, resp)
		assert.Equal(t, chr.Name, got.Name)
	})

	t.Run("add feat and answer its choice", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/characters/%s/feats", ts.URL, chr.ID), map[string]any{
			"feat_id": "feat-skill-training",
			"level":   2,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		req, err := http.NewRequest(http.MethodPut,
			fmt.Sprintf("%s/characters/%s/feats/feat-skill-training/choices", ts.URL, chr.ID),
			bytes.NewReader([]byte(`{"flag":"skill","value":"stealth"}`)))
		require.NoError(t, err)
		resp2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp2.StatusCode)
		updated := decodeCharacter(t, resp2)
		assert.Equal(t, pf2e.Trained, updated.Derived.Skills["Stealth"])
	})

	t.Run("missing character is 404", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/characters/no-such-id")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad level is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut,
			fmt.Sprintf("%s/characters/%s/level", ts.URL, chr.ID),
			bytes.NewReader([]byte(`{"level": 99}`)))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("export and import round trip", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/characters/%s/export", ts.URL, chr.ID))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		_ = resp.Body.Close()

		resp2 := postJSON(t, ts.URL+"/characters/import", map[string]string{
			"owner_id": "owner-2",
			"export":   payload["export"],
		})
		require.Equal(t, http.StatusCreated, resp2.StatusCode)
		imported := decodeCharacter(t, resp2)
		assert.NotEqual(t, chr.ID, imported.ID)
		assert.Equal(t, "owner-2", imported.OwnerID)
	})
}
