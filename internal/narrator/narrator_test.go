package narrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/life-rpg/config"
	"github.com/user/life-rpg/internal/types"
)

func completionServer(t *testing.T, status int, content string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func testConfig(baseURL string) config.NarratorConfig {
	return config.NarratorConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	}
}

var loginPrompt = types.PromptContext{
	Trigger:     types.TriggerLogin,
	ProfileName: "Ada",
	Archetype:   types.ArchetypeMonk,
	Level:       4,
}

func TestGenerate(t *testing.T) {
	var calls int32
	srv := completionServer(t, http.StatusOK, "  Welcome back, Monk.  ", &calls)
	defer srv.Close()

	n := NewOpenAINarrator(testConfig(srv.URL), nil)
	assert.Equal(t, "Welcome back, Monk.", n.Generate(context.Background(), loginPrompt))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateFallbacks(t *testing.T) {
	// Test case 1: Server error, no retry
	var calls int32
	srv := completionServer(t, http.StatusInternalServerError, "", &calls)
	defer srv.Close()
	n := NewOpenAINarrator(testConfig(srv.URL), nil)
	assert.Equal(t, Fallback, n.Generate(context.Background(), loginPrompt))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Test case 2: Empty reply
	var emptyCalls int32
	empty := completionServer(t, http.StatusOK, "   ", &emptyCalls)
	defer empty.Close()
	n = NewOpenAINarrator(testConfig(empty.URL), nil)
	assert.Equal(t, Fallback, n.Generate(context.Background(), loginPrompt))

	// Test case 3: Missing API key never calls out
	var keylessCalls int32
	keyless := completionServer(t, http.StatusOK, "unused", &keylessCalls)
	defer keyless.Close()
	cfg := testConfig(keyless.URL)
	cfg.APIKey = ""
	n = NewOpenAINarrator(cfg, nil)
	assert.Equal(t, Fallback, n.Generate(context.Background(), loginPrompt))
	assert.Equal(t, int32(0), atomic.LoadInt32(&keylessCalls))

	// Test case 4: Static narrator
	assert.Equal(t, Fallback, Static{}.Generate(context.Background(), loginPrompt))
}

func TestSuggestTitle(t *testing.T) {
	var calls int32
	srv := completionServer(t, http.StatusOK, `"Dawn Monk"`, &calls)
	defer srv.Close()

	n := NewOpenAINarrator(testConfig(srv.URL), nil)
	assert.Equal(t, "Dawn Monk", n.SuggestTitle(context.Background(), types.ArchetypeMonk, 4))

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	n = NewOpenAINarrator(cfg, nil)
	assert.Equal(t, "Monk", n.SuggestTitle(context.Background(), types.ArchetypeMonk, 4))
}

func TestPrompts(t *testing.T) {
	p := types.PromptContext{
		Trigger:   types.TriggerLevelUp,
		Archetype: types.ArchetypeRanger,
		Level:     7,
		Note:      "Running fits the Ranger path",
	}
	assert.Contains(t, SystemPrompt(p), "new level")
	user := UserPrompt(p)
	assert.Contains(t, user, "the hero")
	assert.Contains(t, user, "Ranger")
	assert.Contains(t, user, "Level: 7")
	assert.Contains(t, user, "Running fits the Ranger path")
}
