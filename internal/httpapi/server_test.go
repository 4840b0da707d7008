package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/life-rpg/internal/game"
	"github.com/user/life-rpg/internal/types"
)

// Mock GameManager for testing
type MockGameManager struct {
	mock.Mock
}

func (m *MockGameManager) Login(ctx context.Context) (types.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Snapshot), args.Error(1)
}

func (m *MockGameManager) Onboard(ctx context.Context, profile types.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockGameManager) LogActivity(ctx context.Context, activityID string, amount float64) (types.LogResult, error) {
	args := m.Called(ctx, activityID, amount)
	return args.Get(0).(types.LogResult), args.Error(1)
}

func (m *MockGameManager) ClaimQuest(ctx context.Context, questID string) (types.GainResult, error) {
	args := m.Called(ctx, questID)
	return args.Get(0).(types.GainResult), args.Error(1)
}

func (m *MockGameManager) ActivateBuff(ctx context.Context, multiplier float64, duration time.Duration, description string) (types.XPBuff, error) {
	args := m.Called(ctx, multiplier, duration, description)
	return args.Get(0).(types.XPBuff), args.Error(1)
}

func (m *MockGameManager) Reconnected(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGameManager) Snapshot() types.Snapshot {
	args := m.Called()
	return args.Get(0).(types.Snapshot)
}

func (m *MockGameManager) Activities() []types.ActivityType {
	args := m.Called()
	return args.Get(0).([]types.ActivityType)
}

func (m *MockGameManager) LastNarration() (types.Narration, bool) {
	args := m.Called()
	return args.Get(0).(types.Narration), args.Bool(1)
}

type stubTitles struct{}

func (stubTitles) SuggestTitle(_ context.Context, archetype types.Archetype, level int) string {
	return "Iron " + string(archetype)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLogActivityEndpoint(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	router := NewHandler(gm, nil, nil).Router()

	result := types.LogResult{
		Log:        types.ActivityLog{ID: "log-1", ActivityID: "pushups", Amount: 20, XPGained: 20},
		Gain:       types.GainResult{Level: 1, CurrentXP: 20, TotalXP: 20, Gained: 20},
		ClassTitle: types.ArchetypeNovice,
	}
	gm.On("LogActivity", mock.Anything, "pushups", 20.0).Return(result, nil)
	gm.On("LogActivity", mock.Anything, "teleport", 1.0).
		Return(types.LogResult{}, game.ErrUnknownActivity)

	// Test case 1: Valid log
	rec := do(t, router, http.MethodPost, "/logs", `{"activity_id":"pushups","amount":20}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var got types.LogResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, result, got)

	// Test case 2: Unknown activity
	rec = do(t, router, http.MethodPost, "/logs", `{"activity_id":"teleport","amount":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Test case 3: Malformed body never reaches the manager
	rec = do(t, router, http.MethodPost, "/logs", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	gm.AssertExpectations(t)
}

func TestClaimQuestEndpoint(t *testing.T) {
	gm := new(MockGameManager)
	router := NewHandler(gm, nil, nil).Router()

	gm.On("ClaimQuest", mock.Anything, "q1").Return(types.GainResult{Level: 2, Gained: 36, LeveledUp: true}, nil)
	gm.On("ClaimQuest", mock.Anything, "missing").Return(types.GainResult{}, game.ErrQuestNotFound)
	gm.On("ClaimQuest", mock.Anything, "q2").Return(types.GainResult{}, game.ErrQuestIncomplete)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/quests/q1/claim", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/quests/missing/claim", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/quests/q2/claim", "").Code)
	gm.AssertExpectations(t)
}

func TestProfileAndBuffEndpoints(t *testing.T) {
	gm := new(MockGameManager)
	router := NewHandler(gm, nil, nil).Router()

	profile := types.UserProfile{Name: "Ada", WeightKg: 60, HeightCm: 170}
	gm.On("Onboard", mock.Anything, profile).Return(nil).Once()
	gm.On("Onboard", mock.Anything, profile).Return(game.ErrProfileExists).Once()
	gm.On("ActivateBuff", mock.Anything, 2.0, 30*time.Minute, "coffee").
		Return(types.XPBuff{Multiplier: 2, ExpiresAt: 1, Description: "coffee"}, nil)

	body := `{"name":"Ada","weight_kg":60,"height_cm":170}`
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodPost, "/profile", body).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/profile", body).Code)

	rec := do(t, router, http.MethodPost, "/buffs", `{"multiplier":2,"duration_minutes":30,"description":"coffee"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	gm.AssertExpectations(t)
}

func TestReadEndpoints(t *testing.T) {
	gm := new(MockGameManager)
	snap := types.Snapshot{State: types.NewGameState()}
	snap.State.ClassTitle = types.ArchetypeWarrior
	snap.State.Level = 3
	gm.On("Snapshot").Return(snap)
	gm.On("Activities").Return(game.DefaultActivities)
	gm.On("LastNarration").Return(types.Narration{}, false).Once()
	gm.On("LastNarration").Return(types.Narration{Trigger: types.TriggerLogin, Text: "Hail"}, true).Once()
	gm.On("Reconnected", mock.Anything).Return(errors.New("offline")).Once()

	router := NewHandler(gm, stubTitles{}, nil).Router()

	// Test case 1: Health
	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	// Test case 2: State and catalog
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/state", "").Code)
	rec = do(t, router, http.MethodGet, "/activities", "")
	var activities []types.ActivityType
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&activities))
	assert.Len(t, activities, len(game.DefaultActivities))

	// Test case 3: Narration before and after one exists
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodGet, "/narration", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/narration", "").Code)

	// Test case 4: Title suggestion
	rec = do(t, router, http.MethodGet, "/title", "")
	var title map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&title))
	assert.Equal(t, "Warrior", title["class"])
	assert.Equal(t, "Iron Warrior", title["title"])

	// Test case 5: Failed sync
	assert.Equal(t, http.StatusBadGateway, do(t, router, http.MethodPost, "/sync", "").Code)
	gm.AssertExpectations(t)
}
