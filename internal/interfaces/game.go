package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/user/life-rpg/internal/types"
)

// ErrNotFound is returned by Persistence.Load when no document exists.
var ErrNotFound = errors.New("snapshot not found")

// Persistence is the remote document store keyed by user id
type Persistence interface {
	Save(ctx context.Context, userID string, snap types.Snapshot) error
	Load(ctx context.Context, userID string) (types.Snapshot, error)
}

// LocalCache is the on-device key-value store
type LocalCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Narrator produces flavor text. Implementations never fail; they fall back to
// a static line instead.
type Narrator interface {
	Generate(ctx context.Context, prompt types.PromptContext) string
}

// GameManager defines the operations exposed to outer surfaces
type GameManager interface {
	Login(ctx context.Context) (types.Snapshot, error)
	Onboard(ctx context.Context, profile types.UserProfile) error
	LogActivity(ctx context.Context, activityID string, amount float64) (types.LogResult, error)
	ClaimQuest(ctx context.Context, questID string) (types.GainResult, error)
	ActivateBuff(ctx context.Context, multiplier float64, duration time.Duration, description string) (types.XPBuff, error)
	Reconnected(ctx context.Context) error
	Snapshot() types.Snapshot
	Activities() []types.ActivityType
	LastNarration() (types.Narration, bool)
}
