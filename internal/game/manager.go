package game

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/life-rpg/config"
	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// HistoryLimit bounds the log history kept in state.
const HistoryLimit = 50

var tracer = otel.Tracer("github.com/user/life-rpg/internal/game")

// Dependencies are the collaborators of a GameManager. Nil fields fall back
// to defaults: built-in catalog, system clock, crypto-seeded dice, no-op
// logger. A nil Persistence, Cache or Narrator disables that collaborator.
type Dependencies struct {
	Catalog     *Catalog
	Clock       Clock
	Dice        *DiceRoller
	Persistence interfaces.Persistence
	Cache       interfaces.LocalCache
	Narrator    interfaces.Narrator
	Logger      *zap.Logger
}

// GameManager owns one user's game state. Every mutation takes stateLock and
// replaces the snapshot in a single assignment; collaborator calls run
// afterwards on background goroutines.
type GameManager struct {
	userID    string
	snap      types.Snapshot
	version   uint64
	stateLock sync.RWMutex

	config      config.Config
	catalog     *Catalog
	quests      *QuestGenerator
	clock       Clock
	persistence interfaces.Persistence
	cache       interfaces.LocalCache
	narrator    interfaces.Narrator
	Logger      *zap.Logger

	tasks     sync.WaitGroup
	saveLock  sync.Mutex
	syncGroup singleflight.Group
	// highest version written to the cache and sent to the remote store
	persistedVersion uint64

	narrationLock sync.RWMutex
	lastNarration *types.Narration
	onNarration   func(types.Narration)
}

// Ensure GameManager satisfies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a new game manager holding a fresh state until
// Login is called
func NewGameManager(cfg config.Config, deps Dependencies) *GameManager {
	if deps.Catalog == nil {
		deps.Catalog = DefaultCatalog()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Dice == nil {
		deps.Dice = NewDiceRoller()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	location := time.Local
	if cfg.Game.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Game.Timezone)
		if err != nil {
			deps.Logger.Warn("Unknown timezone, using local time",
				zap.String("timezone", cfg.Game.Timezone),
				zap.Error(err))
		} else {
			location = loc
		}
	}

	return &GameManager{
		userID:      cfg.Game.UserID,
		snap:        types.Snapshot{State: types.NewGameState()},
		config:      cfg,
		catalog:     deps.Catalog,
		quests:      NewQuestGenerator(deps.Catalog, deps.Dice, location),
		clock:       deps.Clock,
		persistence: deps.Persistence,
		cache:       deps.Cache,
		narrator:    deps.Narrator,
		Logger:      deps.Logger,
	}
}

// SetLogger replaces the logger
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// SetNarrationHandler registers a callback invoked with each narration
func (gm *GameManager) SetNarrationHandler(fn func(types.Narration)) {
	gm.narrationLock.Lock()
	defer gm.narrationLock.Unlock()
	gm.onNarration = fn
}

// Activities returns the activity catalog
func (gm *GameManager) Activities() []types.ActivityType {
	return gm.catalog.All()
}

// Snapshot returns a deep copy of the current profile and state. Quests whose
// day or week has ended are regenerated first.
func (gm *GameManager) Snapshot() types.Snapshot {
	now := gm.clock.Now()

	gm.stateLock.RLock()
	daily, weekly := gm.quests.Due(gm.snap.State.LastDailyGeneration, gm.snap.State.LastWeeklyGeneration, now)
	if !daily && !weekly {
		defer gm.stateLock.RUnlock()
		return gm.snap.Clone()
	}
	gm.stateLock.RUnlock()

	return gm.rollQuests(context.Background(), now)
}

// LastNarration returns the most recent narration, if any
func (gm *GameManager) LastNarration() (types.Narration, bool) {
	gm.narrationLock.RLock()
	defer gm.narrationLock.RUnlock()
	if gm.lastNarration == nil {
		return types.Narration{}, false
	}
	return *gm.lastNarration, true
}

// Wait blocks until background persistence and narration tasks finish
func (gm *GameManager) Wait() {
	gm.tasks.Wait()
}

// Login loads the user's snapshot, reapplies quest regeneration and
// classification, and commits it as the current state
func (gm *GameManager) Login(ctx context.Context) (types.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "game.Login")
	defer span.End()

	gm.stateLock.RLock()
	startVersion := gm.version
	gm.stateLock.RUnlock()

	loaded, source := gm.loadSnapshot(ctx)

	gm.stateLock.Lock()
	if gm.version != startVersion {
		// A commit landed while loading; the loaded copy is older than memory.
		gm.Logger.Warn("State changed during login, keeping in-memory snapshot",
			zap.String("user_id", gm.userID),
			zap.String("discarded_source", source))
		loaded = gm.snap.Clone()
		source = sourceMemory
	}
	span.SetAttributes(attribute.String("snapshot.source", source))
	snap := normalizeSnapshot(loaded)
	refreshed := gm.refreshLocked(&snap)
	gm.snap = snap
	gm.version++
	version := gm.version
	out := snap.Clone()
	gm.stateLock.Unlock()

	gm.Logger.Info("User logged in",
		zap.String("user_id", gm.userID),
		zap.String("source", source),
		zap.Int("level", out.State.Level),
		zap.String("class", string(out.State.ClassTitle)),
		zap.Bool("quests_regenerated", refreshed))

	gm.persistAsync(ctx, out, version)
	gm.narrateAsync(ctx, types.PromptContext{
		Trigger:     types.TriggerLogin,
		ProfileName: out.Profile.Name,
		Archetype:   out.State.ClassTitle,
		Level:       out.State.Level,
	})

	return out, nil
}

// Onboard stores the user profile. It can only be done once.
func (gm *GameManager) Onboard(ctx context.Context, profile types.UserProfile) error {
	if profile.Name == "" {
		return ErrInvalidProfile
	}

	gm.stateLock.Lock()
	if !gm.snap.Profile.IsZero() {
		gm.stateLock.Unlock()
		return ErrProfileExists
	}
	next := gm.snap.Clone()
	next.Profile = profile
	next.State.ClassTitle = gm.classify(next)
	gm.snap = next
	gm.version++
	version := gm.version
	out := next.Clone()
	gm.stateLock.Unlock()

	gm.Logger.Info("Profile onboarded", zap.String("user_id", gm.userID), zap.String("name", profile.Name))
	gm.persistAsync(ctx, out, version)
	return nil
}

// LogActivity applies a newly logged activity end to end: experience, level,
// attributes, quest progress, history and class. Only input errors are
// returned, and nothing is mutated when they are.
func (gm *GameManager) LogActivity(ctx context.Context, activityID string, amount float64) (types.LogResult, error) {
	ctx, span := tracer.Start(ctx, "game.LogActivity")
	defer span.End()
	span.SetAttributes(attribute.String("activity.id", activityID), attribute.Float64("activity.amount", amount))

	activity, ok := gm.catalog.Get(activityID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownActivity, activityID)
		span.SetStatus(codes.Error, err.Error())
		return types.LogResult{}, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		err := fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
		span.SetStatus(codes.Error, err.Error())
		return types.LogResult{}, err
	}

	now := gm.clock.Now()
	raw := floorXP(amount * activity.XPPerUnit)

	gm.stateLock.Lock()
	next := gm.snap.Clone()
	gm.rolloverLocked(&next, now)
	st := &next.State

	gain := ApplyGain(Progress{Level: st.Level, CurrentXP: st.CurrentXP, TotalXP: st.TotalXP}, raw, st.Buff, now)
	st.Level, st.CurrentXP, st.TotalXP = gain.Level, gain.CurrentXP, gain.TotalXP

	if attr := gm.catalog.AttributeFor(activity); attr != "" {
		st.Attributes[attr] += float64(raw)
	}

	var completed []string
	for i := range st.Quests {
		q := &st.Quests[i]
		if q.Claimed || q.ActivityID != activityID {
			continue
		}
		wasComplete := q.Complete()
		q.Progress += amount
		if !wasComplete && q.Complete() {
			completed = append(completed, q.ID)
		}
	}

	entry := types.ActivityLog{
		ID:         newLogID(),
		ActivityID: activityID,
		Amount:     amount,
		XPGained:   gain.Gained,
		Timestamp:  now.UnixMilli(),
	}
	st.Logs = append([]types.ActivityLog{entry}, st.Logs...)
	if len(st.Logs) > HistoryLimit {
		st.Logs = st.Logs[:HistoryLimit]
	}

	previousClass := st.ClassTitle
	st.ClassTitle = gm.classify(next)

	gm.snap = next
	gm.version++
	version := gm.version
	out := next.Clone()
	gm.stateLock.Unlock()

	result := types.LogResult{
		Log:             entry,
		Gain:            gain,
		ClassTitle:      out.State.ClassTitle,
		ClassChanged:    previousClass != out.State.ClassTitle,
		CompletedQuests: completed,
	}

	gm.Logger.Info("Activity logged",
		zap.String("user_id", gm.userID),
		zap.String("activity_id", activityID),
		zap.Float64("amount", amount),
		zap.Int("xp_gained", gain.Gained),
		zap.Int("level", gain.Level),
		zap.Bool("level_up", gain.LeveledUp),
		zap.String("class", string(result.ClassTitle)))

	gm.persistAsync(ctx, out, version)

	trigger := types.TriggerActivity
	if gain.LeveledUp {
		trigger = types.TriggerLevelUp
	}
	gm.narrateAsync(ctx, types.PromptContext{
		Trigger:     trigger,
		ProfileName: out.Profile.Name,
		Archetype:   out.State.ClassTitle,
		Level:       out.State.Level,
		Note:        ActivityNote(activity, out.State.ClassTitle, out.State.Logs),
	})

	return result, nil
}

// ClaimQuest awards a completed quest's reward. Quest rewards are never
// multiplied by buffs.
func (gm *GameManager) ClaimQuest(ctx context.Context, questID string) (types.GainResult, error) {
	ctx, span := tracer.Start(ctx, "game.ClaimQuest")
	defer span.End()

	now := gm.clock.Now()

	gm.stateLock.Lock()
	next := gm.snap.Clone()
	rolled := gm.rolloverLocked(&next, now)

	// reject keeps a rollover even when the claim itself fails
	reject := func(err error) (types.GainResult, error) {
		if !rolled {
			gm.stateLock.Unlock()
			return types.GainResult{}, err
		}
		gm.snap = next
		gm.version++
		version := gm.version
		out := next.Clone()
		gm.stateLock.Unlock()
		gm.persistAsync(ctx, out, version)
		return types.GainResult{}, err
	}

	idx := -1
	for i, q := range next.State.Quests {
		if q.ID == questID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return reject(ErrQuestNotFound)
	}
	quest := next.State.Quests[idx]
	if quest.Claimed {
		return reject(ErrQuestClaimed)
	}
	if !quest.Complete() {
		return reject(ErrQuestIncomplete)
	}

	st := &next.State
	gain := ApplyGain(Progress{Level: st.Level, CurrentXP: st.CurrentXP, TotalXP: st.TotalXP}, quest.RewardXP, nil, now)
	st.Level, st.CurrentXP, st.TotalXP = gain.Level, gain.CurrentXP, gain.TotalXP
	st.Quests[idx].Claimed = true

	gm.snap = next
	gm.version++
	version := gm.version
	out := next.Clone()
	gm.stateLock.Unlock()

	gm.Logger.Info("Quest claimed",
		zap.String("user_id", gm.userID),
		zap.String("quest_id", questID),
		zap.Int("reward_xp", quest.RewardXP),
		zap.Bool("level_up", gain.LeveledUp))

	gm.persistAsync(ctx, out, version)
	if gain.LeveledUp {
		gm.narrateAsync(ctx, types.PromptContext{
			Trigger:     types.TriggerLevelUp,
			ProfileName: out.Profile.Name,
			Archetype:   out.State.ClassTitle,
			Level:       out.State.Level,
			Note:        fmt.Sprintf("reward for a %s quest", quest.Type),
		})
	}
	return gain, nil
}

// ActivateBuff installs a temporary experience multiplier, replacing any
// active one
func (gm *GameManager) ActivateBuff(ctx context.Context, multiplier float64, duration time.Duration, description string) (types.XPBuff, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 1 || duration <= 0 {
		return types.XPBuff{}, ErrInvalidBuff
	}

	buff := types.XPBuff{
		Multiplier:  multiplier,
		ExpiresAt:   gm.clock.Now().Add(duration).UnixMilli(),
		Description: description,
	}

	gm.stateLock.Lock()
	next := gm.snap.Clone()
	next.State.Buff = &buff
	gm.snap = next
	gm.version++
	version := gm.version
	out := next.Clone()
	gm.stateLock.Unlock()

	gm.Logger.Info("Buff activated",
		zap.String("user_id", gm.userID),
		zap.Float64("multiplier", multiplier),
		zap.Duration("duration", duration))

	gm.persistAsync(ctx, out, version)
	return buff, nil
}

// classify runs the classifier against a snapshot
func (gm *GameManager) classify(snap types.Snapshot) types.Archetype {
	return gm.catalog.Classify(ClassInput{
		Attributes: snap.State.Attributes,
		WeightKg:   snap.Profile.WeightKg,
		HeightCm:   snap.Profile.HeightCm,
		Logs:       snap.State.Logs,
	})
}

// refreshLocked reapplies quest regeneration and classification. Caller
// holds stateLock.
func (gm *GameManager) refreshLocked(snap *types.Snapshot) bool {
	snap.State.ClassTitle = gm.classify(*snap)
	return gm.rolloverLocked(snap, gm.clock.Now())
}

// rolloverLocked regenerates the quests of any period that ended before now.
// Caller holds stateLock.
func (gm *GameManager) rolloverLocked(snap *types.Snapshot, now time.Time) bool {
	res := gm.quests.Refresh(QuestInput{
		Quests:     snap.State.Quests,
		Archetype:  snap.State.ClassTitle,
		LastDaily:  snap.State.LastDailyGeneration,
		LastWeekly: snap.State.LastWeeklyGeneration,
	}, now)
	if !res.Changed() {
		return false
	}
	snap.State.Quests = res.Quests
	snap.State.LastDailyGeneration = res.LastDaily
	snap.State.LastWeeklyGeneration = res.LastWeekly

	gm.Logger.Debug("Quests rolled over",
		zap.String("user_id", gm.userID),
		zap.Bool("daily", res.DailyFired),
		zap.Bool("weekly", res.WeeklyFired))
	return true
}

// rollQuests commits a quest rollover on its own and returns the result.
func (gm *GameManager) rollQuests(ctx context.Context, now time.Time) types.Snapshot {
	gm.stateLock.Lock()
	next := gm.snap.Clone()
	if !gm.rolloverLocked(&next, now) {
		gm.stateLock.Unlock()
		return next
	}
	gm.snap = next
	gm.version++
	version := gm.version
	out := next.Clone()
	gm.stateLock.Unlock()

	gm.persistAsync(ctx, out, version)
	return out
}

// normalizeSnapshot repairs fields a stored document may lack
func normalizeSnapshot(snap types.Snapshot) types.Snapshot {
	st := &snap.State
	if st.Level < 1 {
		st.Level = 1
	}
	if st.CurrentXP < 0 {
		st.CurrentXP = 0
	}
	if st.Attributes == nil {
		st.Attributes = make(types.AttributeVector)
	}
	if st.Logs == nil {
		st.Logs = make([]types.ActivityLog, 0)
	}
	if len(st.Logs) > HistoryLimit {
		st.Logs = st.Logs[:HistoryLimit]
	}
	if st.Quests == nil {
		st.Quests = make([]types.Quest, 0)
	}
	for st.CurrentXP >= ExperienceRequired(st.Level) {
		st.CurrentXP -= ExperienceRequired(st.Level)
		st.Level++
	}
	return snap
}

func newLogID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// goAsync runs fn on a background goroutine tracked by Wait. The context is
// detached from the caller's cancellation.
func (gm *GameManager) goAsync(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	gm.tasks.Add(1)
	go func() {
		defer gm.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				gm.Logger.Error("Background task panicked",
					zap.String("task", name),
					zap.Any("panic", r))
			}
		}()
		fn(ctx)
	}()
}

// narrateAsync asks the narrator for flavor text without blocking the caller
func (gm *GameManager) narrateAsync(ctx context.Context, prompt types.PromptContext) {
	if gm.narrator == nil {
		return
	}
	gm.goAsync(ctx, "narrate", func(ctx context.Context) {
		text := gm.narrator.Generate(ctx, prompt)
		n := types.Narration{
			Trigger:   prompt.Trigger,
			Text:      text,
			CreatedAt: gm.clock.Now().UnixMilli(),
		}

		gm.narrationLock.Lock()
		gm.lastNarration = &n
		handler := gm.onNarration
		gm.narrationLock.Unlock()

		gm.Logger.Debug("Narration ready",
			zap.String("user_id", gm.userID),
			zap.String("trigger", string(prompt.Trigger)))
		if handler != nil {
			handler(n)
		}
	})
}
