package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/user/life-rpg/internal/types"
)

const (
	// DailyBasicQuests and WeeklyBasicQuests are drawn from the basic pool
	// every period; one more quest is added on top (class or basic).
	DailyBasicQuests  = 2
	WeeklyBasicQuests = 1

	DailyRewardMultiplier  = 1.2
	WeeklyRewardMultiplier = 2.0

	// WeekStart is the first day of a quest week.
	WeekStart = time.Monday
)

// dailyBaselines is the daily target per unit type. Weekly targets are seven
// times these.
var dailyBaselines = map[types.Unit]float64{
	types.UnitKilometers: 3,
	types.UnitReps:       30,
	types.UnitMinutes:    30,
	types.UnitGlasses:    8,
	types.UnitPages:      20,
	types.UnitRounds:     5,
	types.UnitSessions:   1,
}

// QuestInput is the quest-related slice of game state.
type QuestInput struct {
	Quests     []types.Quest
	Archetype  types.Archetype
	LastDaily  int64
	LastWeekly int64
}

// QuestResult is the refreshed quest state.
type QuestResult struct {
	Quests      []types.Quest
	LastDaily   int64
	LastWeekly  int64
	DailyFired  bool
	WeeklyFired bool
}

// Changed reports whether any period was regenerated.
func (r QuestResult) Changed() bool {
	return r.DailyFired || r.WeeklyFired
}

// QuestGenerator regenerates daily and weekly quests at calendar boundaries.
type QuestGenerator struct {
	catalog  *Catalog
	dice     *DiceRoller
	location *time.Location
}

// NewQuestGenerator creates a quest generator. A nil location means time.Local.
func NewQuestGenerator(catalog *Catalog, dice *DiceRoller, location *time.Location) *QuestGenerator {
	if location == nil {
		location = time.Local
	}
	return &QuestGenerator{
		catalog:  catalog,
		dice:     dice,
		location: location,
	}
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns midnight of the most recent WeekStart day at or before t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// Due reports which periods have rolled over at now. A zero timestamp means
// the period was never generated.
func (g *QuestGenerator) Due(lastDaily, lastWeekly int64, now time.Time) (daily, weekly bool) {
	daily = lastDaily == 0 || lastDaily < StartOfDay(now, g.location).UnixMilli()
	weekly = lastWeekly == 0 || lastWeekly < StartOfWeek(now, g.location).UnixMilli()
	return daily, weekly
}

// Refresh regenerates whichever periods have rolled over since their last
// generation. When neither has, the input is returned unchanged.
func (g *QuestGenerator) Refresh(in QuestInput, now time.Time) QuestResult {
	res := QuestResult{
		Quests:     in.Quests,
		LastDaily:  in.LastDaily,
		LastWeekly: in.LastWeekly,
	}

	nowMs := now.UnixMilli()
	res.DailyFired, res.WeeklyFired = g.Due(in.LastDaily, in.LastWeekly, now)
	if !res.Changed() {
		return res
	}

	merged := make([]types.Quest, 0, len(in.Quests)+DailyBasicQuests+WeeklyBasicQuests+2)
	for _, q := range in.Quests {
		if q.Type == types.QuestDaily && res.DailyFired {
			continue
		}
		if q.Type == types.QuestWeekly && res.WeeklyFired {
			continue
		}
		merged = append(merged, q)
	}

	if res.DailyFired {
		merged = append(merged, g.generate(types.QuestDaily, in.Archetype, nowMs)...)
		res.LastDaily = nowMs
	}
	if res.WeeklyFired {
		merged = append(merged, g.generate(types.QuestWeekly, in.Archetype, nowMs)...)
		res.LastWeekly = nowMs
	}
	res.Quests = merged
	return res
}

func (g *QuestGenerator) generate(kind types.QuestType, archetype types.Archetype, nowMs int64) []types.Quest {
	basicCount := DailyBasicQuests
	if kind == types.QuestWeekly {
		basicCount = WeeklyBasicQuests
	}
	specialized := archetype.IsValid() && !archetype.IsBaseline()
	if !specialized {
		basicCount++
	}

	basic := g.catalog.Basic()
	selected := make([]types.ActivityType, 0, basicCount+1)
	for _, i := range g.dice.Pick(len(basic), basicCount) {
		selected = append(selected, basic[i])
	}

	if specialized {
		if a, ok := g.classCandidate(archetype); ok {
			selected = append(selected, a)
		}
	}

	quests := make([]types.Quest, 0, len(selected))
	for _, a := range selected {
		quests = append(quests, newQuest(kind, a, nowMs))
	}
	return quests
}

// classCandidate picks one non-basic, non-bad-habit activity suited to the
// archetype, falling back to any non-basic activity when none match.
func (g *QuestGenerator) classCandidate(archetype types.Archetype) (types.ActivityType, bool) {
	var pool, matching []types.ActivityType
	for _, a := range g.catalog.All() {
		if g.catalog.IsBasic(a.ID) || a.Category == types.CategoryBadHabit {
			continue
		}
		pool = append(pool, a)
		if SuitsArchetype(a, archetype) {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		matching = pool
	}
	if len(matching) == 0 {
		return types.ActivityType{}, false
	}
	return matching[g.dice.Roll(len(matching))-1], true
}

// QuestTarget returns the target amount of a quest for the activity.
func QuestTarget(kind types.QuestType, a types.ActivityType) float64 {
	base, ok := dailyBaselines[a.Unit]
	if !ok {
		base = 1
	}
	if kind == types.QuestWeekly {
		return base * 7
	}
	return base
}

// QuestReward returns the experience reward for completing a quest.
func QuestReward(kind types.QuestType, a types.ActivityType, target float64) int {
	mult := DailyRewardMultiplier
	if kind == types.QuestWeekly {
		mult = WeeklyRewardMultiplier
	}
	return floorXP(target * a.XPPerUnit * mult)
}

func newQuest(kind types.QuestType, a types.ActivityType, nowMs int64) types.Quest {
	target := QuestTarget(kind, a)
	return types.Quest{
		ID:         uuid.NewString(),
		Type:       kind,
		ActivityID: a.ID,
		Target:     target,
		RewardXP:   QuestReward(kind, a, target),
		CreatedAt:  nowMs,
	}
}
