package types

// Category groups activity types; it drives attribute accumulation and the
// combat/fitness tally used by the classifier.
type Category string

const (
	CategoryFitness   Category = "fitness"
	CategoryIntellect Category = "intellect"
	CategoryHealth    Category = "health"
	CategoryCombat    Category = "combat"
	CategorySocial    Category = "social"
	CategoryBadHabit  Category = "bad_habit"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryFitness, CategoryIntellect, CategoryHealth, CategoryCombat, CategorySocial, CategoryBadHabit:
		return true
	default:
		return false
	}
}

// Attribute is one of the eight accumulators feeding the classifier.
type Attribute string

const (
	AttributeStrength  Attribute = "strength"
	AttributeAgility   Attribute = "agility"
	AttributeDexterity Attribute = "dexterity"
	AttributeDrive     Attribute = "drive"
	AttributeIntellect Attribute = "intellect"
	AttributeCharisma  Attribute = "charisma"
	AttributeVigor     Attribute = "vigor"
	AttributeEndurance Attribute = "endurance"
)

// Attributes lists every attribute in canonical order. Classifier ties are
// broken by position in this slice.
var Attributes = []Attribute{
	AttributeStrength,
	AttributeAgility,
	AttributeDexterity,
	AttributeDrive,
	AttributeIntellect,
	AttributeCharisma,
	AttributeVigor,
	AttributeEndurance,
}

func (a Attribute) IsValid() bool {
	for _, known := range Attributes {
		if a == known {
			return true
		}
	}
	return false
}

// Archetype is the class title assigned to a user.
type Archetype string

const (
	// ArchetypeNovice means no class has been earned yet.
	ArchetypeNovice Archetype = "Novice"
	// ArchetypeAdventurer is the generic fallback for unmatched inputs.
	ArchetypeAdventurer Archetype = "Adventurer"

	ArchetypeWarrior    Archetype = "Warrior"
	ArchetypeBerserker  Archetype = "Berserker"
	ArchetypePaladin    Archetype = "Paladin"
	ArchetypeJuggernaut Archetype = "Juggernaut"
	ArchetypeRogue      Archetype = "Rogue"
	ArchetypeMonk       Archetype = "Monk"
	ArchetypeRanger     Archetype = "Ranger"
	ArchetypeDuelist    Archetype = "Duelist"
	ArchetypeChampion   Archetype = "Champion"
	ArchetypeStrategist Archetype = "Strategist"
	ArchetypeMage       Archetype = "Mage"
	ArchetypeSpellblade Archetype = "Spellblade"
	ArchetypeBard       Archetype = "Bard"
	ArchetypeCleric     Archetype = "Cleric"
	ArchetypeDruid      Archetype = "Druid"
)

// IsBaseline reports whether the archetype is one of the two labels that do
// not represent a specialized class.
func (a Archetype) IsBaseline() bool {
	return a == ArchetypeNovice || a == ArchetypeAdventurer
}

func (a Archetype) IsValid() bool {
	switch a {
	case ArchetypeNovice, ArchetypeAdventurer,
		ArchetypeWarrior, ArchetypeBerserker, ArchetypePaladin, ArchetypeJuggernaut,
		ArchetypeRogue, ArchetypeMonk, ArchetypeRanger, ArchetypeDuelist,
		ArchetypeChampion, ArchetypeStrategist, ArchetypeMage, ArchetypeSpellblade,
		ArchetypeBard, ArchetypeCleric, ArchetypeDruid:
		return true
	default:
		return false
	}
}

// Unit is the measuring unit of an activity amount.
type Unit string

const (
	UnitKilometers Unit = "km"
	UnitReps       Unit = "reps"
	UnitMinutes    Unit = "minutes"
	UnitGlasses    Unit = "glasses"
	UnitPages      Unit = "pages"
	UnitRounds     Unit = "rounds"
	UnitSessions   Unit = "sessions"
)

// QuestType is the period a quest belongs to.
type QuestType string

const (
	QuestDaily  QuestType = "daily"
	QuestWeekly QuestType = "weekly"
)

// Trigger tells the narrator why it is being asked to speak.
type Trigger string

const (
	TriggerLogin    Trigger = "login"
	TriggerActivity Trigger = "activity"
	TriggerLevelUp  Trigger = "level_up"
)

// ActivityType is an immutable catalog entry.
type ActivityType struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	XPPerUnit float64   `json:"xp_per_unit"`
	Unit      Unit      `json:"unit"`
	Icon      string    `json:"icon"`
	Category  Category  `json:"category"`
	Attribute Attribute `json:"attribute,omitempty"`
	Affinity  Archetype `json:"affinity,omitempty"`
}

// ActivityLog records a single logged activity.
type ActivityLog struct {
	ID         string  `json:"id"`
	ActivityID string  `json:"activity_id"`
	Amount     float64 `json:"amount"`
	XPGained   int     `json:"xp_gained"`
	Timestamp  int64   `json:"timestamp"`
}

// AttributeVector maps attributes to accumulated weight.
type AttributeVector map[Attribute]float64

// Clone returns an independent copy of the vector.
func (v AttributeVector) Clone() AttributeVector {
	out := make(AttributeVector, len(v))
	for k, w := range v {
		out[k] = w
	}
	return out
}

// Quest is a time-boxed target tied to one activity.
type Quest struct {
	ID         string    `json:"id"`
	Type       QuestType `json:"type"`
	ActivityID string    `json:"activity_id"`
	Target     float64   `json:"target"`
	Progress   float64   `json:"progress"`
	RewardXP   int       `json:"reward_xp"`
	Claimed    bool      `json:"claimed"`
	CreatedAt  int64     `json:"created_at"`
}

// Complete reports whether the quest progress reached its target.
func (q Quest) Complete() bool {
	return q.Progress >= q.Target
}

// XPBuff is a temporary experience multiplier.
type XPBuff struct {
	Multiplier  float64 `json:"multiplier"`
	ExpiresAt   int64   `json:"expires_at"`
	Description string  `json:"description"`
}

// GameState is the progression state of a single user.
type GameState struct {
	Level      int             `json:"level"`
	CurrentXP  int             `json:"current_xp"`
	TotalXP    int             `json:"total_xp"`
	Logs       []ActivityLog   `json:"logs"`
	ClassTitle Archetype       `json:"class_title"`
	Attributes AttributeVector `json:"attributes"`
	Buff       *XPBuff         `json:"buff,omitempty"`
	Quests     []Quest         `json:"quests"`

	// Epoch milliseconds of the last quest generation; 0 when never generated.
	LastDailyGeneration  int64 `json:"last_daily_generation"`
	LastWeeklyGeneration int64 `json:"last_weekly_generation"`
}

// NewGameState returns the state of a brand new account.
func NewGameState() GameState {
	return GameState{
		Level:      1,
		ClassTitle: ArchetypeNovice,
		Logs:       make([]ActivityLog, 0),
		Attributes: make(AttributeVector),
		Quests:     make([]Quest, 0),
	}
}

// Clone returns a deep copy so readers never share slices with the owner.
func (s GameState) Clone() GameState {
	out := s
	out.Logs = append(make([]ActivityLog, 0, len(s.Logs)), s.Logs...)
	out.Quests = append(make([]Quest, 0, len(s.Quests)), s.Quests...)
	out.Attributes = s.Attributes.Clone()
	if s.Buff != nil {
		buff := *s.Buff
		out.Buff = &buff
	}
	return out
}

// UserProfile holds onboarding data.
type UserProfile struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"date_of_birth"`
	WeightKg    float64 `json:"weight_kg"`
	HeightCm    float64 `json:"height_cm"`
	Gender      string  `json:"gender"`
	Profession  string  `json:"profession"`
}

// IsZero reports whether onboarding has not happened yet.
func (p UserProfile) IsZero() bool {
	return p == UserProfile{}
}

// Snapshot is the unit of persistence: a profile and its game state.
type Snapshot struct {
	Profile UserProfile `json:"profile"`
	State   GameState   `json:"state"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Profile: s.Profile, State: s.State.Clone()}
}

// PromptContext is the structured input handed to the narrator.
type PromptContext struct {
	Trigger     Trigger   `json:"trigger"`
	ProfileName string    `json:"profile_name"`
	Archetype   Archetype `json:"archetype"`
	Level       int       `json:"level"`
	Note        string    `json:"note,omitempty"`
}

// Narration is a generated line of narrator text.
type Narration struct {
	Trigger   Trigger `json:"trigger"`
	Text      string  `json:"text"`
	CreatedAt int64   `json:"created_at"`
}

// GainResult is the outcome of applying experience to a state.
type GainResult struct {
	Level     int  `json:"level"`
	CurrentXP int  `json:"current_xp"`
	TotalXP   int  `json:"total_xp"`
	Gained    int  `json:"gained"`
	LeveledUp bool `json:"leveled_up"`
}

// LogResult summarizes one applied activity log.
type LogResult struct {
	Log             ActivityLog `json:"log"`
	Gain            GainResult  `json:"gain"`
	ClassTitle      Archetype   `json:"class_title"`
	ClassChanged    bool        `json:"class_changed"`
	CompletedQuests []string    `json:"completed_quests,omitempty"`
}
