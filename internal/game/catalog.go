package game

import (
	"errors"
	"fmt"

	"github.com/user/life-rpg/internal/types"
)

// Catalog is the immutable set of recognized activity types. Iteration order
// is the declaration order, which keeps seeded quest selection reproducible.
type Catalog struct {
	activities []types.ActivityType
	byID       map[string]int
	basic      []string
}

// BasicActivityIDs is the pool every quest period draws from.
var BasicActivityIDs = []string{"pushups", "squats", "walking", "water", "reading"}

// DefaultActivities is the built-in catalog.
var DefaultActivities = []types.ActivityType{
	{ID: "pushups", Label: "Push-ups", XPPerUnit: 0.5, Unit: types.UnitReps, Icon: "dumbbell", Category: types.CategoryFitness, Attribute: types.AttributeStrength},
	{ID: "squats", Label: "Squats", XPPerUnit: 0.5, Unit: types.UnitReps, Icon: "squat", Category: types.CategoryFitness, Attribute: types.AttributeEndurance},
	{ID: "walking", Label: "Walking", XPPerUnit: 10, Unit: types.UnitKilometers, Icon: "footprints", Category: types.CategoryFitness, Attribute: types.AttributeEndurance},
	{ID: "water", Label: "Drink water", XPPerUnit: 2, Unit: types.UnitGlasses, Icon: "droplet", Category: types.CategoryHealth, Attribute: types.AttributeVigor},
	{ID: "reading", Label: "Reading", XPPerUnit: 1, Unit: types.UnitPages, Icon: "book", Category: types.CategoryIntellect, Attribute: types.AttributeIntellect},

	{ID: "running", Label: "Running", XPPerUnit: 15, Unit: types.UnitKilometers, Icon: "run", Category: types.CategoryFitness, Attribute: types.AttributeAgility, Affinity: types.ArchetypeRanger},
	{ID: "cycling", Label: "Cycling", XPPerUnit: 5, Unit: types.UnitKilometers, Icon: "bike", Category: types.CategoryFitness, Attribute: types.AttributeEndurance, Affinity: types.ArchetypeRanger},
	{ID: "weightlifting", Label: "Weightlifting", XPPerUnit: 2, Unit: types.UnitMinutes, Icon: "barbell", Category: types.CategoryFitness, Attribute: types.AttributeStrength, Affinity: types.ArchetypeWarrior},
	{ID: "swimming", Label: "Swimming", XPPerUnit: 2.5, Unit: types.UnitMinutes, Icon: "wave", Category: types.CategoryFitness, Attribute: types.AttributeEndurance, Affinity: types.ArchetypeDruid},
	{ID: "boxing", Label: "Boxing", XPPerUnit: 8, Unit: types.UnitRounds, Icon: "glove", Category: types.CategoryCombat, Attribute: types.AttributeStrength, Affinity: types.ArchetypeBerserker},
	{ID: "martial_arts", Label: "Martial arts", XPPerUnit: 2.5, Unit: types.UnitMinutes, Icon: "belt", Category: types.CategoryCombat, Attribute: types.AttributeAgility, Affinity: types.ArchetypeMonk},
	{ID: "fencing", Label: "Fencing", XPPerUnit: 2.5, Unit: types.UnitMinutes, Icon: "sword", Category: types.CategoryCombat, Attribute: types.AttributeDexterity, Affinity: types.ArchetypeDuelist},
	{ID: "yoga", Label: "Yoga", XPPerUnit: 1.5, Unit: types.UnitMinutes, Icon: "lotus", Category: types.CategoryHealth, Attribute: types.AttributeVigor, Affinity: types.ArchetypeMonk},
	{ID: "stretching", Label: "Stretching", XPPerUnit: 1, Unit: types.UnitMinutes, Icon: "stretch", Category: types.CategoryHealth, Attribute: types.AttributeAgility},
	{ID: "meditation", Label: "Meditation", XPPerUnit: 1, Unit: types.UnitMinutes, Icon: "moon", Category: types.CategoryHealth, Attribute: types.AttributeVigor, Affinity: types.ArchetypeCleric},
	{ID: "cold_shower", Label: "Cold shower", XPPerUnit: 15, Unit: types.UnitSessions, Icon: "snowflake", Category: types.CategoryHealth, Attribute: types.AttributeDrive, Affinity: types.ArchetypeChampion},
	{ID: "study", Label: "Study", XPPerUnit: 1.5, Unit: types.UnitMinutes, Icon: "graduation", Category: types.CategoryIntellect, Attribute: types.AttributeIntellect, Affinity: types.ArchetypeMage},
	{ID: "deep_work", Label: "Deep work", XPPerUnit: 2, Unit: types.UnitMinutes, Icon: "target", Category: types.CategoryIntellect, Attribute: types.AttributeDrive, Affinity: types.ArchetypeStrategist},
	{ID: "instrument", Label: "Instrument practice", XPPerUnit: 1.5, Unit: types.UnitMinutes, Icon: "music", Category: types.CategoryIntellect, Attribute: types.AttributeDexterity, Affinity: types.ArchetypeBard},
	{ID: "socializing", Label: "Socializing", XPPerUnit: 1, Unit: types.UnitMinutes, Icon: "users", Category: types.CategorySocial, Attribute: types.AttributeCharisma, Affinity: types.ArchetypeBard},
	{ID: "public_speaking", Label: "Public speaking", XPPerUnit: 25, Unit: types.UnitSessions, Icon: "mic", Category: types.CategorySocial, Attribute: types.AttributeCharisma, Affinity: types.ArchetypePaladin},
	{ID: "volunteering", Label: "Volunteering", XPPerUnit: 30, Unit: types.UnitSessions, Icon: "heart", Category: types.CategorySocial, Attribute: types.AttributeCharisma, Affinity: types.ArchetypeCleric},

	{ID: "smoking", Label: "Smoking", XPPerUnit: 1, Unit: types.UnitSessions, Icon: "cigarette", Category: types.CategoryBadHabit},
	{ID: "junk_food", Label: "Junk food", XPPerUnit: 1, Unit: types.UnitSessions, Icon: "burger", Category: types.CategoryBadHabit},
	{ID: "doomscrolling", Label: "Doomscrolling", XPPerUnit: 0.1, Unit: types.UnitMinutes, Icon: "phone", Category: types.CategoryBadHabit},
}

// categoryAttributes is used when an activity does not name its attribute.
var categoryAttributes = map[types.Category]types.Attribute{
	types.CategoryFitness:   types.AttributeStrength,
	types.CategoryIntellect: types.AttributeIntellect,
	types.CategoryHealth:    types.AttributeVigor,
	types.CategoryCombat:    types.AttributeDexterity,
	types.CategorySocial:    types.AttributeCharisma,
}

// NewCatalog validates the activity definitions and builds a catalog. Basic
// ids that are not defined are ignored.
func NewCatalog(activities ...types.ActivityType) (*Catalog, error) {
	if len(activities) == 0 {
		return nil, errors.New("catalog is empty")
	}

	c := &Catalog{
		activities: make([]types.ActivityType, 0, len(activities)),
		byID:       make(map[string]int, len(activities)),
	}
	for _, a := range activities {
		if a.ID == "" {
			return nil, errors.New("activity id is required")
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate activity id: %s", a.ID)
		}
		if !(a.XPPerUnit > 0) {
			return nil, fmt.Errorf("activity %s: xp per unit must be positive", a.ID)
		}
		if !a.Category.IsValid() {
			return nil, fmt.Errorf("activity %s: invalid category %q", a.ID, a.Category)
		}
		if a.Attribute != "" && !a.Attribute.IsValid() {
			return nil, fmt.Errorf("activity %s: invalid attribute %q", a.ID, a.Attribute)
		}
		if a.Affinity != "" && !a.Affinity.IsValid() {
			return nil, fmt.Errorf("activity %s: invalid affinity %q", a.ID, a.Affinity)
		}
		c.byID[a.ID] = len(c.activities)
		c.activities = append(c.activities, a)
	}

	for _, id := range BasicActivityIDs {
		if _, ok := c.byID[id]; ok {
			c.basic = append(c.basic, id)
		}
	}

	return c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultActivities...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get looks up an activity by id.
func (c *Catalog) Get(id string) (types.ActivityType, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.ActivityType{}, false
	}
	return c.activities[i], true
}

// All returns every activity in catalog order.
func (c *Catalog) All() []types.ActivityType {
	return append([]types.ActivityType(nil), c.activities...)
}

// Basic returns the basic quest pool in catalog order.
func (c *Catalog) Basic() []types.ActivityType {
	out := make([]types.ActivityType, 0, len(c.basic))
	for _, id := range c.basic {
		a, _ := c.Get(id)
		out = append(out, a)
	}
	return out
}

// IsBasic reports whether id belongs to the basic pool.
func (c *Catalog) IsBasic(id string) bool {
	for _, b := range c.basic {
		if b == id {
			return true
		}
	}
	return false
}

// AttributeFor returns the attribute an activity feeds, or "" for none.
func (c *Catalog) AttributeFor(a types.ActivityType) types.Attribute {
	if a.Attribute != "" {
		return a.Attribute
	}
	return categoryAttributes[a.Category]
}
