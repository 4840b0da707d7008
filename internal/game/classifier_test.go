package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/life-rpg/internal/types"
)

func logsOf(ids ...string) []types.ActivityLog {
	logs := make([]types.ActivityLog, 0, len(ids))
	for i, id := range ids {
		logs = append(logs, types.ActivityLog{ID: id + string(rune('a'+i%26)), ActivityID: id, Amount: 1})
	}
	return logs
}

func repeat(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = id
	}
	return out
}

func TestClassifyBaseline(t *testing.T) {
	c := DefaultCatalog()

	// Test case 1: Empty vector
	assert.Equal(t, types.ArchetypeNovice, c.Classify(ClassInput{}))

	// Test case 2: Below the floor
	assert.Equal(t, types.ArchetypeNovice, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: 5},
	}))

	// Test case 3: Malformed vectors fall back to the baseline
	assert.Equal(t, types.ArchetypeNovice, c.Classify(ClassInput{
		Attributes: types.AttributeVector{"luck": 50},
	}))
	assert.Equal(t, types.ArchetypeNovice, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: 50, types.AttributeAgility: -1},
	}))
	assert.Equal(t, types.ArchetypeNovice, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: math.NaN()},
	}))
}

func TestClassifyTable(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name     string
		in       ClassInput
		expected types.Archetype
	}{
		{
			name:     "strength only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeStrength: 20}},
			expected: types.ArchetypeWarrior,
		},
		{
			name: "strength with endurance and heavy build",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeStrength: 100, types.AttributeEndurance: 50},
				WeightKg:   90,
				HeightCm:   175,
			},
			expected: types.ArchetypeJuggernaut,
		},
		{
			name:     "strength with endurance and no measurements",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeStrength: 100, types.AttributeEndurance: 50}},
			expected: types.ArchetypeWarrior,
		},
		{
			name:     "strength with charisma",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeStrength: 100, types.AttributeCharisma: 50}},
			expected: types.ArchetypePaladin,
		},
		{
			name:     "strength with irrelevant charisma",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeStrength: 100, types.AttributeCharisma: 40}},
			expected: types.ArchetypeWarrior,
		},
		{
			name: "strength with combat heavy history",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeStrength: 100},
				Logs:       logsOf("boxing", "boxing", "boxing", "pushups"),
			},
			expected: types.ArchetypeBerserker,
		},
		{
			name:     "agility with dexterity",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeAgility: 50, types.AttributeDexterity: 30}},
			expected: types.ArchetypeRogue,
		},
		{
			name:     "agility only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeAgility: 50}},
			expected: types.ArchetypeRanger,
		},
		{
			name: "agility with combat history",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeAgility: 50},
				Logs:       logsOf("martial_arts", "martial_arts"),
			},
			expected: types.ArchetypeMonk,
		},
		{
			name:     "dexterity with intellect",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeDexterity: 50, types.AttributeIntellect: 25}},
			expected: types.ArchetypeSpellblade,
		},
		{
			name: "dexterity with combat history",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeDexterity: 50},
				Logs:       logsOf("fencing"),
			},
			expected: types.ArchetypeDuelist,
		},
		{
			name:     "drive only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeDrive: 30}},
			expected: types.ArchetypeChampion,
		},
		{
			name:     "drive with intellect",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeDrive: 30, types.AttributeIntellect: 20}},
			expected: types.ArchetypeStrategist,
		},
		{
			name:     "intellect only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeIntellect: 100}},
			expected: types.ArchetypeMage,
		},
		{
			name:     "intellect with drive",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeIntellect: 100, types.AttributeDrive: 60}},
			expected: types.ArchetypeStrategist,
		},
		{
			name:     "intellect with strength",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeIntellect: 100, types.AttributeStrength: 60}},
			expected: types.ArchetypeSpellblade,
		},
		{
			name:     "charisma only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeCharisma: 40}},
			expected: types.ArchetypeBard,
		},
		{
			name:     "vigor only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeVigor: 40}},
			expected: types.ArchetypeCleric,
		},
		{
			name: "vigor with lean build",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeVigor: 40},
				WeightKg:   50,
				HeightCm:   180,
			},
			expected: types.ArchetypeDruid,
		},
		{
			name:     "endurance with vigor",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeEndurance: 40, types.AttributeVigor: 20}},
			expected: types.ArchetypeDruid,
		},
		{
			name: "endurance with heavy build",
			in: ClassInput{
				Attributes: types.AttributeVector{types.AttributeEndurance: 40},
				WeightKg:   100,
				HeightCm:   180,
			},
			expected: types.ArchetypeJuggernaut,
		},
		{
			name:     "endurance only",
			in:       ClassInput{Attributes: types.AttributeVector{types.AttributeEndurance: 40}},
			expected: types.ArchetypeRanger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.in))
		})
	}
}

func TestClassifyTieBreakAndWindow(t *testing.T) {
	c := DefaultCatalog()

	// Test case 1: Ties resolve in canonical attribute order
	assert.Equal(t, types.ArchetypeWarrior, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: 20, types.AttributeAgility: 20},
	}))

	// Test case 2: Only the most recent window of logs counts
	ids := append(repeat("pushups", 26), repeat("boxing", 34)...)
	assert.Equal(t, types.ArchetypeWarrior, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: 100},
		Logs:       logsOf(ids...),
	}))

	// Test case 3: Unknown activities in history are ignored
	assert.Equal(t, types.ArchetypeWarrior, c.Classify(ClassInput{
		Attributes: types.AttributeVector{types.AttributeStrength: 100},
		Logs:       logsOf("teleport", "teleport"),
	}))
}

func TestBodyMassIndex(t *testing.T) {
	assert.InDelta(t, 22.86, BodyMassIndex(70, 175), 0.01)
	assert.Equal(t, NeutralBMI, BodyMassIndex(0, 175))
	assert.Equal(t, NeutralBMI, BodyMassIndex(70, 0))
	assert.Equal(t, NeutralBMI, BodyMassIndex(-70, 175))
	assert.Equal(t, NeutralBMI, BodyMassIndex(math.NaN(), 175))
	assert.Equal(t, NeutralBMI, BodyMassIndex(70, math.Inf(1)))
}

func TestSuitsArchetype(t *testing.T) {
	c := DefaultCatalog()
	running, _ := c.Get("running")
	study, _ := c.Get("study")
	boxing, _ := c.Get("boxing")

	assert.True(t, SuitsArchetype(running, types.ArchetypeRanger))
	assert.True(t, SuitsArchetype(study, types.ArchetypeMage))
	assert.True(t, SuitsArchetype(boxing, types.ArchetypeWarrior))
	assert.False(t, SuitsArchetype(study, types.ArchetypeWarrior))
	assert.False(t, SuitsArchetype(running, types.ArchetypeNovice))
	assert.False(t, SuitsArchetype(running, types.ArchetypeAdventurer))
}
