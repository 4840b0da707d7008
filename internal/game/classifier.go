package game

import (
	"math"

	"github.com/user/life-rpg/internal/types"
)

const (
	// ClassWeightFloor is the minimum primary weight needed to earn a class.
	ClassWeightFloor = 10.0
	// SecondaryRatio is the share of the primary weight a secondary attribute
	// must exceed to shape the class.
	SecondaryRatio = 0.4
	// NeutralBMI stands in for missing or unusable body measurements.
	NeutralBMI = 22.0
	// HeavyBMI and LeanBMI are the body-mass thresholds used by the table.
	HeavyBMI = 27.0
	LeanBMI  = 18.5
	// ClassWindow is the number of recent logs considered.
	ClassWindow = 50
)

// ClassInput is everything the classifier looks at.
type ClassInput struct {
	Attributes types.AttributeVector
	WeightKg   float64
	HeightCm   float64
	Logs       []types.ActivityLog
}

type classSignals struct {
	secondary types.Attribute // empty unless relevant
	bmi       float64
	combat    int
	fitness   int
}

func (s classSignals) secondaryIn(attrs ...types.Attribute) bool {
	for _, a := range attrs {
		if s.secondary == a {
			return true
		}
	}
	return false
}

func (s classSignals) brawler() bool {
	return s.combat > s.fitness
}

type classRule struct {
	match func(classSignals) bool
	class types.Archetype
}

func always(classSignals) bool { return true }

// classTable maps the primary attribute to its ordered rules. Every list ends
// with an unconditional rule.
var classTable = map[types.Attribute][]classRule{
	types.AttributeStrength: {
		{func(s classSignals) bool {
			return s.secondaryIn(types.AttributeEndurance, types.AttributeVigor) && s.bmi >= HeavyBMI
		}, types.ArchetypeJuggernaut},
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeCharisma) }, types.ArchetypePaladin},
		{classSignals.brawler, types.ArchetypeBerserker},
		{always, types.ArchetypeWarrior},
	},
	types.AttributeAgility: {
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeDexterity) }, types.ArchetypeRogue},
		{classSignals.brawler, types.ArchetypeMonk},
		{always, types.ArchetypeRanger},
	},
	types.AttributeDexterity: {
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeIntellect) }, types.ArchetypeSpellblade},
		{classSignals.brawler, types.ArchetypeDuelist},
		{always, types.ArchetypeRogue},
	},
	types.AttributeDrive: {
		{func(s classSignals) bool {
			return s.secondaryIn(types.AttributeIntellect, types.AttributeCharisma)
		}, types.ArchetypeStrategist},
		{always, types.ArchetypeChampion},
	},
	types.AttributeIntellect: {
		{func(s classSignals) bool {
			return s.secondaryIn(types.AttributeStrength, types.AttributeDexterity)
		}, types.ArchetypeSpellblade},
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeDrive) }, types.ArchetypeStrategist},
		{always, types.ArchetypeMage},
	},
	types.AttributeCharisma: {
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeStrength) }, types.ArchetypePaladin},
		{always, types.ArchetypeBard},
	},
	types.AttributeVigor: {
		{func(s classSignals) bool {
			return s.secondaryIn(types.AttributeEndurance) || s.bmi < LeanBMI
		}, types.ArchetypeDruid},
		{classSignals.brawler, types.ArchetypeMonk},
		{always, types.ArchetypeCleric},
	},
	types.AttributeEndurance: {
		{func(s classSignals) bool { return s.bmi >= HeavyBMI }, types.ArchetypeJuggernaut},
		{func(s classSignals) bool { return s.secondaryIn(types.AttributeVigor) }, types.ArchetypeDruid},
		{classSignals.brawler, types.ArchetypeMonk},
		{always, types.ArchetypeRanger},
	},
}

// archetypeCategories lists the categories whose activities suit each
// specialized archetype when generating class quests.
var archetypeCategories = map[types.Archetype][]types.Category{
	types.ArchetypeWarrior:    {types.CategoryFitness, types.CategoryCombat},
	types.ArchetypeBerserker:  {types.CategoryCombat},
	types.ArchetypePaladin:    {types.CategoryCombat, types.CategorySocial},
	types.ArchetypeJuggernaut: {types.CategoryFitness, types.CategoryHealth},
	types.ArchetypeRogue:      {types.CategoryCombat},
	types.ArchetypeMonk:       {types.CategoryCombat, types.CategoryHealth},
	types.ArchetypeRanger:     {types.CategoryFitness},
	types.ArchetypeDuelist:    {types.CategoryCombat},
	types.ArchetypeChampion:   {types.CategoryFitness},
	types.ArchetypeStrategist: {types.CategoryIntellect},
	types.ArchetypeMage:       {types.CategoryIntellect},
	types.ArchetypeSpellblade: {types.CategoryIntellect, types.CategoryCombat},
	types.ArchetypeBard:       {types.CategorySocial},
	types.ArchetypeCleric:     {types.CategoryHealth},
	types.ArchetypeDruid:      {types.CategoryHealth},
}

// BodyMassIndex computes kg/m². Unusable inputs yield NeutralBMI.
func BodyMassIndex(weightKg, heightCm float64) float64 {
	if !(weightKg > 0) || !(heightCm > 0) || math.IsInf(weightKg, 0) || math.IsInf(heightCm, 0) {
		return NeutralBMI
	}
	m := heightCm / 100
	bmi := weightKg / (m * m)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return NeutralBMI
	}
	return bmi
}

// Classify maps attribute weights, body mass and recent activity mix to an
// archetype. It is deterministic and never fails: malformed vectors resolve
// to ArchetypeNovice.
func (c *Catalog) Classify(in ClassInput) types.Archetype {
	for attr, w := range in.Attributes {
		if !attr.IsValid() || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return types.ArchetypeNovice
		}
	}

	primary := types.Attributes[0]
	for _, attr := range types.Attributes[1:] {
		if in.Attributes[attr] > in.Attributes[primary] {
			primary = attr
		}
	}
	top := in.Attributes[primary]
	if top < ClassWeightFloor {
		return types.ArchetypeNovice
	}

	var secondary types.Attribute
	for _, attr := range types.Attributes {
		if attr == primary {
			continue
		}
		if secondary == "" || in.Attributes[attr] > in.Attributes[secondary] {
			secondary = attr
		}
	}

	sig := classSignals{bmi: BodyMassIndex(in.WeightKg, in.HeightCm)}
	if in.Attributes[secondary] > SecondaryRatio*top {
		sig.secondary = secondary
	}

	logs := in.Logs
	if len(logs) > ClassWindow {
		logs = logs[:ClassWindow]
	}
	for _, l := range logs {
		a, ok := c.Get(l.ActivityID)
		if !ok {
			continue
		}
		switch a.Category {
		case types.CategoryCombat:
			sig.combat++
		case types.CategoryFitness:
			sig.fitness++
		}
	}

	for _, rule := range classTable[primary] {
		if rule.match(sig) {
			return rule.class
		}
	}
	return types.ArchetypeAdventurer
}

// SuitsArchetype reports whether an activity matches a specialized archetype
// by affinity or category.
func SuitsArchetype(a types.ActivityType, archetype types.Archetype) bool {
	if archetype.IsBaseline() {
		return false
	}
	if a.Affinity == archetype {
		return true
	}
	for _, cat := range archetypeCategories[archetype] {
		if a.Category == cat {
			return true
		}
	}
	return false
}
