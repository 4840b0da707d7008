package game

import (
	"math"
	"time"

	"github.com/user/life-rpg/internal/types"
)

// XPPerLevel scales the linear experience curve.
const XPPerLevel = 100

// Progress is the slice of game state the calculator works on.
type Progress struct {
	Level     int
	CurrentXP int
	TotalXP   int
}

// ExperienceRequired returns the experience needed to leave the given level.
func ExperienceRequired(level int) int {
	if level < 1 {
		level = 1
	}
	return level * XPPerLevel
}

// BuffActive reports whether buff still applies at now.
func BuffActive(buff *types.XPBuff, now time.Time) bool {
	return buff != nil && now.UnixMilli() < buff.ExpiresAt
}

// ApplyGain adds rawGain to p, applying buff when it has not expired, and
// carries over as many level-ups as the gain pays for.
func ApplyGain(p Progress, rawGain int, buff *types.XPBuff, now time.Time) types.GainResult {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.CurrentXP < 0 {
		p.CurrentXP = 0
	}
	if rawGain < 0 {
		rawGain = 0
	}

	gain := rawGain
	if BuffActive(buff, now) {
		gain = floorXP(float64(rawGain) * buff.Multiplier)
	}

	res := types.GainResult{
		Level:     p.Level,
		CurrentXP: p.CurrentXP + gain,
		TotalXP:   p.TotalXP + gain,
		Gained:    gain,
	}
	for res.CurrentXP >= ExperienceRequired(res.Level) {
		res.CurrentXP -= ExperienceRequired(res.Level)
		res.Level++
		res.LeveledUp = true
	}
	return res
}

// xpEpsilon absorbs float noise such as 15*1.2 landing a hair below 18.
const xpEpsilon = 1e-9

// floorXP converts a fractional experience amount to whole points.
func floorXP(x float64) int {
	if !(x > 0) {
		return 0
	}
	return int(math.Floor(x + xpEpsilon))
}
