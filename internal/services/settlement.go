package services

import (
	"math"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

// RewardDelta is the experience and coin change of one settlement
type RewardDelta struct {
	Experience float64 `json:"experience"`
	Coins      int     `json:"coins"`
}

// IsZero reports whether applying the delta changes nothing
func (d RewardDelta) IsZero() bool {
	return d.Experience == 0 && d.Coins == 0
}

// Negate returns the delta that undoes d
func (d RewardDelta) Negate() RewardDelta {
	return RewardDelta{Experience: -d.Experience, Coins: -d.Coins}
}

// RequiredForLevel is the experience needed to advance from level to level+1
func RequiredForLevel(level int) float64 {
	return 30 * math.Pow(float64(level), 1.25)
}

// ComputeReward grants the improvement of score over the prior best as a fraction of
// the test's reward ceilings. Nothing is granted without a strict improvement.
func ComputeReward(score, priorBest, maxScore float64, maxExperience, maxCoins int) RewardDelta {
	if maxScore <= 0 {
		return RewardDelta{}
	}

	fraction := (score - priorBest) / maxScore
	if fraction <= 0 {
		return RewardDelta{}
	}

	return RewardDelta{
		Experience: fraction * float64(maxExperience),
		Coins:      int(math.Floor(fraction * float64(maxCoins))),
	}
}

// ApplyReward adds delta to the profile. Positive experience levels up as many times
// as it covers; negative experience walks levels back down, never below 1. Coins
// never go negative.
func ApplyReward(profile *models.StudentProfile, delta RewardDelta) {
	if profile.Level < 1 {
		profile.Level = 1
	}

	profile.Experience += delta.Experience

	for profile.Experience >= RequiredForLevel(profile.Level) {
		profile.Experience -= RequiredForLevel(profile.Level)
		profile.Level++
	}

	for profile.Experience < 0 && profile.Level > 1 {
		profile.Level--
		profile.Experience += RequiredForLevel(profile.Level)
	}

	if profile.Experience < 0 {
		profile.Experience = 0
	}

	profile.Coins += delta.Coins
	if profile.Coins < 0 {
		profile.Coins = 0
	}
}
