package forecast

import (
	"fmt"
	"sort"
)

// Cluster thresholds for additive outbreak-risk scoring. Counts at or above
// the cluster threshold score the full points; counts approaching it score
// the partial points.
const (
	clusterThreshold     = 5
	approachingThreshold = 3

	typeClusterPoints     = 40.0
	typeApproachingPoints = 20.0
	unitClusterPoints     = 30.0
	unitApproachingPoints = 15.0
)

// RiskLevel buckets an outbreak-risk score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "critical"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelLow      RiskLevel = "low"
)

// RiskAssessment is the scored outbreak risk with every contributing factor
// recorded as a human-readable string for audit and explainability.
type RiskAssessment struct {
	Score              float64   `json:"score"`
	Level              RiskLevel `json:"level"`
	SeasonalMultiplier float64   `json:"seasonal_multiplier"`
	Factors            []string  `json:"factors"`
}

// CalculateOutbreakRisk scores outbreak risk from recent case clustering by
// infection type and by unit, scaled by the seasonal multiplier when it is
// elevated, and clamped to [0,100].
func CalculateOutbreakRisk(recentCasesByType, casesByUnit map[string]int, seasonalMultiplier float64) RiskAssessment {
	score := 0.0
	var factors []string

	for _, name := range sortedKeys(recentCasesByType) {
		count := recentCasesByType[name]
		switch {
		case count >= clusterThreshold:
			score += typeClusterPoints
			factors = append(factors, fmt.Sprintf("%s: %d recent cases exceed cluster threshold", name, count))
		case count >= approachingThreshold:
			score += typeApproachingPoints
			factors = append(factors, fmt.Sprintf("%s: %d recent cases approaching cluster threshold", name, count))
		}
	}

	for _, unit := range sortedKeys(casesByUnit) {
		count := casesByUnit[unit]
		switch {
		case count >= clusterThreshold:
			score += unitClusterPoints
			factors = append(factors, fmt.Sprintf("unit %s: %d cases exceed cluster threshold", unit, count))
		case count >= approachingThreshold:
			score += unitApproachingPoints
			factors = append(factors, fmt.Sprintf("unit %s: %d cases approaching cluster threshold", unit, count))
		}
	}

	if seasonalMultiplier > 1 {
		score *= seasonalMultiplier
		factors = append(factors, fmt.Sprintf("seasonal risk window multiplier %.2f applied", seasonalMultiplier))
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return RiskAssessment{
		Score:              round2(score),
		Level:              riskLevel(score),
		SeasonalMultiplier: seasonalMultiplier,
		Factors:            factors,
	}
}

func riskLevel(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskLevelCritical
	case score >= 50:
		return RiskLevelHigh
	case score >= 25:
		return RiskLevelModerate
	default:
		return RiskLevelLow
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
