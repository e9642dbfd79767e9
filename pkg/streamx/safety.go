package streamx

import (
	"math"
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
)

// RiskLevel buckets an overall safety score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// UnscoredCategory marks a category whose probability or severity level
// could not be mapped; such categories are excluded from the overall score.
const UnscoredCategory = -1

const (
	probabilityWeight = 0.7
	severityWeight    = 0.3
)

// probabilityScores maps provider probability levels onto the fixed scale
var probabilityScores = map[string]int{
	"NEGLIGIBLE": 0,
	"LOW":        25,
	"MEDIUM":     50,
	"HIGH":       75,
	"VERY_HIGH":  100,
}

// severityScores maps provider severity levels onto the fixed scale
var severityScores = map[string]int{
	"NEGLIGIBLE": 0,
	"LOW":        25,
	"MEDIUM":     50,
	"HIGH":       75,
	"EXTREME":    100,
}

// CategoryRisk is the scored risk of one harm category
type CategoryRisk struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Blocked  bool   `json:"blocked"`
}

// SafetyAssessment is the per-turn aggregation of all safety ratings,
// computed once after the terminal step.
type SafetyAssessment struct {
	OverallScore      int            `json:"overallScore"`
	OverallLevel      RiskLevel      `json:"overallLevel"`
	HasBlockedContent bool           `json:"hasBlockedContent"`
	Categories        []CategoryRisk `json:"categories,omitempty"`
}

// AssessSafety scores every rated category and aggregates the turn risk.
// Per category: round(probability*0.7 + severity*0.3), clamped to 100;
// unmappable levels yield the -1 sentinel and are excluded from the
// maximum. The overall score is the maximum scored category, or 0 when
// nothing scored. Blocked categories set HasBlockedContent regardless of
// score.
func AssessSafety(ratings []llm.SafetyRating) SafetyAssessment {
	assessment := SafetyAssessment{OverallLevel: RiskLow}

	for _, rating := range ratings {
		risk := CategoryRisk{
			Category: rating.Category,
			Score:    categoryScore(rating),
			Blocked:  rating.Blocked,
		}
		assessment.Categories = append(assessment.Categories, risk)

		if risk.Blocked {
			assessment.HasBlockedContent = true
		}
		if risk.Score > assessment.OverallScore {
			assessment.OverallScore = risk.Score
		}
	}

	assessment.OverallLevel = scoreToLevel(assessment.OverallScore)
	return assessment
}

// Payload renders the assessment as a data-frame item
func (a SafetyAssessment) Payload() map[string]any {
	return map[string]any{
		"type":              "safety-assessment",
		"overallScore":      a.OverallScore,
		"overallLevel":      string(a.OverallLevel),
		"hasBlockedContent": a.HasBlockedContent,
		"categories":        a.Categories,
	}
}

func categoryScore(rating llm.SafetyRating) int {
	pScore, ok := probabilityScores[normalizeLevel(rating.Probability, "HARM_PROBABILITY_")]
	if !ok {
		return UnscoredCategory
	}
	sScore, ok := severityScores[normalizeLevel(rating.Severity, "HARM_SEVERITY_")]
	if !ok {
		return UnscoredCategory
	}

	combined := int(math.Round(float64(pScore)*probabilityWeight + float64(sScore)*severityWeight))
	if combined > 100 {
		combined = 100
	}
	return combined
}

func scoreToLevel(score int) RiskLevel {
	switch {
	case score >= 75:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// normalizeLevel strips the provider enum prefix so both bare ("HIGH") and
// prefixed ("HARM_SEVERITY_HIGH") spellings map.
func normalizeLevel(level, prefix string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(level)), prefix)
}
