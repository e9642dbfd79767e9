package streamx_test

import (
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

func TestAssessSafety_MonotonicInProbability(t *testing.T) {
	order := []string{"NEGLIGIBLE", "LOW", "MEDIUM", "HIGH", "VERY_HIGH"}

	prev := -1
	for _, p := range order {
		a := streamx.AssessSafety([]llm.SafetyRating{{
			Category:    "HARM_CATEGORY_HARASSMENT",
			Probability: p,
			Severity:    "HARM_SEVERITY_MEDIUM",
		}})
		if a.OverallScore <= prev {
			t.Fatalf("score must grow with probability: %s gave %d after %d", p, a.OverallScore, prev)
		}
		prev = a.OverallScore
	}
}

func TestAssessSafety_MaximumScore(t *testing.T) {
	a := streamx.AssessSafety([]llm.SafetyRating{{
		Category:    "HARM_CATEGORY_DANGEROUS_CONTENT",
		Probability: "VERY_HIGH",
		Severity:    "HARM_SEVERITY_EXTREME",
	}})

	if a.OverallScore != 100 {
		t.Fatalf("expected score 100, got %d", a.OverallScore)
	}
	if a.OverallLevel != streamx.RiskCritical {
		t.Fatalf("expected critical level, got %s", a.OverallLevel)
	}
}

func TestAssessSafety_UnmappableLevelsExcluded(t *testing.T) {
	a := streamx.AssessSafety([]llm.SafetyRating{
		{Category: "weird", Probability: "WHO_KNOWS", Severity: "HARM_SEVERITY_HIGH"},
		{Category: "no-severity", Probability: "HIGH", Severity: ""},
		{Category: "scored", Probability: "LOW", Severity: "HARM_SEVERITY_LOW"},
	})

	if a.Categories[0].Score != streamx.UnscoredCategory {
		t.Fatalf("unmappable probability must score %d, got %d", streamx.UnscoredCategory, a.Categories[0].Score)
	}
	if a.Categories[1].Score != streamx.UnscoredCategory {
		t.Fatalf("missing severity must score %d, got %d", streamx.UnscoredCategory, a.Categories[1].Score)
	}
	if a.OverallScore != 25 {
		t.Fatalf("overall must come from the scored category only, got %d", a.OverallScore)
	}
	if a.OverallLevel != streamx.RiskMedium {
		t.Fatalf("expected medium level, got %s", a.OverallLevel)
	}
}

func TestAssessSafety_NoRatings(t *testing.T) {
	a := streamx.AssessSafety(nil)

	if a.OverallScore != 0 || a.OverallLevel != streamx.RiskLow {
		t.Fatalf("empty input must yield score 0 / low, got %d / %s", a.OverallScore, a.OverallLevel)
	}
	if a.HasBlockedContent {
		t.Fatal("empty input must not report blocked content")
	}
}

func TestAssessSafety_BlockedFlagIndependentOfScore(t *testing.T) {
	a := streamx.AssessSafety([]llm.SafetyRating{{
		Category:    "HARM_CATEGORY_HATE_SPEECH",
		Probability: "NEGLIGIBLE",
		Severity:    "HARM_SEVERITY_NEGLIGIBLE",
		Blocked:     true,
	}})

	if !a.HasBlockedContent {
		t.Fatal("blocked rating must set HasBlockedContent even at score 0")
	}
	if a.OverallScore != 0 {
		t.Fatalf("expected score 0, got %d", a.OverallScore)
	}
}

func TestAssessSafety_BarePrefixedSpellingsEquivalent(t *testing.T) {
	bare := streamx.AssessSafety([]llm.SafetyRating{{
		Category: "c", Probability: "HIGH", Severity: "MEDIUM",
	}})
	prefixed := streamx.AssessSafety([]llm.SafetyRating{{
		Category: "c", Probability: "HIGH", Severity: "HARM_SEVERITY_MEDIUM",
	}})

	if bare.OverallScore != prefixed.OverallScore {
		t.Fatalf("spellings must map identically: %d vs %d", bare.OverallScore, prefixed.OverallScore)
	}
}
