package matching

import (
	"math"
	"testing"

	"github.com/expansio/backend/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func TestScoreFormula(t *testing.T) {
	v := &models.Vendor{
		ServiceIDs:       []int64{1, 2, 3},
		Rating:           floatPtr(4.5),
		ResponseSLAHours: intPtr(48),
	}
	// overlap 2 -> 4, rating 4.5, sla weight 10-48/24 = 8
	score, ok := Score(v, []int64{1, 2, 99})
	if !ok {
		t.Fatal("expected a match")
	}
	if want := 16.5; math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreHighScoreScenario(t *testing.T) {
	// overlap 2 -> 4, rating 4.8, sla weight 10-24/24 = 9
	v := &models.Vendor{
		ServiceIDs:       []int64{10, 20},
		Rating:           floatPtr(4.8),
		ResponseSLAHours: intPtr(24),
	}
	score, ok := Score(v, []int64{10, 20})
	if !ok {
		t.Fatal("expected a match")
	}
	if want := 17.8; math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreZeroOverlapIsNotAMatch(t *testing.T) {
	v := &models.Vendor{
		ServiceIDs:       []int64{7, 8},
		Rating:           floatPtr(5),
		ResponseSLAHours: intPtr(1),
	}
	if _, ok := Score(v, []int64{1, 2}); ok {
		t.Error("zero overlap must not produce a match")
	}
}

func TestScoreMissingRating(t *testing.T) {
	v := &models.Vendor{
		ServiceIDs:       []int64{1},
		ResponseSLAHours: intPtr(24),
	}
	score, ok := Score(v, []int64{1})
	if !ok {
		t.Fatal("expected a match")
	}
	// overlap 1 -> 2, rating absent, sla weight 9
	if want := 11.0; math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreMissingSLA(t *testing.T) {
	v := &models.Vendor{
		ServiceIDs: []int64{1},
		Rating:     floatPtr(3),
	}
	score, ok := Score(v, []int64{1})
	if !ok {
		t.Fatal("expected a match")
	}
	if want := 5.0; math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreSlowSLAContributesNothing(t *testing.T) {
	// 240h/24 = 10, weight clamps at 0 rather than going negative.
	v := &models.Vendor{
		ServiceIDs:       []int64{1},
		Rating:           floatPtr(1),
		ResponseSLAHours: intPtr(241),
	}
	score, ok := Score(v, []int64{1})
	if !ok {
		t.Fatal("expected a match")
	}
	if want := 3.0; math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}
