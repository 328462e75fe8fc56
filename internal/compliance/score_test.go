package compliance

import (
	"testing"

	"secdash/pkg/models"
)

func bandsOf(high, low int) []models.SeverityBand {
	out := make([]models.SeverityBand, 0, high+low)
	for i := 0; i < high; i++ {
		out = append(out, models.SeverityCritical)
	}
	for i := 0; i < low; i++ {
		out = append(out, models.SeverityLow)
	}
	return out
}

func TestHundredRecordsTenHighIsNinetyPercentExcellent(t *testing.T) {
	score := Evaluate(bandsOf(10, 90))
	if score.Percentage != 90 {
		t.Fatalf("expected 90%%, got %d%%", score.Percentage)
	}
	if score.Band != BandExcellent {
		t.Fatalf("expected Excellent, got %s", score.Band)
	}
	if score.NoData {
		t.Fatalf("did not expect no-data state")
	}
}

func TestEmptyInputIsDistinguishedNoDataState(t *testing.T) {
	score := Evaluate(nil)
	if !score.NoData {
		t.Fatalf("expected no-data state for empty input")
	}
	if score.Band != BandNoData {
		t.Fatalf("expected NoData band, got %s", score.Band)
	}
	if score.Percentage != 0 {
		t.Fatalf("expected 0 percentage placeholder, got %d", score.Percentage)
	}
}

func TestHighMeansHighOrCritical(t *testing.T) {
	bands := []models.SeverityBand{
		models.SeverityCritical,
		models.SeverityHigh,
		models.SeverityMedium,
		models.SeverityLow,
	}
	score := Evaluate(bands)
	if score.Percentage != 50 {
		t.Fatalf("expected 50%%, got %d%%", score.Percentage)
	}
	if score.Band != BandNeedsImprovement {
		t.Fatalf("expected NeedsImprovement, got %s", score.Band)
	}
}

func TestBandBoundaries(t *testing.T) {
	cases := []struct {
		high, low int
		want      Band
	}{
		{10, 90, BandExcellent},        // 90
		{11, 89, BandGood},             // 89
		{25, 75, BandGood},             // 75
		{26, 74, BandNeedsImprovement}, // 74
		{50, 50, BandNeedsImprovement}, // 50
		{51, 49, BandCritical},         // 49
		{100, 0, BandCritical},         // 0
	}
	for _, tc := range cases {
		score := Evaluate(bandsOf(tc.high, tc.low))
		if score.Band != tc.want {
			t.Fatalf("high=%d low=%d: expected %s, got %s (%d%%)", tc.high, tc.low, tc.want, score.Band, score.Percentage)
		}
	}
}

func TestPercentageIsRounded(t *testing.T) {
	// 1 high of 3 records: 66.67 rounds to 67.
	score := Evaluate(bandsOf(1, 2))
	if score.Percentage != 67 {
		t.Fatalf("expected rounded 67%%, got %d%%", score.Percentage)
	}
}
