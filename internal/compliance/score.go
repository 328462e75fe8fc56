package compliance

import (
	"math"

	"secdash/pkg/models"
)

// Band is the qualitative compliance rating.
type Band string

const (
	BandExcellent        Band = "Excellent"
	BandGood             Band = "Good"
	BandNeedsImprovement Band = "NeedsImprovement"
	BandCritical         Band = "Critical"
	BandNoData           Band = "NoData"
)

// Score is the derived compliance health of a classified record set. NoData
// distinguishes an empty input from a true 0%; the two mean different things
// to an operator.
type Score struct {
	Percentage int  `json:"percentage"`
	Band       Band `json:"band"`
	NoData     bool `json:"no_data,omitempty"`
}

// Evaluate derives the compliance score from classified severity bands.
// High severity means a band of High or Critical under the canonical
// threshold table. Pure function; recompute whenever the underlying
// filtered record set changes.
func Evaluate(bands []models.SeverityBand) Score {
	total := len(bands)
	if total == 0 {
		return Score{Percentage: 0, Band: BandNoData, NoData: true}
	}

	high := 0
	for _, b := range bands {
		if b >= models.SeverityHigh {
			high++
		}
	}

	pct := int(math.Round(float64(total-high) / float64(total) * 100))
	return Score{Percentage: pct, Band: bandFor(pct)}
}

func bandFor(pct int) Band {
	switch {
	case pct >= 90:
		return BandExcellent
	case pct >= 75:
		return BandGood
	case pct >= 50:
		return BandNeedsImprovement
	default:
		return BandCritical
	}
}
