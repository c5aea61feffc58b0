// Package scoring combines the analytics sub-scores into the composite health score.
package scoring

import (
	"math"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
)

// Bucket is the display band a composite score falls into
type Bucket struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Bucket thresholds; a score at or above the threshold belongs to the bucket
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
	FairThreshold      = 40
)

var (
	BucketExcelente      = Bucket{Label: "Excelente", Color: "green"}
	BucketBom            = Bucket{Label: "Bom", Color: "yellow"}
	BucketRegular        = Bucket{Label: "Regular", Color: "orange"}
	BucketPrecisaAtencao = Bucket{Label: "Precisa atenção", Color: "red"}
)

// ComputeScore combines the sub-scores with equal weights
func ComputeScore(a domain.Analytics) int {
	return ComputeWeightedScore(a, domain.DefaultScoreWeights())
}

// ComputeWeightedScore is the weighted mean of the sub-scores, rounded and clamped to 0-100.
// Weights are normalized by their sum; all-zero weights fall back to equal weights.
func ComputeWeightedScore(a domain.Analytics, w domain.ScoreWeights) int {
	if a.Empty {
		return 0
	}

	weights := []float64{w.GlobalDiversification, w.Concentration, w.Liquidity, w.Complexity, w.CostEfficiency}
	scores := []float64{
		a.Subscores.GlobalDiversification,
		a.Subscores.Concentration,
		a.Subscores.Liquidity,
		a.Subscores.Complexity,
		a.Subscores.CostEfficiency,
	}

	var weighted, totalWeight float64
	for i, weight := range weights {
		if weight < 0 || math.IsNaN(weight) {
			weight = 0
		}
		weighted += weight * scores[i]
		totalWeight += weight
	}
	if totalWeight == 0 {
		return ComputeScore(a)
	}

	score := int(math.Round(weighted / totalWeight))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// BucketFor maps a composite score to its display bucket
func BucketFor(score int) Bucket {
	switch {
	case score >= ExcellentThreshold:
		return BucketExcelente
	case score >= GoodThreshold:
		return BucketBom
	case score >= FairThreshold:
		return BucketRegular
	default:
		return BucketPrecisaAtencao
	}
}
