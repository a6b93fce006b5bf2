package verdict

import "github.com/Ammarkarimi/plagarism-detector/internal/models"

// Thresholds are strict lower bounds in percent
type Thresholds struct {
	Hash float64
	AST  float64
}

func Default() Thresholds {
	return Thresholds{Hash: 60, AST: 70}
}

type Decision struct {
	Verdict    models.Verdict
	Confidence models.Confidence
}

// Decide flags a pair as plagiarized when both scores exceed their thresholds. Without a
// structural score the hash score decides alone, with low confidence.
func (t Thresholds) Decide(hash float64, ast *float64) Decision {
	if ast == nil {
		return Decision{Verdict: pick(hash > t.Hash), Confidence: models.ConfidenceLow}
	}
	return Decision{Verdict: pick(hash > t.Hash && *ast > t.AST), Confidence: models.ConfidenceHigh}
}

func pick(plagiarized bool) models.Verdict {
	if plagiarized {
		return models.VerdictPlagiarized
	}
	return models.VerdictOriginal
}
