package fingerprint

import (
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/Ammarkarimi/plagarism-detector/internal/normalize"
	"github.com/RoaringBitmap/roaring/v2"
)

// Coverage marks the tokens of each file that fall inside a k-gram also present in the other
// file, and reports the covered share and line spans per file.
func (e Engine) Coverage(tokensA []normalize.Token, a Set, tokensB []normalize.Token, b Set) models.Coverage {
	return models.Coverage{
		File1: e.cover(tokensA, a, b),
		File2: e.cover(tokensB, b, a),
	}
}

func (e Engine) cover(tokens []normalize.Token, own, other Set) models.FileCoverage {
	bitmap := roaring.New()
	if own.short || other.short {
		if len(tokens) > 0 && own.tokens == other.tokens && own.digest == other.digest {
			bitmap.AddRange(0, uint64(len(tokens)))
		}
	} else {
		shared := make(map[uint64]struct{}, len(other.grams))
		for _, h := range other.grams {
			shared[h] = struct{}{}
		}
		for pos, h := range own.grams {
			if _, ok := shared[h]; ok {
				bitmap.AddRange(uint64(pos), uint64(min(pos+e.K, len(tokens))))
			}
		}
	}

	cov := models.FileCoverage{Lines: []models.LineSpan{}}
	if len(tokens) == 0 || bitmap.IsEmpty() {
		return cov
	}
	cov.Percent = round2(100 * float64(bitmap.GetCardinality()) / float64(len(tokens)))

	it := bitmap.Iterator()
	for it.HasNext() {
		line := tokens[it.Next()].Line
		n := len(cov.Lines)
		if n > 0 && line <= cov.Lines[n-1].End+1 {
			cov.Lines[n-1].End = max(cov.Lines[n-1].End, line)
			continue
		}
		cov.Lines = append(cov.Lines, models.LineSpan{Start: line, End: line})
	}
	return cov
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
