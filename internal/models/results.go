package models

import (
	"time"
)

type Verdict string

const (
	VerdictPlagiarized Verdict = "Plagiarized"
	VerdictOriginal    Verdict = "Original"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow marks a verdict taken from the hash score alone
	ConfidenceLow Confidence = "low"
)

// LineSpan is an inclusive 1-based line range
type LineSpan struct {
	Start int `bson:"start" json:"start"`
	End   int `bson:"end" json:"end"`
}

// FileCoverage is the share of a file's tokens covered by shared fingerprints
type FileCoverage struct {
	Percent float64    `bson:"percent" json:"percent"`
	Lines   []LineSpan `bson:"lines" json:"lines"`
}

// Coverage holds the per-file fingerprint coverage of one comparison
type Coverage struct {
	File1 FileCoverage `bson:"file1" json:"file1"`
	File2 FileCoverage `bson:"file2" json:"file2"`
}

// AnalysisResult is the immutable outcome of comparing two files.
// ASTSimilarity is nil when either file could not be parsed.
type AnalysisResult struct {
	AnalysisID     string     `bson:"analysisId" json:"analysis_id,omitempty"`
	HashSimilarity float64    `bson:"hashSimilarity" json:"normalized_hash_similarity"`
	ASTSimilarity  *float64   `bson:"astSimilarity,omitempty" json:"ast_similarity,omitempty"`
	Verdict        Verdict    `bson:"verdict" json:"verdict"`
	Confidence     Confidence `bson:"confidence" json:"confidence"`
	ASTError       string     `bson:"astError,omitempty" json:"ast_error,omitempty"`
	Coverage       *Coverage  `bson:"coverage,omitempty" json:"coverage,omitempty"`
}

// ASTAvailable reports whether the structural score was computed
func (r *AnalysisResult) ASTAvailable() bool {
	return r.ASTSimilarity != nil
}

// AnalysisRecord is the stored history entry of one analysis
type AnalysisRecord struct {
	AnalysisID string         `bson:"analysisId" json:"analysis_id"`
	File1      FileMeta       `bson:"file1" json:"file1"`
	File2      FileMeta       `bson:"file2" json:"file2"`
	Result     AnalysisResult `bson:"result" json:"result"`
	Source     string         `bson:"source" json:"source"` // http, stream
	CreatedAt  time.Time      `bson:"createdAt" json:"created_at"`
}

// FileMeta describes an analysed file without its content
type FileMeta struct {
	Name     string   `bson:"name" json:"name"`
	Language Language `bson:"language" json:"language"`
	Size     int      `bson:"size" json:"size"`
	Digest   string   `bson:"digest" json:"digest"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
