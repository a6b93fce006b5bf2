package models

// AnalysisRequest represents a queued comparison read from the Redis stream
type AnalysisRequest struct {
	RequestID    string `json:"request_id"`
	File1Name    string `json:"file1_name"`
	File1Content string `json:"file1_content"`
	File2Name    string `json:"file2_name"`
	File2Content string `json:"file2_content"`
}

// Files converts the request into the two source files to compare
func (r *AnalysisRequest) Files() (SourceFile, SourceFile) {
	return NewSourceFile("file1", r.File1Name, []byte(r.File1Content)),
		NewSourceFile("file2", r.File2Name, []byte(r.File2Content))
}
