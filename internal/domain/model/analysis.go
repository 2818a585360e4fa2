package model

import "time"

// AnalysisRequest is a strategic question posed by a product manager.
type AnalysisRequest struct {
	Question string
	Context  string
}

// AnalysisResult is the display-only answer to an AnalysisRequest.
// Source records whether the result came from the remote analysis backend
// or the local keyword analyst.
type AnalysisResult struct {
	Framework       Framework
	Analysis        string
	Recommendations []string
	Confidence      float64
	Timestamp       time.Time
	Source          string
}

// Valid reports whether the result carries a framework, analysis text and at
// least one recommendation.
func (r AnalysisResult) Valid() bool {
	return r.Framework != "" && r.Analysis != "" && len(r.Recommendations) > 0
}
