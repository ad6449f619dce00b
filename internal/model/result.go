package model

import "time"

// ErrorKind classifies why a file's analysis is invalid.
type ErrorKind string

const (
	ErrorNone               ErrorKind = ""
	ErrorParse              ErrorKind = "parse_error"
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	ErrorCancelled          ErrorKind = "cancelled"
	ErrorCacheCorrupt       ErrorKind = "cache_corrupt"
)

// AnalysisResult is the outcome of one file's analysis. Immutable once
// created; a changed fingerprint supersedes the old result, it is never
// mutated in place. Unknown fields in a persisted record decode to their
// zero values, so old caches stay loadable.
type AnalysisResult struct {
	FilePath     string            `json:"file_path"`
	Valid        bool              `json:"valid"`
	Purpose      string            `json:"purpose,omitempty"`
	Components   []string          `json:"components,omitempty"`
	Interactions []string          `json:"interactions,omitempty"`
	Parameters   []string          `json:"parameters,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	ErrorKind    ErrorKind         `json:"error_kind,omitempty"`
	Fingerprint  Fingerprint       `json:"fingerprint"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// Failed builds the invalid placeholder recorded when a file cannot be
// analyzed. Placeholders are reported but never cached, so a later run
// retries instead of remembering a transient outage.
func Failed(path string, fp Fingerprint, kind ErrorKind) *AnalysisResult {
	return &AnalysisResult{
		FilePath:    path,
		Valid:       false,
		ErrorKind:   kind,
		Fingerprint: fp,
		ComputedAt:  time.Now().UTC(),
	}
}
