package models

import "time"

// OperationResult is the structured outcome of a single lifecycle operation
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BatchItemResult is the outcome for one id of a batch operation
type BatchItemResult struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates a batch operation
type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Message   string            `json:"message" example:"3 succeeded, 1 failed"`
	Results   []BatchItemResult `json:"results"`
}

// CleanupResult reports a retention cleanup run
type CleanupResult struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Deleted   int     `json:"deleted"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failedIds,omitempty"`
}

// DuplicateCheck is the Duplicate Guard verdict
type DuplicateCheck struct {
	Exists  bool    `json:"exists"`
	Matched *Alumni `json:"matched,omitempty"`
}

// DuplicateGroup lists records sharing an email or student number
type DuplicateGroup struct {
	Key       string  `json:"key"`
	Field     string  `json:"field" example:"email"`
	AlumniIDs []int64 `json:"alumniIds"`
}

// Candidate is a parsed bulk upload row awaiting confirmation
type Candidate struct {
	Index          int    `json:"index"`
	Line           int    `json:"line"`
	FullName       string `json:"fullName" validate:"required,max=200"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"max=32"`
	StudentNumber  string `json:"studentNumber" validate:"required,max=64"`
	Birthday       string `json:"birthday" validate:"birthday"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`
}

// SkippedRow is a bulk upload row that could not become a candidate
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult is the output of the bulk ingest parser
type ParseResult struct {
	Headers    []string     `json:"headers"`
	Candidates []Candidate  `json:"candidates"`
	Skipped    []SkippedRow `json:"skipped"`
}

// StagedBatch holds parsed candidates for operator review
type StagedBatch struct {
	BatchID    string       `json:"batchId"`
	Candidates []Candidate  `json:"candidates"`
	Skipped    []SkippedRow `json:"skipped"`
	StagedBy   int64        `json:"stagedBy"`
	ExpiresAt  time.Time    `json:"expiresAt"`
}

// UploadRowResult is the outcome of inserting one confirmed candidate
type UploadRowResult struct {
	Index         int    `json:"index"`
	StudentNumber string `json:"studentNumber"`
	Email         string `json:"email"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
}

// UploadSummary aggregates a confirmed bulk upload
type UploadSummary struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []UploadRowResult `json:"results"`
}

// DashboardStats are the aggregate counts shown on the admin dashboard
type DashboardStats struct {
	TotalActive      int64            `json:"totalActive"`
	TotalArchived    int64            `json:"totalArchived"`
	TotalRestored    int64            `json:"totalRestored"`
	ByJobStatus      map[string]int64 `json:"byJobStatus"`
	Related          int64            `json:"related"`
	NotRelated       int64            `json:"notRelated"`
	ByGraduationYear map[string]int64 `json:"byGraduationYear"`
	ByDegree         map[string]int64 `json:"byDegree"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}
