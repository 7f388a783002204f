package storage

import "time"

// RunRecord summarizes one pipeline run.
type RunRecord struct {
	RunID         string
	SourceDir     string
	TargetDir     string
	MinConfidence float64
	Languages     []string
	Total         int
	Processed     int
	Successful    int
	Failed        int
	Skipped       int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// AdapterRecord points at one generated adapter file.
type AdapterRecord struct {
	RuleID      string
	Language    string
	Draft       bool
	Path        string
	Checksum    string // SHA-256 of the content
	GeneratedAt time.Time
}
