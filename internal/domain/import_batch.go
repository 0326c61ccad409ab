package domain

import "time"

// ImportBatch summarizes one import run.
type ImportBatch struct {
	BatchID    string
	Source     string // file name or "api"
	Accepted   int
	Rejected   int
	Warnings   int
	ImportedAt time.Time
}
