package model

import "time"

// Metadata describes a knowledge base version
type Metadata struct {
	Version                   string    `json:"version"`
	GeneratedAt               time.Time `json:"generated_at"`
	SourceFilesCount          int       `json:"source_files_count"`
	ProcessingDurationSeconds float64   `json:"processing_duration_seconds"`
	GeneratorVersion          string    `json:"generator_version,omitempty"`
	PreviousVersion           string    `json:"previous_version,omitempty"`
	Changelog                 string    `json:"changelog,omitempty"`
}
