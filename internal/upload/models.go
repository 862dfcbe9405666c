package upload

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Document is one uploaded legal source file. The indexing result fields
// stay nil until the ingest job for it succeeds.
type Document struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID   uint64 `gorm:"index;not null"`
	Filename string `gorm:"size:255;not null"`

	// Path under the upload dir where the raw bytes were saved.
	StoredPath string `gorm:"size:512;not null"`

	// Offence number supplied by the uploader, if any.
	OffenceNumber string `gorm:"size:64"`

	// Filled when the ingest job succeeds.
	BrainDocID            *string `gorm:"size:64;index"`
	ChunksIndexed         *int
	DetectedOffenceNumber *string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Document) TableName() string { return "documents" }

type Job struct {
	ID string `gorm:"primaryKey;size:26"`

	UserID     uint64 `gorm:"index;not null"`
	DocumentID string `gorm:"size:26;index;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "ingest_jobs" }
