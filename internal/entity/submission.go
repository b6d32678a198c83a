package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/registration-ingest/constants"
)

// Submission represents one ingestion run for data transfer between layers.
type Submission struct {
	ID                uuid.UUID                  `json:"id"`
	ReceiptBookNumber string                     `json:"receipt_book_number"`
	Stage             constants.Stage            `json:"stage"`
	Status            constants.SubmissionStatus `json:"status"`
	RecordCount       int                        `json:"record_count"`
	RowsWritten       int                        `json:"rows_written"`
	ErrorMessage      string                     `json:"error_message,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}
