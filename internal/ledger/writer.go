package ledger

import (
	"context"
	"time"

	"github.com/eventdesk/registration-ingest/internal/entity"
)

// Writer is the ledger boundary the pipeline depends on.
type Writer interface {
	// AppendBatch appends all rows as a single batch at the ledger's anchor
	// position and returns the number of rows written. The call is atomic at
	// the API level only: on failure no rollback is attempted and the caller
	// resubmits.
	AppendBatch(ctx context.Context, rows []entity.LedgerRow) (int, error)
}

// MapToRows maps validated records into ledger rows, adding run-level
// context. Pure and order-preserving: rows[i] corresponds to records[i].
func MapToRows(records []entity.RegistrationRecord, receiptBookNumber, operatorIdentity string, now time.Time) []entity.LedgerRow {
	rows := make([]entity.LedgerRow, len(records))
	for i, rec := range records {
		email := ""
		if rec.ParticipantEmail != nil {
			email = *rec.ParticipantEmail
		}
		rows[i] = entity.LedgerRow{
			SubmissionTimestamp: now,
			OperatorIdentity:    operatorIdentity,
			RegistrationDate:    rec.RegistrationDate,
			ReceiptBookNumber:   receiptBookNumber,
			ReceiptNumber:       rec.ReceiptNumber,
			ParticipantName:     rec.ParticipantName,
			EventName:           rec.EventName,
			CollegeName:         "", // reserved
			ParticipantPhone:    rec.ParticipantPhone,
			ParticipantEmail:    email,
			AmountPaid:          rec.AmountPaid,
			VolunteerCode:       rec.VolunteerCode,
		}
	}
	return rows
}
