package entity

import (
	"strconv"
	"time"
)

// LedgerRow is one row of the shared registration ledger: a
// RegistrationRecord plus run-level context. Written once, never mutated.
type LedgerRow struct {
	SubmissionTimestamp time.Time
	OperatorIdentity    string
	RegistrationDate    string
	ReceiptBookNumber   string
	ReceiptNumber       string
	ParticipantName     string
	EventName           string
	CollegeName         string // reserved, always empty for now
	ParticipantPhone    string
	ParticipantEmail    string
	AmountPaid          int64
	VolunteerCode       string
}

// LedgerColumnCount is the fixed width of the ledger's row tuple.
const LedgerColumnCount = 12

// Tuple returns the row as the ledger's fixed 12-column tuple, in column
// order.
func (r LedgerRow) Tuple() []string {
	return []string{
		r.SubmissionTimestamp.Format("2006-01-02 15:04:05"),
		r.OperatorIdentity,
		r.RegistrationDate,
		r.ReceiptBookNumber,
		r.ReceiptNumber,
		r.ParticipantName,
		r.EventName,
		r.CollegeName,
		r.ParticipantPhone,
		r.ParticipantEmail,
		strconv.FormatInt(r.AmountPaid, 10),
		r.VolunteerCode,
	}
}

// LedgerHeader returns the header row matching Tuple's column order.
func LedgerHeader() []string {
	return []string{
		"Timestamp",
		"Operator",
		"Registration Date",
		"Receipt Book Number",
		"Receipt Number",
		"Participant Name",
		"Event Name",
		"College Name",
		"Participant Phone Number",
		"Participant Email ID",
		"Amount Paid",
		"Volunteer Code",
	}
}
