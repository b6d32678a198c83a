package entity

// RegistrationRecord is one extracted registration, one per receipt page.
// The JSON keys are the exact field names the extraction service is
// instructed to emit. Immutable once parsed.
type RegistrationRecord struct {
	RegistrationDate string  `json:"Registration Date"` // DD/MM/YY text form
	ReceiptNumber    string  `json:"Receipt Number"`
	ParticipantName  string  `json:"Participant Name"`
	EventName        string  `json:"Event Name"` // event code followed by name
	ParticipantPhone string  `json:"Participant Phone Number"`
	ParticipantEmail *string `json:"Participant Email ID"`
	AmountPaid       int64   `json:"Amount Paid"`
	VolunteerCode    string  `json:"Volunteer Code"`
}
