package entity

// HandleState is the readiness state of a document held by the extraction
// service.
type HandleState string

const (
	HandleSubmitted  HandleState = "SUBMITTED"
	HandleProcessing HandleState = "PROCESSING"
	HandleActive     HandleState = "ACTIVE"
	HandleFailed     HandleState = "FAILED"
)

// DocumentHandle identifies a document submitted to the extraction service.
// A handle is safe to reference in an extraction request only when its state
// is ACTIVE. Handles are owned by the extraction client for their lifetime
// and never shared across submissions.
type DocumentHandle struct {
	// Identity is the opaque name assigned by the service.
	Identity string
	// URI is the service-side location referenced in extraction requests.
	URI string
	// MIMEType of the uploaded document.
	MIMEType string
	State    HandleState
}

// Ready reports whether the handle may be referenced in an extraction request.
func (h *DocumentHandle) Ready() bool {
	return h != nil && h.State == HandleActive
}
