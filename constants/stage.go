package constants

// Stage is the canonical stage for a submission as it moves through the
// ingestion pipeline.
type Stage string

// Stable values (store these exact strings in the history DB).
const (
	StageReceived     Stage = "RECEIVED"
	StageUploading    Stage = "UPLOADING"
	StageWaitingReady Stage = "WAITING_READY"
	StageExtracting   Stage = "EXTRACTING"
	StageParsing      Stage = "PARSING"
	StageValidating   Stage = "VALIDATING"
	StageWriting      Stage = "WRITING"
	StageDone         Stage = "DONE"
)

// SubmissionStatus is the terminal outcome recorded for a submission.
type SubmissionStatus string

const (
	StatusRunning   SubmissionStatus = "RUNNING"
	StatusSucceeded SubmissionStatus = "SUCCEEDED"
	StatusFailed    SubmissionStatus = "FAILED"
)
