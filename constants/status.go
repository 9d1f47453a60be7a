package constants

// JobStatus is the canonical status for rows in the jobs table.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued         JobStatus = "QUEUED"          // accepted, not started
	JobStatusLoaded         JobStatus = "LOADED"          // stage 1 completed (text extracted from document)
	JobStatusExtracted      JobStatus = "EXTRACTED"       // stage 2 completed (fields extracted)
	JobStatusAwaitingReview JobStatus = "AWAITING_REVIEW" // validation found problems; parked for correction
	JobStatusPopulated      JobStatus = "POPULATED"       // terminal success (contract text produced)
	JobStatusFailed         JobStatus = "FAILED"          // terminal failure
)

// Terminal reports whether a job in this status will never advance again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPopulated || s == JobStatusFailed
}
