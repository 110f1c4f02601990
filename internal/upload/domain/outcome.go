package domain

// Stage names the step of the item pipeline at which an item terminated.
type Stage string

const (
	StageTransform       Stage = "transform"
	StageUploadPayload   Stage = "upload_payload"
	StageUploadThumbnail Stage = "upload_thumbnail"
	StageCommit          Stage = "commit"
)

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

type ItemOutcome struct {
	Status       OutcomeStatus
	CommittedURL string // Set on success: base URL + primary blob name
	Stage        Stage  // Set on failure
	Cause        error  // Set on failure
	Transient    bool   // Failure looked retryable (5xx, transport error, timeout)
}

func Succeeded(committedURL string) ItemOutcome {
	return ItemOutcome{Status: OutcomeSucceeded, CommittedURL: committedURL}
}

func Failed(stage Stage, cause error, transient bool) ItemOutcome {
	return ItemOutcome{Status: OutcomeFailed, Stage: stage, Cause: cause, Transient: transient}
}

func (o ItemOutcome) IsSuccess() bool {
	return o.Status == OutcomeSucceeded
}

// BatchResult holds one outcome per request item, at the same index.
type BatchResult struct {
	PostID  string
	PerItem []ItemOutcome
}

func (r BatchResult) Counts() (succeeded, failed int) {
	for _, o := range r.PerItem {
		if o.IsSuccess() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
