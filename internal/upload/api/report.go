package api

import (
	"fmt"

	"mediaup/internal/upload/domain"
)

// Report is the host-visible completion report.
type Report struct {
	BatchID   string       `json:"batchId"`
	PostID    string       `json:"postId"`
	Message   string       `json:"message"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []ItemReport `json:"items"`
}

// ItemReport mirrors one ItemOutcome; Items[i] belongs to input item i.
type ItemReport struct {
	Index     int    `json:"index"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
	Transient bool   `json:"transient,omitempty"`
}

func NewReport(batchID string, items []domain.Item, result domain.BatchResult) *Report {
	succeeded, failed := result.Counts()
	report := &Report{
		BatchID:   batchID,
		PostID:    result.PostID,
		Message:   fmt.Sprintf("Upload completed for postId: %s", result.PostID),
		Succeeded: succeeded,
		Failed:    failed,
		Items:     make([]ItemReport, len(result.PerItem)),
	}

	for i, outcome := range result.PerItem {
		ir := ItemReport{
			Index:  i,
			Status: string(outcome.Status),
		}
		if i < len(items) {
			ir.Filename = items[i].BlobName
		}
		if outcome.IsSuccess() {
			ir.URL = outcome.CommittedURL
		} else {
			ir.Stage = string(outcome.Stage)
			ir.Transient = outcome.Transient
			if outcome.Cause != nil {
				ir.Error = outcome.Cause.Error()
			}
		}
		report.Items[i] = ir
	}
	return report
}
