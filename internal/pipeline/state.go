package pipeline

import (
	"time"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
)

// ProcessedResult is what a run has produced so far.
type ProcessedResult struct {
	ExtractedData     llm.InvestorFields         `json:"extracted_data"`
	ComplianceStatus  constants.ComplianceStatus `json:"compliance_status"`
	NotificationDraft string                     `json:"notification_draft,omitempty"`
}

// Snapshot is the observable orchestrator state. Consumers always get copies.
type Snapshot struct {
	RunID        string           `json:"run_id,omitempty"`
	Stage        constants.Stage  `json:"stage"`
	HasDocument  bool             `json:"has_document"`
	DocumentName string           `json:"document_name,omitempty"`
	DocumentSize int64            `json:"document_size,omitempty"`
	Result       *ProcessedResult `json:"result,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
	Error        string           `json:"error,omitempty"`
	Progress     string           `json:"progress,omitempty"`
	Version      uint64           `json:"version"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
