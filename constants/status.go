package constants

// Stage is the orchestrator's position in the screening state machine.
type Stage string

// Stable values (exposed verbatim on the gRPC and HTTP surfaces).
const (
	StageIdle               Stage = "IDLE"
	StageExtracting         Stage = "EXTRACTING"          // text extraction + validation
	StageAnalyzing          Stage = "ANALYZING"           // structured analysis by the model
	StageCheckingCompliance Stage = "CHECKING_COMPLIANCE" // watchlist lookup
	StageDrafting           Stage = "DRAFTING"            // notification drafting
	StageComplete           Stage = "COMPLETE"            // terminal success
	StageFailed             Stage = "FAILED"              // terminal failure
)

// Active reports whether a run is in flight in this stage.
func (s Stage) Active() bool {
	switch s {
	case StageExtracting, StageAnalyzing, StageCheckingCompliance, StageDrafting:
		return true
	}
	return false
}

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// ComplianceStatus is the status carried on a processed result.
type ComplianceStatus string

const (
	ComplianceUnset    ComplianceStatus = ""
	ComplianceChecking ComplianceStatus = "Checking"
	ComplianceApproved ComplianceStatus = "Approved"
	ComplianceFlagged  ComplianceStatus = "Flagged"
)

// IsOutcome reports whether s is a final watchlist outcome (Approved or Flagged).
func (s ComplianceStatus) IsOutcome() bool {
	return s == ComplianceApproved || s == ComplianceFlagged
}
