package constants

// Progress labels published while a stage is running. Terminal and idle
// stages carry no label.
const (
	ProgressExtracting = "Step 1/4: Extracting text from PDF..."
	ProgressAnalyzing  = "Step 2/4: AI is analyzing the document..."
	ProgressChecking   = "Step 3/4: Performing compliance check..."
	ProgressDrafting   = "Step 4/4: Drafting notification email..."
)

// ProgressLabel returns the label for stage s.
func ProgressLabel(s Stage) string {
	switch s {
	case StageExtracting:
		return ProgressExtracting
	case StageAnalyzing:
		return ProgressAnalyzing
	case StageCheckingCompliance:
		return ProgressChecking
	case StageDrafting:
		return ProgressDrafting
	default:
		return ""
	}
}
