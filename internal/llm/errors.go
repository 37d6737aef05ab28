package llm

import (
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

// InvalidStructure marks a response that came back but could not be decoded.
func InvalidStructure(cause error) error {
	return common.NewAppError(common.CodeAnalysisFailed, common.MsgAnalysisInvalid, cause)
}

// AnalysisUnavailable marks a transport or service failure during analysis.
func AnalysisUnavailable(cause error) error {
	return common.NewAppError(common.CodeAnalysisFailed, common.MsgAnalysisFailed, cause)
}

func DraftFailed(cause error) error {
	return common.NewAppError(common.CodeDraftFailed, common.MsgDraftFailed, cause)
}
