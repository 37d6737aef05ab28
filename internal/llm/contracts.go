package llm

import (
	"context"

	"github.com/joseph-ayodele/investor-screening/constants"
)

// InvestorFields is the structured record the analyzer must return.
type InvestorFields struct {
	Name             string `json:"name"`
	InvestmentAmount string `json:"investment_amount"` // free-form, currency included
	Address          string `json:"address"`
}

// DraftRequest carries what the drafter may see. Approved drafts never use Address.
type DraftRequest struct {
	Fields InvestorFields
	Status constants.ComplianceStatus
}

// StructuredAnalyzer is the analysis stage: text -> InvestorFields.
type StructuredAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text string) (InvestorFields, []byte /*rawJSON*/, error)
}

// NotificationDrafter is the drafting stage: record + outcome -> email body.
type NotificationDrafter interface {
	DraftNotification(ctx context.Context, req DraftRequest) (string, error)
}
