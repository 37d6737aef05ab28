package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/investor-screening/constants"
)

// AnalysisSystemPrompt frames the extraction task for providers with a system role.
const AnalysisSystemPrompt = "You are an expert data extraction agent. " +
	"Respond ONLY with a valid JSON object that strictly adheres to the provided schema. " +
	"Do not include any explanatory text, markdown formatting, or anything outside of the JSON structure."

// BuildAnalysisPrompt composes the user message for the analysis stage.
func BuildAnalysisPrompt(text string) string {
	parts := []string{
		"Analyze the following document text and extract the required information.",
		"The 'name' should be the primary individual or company name mentioned.",
		"The 'investment_amount' should be the monetary value, including currency symbols or codes.",
		"The 'address' should be the full mailing address.",
		"",
		"Document Text:",
		"---",
		text,
		"---",
	}
	return strings.Join(parts, "\n")
}

// BuildDraftPrompt composes the drafting prompt for an outcome. Only Approved
// and Flagged are accepted; the address is included for Flagged only.
func BuildDraftPrompt(req DraftRequest) (string, error) {
	f := req.Fields
	switch req.Status {
	case constants.ComplianceApproved:
		return strings.Join([]string{
			"You are an expert communications assistant.",
			"Draft a warm and professional welcome email to a new investor.",
			"",
			"Investor Name: " + f.Name,
			"Investment Amount: " + f.InvestmentAmount,
			"",
			"The email should be welcoming, acknowledge their investment, and briefly mention the next steps or that a relationship manager will be in touch.",
			"Keep the tone positive and professional.",
			"",
			`Respond ONLY with the text of the email. Do not include a subject line, a greeting like "Dear...", or a closing like "Sincerely,". Just provide the body of the email.`,
		}, "\n"), nil
	case constants.ComplianceFlagged:
		return strings.Join([]string{
			"You are a compliance monitoring AI.",
			"Draft an URGENT internal compliance alert. This is a high-priority notification for internal review only.",
			"",
			"An automated watchlist check has flagged a new investor. Immediate manual review is required.",
			"",
			"Details:",
			"- Name: " + f.Name,
			"- Investment Amount: " + f.InvestmentAmount,
			"- Address: " + f.Address,
			"",
			"The alert should be concise, professional, and clearly state the need for urgent action. Do not include any speculative language.",
			"",
			"Respond ONLY with the text of the internal alert. Do not include a subject line or any other explanatory text.",
		}, "\n"), nil
	default:
		return "", fmt.Errorf("cannot draft for compliance status %q", req.Status)
	}
}
