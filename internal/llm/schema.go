package llm

// Field names of the structured record, in prompt order.
const (
	FieldName             = "name"
	FieldInvestmentAmount = "investment_amount"
	FieldAddress          = "address"
)

// RequiredFields lists every key the analyzer response must carry.
var RequiredFields = []string{FieldName, FieldInvestmentAmount, FieldAddress}

// FieldDescriptions are passed to providers that accept per-property docs.
var FieldDescriptions = map[string]string{
	FieldName:             "The full name of the person or entity.",
	FieldInvestmentAmount: "The total investment amount, including currency.",
	FieldAddress:          "The complete mailing address.",
}

// BuildInvestorJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to OpenAI as a structured output constraint and also use it locally to validate.
func BuildInvestorJSONSchema() map[string]any {
	props := make(map[string]any, len(RequiredFields))
	for _, f := range RequiredFields {
		props[f] = map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": FieldDescriptions[f],
		}
	}
	required := make([]string, len(RequiredFields))
	copy(required, RequiredFields)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
