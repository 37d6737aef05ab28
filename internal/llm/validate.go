package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/investor-screening/internal/common"
)

// ErrEmptyResponse is returned when the model answered with no text.
var ErrEmptyResponse = errors.New("empty model response")

var (
	investorSchemaOnce sync.Once
	investorSchema     *jsonschema.Schema
	investorSchemaErr  error
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validateWith(schema, data)
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateWith(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// DecodeInvestorFields parses a model response strictly. Nothing is repaired
// or coerced: a missing, empty, non-string or extra field is an error.
func DecodeInvestorFields(raw []byte) (InvestorFields, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return InvestorFields{}, ErrEmptyResponse
	}

	investorSchemaOnce.Do(func() {
		investorSchema, investorSchemaErr = compileSchema(BuildInvestorJSONSchema())
	})
	if investorSchemaErr != nil {
		return InvestorFields{}, investorSchemaErr
	}
	if err := validateWith(investorSchema, raw); err != nil {
		return InvestorFields{}, err
	}

	var out InvestorFields
	if err := json.Unmarshal(raw, &out); err != nil {
		return InvestorFields{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	v := common.NewValidator().
		Field(FieldName, out.Name, common.Required).
		Field(FieldInvestmentAmount, out.InvestmentAmount, common.Required).
		Field(FieldAddress, out.Address, common.Required)
	if err := v.Error(); err != nil {
		return InvestorFields{}, err
	}
	return out, nil
}
