package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
)

var (
	_ llm.StructuredAnalyzer  = (*Client)(nil)
	_ llm.NotificationDrafter = (*Client)(nil)
)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeDocument implements llm.StructuredAnalyzer using chat/completions with
// a strict json_schema response format.
func (c *Client) AnalyzeDocument(ctx context.Context, text string) (llm.InvestorFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	attrs := append(common.LogAttrs(ctx), "req_id", rid)

	c.log.Info("llm.analyze.start", append(attrs, "model", c.cfg.Model, "text_len", len(text))...)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": 0,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "investor_fields",
				"strict": true,
				"schema": strictSchema(),
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": llm.AnalysisSystemPrompt},
			{"role": "user", "content": llm.BuildAnalysisPrompt(text)},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.analyze.http_error", append(attrs, "error", err, "elapsed_ms", time.Since(start).Milliseconds())...)
		return llm.InvestorFields{}, nil, llm.AnalysisUnavailable(err)
	}
	raw := []byte(content)

	out, err := llm.DecodeInvestorFields(raw)
	if err != nil {
		c.log.Error("llm.analyze.schema_validation_failed", append(attrs,
			"error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)...)
		return llm.InvestorFields{}, raw, llm.InvalidStructure(err)
	}

	c.log.Info("llm.analyze.ok", append(attrs, "elapsed_ms", time.Since(start).Milliseconds())...)
	return out, raw, nil
}

// DraftNotification implements llm.NotificationDrafter.
func (c *Client) DraftNotification(ctx context.Context, req llm.DraftRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	attrs := append(common.LogAttrs(ctx), "req_id", rid, "status", string(req.Status))

	prompt, err := llm.BuildDraftPrompt(req)
	if err != nil {
		c.log.Error("llm.draft.bad_status", append(attrs, "error", err)...)
		return "", llm.DraftFailed(err)
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.DraftTemperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.draft.http_error", append(attrs, "error", err, "elapsed_ms", time.Since(start).Milliseconds())...)
		return "", llm.DraftFailed(err)
	}
	if content == "" {
		c.log.Error("llm.draft.empty", attrs...)
		return "", llm.DraftFailed(llm.ErrEmptyResponse)
	}

	c.log.Info("llm.draft.ok", append(attrs, "chars", len(content), "elapsed_ms", time.Since(start).Milliseconds())...)
	return content, nil
}

var errMalformed = errors.New("malformed openai response")

// complete posts a chat/completions body and returns the first choice, trimmed.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		return "", err
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", errMalformed)
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

// strictSchema drops keywords OpenAI's strict mode rejects; local validation
// still uses the full schema.
func strictSchema() map[string]any {
	s := llm.BuildInvestorJSONSchema()
	props := s["properties"].(map[string]any)
	for k, v := range props {
		p := v.(map[string]any)
		props[k] = map[string]any{"type": p["type"], "description": p["description"]}
	}
	return s
}
