package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
)

var (
	_ llm.StructuredAnalyzer  = (*Client)(nil)
	_ llm.NotificationDrafter = (*Client)(nil)
)

// generator is the slice of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client holds one model configured for structured analysis and one for drafting.
type Client struct {
	cfg      Config
	analyzer generator
	drafter  generator
	base     *genai.Client
	log      *slog.Logger
}

// NewClient dials Vertex AI and configures both models.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.setDefaults()
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gemini: project id cannot be empty")
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	analysis := base.GenerativeModel(cfg.Model)
	analysis.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.AnalysisSystemPrompt)},
	}
	analysis.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
		Temperature:      genai.Ptr[float32](0.0),
	}

	draft := base.GenerativeModel(cfg.Model)
	draft.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(cfg.DraftTemperature),
	}

	c := newClient(cfg, analysis, draft, logger)
	c.base = base
	return c, nil
}

func newClient(cfg Config, analyzer, drafter generator, logger *slog.Logger) *Client {
	cfg.setDefaults()
	return &Client{
		cfg:      cfg,
		analyzer: analyzer,
		drafter:  drafter,
		log:      common.LoggerOr(logger),
	}
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// ResponseSchema mirrors llm.BuildInvestorJSONSchema in Vertex's schema type.
func ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(llm.RequiredFields))
	for _, f := range llm.RequiredFields {
		props[f] = &genai.Schema{Type: genai.TypeString, Description: llm.FieldDescriptions[f]}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   append([]string(nil), llm.RequiredFields...),
	}
}

func (c *Client) AnalyzeDocument(ctx context.Context, text string) (llm.InvestorFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	attrs := append(common.LogAttrs(ctx), "req_id", rid, "model", c.cfg.Model)
	c.log.Info("llm.analyze.start", append(attrs, "text_len", len(text))...)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.analyzer.GenerateContent(ctx, genai.Text(llm.BuildAnalysisPrompt(text)))
	if err != nil {
		c.log.Error("llm.analyze.api_error", append(attrs, "error", err, "elapsed_ms", time.Since(start).Milliseconds())...)
		return llm.InvestorFields{}, nil, llm.AnalysisUnavailable(err)
	}

	raw := []byte(responseText(resp))
	out, err := llm.DecodeInvestorFields(raw)
	if err != nil {
		c.log.Error("llm.analyze.schema_validation_failed", append(attrs,
			"error", err, "content_len", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)...)
		return llm.InvestorFields{}, raw, llm.InvalidStructure(err)
	}

	c.log.Info("llm.analyze.ok", append(attrs, "elapsed_ms", time.Since(start).Milliseconds())...)
	return out, raw, nil
}

func (c *Client) DraftNotification(ctx context.Context, req llm.DraftRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	attrs := append(common.LogAttrs(ctx), "req_id", rid, "model", c.cfg.Model, "status", string(req.Status))

	prompt, err := llm.BuildDraftPrompt(req)
	if err != nil {
		c.log.Error("llm.draft.bad_status", append(attrs, "error", err)...)
		return "", llm.DraftFailed(err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.drafter.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error("llm.draft.api_error", append(attrs, "error", err, "elapsed_ms", time.Since(start).Milliseconds())...)
		return "", llm.DraftFailed(err)
	}
	body := responseText(resp)
	if body == "" {
		c.log.Error("llm.draft.empty", attrs...)
		return "", llm.DraftFailed(llm.ErrEmptyResponse)
	}

	c.log.Info("llm.draft.ok", append(attrs, "chars", len(body), "elapsed_ms", time.Since(start).Milliseconds())...)
	return body, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
