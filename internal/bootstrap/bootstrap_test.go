package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeWatchlist(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewExtractorEngines(t *testing.T) {
	for _, engine := range []string{"fitz", "pdftotext", "FITZ", ""} {
		ex, err := NewExtractor(common.ExtractConfig{Engine: engine, MinChars: 20, Pdftotext: "pdftotext"}, discard)
		require.NoError(t, err, engine)
		assert.NotNil(t, ex)
	}

	_, err := NewExtractor(common.ExtractConfig{Engine: "tesseract"}, discard)
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestNewLLMProviders(t *testing.T) {
	model, closer, err := NewLLM(context.Background(), common.LLMConfig{
		Provider: "openai",
		OpenAI:   common.OpenAIConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1", Model: "gpt-4o-mini"},
	}, discard)
	require.NoError(t, err)
	assert.NotNil(t, model)
	assert.NoError(t, closer.Close())

	_, _, err = NewLLM(context.Background(), common.LLMConfig{Provider: "claude"}, discard)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestNewCheckerFromFile(t *testing.T) {
	path := writeWatchlist(t, "name\nJane Doe\nJohn Roe\n")
	checker, closer, err := NewChecker(context.Background(), common.WatchlistConfig{
		Source:            path,
		UnavailablePolicy: "fail",
	}, discard)
	require.NoError(t, err)
	defer closer.Close()

	status, err := checker.Check(context.Background(), " jane doe ")
	require.NoError(t, err)
	assert.Equal(t, constants.ComplianceFlagged, status)

	_, _, err = NewChecker(context.Background(), common.WatchlistConfig{Source: path, UnavailablePolicy: "maybe"}, discard)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestNewWiresApp(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAI.APIKey = "sk-test"
	cfg.Watchlist.Source = writeWatchlist(t, "name\nJane Doe\n")

	app, err := New(context.Background(), cfg, discard)
	require.NoError(t, err)
	assert.Equal(t, constants.StageIdle, app.Orchestrator.State().Stage)
	assert.NotNil(t, app.Service)
	require.NoError(t, app.Close(context.Background()))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Gemini.ProjectID = ""

	_, err := New(context.Background(), cfg, discard)
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}
