package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
)

func chatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(url string) *Client {
	return NewClient(Config{APIKey: "test", BaseURL: url + "/v1", DraftTemperature: 0.5},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAnalyzeDocument(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, `{"name":"Jane Doe","investment_amount":"€10,000","address":"1 Rue de Rivoli, Paris"}`, &seen)
	defer srv.Close()

	got, raw, err := testClient(srv.URL).AnalyzeDocument(context.Background(), "some document text")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "€10,000", got.InvestmentAmount)
	assert.NotEmpty(t, raw)

	rf := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
}

func TestAnalyzeDocumentMissingField(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"name":"Jane Doe","investment_amount":"€10,000"}`, nil)
	defer srv.Close()

	_, _, err := testClient(srv.URL).AnalyzeDocument(context.Background(), "text")
	require.ErrorIs(t, err, common.ErrAnalysisFailed)
	assert.Equal(t, common.MsgAnalysisInvalid, common.UserMessage(err))
}

func TestAnalyzeDocumentServiceError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "", nil)
	defer srv.Close()

	_, _, err := testClient(srv.URL).AnalyzeDocument(context.Background(), "text")
	require.ErrorIs(t, err, common.ErrAnalysisFailed)
	assert.Equal(t, common.MsgAnalysisFailed, common.UserMessage(err))
}

func TestDraftNotification(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, "  Welcome aboard!  ", &seen)
	defer srv.Close()

	body, err := testClient(srv.URL).DraftNotification(context.Background(), llm.DraftRequest{
		Fields: llm.InvestorFields{Name: "Jane Doe", InvestmentAmount: "$5", Address: "Secret Lane 1"},
		Status: constants.ComplianceApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard!", body)
	assert.InDelta(t, 0.5, seen["temperature"], 0.0001)

	msgs := seen["messages"].([]any)
	prompt := msgs[0].(map[string]any)["content"].(string)
	assert.NotContains(t, prompt, "Secret Lane 1")
}

func TestDraftNotificationFailures(t *testing.T) {
	empty := chatServer(t, http.StatusOK, "   ", nil)
	defer empty.Close()
	_, err := testClient(empty.URL).DraftNotification(context.Background(), llm.DraftRequest{Status: constants.ComplianceFlagged})
	require.ErrorIs(t, err, common.ErrDraftFailed)

	_, err = testClient(empty.URL).DraftNotification(context.Background(), llm.DraftRequest{Status: constants.ComplianceChecking})
	require.ErrorIs(t, err, common.ErrDraftFailed)
	assert.Equal(t, common.MsgDraftFailed, common.UserMessage(err))
}
