package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barac9492/contrarian-brief/pkg/config"
	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Endpoint:        endpoint,
		APIKey:          "test-key",
		Model:           "gpt-4o-mini",
		Temperature:     0.3,
		ClassifyTokens:  500,
		ReportTokens:    1500,
		Timeout:         5 * time.Second,
		MaxContentChars: 1000,
	}
}

// chatServer returns an httptest server answering chat completions with the
// given message content, counting requests
func chatServer(t *testing.T, reply string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClassifier_Classify(t *testing.T) {
	var calls int32
	reply := "```json\n" + `{"theme": "Global Macro", "keyInsight": "rates stay high longer", "tags": ["macro", "rates"]}` + "\n```"
	server := chatServer(t, reply, &calls)
	defer server.Close()

	classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
	result := classifier.Classify(context.Background(), "Rates piece", "<p>some content</p>")

	assert.Equal(t, domain.ThemeGlobalMacro, result.Theme)
	assert.Equal(t, "rates stay high longer", result.KeyInsight)
	assert.Equal(t, []string{"macro", "rates"}, result.Tags)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClassifier_UnrecognizedThemePreserved(t *testing.T) {
	var calls int32
	server := chatServer(t, `{"theme": "Space Mining", "keyInsight": "x", "tags": []}`, &calls)
	defer server.Close()

	classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
	result := classifier.Classify(context.Background(), "t", "c")

	// kept verbatim, not coerced to Other
	assert.Equal(t, domain.Theme("Space Mining"), result.Theme)
	assert.False(t, result.Theme.Known())
}

func TestClassifier_MissingAPIKey(t *testing.T) {
	var calls int32
	server := chatServer(t, "{}", &calls)
	defer server.Close()

	cfg := testLLMConfig(server.URL + "/v1")
	cfg.APIKey = ""
	classifier := NewClassifier(cfg)

	result := classifier.Classify(context.Background(), "X", "")

	assert.Equal(t, domain.Classification{Theme: domain.ThemeOther, KeyInsight: "API Key missing", Tags: []string{}}, result)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no network call without a credential")
}

func TestClassifier_FallbackPaths(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
		result := classifier.Classify(context.Background(), "t", "c")
		assert.Equal(t, Fallback(""), result)
	})

	t.Run("malformed payload", func(t *testing.T) {
		var calls int32
		server := chatServer(t, "no json here at all", &calls)
		defer server.Close()

		classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
		result := classifier.Classify(context.Background(), "t", "c")
		assert.Equal(t, Fallback(""), result)
	})

	t.Run("broken json object", func(t *testing.T) {
		var calls int32
		server := chatServer(t, `{"theme": "Other", "keyInsight": `, &calls)
		defer server.Close()

		classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
		result := classifier.Classify(context.Background(), "t", "c")
		assert.Equal(t, Fallback(""), result)
	})
}

func TestClassifier_TruncatesContent(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Messages[len(req.Messages)-1].Content

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `{"theme": "Other", "keyInsight": "", "tags": []}`}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	classifier := NewClassifier(testLLMConfig(server.URL + "/v1"))
	long := strings.Repeat("word ", 1000)
	classifier.Classify(context.Background(), "t", long)

	assert.Less(t, len(gotPrompt), 1200, "content must be truncated before sending")
}

func TestParseClassification(t *testing.T) {
	t.Run("fenced response", func(t *testing.T) {
		result, err := parseClassification("Here you go:\n```json\n{\"theme\": \"Consumer Tech\", \"keyInsight\": \"k\", \"tags\": [\"a\"]}\n```\nHope this helps!")
		require.NoError(t, err)
		assert.Equal(t, domain.ThemeConsumerTech, result.Theme)
	})

	t.Run("empty theme defaults to Other", func(t *testing.T) {
		result, err := parseClassification(`{"keyInsight": "k"}`)
		require.NoError(t, err)
		assert.Equal(t, domain.ThemeOther, result.Theme)
		assert.NotNil(t, result.Tags)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := parseClassification("nothing structured")
		require.Error(t, err)
	})
}
