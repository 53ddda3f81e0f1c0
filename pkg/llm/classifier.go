package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/Barac9492/contrarian-brief/pkg/config"
	"github.com/Barac9492/contrarian-brief/pkg/domain"
	"github.com/Barac9492/contrarian-brief/pkg/feed"
)

// Classifier assigns a theme, key insight and tags to a post via the LLM.
// It never fails upward: any transport or parse problem degrades to the
// fallback classification, so a broken model call can never block ingestion
// or manual entry.
type Classifier struct {
	client    *openai.Client
	cfg       config.LLMConfig
	systemMsg string
}

// NewClassifier creates a new LLM classifier
func NewClassifier(cfg config.LLMConfig) *Classifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	systemMsg := cfg.ClassifyPrompt
	if systemMsg == "" {
		systemMsg = defaultClassifyPrompt
	}

	return &Classifier{
		client:    openai.NewClientWithConfig(clientConfig),
		cfg:       cfg,
		systemMsg: systemMsg,
	}
}

const defaultClassifyPrompt = `You classify short-form investment content for a personal curation library and extract its key insight.

Each classification must contain:
- theme: exactly one of: AI Infrastructure, Korean Diaspora, Korean VC Ecosystem, Demographics & Aging, Consumer Tech, Founder Intelligence, Regulatory & Policy, Global Macro, Other
- keyInsight: one sentence capturing the core contrarian or unique point of the content
- tags: 1-3 short lowercase keywords

Respond ONLY with a JSON object in this exact format, no other text:
{"theme": "...", "keyInsight": "...", "tags": ["tag1", "tag2"]}`

// Fallback returns the classification used when the model cannot be asked
// or did not answer usably
func Fallback(insight string) domain.Classification {
	return domain.Classification{Theme: domain.ThemeOther, KeyInsight: insight, Tags: []string{}}
}

// Classify requests a classification for the given title and content.
// Content is stripped of markup and truncated before it is sent. A missing
// credential short-circuits to the fallback without any network call.
func (c *Classifier) Classify(ctx context.Context, title, content string) domain.Classification {
	if c.cfg.APIKey == "" {
		lgr.Printf("[WARN] classification skipped: API key missing")
		return Fallback("API Key missing")
	}

	text := feed.PlainText(content)
	if c.cfg.MaxContentChars > 0 && len(text) > c.cfg.MaxContentChars {
		text = text[:c.cfg.MaxContentChars]
	}

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: float32(c.cfg.Temperature),
		MaxTokens:   c.cfg.ClassifyTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemMsg,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Classify this content.\n\nTitle: %s\nContent: %s", title, text),
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		lgr.Printf("[WARN] classification request failed for %q: %v", title, err)
		return Fallback("")
	}

	if len(resp.Choices) == 0 {
		lgr.Printf("[WARN] classification returned no choices for %q", title)
		return Fallback("")
	}

	result, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		lgr.Printf("[WARN] classification response unusable for %q: %v", title, err)
		return Fallback("")
	}

	if !result.Theme.Known() {
		// kept verbatim so the unexpected value stays visible in its own bucket
		lgr.Printf("[WARN] classifier returned unrecognized theme %q for %q", result.Theme, title)
	}

	return result
}

// parseClassification extracts the structured payload from the model
// response, tolerating markdown fences and surrounding prose
func parseClassification(content string) (domain.Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || start >= end {
		return domain.Classification{}, fmt.Errorf("no json object found in response")
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("failed to parse json response: %w", err)
	}

	result.Theme = result.Theme.OrDefault()
	if result.Tags == nil {
		result.Tags = []string{}
	}
	return result, nil
}
