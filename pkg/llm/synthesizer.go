package llm

import (
	"context"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"

	"github.com/Barac9492/contrarian-brief/pkg/config"
	"github.com/Barac9492/contrarian-brief/pkg/digest"
	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// Synthesizer turns the accumulated collection into a narrative LP-brief
// draft via the LLM. Unlike the classifier it does no parsing of the model
// output; whatever narrative comes back is returned verbatim. Transport and
// credential failures degrade to a marked placeholder string so the caller
// always has renderable content.
type Synthesizer struct {
	client    *openai.Client
	cfg       config.LLMConfig
	systemMsg string
}

// NewSynthesizer creates a new report synthesizer
func NewSynthesizer(cfg config.LLMConfig) *Synthesizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	systemMsg := cfg.ReportVoice
	if systemMsg == "" {
		systemMsg = defaultReportVoice
	}

	return &Synthesizer{
		client:    openai.NewClientWithConfig(clientConfig),
		cfg:       cfg,
		systemMsg: systemMsg,
	}
}

const defaultReportVoice = `You are an LP report writer for a Seoul-based VC firm. Write in a professional but distinctive voice. Key frameworks: "Founder Intelligence" (diaspora founders with dual cultural context), "MAU Trap" (metrics vs real value). Generate the report in English. Be concise and data-driven.`

const reportInstruction = `Format:
1. EXECUTIVE SUMMARY (3-4 sentences)
2. KEY THEMES THIS QUARTER (top 3 themes with brief analysis)
3. CONTRARIAN TAKES (2-3 non-consensus views expressed)
4. IMPLICATIONS FOR LPs (what this means for investors)
5. WHAT TO WATCH NEXT QUARTER

Keep it sharp. No fluff. Each section should be 2-4 sentences max.`

// placeholder strings returned instead of a report when the model call
// cannot be made or fails
const (
	placeholderNoKey  = "System Error: Missing API Key"
	placeholderFailed = "Failed to generate report"
)

// Synthesize generates a narrative report over the collection using the
// precomputed date-range string. An empty collection is rejected with
// ValidationError before any request is made; any failure after that point
// yields a placeholder string, never an error.
func (s *Synthesizer) Synthesize(ctx context.Context, posts []domain.Post, dateRange string) (string, error) {
	if len(posts) == 0 {
		return "", &domain.ValidationError{Reason: "collection is empty, nothing to report on"}
	}

	if s.cfg.APIKey == "" {
		lgr.Printf("[WARN] report synthesis skipped: API key missing")
		return placeholderNoKey, nil
	}

	prompt := "Based on this collection of published insights from " + dateRange +
		", generate an LP quarterly brief draft.\n\nContent collected:\n" + digest.Build(posts) +
		"\n" + reportInstruction

	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: float32(s.cfg.Temperature),
		MaxTokens:   s.cfg.ReportTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: s.systemMsg,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		lgr.Printf("[WARN] report synthesis request failed: %v", err)
		return placeholderFailed, nil
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		lgr.Printf("[WARN] report synthesis returned no content")
		return placeholderFailed, nil
	}

	return resp.Choices[0].Message.Content, nil
}
