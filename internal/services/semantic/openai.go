package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = `You are a vocabulary calibrator for an English learning app.
Given a learner message, report only vocabulary-level issues: words that are too
advanced or too basic for the learner level, wrong collocations, misused idioms,
and semantically incoherent word choices. Do NOT report grammar, spelling or
punctuation. Respond with valid JSON only:
{"findings":[{"kind":"vocabulary|semantic|collocation|idiom","word":"...","issue":"...","suggestion":"...","confidence":0.0}]}
An empty findings array means the text is clean.`

// OpenAICalibrator implements Calibrator using OpenAI's chat API
type OpenAICalibrator struct {
	client openai.Client
	model  string
	ready  bool
	logger *zap.Logger
}

// NewOpenAICalibrator creates a calibrator. An empty API key yields a
// not-ready calibrator rather than an error: the vocabulary detector then
// reports itself unavailable and the pipeline runs without it.
func NewOpenAICalibrator(apiKey, baseURL, model string, logger *zap.Logger) *OpenAICalibrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiKey == "" {
		return &OpenAICalibrator{logger: logger}
	}
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAICalibrator{
		client: client,
		model:  model,
		ready:  true,
		logger: logger,
	}
}

// Ready reports whether the calibrator is configured and usable
func (c *OpenAICalibrator) Ready() bool { return c.ready }

// Calibrate analyzes text for vocabulary and semantic issues
func (c *OpenAICalibrator) Calibrate(ctx context.Context, text string, proficiency string) ([]Finding, error) {
	if !c.ready {
		return nil, fmt.Errorf("semantic calibrator not configured")
	}

	userMsg := fmt.Sprintf("Learner level: %s\n\nMessage:\n%s", proficiency, text)
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMsg),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calibration request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in calibration response")
	}

	findings, err := parseFindings(resp.Choices[0].Message.Content)
	if err != nil {
		// Unparseable model output degrades to "no findings"; the pipeline
		// must continue on model misbehavior.
		c.logger.Warn("unparseable calibration response, treating as clean",
			zap.Error(err),
		)
		return nil, nil
	}
	return findings, nil
}

func parseFindings(content string) ([]Finding, error) {
	var payload struct {
		Findings []Finding `json:"findings"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// Some models wrap JSON in prose; salvage the outermost object
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start == -1 || end <= start {
			return nil, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse findings: %w", err)
		}
	}

	out := payload.Findings[:0]
	for _, f := range payload.Findings {
		switch f.Kind {
		case FindingVocabulary, FindingSemantic, FindingCollocation, FindingIdiom:
		default:
			f.Kind = FindingVocabulary
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			f.Confidence = 0.5
		}
		out = append(out, f)
	}
	return out, nil
}
