// internal/adapters/out/llm/gemini_analyzer.go
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"optivista/internal/domain/contact"
)

const DefaultModel = "gemini-2.5-flash"

// generator runs one structured-output prompt and returns the raw JSON text.
type generator interface {
	generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// GeminiAnalyzer classifies contact submissions with Gemini structured output.
// It implements contact.Analyzer.
type GeminiAnalyzer struct {
	gen generator
	log *zap.Logger
}

// NewGeminiAnalyzer creates an analyzer talking to the Gemini API.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newAnalyzer(&genaiGenerator{client: client, model: model}, logger), nil
}

func newAnalyzer(gen generator, logger *zap.Logger) *GeminiAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiAnalyzer{gen: gen, log: logger.Named("gemini")}
}

var contentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isAppropriate": {Type: genai.TypeBoolean, Description: "Whether the content is appropriate for a business inquiry."},
		"isRelevant":    {Type: genai.TypeBoolean, Description: "Whether the content is relevant to a photography print store."},
		"reason":        {Type: genai.TypeString, Description: "Why the content might be inappropriate or irrelevant."},
	},
	Required: []string{"isAppropriate", "isRelevant"},
}

var sentimentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment": {Type: genai.TypeString, Enum: []string{"positive", "negative", "neutral"}},
		"isSpam":    {Type: genai.TypeBoolean, Description: "Whether the message is likely to be spam."},
		"urgency":   {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
	},
	Required: []string{"sentiment", "isSpam", "urgency"},
}

func (a *GeminiAnalyzer) CheckContent(ctx context.Context, s contact.Submission) (contact.ContentCheck, error) {
	prompt := "You analyze contact form submissions for a photography print store. " +
		"Decide whether the message is appropriate for a business inquiry and whether it is relevant to the store. " +
		"When it is not, give a short reason.\n\n" + submissionBlock(s)

	var out contact.ContentCheck
	if err := a.run(ctx, "content", prompt, contentSchema, &out); err != nil {
		return contact.ContentCheck{}, err
	}
	return out, nil
}

func (a *GeminiAnalyzer) AnalyzeSentiment(ctx context.Context, s contact.Submission) (contact.Sentiment, error) {
	prompt := "You analyze contact form submissions. " +
		"Classify the overall sentiment of the message, whether it is likely spam, " +
		"and how urgently the store owner should answer it.\n\n" + submissionBlock(s)

	var out contact.Sentiment
	if err := a.run(ctx, "sentiment", prompt, sentimentSchema, &out); err != nil {
		return contact.Sentiment{}, err
	}
	out.Sentiment = strings.ToLower(strings.TrimSpace(out.Sentiment))
	out.Urgency = strings.ToLower(strings.TrimSpace(out.Urgency))
	return out, nil
}

func (a *GeminiAnalyzer) run(ctx context.Context, task, prompt string, schema *genai.Schema, dst any) error {
	raw, err := a.gen.generate(ctx, prompt, schema)
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("gemini %s: empty response", task)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		a.log.Debug("unparseable response", zap.String("task", task), zap.String("raw", raw))
		return fmt.Errorf("gemini %s: decode response: %w", task, err)
	}
	return nil
}

func submissionBlock(s contact.Submission) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s\n", s.Name, s.Email, s.Message)
}
