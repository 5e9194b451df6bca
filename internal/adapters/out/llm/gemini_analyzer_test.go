package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"optivista/internal/domain/contact"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
	schemas []*genai.Schema
}

func (f *fakeGenerator) generate(_ context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.reply, f.err
}

var sub = contact.Submission{Name: "Asha", Email: "asha@example.com", Message: "Do you ship framed prints?"}

func TestGeminiAnalyzer_CheckContent(t *testing.T) {
	gen := &fakeGenerator{reply: `{"isAppropriate": true, "isRelevant": false, "reason": "off topic"}`}
	a := newAnalyzer(gen, nil)

	got, err := a.CheckContent(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, contact.ContentCheck{IsAppropriate: true, IsRelevant: false, Reason: "off topic"}, got)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Message: Do you ship framed prints?")
	assert.Same(t, contentSchema, gen.schemas[0])
}

func TestGeminiAnalyzer_AnalyzeSentimentNormalizesEnums(t *testing.T) {
	gen := &fakeGenerator{reply: "\n{\"sentiment\": \" Positive\", \"isSpam\": false, \"urgency\": \"HIGH\"}\n"}
	a := newAnalyzer(gen, nil)

	got, err := a.AnalyzeSentiment(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, contact.Sentiment{Sentiment: "positive", IsSpam: false, Urgency: "high"}, got)
	assert.Same(t, sentimentSchema, gen.schemas[0])
}

func TestGeminiAnalyzer_Failures(t *testing.T) {
	boom := errors.New("quota")
	for name, gen := range map[string]*fakeGenerator{
		"transport": {err: boom},
		"empty":     {reply: "  "},
		"garbage":   {reply: "not json"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newAnalyzer(gen, nil).CheckContent(context.Background(), sub)
			assert.Error(t, err)
		})
	}
}

func TestNewGeminiAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), "", "", nil)
	assert.Error(t, err)
}
