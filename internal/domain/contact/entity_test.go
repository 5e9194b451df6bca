package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmission_Validate(t *testing.T) {
	ok := Submission{Name: "Ann", Email: "ann@example.com", Message: "I would like a print."}
	assert.Nil(t, ok.Validate())

	bad := Submission{Name: "A", Email: "not-an-email", Message: "short"}
	assert.Equal(t, []string{
		"Name must be at least 2 characters.",
		"Invalid email address.",
		"Message must be at least 10 characters.",
	}, bad.Validate())

	empty := Submission{}
	assert.Len(t, empty.Validate(), 3)
}

func TestSubmission_NormalizeTrims(t *testing.T) {
	s := Submission{Name: "  A ", Email: " a@b.co ", Message: " 123456789  "}
	s.Normalize()
	assert.Equal(t, "A", s.Name)
	assert.Equal(t, []string{
		"Name must be at least 2 characters.",
		"Message must be at least 10 characters.",
	}, s.Validate())
}

func TestAnalysis_Flagged(t *testing.T) {
	var none *Analysis
	assert.False(t, none.Flagged())
	assert.True(t, (&Analysis{Sentiment: &Sentiment{IsSpam: true}}).Flagged())
	assert.True(t, (&Analysis{Content: &ContentCheck{IsAppropriate: false}}).Flagged())
	assert.False(t, (&Analysis{Content: &ContentCheck{IsAppropriate: true, IsRelevant: false}}).Flagged())
}
