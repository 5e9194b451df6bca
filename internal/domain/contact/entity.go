// internal/domain/contact/entity.go
package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const Collection = "contact_form_submissions"

// Submission is one message sent through the contact form.
type Submission struct {
	Name    string `json:"name" firestore:"name" validate:"min=2"`
	Email   string `json:"email" firestore:"email" validate:"required,email"`
	Message string `json:"message" firestore:"message" validate:"min=10"`
}

// Record is the stored form of a submission.
type Record struct {
	Submission
	SubmissionDate time.Time `json:"submissionDate" firestore:"submissionDate"`
	Analysis       *Analysis `json:"analysis,omitempty" firestore:"analysis,omitempty"`
}

// FormState is what the form endpoint answers with.
type FormState struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Issues  []string          `json:"issues,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var issueText = map[string]string{
	"Name":    "Name must be at least 2 characters.",
	"Email":   "Invalid email address.",
	"Message": "Message must be at least 10 characters.",
}

// Normalize trims every field in place.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)
}

// Validate returns one human-readable issue per invalid field, in form order.
// A nil slice means the submission is valid.
func (s Submission) Validate() []string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	issues := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := issueText[fe.StructField()]
		if !ok {
			msg = fe.Error()
		}
		issues = append(issues, msg)
	}
	return issues
}

func (s Submission) Fields() map[string]string {
	return map[string]string{"name": s.Name, "email": s.Email, "message": s.Message}
}

// ContentCheck says whether a message is fit for a business inbox.
type ContentCheck struct {
	IsAppropriate bool   `json:"isAppropriate" firestore:"isAppropriate"`
	IsRelevant    bool   `json:"isRelevant" firestore:"isRelevant"`
	Reason        string `json:"reason,omitempty" firestore:"reason,omitempty"`
}

type Sentiment struct {
	Sentiment string `json:"sentiment" firestore:"sentiment"` // positive | negative | neutral
	IsSpam    bool   `json:"isSpam" firestore:"isSpam"`
	Urgency   string `json:"urgency" firestore:"urgency"` // high | medium | low
}

// Analysis is attached to a stored submission once triage finishes.
// Either part may be missing when its call failed.
type Analysis struct {
	Content   *ContentCheck `json:"content,omitempty" firestore:"content,omitempty"`
	Sentiment *Sentiment    `json:"sentiment,omitempty" firestore:"sentiment,omitempty"`
}

// Flagged reports whether the owner should not be bothered with this message.
func (a *Analysis) Flagged() bool {
	if a == nil {
		return false
	}
	if a.Sentiment != nil && a.Sentiment.IsSpam {
		return true
	}
	return a.Content != nil && !a.Content.IsAppropriate
}

// Analyzer classifies submissions with a hosted language model.
type Analyzer interface {
	CheckContent(ctx context.Context, s Submission) (ContentCheck, error)
	AnalyzeSentiment(ctx context.Context, s Submission) (Sentiment, error)
}

// OwnerNotifier forwards a submission to the site owner.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, r Record) error
}
