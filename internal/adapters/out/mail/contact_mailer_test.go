package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optivista/internal/domain/contact"
)

type sentMail struct {
	from, to, subject, body string
}

type fakeClient struct {
	sent []sentMail
}

func (f *fakeClient) Send(_ context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{from, to, subject, body})
	return nil
}

func TestContactMailer_NotifyOwner(t *testing.T) {
	fc := &fakeClient{}
	m := NewContactMailer(fc, " shop@example.com ", "owner@example.com")

	rec := contact.Record{
		Submission: contact.Submission{
			Name:    "Asha",
			Email:   "asha@example.com",
			Message: "Do you ship framed prints?",
		},
		SubmissionDate: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Analysis: &contact.Analysis{
			Sentiment: &contact.Sentiment{Sentiment: "positive", Urgency: "high"},
			Content:   &contact.ContentCheck{IsAppropriate: true, IsRelevant: true},
		},
	}
	require.NoError(t, m.NotifyOwner(context.Background(), rec))

	require.Len(t, fc.sent, 1)
	got := fc.sent[0]
	assert.Equal(t, "shop@example.com", got.from)
	assert.Equal(t, "owner@example.com", got.to)
	assert.Equal(t, "[Urgent] New contact message from Asha", got.subject)
	assert.Contains(t, got.body, "Do you ship framed prints?")
	assert.Contains(t, got.body, "asha@example.com")
	assert.Contains(t, got.body, "2026-03-01 09:30 UTC")
	assert.Contains(t, got.body, "urgency high")
}

func TestContactMailer_NoAnalysis(t *testing.T) {
	fc := &fakeClient{}
	m := NewContactMailer(fc, "shop@example.com", "owner@example.com")

	require.NoError(t, m.NotifyOwner(context.Background(), contact.Record{
		Submission: contact.Submission{Name: "Bo", Email: "bo@example.com", Message: "hello there!"},
	}))
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "New contact message from Bo", fc.sent[0].subject)
	assert.NotContains(t, fc.sent[0].body, "Triage")
}

func TestContactMailer_SendTest(t *testing.T) {
	fc := &fakeClient{}
	m := NewContactMailer(fc, "shop@example.com", "owner@example.com")

	require.NoError(t, m.SendTest(context.Background()))
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "owner@example.com", fc.sent[0].to)
	assert.Equal(t, "Optivista mail check", fc.sent[0].subject)
}

func TestSendGridClient_RejectsMissingSettings(t *testing.T) {
	c := NewSendGridClient("", "", nil)
	assert.Error(t, c.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"))

	c = NewSendGridClient("key", "", nil)
	assert.Error(t, c.Send(context.Background(), "", "b@example.com", "s", "b"))
	assert.Error(t, c.Send(context.Background(), "a@example.com", "", "s", "b"))
}
