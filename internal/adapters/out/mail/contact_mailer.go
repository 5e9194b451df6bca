// internal/adapters/out/mail/contact_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"optivista/internal/domain/contact"
)

// ContactMailer forwards contact form submissions to the site owner.
// It implements contact.OwnerNotifier.
type ContactMailer struct {
	client      EmailClient
	fromAddress string
	ownerEmail  string
}

func NewContactMailer(client EmailClient, fromAddress, ownerEmail string) *ContactMailer {
	return &ContactMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		ownerEmail:  strings.TrimSpace(ownerEmail),
	}
}

// NewContactMailerWithSendGrid wires a ContactMailer onto SendGrid. Missing
// settings are logged; the mailer then fails on every send.
func NewContactMailerWithSendGrid(apiKey, fromAddress, ownerEmail string, logger *zap.Logger) *ContactMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("mail")
	if apiKey == "" {
		log.Warn("SENDGRID_API_KEY is empty; owner notifications will fail")
	}
	if fromAddress == "" {
		log.Warn("SENDGRID_FROM is empty; owner notifications will fail")
	}
	if ownerEmail == "" {
		log.Warn("CONTACT_NOTIFY_TO is empty; owner notifications will fail")
	}

	m := NewContactMailer(NewSendGridClient(apiKey, "Optivista", logger), fromAddress, ownerEmail)
	log.Info("contact mailer initialized", zap.String("from", fromAddress), zap.String("to", ownerEmail))
	return m
}

func (m *ContactMailer) NotifyOwner(ctx context.Context, r contact.Record) error {
	if m == nil || m.client == nil {
		return errors.New("contact_mailer: email client is nil")
	}
	return m.client.Send(ctx, m.fromAddress, m.ownerEmail, subjectFor(r), bodyFor(r))
}

// SendTest mails a fixed message to the owner address to check the
// SendGrid settings end to end.
func (m *ContactMailer) SendTest(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("contact_mailer: email client is nil")
	}
	return m.client.Send(ctx, m.fromAddress, m.ownerEmail,
		"Optivista mail check",
		"This is a test message from the Optivista backend.")
}

func subjectFor(r contact.Record) string {
	subject := fmt.Sprintf("New contact message from %s", r.Name)
	if s := r.Analysis; s != nil && s.Sentiment != nil && s.Sentiment.Urgency == "high" {
		subject = "[Urgent] " + subject
	}
	return subject
}

func bodyFor(r contact.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:    %s\n", r.Name)
	fmt.Fprintf(&b, "Email:   %s\n", r.Email)
	fmt.Fprintf(&b, "Sent at: %s\n\n", r.SubmissionDate.UTC().Format("2006-01-02 15:04 MST"))
	b.WriteString(r.Message)
	b.WriteString("\n")

	if a := r.Analysis; a != nil {
		b.WriteString("\n-- \nTriage\n")
		if a.Sentiment != nil {
			fmt.Fprintf(&b, "  Sentiment: %s, urgency %s\n", a.Sentiment.Sentiment, a.Sentiment.Urgency)
		}
		if a.Content != nil {
			fmt.Fprintf(&b, "  Relevant:  %t\n", a.Content.IsRelevant)
			if a.Content.Reason != "" {
				fmt.Fprintf(&b, "  Note:      %s\n", a.Content.Reason)
			}
		}
	}
	return b.String()
}
