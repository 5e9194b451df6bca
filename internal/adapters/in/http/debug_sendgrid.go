package httpin

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	httpmw "optivista/internal/adapters/in/http/middleware"
)

// MailChecker sends a test message through the configured mail provider.
type MailChecker interface {
	SendTest(ctx context.Context) error
}

// DebugSendGridHandler mails the owner address so an admin can check the
// SendGrid settings from the back office.
func DebugSendGridHandler(checker MailChecker, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("mailcheck")
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			httpmw.WriteError(w, http.StatusServiceUnavailable, "mail is not configured")
			return
		}
		if err := checker.SendTest(r.Context()); err != nil {
			log.Error("sendgrid check failed", zap.Error(err))
			httpmw.WriteError(w, http.StatusBadGateway, "send failed")
			return
		}
		httpmw.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}
