package email

import (
	"context"

	"github.com/andrekirst/familyauth/internal/logger"
)

// Sender delivers the transactional mails of the auth flows.
// Delivery is best effort everywhere: callers log failures and
// never fail the primary operation because of one.
type Sender interface {
	SendWelcome(ctx context.Context, to string, firstName string) error
	SendVerificationLink(ctx context.Context, to string, token string) error
	SendPasswordResetLink(ctx context.Context, to string, token string) error
	SendPasswordResetCode(ctx context.Context, to string, code string) error
	SendPasswordChangedAlert(ctx context.Context, to string) error
}

// LogSender writes mails to the log instead of delivering them.
// Secrets are not logged.
type LogSender struct {
	Logger logger.Logger
}

func NewLogSender(l logger.Logger) *LogSender {
	return &LogSender{Logger: l}
}

func (s *LogSender) SendWelcome(ctx context.Context, to string, firstName string) error {
	s.Logger.Info("welcome mail", "to", to, "first_name", firstName)
	return nil
}

func (s *LogSender) SendVerificationLink(ctx context.Context, to string, token string) error {
	s.Logger.Info("email verification mail", "to", to)
	return nil
}

func (s *LogSender) SendPasswordResetLink(ctx context.Context, to string, token string) error {
	s.Logger.Info("password reset link mail", "to", to)
	return nil
}

func (s *LogSender) SendPasswordResetCode(ctx context.Context, to string, code string) error {
	s.Logger.Info("password reset code mail", "to", to)
	return nil
}

func (s *LogSender) SendPasswordChangedAlert(ctx context.Context, to string) error {
	s.Logger.Info("password changed mail", "to", to)
	return nil
}
