// Package mailer hands verification and password-reset tokens off for email
// delivery. Delivery itself is out of process: the AMQP mailer enqueues jobs
// for a worker, the console mailer just logs for local development.
package mailer

import (
	"context"
	"log"
)

type Mailer interface {
	SendEmailVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// DevConsoleMailer logs outgoing tokens instead of sending them. Only for
// local development; never enable in prod.
type DevConsoleMailer struct {
	enabled bool
}

func NewDevConsoleMailer(enabled bool) *DevConsoleMailer {
	return &DevConsoleMailer{enabled: enabled}
}

func (m *DevConsoleMailer) SendEmailVerification(_ context.Context, email, token string) error {
	if m.enabled {
		log.Printf("[DEV-EMAIL] email verification email=%s token=%s", email, token)
	}
	return nil
}

func (m *DevConsoleMailer) SendPasswordReset(_ context.Context, email, token string) error {
	if m.enabled {
		log.Printf("[DEV-EMAIL] password reset email=%s token=%s", email, token)
	}
	return nil
}
