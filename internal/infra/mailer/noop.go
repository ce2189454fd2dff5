package mailer

import (
	"context"

	"edupay/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer is used in dev mode and tests.
type NoopMailer struct{}

func (NoopMailer) SendDownloadReady(ctx context.Context, dm adapter.DownloadMail) error {
	return nil
}
