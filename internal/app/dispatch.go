package app

import (
	"context"
	"log/slog"

	"github.com/treadline/treadline/jobs"
)

// JobDispatcher bridges the invoice service to the background queue.
type JobDispatcher struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewJobDispatcher constructs a dispatcher over the Asynq client.
func NewJobDispatcher(client *jobs.Client, logger *slog.Logger) *JobDispatcher {
	return &JobDispatcher{client: client, logger: logger}
}

// InvoiceIssued pre-renders the invoice PDF. Failures are logged, not
// returned: issuing must not depend on the queue being up.
func (d *JobDispatcher) InvoiceIssued(ctx context.Context, invoiceID int64) {
	if _, err := d.client.EnqueueInvoiceRender(ctx, invoiceID); err != nil {
		d.logger.Warn("enqueue invoice render", slog.Int64("invoice_id", invoiceID), slog.Any("error", err))
	}
}

// EmailInvoice queues an email delivery for the invoice.
func (d *JobDispatcher) EmailInvoice(ctx context.Context, invoiceID int64, to, subject, body string) error {
	_, err := d.client.EnqueueInvoiceEmail(ctx, jobs.InvoiceEmailPayload{
		InvoiceID: invoiceID,
		To:        to,
		Subject:   subject,
		Body:      body,
	})
	return err
}
