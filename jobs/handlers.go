package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/treadline/treadline/report"
)

// PDFRenderer is the slice of the report service the handlers need.
type PDFRenderer interface {
	InvoicePDF(ctx context.Context, id int64) (*report.Document, error)
}

// Mailer delivers an email with an optional attachment.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string, attachment []byte, filename string) error
}

// HandleInvoiceRender processes TaskTypeInvoiceRender tasks.
func HandleInvoiceRender(renderer PDFRenderer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InvoiceRenderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		doc, err := renderer.InvoicePDF(ctx, payload.InvoiceID)
		if err != nil {
			return fmt.Errorf("render invoice %d: %w", payload.InvoiceID, err)
		}
		logger.Info("invoice rendered",
			slog.String("job_id", payload.JobID),
			slog.Int64("invoice_id", payload.InvoiceID),
			slog.Int("bytes", len(doc.PDF)),
		)
		return nil
	}
}

// HandleInvoiceEmail processes TaskTypeInvoiceEmail tasks.
func HandleInvoiceEmail(renderer PDFRenderer, mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InvoiceEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		doc, err := renderer.InvoicePDF(ctx, payload.InvoiceID)
		if err != nil {
			return fmt.Errorf("render invoice %d: %w", payload.InvoiceID, err)
		}
		if err := mailer.Send(ctx, payload.To, payload.Subject, payload.Body, doc.PDF, doc.Filename); err != nil {
			return fmt.Errorf("email invoice %d to %s: %w", payload.InvoiceID, payload.To, err)
		}
		logger.Info("invoice emailed",
			slog.String("job_id", payload.JobID),
			slog.Int64("invoice_id", payload.InvoiceID),
			slog.String("to", payload.To),
		)
		return nil
	}
}
