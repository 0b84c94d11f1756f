package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInvoiceRender renders an invoice PDF ahead of time and
	// leaves it in the report store so the first download skips the
	// Gotenberg round trip.
	TaskTypeInvoiceRender = "invoice:render"
	// TaskTypeInvoiceEmail renders an invoice PDF and emails it to the
	// customer.
	TaskTypeInvoiceEmail = "invoice:email"
)

// InvoiceRenderPayload identifies the invoice to render. JobID is a
// unique id stamped at enqueue time so retries of the same job can be
// correlated in the logs.
type InvoiceRenderPayload struct {
	JobID     string `json:"job_id"`
	InvoiceID int64  `json:"invoice_id"`
}

// NewInvoiceRenderTask constructs an Asynq task.
func NewInvoiceRenderTask(payload InvoiceRenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceRender, data), nil
}

// InvoiceEmailPayload describes an invoice email delivery.
type InvoiceEmailPayload struct {
	JobID     string `json:"job_id"`
	InvoiceID int64  `json:"invoice_id"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// NewInvoiceEmailTask constructs an Asynq task.
func NewInvoiceEmailTask(payload InvoiceEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceEmail, data), nil
}
