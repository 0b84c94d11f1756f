package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/platform/cache"
	"github.com/treadline/treadline/internal/quotations"
)

// InvoiceSource is the slice of the invoice service the renderer needs.
type InvoiceSource interface {
	Get(ctx context.Context, id int64) (*invoices.Invoice, error)
}

// QuotationSource is the slice of the quotation service the renderer needs.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
}

// Document is a rendered PDF with its download filename.
type Document struct {
	Filename string
	PDF      []byte
}

// Service renders invoice and quotation PDFs. Concurrent requests for
// the same document share one render through the singleflight group,
// and finished renders are kept in the store so the background
// pre-render on issue saves the first download the Gotenberg round
// trip. Draft documents are never stored; they are still editable.
type Service struct {
	client       *Client
	renderer     *Renderer
	invoiceSrc   InvoiceSource
	quotationSrc QuotationSource
	customerRepo customers.Repository
	store        *cache.JSONCache
	group        singleflight.Group
	logger       *slog.Logger
}

func NewService(client *Client, renderer *Renderer, invoiceSrc InvoiceSource, quotationSrc QuotationSource, customerRepo customers.Repository, store *cache.JSONCache, logger *slog.Logger) *Service {
	return &Service{
		client:       client,
		renderer:     renderer,
		invoiceSrc:   invoiceSrc,
		quotationSrc: quotationSrc,
		customerRepo: customerRepo,
		store:        store,
		logger:       logger,
	}
}

// InvoicePDF renders the invoice with the given id.
func (s *Service) InvoicePDF(ctx context.Context, id int64) (*Document, error) {
	v, err, shared := s.group.Do(fmt.Sprintf("invoice:%d", id), func() (interface{}, error) {
		return s.renderInvoice(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("invoice render shared", slog.Int64("invoice_id", id))
	}
	return v.(*Document), nil
}

// QuotationPDF renders the quotation with the given id.
func (s *Service) QuotationPDF(ctx context.Context, id int64) (*Document, error) {
	v, err, _ := s.group.Do(fmt.Sprintf("quotation:%d", id), func() (interface{}, error) {
		return s.renderQuotation(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (s *Service) renderInvoice(ctx context.Context, id int64) (*Document, error) {
	invoice, err := s.invoiceSrc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// The store key carries the status so a PAID stamp re-renders once
	// instead of serving the ISSUED document forever.
	storeKey := fmt.Sprintf("invoice:%d:%s", id, invoice.Status)
	cacheable := invoice.Status != invoices.StatusDraft
	if cacheable {
		var cached Document
		found, err := s.store.Get(ctx, storeKey, &cached)
		if err != nil {
			s.logger.Warn("pdf store read", slog.Int64("invoice_id", id), slog.Any("error", err))
		} else if found {
			return &cached, nil
		}
	}

	customer, err := s.customerRepo.Get(ctx, invoice.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", invoice.CustomerID, err)
	}
	var vehicle *customers.Vehicle
	if invoice.VehicleID != nil {
		vehicle, err = s.customerRepo.GetVehicle(ctx, *invoice.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle %d: %w", *invoice.VehicleID, err)
		}
	}

	html, err := s.renderer.InvoiceHTML(InvoiceDocument{Invoice: invoice, Customer: customer, Vehicle: vehicle})
	if err != nil {
		return nil, err
	}
	pdf, err := s.client.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("convert invoice %s: %w", invoice.Number, err)
	}
	doc := &Document{Filename: documentFilename(invoice.Number), PDF: pdf}
	if cacheable {
		if err := s.store.Set(ctx, storeKey, doc); err != nil {
			s.logger.Warn("pdf store write", slog.Int64("invoice_id", id), slog.Any("error", err))
		}
	}
	return doc, nil
}

func (s *Service) renderQuotation(ctx context.Context, id int64) (*Document, error) {
	quote, err := s.quotationSrc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.Get(ctx, quote.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", quote.CustomerID, err)
	}
	var vehicle *customers.Vehicle
	if quote.VehicleID != nil {
		vehicle, err = s.customerRepo.GetVehicle(ctx, *quote.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle %d: %w", *quote.VehicleID, err)
		}
	}

	html, err := s.renderer.QuotationHTML(QuotationDocument{Quotation: quote, Customer: customer, Vehicle: vehicle})
	if err != nil {
		return nil, err
	}
	pdf, err := s.client.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("convert quotation %s: %w", quote.Number, err)
	}
	return &Document{Filename: documentFilename(quote.Number), PDF: pdf}, nil
}

// documentFilename tags the download with a short unique suffix so
// repeated renders of a draft never collide in a download folder.
func documentFilename(number string) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s.pdf", number, suffix)
}
