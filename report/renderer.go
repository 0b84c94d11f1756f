package report

import (
	"bytes"
	"fmt"
	"html/template"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/quotations"
)

// InvoiceDocument bundles everything the invoice template needs.
type InvoiceDocument struct {
	Invoice  *invoices.Invoice
	Customer *customers.Customer
	Vehicle  *customers.Vehicle
	Lines    []documentLine
}

// QuotationDocument bundles everything the quotation template needs.
type QuotationDocument struct {
	Quotation *quotations.Quotation
	Customer  *customers.Customer
	Vehicle   *customers.Vehicle
	Lines     []documentLine
}

// documentLine is one printable table row. Amount is re-derived by the
// pricing engine at render time; the stored line_total is a display
// cache and is not trusted on the printed document either.
type documentLine struct {
	Type        pricing.ItemType
	Description string
	Quantity    int
	UnitPrice   float64
	Amount      float64
}

func documentLines(items []pricing.LineItem) []documentLine {
	out := make([]documentLine, len(items))
	for i, it := range items {
		out[i] = documentLine{
			Type:        it.Type,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      pricing.LineTotal(it, items),
		}
	}
	return out
}

// Renderer turns documents into printable HTML for the PDF converter.
type Renderer struct {
	invoiceTmpl   *template.Template
	quotationTmpl *template.Template
	printer       *message.Printer
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	funcs := template.FuncMap{
		"money": func(v float64) string {
			return printer.Sprintf("%v", currency.Symbol(currency.CAD.Amount(v)))
		},
		"rate": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v*100)
		},
		// percent formats a raw percentage figure, as entered on a
		// percentage discount line.
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
	}

	invoiceTmpl, err := template.New("invoice").Funcs(funcs).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	quotationTmpl, err := template.New("quotation").Funcs(funcs).Parse(quotationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse quotation template: %w", err)
	}

	return &Renderer{invoiceTmpl: invoiceTmpl, quotationTmpl: quotationTmpl, printer: printer}, nil
}

// InvoiceHTML renders the invoice document.
func (r *Renderer) InvoiceHTML(doc InvoiceDocument) (string, error) {
	doc.Lines = documentLines(invoices.PricingItems(doc.Invoice.Items))
	var buf bytes.Buffer
	if err := r.invoiceTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render invoice %s: %w", doc.Invoice.Number, err)
	}
	return buf.String(), nil
}

// QuotationHTML renders the quotation document.
func (r *Renderer) QuotationHTML(doc QuotationDocument) (string, error) {
	doc.Lines = documentLines(quotations.PricingItems(doc.Quotation.Items))
	var buf bytes.Buffer
	if err := r.quotationTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render quotation %s: %w", doc.Quotation.Number, err)
	}
	return buf.String(), nil
}

const documentStyle = `
	body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; margin: 40px; }
	h1 { font-size: 20px; margin-bottom: 0; }
	.meta { color: #666; margin-bottom: 24px; }
	table { width: 100%; border-collapse: collapse; margin-top: 16px; }
	th { text-align: left; border-bottom: 2px solid #222; padding: 6px 4px; }
	td { border-bottom: 1px solid #ddd; padding: 6px 4px; }
	td.amount, th.amount { text-align: right; }
	.totals { margin-top: 16px; width: 40%; margin-left: auto; }
	.totals td { border: none; padding: 3px 4px; }
	.totals .grand td { border-top: 2px solid #222; font-weight: bold; }
`

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + documentStyle + `</style></head>
<body>
	<h1>Invoice {{.Invoice.Number}}</h1>
	<p class="meta">
		Status: {{.Invoice.Status}}<br>
		{{if .Invoice.IssuedAt}}Issued: {{.Invoice.IssuedAt.Format "January 2, 2006"}}<br>{{end}}
		Customer: {{.Customer.Name}}{{if .Customer.Phone}} &middot; {{.Customer.Phone}}{{end}}<br>
		{{if .Vehicle}}Vehicle: {{.Vehicle.Make}} {{.Vehicle.Model}} {{.Vehicle.Year}}{{if .Vehicle.Plate}} ({{.Vehicle.Plate}}){{end}}<br>{{end}}
		{{if .Invoice.PaymentMethod}}Payment: {{.Invoice.PaymentMethod}}<br>{{end}}
	</p>
	<table>
		<tr><th>Description</th><th class="amount">Qty</th><th class="amount">Unit</th><th class="amount">Amount</th></tr>
		{{range .Lines}}
		<tr>
			<td>{{.Description}}</td>
			<td class="amount">{{.Quantity}}</td>
			<td class="amount">{{if eq .Type "DISCOUNT_PERCENTAGE"}}{{percent .UnitPrice}}{{else}}{{money .UnitPrice}}{{end}}</td>
			<td class="amount">{{money .Amount}}</td>
		</tr>
		{{end}}
	</table>
	<table class="totals">
		<tr><td>Subtotal</td><td class="amount">{{money .Invoice.Subtotal}}</td></tr>
		<tr><td>GST ({{rate .Invoice.GSTRate}})</td><td class="amount">{{money .Invoice.GSTAmount}}</td></tr>
		<tr><td>PST ({{rate .Invoice.PSTRate}})</td><td class="amount">{{money .Invoice.PSTAmount}}</td></tr>
		<tr class="grand"><td>Total</td><td class="amount">{{money .Invoice.Total}}</td></tr>
	</table>
	{{if .Invoice.Notes}}<p>{{.Invoice.Notes}}</p>{{end}}
</body>
</html>`

const quotationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + documentStyle + `</style></head>
<body>
	<h1>Quotation {{.Quotation.Number}}</h1>
	<p class="meta">
		Status: {{.Quotation.Status}}<br>
		{{if .Quotation.ValidUntil}}Valid until: {{.Quotation.ValidUntil.Format "January 2, 2006"}}<br>{{end}}
		Customer: {{.Customer.Name}}{{if .Customer.Phone}} &middot; {{.Customer.Phone}}{{end}}<br>
		{{if .Vehicle}}Vehicle: {{.Vehicle.Make}} {{.Vehicle.Model}} {{.Vehicle.Year}}{{if .Vehicle.Plate}} ({{.Vehicle.Plate}}){{end}}<br>{{end}}
	</p>
	<table>
		<tr><th>Description</th><th class="amount">Qty</th><th class="amount">Unit</th><th class="amount">Amount</th></tr>
		{{range .Lines}}
		<tr>
			<td>{{.Description}}</td>
			<td class="amount">{{.Quantity}}</td>
			<td class="amount">{{if eq .Type "DISCOUNT_PERCENTAGE"}}{{percent .UnitPrice}}{{else}}{{money .UnitPrice}}{{end}}</td>
			<td class="amount">{{money .Amount}}</td>
		</tr>
		{{end}}
	</table>
	<table class="totals">
		<tr><td>Subtotal</td><td class="amount">{{money .Quotation.Subtotal}}</td></tr>
		<tr><td>GST ({{rate .Quotation.GSTRate}})</td><td class="amount">{{money .Quotation.GSTAmount}}</td></tr>
		<tr><td>PST ({{rate .Quotation.PSTRate}})</td><td class="amount">{{money .Quotation.PSTAmount}}</td></tr>
		<tr class="grand"><td>Total</td><td class="amount">{{money .Quotation.Total}}</td></tr>
	</table>
	{{if .Quotation.Notes}}<p>{{.Quotation.Notes}}</p>{{end}}
</body>
</html>`
