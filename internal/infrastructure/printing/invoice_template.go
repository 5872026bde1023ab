package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/trade"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var invoiceTemplate = template.Must(
	template.New("invoice.html").Funcs(template.FuncMap{
		"money": formatMoney,
		"date":  formatDate,
		"title": titleCase,
	}).ParseFS(templateFS, "templates/invoice.html"),
)

// InvoiceDocument is the data printed on an invoice
type InvoiceDocument struct {
	Seller   *identity.Enterprise
	Invoice  *trade.Invoice
	Currency string
	// QRCode is the base64 ZATCA payload; empty when the seller has no VAT number
	QRCode string
}

// RenderInvoiceHTML renders the invoice page
func RenderInvoiceHTML(doc InvoiceDocument) (string, error) {
	if doc.Seller == nil || doc.Invoice == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "seller and invoice are required", nil)
	}
	if doc.Currency == "" {
		doc.Currency = "SAR"
	}
	doc.Currency = strings.ToUpper(doc.Currency)

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return buf.String(), nil
}

// formatMoney formats with thousand separators and two decimals, e.g. 1,234.50
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + decPart
}

// titleCase builds a Caser per call; a Caser is not safe for concurrent use
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
