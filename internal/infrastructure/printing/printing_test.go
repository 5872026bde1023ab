package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/trade"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.5", "12.50"},
		{"1234.567", "1,234.57"},
		{"1000000", "1,000,000.00"},
		{"-9876.5", "-9,876.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func sampleInvoice() *trade.Invoice {
	inv := &trade.Invoice{
		InvoiceNumber: "INV-<001>",
		IssueDate:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Status:        trade.InvoiceStatusSent,
		TaxRate:       decimal.NewFromInt(15),
		Client:        &partner.Client{Name: "Acme Trading", Email: "ap@acme.test"},
		Items: []trade.InvoiceItem{{LineItem: trade.LineItem{
			Description: "Consulting",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(1000),
		}}},
	}
	inv.Normalize()
	return inv
}

func TestRenderInvoiceHTML(t *testing.T) {
	seller, err := identity.NewEnterprise("Tanad LLC", "billing@tanad.test", "300000000000003")
	require.NoError(t, err)
	inv := sampleInvoice()

	html, err := RenderInvoiceHTML(InvoiceDocument{
		Seller:  seller,
		Invoice: inv,
		QRCode:  "AQlUYW5hZCBMTEM=",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Tax Invoice")
	assert.Contains(t, html, "INV-&lt;001&gt;", "invoice number must be escaped")
	assert.Contains(t, html, "Acme Trading")
	assert.Contains(t, html, "2,000.00 SAR")
	assert.Contains(t, html, "2,300.00 SAR")
	assert.Contains(t, html, "Status: Sent")
	assert.Contains(t, html, "2024-05-31")
	assert.Contains(t, html, `<div id="zatca-qr">AQlUYW5hZCBMTEM=</div>`)
}

func TestRenderInvoiceHTML_WithoutQRCode(t *testing.T) {
	seller, err := identity.NewEnterprise("Tanad LLC", "", "")
	require.NoError(t, err)

	html, err := RenderInvoiceHTML(InvoiceDocument{Seller: seller, Invoice: sampleInvoice(), Currency: "usd"})
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "zatca-qr"))
	assert.Contains(t, html, "USD")
}

func TestRenderInvoiceHTML_MissingData(t *testing.T) {
	_, err := RenderInvoiceHTML(InvoiceDocument{})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(config.ChromeConfig{}, nil)
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: "  "})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)
	assert.Equal(t, defaultChromeTimeout, r.timeout)
}

func TestDisabledRenderer(t *testing.T) {
	_, err := DisabledRenderer{}.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>"})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeDisabled, rerr.Code)
}
