// Package trade builds the printable and machine-readable forms of invoices:
// the ZATCA QR payload and the PDF document.
package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/domain/trade"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// ZatcaResponse is the QR payload of an invoice with the encoded fields
type ZatcaResponse struct {
	QRCode string            `json:"qr_code"`
	Fields trade.ZatcaFields `json:"fields"`
}

// PDFDocument is a rendered invoice
type PDFDocument struct {
	Filename string
	Data     []byte
}

// DocumentService renders invoices
type DocumentService struct {
	invoices    shared.ResourceRepository[trade.Invoice]
	enterprises identity.EnterpriseRepository
	renderer    printing.PDFRenderer
	currency    string
	logger      *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	invoices shared.ResourceRepository[trade.Invoice],
	enterprises identity.EnterpriseRepository,
	renderer printing.PDFRenderer,
	currency string,
	log *zap.Logger,
) *DocumentService {
	if renderer == nil {
		renderer = printing.DisabledRenderer{}
	}
	return &DocumentService{
		invoices:    invoices,
		enterprises: enterprises,
		renderer:    renderer,
		currency:    currency,
		logger:      log,
	}
}

// Zatca returns the simplified tax invoice QR code of an invoice. The
// enterprise must have a VAT number.
func (s *DocumentService) Zatca(ctx context.Context, scope shared.Scope, invoiceID uuid.UUID) (*ZatcaResponse, error) {
	seller, invoice, err := s.load(ctx, scope, invoiceID)
	if err != nil {
		return nil, err
	}
	if !seller.CanIssueTaxInvoices() {
		return nil, shared.NewDomainError("INVALID_STATE", "Enterprise has no VAT number")
	}
	return encodeZatca(seller, invoice)
}

// PDF renders an invoice to PDF. The QR code is included when the
// enterprise has a VAT number.
func (s *DocumentService) PDF(ctx context.Context, scope shared.Scope, invoiceID uuid.UUID) (*PDFDocument, error) {
	seller, invoice, err := s.load(ctx, scope, invoiceID)
	if err != nil {
		return nil, err
	}

	doc := printing.InvoiceDocument{Seller: seller, Invoice: invoice, Currency: s.currency}
	if seller.CanIssueTaxInvoices() {
		qr, err := encodeZatca(seller, invoice)
		if err != nil {
			return nil, err
		}
		doc.QRCode = qr.QRCode
	}

	html, err := printing.RenderInvoiceHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}

	start := time.Now()
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:  html,
		Title: "Invoice " + invoice.InvoiceNumber,
	})
	if err != nil {
		var renderErr *printing.RenderError
		if errors.As(err, &renderErr) && renderErr.Code == printing.ErrCodeDisabled {
			return nil, shared.NewDomainError("INVALID_STATE", "PDF rendering is not enabled")
		}
		logger.Enrich(ctx, s.logger).Error("PDF rendering failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	logger.Enrich(ctx, s.logger).Info("Invoice PDF generated",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("bytes", len(result.PDFData)),
		zap.Duration("duration", time.Since(start)))
	return &PDFDocument{
		Filename: "invoice-" + invoice.InvoiceNumber + ".pdf",
		Data:     result.PDFData,
	}, nil
}

func (s *DocumentService) load(ctx context.Context, scope shared.Scope, invoiceID uuid.UUID) (*identity.Enterprise, *trade.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, scope, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	seller, err := s.enterprises.FindByID(ctx, scope.EnterpriseID)
	if err != nil {
		return nil, nil, err
	}
	return seller, invoice, nil
}

func encodeZatca(seller *identity.Enterprise, invoice *trade.Invoice) (*ZatcaResponse, error) {
	fields := trade.ZatcaFieldsForInvoice(invoice, seller.Name, seller.VATNumber)
	qr, err := trade.QRCode(fields)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", err.Error())
	}
	return &ZatcaResponse{QRCode: qr, Fields: fields}, nil
}
