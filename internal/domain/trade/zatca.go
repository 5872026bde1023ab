package trade

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ZATCA phase-one QR tags. Each field is written as tag (1 byte), length
// (1 byte) and the UTF-8 value.
const (
	TagSellerName   byte = 1
	TagVATNumber    byte = 2
	TagTimestamp    byte = 3
	TagInvoiceTotal byte = 4
	TagVATTotal     byte = 5
)

const maxTLVValueLen = 255

var (
	ErrTLVTruncated   = errors.New("zatca: truncated TLV data")
	ErrTLVUnknownTag  = errors.New("zatca: unknown TLV tag")
	ErrTLVMissingTag  = errors.New("zatca: missing TLV tag")
	ErrTLVValueTooBig = errors.New("zatca: TLV value longer than 255 bytes")
)

// ZatcaFields are the five values encoded in a simplified tax invoice QR code
type ZatcaFields struct {
	SellerName   string          `json:"seller_name"`
	VATNumber    string          `json:"vat_number"`
	Timestamp    time.Time       `json:"timestamp"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	VATTotal     decimal.Decimal `json:"vat_total"`
}

// Validate checks that the fields can be encoded
func (f ZatcaFields) Validate() error {
	if strings.TrimSpace(f.SellerName) == "" {
		return fmt.Errorf("zatca: seller name is required")
	}
	if strings.TrimSpace(f.VATNumber) == "" {
		return fmt.Errorf("zatca: VAT number is required")
	}
	if f.Timestamp.IsZero() {
		return fmt.Errorf("zatca: timestamp is required")
	}
	return nil
}

func (f ZatcaFields) values() [][]byte {
	return [][]byte{
		[]byte(f.SellerName),
		[]byte(f.VATNumber),
		[]byte(f.Timestamp.UTC().Format(time.RFC3339)),
		[]byte(f.InvoiceTotal.StringFixed(2)),
		[]byte(f.VATTotal.StringFixed(2)),
	}
}

// EncodeTLV encodes the fields in tag order. Timestamps are written in UTC
// with second precision and amounts with two decimals.
func EncodeTLV(f ZatcaFields) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out []byte
	for i, value := range f.values() {
		if len(value) > maxTLVValueLen {
			return nil, fmt.Errorf("%w: tag %d", ErrTLVValueTooBig, i+1)
		}
		out = append(out, byte(i+1), byte(len(value)))
		out = append(out, value...)
	}
	return out, nil
}

// DecodeTLV parses data produced by EncodeTLV
func DecodeTLV(data []byte) (ZatcaFields, error) {
	raw := make(map[byte]string, 5)
	for pos := 0; pos < len(data); {
		if pos+2 > len(data) {
			return ZatcaFields{}, ErrTLVTruncated
		}
		tag, length := data[pos], int(data[pos+1])
		pos += 2
		if pos+length > len(data) {
			return ZatcaFields{}, ErrTLVTruncated
		}
		if tag < TagSellerName || tag > TagVATTotal {
			return ZatcaFields{}, fmt.Errorf("%w: %d", ErrTLVUnknownTag, tag)
		}
		value := data[pos : pos+length]
		if !utf8.Valid(value) {
			return ZatcaFields{}, fmt.Errorf("zatca: tag %d is not valid UTF-8", tag)
		}
		raw[tag] = string(value)
		pos += length
	}

	for tag := TagSellerName; tag <= TagVATTotal; tag++ {
		if _, ok := raw[tag]; !ok {
			return ZatcaFields{}, fmt.Errorf("%w: %d", ErrTLVMissingTag, tag)
		}
	}

	ts, err := time.Parse(time.RFC3339, raw[TagTimestamp])
	if err != nil {
		return ZatcaFields{}, fmt.Errorf("zatca: invalid timestamp: %w", err)
	}
	total, err := decimal.NewFromString(raw[TagInvoiceTotal])
	if err != nil {
		return ZatcaFields{}, fmt.Errorf("zatca: invalid invoice total: %w", err)
	}
	vat, err := decimal.NewFromString(raw[TagVATTotal])
	if err != nil {
		return ZatcaFields{}, fmt.Errorf("zatca: invalid VAT total: %w", err)
	}

	return ZatcaFields{
		SellerName:   raw[TagSellerName],
		VATNumber:    raw[TagVATNumber],
		Timestamp:    ts,
		InvoiceTotal: total,
		VATTotal:     vat,
	}, nil
}

// QRCode returns the base64 TLV payload rendered into the invoice QR code
func QRCode(f ZatcaFields) (string, error) {
	data, err := EncodeTLV(f)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeQRCode reverses QRCode
func DecodeQRCode(payload string) (ZatcaFields, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return ZatcaFields{}, fmt.Errorf("zatca: invalid base64 payload: %w", err)
	}
	return DecodeTLV(data)
}

// ZatcaFieldsForInvoice builds the QR fields of an invoice issued by seller
func ZatcaFieldsForInvoice(inv *Invoice, sellerName, vatNumber string) ZatcaFields {
	return ZatcaFields{
		SellerName:   sellerName,
		VATNumber:    vatNumber,
		Timestamp:    inv.IssueDate,
		InvoiceTotal: inv.Total,
		VATTotal:     inv.TaxAmount,
	}
}
