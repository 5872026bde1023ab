// Package printing renders invoices to PDF. An invoice is first rendered to
// HTML from an embedded html/template, including its ZATCA QR payload, and
// the HTML is printed to PDF by headless Chrome through chromedp.
package printing
