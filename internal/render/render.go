// Package render turns an invoice and the business data it points at into a
// printable, self-contained document.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

//go:embed invoice.html.tmpl
var files embed.FS

var page = template.Must(template.ParseFS(files, "invoice.html.tmpl"))

// Party is an identity block as printed on the invoice.
type Party struct {
	Name     string
	TaxID    string
	Address  string
	Locality string
}

type Row struct {
	Index    int
	Concept  string
	Quantity string
	Price    string
	Subtotal string
	Discount string
	Total    string
}

// Totals holds display strings. Retention is already signed as a deduction.
type Totals struct {
	Subtotal      string
	Tax           string
	RetentionRate string
	Retention     string
	Total         string
}

// Document is the rendered invoice. The structured fields and HTML describe
// the same content.
type Document struct {
	Title     string
	FileName  string
	Number    string
	Date      string
	DueDate   string
	Issuer    Party
	Recipient Party
	Rows      []Row
	Totals    Totals
	Amounts   billing.Totals

	AccountName string
	IBAN        string

	HTML []byte
}

// Render builds the document for inv using the issuer, recipient and account
// found in data. Missing recipients or accounts render as empty fields.
func Render(inv *billing.Invoice, data *billing.BusinessData) (*Document, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: invoice is required", billing.ErrInvalidInput)
	}

	if data == nil {
		return nil, fmt.Errorf("%w: business data is required", billing.ErrInvalidInput)
	}

	recipient, _ := data.FindRecipient(inv.RecipientID)
	account, _ := data.FindAccount(inv.AccountID)

	issuer := data.Issuer
	retentionRate := issuer.RetentionRate()
	amounts := billing.Calculate(inv.Items, retentionRate)

	doc := &Document{
		Title:    "Factura " + inv.Number,
		FileName: FileName(inv.Number),
		Number:   inv.Number,
		Date:     inv.Date,
		DueDate:  inv.Date,
		Issuer: Party{
			Name:     issuer.Name,
			TaxID:    issuer.TaxID,
			Address:  issuer.Address,
			Locality: joinNonEmpty(issuer.PostalCode, issuer.City),
		},
		Recipient: Party{
			Name:     recipient.Name,
			TaxID:    recipient.TaxID,
			Address:  recipient.Address,
			Locality: joinNonEmpty(recipient.PostalCode, recipient.City),
		},
		Rows:    make([]Row, 0, len(inv.Items)),
		Amounts: amounts,
		Totals: Totals{
			Subtotal:      Money(amounts.Subtotal),
			Tax:           Money(amounts.Tax),
			RetentionRate: retentionRate.String(),
			Retention:     "-" + Money(amounts.Retention),
			Total:         Money(amounts.Total),
		},
		AccountName: account.Name,
		IBAN:        account.IBAN,
	}

	for i, item := range inv.Items {
		line := Money(item.Subtotal())

		doc.Rows = append(doc.Rows, Row{
			Index:    i + 1,
			Concept:  item.Concept,
			Quantity: item.Quantity.String(),
			Price:    Money(item.Price),
			Subtotal: line,
			Total:    line,
		})
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("executing invoice template: %w", err)
	}

	doc.HTML = buf.Bytes()

	return doc, nil
}

// Money formats an amount with two decimals and the euro suffix.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2) + "€"
}

// FileName is the download name for an invoice number.
func FileName(number string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}

		return r
	}, strings.TrimSpace(number))

	return "Factura_" + clean + ".pdf"
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " ")
}
