// Package billing holds the per-user business document (issuer, recipients,
// templates, invoices) and the arithmetic that turns line items into totals.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching documents written by the web client.
	decimal.MarshalJSONWithoutQuotes = true
}

// BusinessData is the single JSON document stored per user. It is always
// read and written as a whole. Members written by other clients that are not
// modelled here are kept in Extra.
type BusinessData struct {
	Issuer     Issuer      `json:"issuer"`
	Recipients []Recipient `json:"recipients"`
	Templates  []Template  `json:"templates"`
	Invoices   []Invoice   `json:"invoices"`

	Extra Extra `json:"-"`
}

// Issuer is the business issuing the invoices.
type Issuer struct {
	Name       string `json:"nombre"`
	TaxID      string `json:"nif"`
	Address    string `json:"direccion"`
	PostalCode string `json:"cp"`
	City       string `json:"ciudad"`
	Province   string `json:"provincia,omitempty"`
	Email      string `json:"email,omitempty"`

	// Retention is the withholding percentage applied to the subtotal (IRPF).
	Retention *decimal.Decimal `json:"irpf,omitempty"`

	NextInvoiceNumber *int64    `json:"nextInvoiceNumber,omitempty"`
	Accounts          []Account `json:"accounts"`

	Extra Extra `json:"-"`
}

// RetentionRate returns the configured retention percentage, or zero.
func (i Issuer) RetentionRate() decimal.Decimal {
	if i.Retention == nil {
		return decimal.Zero
	}

	return *i.Retention
}

type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IBAN  string `json:"iban"`
	SWIFT string `json:"swift,omitempty"`

	Extra Extra `json:"-"`
}

type Recipient struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TaxID      string `json:"cif"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"cp,omitempty"`
	Province   string `json:"province,omitempty"`
	IsFavorite bool   `json:"isFavorite"`

	Extra Extra `json:"-"`
}

// Template is a reusable invoice skeleton. It carries either a full item
// list or a single default concept and price.
type Template struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	RecipientID string           `json:"recipientId"`
	AccountID   string           `json:"accountId"`
	Items       []LineItem       `json:"items,omitempty"`
	Concept     string           `json:"concept,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`

	Extra Extra `json:"-"`
}

// Invoice numbers are assigned by the caller and are not checked for
// uniqueness. Date is an ISO calendar date kept verbatim.
type Invoice struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	Date        string     `json:"date"`
	RecipientID string     `json:"recipientId"`
	AccountID   string     `json:"accountId"`
	Items       []LineItem `json:"items"`

	Extra Extra `json:"-"`
}

type LineItem struct {
	ID       string          `json:"id,omitempty"`
	Concept  string          `json:"concept"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`

	// Tax is the VAT percentage. Older documents carry it as TaxValue
	// together with a TaxType label instead.
	Tax      *decimal.Decimal `json:"tax,omitempty"`
	TaxType  string           `json:"taxType,omitempty"`
	TaxValue *decimal.Decimal `json:"taxValue,omitempty"`

	Extra Extra `json:"-"`
}

// Subtotal is quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.Price)
}

// TaxRate resolves the effective VAT percentage: Tax when set and non-zero,
// then TaxValue, then zero.
func (li LineItem) TaxRate() decimal.Decimal {
	if li.Tax != nil && !li.Tax.IsZero() {
		return *li.Tax
	}

	if li.TaxValue != nil {
		return *li.TaxValue
	}

	return decimal.Zero
}

// The decoders below read documents as stored, which may come from older
// clients: missing or null amounts are zero and a missing item list is
// empty. Request bodies go through DecodeInvoice instead.

func (d *BusinessData) UnmarshalJSON(b []byte) error {
	type plain BusinessData

	var p plain

	extra, err := decodeWithExtra(b, &p, documentKeys)
	if err != nil {
		return err
	}

	*d = BusinessData(p)
	d.Extra = extra

	return nil
}

// MarshalJSON always emits lists, never null.
func (d BusinessData) MarshalJSON() ([]byte, error) {
	type plain BusinessData

	p := plain(d)
	if p.Recipients == nil {
		p.Recipients = []Recipient{}
	}

	if p.Templates == nil {
		p.Templates = []Template{}
	}

	if p.Invoices == nil {
		p.Invoices = []Invoice{}
	}

	return encodeWithExtra(p, d.Extra)
}

func (i *Issuer) UnmarshalJSON(b []byte) error {
	type plain Issuer

	var raw struct {
		plain
		Retention         json.RawMessage `json:"irpf"`
		NextInvoiceNumber json.RawMessage `json:"nextInvoiceNumber"`
	}

	extra, err := decodeWithExtra(b, &raw, issuerKeys)
	if err != nil {
		return err
	}

	retention, err := looseRate(raw.Retention)
	if err != nil {
		return fmt.Errorf("issuer irpf: %w", err)
	}

	*i = Issuer(raw.plain)
	i.Retention = retention
	i.Extra = extra

	// A counter that is not a whole number is treated as unset.
	if next, err := looseRate(raw.NextInvoiceNumber); err == nil && next != nil && next.IsInteger() {
		i.NextInvoiceNumber = new(next.IntPart())
	}

	if i.Name == "" {
		i.Name = extra.aliasString("name")
	}

	return nil
}

func (i Issuer) MarshalJSON() ([]byte, error) {
	type plain Issuer

	p := plain(i)
	if p.Accounts == nil {
		p.Accounts = []Account{}
	}

	return encodeWithExtra(p, i.Extra.with("name", i.Name))
}

func (a *Account) UnmarshalJSON(b []byte) error {
	type plain Account

	var p plain

	extra, err := decodeWithExtra(b, &p, accountKeys)
	if err != nil {
		return err
	}

	*a = Account(p)
	a.Extra = extra

	return nil
}

func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	return encodeWithExtra(plain(a), a.Extra)
}

// UnmarshalJSON accepts taxId, used by some clients, when cif is absent.
func (r *Recipient) UnmarshalJSON(b []byte) error {
	type plain Recipient

	var p plain

	extra, err := decodeWithExtra(b, &p, recipientKeys)
	if err != nil {
		return err
	}

	*r = Recipient(p)
	r.Extra = extra

	if r.TaxID == "" {
		r.TaxID = extra.aliasString("taxId")
	}

	return nil
}

func (r Recipient) MarshalJSON() ([]byte, error) {
	type plain Recipient
	return encodeWithExtra(plain(r), r.Extra.with("taxId", r.TaxID))
}

func (t *Template) UnmarshalJSON(b []byte) error {
	type plain Template

	var raw struct {
		plain
		Price json.RawMessage `json:"price"`
	}

	extra, err := decodeWithExtra(b, &raw, templateKeys)
	if err != nil {
		return err
	}

	price, err := looseRate(raw.Price)
	if err != nil {
		return fmt.Errorf("template price: %w", err)
	}

	*t = Template(raw.plain)
	t.Price = price
	t.Extra = extra

	return nil
}

func (t Template) MarshalJSON() ([]byte, error) {
	type plain Template
	return encodeWithExtra(plain(t), t.Extra)
}

func (inv *Invoice) UnmarshalJSON(b []byte) error {
	type plain Invoice

	var p plain

	extra, err := decodeWithExtra(b, &p, invoiceKeys)
	if err != nil {
		return err
	}

	*inv = Invoice(p)
	inv.Extra = extra

	if inv.Items == nil {
		inv.Items = []LineItem{}
	}

	return nil
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice

	p := plain(inv)
	if p.Items == nil {
		p.Items = []LineItem{}
	}

	return encodeWithExtra(p, inv.Extra)
}

func (li *LineItem) UnmarshalJSON(b []byte) error {
	type plain LineItem

	var raw struct {
		plain
		Quantity json.RawMessage `json:"quantity"`
		Price    json.RawMessage `json:"price"`
		Tax      json.RawMessage `json:"tax"`
		TaxValue json.RawMessage `json:"taxValue"`
	}

	extra, err := decodeWithExtra(b, &raw, lineItemKeys)
	if err != nil {
		return err
	}

	*li = LineItem(raw.plain)
	li.Extra = extra

	if li.Quantity, err = looseDecimal(raw.Quantity); err != nil {
		return fmt.Errorf("line item quantity: %w", err)
	}

	if li.Price, err = looseDecimal(raw.Price); err != nil {
		return fmt.Errorf("line item price: %w", err)
	}

	if li.Tax, err = looseRate(raw.Tax); err != nil {
		return fmt.Errorf("line item tax: %w", err)
	}

	if li.TaxValue, err = looseRate(raw.TaxValue); err != nil {
		return fmt.Errorf("line item taxValue: %w", err)
	}

	return nil
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	return encodeWithExtra(plain(li), li.Extra)
}

// DecodeInvoice decodes an invoice sent by a client. Unlike a stored
// document, it must carry an items list and every item needs a quantity
// and a price.
func DecodeInvoice(b []byte) (Invoice, error) {
	var shape struct {
		Items *[]map[string]json.RawMessage `json:"items"`
	}

	if err := json.Unmarshal(b, &shape); err != nil {
		return Invoice{}, invalid(err)
	}

	if shape.Items == nil {
		return Invoice{}, fmt.Errorf("%w: invoice items must be a list", ErrInvalidInput)
	}

	for i, item := range *shape.Items {
		for _, field := range []string{"quantity", "price"} {
			if isNull(item[field]) {
				return Invoice{}, fmt.Errorf("%w: line item %d: %s is required", ErrInvalidInput, i+1, field)
			}
		}
	}

	var inv Invoice
	if err := json.Unmarshal(b, &inv); err != nil {
		return Invoice{}, invalid(err)
	}

	return inv, nil
}

func invalid(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
