package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the VAT percentage given to freshly created line items.
var DefaultTaxRate = decimal.NewFromInt(21)

// Owner identifies the user a document belongs to and seeds new documents.
type Owner struct {
	ID          string
	Email       string
	DisplayName string
}

// Seed builds the document handed to a user on their first fetch.
func Seed(owner Owner) *BusinessData {
	name := owner.DisplayName
	if name == "" {
		name = "New User"
	}

	return &BusinessData{
		Issuer: Issuer{
			Name:     name,
			Email:    owner.Email,
			Accounts: []Account{},
		},
		Recipients: []Recipient{},
		Templates:  []Template{},
		Invoices:   []Invoice{},
	}
}

func (d *BusinessData) FindRecipient(id string) (Recipient, bool) {
	for _, r := range d.Recipients {
		if r.ID == id {
			return r, true
		}
	}

	return Recipient{}, false
}

func (d *BusinessData) FindAccount(id string) (Account, bool) {
	for _, a := range d.Issuer.Accounts {
		if a.ID == id {
			return a, true
		}
	}

	return Account{}, false
}

// FindTemplate matches by id first, then by name.
func (d *BusinessData) FindTemplate(key string) (Template, bool) {
	for _, t := range d.Templates {
		if t.ID == key {
			return t, true
		}
	}

	for _, t := range d.Templates {
		if strings.EqualFold(t.Name, key) {
			return t, true
		}
	}

	return Template{}, false
}

// FindInvoice matches by id first, then by number. Numbers are not unique;
// the most recent invoice carrying the number wins.
func (d *BusinessData) FindInvoice(key string) (Invoice, bool) {
	for _, inv := range d.Invoices {
		if inv.ID == key {
			return inv, true
		}
	}

	for i := len(d.Invoices) - 1; i >= 0; i-- {
		if d.Invoices[i].Number == key {
			return d.Invoices[i], true
		}
	}

	return Invoice{}, false
}

// UpdateIssuer replaces the issuer profile. Accounts and the invoice counter
// are kept.
func (d *BusinessData) UpdateIssuer(profile Issuer) {
	profile.Accounts = d.Issuer.Accounts
	profile.NextInvoiceNumber = d.Issuer.NextInvoiceNumber
	d.Issuer = profile
}

func (d *BusinessData) AddRecipient(r Recipient) Recipient {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	d.Recipients = append(d.Recipients, r)

	return r
}

func (d *BusinessData) ToggleRecipientFavorite(id string) (Recipient, error) {
	for i := range d.Recipients {
		if d.Recipients[i].ID == id {
			d.Recipients[i].IsFavorite = !d.Recipients[i].IsFavorite
			return d.Recipients[i], nil
		}
	}

	return Recipient{}, fmt.Errorf("recipient %q: %w", id, ErrNotFound)
}

func (d *BusinessData) AddAccount(a Account) Account {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	d.Issuer.Accounts = append(d.Issuer.Accounts, a)

	return a
}

// DeleteAccount removes the account. Invoices and templates that reference
// it are left untouched.
func (d *BusinessData) DeleteAccount(id string) error {
	for i, a := range d.Issuer.Accounts {
		if a.ID == id {
			d.Issuer.Accounts = append(d.Issuer.Accounts[:i:i], d.Issuer.Accounts[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("account %q: %w", id, ErrNotFound)
}

func (d *BusinessData) AddTemplate(t Template) Template {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	d.Templates = append(d.Templates, t)

	return t
}

// UpsertInvoice replaces the invoice with the same id, or appends it.
func (d *BusinessData) UpsertInvoice(inv Invoice) Invoice {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	for i := range d.Invoices {
		if d.Invoices[i].ID == inv.ID {
			d.Invoices[i] = inv
			return inv
		}
	}

	d.Invoices = append(d.Invoices, inv)

	return inv
}

// AdvanceInvoiceNumber moves the issuer counter past number when number is
// an integer at or beyond the counter. It reports whether the counter moved.
func (d *BusinessData) AdvanceInvoiceNumber(number string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return false
	}

	if next := d.Issuer.NextInvoiceNumber; next != nil && n < *next {
		return false
	}

	d.Issuer.NextInvoiceNumber = new(n + 1)

	return true
}

// SetInvoiceCounter stores number+1 as the next invoice number, moving the
// counter in either direction.
func (d *BusinessData) SetInvoiceCounter(number string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invoice number %q is not numeric", ErrInvalidInput, number)
	}

	d.Issuer.NextInvoiceNumber = new(n + 1)

	return nil
}

// NextNumber proposes a number for a new invoice.
func (d *BusinessData) NextNumber(now time.Time) string {
	if d.Issuer.NextInvoiceNumber != nil {
		return strconv.FormatInt(*d.Issuer.NextInvoiceNumber, 10)
	}

	ms := strconv.FormatInt(now.UnixMilli(), 10)

	return "INV-" + ms[len(ms)-4:]
}

// NewInvoice returns a blank invoice dated now with a single default item.
func (d *BusinessData) NewInvoice(now time.Time) Invoice {
	return Invoice{
		ID:     uuid.NewString(),
		Number: d.NextNumber(now),
		Date:   now.Format(time.DateOnly),
		Items: []LineItem{{
			Concept:  "",
			Quantity: decimal.NewFromInt(1),
			Price:    decimal.Zero,
			Tax:      new(DefaultTaxRate),
		}},
	}
}

// Invoice expands the template into a new invoice.
func (t Template) Invoice(number string, now time.Time) Invoice {
	inv := Invoice{
		ID:          uuid.NewString(),
		Number:      number,
		Date:        now.Format(time.DateOnly),
		RecipientID: t.RecipientID,
		AccountID:   t.AccountID,
	}

	if len(t.Items) > 0 {
		inv.Items = make([]LineItem, len(t.Items))
		copy(inv.Items, t.Items)

		return inv
	}

	price := decimal.Zero
	if t.Price != nil {
		price = *t.Price
	}

	inv.Items = []LineItem{{
		Concept:  t.Concept,
		Quantity: decimal.NewFromInt(1),
		Price:    price,
		Tax:      new(DefaultTaxRate),
	}}

	return inv
}

// Summary is an overview of a document.
type Summary struct {
	Issuer     string
	Recipients int
	Favorites  int
	Templates  int
	Invoices   int
	// Billed is the sum of every invoice total.
	Billed decimal.Decimal
}

func (d *BusinessData) Summary() Summary {
	s := Summary{
		Issuer:     d.Issuer.Name,
		Recipients: len(d.Recipients),
		Templates:  len(d.Templates),
		Invoices:   len(d.Invoices),
	}

	for _, r := range d.Recipients {
		if r.IsFavorite {
			s.Favorites++
		}
	}

	rate := d.Issuer.RetentionRate()
	for _, inv := range d.Invoices {
		s.Billed = s.Billed.Add(Calculate(inv.Items, rate).Total)
	}

	return s
}
