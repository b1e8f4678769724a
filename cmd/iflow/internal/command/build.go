package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoiceflow/cmd/iflow/internal/view"
	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

const defaultConcept = "Servicios Profesionales"

var defaultPrice = decimal.NewFromInt(100)

// GenOptions are the gen flags. Empty strings mean "not given".
type GenOptions struct {
	Price     string
	Concept   string
	Number    string
	Recipient string
	Account   string
	Template  string
}

// EditOptions are the edit flags. Empty strings keep the stored value.
type EditOptions struct {
	Price   string
	Concept string
	Date    string
}

// BuildInvoice assembles a new invoice from the flags. A template supplies
// recipient, account and items; otherwise the named or first recipient and
// account are used with a single item.
func BuildInvoice(data *billing.BusinessData, opts GenOptions, now time.Time) (billing.Invoice, error) {
	number := strings.TrimSpace(opts.Number)
	if number == "" {
		number = data.NextNumber(now)
	}

	if opts.Template != "" {
		t, ok := data.FindTemplate(opts.Template)
		if !ok {
			return billing.Invoice{}, fmt.Errorf("template %q: %w", opts.Template, billing.ErrNotFound)
		}

		inv := t.Invoice(number, now)
		if opts.Recipient != "" {
			inv.RecipientID = opts.Recipient
		}

		if opts.Account != "" {
			inv.AccountID = opts.Account
		}

		if err := applyFirstItem(&inv, opts.Concept, opts.Price); err != nil {
			return billing.Invoice{}, err
		}

		return inv, nil
	}

	recipient, err := pickRecipient(data, opts.Recipient)
	if err != nil {
		return billing.Invoice{}, err
	}

	price := defaultPrice
	if opts.Price != "" {
		if price, err = parsePrice(opts.Price); err != nil {
			return billing.Invoice{}, err
		}
	}

	concept := opts.Concept
	if concept == "" {
		concept = defaultConcept
	}

	inv := data.NewInvoice(now)
	inv.Number = number
	inv.RecipientID = recipient.ID
	inv.AccountID = pickAccount(data, opts.Account)
	inv.Items[0].Concept = concept
	inv.Items[0].Price = price

	return inv, nil
}

// ApplyEdit finds the invoice by id or number and applies the flags to it.
// Price and concept change the first line item.
func ApplyEdit(data *billing.BusinessData, key string, opts EditOptions) (billing.Invoice, error) {
	inv, ok := data.FindInvoice(key)
	if !ok {
		return billing.Invoice{}, fmt.Errorf("invoice %q: %w", key, billing.ErrNotFound)
	}

	items := make([]billing.LineItem, len(inv.Items))
	copy(items, inv.Items)
	inv.Items = items

	if opts.Date != "" {
		if _, err := time.Parse(time.DateOnly, opts.Date); err != nil {
			return billing.Invoice{}, fmt.Errorf("date %q must be YYYY-MM-DD", opts.Date)
		}

		inv.Date = opts.Date
	}

	if err := applyFirstItem(&inv, opts.Concept, opts.Price); err != nil {
		return billing.Invoice{}, err
	}

	return inv, nil
}

func applyFirstItem(inv *billing.Invoice, concept, price string) error {
	if concept == "" && price == "" {
		return nil
	}

	if len(inv.Items) == 0 {
		inv.Items = []billing.LineItem{{Quantity: decimal.NewFromInt(1), Tax: new(billing.DefaultTaxRate)}}
	}

	if concept != "" {
		inv.Items[0].Concept = concept
	}

	if price != "" {
		p, err := parsePrice(price)
		if err != nil {
			return err
		}

		inv.Items[0].Price = p
	}

	return nil
}

func pickRecipient(data *billing.BusinessData, id string) (billing.Recipient, error) {
	if len(data.Recipients) == 0 {
		return billing.Recipient{}, errors.New("no recipients yet, add one first")
	}

	if id == "" {
		return data.Recipients[0], nil
	}

	r, ok := data.FindRecipient(id)
	if !ok {
		return billing.Recipient{}, fmt.Errorf("recipient %q: %w", id, billing.ErrNotFound)
	}

	return r, nil
}

func pickAccount(data *billing.BusinessData, id string) string {
	if a, ok := data.FindAccount(id); ok {
		return a.ID
	}

	if len(data.Issuer.Accounts) > 0 {
		return data.Issuer.Accounts[0].ID
	}

	return ""
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := view.ParseAmount(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %w", err)
	}

	return p, nil
}
