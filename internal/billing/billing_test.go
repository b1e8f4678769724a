package billing_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

const storedDocument = `{
	"issuer": {
		"nombre": "Ana Pérez",
		"nif": "12345678Z",
		"direccion": "Calle Mayor 1",
		"cp": "28001",
		"ciudad": "Madrid",
		"irpf": 15,
		"nextInvoiceNumber": 42,
		"accounts": [{"id": "acc-1", "name": "Main", "iban": "ES91 2100 0418 4502 0005 1332"}],
		"theme": "dark"
	},
	"recipients": [{"id": "rec-1", "name": "ACME SL", "cif": "B12345678", "address": "Gran Via 2", "isFavorite": true}],
	"templates": [{"id": "tpl-1", "name": "Monthly", "recipientId": "rec-1", "accountId": "acc-1", "concept": "Retainer", "price": 500}],
	"invoices": [{
		"id": "inv_1700000000000",
		"number": "41",
		"date": "2024-03-01",
		"recipientId": "rec-1",
		"accountId": "acc-1",
		"items": [
			{"concept": "Consulting", "quantity": 2, "price": 100, "tax": 21},
			{"id": "x", "concept": "Legacy", "quantity": "1", "price": "50.5", "taxType": "IVA", "taxValue": 10}
		]
	}]
}`

func TestBusinessData_DecodeStoredDocument(t *testing.T) {
	var data billing.BusinessData
	require.NoError(t, json.Unmarshal([]byte(storedDocument), &data))

	assert.Equal(t, "Ana Pérez", data.Issuer.Name)
	assert.Equal(t, "15", data.Issuer.RetentionRate().String())
	require.NotNil(t, data.Issuer.NextInvoiceNumber)
	assert.Equal(t, int64(42), *data.Issuer.NextInvoiceNumber)

	require.Len(t, data.Invoices, 1)
	items := data.Invoices[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "21", items[0].TaxRate().String())
	assert.Equal(t, "10", items[1].TaxRate().String())
	assert.Equal(t, "50.5", items[1].Price.String())
}

func TestBusinessData_EncodeKeepsDocumentShape(t *testing.T) {
	var data billing.BusinessData
	require.NoError(t, json.Unmarshal([]byte(storedDocument), &data))

	out, err := json.Marshal(&data)
	require.NoError(t, err)

	var again billing.BusinessData
	require.NoError(t, json.Unmarshal(out, &again))

	again2, err := json.Marshal(&again)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(again2))
	assert.Contains(t, string(out), `"quantity":2`)
	assert.Contains(t, string(out), `"irpf":15`)
}

func TestInvoice_DecodeRejectsMalformedItems(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "ItemsMissing", body: `{"id": "1"}`},
		{name: "ItemsNull", body: `{"id": "1", "items": null}`},
		{name: "ItemsObject", body: `{"id": "1", "items": {"concept": "x"}}`},
		{name: "QuantityMissing", body: `{"id": "1", "items": [{"concept": "x", "price": 1}]}`},
		{name: "PriceMissing", body: `{"id": "1", "items": [{"concept": "x", "quantity": 1}]}`},
		{name: "PriceNotNumeric", body: `{"id": "1", "items": [{"quantity": 1, "price": "ten"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := billing.DecodeInvoice([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, billing.ErrInvalidInput)
		})
	}
}

func TestInvoice_DecodeStoredIsLenient(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems int
	}{
		{name: "ItemsMissing", body: `{"id": "1"}`},
		{name: "ItemsNull", body: `{"id": "1", "items": null}`},
		{name: "PriceNull", body: `{"id": "1", "items": [{"concept": "x", "quantity": 1, "price": null}]}`, wantItems: 1},
		{name: "QuantityMissing", body: `{"id": "1", "items": [{"concept": "x", "price": 3}]}`, wantItems: 1},
		{name: "AmountsEmpty", body: `{"id": "1", "items": [{"quantity": "", "price": "", "tax": ""}]}`, wantItems: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inv billing.Invoice
			require.NoError(t, json.Unmarshal([]byte(tt.body), &inv))
			require.NotNil(t, inv.Items)
			require.Len(t, inv.Items, tt.wantItems)

			for _, item := range inv.Items {
				assert.True(t, item.Quantity.Mul(item.Price).IsZero())
				assert.Nil(t, item.Tax)
			}
		})
	}
}

func TestBusinessData_DecodeCorruptIsNotInvalidInput(t *testing.T) {
	var data billing.BusinessData
	err := json.Unmarshal([]byte(`{"invoices": [{"items": [{"price": "ten"}]}]}`), &data)
	require.Error(t, err)
	assert.NotErrorIs(t, err, billing.ErrInvalidInput)
}

func TestDecodeInvoice_Valid(t *testing.T) {
	inv, err := billing.DecodeInvoice([]byte(`{"id": "1", "items": [{"concept": "x", "quantity": "2", "price": 10.5, "note": "keep"}], "paid": true}`))
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "21", inv.Items[0].Subtotal().String())

	out, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"paid":true`)
	assert.Contains(t, string(out), `"note":"keep"`)
}

func TestBusinessData_KeepsUnknownMembers(t *testing.T) {
	doc := `{
		"issuer": {"name": "Ana", "nif": "1Z", "theme": "dark", "accounts": [{"id": "a", "name": "Main", "iban": "ES", "bank": "X"}]},
		"recipients": [{"id": "r1", "name": "ACME", "taxId": "B123", "addressText": "Calle 1"}],
		"templates": [{"id": "t", "name": "T", "price": null, "color": "red"}],
		"invoices": [{"id": "i", "items": [{"concept": "x", "quantity": 1, "price": 2, "unit": "h"}], "status": "paid"}],
		"settings": {"lang": "es"}
	}`

	var data billing.BusinessData
	require.NoError(t, json.Unmarshal([]byte(doc), &data))

	assert.Equal(t, "Ana", data.Issuer.Name)
	assert.Equal(t, "B123", data.Recipients[0].TaxID)
	assert.Nil(t, data.Templates[0].Price)

	// Edits to aliased fields reach both names on the way out.
	data.Recipients[0].TaxID = "B999"
	data.Issuer.Name = "Ana María"

	out, err := json.Marshal(&data)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, map[string]any{"lang": "es"}, got["settings"])

	issuer := got["issuer"].(map[string]any)
	assert.Equal(t, "dark", issuer["theme"])
	assert.Equal(t, "Ana María", issuer["name"])
	assert.Equal(t, "Ana María", issuer["nombre"])
	assert.Equal(t, "X", issuer["accounts"].([]any)[0].(map[string]any)["bank"])

	rec := got["recipients"].([]any)[0].(map[string]any)
	assert.Equal(t, "B999", rec["taxId"])
	assert.Equal(t, "B999", rec["cif"])
	assert.Equal(t, "Calle 1", rec["addressText"])

	assert.Equal(t, "red", got["templates"].([]any)[0].(map[string]any)["color"])

	inv := got["invoices"].([]any)[0].(map[string]any)
	assert.Equal(t, "paid", inv["status"])
	assert.Equal(t, "h", inv["items"].([]any)[0].(map[string]any)["unit"])
}

func TestBusinessData_EncodesEmptyLists(t *testing.T) {
	out, err := json.Marshal(&billing.BusinessData{})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))

	for _, key := range []string{"recipients", "templates", "invoices"} {
		assert.Equal(t, []any{}, got[key], key)
	}

	assert.Equal(t, []any{}, got["issuer"].(map[string]any)["accounts"])
}

func TestInvoice_EmptyItems(t *testing.T) {
	var inv billing.Invoice
	require.NoError(t, json.Unmarshal([]byte(`{"id": "1", "items": []}`), &inv))
	assert.NotNil(t, inv.Items)
	assert.Empty(t, inv.Items)

	out, err := json.Marshal(billing.Invoice{ID: "2"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"items":[]`)
}

func TestBusinessData_Lookups(t *testing.T) {
	var data billing.BusinessData
	require.NoError(t, json.Unmarshal([]byte(storedDocument), &data))

	r, ok := data.FindRecipient("rec-1")
	assert.True(t, ok)
	assert.Equal(t, "ACME SL", r.Name)

	_, ok = data.FindRecipient("gone")
	assert.False(t, ok)

	_, ok = data.FindAccount("gone")
	assert.False(t, ok)

	tpl, ok := data.FindTemplate("monthly")
	assert.True(t, ok)
	assert.Equal(t, "tpl-1", tpl.ID)

	inv, ok := data.FindInvoice("41")
	assert.True(t, ok)
	assert.Equal(t, "inv_1700000000000", inv.ID)
}

func TestBusinessData_Mutations(t *testing.T) {
	data := billing.Seed(billing.Owner{ID: "u1", Email: "ana@example.com"})
	assert.Equal(t, "New User", data.Issuer.Name)
	assert.Equal(t, "ana@example.com", data.Issuer.Email)

	acc := data.AddAccount(billing.Account{Name: "Main", IBAN: "ES00"})
	assert.NotEmpty(t, acc.ID)

	data.UpdateIssuer(billing.Issuer{Name: "Ana", TaxID: "1Z"})
	assert.Equal(t, "Ana", data.Issuer.Name)
	assert.Len(t, data.Issuer.Accounts, 1)

	rec := data.AddRecipient(billing.Recipient{Name: "ACME"})
	got, err := data.ToggleRecipientFavorite(rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	_, err = data.ToggleRecipientFavorite("missing")
	assert.ErrorIs(t, err, billing.ErrNotFound)

	inv := data.UpsertInvoice(billing.Invoice{Number: "1", AccountID: acc.ID})
	data.UpsertInvoice(billing.Invoice{ID: inv.ID, Number: "1b"})
	require.Len(t, data.Invoices, 1)
	assert.Equal(t, "1b", data.Invoices[0].Number)

	require.NoError(t, data.DeleteAccount(acc.ID))
	assert.Empty(t, data.Issuer.Accounts)
	assert.ErrorIs(t, data.DeleteAccount(acc.ID), billing.ErrNotFound)
}

func TestBusinessData_Numbering(t *testing.T) {
	now := time.UnixMilli(1700000012345)
	data := billing.Seed(billing.Owner{ID: "u1"})

	assert.Equal(t, "INV-2345", data.NextNumber(now))

	assert.False(t, data.AdvanceInvoiceNumber("INV-2345"))
	assert.True(t, data.AdvanceInvoiceNumber("41"))
	assert.Equal(t, "42", data.NextNumber(now))
	assert.False(t, data.AdvanceInvoiceNumber("12"))
	assert.Equal(t, "42", data.NextNumber(now))

	inv := data.NewInvoice(now)
	assert.Equal(t, "42", inv.Number)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "1", inv.Items[0].Quantity.String())
	assert.Equal(t, "21", inv.Items[0].TaxRate().String())

	require.NoError(t, data.SetInvoiceCounter(" 9 "))
	assert.Equal(t, "10", data.NextNumber(now))
	assert.ErrorIs(t, data.SetInvoiceCounter("A-9"), billing.ErrInvalidInput)
	assert.Equal(t, "10", data.NextNumber(now))
}

func TestTemplate_Invoice(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	single := billing.Template{RecipientID: "r", AccountID: "a", Concept: "Retainer", Price: new(decimal.NewFromInt(500))}
	inv := single.Invoice("7", now)
	assert.Equal(t, "2024-05-02", inv.Date)
	assert.Equal(t, "r", inv.RecipientID)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "500", inv.Items[0].Price.String())

	full := billing.Template{Items: []billing.LineItem{item("2", "10", "4"), item("1", "1", "21")}}
	inv = full.Invoice("8", now)
	assert.Len(t, inv.Items, 2)
}

func TestBusinessData_Summary(t *testing.T) {
	data := &billing.BusinessData{
		Issuer: billing.Issuer{Name: "Ana", Retention: new(decimal.NewFromInt(15))},
		Recipients: []billing.Recipient{
			{ID: "r1", IsFavorite: true},
			{ID: "r2"},
		},
		Invoices: []billing.Invoice{
			{Items: []billing.LineItem{{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100), Tax: new(decimal.NewFromInt(21))}}},
			{Items: []billing.LineItem{{Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(50)}}},
		},
	}

	s := data.Summary()

	assert.Equal(t, "Ana", s.Issuer)
	assert.Equal(t, 2, s.Recipients)
	assert.Equal(t, 1, s.Favorites)
	assert.Equal(t, 2, s.Invoices)
	// 106 + 85
	assert.Equal(t, "191.00", s.Billed.StringFixed(2))
}
