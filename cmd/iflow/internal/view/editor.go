package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

// OpenEditorMsg asks the app to open the editor. An empty InvoiceID starts
// a new invoice.
type OpenEditorMsg struct {
	InvoiceID string
}

type editorState int

const (
	editorStateLoading editorState = iota
	editorStateForm
	editorStateGenerating
	editorStateDone
)

// editorFields holds the form bindings. It lives behind a pointer so the
// form keeps writing to the same values as the model is copied.
type editorFields struct {
	number      string
	date        string
	recipientID string
	accountID   string
	concept     string
	quantity    string
	price       string
	tax         string
}

type EditorModel struct {
	CommonModel
	api    API
	outDir string

	invoiceID string
	state     editorState
	data      *billing.BusinessData
	base      billing.Invoice
	fields    *editorFields
	form      *huh.Form

	status string
	err    error
}

func NewEditorModel(api API, outDir, invoiceID string) EditorModel {
	return EditorModel{
		api:       api,
		outDir:    outDir,
		invoiceID: invoiceID,
		fields:    &editorFields{},
	}
}

func (m EditorModel) Title() string {
	if m.invoiceID == "" {
		return "New Invoice"
	}

	return "Edit Invoice"
}

func (m EditorModel) ShortHelp() string {
	return "Enter/Tab: next field | Esc: back"
}

func (m EditorModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editorLoadMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		return m.startForm(msg.data)

	case generatedMsg:
		m.state = editorStateDone
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.status = fmt.Sprintf("PDF Generated: %s\nLocation: %s", msg.fileName, msg.path)

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != editorStateGenerating {
			return m, Back
		}
	}

	if m.state != editorStateForm || m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	inv, err := m.fields.invoice(m.base)
	if err != nil {
		m.err = err
		m.state = editorStateDone

		return m, nil
	}

	m.state = editorStateGenerating

	return m, m.generateCmd(inv)
}

func (m EditorModel) startForm(data *billing.BusinessData) (tea.Model, tea.Cmd) {
	now := time.Now()
	m.data = data

	if m.invoiceID == "" {
		m.base = data.NewInvoice(now)
		if len(data.Recipients) > 0 {
			m.base.RecipientID = favoritesFirst(data.Recipients)[0].ID
		}

		if len(data.Issuer.Accounts) > 0 {
			m.base.AccountID = data.Issuer.Accounts[0].ID
		}
	} else {
		inv, ok := data.FindInvoice(m.invoiceID)
		if !ok {
			m.err = fmt.Errorf("invoice %q: %w", m.invoiceID, billing.ErrNotFound)
			return m, nil
		}

		m.base = inv
	}

	m.fields.load(m.base)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Number").Value(&m.fields.number).Validate(notEmpty("number")),
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&m.fields.date).Validate(validDate),
			huh.NewSelect[string]().Title("Recipient").Options(recipientOptions(data)...).Value(&m.fields.recipientID),
			huh.NewSelect[string]().Title("Bank Account").Options(accountOptions(data)...).Value(&m.fields.accountID),
		),
		huh.NewGroup(
			huh.NewInput().Title("Concept").Value(&m.fields.concept),
			huh.NewInput().Title("Quantity").Value(&m.fields.quantity).Validate(validAmount),
			huh.NewInput().Title("Price (€)").Value(&m.fields.price).Validate(validAmount),
			huh.NewInput().Title("VAT %").Value(&m.fields.tax).Validate(validAmount),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = editorStateForm

	return m, m.form.Init()
}

func (m EditorModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(ErrorStyle.Render("Error: "+m.err.Error()) + "\n\n(Esc to back)")
	}

	switch m.state {
	case editorStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading...")
	case editorStateGenerating:
		return lipgloss.NewStyle().Padding(2).Render("Processing PDF...")
	case editorStateDone:
		return lipgloss.NewStyle().Padding(2).Render(SuccessStyle.Render(m.status) + "\n\n(Esc to back)")
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinHorizontal(lipgloss.Top,
		m.form.View(),
		panelStyle.Width(34).Render(m.totalsView()),
	))
}

// totalsView recomputes totals from whatever is currently typed.
func (m EditorModel) totalsView() string {
	inv, err := m.fields.invoice(m.base)
	if err != nil {
		return m.Title() + "\n\n" + FaintStyle.Render(err.Error())
	}

	t := billing.Calculate(inv.Items, m.data.Issuer.RetentionRate())

	return fmt.Sprintf("%s\n\nSubtotal   %12s\nI.V.A.     %12s\nI.R.P.F.   %12s\n\nTOTAL      %12s",
		m.Title(),
		FormatMoney(t.Subtotal),
		FormatMoney(t.Tax),
		"-"+FormatMoney(t.Retention),
		activeStyle(FormatMoney(t.Total)),
	)
}

func (f *editorFields) load(inv billing.Invoice) {
	f.number = inv.Number
	f.date = inv.Date
	f.recipientID = inv.RecipientID
	f.accountID = inv.AccountID
	f.concept, f.quantity, f.price, f.tax = "", "1", "0", billing.DefaultTaxRate.String()

	if len(inv.Items) > 0 {
		first := inv.Items[0]
		f.concept = first.Concept
		f.quantity = first.Quantity.String()
		f.price = first.Price.String()
		f.tax = first.TaxRate().String()
	}
}

// invoice applies the fields to base. The form edits the first line item;
// any further items are kept.
func (f *editorFields) invoice(base billing.Invoice) (billing.Invoice, error) {
	qty, err := ParseAmount(f.quantity)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("quantity %w", err)
	}

	price, err := ParseAmount(f.price)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("price %w", err)
	}

	tax, err := ParseAmount(f.tax)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("VAT %w", err)
	}

	inv := base
	inv.Number = strings.TrimSpace(f.number)
	inv.Date = strings.TrimSpace(f.date)
	inv.RecipientID = f.recipientID
	inv.AccountID = f.accountID

	first := billing.LineItem{Concept: f.concept, Quantity: qty, Price: price, Tax: &tax}
	if len(base.Items) > 0 {
		first.ID = base.Items[0].ID
	}

	inv.Items = make([]billing.LineItem, 0, max(len(base.Items), 1))
	inv.Items = append(inv.Items, first)

	if len(base.Items) > 1 {
		inv.Items = append(inv.Items, base.Items[1:]...)
	}

	return inv, nil
}

func recipientOptions(data *billing.BusinessData) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(data.Recipients)+1)
	for _, r := range favoritesFirst(data.Recipients) {
		opts = append(opts, huh.NewOption(starred(r), r.ID))
	}

	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("(no recipients)", ""))
	}

	return opts
}

func accountOptions(data *billing.BusinessData) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(data.Issuer.Accounts)+1)
	for _, a := range data.Issuer.Accounts {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", a.Name, a.IBAN), a.ID))
	}

	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("(no accounts)", ""))
	}

	return opts
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func validDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

func validAmount(s string) error {
	_, err := ParseAmount(s)
	return err
}

// Messages

type editorLoadMsg struct {
	data *billing.BusinessData
	err  error
}

func (m EditorModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		data, err := m.api.Client.Data(ctx, m.api.Token)

		return editorLoadMsg{data: data, err: err}
	}
}

type generatedMsg struct {
	fileName string
	path     string
	err      error
}

func (m EditorModel) generateCmd(inv billing.Invoice) tea.Cmd {
	api := m.api
	outDir := m.outDir

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()

		doc, err := api.Client.Generate(ctx, api.Token, inv, true)
		if err != nil {
			return generatedMsg{err: err}
		}

		path, err := doc.Save(outDir)

		return generatedMsg{fileName: doc.FileName, path: path, err: err}
	}
}
