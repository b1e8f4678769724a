package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

type InvoicesModel struct {
	CommonModel
	api API

	table    table.Model
	invoices []billing.Invoice
	loading  bool
	err      error
}

func NewInvoicesModel(api API) InvoicesModel {
	columns := []table.Column{
		{Title: "Number", Width: 14},
		{Title: "Date", Width: 12},
		{Title: "Recipient", Width: 30},
		{Title: "Total", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return InvoicesModel{api: api, table: t, loading: true}
}

func (m InvoicesModel) Title() string { return "Invoices" }

func (m InvoicesModel) ShortHelp() string {
	return "Esc: back | Enter/e: edit | n: new | r: refresh"
}

func (m InvoicesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invoicesLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.invoices = newestFirst(msg.data.Invoices)
		m.table.SetRows(invoiceRows(msg.data, m.invoices))

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m, func() tea.Msg { return OpenEditorMsg{} }
		case "enter", "e":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.invoices) {
				return m, nil
			}

			id := m.invoices[idx].ID

			return m, func() tea.Msg { return OpenEditorMsg{InvoiceID: id} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m InvoicesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading invoices...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	if len(m.invoices) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("No invoices yet. Press n to create one.\n\n(Esc to back)")
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(tableView + "\n" + FaintStyle.Render(m.ShortHelp()))
}

func newestFirst(invoices []billing.Invoice) []billing.Invoice {
	out := make([]billing.Invoice, len(invoices))
	for i, inv := range invoices {
		out[len(invoices)-1-i] = inv
	}

	return out
}

func invoiceRows(data *billing.BusinessData, invoices []billing.Invoice) []table.Row {
	rate := data.Issuer.RetentionRate()

	rows := make([]table.Row, 0, len(invoices))
	for _, inv := range invoices {
		rec, ok := data.FindRecipient(inv.RecipientID)

		name := rec.Name
		if !ok {
			name = FaintStyle.Render("(unknown)")
		}

		rows = append(rows, table.Row{
			inv.Number,
			inv.Date,
			name,
			FormatMoney(billing.Calculate(inv.Items, rate).Total),
		})
	}

	return rows
}

// Messages

type invoicesLoadMsg struct {
	data *billing.BusinessData
	err  error
}

func (m InvoicesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		data, err := m.api.Client.Data(ctx, m.api.Token)

		return invoicesLoadMsg{data: data, err: err}
	}
}
