package view

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

// recipientItem wraps a recipient to implement list.Item.
type recipientItem struct {
	r billing.Recipient
}

func (i recipientItem) Title() string { return starred(i.r) }

func (i recipientItem) Description() string {
	parts := make([]string, 0, 2)
	if i.r.TaxID != "" {
		parts = append(parts, i.r.TaxID)
	}

	if loc := strings.TrimSpace(i.r.PostalCode + " " + i.r.City); loc != "" {
		parts = append(parts, loc)
	}

	return strings.Join(parts, " | ")
}

func (i recipientItem) FilterValue() string { return i.r.Name + " " + i.r.TaxID }

type RecipientsModel struct {
	CommonModel
	api API

	list    list.Model
	loading bool
	status  string
}

func NewRecipientsModel(api API) RecipientsModel {
	l := list.New([]list.Item{}, recipientDelegate{}, 60, 20)
	l.Title = "Recipients"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return RecipientsModel{api: api, list: l, loading: true}
}

func (m RecipientsModel) Title() string { return "Recipients" }

func (m RecipientsModel) ShortHelp() string {
	return "Esc: back | f: toggle favorite | /: filter | r: refresh"
}

func (m RecipientsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RecipientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recipientsLoadMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.setItems(msg.recipients)

		if len(msg.recipients) == 0 {
			m.status = "No recipients yet."
		}

		return m, nil

	case favoriteMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = ""

		items := m.list.Items()
		for i, it := range items {
			if ri, ok := it.(recipientItem); ok && ri.r.ID == msg.recipient.ID {
				return m, m.list.SetItem(i, recipientItem{r: msg.recipient})
			}
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(max(msg.Width-4, 20), max(msg.Height-8, 6))
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "f":
			if sel, ok := m.list.SelectedItem().(recipientItem); ok {
				return m, m.toggleCmd(sel.r.ID)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m RecipientsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading recipients...")
	}

	statusLine := ""
	if m.status != "" {
		statusLine = FaintStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View() + "\n" + FaintStyle.Render(m.ShortHelp()))
}

func (m *RecipientsModel) setItems(recipients []billing.Recipient) {
	sorted := favoritesFirst(recipients)

	items := make([]list.Item, len(sorted))
	for i, r := range sorted {
		items[i] = recipientItem{r: r}
	}

	m.list.SetItems(items)
}

// favoritesFirst orders favorites before the rest, keeping stored order
// within each group.
func favoritesFirst(recipients []billing.Recipient) []billing.Recipient {
	sorted := slices.Clone(recipients)
	slices.SortStableFunc(sorted, func(a, b billing.Recipient) int {
		switch {
		case a.IsFavorite == b.IsFavorite:
			return 0
		case a.IsFavorite:
			return -1
		default:
			return 1
		}
	})

	return sorted
}

func starred(r billing.Recipient) string {
	if r.IsFavorite {
		return "★ " + r.Name
	}

	return "  " + r.Name
}

// Messages

type recipientsLoadMsg struct {
	recipients []billing.Recipient
	err        error
}

func (m RecipientsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		data, err := m.api.Client.Data(ctx, m.api.Token)
		if err != nil {
			return recipientsLoadMsg{err: err}
		}

		return recipientsLoadMsg{recipients: data.Recipients}
	}
}

type favoriteMsg struct {
	recipient billing.Recipient
	err       error
}

func (m RecipientsModel) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		r, err := m.api.Client.ToggleFavorite(ctx, m.api.Token, id)
		if err != nil {
			return favoriteMsg{err: err}
		}

		return favoriteMsg{recipient: *r}
	}
}

// recipientDelegate renders items in the list.
type recipientDelegate struct{}

func (d recipientDelegate) Height() int                             { return 2 }
func (d recipientDelegate) Spacing() int                            { return 0 }
func (d recipientDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d recipientDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(recipientItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n    %s", title, FaintStyle.Render(i.Description()))
}
