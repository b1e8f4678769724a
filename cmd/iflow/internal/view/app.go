package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenMenu screen = iota
	screenSummary
	screenInvoices
	screenRecipients
	screenEditor
)

type appModel struct {
	api    API
	outDir string

	current screen
	size    tea.WindowSizeMsg

	summaryView    SummaryModel
	invoicesView   InvoicesModel
	recipientsView RecipientsModel
	editorView     EditorModel
}

func newAppModel(api API, outDir string) appModel {
	return appModel{api: api, outDir: outDir, current: screenMenu}
}

// Run starts the interactive interface and blocks until the user quits.
func Run(api API, outDir string) error {
	_, err := tea.NewProgram(newAppModel(api, outDir), tea.WithAltScreen()).Run()
	return err
}

func (m appModel) Init() tea.Cmd {
	return nil
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.current == screenMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.current = screenSummary
				m.summaryView = NewSummaryModel(m.api)

				return m, m.open(m.summaryView.Init())
			case "2":
				m.current = screenInvoices
				m.invoicesView = NewInvoicesModel(m.api)

				return m, m.open(m.invoicesView.Init())
			case "3":
				m.current = screenRecipients
				m.recipientsView = NewRecipientsModel(m.api)

				return m, m.open(m.recipientsView.Init())
			case "4":
				return m.openEditor("")
			}

			return m, nil
		}
	case OpenEditorMsg:
		return m.openEditor(msg.InvoiceID)
	case BackMsg:
		m.current = screenMenu
		return m, nil
	}

	var (
		next tea.Model
		cmd  tea.Cmd
	)

	switch m.current {
	case screenSummary:
		next, cmd = m.summaryView.Update(msg)
		m.summaryView = next.(SummaryModel)
	case screenInvoices:
		next, cmd = m.invoicesView.Update(msg)
		m.invoicesView = next.(InvoicesModel)
	case screenRecipients:
		next, cmd = m.recipientsView.Update(msg)
		m.recipientsView = next.(RecipientsModel)
	case screenEditor:
		next, cmd = m.editorView.Update(msg)
		m.editorView = next.(EditorModel)
	}

	return m, cmd
}

func (m appModel) openEditor(invoiceID string) (tea.Model, tea.Cmd) {
	m.current = screenEditor
	m.editorView = NewEditorModel(m.api, m.outDir, invoiceID)

	return m, m.open(m.editorView.Init())
}

// open starts a screen and replays the last known terminal size to it.
func (m appModel) open(init tea.Cmd) tea.Cmd {
	if m.size.Width == 0 {
		return init
	}

	size := m.size

	return tea.Batch(init, func() tea.Msg { return size })
}

func (m appModel) View() string {
	switch m.current {
	case screenMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			titleStyle.Render("InvoiceFlow") + "\n\n" +
				"1. Summary\n" +
				"2. Invoices\n" +
				"3. Recipients\n" +
				"4. New Invoice\n\n" +
				"q. Quit",
		)
	case screenSummary:
		return m.summaryView.View()
	case screenInvoices:
		return m.invoicesView.View()
	case screenRecipients:
		return m.recipientsView.View()
	case screenEditor:
		return m.editorView.View()
	}

	return "Unknown View"
}
