package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

type SummaryModel struct {
	CommonModel
	api API

	summary *billing.Summary
	err     error
}

func NewSummaryModel(api API) SummaryModel {
	return SummaryModel{api: api}
}

func (m SummaryModel) Title() string     { return "Quick Summary" }
func (m SummaryModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m SummaryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadMsg:
		m.summary, m.err = msg.summary, msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.summary, m.err = nil, nil
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m SummaryModel) View() string {
	style := lipgloss.NewStyle().Padding(2)

	switch {
	case m.err != nil:
		return style.Render(ErrorStyle.Render("Error: "+m.err.Error()) + "\n\n(Esc to back)")
	case m.summary == nil:
		return style.Render("Loading summary...")
	}

	return style.Render(RenderSummary(*m.summary) + "\n\n" + FaintStyle.Render(m.ShortHelp()))
}

type summaryLoadMsg struct {
	summary *billing.Summary
	err     error
}

func (m SummaryModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		data, err := m.api.Client.Data(ctx, m.api.Token)
		if err != nil {
			return summaryLoadMsg{err: err}
		}

		s := data.Summary()

		return summaryLoadMsg{summary: &s}
	}
}
