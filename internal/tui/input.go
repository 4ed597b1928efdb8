package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/chat-top/internal/fetch"
	"github.com/nixlim/chat-top/internal/state"
)

func (m Model) openInput(mode inputMode) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Reset()
	m.suggestIdx = -1
	switch mode {
	case inputChat:
		m.input.Prompt = "Chat ID: "
		m.input.Placeholder = m.query.ChatID
		m.refreshSuggestions()
	case inputDate:
		m.input.Prompt = "From date: "
		m.input.Placeholder = fetch.DateLayout
		m.input.SetValue(m.query.FromDate)
		m.input.CursorEnd()
		m.suggestions = nil
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.Reset()
	m.suggestions = nil
	m.suggestIdx = -1
}

func (m *Model) refreshSuggestions() {
	m.suggestions = state.Suggest(m.recent, m.input.Value())
	if len(m.suggestions) > maxSuggestions {
		m.suggestions = m.suggestions[:maxSuggestions]
	}
	if m.suggestIdx >= len(m.suggestions) {
		m.suggestIdx = -1
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeInput()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.submitInput()

	case m.mode == inputChat && msg.Type == tea.KeyUp:
		if len(m.suggestions) > 0 {
			if m.suggestIdx <= 0 {
				m.suggestIdx = len(m.suggestions) - 1
			} else {
				m.suggestIdx--
			}
		}
		return m, nil

	case m.mode == inputChat && msg.Type == tea.KeyDown:
		if len(m.suggestions) > 0 {
			m.suggestIdx = (m.suggestIdx + 1) % len(m.suggestions)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputChat {
		m.suggestIdx = -1
		m.refreshSuggestions()
	}
	return m, cmd
}

// submitInput applies the edited field and starts a fetch for the new
// query. An empty chat id keeps the current one.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	q := m.query
	value := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case inputChat:
		if m.suggestIdx >= 0 && m.suggestIdx < len(m.suggestions) {
			value = m.suggestions[m.suggestIdx]
		}
		if value != "" {
			q.ChatID = value
		}
	case inputDate:
		q.FromDate = value
	}
	m.closeInput()

	q, err := q.Normalize()
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	cmd := m.startFetch(q)
	return m, cmd
}

func (m Model) overlayInput(base string) string {
	var sb strings.Builder
	title := "Search chat"
	if m.mode == inputDate {
		title = "Statistics from date"
	}
	sb.WriteString(panelTitleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())

	if m.mode == inputChat {
		if len(m.suggestions) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(dimStyle.Render("Recent:"))
			for i, id := range m.suggestions {
				line := "  " + id
				if i == m.suggestIdx {
					line = selectedStyle.Render("> " + id)
				}
				sb.WriteString("\n")
				sb.WriteString(line)
			}
		}
		sb.WriteString("\n\n")
		sb.WriteString(dimStyle.Render("↑/↓: Recent  Enter: Search  Esc: Cancel"))
	} else {
		sb.WriteString("\n\n")
		sb.WriteString(dimStyle.Render("Enter: Apply  Esc: Cancel"))
	}

	dialog := inputDialogStyle.Render(sb.String())
	dialogW := lipgloss.Width(dialog)
	dialogH := lipgloss.Height(dialog)
	x := (m.width - dialogW) / 2
	y := (m.height - dialogH) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return placeOverlay(x, y, dialog, base)
}
