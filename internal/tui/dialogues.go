package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/chat-top/internal/stats"
)

// dialogueDetailLines is the space below the table for the selected
// dialogue's first and last messages.
const dialogueDetailLines = 2

func dialogueColumns(totalW int) []table.Column {
	w := totalW - 12
	if w < 40 {
		w = 40
	}
	return []table.Column{
		{Title: "Начал", Width: w * 20 / 100},
		{Title: "Дата", Width: w * 20 / 100},
		{Title: "Закончил", Width: w * 20 / 100},
		{Title: "Дата", Width: w * 20 / 100},
		{Title: "Длительность", Width: w * 20 / 100},
	}
}

func dialogueRows(ds []stats.Dialogue) []table.Row {
	rows := make([]table.Row, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, table.Row{
			d.Start.Sender,
			d.Start.Date,
			d.End.Sender,
			d.End.Date,
			d.Duration,
		})
	}
	return rows
}

func (m *Model) resizeDialogues() {
	m.dialogues.SetColumns(dialogueColumns(m.bodyWidth()))
	m.dialogues.SetHeight(m.bodyHeight() - 3 - dialogueDetailLines)
}

func (m Model) renderDialogues() string {
	w := m.bodyWidth()
	h := m.bodyHeight()

	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render(" Диалоги"))
	sb.WriteString(dimStyle.Render(" (" + strconv.Itoa(len(m.projection.Dialogues)) + ")"))
	sb.WriteByte('\n')

	if len(m.projection.Dialogues) == 0 {
		sb.WriteString(renderBorderedPanel(dimStyle.Render("No dialogues"), w, h-1))
		return sb.String()
	}
	sb.WriteString(renderBorderedPanel(m.dialogues.View(), w, h-1-dialogueDetailLines))
	sb.WriteByte('\n')
	sb.WriteString(m.renderDialogueMessages(w))
	return sb.String()
}

// renderDialogueMessages shows the opening and closing messages of the
// selected dialogue.
func (m Model) renderDialogueMessages(w int) string {
	i := m.dialogues.Cursor()
	if i < 0 || i >= len(m.projection.Dialogues) {
		return "\n"
	}
	d := m.projection.Dialogues[i]
	line := func(label string, p stats.Participant) string {
		msg := strings.Join(strings.Fields(p.Message), " ")
		if msg == "" {
			msg = "-"
		}
		prefix := " " + label + " (" + p.Sender + "): "
		return dimStyle.Render(prefix) + valueStyle.Render(truncateRunes(msg, w-lipgloss.Width(prefix)-1))
	}
	return line("Начало", d.Start) + "\n" + line("Конец", d.End)
}
