package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth  = 40
	minHeight = 10

	headerHeight = 1
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("82"))

	sparkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	inputDialogStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)
)

// footerHeight is the status line plus the activity log.
const footerHeight = 1 + activityLines

// bodyHeight returns the rows available between header and footer.
func (m Model) bodyHeight() int {
	h := m.height
	if h < minHeight {
		h = minHeight
	}
	h -= headerHeight + footerHeight
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) bodyWidth() int {
	if m.width < minWidth {
		return minWidth
	}
	return m.width
}

func renderBorderedPanel(content string, w, h int) string {
	return renderBorderedPanelStyled(content, w, h, panelBorderStyle)
}

func renderBorderedPanelStyled(content string, w, h int, style lipgloss.Style) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return style.
		Width(w - 2).
		Height(contentH).
		Render(content)
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func (m Model) renderHeader() string {
	title := " chat-top"
	viewLabel := " [" + m.view.String() + "]"
	if m.projection.Title != "" {
		viewLabel += " " + m.projection.Title
	}
	viewLabel += " chat:" + truncateID(m.query.ChatID, 16) + " from:" + m.query.FromDate

	indicators := m.headerIndicators()
	help := m.headerHelp()

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding += lipgloss.Width(help)
		help = ""
	}
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).MaxHeight(headerHeight).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + help)
}

func (m Model) headerHelp() string {
	switch m.view {
	case ViewSummary:
		return "/:Chat  d:Date  r:Refresh  ←→:Group  Tab:Dialogues  q:Quit "
	case ViewDialogues:
		return "/:Chat  d:Date  r:Refresh  Tab:Charts  q:Quit "
	default:
		return "/:Chat  d:Date  r:Refresh  Tab:Summary  q:Quit "
	}
}

// renderFooter draws the status line and the most recent activity.
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.pending:
		status = " " + m.spinner.View() + " Loading " + m.query.ChatID + " from " + m.query.FromDate + "..."
	case m.errMsg != "":
		status = " " + errorStyle.Render("Error: "+m.errMsg)
	case m.hasResult:
		status = " " + okStyle.Render("Loaded") + dimStyle.Render(" "+m.query.ChatID+" from "+m.query.FromDate)
	default:
		status = dimStyle.Render(" Press / to enter a chat id")
	}

	lines := []string{status}
	var recent int
	if m.events != nil {
		for _, e := range m.events.Latest(activityLines) {
			line := " " + e.Timestamp.Format("15:04:05") + " " + e.Formatted
			if e.Success != nil && !*e.Success {
				line = errorStyle.Render(line)
			} else {
				line = dimStyle.Render(line)
			}
			lines = append(lines, line)
			recent++
		}
	}
	for ; recent < activityLines; recent++ {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func truncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

// scrollWindow clamps pos so that a window of size visible fits in total
// lines and returns the [start, end) range.
func scrollWindow(pos, visible, total int) (int, int) {
	startIdx := pos
	if startIdx > total-visible {
		startIdx = total - visible
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + visible
	if endIdx > total {
		endIdx = total
	}
	return startIdx, endIdx
}

func placeOverlay(x, y int, fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
