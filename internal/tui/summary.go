package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderSummary() string {
	w := m.bodyWidth()
	h := m.bodyHeight()

	var tabs []string
	for i, g := range m.projection.Groups {
		label := fmt.Sprintf(" %s (%d) ", g.Name, len(g.Fields))
		if i == m.summaryTab {
			label = selectedStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	tabLine := strings.Join(tabs, " ")

	panelH := h - 1
	contentH := panelH - 2
	if contentH < 1 {
		contentH = 1
	}

	var lines []string
	if m.summaryTab < len(m.projection.Groups) {
		g := m.projection.Groups[m.summaryTab]
		labelW := 0
		for _, f := range g.Fields {
			if lw := lipgloss.Width(f.Label); lw > labelW {
				labelW = lw
			}
		}
		if labelW > w/2 {
			labelW = w / 2
		}
		for _, f := range g.Fields {
			label := f.Label
			if pad := labelW - lipgloss.Width(label); pad > 0 {
				label += strings.Repeat(" ", pad)
			}
			display := f.Display
			if f.Numeric {
				display = valueStyle.Render(display)
			}
			lines = append(lines, label+"  "+display)
		}
	}
	if len(lines) == 0 {
		if m.hasResult {
			lines = append(lines, dimStyle.Render("No metrics in this group"))
		} else {
			lines = append(lines, dimStyle.Render("No data loaded"))
		}
	}

	startIdx, endIdx := scrollWindow(m.summaryScroll, contentH, len(lines))
	content := strings.Join(lines[startIdx:endIdx], "\n")

	return tabLine + "\n" + renderBorderedPanel(content, w, panelH)
}
