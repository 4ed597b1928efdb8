package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/chat-top/internal/projector"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values as block characters, keeping the newest width
// values when there are more.
func sparkline(values []float64, width int) string {
	if width < 1 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := top / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		sb.WriteRune(sparkBlocks[idx])
	}
	return sb.String()
}

func (m Model) renderCharts() string {
	w := m.bodyWidth()
	h := m.bodyHeight()
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	var lines []string
	switch {
	case !m.hasResult:
		lines = append(lines, dimStyle.Render("No data loaded"))
	case !m.projection.ChartsEnabled:
		threshold := m.projector.Classification().MinContactDays
		lines = append(lines, dimStyle.Render(fmt.Sprintf(
			"Charts need at least %s days of contact (have %s)",
			m.projector.Formatter().Number(threshold),
			m.projector.Formatter().Number(m.projection.ContactDays))))
	default:
		sections := []struct {
			title  string
			series []projector.Series
		}{
			{"По неделям", m.projection.WeekPrimary},
			{"По дням", m.projection.DayPrimary},
			{"Спорные метрики", m.projection.Contested},
		}
		for _, sec := range sections {
			if len(sec.series) == 0 {
				continue
			}
			lines = append(lines, panelTitleStyle.Render(sec.title))
			lines = append(lines, m.chartLines(sec.series, w-4)...)
			lines = append(lines, "")
		}
		if len(lines) == 0 {
			lines = append(lines, dimStyle.Render("No series to chart"))
		}
	}

	startIdx, endIdx := scrollWindow(m.chartsScroll, contentH, len(lines))
	return renderBorderedPanel(strings.Join(lines[startIdx:endIdx], "\n"), w, h)
}

// chartLines renders one labelled sparkline row per series with its range
// and date span.
func (m Model) chartLines(series []projector.Series, w int) []string {
	labelW := 0
	for _, s := range series {
		if lw := lipgloss.Width(s.Label); lw > labelW {
			labelW = lw
		}
	}
	if labelW > w/3 {
		labelW = w / 3
	}

	f := m.projector.Formatter()
	var out []string
	for _, s := range series {
		values := s.Values()
		if len(values) == 0 {
			continue
		}
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		rng := fmt.Sprintf(" %s..%s", f.Number(lo), f.Number(hi))

		label := truncateRunes(s.Label, labelW)
		if pad := labelW - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}

		sparkW := w - labelW - lipgloss.Width(rng) - 2
		out = append(out, label+"  "+sparkStyle.Render(sparkline(values, sparkW))+dimStyle.Render(rng))

		span := s.Points[0].Time
		if n := len(s.Points); n > 1 {
			span += " → " + s.Points[n-1].Time
		}
		out = append(out, strings.Repeat(" ", labelW+2)+dimStyle.Render(span))
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
