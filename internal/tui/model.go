package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/config"
	"github.com/nixlim/chat-top/internal/events"
	"github.com/nixlim/chat-top/internal/fetch"
	"github.com/nixlim/chat-top/internal/projector"
	"github.com/nixlim/chat-top/internal/state"
	"github.com/nixlim/chat-top/internal/stats"
)

type ViewState int

const (
	ViewSummary ViewState = iota
	ViewDialogues
	ViewCharts
)

func (v ViewState) String() string {
	switch v {
	case ViewDialogues:
		return "Dialogues"
	case ViewCharts:
		return "Charts"
	default:
		return "Summary"
	}
}

type inputMode int

const (
	inputNone inputMode = iota
	inputChat
	inputDate
)

const (
	refreshRate    = time.Second
	activityLines  = 3
	maxSuggestions = 5
)

type tickMsg time.Time

// fetchResultMsg carries the outcome of one fetch together with the query
// it was issued for.
type fetchResultMsg struct {
	query fetch.Query
	rec   *stats.Record
	err   error
}

type recentMsg struct {
	ids []string
	err error
}

type Fetcher interface {
	Fetch(ctx context.Context, q fetch.Query) (*stats.Record, error)
	Invalidate(q fetch.Query)
}

type EventProvider interface {
	Latest(n int) []events.FormattedEvent
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config

	fetcher   Fetcher
	store     state.Store
	projector *projector.Projector
	events    EventProvider

	query      fetch.Query
	pending    bool
	hasResult  bool
	projection projector.Projection
	errMsg     string

	recent []string

	input       textinput.Model
	mode        inputMode
	suggestions []string
	suggestIdx  int

	spinner   spinner.Model
	dialogues table.Model

	summaryTab    int
	summaryScroll int
	chartsScroll  int

	isPersistent bool

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = spinnerStyle

	m := Model{
		view:    ViewSummary,
		keys:    DefaultKeyMap(),
		cfg:     cfg,
		input:   ti,
		spinner: sp,
		query: fetch.Query{
			ChatID:   cfg.Display.DefaultChatID,
			FromDate: cfg.Display.DefaultFromDate,
		},
		dialogues: table.New(
			table.WithColumns(dialogueColumns(80)),
			table.WithFocused(true),
		),
	}

	for _, opt := range opts {
		opt(&m)
	}

	if m.projector == nil {
		m.projector = projector.New(projector.DefaultClassification())
	}
	m.projection = m.projector.Project(nil)

	if m.fetcher != nil {
		if _, err := m.query.Normalize(); err == nil {
			m.pending = true
		}
	}

	return m
}

type ModelOption func(*Model)

func WithFetcher(f Fetcher) ModelOption {
	return func(m *Model) { m.fetcher = f }
}

func WithStore(s state.Store) ModelOption {
	return func(m *Model) { m.store = s }
}

func WithProjector(p *projector.Projector) ModelOption {
	return func(m *Model) { m.projector = p }
}

func WithEventProvider(e EventProvider) ModelOption {
	return func(m *Model) { m.events = e }
}

// WithInitialQuery overrides the configured default chat id and date.
// Empty fields keep the defaults.
func WithInitialQuery(q fetch.Query) ModelOption {
	return func(m *Model) {
		if q.ChatID != "" {
			m.query.ChatID = q.ChatID
		}
		if q.FromDate != "" {
			m.query.FromDate = q.FromDate
		}
	}
}

func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd(), m.loadRecentCmd()}
	if m.pending {
		cmds = append(cmds, m.fetchCmd(m.query), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchCmd(q fetch.Query) tea.Cmd {
	f := m.fetcher
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		rec, err := f.Fetch(context.Background(), q)
		return fetchResultMsg{query: q, rec: rec, err: err}
	}
}

func (m Model) loadRecentCmd() tea.Cmd {
	s := m.store
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ids, err := s.Load()
		return recentMsg{ids: state.Dedupe(ids), err: err}
	}
}

func (m Model) rememberCmd(id string) tea.Cmd {
	s := m.store
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ids, err := state.Remember(s, id)
		return recentMsg{ids: ids, err: err}
	}
}

// startFetch makes q the current query and requests it.
func (m *Model) startFetch(q fetch.Query) tea.Cmd {
	wasPending := m.pending
	m.query = q
	m.errMsg = ""
	if m.fetcher == nil {
		return nil
	}
	m.pending = true
	if wasPending {
		return m.fetchCmd(q)
	}
	return tea.Batch(m.fetchCmd(q), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeDialogues()
		return m, nil

	case tickMsg:
		return m, m.tickCmd()

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchResultMsg:
		return m.handleFetchResult(msg)

	case recentMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("recent chat ids unavailable")
			return m, nil
		}
		m.recent = msg.ids
		if m.mode == inputChat {
			m.refreshSuggestions()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleFetchResult(msg fetchResultMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		log.Debug().
			Str("chat_id", msg.query.ChatID).
			Str("from_date", msg.query.FromDate).
			Msg("dropping result for superseded query")
		return m, nil
	}

	m.pending = false
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		m.hasResult = false
		m.projection = m.projector.Project(nil)
		m.dialogues.SetRows(nil)
		return m, nil
	}

	m.errMsg = ""
	m.hasResult = true
	m.projection = m.projector.Project(msg.rec)
	m.dialogues.SetRows(dialogueRows(m.projection.Dialogues))
	m.dialogues.GotoTop()
	if m.summaryTab >= len(m.projection.Groups) {
		m.summaryTab = 0
	}
	m.summaryScroll = 0
	m.chartsScroll = 0
	return m, m.rememberCmd(msg.query.ChatID)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != inputNone {
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Tab):
		m.view = (m.view + 1) % 3
		return m, nil

	case key.Matches(msg, m.keys.Search):
		return m.openInput(inputChat)

	case key.Matches(msg, m.keys.Date):
		return m.openInput(inputDate)

	case key.Matches(msg, m.keys.Refresh):
		if m.fetcher == nil {
			return m, nil
		}
		q, err := m.query.Normalize()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.fetcher.Invalidate(q)
		cmd := m.startFetch(m.query)
		return m, cmd
	}

	switch m.view {
	case ViewSummary:
		return m.handleSummaryKey(msg)
	case ViewDialogues:
		var cmd tea.Cmd
		m.dialogues, cmd = m.dialogues.Update(msg)
		return m, cmd
	case ViewCharts:
		return m.handleChartsKey(msg)
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.onShutdown != nil {
		m.onShutdown()
	}
	return m, tea.Quit
}

func (m Model) handleSummaryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.projection.Groups)
	switch {
	case key.Matches(msg, m.keys.Left):
		if n > 0 {
			m.summaryTab = (m.summaryTab + n - 1) % n
			m.summaryScroll = 0
		}
	case key.Matches(msg, m.keys.Right):
		if n > 0 {
			m.summaryTab = (m.summaryTab + 1) % n
			m.summaryScroll = 0
		}
	case key.Matches(msg, m.keys.Up):
		if m.summaryScroll > 0 {
			m.summaryScroll--
		}
	case key.Matches(msg, m.keys.Down):
		m.summaryScroll++
	}
	return m, nil
}

func (m Model) handleChartsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.chartsScroll > 0 {
			m.chartsScroll--
		}
	case key.Matches(msg, m.keys.Down):
		m.chartsScroll++
	}
	return m, nil
}

func (m Model) headerIndicators() string {
	var parts []string
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if m.pending {
		parts = append(parts, "[Loading]")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var body string
	switch m.view {
	case ViewSummary:
		body = m.renderSummary()
	case ViewDialogues:
		body = m.renderDialogues()
	case ViewCharts:
		body = m.renderCharts()
	}

	output := m.renderHeader() + "\n" + body + "\n" + m.renderFooter()

	if m.mode != inputNone {
		output = m.overlayInput(output)
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
