package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/config"
	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/panel"
	"github.com/five82/atmbitbit/internal/prefs"
	"github.com/five82/atmbitbit/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewTable View = iota
	ViewLogs
)

const (
	uiTick   = time.Second
	toastTTL = 6 * time.Second
)

// Options configures the UI.
type Options struct {
	Context  context.Context
	Store    *state.Store
	Poller   *state.Poller
	Form     *panel.Form
	Deleter  *panel.Deleter
	Exporter *panel.Exporter

	FiatCurrencies        config.Catalog
	ExchangeRateProviders config.Catalog

	LogPath   string
	PrefsPath string
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	poller     *state.Poller
	form       *panel.Form
	deleter    *panel.Deleter
	exporter   *panel.Exporter
	currencies config.Catalog
	providers  config.Catalog
	logPath    string
	prefsPath  string
	keys       keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Data state
	records     []state.Record
	status      state.Status
	selectedID  string
	selectedRow int
	refreshing  bool

	// Toast line under the table
	toast      string
	toastError bool
	toastAt    time.Time

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	currencies := opts.FiatCurrencies
	if len(currencies) == 0 {
		currencies = config.DefaultFiatCurrencies
	}
	providers := opts.ExchangeRateProviders
	if len(providers) == 0 {
		providers = config.DefaultExchangeRateProviders
	}

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		poller:      opts.Poller,
		form:        opts.Form,
		deleter:     opts.Deleter,
		exporter:    opts.Exporter,
		currencies:  currencies,
		providers:   providers,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewTable,
		logState:    logState{follow: true},
	}
	m.syncRecords()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(uiTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case refreshedMsg:
		m.syncRecords()
		if msg.err != nil {
			m.setToast("Refresh failed, polling stopped: "+msg.err.Error(), true)
		}
		return m, nil

	case manualRefreshMsg:
		m.refreshing = false
		m.syncRecords()
		if msg.err != nil {
			m.setToast("Refresh failed: "+msg.err.Error(), true)
		} else {
			m.setToast(fmt.Sprintf("Loaded %d terminals", len(m.records)), false)
		}
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case deleteDoneMsg:
		return m.handleDeleteDone(msg)

	case exportDoneMsg:
		if msg.err != nil {
			m.setToast("Export failed: "+msg.err.Error(), true)
		} else {
			m.setToast("Exported "+msg.id+" to "+msg.location, false)
		}
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	// Cursor blink and other input messages go to the open modal.
	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		m.modal = modal
		if closed {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		m.modal = modal
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		if _, err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			log.Warn().Err(err).Str("path", m.prefsPath).Msg("save theme preference failed")
		}
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = ViewTable
			return m, nil
		}
		m.currentView = ViewLogs
		return m, fetchLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewTable
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

// handleTableKey processes keyboard input for the terminal table.
func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing || m.store == nil {
			return m, nil
		}
		m.refreshing = true
		return m, refreshCmd(m.ctx, m.store)

	case key.Matches(msg, m.keys.New):
		if m.form == nil {
			return m, nil
		}
		m.form.OpenForCreate()
		m.modal = newFormModal(m.ctx, m.form, m.currencies, m.providers, m.wallets())
		return m, nil
	}

	count := len(m.records)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1

	case key.Matches(msg, m.keys.Edit):
		if m.form == nil {
			return m, nil
		}
		id := m.selectedID
		if err := m.form.OpenForEdit(id); err != nil {
			m.setToast(err.Error(), true)
			return m, nil
		}
		m.modal = newFormModal(m.ctx, m.form, m.currencies, m.providers, m.wallets())
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.deleter == nil {
			return m, nil
		}
		prompt, err := m.deleter.Prompt(m.selectedID)
		if err != nil {
			m.setToast(err.Error(), true)
			return m, nil
		}
		m.modal = newConfirmModal(m.ctx, m.deleter, m.selectedID, prompt)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if m.exporter == nil {
			return m, nil
		}
		return m, exportCmd(m.exporter, m.selectedID)
	}

	m.selectedID = m.records[m.selectedRow].ID()
	return m, nil
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if fm, ok := m.modal.(*formModal); ok {
		fm.busy = false
	}
	m.form.Finish(msg.err)
	m.syncRecords()

	if msg.err != nil {
		// The dialog stays open with the draft; its view shows the error.
		if m.modal == nil {
			m.setToast("Save failed: "+msg.err.Error(), true)
		}
		return m, nil
	}

	m.modal = nil
	m.selectID(msg.fields.ID)
	verb := "Created"
	if msg.op == "update" {
		verb = "Updated"
	}
	m.setToast(fmt.Sprintf("%s %q", verb, msg.fields.Name), false)
	return m, nil
}

func (m Model) handleDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	m.modal = nil
	m.syncRecords()
	if msg.err != nil {
		m.setToast("Delete failed: "+msg.err.Error(), true)
		return m, nil
	}
	m.setToast("Deleted "+msg.id, false)
	return m, nil
}

// handleTick refreshes derived state and follows the log file.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(uiTick)}

	if m.modal == nil {
		m.syncRecords()
	}
	if m.toast != "" && now.Sub(m.toastAt) > toastTTL {
		m.toast = ""
	}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, fetchLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// syncRecords copies the store's sorted view and keeps the selection on the
// same terminal id when it survives.
func (m *Model) syncRecords() {
	if m.store == nil {
		return
	}
	m.records = m.store.SortedView()
	m.status = m.store.Status()
	m.selectID(m.selectedID)
}

func (m *Model) selectID(id string) {
	if len(m.records) == 0 {
		m.selectedRow = 0
		m.selectedID = ""
		return
	}
	for i, rec := range m.records {
		if rec.ID() == id {
			m.selectedRow = i
			m.selectedID = id
			return
		}
	}
	m.selectedRow = min(max(m.selectedRow, 0), len(m.records)-1)
	m.selectedID = m.records[m.selectedRow].ID()
}

func (m *Model) setToast(text string, isError bool) {
	m.toast = text
	m.toastError = isError
	m.toastAt = time.Now()
}

func (m Model) wallets() []lnbits.Wallet {
	if m.store == nil {
		return nil
	}
	return m.store.Session().Wallets()
}

// walletName returns the display name of a session wallet.
func (m Model) walletName(id string) string {
	if m.store == nil {
		return id
	}
	if w, ok := m.store.Session().Wallet(id); ok && w.Name != "" {
		return w.Name
	}
	return id
}

func (m Model) pollState() state.PollState {
	if m.poller == nil {
		return state.PollIdle
	}
	return m.poller.State()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderTable())
	}
	return b.String()
}

// Messages

type tickMsg time.Time

// refreshedMsg is sent by the poller after each scheduled refresh.
type refreshedMsg struct{ err error }

type manualRefreshMsg struct{ err error }

type exportDoneMsg struct {
	id       string
	location string
	err      error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return manualRefreshMsg{err: store.Refresh(ctx)}
	}
}

func exportCmd(exporter *panel.Exporter, id string) tea.Cmd {
	return func() tea.Msg {
		location, err := exporter.Export(id)
		return exportDoneMsg{id: id, location: location, err: err}
	}
}

// Run starts the poller and the Bubble Tea program, and blocks until the
// operator quits or ctx ends. The poller is stopped on return.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.Poller != nil && opts.Store != nil {
		opts.Poller.OnRefresh(func(err error) {
			p.Send(refreshedMsg{err: err})
		})
		started, err := opts.Poller.Start(ctx, opts.Store.Session())
		if err != nil {
			return err
		}
		if !started {
			log.Warn().Msg("no wallet configured; polling disabled")
		}
		defer opts.Poller.Stop()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
