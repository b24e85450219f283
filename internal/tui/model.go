package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/pipeline"
	"github.com/csheth/candyrag/internal/prefs"
	"github.com/csheth/candyrag/internal/rag"
)

// DefaultRequestTimeout bounds each backend call when Config leaves it unset.
const DefaultRequestTimeout = 30 * time.Second

// ErrNoBackend is reported when the program runs without a backend.
var ErrNoBackend = errors.New("no candy store backend configured")

// Config wires runtime options into the TUI program.
type Config struct {
	Backend        Backend
	Store          PrefStore
	Prefs          prefs.Preferences
	Table          i18n.Table
	Interval       time.Duration
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

type model struct {
	backend Backend
	store   PrefStore
	table   i18n.Table
	logger  *zap.Logger
	jobs    *jobBus
	timeout time.Duration

	prefs   prefs.Preferences
	theme   theme
	keys    keyMap
	help    help.Model
	stage   stage
	overlay overlay

	composer composer
	catalog  catalogView
	player   pipeline.Player
	progress progress.Model
	spinner  spinner.Model
	viewport viewport.Model
	layout   pageLayout

	response  *rag.QueryResponse
	errMsg    string
	lastQuery string

	querySeq    int
	cancelQuery context.CancelFunc
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	table := config.Table
	if len(table) == 0 {
		table = i18n.MustLoad()
	}
	current := config.Prefs
	if !current.Language.Valid() {
		current.Language = i18n.Default
	}
	backend := config.Backend
	if backend == nil {
		backend = offlineBackend{}
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	text := table.For(current.Language)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	bar := progress.New(progress.WithGradient("#ff5fa2", "#5fd7af"), progress.WithoutPercentage())
	bar.Width = 40

	return &model{
		backend:  backend,
		store:    config.Store,
		table:    table,
		logger:   logger.Named("tui"),
		jobs:     newJobBus(logger),
		timeout:  timeout,
		prefs:    current,
		theme:    newTheme(current.DarkMode),
		keys:     newKeyMap(text),
		help:     help.New(),
		stage:    stageIdle,
		composer: newComposer(text),
		catalog:  newCatalogView(),
		player:   pipeline.New(config.Interval),
		progress: bar,
		spinner:  spin,
		viewport: vp,
		layout:   newPageLayout(),
	}
}

func (m *model) Init() tea.Cmd {
	cmd, _ := m.jobs.Start(jobKindCatalog, m.timeout, catalogJob(m.backend))
	return tea.Batch(textinput.Blink, cmd)
}

func (m *model) strings() i18n.Strings {
	return m.table.For(m.prefs.Language)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.help.Width = m.layout.viewportWidth
		m.progress.Width = m.layout.viewportWidth / 2
		m.catalog.SetWidth(m.layout.viewportWidth)
		return m, nil
	case spinner.TickMsg:
		if m.stage == stageLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case pipeline.TickMsg:
		var cmd tea.Cmd
		m.player, cmd = m.player.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.logger.Debug("job started", zap.String("job", msg.Snapshot.ID))
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case queryResultMsg:
		return m.handleQueryResult(msg)
	case resetResultMsg:
		if msg.err != nil {
			m.logger.Warn("reset failed", zap.Error(msg.err))
		}
		return m, nil
	case catalogResultMsg:
		if msg.err != nil {
			m.logger.Warn("catalog fetch failed", zap.Error(msg.err))
		}
		m.catalog.SetCandies(msg.candies, m.prefs.Language, m.strings())
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelInFlight()
			m.player.Stop()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Theme):
		next := m.prefs
		next.DarkMode = !next.DarkMode
		m.applyPrefs(next)
		return m, nil
	case key.Matches(msg, m.keys.Language):
		next := m.prefs
		next.Language = next.Language.Toggle()
		m.applyPrefs(next)
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.overlay = overlayNone
		return m, m.reset()
	case key.Matches(msg, m.keys.About):
		m.toggleOverlay(overlayAbout)
		return m, nil
	case msg.Type == tea.KeyF1:
		m.toggleOverlay(overlayHelp)
		return m, nil
	}

	if m.overlay != overlayNone {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) {
			m.overlay = overlayNone
		}
		return m, nil
	}

	switch m.stage {
	case stageIdle:
		return m.handleIdleKey(msg)
	case stageLoading:
		return m, nil
	case stageDisplay:
		return m.handleDisplayKey(msg)
	case stageError:
		if key.Matches(msg, m.keys.Submit) || key.Matches(msg, m.keys.Back) {
			m.errMsg = ""
			m.stage = stageIdle
			return m, m.composer.Focus()
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Examples):
		m.composer.ToggleExamples()
		return m, nil
	case m.composer.showExamples && key.Matches(msg, m.keys.Up):
		m.composer.Move(-1)
		return m, nil
	case m.composer.showExamples && key.Matches(msg, m.keys.Down):
		m.composer.Move(1)
		return m, nil
	case m.composer.showExamples && key.Matches(msg, m.keys.Back):
		m.composer.HideExamples()
		return m, nil
	case m.composer.showExamples && key.Matches(msg, m.keys.Submit):
		m.composer.PickExample()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.submitQuery(m.composer.Query())
	case key.Matches(msg, m.keys.CatalogUp):
		m.catalog.Move(-1)
		return m, nil
	case key.Matches(msg, m.keys.CatalogDown):
		m.catalog.Move(1)
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		m.composer.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m *model) handleDisplayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevStep):
		m.selectStep(m.player.Cursor() - 1)
	case key.Matches(msg, m.keys.NextStep):
		m.selectStep(m.player.Cursor() + 1)
	case key.Matches(msg, m.keys.JumpStep):
		if len(msg.Runes) == 1 {
			m.selectStep(int(msg.Runes[0] - '1'))
		}
	case key.Matches(msg, m.keys.AskAnother):
		return m, m.reset()
	case key.Matches(msg, m.keys.Help):
		m.toggleOverlay(overlayHelp)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) selectStep(i int) {
	if m.player.Select(i) {
		m.viewport.GotoTop()
	}
}

// submitQuery starts a query job. Blank input and submits while a query is
// in flight are ignored.
func (m *model) submitQuery(text string) tea.Cmd {
	if text == "" || m.stage == stageLoading {
		return nil
	}
	m.cancelInFlight()
	m.querySeq++
	m.stage = stageLoading
	m.errMsg = ""
	m.response = nil
	m.lastQuery = text
	m.player.Clear()
	m.composer.HideExamples()
	m.composer.Blur()

	jobCmd, cancel := m.jobs.Start(jobKindQuery, m.timeout, queryJob(m.backend, m.querySeq, text, m.prefs.Language))
	m.cancelQuery = cancel
	return tea.Batch(jobCmd, m.spinner.Tick)
}

func (m *model) handleQueryResult(msg queryResultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.querySeq || m.stage != stageLoading {
		m.logger.Debug("dropping stale query result", zap.Int("seq", msg.seq), zap.Int("current", m.querySeq))
		return m, nil
	}
	m.cancelQuery = nil
	if msg.err != nil || msg.response == nil {
		err := msg.err
		if err == nil {
			err = errors.New("empty response")
		}
		m.stage = stageError
		m.errMsg = err.Error()
		m.response = nil
		return m, nil
	}
	m.response = msg.response
	m.stage = stageDisplay
	m.viewport.GotoTop()
	return m, m.player.Start(len(msg.response.Steps))
}

// reset stops playback, forgets the response and error, and tells the
// backend to reset without waiting for it.
func (m *model) reset() tea.Cmd {
	m.player.Clear()
	m.cancelInFlight()
	m.querySeq++
	m.response = nil
	m.errMsg = ""
	m.lastQuery = ""
	m.stage = stageIdle
	m.composer.Reset()
	m.viewport.GotoTop()
	jobCmd, _ := m.jobs.Start(jobKindReset, m.timeout, resetJob(m.backend))
	return tea.Batch(jobCmd, m.composer.Focus())
}

func (m *model) cancelInFlight() {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
}

func (m *model) toggleOverlay(target overlay) {
	if m.overlay == target {
		m.overlay = overlayNone
		return
	}
	m.overlay = target
}

// applyPrefs switches the theme and language and persists the change.
func (m *model) applyPrefs(next prefs.Preferences) {
	m.prefs = next
	m.theme = newTheme(next.DarkMode)
	s := m.strings()
	m.keys = newKeyMap(s)
	m.composer.SetStrings(s)
	m.catalog.Localize(next.Language, s)
	if m.store == nil {
		return
	}
	if err := m.store.Save(next); err != nil {
		m.logger.Warn("saving preferences failed", zap.Error(err))
	}
}

type offlineBackend struct{}

func (offlineBackend) Query(context.Context, string, i18n.Language) (*rag.QueryResponse, error) {
	return nil, ErrNoBackend
}

func (offlineBackend) Reset(context.Context) error {
	return ErrNoBackend
}

func (offlineBackend) Candies(context.Context) ([]catalog.Candy, error) {
	return nil, ErrNoBackend
}
