// Package app provides the main TUI application that wires the engine,
// the bridge and the views together.
package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/tui"
	"github.com/berth-dev/nback/internal/tui/commands"
	"github.com/berth-dev/nback/internal/tui/views"
)

const (
	quitConfirmWindow = time.Second

	// Rows left for the other sections when the report is shown.
	reportChrome    = 24
	reportMinHeight = 6
)

// App is the training screen.
type App struct {
	ctrl   commands.Controller
	bridge *tui.Bridge

	keys       tui.KeyMap
	help       help.Model
	progress   progress.Model
	spinner    spinner.Model
	reportView viewport.Model

	games  int
	trials int

	// Engine-driven state
	n            int
	game         int
	trial        int
	stimulus     *nback.Stimulus
	inputEnabled bool
	flash        tui.Flash
	notice       string
	noticeSeq    int
	gameSummary  string
	report       *nback.Report

	quitPending bool

	width  int
	height int
}

// New creates the app. The engine must deliver its surface calls to bridge.
func New(ctrl commands.Controller, bridge *tui.Bridge, keys tui.KeyMap, s nback.Settings) *App {
	keys.SetInputEnabled(false)

	pb := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	pb.ShowPercentage = false

	// Initialize spinner with Dot style and WarningStyle color
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.WarningStyle

	return &App{
		ctrl:       ctrl,
		bridge:     bridge,
		keys:       keys,
		help:       help.New(),
		progress:   pb,
		spinner:    sp,
		reportView: viewport.New(80, reportMinHeight),
		games:      s.GamesPerSession,
		trials:     s.TrialsPerGame,
		n:          s.StartN,
		notice:     fmt.Sprintf("Press %s to start a session.", keys.Start.Help().Key),
		width:      80,
		height:     24,
	}
}

// Init starts listening for engine messages.
func (a *App) Init() tea.Cmd {
	return tea.Batch(commands.ListenCmd(a.bridge), a.spinner.Tick)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.progress.Width = min(40, max(msg.Width-10, 10))
		a.sizeReport()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tui.NoticeExpiredMsg:
		if msg.Seq == a.noticeSeq {
			a.notice = ""
		}
		return a, nil

	case tui.QuitResetMsg:
		a.quitPending = false
		return a, nil

	case tui.BridgeClosedMsg:
		return a, nil
	}

	if cmd, ok := a.applySurface(msg); ok {
		return a, tea.Batch(commands.ListenCmd(a.bridge), cmd)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.quitPending || !a.sessionActive() {
			a.shutdown()
			return a, tea.Quit
		}
		// First press while training - ask for confirmation
		a.quitPending = true
		a.setNotice("Press again to quit.")
		return a, commands.QuitResetCmd(quitConfirmWindow)

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Start):
		return a, commands.StartCmd(a.ctrl)

	case key.Matches(msg, a.keys.Reset):
		return a, commands.ResetCmd(a.ctrl)

	case key.Matches(msg, a.keys.Match):
		if a.inputEnabled {
			return a, commands.MatchCmd(a.ctrl)
		}

	case key.Matches(msg, a.keys.NoMatch):
		if a.inputEnabled {
			return a, commands.NoMatchCmd(a.ctrl)
		}

	case a.report != nil:
		// Scroll the report
		var cmd tea.Cmd
		a.reportView, cmd = a.reportView.Update(msg)
		return a, cmd
	}
	return a, nil
}

// applySurface applies one engine surface message. It reports false for
// messages that did not come from the bridge.
func (a *App) applySurface(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tui.RenderMsg:
		a.stimulus = msg.Stimulus

	case tui.InputMsg:
		a.inputEnabled = msg.Enabled
		a.keys.SetInputEnabled(msg.Enabled)

	case tui.FlashMsg:
		a.flash = tui.FlashIncorrect
		if msg.Correct {
			a.flash = tui.FlashCorrect
		}

	case tui.ClearFlashMsg:
		a.flash = tui.FlashNone

	case tui.NotifyMsg:
		a.setNotice(msg.Text)
		if msg.Duration > 0 {
			return commands.ExpireNoticeCmd(a.noticeSeq, msg.Duration), true
		}

	case tui.CountersMsg:
		if msg.Game == 0 || (msg.Game == 1 && msg.Trial == 0) {
			a.report = nil
		}
		a.n, a.game, a.trial = msg.N, msg.Game, msg.Trial

	case tui.GameSummaryMsg:
		a.gameSummary = msg.Text

	case tui.SessionSummaryMsg:
		r := msg.Report
		a.report = &r
		a.reportView.SetContent(views.RenderReport(r))
		a.reportView.GotoTop()
		a.sizeReport()

	default:
		return nil, false
	}
	return nil, true
}

func (a *App) setNotice(text string) {
	a.noticeSeq++
	a.notice = text
}

func (a *App) sessionActive() bool {
	return a.game > 0 && a.report == nil
}

// waiting reports whether a session runs but no trial is on screen, as
// during the lead-in and the pause between games.
func (a *App) waiting() bool {
	return a.sessionActive() && a.stimulus == nil && !a.inputEnabled
}

func (a *App) sizeReport() {
	a.reportView.Width = max(a.width-4, 20)
	a.reportView.Height = min(a.reportView.TotalLineCount(), max(a.height-reportChrome, reportMinHeight))
}

// shutdown stops delivery first so the engine's reset never blocks on a
// program that is no longer reading.
func (a *App) shutdown() {
	a.bridge.Close()
	a.ctrl.Reset()
}

// View renders the training screen.
func (a *App) View() string {
	counters := views.Counters{N: a.n, Game: a.game, Games: a.games, Trial: a.trial, Trials: a.trials}

	var pct float64
	if a.trials > 0 {
		pct = float64(a.trial) / float64(a.trials)
	}

	status := views.RenderStatus(counters)
	if a.waiting() {
		status = lipgloss.JoinHorizontal(lipgloss.Center, a.spinner.View(), " ", status)
	}

	sections := []string{
		tui.TitleStyle.Render("Dual N-Back"),
		status,
		a.progress.ViewAs(pct),
		"",
		views.RenderGrid(a.stimulus, a.flash),
		views.RenderFeedback(a.flash),
		tui.NoticeStyle.Render(a.notice),
		tui.DimStyle.Render(a.gameSummary),
	}
	if a.report != nil {
		sections = append(sections, "", a.reportView.View())
	}
	sections = append(sections, "", a.help.View(a.keys))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}
