package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/nback/internal/nback"
)

// Bridge is the nback.Surface of the terminal UI. Every surface call becomes
// a tea message on a buffered channel that the program drains with Listen.
// Sends block while the buffer is full and are dropped once the bridge is
// closed.
type Bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

var _ nback.Surface = (*Bridge)(nil)

// NewBridge creates a bridge buffering up to size messages.
func NewBridge(size int) *Bridge {
	return &Bridge{
		ch:   make(chan tea.Msg, size),
		done: make(chan struct{}),
	}
}

// Listen waits for the next surface message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return BridgeClosedMsg{}
		}
	}
}

// Close stops delivery. Pending and future messages are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

func (b *Bridge) Render(s *nback.Stimulus) {
	if s != nil {
		c := *s
		s = &c
	}
	b.send(RenderMsg{Stimulus: s})
}

func (b *Bridge) SetInputEnabled(enabled bool) { b.send(InputMsg{Enabled: enabled}) }
func (b *Bridge) Flash(correct bool) { b.send(FlashMsg{Correct: correct}) }
func (b *Bridge) ClearFlash() { b.send(ClearFlashMsg{}) }

func (b *Bridge) Notify(msg string, d time.Duration) {
	b.send(NotifyMsg{Text: msg, Duration: d})
}

func (b *Bridge) UpdateCounters(n, game, trial int) {
	b.send(CountersMsg{N: n, Game: game, Trial: trial})
}

func (b *Bridge) ShowGameSummary(text string) { b.send(GameSummaryMsg{Text: text}) }

func (b *Bridge) ShowSessionSummary(r nback.Report) {
	r.Games = append([]nback.GameRecord(nil), r.Games...)
	b.send(SessionSummaryMsg{Report: r})
}
