package pipeline

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the autoplay delay between steps.
const DefaultInterval = 2 * time.Second

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// TickMsg advances the player that scheduled it. Ticks from a stopped or
// restarted timer carry a stale tag and are ignored.
type TickMsg struct {
	ID   int
	tag  int
	Time time.Time
}

// Player owns the step cursor, the revealed flag, and the autoplay timer.
type Player struct {
	id       int
	tag      int
	interval time.Duration
	length   int
	cursor   int
	revealed bool
	running  bool
}

// New returns an idle player. A non-positive interval uses DefaultInterval.
func New(interval time.Duration) Player {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Player{id: nextID(), interval: interval}
}

// ID identifies the player's ticks.
func (p Player) ID() int { return p.id }

// Cursor is the index of the step on display.
func (p Player) Cursor() int { return p.cursor }

// Len is the number of steps adopted by the last Start.
func (p Player) Len() int { return p.length }

// Revealed reports whether autoplay has finished and the answer is shown.
func (p Player) Revealed() bool { return p.revealed }

// Running reports whether a timer is scheduled.
func (p Player) Running() bool { return p.running }

// Interval is the autoplay delay.
func (p Player) Interval() time.Duration { return p.interval }

// Start adopts a sequence of n steps: the cursor returns to 0, the answer is
// hidden, and any timer from a previous sequence is invalidated before the
// first tick is scheduled.
func (p *Player) Start(n int) tea.Cmd {
	p.tag++
	p.length = n
	p.cursor = 0
	p.revealed = false
	p.running = n > 0
	if !p.running {
		return nil
	}
	return p.schedule()
}

// Stop cancels the timer. Ticks already in flight are ignored.
func (p *Player) Stop() {
	p.tag++
	p.running = false
}

// Clear stops the timer and forgets the adopted sequence.
func (p *Player) Clear() {
	p.Stop()
	p.length = 0
	p.cursor = 0
	p.revealed = false
}

// Select moves the cursor to i. It leaves the timer and the revealed flag
// untouched and reports whether i was in range.
func (p *Player) Select(i int) bool {
	if i < 0 || i >= p.length {
		return false
	}
	p.cursor = i
	return true
}

// Update handles the player's own ticks.
func (p Player) Update(msg tea.Msg) (Player, tea.Cmd) {
	tick, ok := msg.(TickMsg)
	if !ok || tick.ID != p.id || tick.tag != p.tag || !p.running {
		return p, nil
	}
	if p.cursor < p.length-1 {
		p.cursor++
		return p, p.schedule()
	}
	p.running = false
	p.revealed = true
	return p, nil
}

func (p Player) schedule() tea.Cmd {
	id, tag := p.id, p.tag
	return tea.Tick(p.interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, tag: tag, Time: t}
	})
}
