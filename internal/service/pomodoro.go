package service

import (
	"context"
	"sync"
	"time"
)

// Phase is the current stage of a pomodoro cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

// PomodoroConfig holds phase lengths.
type PomodoroConfig struct {
	Focus      time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultPomodoroConfig is the classic 25/5/15 cycle.
var DefaultPomodoroConfig = PomodoroConfig{
	Focus:      25 * time.Minute,
	ShortBreak: 5 * time.Minute,
	LongBreak:  15 * time.Minute,
}

// Pomodoro is a pausable countdown. A focus phase opens a study session that is
// closed when the phase runs out or the timer is reset.
type Pomodoro struct {
	cfg      PomodoroConfig
	sessions *SessionService

	mu        sync.Mutex
	phase     Phase
	running   bool
	remaining time.Duration
	resumedAt time.Time
	sessionID string
	completed int
}

func NewPomodoro(cfg PomodoroConfig, sessions *SessionService) *Pomodoro {
	if cfg.Focus <= 0 {
		cfg.Focus = DefaultPomodoroConfig.Focus
	}
	if cfg.ShortBreak <= 0 {
		cfg.ShortBreak = DefaultPomodoroConfig.ShortBreak
	}
	if cfg.LongBreak <= 0 {
		cfg.LongBreak = DefaultPomodoroConfig.LongBreak
	}
	return &Pomodoro{cfg: cfg, sessions: sessions, phase: PhaseIdle}
}

// StartFocus begins a focus phase for taskID and opens a session for it.
func (p *Pomodoro) StartFocus(ctx context.Context, taskID string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeSessionLocked(ctx)
	p.begin(PhaseFocus, p.cfg.Focus, now)
	if p.sessions != nil {
		p.sessionID = p.sessions.StartSession(ctx, taskID, "pomodoro").ID
	}
}

// StartBreak begins a short or long break.
func (p *Pomodoro) StartBreak(long bool, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if long {
		p.begin(PhaseLongBreak, p.cfg.LongBreak, now)
		return
	}
	p.begin(PhaseShortBreak, p.cfg.ShortBreak, now)
}

func (p *Pomodoro) begin(phase Phase, length time.Duration, now time.Time) {
	p.phase = phase
	p.remaining = length
	p.resumedAt = now
	p.running = true
}

func (p *Pomodoro) Pause(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.remaining = p.remainingLocked(now)
	p.running = false
}

func (p *Pomodoro) Resume(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.phase == PhaseIdle {
		return
	}
	p.resumedAt = now
	p.running = true
}

// Reset stops the timer and rewinds the current phase to its full length.
func (p *Pomodoro) Reset(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	switch p.phase {
	case PhaseFocus:
		p.remaining = p.cfg.Focus
		p.closeSessionLocked(ctx)
	case PhaseShortBreak:
		p.remaining = p.cfg.ShortBreak
	case PhaseLongBreak:
		p.remaining = p.cfg.LongBreak
	}
}

// Remaining returns the time left in the current phase.
func (p *Pomodoro) Remaining(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked(now)
}

func (p *Pomodoro) remainingLocked(now time.Time) time.Duration {
	if !p.running {
		return p.remaining
	}
	left := p.remaining - now.Sub(p.resumedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Advance finishes the phase once its time is up and reports which phase ended.
// A finished focus phase counts a pomodoro and closes its session.
func (p *Pomodoro) Advance(ctx context.Context, now time.Time) (Phase, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.remainingLocked(now) > 0 {
		return p.phase, false
	}
	finished := p.phase
	if finished == PhaseFocus {
		p.completed++
		p.closeSessionLocked(ctx)
	}
	p.phase = PhaseIdle
	p.running = false
	p.remaining = 0
	return finished, true
}

func (p *Pomodoro) closeSessionLocked(ctx context.Context) {
	if p.sessionID == "" || p.sessions == nil {
		return
	}
	p.sessions.EndSession(ctx, p.sessionID)
	p.sessionID = ""
}

func (p *Pomodoro) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Completed is the number of focus phases run to the end.
func (p *Pomodoro) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}
