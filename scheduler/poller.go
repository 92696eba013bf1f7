package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"weekly_report_bot/workflow"
)

const dayFormat = "2006-01-02"

// Poller samples the wall clock once per second and fires the
// workflow at most once per eligible day. Missed windows are never
// caught up; a day whose window passes while the process is down is
// simply skipped.
type Poller struct {
	mu           sync.Mutex
	window       Window
	machine      *workflow.Machine
	autoTrigger  bool
	lastFiredDay string
	countdown    string

	logger *zap.Logger
	now    func() time.Time
}

func NewPoller(window Window, machine *workflow.Machine, autoTrigger bool, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		window:      window,
		machine:     machine,
		autoTrigger: autoTrigger,
		logger:      logger,
		now:         time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	p.tick(p.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(p.now())
		}
	}
}

func (p *Poller) tick(now time.Time) {
	p.mu.Lock()
	p.countdown = p.window.Countdown(now)
	if !p.autoTrigger || !p.window.Contains(now) {
		p.mu.Unlock()
		return
	}
	day := now.Format(dayFormat)
	if p.lastFiredDay == day {
		p.mu.Unlock()
		return
	}
	if p.machine.Status() != workflow.StatusIdle {
		p.mu.Unlock()
		return
	}
	// Record the day before firing so later ticks in the same window
	// can never start a second run.
	p.lastFiredDay = day
	p.mu.Unlock()

	p.logger.Info("trigger window hit, starting run", zap.String("day", day))
	p.machine.Start()
}

// Countdown returns the most recent countdown text.
func (p *Poller) Countdown() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.countdown
}

// AutoTrigger reports whether automatic firing is enabled.
func (p *Poller) AutoTrigger() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoTrigger
}

// SetAutoTrigger toggles automatic firing.
func (p *Poller) SetAutoTrigger(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoTrigger = v
}
