package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const generateTimeout = 60 * time.Second

// Generator produces the report content for one run.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// Deliverer sends approved content to the notification sink.
type Deliverer interface {
	Deliver(ctx context.Context, content string) error
}

// Machine drives one report run at a time through
// searching → generating → (reviewing) → sending → completed,
// reverting to idle after terminal states. All status mutation
// happens behind a single mutex.
type Machine struct {
	mu              sync.Mutex
	status          Status
	content         string
	logs            []LogEntry
	requireApproval bool

	credential string
	gen        Generator
	sink       Deliverer
	logger     *zap.Logger

	// Revert delays after terminal states; overridable in tests.
	missingCredRevert time.Duration
	failureRevert     time.Duration
	completedRevert   time.Duration
}

func NewMachine(gen Generator, sink Deliverer, credential string, requireApproval bool, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		status:            StatusIdle,
		requireApproval:   requireApproval,
		credential:        credential,
		gen:               gen,
		sink:              sink,
		logger:            logger,
		missingCredRevert: 5 * time.Second,
		failureRevert:     60 * time.Second,
		completedRevert:   60 * time.Second,
	}
}

// Start begins a new run. It is a no-op while a run is already
// searching, generating, or sending; from Reviewing it discards the
// stored draft and regenerates.
func (m *Machine) Start() {
	m.mu.Lock()
	switch m.status {
	case StatusSearching, StatusGenerating, StatusSending:
		m.mu.Unlock()
		return
	case StatusReviewing:
		m.content = ""
		m.appendLogLocked("丢弃当前草稿，重新生成", SeverityInfo)
	}
	m.setStatusLocked(StatusSearching, "run started", SeverityInfo)
	credential := m.credential
	m.mu.Unlock()

	go m.run(credential)
}

// Approve releases the review gate. Calling it in any state other
// than Reviewing does nothing.
func (m *Machine) Approve() {
	m.mu.Lock()
	if m.status != StatusReviewing {
		m.mu.Unlock()
		return
	}
	content := m.content
	m.setStatusLocked(StatusSending, "approved, delivering report", SeverityInfo)
	m.mu.Unlock()

	go m.send(content)
}

func (m *Machine) run(credential string) {
	if strings.TrimSpace(credential) == "" {
		m.fail("llm credential missing; set llm.api_key in config", m.missingCredRevert)
		return
	}

	m.mu.Lock()
	if m.status != StatusSearching {
		m.mu.Unlock()
		return
	}
	m.setStatusLocked(StatusGenerating, "generating report", SeverityInfo)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()
	content, err := m.gen.Generate(ctx)
	if err != nil {
		m.fail("generation failed: "+err.Error(), m.failureRevert)
		return
	}

	m.mu.Lock()
	m.content = content
	if m.requireApproval {
		m.setStatusLocked(StatusReviewing, "draft ready, awaiting approval", SeverityInfo)
		m.mu.Unlock()
		return
	}
	m.setStatusLocked(StatusSending, "delivering report", SeverityInfo)
	m.mu.Unlock()

	m.send(content)
}

func (m *Machine) send(content string) {
	err := m.sink.Deliver(context.Background(), content)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// Content stays so the operator can retry delivery without
		// regenerating; most delivery failures are transient.
		m.setStatusLocked(StatusReviewing, "delivery failed: "+err.Error(), SeverityError)
		return
	}
	m.content = ""
	m.setStatusLocked(StatusCompleted, "report delivered", SeveritySuccess)
	m.revertAfterLocked(StatusCompleted, m.completedRevert)
}

func (m *Machine) fail(msg string, revertAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(StatusFailed, msg, SeverityError)
	m.revertAfterLocked(StatusFailed, revertAfter)
}

// revertAfterLocked schedules a one-shot reversion to Idle that only
// applies if the status still equals from when the timer fires. A new
// run starting first makes the reversion a no-op.
func (m *Machine) revertAfterLocked(from Status, delay time.Duration) {
	time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.status != from {
			return
		}
		m.setStatusLocked(StatusIdle, "ready for next run", SeverityInfo)
	})
}

func (m *Machine) setStatusLocked(s Status, msg string, sev Severity) {
	m.status = s
	m.appendLogLocked(msg, sev)
	m.logger.Info("workflow status",
		zap.String("status", string(s)), zap.String("detail", msg))
}

func (m *Machine) appendLogLocked(msg string, sev Severity) {
	m.logs = append(m.logs, LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Message:   msg,
		Severity:  sev,
	})
}

// Status returns the current workflow status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Content returns the stored draft, empty outside a run.
func (m *Machine) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// Logs returns a copy of the run log.
func (m *Machine) Logs() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

// RequireApproval reports whether the review gate is enabled.
func (m *Machine) RequireApproval() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requireApproval
}

// SetRequireApproval toggles the review gate for subsequent runs.
func (m *Machine) SetRequireApproval(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireApproval = v
}
