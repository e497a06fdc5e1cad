package state

import (
	"sync"
	"time"

	"github.com/studiolumen/light-puppet/internal/timeutil"
)

// window is a fixed-size ring of the most recent raw values for one
// debounced field.
type window struct {
	max    int
	values []string
}

func newWindow(max int) *window {
	return &window{max: max, values: make([]string, 0, max)}
}

func (w *window) push(v string) {
	if len(w.values) == w.max {
		copy(w.values, w.values[1:])
		w.values[len(w.values)-1] = v
		return
	}
	w.values = append(w.values, v)
}

func (w *window) full() bool {
	return len(w.values) == w.max
}

func (w *window) newest() string {
	return w.values[len(w.values)-1]
}

// unanimous reports whether every buffered value equals the newest
// one. A single disagreeing frame anywhere in the window vetoes.
func (w *window) unanimous() bool {
	last := w.newest()
	for _, v := range w.values {
		if v != last {
			return false
		}
	}
	return true
}

func (w *window) clear() {
	w.values = w.values[:0]
}

// Manager turns merged per-frame results into confirmed state changes.
//
// Discrete fields pass a two-timescale filter. On the frame timescale,
// a raw value must hold unanimously across the last debounceFrames
// frames before it is confirmed; a flickering detection never gets
// through. On the wall-clock timescale, a stretch of idleTimeout with
// no subject in frame parks the whole state in idle: non-NONE fields
// are reset to NONE, frame history is dropped, and no further change
// is emitted until the subject returns.
//
// Continuous fields never pass through the Manager; callers forward
// them straight from the merged Result.
//
// Update and the read accessors are safe for concurrent use, so a
// monitoring surface can poll state while the frame loop runs.
type Manager struct {
	mu sync.RWMutex

	debounceFrames int
	idleTimeout    time.Duration
	clock          timeutil.Clock

	confirmed    Confirmed
	history      map[Field]*window
	lastPresence time.Time
	idle         bool
}

// NewManager creates a Manager that confirms a discrete value after
// debounceFrames unanimous frames and goes idle after idleTimeout
// without a subject. Callers validate the parameters; the Manager
// assumes debounceFrames >= 1 and idleTimeout > 0. A nil clock means
// wall-clock time.
func NewManager(debounceFrames int, idleTimeout time.Duration, clock timeutil.Clock) *Manager {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	history := make(map[Field]*window, len(debounced))
	for _, f := range debounced {
		history[f] = newWindow(debounceFrames)
	}
	return &Manager{
		debounceFrames: debounceFrames,
		idleTimeout:    idleTimeout,
		clock:          clock,
		confirmed:      NewConfirmed(),
		history:        history,
		lastPresence:   clock.Now(),
	}
}

// Update feeds one merged frame result through the filter and returns
// the confirmed-state changes it caused, in canonical field order.
// Most frames return no changes.
//
// Idle is evaluated lazily here rather than by a timer: a presence
// check runs first on every call, then the elapsed absence is compared
// against the timeout. The idle transition itself emits the reset
// changes and freezes the state; while idle, frames with no subject
// are discarded wholesale.
func (m *Manager) Update(raw Result) []Change {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Presence: any non-NONE distance rearms the idle timer and wakes
	// the manager before anything else is evaluated.
	if raw.Proximity != ProximityNone {
		m.lastPresence = m.clock.Now()
		m.idle = false
	}

	if !m.idle && m.clock.Since(m.lastPresence) >= m.idleTimeout {
		m.idle = true
		var changes []Change
		for _, f := range debounced {
			if m.confirmed.value(f) == noneValue(f) {
				continue
			}
			m.confirmed.set(f, noneValue(f))
			changes = append(changes, Change{Field: f, Value: noneValue(f)})
		}
		for _, w := range m.history {
			w.clear()
		}
		return changes
	}

	if m.idle {
		return nil
	}

	var changes []Change
	for _, f := range debounced {
		w := m.history[f]
		w.push(raw.discrete(f))
		if !w.full() {
			continue
		}
		if !w.unanimous() {
			continue
		}
		candidate := w.newest()
		if candidate == m.confirmed.value(f) {
			continue
		}
		m.confirmed.set(f, candidate)
		changes = append(changes, Change{Field: f, Value: candidate})
	}
	return changes
}

// Current returns a copy of the confirmed state.
func (m *Manager) Current() Confirmed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.confirmed
}

// Idle reports whether the manager is parked in the idle state.
func (m *Manager) Idle() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idle
}

// Absence returns how long ago a subject was last seen in frame.
func (m *Manager) Absence() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clock.Since(m.lastPresence)
}
