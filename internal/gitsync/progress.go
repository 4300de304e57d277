package gitsync

import (
	"strings"
	"sync"
)

// Monitor receives phase-structured progress events from a transfer. The
// sideband adapter translates go-git's raw progress stream into these calls;
// the Normalizer is the production implementation.
type Monitor interface {
	PhaseStart(name string, total int)
	PhaseProgress(delta int)
	PhaseEnd()
	IsCancelled() bool
}

// PhaseRange maps transfer phases whose name contains Match (case
// insensitive) onto a fixed slice of the overall progress bar.
type PhaseRange struct {
	Match string
	Start float64
	End   float64
}

// CloneSchedule covers the phases a clone walks through. Ranges below the
// first phase leave room for the connect step; the tail past checkout is
// reserved for finalization.
func CloneSchedule() []PhaseRange {
	return []PhaseRange{
		{Match: "counting", Start: 0.05, End: 0.10},
		{Match: "compressing", Start: 0.05, End: 0.10},
		{Match: "receiving", Start: 0.10, End: 0.50},
		{Match: "resolving", Start: 0.50, End: 0.80},
		{Match: "checking out", Start: 0.80, End: 0.95},
	}
}

// PushSchedule covers a push's transfer phases. It starts above the
// commit checkpoints so the combined commit+push bar stays monotonic.
func PushSchedule() []PhaseRange {
	return []PhaseRange{
		{Match: "counting", Start: 0.70, End: 0.78},
		{Match: "compressing", Start: 0.78, End: 0.85},
		{Match: "writing", Start: 0.85, End: 0.98},
	}
}

// unknownStep is the advance per update when a phase reports no total.
const unknownStep = 0.01

// Normalizer folds irregular per-phase counters into one monotonic [0,1]
// progress value. Phases with a known total interpolate linearly inside
// their range; phases without one inch forward a fixed step per update,
// clamped to the range's end. Phase end always snaps to the range's end, so
// under-reporting counters still produce a visibly completed phase.
type Normalizer struct {
	mu        sync.Mutex
	schedule  []PhaseRange
	emit      func(float64)
	cancelled func() bool

	value     float64
	cur       PhaseRange
	inPhase   bool
	total     int
	completed int
}

// NewNormalizer builds a normalizer over the given schedule. emit receives
// every new progress value; cancelled, when non-nil, is consulted by
// IsCancelled.
func NewNormalizer(schedule []PhaseRange, emit func(float64), cancelled func() bool) *Normalizer {
	return &Normalizer{schedule: schedule, emit: emit, cancelled: cancelled}
}

// Value returns the current normalized progress.
func (n *Normalizer) Value() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

func (n *Normalizer) PhaseStart(name string, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inPhase {
		n.finishPhaseLocked()
	}
	n.cur = n.lookupLocked(name)
	n.inPhase = true
	n.total = total
	n.completed = 0
	n.advanceLocked(n.cur.Start)
}

func (n *Normalizer) PhaseProgress(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.inPhase || delta <= 0 {
		return
	}
	n.completed += delta
	if n.total > 0 {
		frac := float64(n.completed) / float64(n.total)
		if frac > 1 {
			frac = 1
		}
		n.advanceLocked(n.cur.Start + frac*(n.cur.End-n.cur.Start))
		return
	}
	next := n.value + unknownStep
	if next > n.cur.End {
		next = n.cur.End
	}
	n.advanceLocked(next)
}

func (n *Normalizer) PhaseEnd() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.inPhase {
		return
	}
	n.finishPhaseLocked()
}

func (n *Normalizer) IsCancelled() bool {
	if n.cancelled == nil {
		return false
	}
	return n.cancelled()
}

// lookupLocked resolves a phase name against the schedule; the last
// matching entry is authoritative. Unknown phases get a narrow range just
// ahead of the current value so they still show movement without stealing
// a known phase's slice.
func (n *Normalizer) lookupLocked(name string) PhaseRange {
	lower := strings.ToLower(name)
	var found *PhaseRange
	for i := range n.schedule {
		if strings.Contains(lower, n.schedule[i].Match) {
			found = &n.schedule[i]
		}
	}
	if found != nil {
		return *found
	}
	end := n.value + 0.03
	if top := n.scheduleCapLocked(); end > top {
		end = top
	}
	return PhaseRange{Match: name, Start: n.value, End: end}
}

func (n *Normalizer) scheduleCapLocked() float64 {
	top := 0.0
	for _, r := range n.schedule {
		if r.End > top {
			top = r.End
		}
	}
	return top
}

func (n *Normalizer) finishPhaseLocked() {
	n.advanceLocked(n.cur.End)
	n.inPhase = false
}

// advanceLocked moves the value forward, never backward.
func (n *Normalizer) advanceLocked(v float64) {
	if v <= n.value {
		return
	}
	if v > 1 {
		v = 1
	}
	n.value = v
	if n.emit != nil {
		n.emit(v)
	}
}
