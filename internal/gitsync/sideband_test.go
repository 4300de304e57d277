package gitsync

import (
	"fmt"
	"strings"
	"testing"
)

type recordedEvent struct {
	kind  string
	name  string
	total int
	delta int
}

type recordingMonitor struct {
	events []recordedEvent
}

func (m *recordingMonitor) PhaseStart(name string, total int) {
	m.events = append(m.events, recordedEvent{kind: "start", name: name, total: total})
}

func (m *recordingMonitor) PhaseProgress(delta int) {
	m.events = append(m.events, recordedEvent{kind: "progress", delta: delta})
}

func (m *recordingMonitor) PhaseEnd() {
	m.events = append(m.events, recordedEvent{kind: "end"})
}

func (m *recordingMonitor) IsCancelled() bool { return false }

func (m *recordingMonitor) summary() string {
	var parts []string
	for _, e := range m.events {
		switch e.kind {
		case "start":
			parts = append(parts, fmt.Sprintf("start(%s,%d)", e.name, e.total))
		case "progress":
			parts = append(parts, fmt.Sprintf("+%d", e.delta))
		case "end":
			parts = append(parts, "end")
		}
	}
	return strings.Join(parts, " ")
}

func TestProgressWriter_SinglePhase(t *testing.T) {
	m := &recordingMonitor{}
	w := newProgressWriter(m)

	// Carriage-return separated updates, newline on completion, the way
	// git streams sideband progress.
	fmt.Fprintf(w, "Receiving objects:  25%% (5/20)\r")
	fmt.Fprintf(w, "Receiving objects:  50%% (10/20)\r")
	fmt.Fprintf(w, "Receiving objects: 100%% (20/20), done.\n")
	_ = w.Close()

	want := "start(Receiving objects,20) +5 +5 +10 end"
	if got := m.summary(); got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestProgressWriter_PhaseChangeEndsPrevious(t *testing.T) {
	m := &recordingMonitor{}
	w := newProgressWriter(m)

	fmt.Fprintf(w, "Receiving objects:  50%% (10/20)\r")
	fmt.Fprintf(w, "Resolving deltas:  10%% (1/10)\r")
	_ = w.Close()

	want := "start(Receiving objects,20) +10 end start(Resolving deltas,10) +1 end"
	if got := m.summary(); got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestProgressWriter_IgnoresNonCounterLines(t *testing.T) {
	m := &recordingMonitor{}
	w := newProgressWriter(m)

	fmt.Fprintf(w, "remote: Enumerating objects: 20, done.\n")
	fmt.Fprintf(w, "warning: something harmless\n")
	fmt.Fprintf(w, "\n")
	_ = w.Close()

	if len(m.events) != 0 {
		t.Errorf("Non-counter lines should produce no events, got %s", m.summary())
	}
}

func TestProgressWriter_SplitWrites(t *testing.T) {
	m := &recordingMonitor{}
	w := newProgressWriter(m)

	// A single progress line arriving in fragments.
	line := "Receiving objects: 100% (20/20), done.\n"
	for _, b := range []byte(line) {
		if _, err := w.Write([]byte{b}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	_ = w.Close()

	want := "start(Receiving objects,20) +20 end"
	if got := m.summary(); got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestProgressWriter_NonMonotonicCountersClamped(t *testing.T) {
	m := &recordingMonitor{}
	w := newProgressWriter(m)

	fmt.Fprintf(w, "Receiving objects:  50%% (10/20)\r")
	// Counter goes backward; no negative delta may escape.
	fmt.Fprintf(w, "Receiving objects:  25%% (5/20)\r")
	_ = w.Close()

	for _, e := range m.events {
		if e.kind == "progress" && e.delta <= 0 {
			t.Errorf("Emitted non-positive delta: %s", m.summary())
		}
	}
}
