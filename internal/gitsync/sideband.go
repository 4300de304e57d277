package gitsync

import (
	"regexp"
	"strconv"
	"strings"
)

// go-git reports transfer progress as the raw sideband text the server
// sends, e.g.
//
//	Counting objects: 100% (20/20), done.
//	Receiving objects:  45% (9/20)
//
// lines terminated by \r while a phase is updating and \n when it is done.
// progressWriter parses that stream into Monitor calls so the Normalizer
// never sees the text format.
type progressWriter struct {
	monitor Monitor
	buf     []byte
	phase   string
	done    int
}

var progressLine = regexp.MustCompile(`^(.+?):\s+\d+%\s+\((\d+)/(\d+)\)`)

// newProgressWriter wraps a Monitor as the io.Writer go-git expects.
func newProgressWriter(m Monitor) *progressWriter {
	return &progressWriter{monitor: m}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.consumeLine(string(w.buf))
			w.buf = w.buf[:0]
			continue
		}
		w.buf = append(w.buf, b)
	}
	return len(p), nil
}

// Close flushes a trailing unterminated line and ends the open phase.
func (w *progressWriter) Close() error {
	if len(w.buf) > 0 {
		w.consumeLine(string(w.buf))
		w.buf = w.buf[:0]
	}
	if w.phase != "" {
		w.monitor.PhaseEnd()
		w.phase = ""
	}
	return nil
}

func (w *progressWriter) consumeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	m := progressLine.FindStringSubmatch(line)
	if m == nil {
		// Lines like "remote: Enumerating objects: 20, done." carry no
		// counters worth normalizing.
		return
	}

	name := strings.TrimSpace(m[1])
	completed, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])

	if name != w.phase {
		if w.phase != "" {
			w.monitor.PhaseEnd()
		}
		w.monitor.PhaseStart(name, total)
		w.phase = name
		w.done = 0
	}

	if delta := completed - w.done; delta > 0 {
		w.monitor.PhaseProgress(delta)
		w.done = completed
	}

	if strings.HasSuffix(line, "done.") {
		w.monitor.PhaseEnd()
		w.phase = ""
		w.done = 0
	}
}
