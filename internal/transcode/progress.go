package transcode

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var reDuration = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// monotonic wraps fn so it only sees clamped, non-decreasing fractions.
func monotonic(fn func(float64)) func(float64) {
	if fn == nil {
		return func(float64) {}
	}
	var mu sync.Mutex
	last := -1.0
	return func(fraction float64) {
		if math.IsNaN(fraction) {
			return
		}
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}

		mu.Lock()
		if fraction <= last {
			mu.Unlock()
			return
		}
		last = fraction
		mu.Unlock()
		fn(fraction)
	}
}

// progressParser turns ffmpeg "-progress pipe:1" output into fractions.
// The input duration is read from the stderr banner.
type progressParser struct {
	mu       sync.Mutex
	duration time.Duration
	emit     func(float64)
}

func newProgressParser(onProgress func(float64)) *progressParser {
	return &progressParser{emit: monotonic(onProgress)}
}

// diagnosticLine consumes one stderr line.
func (p *progressParser) diagnosticLine(line string) {
	m := reDuration.FindStringSubmatch(line)
	if m == nil {
		return
	}
	d, ok := parseClock(m[1], m[2], m[3])
	if !ok || d <= 0 {
		return
	}

	p.mu.Lock()
	if p.duration == 0 {
		p.duration = d
	}
	p.mu.Unlock()
}

// progressLine consumes one key=value line of the progress stream.
func (p *progressParser) progressLine(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}

	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports microseconds under both keys.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		p.mu.Lock()
		total := p.duration
		p.mu.Unlock()
		if total <= 0 {
			return
		}
		p.emit(float64(time.Duration(us)*time.Microsecond) / float64(total))
	case "progress":
		if value == "end" {
			p.emit(1)
		}
	}
}

// finish reports completion once the output has been produced.
func (p *progressParser) finish() {
	p.emit(1)
}

func parseClock(hours, minutes, seconds string) (time.Duration, bool) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return 0, false
	}
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second))
	return total, true
}

// lineWriter splits written bytes into lines. Each instance is fed by a
// single goroutine, as os/exec does per stream.
type lineWriter struct {
	buf  []byte
	line func(string)
}

func newLineWriter(fn func(string)) *lineWriter {
	return &lineWriter{line: fn}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		if i > 0 {
			w.line(string(w.buf[:i]))
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
