// Package profiling records nested timing spans and pprof profiles for CLI
// runs.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

func (s *span) Stop() {
	s.profiler.end(s)
}

// Profiler collects a tree of spans. Spans nest in the order they are
// started; a span ends when Stop is called on it.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.Enable()
}

// Start begins a span on the global profiler.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Summarize writes the global profile to w.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

// Enable starts recording. Calling it twice keeps the existing profile.
func (p *Profiler) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		return
	}
	p.enabled = true
	p.root = &span{name: "root", start: time.Now(), profiler: p}
	p.stack = []*span{p.root}
}

// Start opens a span below the innermost open one.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}
	parent := p.stack[len(p.stack)-1]
	s := &span{name: name, start: time.Now(), profiler: p}
	parent.children = append(parent.children, s)
	p.stack = append(p.stack, s)
	return s
}

func (p *Profiler) end(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.duration = time.Since(s.start)
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == s {
			p.stack = p.stack[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return
	}
	total := time.Since(p.root.start)

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, child := range p.root.children {
		printSpan(w, child, 0, total)
	}
	fmt.Fprintln(w, "----------------------")
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), percentage)
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
