package generator

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/JakeFAU/gigaspace-pagegen/internal/clock/system"
	"github.com/JakeFAU/gigaspace-pagegen/internal/pagegen"
)

// DefaultProgressInterval is how often the progress line is redrawn.
const DefaultProgressInterval = time.Second

// Reporter redraws a single console progress line on a ticker.
type Reporter struct {
	out      io.Writer
	counters *Counters
	clock    pagegen.Clock
	interval time.Duration
	bar      progress.Model

	mu      sync.Mutex
	start   time.Time
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewReporter creates a stopped Reporter writing to out.
func NewReporter(out io.Writer, counters *Counters, clock pagegen.Clock, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if clock == nil {
		clock = system.New()
	}
	return &Reporter{
		out:      out,
		counters: counters,
		clock:    clock,
		interval: interval,
		bar:      progress.New(progress.WithWidth(24), progress.WithoutPercentage()),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the redraw goroutine. Calling Start twice has no effect.
func (r *Reporter) Start() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	r.start = r.clock.Now()
	go r.loop()
}

func (r *Reporter) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.draw()
		}
	}
}

func (r *Reporter) draw() {
	_, _ = io.WriteString(r.out, "\r"+r.Line())
}

// Stop halts the goroutine, draws the final state and ends the line. It is idempotent.
func (r *Reporter) Stop() {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	close(r.stop)
	r.mu.Unlock()

	if !started {
		return
	}
	<-r.done
	r.draw()
	_, _ = io.WriteString(r.out, "\n")
}

// Line renders the current progress without the leading carriage return.
func (r *Reporter) Line() string {
	snap := r.counters.Snapshot()
	elapsed := r.clock.Now().Sub(r.startedAt())

	pct := 0.0
	if snap.Total > 0 {
		pct = float64(snap.Processed) / float64(snap.Total)
	}
	rate := 0.0
	if elapsed > 0 {
		rate = float64(snap.Processed) / elapsed.Seconds()
	}
	eta := "--"
	if rate > 0 && snap.Total >= snap.Processed {
		remaining := float64(snap.Total-snap.Processed) / rate
		eta = (time.Duration(remaining * float64(time.Second))).Round(time.Second).String()
	}

	parts := []string{
		r.bar.ViewAs(pct),
		fmt.Sprintf("%s/%s", humanize.Comma(snap.Processed), humanize.Comma(snap.Total)),
		fmt.Sprintf("%5.1f%%", pct*100),
		fmt.Sprintf("%.1f/s", rate),
		fmt.Sprintf("%s pages", humanize.Comma(snap.TotalPages)),
		"ETA " + eta,
	}
	return strings.Join(parts, " | ")
}

func (r *Reporter) startedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() {
		return r.clock.Now()
	}
	return r.start
}
