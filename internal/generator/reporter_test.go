package generator

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReporterLine(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	counters := NewCounters(1000)
	r := NewReporter(&syncBuffer{}, counters, clk, time.Hour)
	r.Start()
	defer r.Stop()

	for i := 0; i < 250; i++ {
		counters.entityDone(false, false)
		counters.pageWritten()
	}
	clk.Advance(10 * time.Second)

	line := r.Line()
	assert.Contains(t, line, "250/1,000")
	assert.Contains(t, line, "25.0%")
	assert.Contains(t, line, "25.0/s")
	assert.Contains(t, line, "250 pages")
	assert.Contains(t, line, "ETA 30s")
}

func TestReporterLineBeforeProgress(t *testing.T) {
	t.Parallel()

	r := NewReporter(&syncBuffer{}, NewCounters(10), newFakeClock(), 0)
	line := r.Line()
	assert.Contains(t, line, "0/10")
	assert.Contains(t, line, "ETA --")
}

func TestReporterDrawsAndStops(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	counters := NewCounters(2)
	r := NewReporter(out, counters, newFakeClock(), 5*time.Millisecond)
	r.Start()
	r.Start()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "\r")
	}, time.Second, 5*time.Millisecond)

	counters.entityDone(false, false)
	counters.entityDone(false, false)
	r.Stop()
	r.Stop()

	got := out.String()
	require.True(t, strings.HasSuffix(got, "\n"))
	lastLine := got[strings.LastIndex(got, "\r")+1:]
	assert.Contains(t, lastLine, "2/2")

	// Nothing is written after Stop returns.
	before := out.String()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, out.String())
}

func TestReporterStopWithoutStart(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	r := NewReporter(out, NewCounters(1), newFakeClock(), time.Millisecond)
	r.Stop()
	r.Start()
	assert.Empty(t, out.String())

	var nilReporter *Reporter
	nilReporter.Start()
	nilReporter.Stop()
}
