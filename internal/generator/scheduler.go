package generator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
)

// Scheduler defaults.
const (
	DefaultMaxConcurrent = 50
	DefaultChunkSize     = 100
)

// SchedulerConfig bounds how much work runs at once.
type SchedulerConfig struct {
	// MaxConcurrent is the number of permits; it is the real concurrency bound.
	MaxConcurrent int
	// ChunkSize splits the id range into dispatch groups that race for permits.
	ChunkSize int
}

func (c SchedulerConfig) validate() error {
	if c.MaxConcurrent < 0 || c.ChunkSize < 0 {
		return fmt.Errorf("scheduler limits must not be negative")
	}
	return nil
}

// Task processes one id while holding a permit.
type Task func(ctx context.Context, id int)

// PanicHandler is told about a task that panicked after its permit was returned.
type PanicHandler func(id int, recovered any)

// Scheduler runs a Task for every id in [1, total] with at most MaxConcurrent in flight.
// Permits are granted in FIFO order.
type Scheduler struct {
	cfg     SchedulerConfig
	sem     *semaphore.Weighted
	active  atomic.Int64
	peak    atomic.Int64
	metrics *metrics.Collectors
	logger  *zap.Logger
}

// NewScheduler builds a Scheduler, applying defaults for zero values.
func NewScheduler(cfg SchedulerConfig, collectors *metrics.Collectors, logger *zap.Logger) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		metrics: collectors,
		logger:  logger,
	}, nil
}

// Chunk is an inclusive id range.
type Chunk struct {
	Start int
	End   int
}

// Chunks splits [1, total] into ranges of at most size ids.
func Chunks(total, size int) []Chunk {
	if total <= 0 || size <= 0 {
		return nil
	}
	out := make([]Chunk, 0, (total+size-1)/size)
	for start := 1; start <= total; start += size {
		out = append(out, Chunk{Start: start, End: min(start+size-1, total)})
	}
	return out
}

// Run blocks until every id has been processed. It only returns early if ctx is
// cancelled while waiting for a permit, and even then waits for in-flight tasks.
func (s *Scheduler) Run(ctx context.Context, total int, task Task, onPanic PanicHandler) error {
	var (
		g        errgroup.Group
		inFlight sync.WaitGroup
	)
	for _, chunk := range Chunks(total, s.cfg.ChunkSize) {
		g.Go(func() error {
			for id := chunk.Start; id <= chunk.End; id++ {
				if err := s.sem.Acquire(ctx, 1); err != nil {
					return fmt.Errorf("acquire permit for id %d: %w", id, err)
				}
				inFlight.Add(1)
				go func() {
					defer inFlight.Done()
					s.runOne(ctx, id, task, onPanic)
				}()
			}
			return nil
		})
	}
	err := g.Wait()
	inFlight.Wait()
	return err
}

func (s *Scheduler) runOne(ctx context.Context, id int, task Task, onPanic PanicHandler) {
	s.enter()
	defer func() {
		recovered := recover()
		s.leave()
		s.sem.Release(1)
		if recovered != nil {
			s.logger.Error("entity processing panicked",
				zap.Int("id", id),
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()),
			)
			if onPanic != nil {
				onPanic(id, recovered)
			}
		}
	}()
	task(ctx, id)
}

func (s *Scheduler) enter() {
	n := s.active.Add(1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	s.metrics.IncActivePermits()
}

func (s *Scheduler) leave() {
	s.active.Add(-1)
	s.metrics.DecActivePermits()
}

// Active reports how many tasks currently hold a permit.
func (s *Scheduler) Active() int64 {
	return s.active.Load()
}

// Peak reports the highest number of permits held at once.
func (s *Scheduler) Peak() int64 {
	return s.peak.Load()
}

// MaxConcurrent reports the permit budget.
func (s *Scheduler) MaxConcurrent() int {
	return s.cfg.MaxConcurrent
}
