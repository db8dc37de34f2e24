package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Channel is the outbound half of a transcription channel, as needed by the
// commit scheduler.
type Channel interface {
	// AppendAudio transmits one chunk of PCM audio.
	AppendAudio(chunk []byte) error
	// CommitInput asks the remote side to finalize everything received so
	// far into one segment.
	CommitInput() error
}

// State is the scheduler lifecycle state.
type State int32

const (
	// Idle means the session has not started.
	Idle State = iota
	// Streaming means audio is flowing and periodic commits are armed.
	Streaming
	// Committing means a snapshot replay and commit is in progress.
	Committing
	// Finalized means the final commit has been sent; the session is over.
	Finalized
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Committing:
		return "committing"
	case Finalized:
		return "finalized"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Scheduler drives commit boundaries on a transcription channel. While
// streaming, every interval it replays the overlap ring oldest-first and
// sends a non-final commit. Stop triggers one last replay and the final
// commit, after which the scheduler is Finalized and Run returns.
type Scheduler struct {
	ring     *Ring
	ch       Channel
	interval time.Duration
	logger   *slog.Logger

	state    atomic.Int32
	final    atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler over the given ring and channel.
func NewScheduler(ring *Ring, ch Channel, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ring:     ring,
		ch:       ch,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Final reports whether the final boundary has been signaled. It becomes
// true before the final commit frame is sent, so a consumer of transcription
// events that observes a completed segment after Final() is true can treat
// it as the session's last segment.
func (s *Scheduler) Final() bool {
	return s.final.Load()
}

// Stop requests the final commit. Safe to call more than once and from any
// goroutine; only the first call has effect.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Run transitions Idle → Streaming and blocks until the final commit has
// been sent (Stop) or ctx is cancelled. A channel failure during any commit
// is terminal and returned.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Streaming)) {
		return fmt.Errorf("capture: scheduler already started (state %s)", s.State())
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.commit(false); err != nil {
				return err
			}
			s.logger.Info("sent periodic commit with overlap", "chunks", s.ring.Len())
		case <-s.stopCh:
			s.final.Store(true)
			if err := s.commit(true); err != nil {
				return err
			}
			s.logger.Info("sent final commit with overlap", "chunks", s.ring.Len())
			return nil
		}
	}
}

// commit replays the ring snapshot oldest-first, then sends the boundary.
func (s *Scheduler) commit(final bool) error {
	prev := s.state.Load()
	s.state.Store(int32(Committing))
	defer func() {
		if final {
			s.state.Store(int32(Finalized))
		} else {
			s.state.Store(prev)
		}
	}()

	for _, chunk := range s.ring.Snapshot() {
		if err := s.ch.AppendAudio(chunk); err != nil {
			return fmt.Errorf("capture: replay overlap: %w", err)
		}
	}
	if err := s.ch.CommitInput(); err != nil {
		return fmt.Errorf("capture: commit: %w", err)
	}
	return nil
}
