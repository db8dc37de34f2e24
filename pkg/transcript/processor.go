// Package transcript accumulates transcription events into an append-only
// sequence of completed segments.
//
// The processor owns the in-progress accumulator exclusively; no other
// goroutine touches it. Completed segments are written to the transcript
// writer in arrival order and never revised. A completed event that arrives
// after the final boundary has been signaled carries the session's last
// segment and terminates processing.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
)

// EventKind classifies transcription events.
type EventKind int

const (
	// Delta carries incremental text for the in-progress segment.
	Delta EventKind = iota
	// Completed carries the full text of a finalized segment.
	Completed
	// Error carries a server-side error detail.
	Error
)

// Event is one transcription event, already decoupled from any particular
// wire protocol.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Flusher is implemented by writers that can flush buffered output, such as
// *os.File via Sync. Optional.
type Flusher interface {
	Sync() error
}

// Processor consumes transcription events. Segment texts are appended to w
// one line per segment. final reports whether the final commit boundary has
// been signaled; the first Completed observed with final() true ends the
// session.
type Processor struct {
	w      io.Writer
	final  func() bool
	logger *slog.Logger

	mu        sync.Mutex
	acc       strings.Builder
	segments  []string
	finalText string

	done     chan struct{}
	doneOnce sync.Once
}

// NewProcessor creates a processor writing segments to w.
func NewProcessor(w io.Writer, final func() bool, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if final == nil {
		final = func() bool { return false }
	}
	return &Processor{
		w:      w,
		final:  final,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Done is closed exactly once, when the final segment has completed or the
// event stream failed.
func (p *Processor) Done() <-chan struct{} {
	return p.done
}

// Accumulator returns the in-progress segment text (progress display only).
func (p *Processor) Accumulator() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acc.String()
}

// Segments returns all completed segment texts in arrival order.
func (p *Processor) Segments() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.segments...)
}

// FinalText returns the text of the final segment, once Done.
func (p *Processor) FinalText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finalText
}

// Process handles one event. It returns true when the session is finished
// and no further events should be consumed.
func (p *Processor) Process(ev Event) (finished bool, err error) {
	switch ev.Kind {
	case Delta:
		p.mu.Lock()
		p.acc.WriteString(ev.Text)
		p.mu.Unlock()
		p.logger.Debug("transcript delta", "text", ev.Text)
		return false, nil

	case Completed:
		p.logger.Info("completed segment", "text", ev.Text)
		if err := p.persist(ev.Text); err != nil {
			return false, err
		}
		p.mu.Lock()
		p.segments = append(p.segments, ev.Text)
		if p.final() {
			// The final boundary's completed text is authoritative for the
			// session transcript; earlier segments were already persisted.
			p.finalText = ev.Text
			p.mu.Unlock()
			p.signalDone()
			return true, nil
		}
		p.acc.Reset()
		p.mu.Unlock()
		return false, nil

	case Error:
		if p.final() {
			// An error in place of the final completion must not leave the
			// session hanging; fail open.
			p.logger.Error("transcription error at final boundary", "error", ev.Err)
			p.signalDone()
			cause := ev.Err
			if cause == nil {
				cause = errors.New("no error detail")
			}
			return true, fmt.Errorf("transcript: final segment failed: %w", cause)
		}
		// Before the final boundary, failed segments are logged and skipped;
		// the stream itself decides when it is over.
		p.logger.Error("transcription error event", "error", ev.Err)
		return false, nil
	}
	p.logger.Debug("ignoring unknown event kind", "kind", int(ev.Kind))
	return false, nil
}

// Consume drains the event stream until the final segment completes, the
// stream ends, or it fails. A stream failure signals completion anyway
// (fail-open): a stuck pipeline must not hang forever.
func (p *Processor) Consume(events iter.Seq2[Event, error]) error {
	defer p.signalDone()

	for ev, err := range events {
		if err != nil {
			p.logger.Error("event stream failed", "error", err)
			return fmt.Errorf("transcript: event stream: %w", err)
		}
		finished, err := p.Process(ev)
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
	}
	return nil
}

func (p *Processor) persist(text string) error {
	if p.w == nil {
		return nil
	}
	if _, err := fmt.Fprintln(p.w, text); err != nil {
		return fmt.Errorf("transcript: persist segment: %w", err)
	}
	if f, ok := p.w.(Flusher); ok {
		if err := f.Sync(); err != nil {
			p.logger.Warn("transcript flush failed", "error", err)
		}
	}
	return nil
}

func (p *Processor) signalDone() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}
