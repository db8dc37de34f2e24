package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is a WebSocket transcription session.
//
// The outbound methods (AppendAudio, CommitInput, ...) are safe for
// concurrent use; a single background goroutine reads server events into
// the channel drained by Events.
type Session struct {
	conn      *websocket.Conn
	closeCh   chan struct{}
	eventsCh  chan eventOrError
	closeOnce sync.Once
	mu        sync.Mutex
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// Connect dials the Realtime WebSocket with the ephemeral client secret
// returned by CreateTranscriptionSession.
func (c *Client) Connect(ctx context.Context, token string) (*Session, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.httpClient.Timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, c.config.wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    fmt.Sprintf("failed to connect: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("realtime: failed to connect: %w", err)
	}

	session := &Session{
		conn:     conn,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan eventOrError, 100),
	}
	go session.readLoop()
	return session, nil
}

// generateEventID generates a unique client event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// UpdateTranscriptionSession updates the transcription configuration.
// Turn detection is always sent as an explicit null: segmentation is owned
// by the client's commits, never by server VAD.
func (s *Session) UpdateTranscriptionSession(cfg *TranscriptionConfig) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeTranscriptionSessionUpdate,
		"session": map[string]interface{}{
			"input_audio_transcription": cfg,
			"turn_detection":            nil,
		},
	})
}

// AppendAudio appends one chunk of 16-bit little-endian mono PCM to the
// input audio buffer. The audio is base64 encoded before sending.
func (s *Session) AppendAudio(audio []byte) error {
	return s.AppendAudioBase64(base64.StdEncoding.EncodeToString(audio))
}

// AppendAudioBase64 appends base64-encoded audio data to the input buffer.
func (s *Session) AppendAudioBase64(audioBase64 string) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferAppend,
		"audio":    audioBase64,
	})
}

// CommitInput commits the audio buffer, asking the server to transcribe
// everything received so far as one segment.
func (s *Session) CommitInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferCommit,
	})
}

// ClearInput clears the input audio buffer without creating a segment.
func (s *Session) ClearInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferClear,
	})
}

// Events returns an iterator over server events. Error events from the
// server are yielded as events (the caller decides whether they are fatal);
// transport-level failures are yielded as errors and end the iteration.
func (s *Session) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

// sendEvent sends a JSON event to the server.
func (s *Session) sendEvent(event map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if jsonBytes, err := json.Marshal(event); err == nil {
			str := string(jsonBytes)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("realtime: sending event", "content", str)
		}
	}

	return s.conn.WriteJSON(event)
}

// readLoop reads events from the WebSocket connection.
func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
			case s.eventsCh <- eventOrError{err: fmt.Errorf("realtime: read: %w", err)}:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			msg := string(message)
			if len(msg) > 1000 {
				msg = msg[:1000] + "..."
			}
			slog.Debug("realtime: received message", "len", len(message), "content", msg)
		}

		var event ServerEvent
		if err := json.Unmarshal(message, &event); err != nil {
			// A malformed frame is a protocol error, not a transport one;
			// skip it and keep reading.
			slog.Warn("realtime: skipping malformed event", "error", err, "len", len(message))
			continue
		}
		event.Raw = message

		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- eventOrError{event: &event}:
		}
	}
}
