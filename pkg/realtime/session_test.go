package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// wsServer runs handler on an upgraded websocket and returns a client
// connected to it.
func wsServer(t *testing.T, handler func(conn *websocket.Conn)) *Session {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q; want Bearer tok", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := NewClient("key", WithWebSocketURL(wsURL))
	session, err := client.Connect(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSessionOutboundEvents(t *testing.T) {
	frames := make(chan map[string]interface{}, 8)
	session := wsServer(t, func(conn *websocket.Conn) {
		for {
			var frame map[string]interface{}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	})

	audio := []byte{0x01, 0x02, 0x03}
	if err := session.AppendAudio(audio); err != nil {
		t.Fatalf("AppendAudio: %v", err)
	}
	if err := session.CommitInput(); err != nil {
		t.Fatalf("CommitInput: %v", err)
	}

	appendFrame := recvFrame(t, frames)
	if appendFrame["type"] != EventTypeInputAudioBufferAppend {
		t.Errorf("first frame type = %v; want %s", appendFrame["type"], EventTypeInputAudioBufferAppend)
	}
	if got := appendFrame["audio"]; got != base64.StdEncoding.EncodeToString(audio) {
		t.Errorf("audio = %v; want base64 of %v", got, audio)
	}
	if id, _ := appendFrame["event_id"].(string); !strings.HasPrefix(id, "evt_") {
		t.Errorf("event_id = %q; want evt_ prefix", id)
	}

	commitFrame := recvFrame(t, frames)
	if commitFrame["type"] != EventTypeInputAudioBufferCommit {
		t.Errorf("second frame type = %v; want %s", commitFrame["type"], EventTypeInputAudioBufferCommit)
	}
}

func TestSessionUpdateSendsNullTurnDetection(t *testing.T) {
	frames := make(chan map[string]interface{}, 1)
	session := wsServer(t, func(conn *websocket.Conn) {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
	})

	err := session.UpdateTranscriptionSession(&TranscriptionConfig{
		Model:    ModelGPT4oTranscribe,
		Language: "en",
	})
	if err != nil {
		t.Fatalf("UpdateTranscriptionSession: %v", err)
	}

	frame := recvFrame(t, frames)
	sess, ok := frame["session"].(map[string]interface{})
	if !ok {
		t.Fatalf("frame missing session object: %v", frame)
	}
	td, present := sess["turn_detection"]
	if !present || td != nil {
		t.Errorf("turn_detection = %v (present=%v); want explicit null", td, present)
	}
}

func TestSessionInboundEvents(t *testing.T) {
	session := wsServer(t, func(conn *websocket.Conn) {
		events := []map[string]interface{}{
			{"type": EventTypeTranscriptionDelta, "delta": "hel"},
			{"type": EventTypeTranscriptionDelta, "delta": "lo"},
			{"type": EventTypeTranscriptionCompleted, "transcript": "hello"},
			{"type": EventTypeError, "error": map[string]interface{}{"code": "rate_limited", "message": "slow down"}},
		}
		for _, ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		// Hold the connection open until the client is done reading.
		conn.ReadMessage()
	})

	var got []*ServerEvent
	for event, err := range session.Events() {
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		got = append(got, event)
		if len(got) == 4 {
			break
		}
	}

	if got[0].Delta != "hel" || got[1].Delta != "lo" {
		t.Errorf("deltas = %q, %q; want hel, lo", got[0].Delta, got[1].Delta)
	}
	if got[2].Type != EventTypeTranscriptionCompleted || got[2].Transcript != "hello" {
		t.Errorf("completed event = %+v; want transcript hello", got[2])
	}
	// Server error events are delivered as events, not iterator errors.
	if got[3].Type != EventTypeError || got[3].Error == nil || got[3].Error.Code != "rate_limited" {
		t.Errorf("error event = %+v; want rate_limited detail", got[3])
	}
}

func TestSessionSkipsMalformedFrames(t *testing.T) {
	session := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		conn.WriteJSON(map[string]interface{}{"type": EventTypeTranscriptionDelta, "delta": "still here"})
		conn.ReadMessage()
	})

	// The unparseable frame must not end the session; the next valid
	// event still arrives.
	for event, err := range session.Events() {
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		if event.Type != EventTypeTranscriptionDelta || event.Delta != "still here" {
			t.Errorf("event = %+v; want the delta after the malformed frame", event)
		}
		break
	}
}

func TestSessionReadFailureEndsIteration(t *testing.T) {
	session := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]interface{}{"type": EventTypeTranscriptionDelta, "delta": "x"})
		conn.Close()
	})

	var events int
	var lastErr error
	for event, err := range session.Events() {
		if err != nil {
			lastErr = err
			continue
		}
		_ = event
		events++
	}
	if events != 1 {
		t.Errorf("got %d events; want 1", events)
	}
	if lastErr == nil {
		t.Error("want transport error after server close, got nil")
	}
}

func TestCreateTranscriptionSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q; want Bearer key", got)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["input_audio_format"] != "pcm16" {
			t.Errorf("input_audio_format = %v; want pcm16", payload["input_audio_format"])
		}
		if td, present := payload["turn_detection"]; !present || td != nil {
			t.Errorf("turn_detection = %v (present=%v); want explicit null", td, present)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"client_secret": map[string]interface{}{"value": "eph_123"},
		})
	}))
	defer srv.Close()

	client := NewClient("key", WithSessionURL(srv.URL))
	token, err := client.CreateTranscriptionSession(context.Background(), &TranscriptionConfig{
		Model: ModelGPT4oMiniTranscribe,
	})
	if err != nil {
		t.Fatalf("CreateTranscriptionSession: %v", err)
	}
	if token != "eph_123" {
		t.Errorf("token = %q; want eph_123", token)
	}
}

func TestCreateTranscriptionSessionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("key", WithSessionURL(srv.URL))
	_, err := client.CreateTranscriptionSession(context.Background(), &TranscriptionConfig{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v; want *realtime.Error", err)
	}
	if apiErr.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("HTTPStatus = %d; want 401", apiErr.HTTPStatus)
	}
}

func recvFrame(t *testing.T, frames chan map[string]interface{}) map[string]interface{} {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}
