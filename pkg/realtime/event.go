package realtime

// Client event types (sent from client to server).
const (
	EventTypeTranscriptionSessionUpdate = "transcription_session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"
)

// Server event types (sent from server to client).
const (
	EventTypeError = "error"

	EventTypeTranscriptionSessionCreated = "transcription_session.created"
	EventTypeTranscriptionSessionUpdated = "transcription_session.updated"

	EventTypeTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	EventTypeTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"

	EventTypeInputAudioBufferCommitted = "input_audio_buffer.committed"
)

// ServerEvent represents a server event received from the Realtime API.
type ServerEvent struct {
	// Type is the event type.
	Type string `json:"type"`

	// EventID is the unique identifier for this event.
	EventID string `json:"event_id,omitzero"`

	// ItemID identifies the conversation item a transcription belongs to.
	ItemID string `json:"item_id,omitzero"`

	// Delta contains incremental transcription text (delta events).
	Delta string `json:"delta,omitzero"`

	// Transcript is the completed segment text (completed events).
	Transcript string `json:"transcript,omitzero"`

	// Error carries the error detail for error and failed events.
	Error *EventError `json:"error,omitzero"`

	// Raw contains the original JSON message.
	Raw []byte `json:"-"`
}
