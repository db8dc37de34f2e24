// Package realtime provides a client for OpenAI Realtime transcription
// sessions over WebSocket.
//
// A session is established in two steps, matching the API: an HTTP call
// creates a transcription session and returns an ephemeral client secret,
// then the WebSocket is dialed with that secret.
//
//	client := realtime.NewClient(apiKey)
//	token, err := client.CreateTranscriptionSession(ctx, &realtime.TranscriptionConfig{
//	    Model:    realtime.ModelGPT4oTranscribe,
//	    Language: "en",
//	})
//	if err != nil {
//	    return err
//	}
//	session, err := client.Connect(ctx, token)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
// Audio is streamed with AppendAudio and segmented with CommitInput:
//
//	err = session.AppendAudio(pcmChunk) // 16-bit LE mono PCM
//	err = session.CommitInput()         // finalize a segment
//
// Server events are consumed through the Events iterator:
//
//	for event, err := range session.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    switch event.Type {
//	    case realtime.EventTypeTranscriptionDelta:
//	        fmt.Print(event.Delta)
//	    case realtime.EventTypeTranscriptionCompleted:
//	        fmt.Println(event.Transcript)
//	    }
//	}
package realtime
