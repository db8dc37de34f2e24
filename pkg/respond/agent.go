// Package respond turns a finished transcript into a spoken-ready reply.
//
// The agent works in two passes over the chat API: a cleanup pass rewrites
// the raw transcript (filler words out, broken sentences repaired), then a
// response pass streams a reply to the cleaned transcript. The streamed
// reply is exposed as an io.Reader so downstream sentence splitting can
// start before the model finishes.
package respond

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
)

// Agent rewrites transcripts and generates replies.
type Agent struct {
	Client openai.Client

	// CleanupModel rewrites the transcript. Defaults to gpt-4.1-mini.
	CleanupModel string
	// ResponseModel generates the reply. Defaults to gpt-4.1.
	ResponseModel string

	// System prompts for the two passes.
	CleanupPrompt  string
	ResponsePrompt string

	Logger *slog.Logger
}

// ReadPrompt loads a prompt file, trimming trailing whitespace.
func ReadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("respond: read prompt: %w", err)
	}
	return strings.TrimRight(string(data), "\n "), nil
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Cleanup rewrites the transcript and returns the cleaned text.
func (a *Agent) Cleanup(ctx context.Context, transcript string) (string, error) {
	resp, err := a.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: cmp.Or(a.CleanupModel, openai.ChatModelGPT4_1Mini),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.CleanupPrompt),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return "", fmt.Errorf("respond: cleanup: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("respond: cleanup: empty completion")
	}
	cleaned := resp.Choices[0].Message.Content
	a.logger().Info("transcript cleaned", "in", len(transcript), "out", len(cleaned))
	return cleaned, nil
}

// StreamResponse streams a reply to the cleaned transcript. The returned
// reader yields reply text as it arrives; a stream failure surfaces as the
// reader's error.
func (a *Agent) StreamResponse(ctx context.Context, cleaned string) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		stream := a.Client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model: cmp.Or(a.ResponseModel, openai.ChatModelGPT4_1),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(a.ResponsePrompt),
				openai.UserMessage(cleaned),
			},
		})
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if _, err := io.WriteString(pw, delta); err != nil {
				// Reader side closed; stop pulling chunks.
				stream.Close()
				return
			}
		}
		if err := stream.Err(); err != nil {
			pw.CloseWithError(fmt.Errorf("respond: response stream: %w", err))
			return
		}
		pw.Close()
	}()
	return pr
}

// Respond runs the cleanup pass and then streams the reply.
func (a *Agent) Respond(ctx context.Context, transcript string) (io.Reader, error) {
	cleaned, err := a.Cleanup(ctx, transcript)
	if err != nil {
		return nil, err
	}
	return a.StreamResponse(ctx, cleaned), nil
}
