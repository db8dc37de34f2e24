package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
audio:
  sample_rate: 24000
  commit_interval: 3s
transcription:
  model: gpt-4o-mini-transcribe
  language: fr
synthesis:
  voice: onyx
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 24000 {
		t.Errorf("SampleRate = %d; want 24000", cfg.Audio.SampleRate)
	}
	// Untouched keys keep their defaults.
	if cfg.Audio.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d; want default 1024", cfg.Audio.ChunkSize)
	}
	if cfg.Audio.OverlapSeconds != 5 {
		t.Errorf("OverlapSeconds = %v; want default 5", cfg.Audio.OverlapSeconds)
	}
	d, err := cfg.CommitInterval()
	if err != nil || d != 3*time.Second {
		t.Errorf("CommitInterval = (%v, %v); want 3s", d, err)
	}
	if cfg.Transcription.Language != "fr" {
		t.Errorf("Language = %q; want fr", cfg.Transcription.Language)
	}
	if cfg.Synthesis.Voice != "onyx" {
		t.Errorf("Voice = %q; want onyx", cfg.Synthesis.Voice)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{"zero chunk size", "audio:\n  chunk_size: -4\n", "chunk_size"},
		{"negative overlap", "audio:\n  overlap_seconds: -1\n", "overlap_seconds"},
		{"bad interval", "audio:\n  commit_interval: soon\n", "commit_interval"},
		{"zero interval", "audio:\n  commit_interval: 0s\n", "commit_interval"},
		{"malformed yaml", "audio: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("Load = %v; want error mentioning %q", err, tt.wantIn)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestResolveAPIKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "$VOICELOOP_TEST_KEY"
	t.Setenv("VOICELOOP_TEST_KEY", "sk-test")
	key, err := cfg.ResolveAPIKey()
	if err != nil || key != "sk-test" {
		t.Errorf("ResolveAPIKey = (%q, %v); want sk-test", key, err)
	}

	cfg.APIKey = "sk-literal"
	if key, _ := cfg.ResolveAPIKey(); key != "sk-literal" {
		t.Errorf("literal key = %q", key)
	}

	cfg.APIKey = "$VOICELOOP_UNSET_KEY"
	os.Unsetenv("VOICELOOP_UNSET_KEY")
	if _, err := cfg.ResolveAPIKey(); err == nil {
		t.Error("want error for unset env key")
	}
}
