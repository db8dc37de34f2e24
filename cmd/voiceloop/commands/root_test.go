package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadGlobalConfig(t *testing.T) {
	goodPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(goodPath, []byte("audio:\n  sample_rate: 24000\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tests := []struct {
		name    string
		cfgFile string
		wantErr bool
	}{
		{name: "no file uses defaults", cfgFile: ""},
		{name: "valid file loads", cfgFile: goodPath},
		{name: "missing file fails", cfgFile: filepath.Join(t.TempDir(), "absent.yaml"), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prev := cfgFile
			defer func() { cfgFile = prev }()
			cfgFile = tc.cfgFile

			err := loadGlobalConfig()
			if tc.wantErr {
				if err == nil {
					t.Fatal("loadGlobalConfig: want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadGlobalConfig: %v", err)
			}
			cfg := getConfig()
			if tc.cfgFile == "" {
				if cfg.Audio.SampleRate != 16000 {
					t.Errorf("default sample_rate = %d; want 16000", cfg.Audio.SampleRate)
				}
				return
			}
			if cfg.Audio.SampleRate != 24000 {
				t.Errorf("sample_rate = %d; want 24000 from file", cfg.Audio.SampleRate)
			}
			if cfg.Audio.ChunkSize != 1024 {
				t.Errorf("chunk_size = %d; want default 1024", cfg.Audio.ChunkSize)
			}
		})
	}
}

// An explicit --config that fails to load must fail the command instead of
// degrading to defaults.
func TestBadConfigFlagFailsCommand(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(badPath, []byte("audio:\n  sample_rate: -1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prev := cfgFile
	defer func() {
		cfgFile = prev
		rootCmd.SetArgs(nil)
	}()
	rootCmd.SetArgs([]string{"devices", "--config", badPath})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Execute with bad --config: want error, got nil")
	}
	if !strings.Contains(err.Error(), "sample_rate") {
		t.Errorf("error = %v; want the config validation failure", err)
	}
}

func TestLoadInstructions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tts.txt")
	if err := os.WriteFile(path, []byte("Speak slowly.\n"), 0644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	if got := loadInstructions(path); got != "Speak slowly." {
		t.Errorf("loadInstructions = %q; want the file contents", got)
	}
	if got := loadInstructions(""); got != "" {
		t.Errorf("loadInstructions(empty) = %q; want empty", got)
	}
	// An unreadable file is tolerated; synthesis proceeds without it.
	if got := loadInstructions(filepath.Join(t.TempDir(), "absent.txt")); got != "" {
		t.Errorf("loadInstructions(absent) = %q; want empty", got)
	}
}
