// Package main provides the voiceloop CLI tool.
//
// Usage:
//
//	voiceloop [flags] <command>
//
// Commands:
//
//	run        - Record speech, transcribe it, and speak a generated reply
//	transcribe - Record speech and transcribe it, without a spoken reply
//	speak      - Synthesize and play a piece of text
//	devices    - List audio devices
package main

import (
	"fmt"
	"os"

	"github.com/voiceloop/voiceloop/cmd/voiceloop/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
