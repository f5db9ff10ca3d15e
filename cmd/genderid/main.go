// Package main is the entry point for the genderid CLI.
//
// Usage:
//
//	genderid [flags] <command> [args]
//
// Commands:
//
//	prepare    - Build train/valid/test manifests from a LibriSpeech-style corpus
//	train      - Train the speaker-gender classifier and evaluate the best checkpoint
//	evaluate   - Evaluate the best checkpoint on the test split
//	runs       - List and inspect recorded training runs
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/genderid/cmd/genderid/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
