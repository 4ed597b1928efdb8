package main

import (
	"fmt"
	"os"

	"github.com/nixlim/chat-top/internal/settings"
)

// RunInit creates the config file, or adds any sections and keys it is
// missing, and prints the result.
//
// Exit codes:
//   - 0: success or already configured
//   - 1: error
func RunInit(path string) {
	output := settings.Merge(settings.MergeOptions{ConfigPath: path})

	for _, msg := range output.Messages {
		fmt.Println(msg)
	}

	for _, w := range output.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	switch output.Result {
	case settings.MergeSuccess:
		fmt.Println("Config updated.")
		os.Exit(0)
	case settings.MergeAlreadyConfigured:
		fmt.Println("Already configured. No changes needed.")
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", output.Err)
		os.Exit(1)
	}
}
