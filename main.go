// Package main is the entry point of claudebridge, an HTTP bridge from
// webhook-style automation callers to the Claude Code CLI.
package main

import (
	"claudebridge/cmd"
)

func main() {
	cmd.Execute()
}
