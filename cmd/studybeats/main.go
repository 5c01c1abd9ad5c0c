// Package main is the entry point for the studybeats command.
//
// Build:
//
//	go build -o build/studybeats ./cmd/studybeats
//
// Run:
//
//	./build/studybeats play playlist.json
package main

import "github.com/tejashwikalptaru/studybeats/internal/cli"

func main() {
	cli.Execute()
}
