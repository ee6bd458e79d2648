// Package main provides the cursorclaw binary: a single-user Telegram relay
// for a local coding agent, with one-shot reminders delivered by a timer.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
