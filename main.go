// Package main is the entry point for the matchstats CLI, which reshapes wide
// per-match stat exports into long-format datasets.
package main

import "github.com/pable/matchstats/cmd"

func main() {
	cmd.Execute()
}
