package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the datasets. Every command reloads them from disk. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellCommands maps REPL verbs to the matching subcommand handlers.
var shellCommands = map[string]struct {
	run   func(*cobra.Command, []string) error
	nargs int // -1 means one or more
}{
	"list":    {runList, 0},
	"summary": {runSummary, 0},
	"verify":  {runVerify, 0},
	"show":    {runShow, 1},
	"sql":     {runSQL, -1},
}

func runShell(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cGreeting.Fprintln(out, "matchstats shell")
	cMuted.Fprintln(out, "type 'help' or 'exit'")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cPrompt.Fprint(out, "matchstats")
		cMuted.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		verb, args := tokens[0], tokens[1:]

		switch verb {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp(cmd)
			continue
		}

		c, ok := shellCommands[verb]
		if !ok {
			cWarn.Fprintf(errOut, "unknown command %q, type 'help'\n", verb)
			continue
		}
		if (c.nargs >= 0 && len(args) != c.nargs) || (c.nargs < 0 && len(args) == 0) {
			cError.Fprintf(errOut, "wrong number of arguments for %s, type 'help'\n", verb)
			continue
		}
		if verb == "sql" {
			args = []string{strings.TrimSpace(strings.TrimPrefix(line, verb))}
		}
		if err := c.run(cmd, args); err != nil {
			cError.Fprintf(errOut, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func shellHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored matches"},
		{"show <match_id>", "show a match's stats"},
		{"summary", "dataset overview"},
		{"sql <query>", "run SQL against core_stats and match_info"},
		{"verify", "check dataset integrity"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(out, "  ")
		cCmd.Fprintf(out, "%-22s", r.cmd)
		fmt.Fprintln(out, r.desc)
	}
	fmt.Fprintln(out)
}
