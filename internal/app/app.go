package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "serve":
		return runServe(args[1:])
	case "chain":
		return runChain(args[1:])
	case "languages":
		return runLanguages(args[1:])
	case "score":
		return runScore(args[1:])
	case "history":
		return runHistory(args[1:])
	case "health":
		return runHealth(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "telephone CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  telephone <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve       Start the HTTP API server")
	fmt.Fprintln(os.Stderr, "  chain       Run one translation chain and print every hop")
	fmt.Fprintln(os.Stderr, "  languages   List supported languages")
	fmt.Fprintln(os.Stderr, "  score       Compute the divergence between two texts")
	fmt.Fprintln(os.Stderr, "  history     List or show stored chain runs")
	fmt.Fprintln(os.Stderr, "  health      Verify configuration and database connectivity")
	fmt.Fprintln(os.Stderr, "  hash-token  Print a bcrypt hash for HISTORY_TOKEN_HASH")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"telephone <command> -h\" for command-specific flags.")
}
