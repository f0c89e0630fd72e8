package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/telephone/internal/divergence"
)

type scoreOutput struct {
	Original       string   `json:"original"`
	Compared       string   `json:"compared"`
	Divergence     int      `json:"divergence"`
	Policy         int      `json:"policy"`
	OriginalTokens []string `json:"original_tokens,omitempty"`
	ComparedTokens []string `json:"compared_tokens,omitempty"`
}

func runScore(args []string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	formatRaw := fs.String("format", outputFormatTable, "Output format: table|json")
	verbose := fs.Bool("verbose", false, "Include the content tokens of both texts")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	format, err := parseOutputFormat(*formatRaw, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: telephone score [flags] <original> <compared>")
		return 2
	}

	out := scoreOutput{
		Original:   fs.Arg(0),
		Compared:   fs.Arg(1),
		Divergence: divergence.Score(fs.Arg(0), fs.Arg(1)),
		Policy:     divergence.PolicyVersion,
	}
	if *verbose {
		out.OriginalTokens = divergence.Tokens(out.Original)
		out.ComparedTokens = divergence.Tokens(out.Compared)
	}

	if format == outputFormatJSON {
		if err := printJSON(out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"divergence", fmt.Sprintf("%d", out.Divergence)},
		{"policy", fmt.Sprintf("v%d", out.Policy)},
	}
	if *verbose {
		rows = append(rows,
			[]string{"original_tokens", strings.Join(out.OriginalTokens, " ")},
			[]string{"compared_tokens", strings.Join(out.ComparedTokens, " ")},
		)
	}
	if err := writeTable([]string{"FIELD", "VALUE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
