package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"horse.fit/telephone/internal/language"
)

func runLanguages(args []string) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	formatRaw := fs.String("format", outputFormatTable, "Output format: table|json")

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

	entries := language.Default().Entries()

	if format == outputFormatJSON {
		if err := printJSON(entries); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	tableRows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		tableRows = append(tableRows, []string{string(entry.Code), entry.Name})
	}
	if err := writeTable([]string{"CODE", "NAME"}, tableRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
