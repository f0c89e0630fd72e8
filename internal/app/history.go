package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/telephone/internal/cli"
	"horse.fit/telephone/internal/db"
)

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	runID := fs.String("run", "", "Show one run by UUID instead of listing")
	limit := fs.Int("limit", db.DefaultListLimit, "Maximum rows to return")
	offset := fs.Int("offset", 0, "Rows to skip")
	formatRaw := fs.String("format", outputFormatTable, "Output format: table|json")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")

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
	if *limit <= 0 || *limit > db.MaxListLimit {
		fmt.Fprintf(os.Stderr, "--limit must be between 1 and %d\n", db.MaxListLimit)
		return 2
	}
	if *offset < 0 {
		fmt.Fprintln(os.Stderr, "--offset must be >= 0")
		return 2
	}
	trimmedRunID := strings.TrimSpace(*runID)
	if trimmedRunID != "" {
		if _, err := uuid.Parse(trimmedRunID); err != nil {
			fmt.Fprintln(os.Stderr, "--run must be a UUID")
			return 2
		}
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	if trimmedRunID != "" {
		detail, err := pool.GetChainRunByUUID(ctx, trimmedRunID)
		if err != nil {
			if db.IsNoRows(err) {
				fmt.Fprintf(os.Stderr, "run %s not found\n", trimmedRunID)
				return 1
			}
			fmt.Fprintf(os.Stderr, "Failed to load run: %v\n", err)
			return 1
		}
		if format == outputFormatJSON {
			if err := printJSON(detail); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
				return 1
			}
			return 0
		}
		return renderRunDetail(detail)
	}

	page, err := pool.ListChainRuns(ctx, *limit, *offset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		return 1
	}

	if format == outputFormatJSON {
		if err := printJSON(page); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, []string{
			item.RunUUID,
			formatUTCTimestamp(item.CreatedAt),
			item.Provider,
			item.OriginalLanguage,
			strconv.Itoa(item.TotalSteps),
			strconv.Itoa(item.FinalDivergence),
			truncateForTable(item.OriginalText, 40),
		})
	}
	if err := writeTable([]string{"RUN", "CREATED_AT", "PROVIDER", "SOURCE", "STEPS", "DIVERGENCE", "TEXT"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "showing %d of %d runs\n", len(page.Items), page.Total)
	return 0
}

func renderRunDetail(detail db.ChainRunDetail) int {
	fmt.Printf("Run:      %s\n", detail.RunUUID)
	fmt.Printf("Created:  %s\n", formatUTCTimestamp(detail.CreatedAt))
	fmt.Printf("Provider: %s\n", detail.Provider)
	fmt.Printf("Original (%s): %s\n", detail.OriginalLanguage, detail.OriginalText)
	fmt.Printf("Final:    %s\n\n", detail.FinalText)

	rows := make([][]string, 0, len(detail.Steps))
	for _, step := range detail.Steps {
		rows = append(rows, []string{
			strconv.Itoa(step.Step),
			step.Language,
			strconv.Itoa(step.Divergence),
			truncateForTable(step.Text, 40),
			truncateForTable(step.BackTranslation, 40),
		})
	}
	if err := writeTable([]string{"STEP", "LANG", "DIVERGENCE", "TEXT", "BACK"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
