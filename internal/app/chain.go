package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"horse.fit/telephone/internal/cli"
	"horse.fit/telephone/internal/db"
	"horse.fit/telephone/internal/language"
	"horse.fit/telephone/internal/logging"
	"horse.fit/telephone/internal/stream"
	"horse.fit/telephone/internal/telephone"
)

const envAPIKey = "TELEPHONE_API_KEY"

func runChain(args []string) int {
	fs := flag.NewFlagSet("chain", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	text := fs.String("text", "", "Text to send through the chain (defaults to the remaining arguments)")
	route := fs.String("chain", "", "Comma-separated language codes, e.g. DE,FR,ES")
	random := fs.Int("random", 0, "Generate a random chain of this many hops")
	start := fs.String("start", "", "Source language code (detected when empty)")
	provider := fs.String("provider", "", "Translation provider (defaults to TRANSLATION_PROVIDER)")
	apiKey := fs.String("api-key", "", "Provider credential (defaults to "+envAPIKey+")")
	jsonOut := fs.Bool("json", false, "Print SSE frames instead of text")
	save := fs.Bool("save", false, "Store the completed run in the history database")
	timeout := fs.Duration("timeout", 5*time.Minute, "Overall run timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	req, err := buildChainRequest(*text, fs.Args(), *route, *random, *start, *apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if req.Credential == "" {
		req.Credential = strings.TrimSpace(os.Getenv(envAPIKey))
	}

	logger, err := logging.NewWithWriter(os.Stderr, cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register translation providers: %v\n", err)
		return 1
	}

	if err := req.Validate(language.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid request: %v\n", err)
		return 2
	}

	p, err := registry.Open(*provider, req.Credential)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open provider: %v\n", err)
		return 1
	}

	var pool *db.Pool
	if *save {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err = db.NewPool(dbCtx, cfg)
		dbCancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
			return 1
		}
		defer pool.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	orch, err := telephone.New(p, telephone.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	run, err := orch.Start(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid request: %v\n", err)
		return 2
	}

	if *jsonOut {
		if err := stream.Pump(run.Events(), stream.NewEncoder(os.Stdout), nil); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			return 1
		}
	} else {
		printChainEvents(os.Stdout, run)
	}

	if err := run.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Chain failed: %v\n", err)
		return 1
	}

	if pool != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		if err := pool.InsertChainRun(saveCtx, db.InsertChainRunParams{
			RunUUID:  run.ID(),
			Provider: p.Name(),
			Result:   run.Result(),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save run: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Saved run %s\n", run.ID())
	}

	return 0
}

// buildChainRequest maps flags onto a request. Positional args are the text
// when --text is empty.
func buildChainRequest(text string, rest []string, route string, random int, start, apiKey string) (telephone.Request, error) {
	if strings.TrimSpace(text) == "" {
		text = strings.Join(rest, " ")
	}
	if strings.TrimSpace(text) == "" {
		return telephone.Request{}, fmt.Errorf("--text is required")
	}

	req := telephone.Request{
		Text:          text,
		LanguageChain: splitChainFlag(route),
		StartLanguage: strings.TrimSpace(start),
		Credential:    strings.TrimSpace(apiKey),
	}
	if random != 0 {
		n := random
		req.RandomChainLength = &n
	}
	if req.LanguageChain == nil && req.RandomChainLength == nil {
		return telephone.Request{}, fmt.Errorf("one of --chain or --random is required")
	}
	return req, nil
}

func splitChainFlag(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(parts) == 0 {
		return nil
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToUpper(strings.TrimSpace(part)))
	}
	return out
}

func printChainEvents(w io.Writer, run *telephone.Run) {
	for ev := range run.Events() {
		switch ev.Type {
		case telephone.EventProgress:
			step := ev.Step
			fmt.Fprintf(w, "[%d/%d] %s (%s)  divergence %d\n", ev.CurrentStep, ev.TotalSteps, step.Language, step.LanguageName, step.Divergence)
			fmt.Fprintf(w, "  %s\n", step.Text)
			fmt.Fprintf(w, "  back: %s\n", step.BackTranslation)
		case telephone.EventComplete:
			result := ev.Result
			fmt.Fprintln(w, "")
			fmt.Fprintf(w, "Original (%s): %s\n", result.OriginalLanguage, result.Original)
			fmt.Fprintf(w, "Final:    %s\n", result.FinalText)
			fmt.Fprintf(w, "Final divergence: %d\n", result.FinalDivergence())
		}
	}
}
