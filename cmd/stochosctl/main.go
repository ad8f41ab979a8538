package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"stochos/internal/sampler"
	"stochos/internal/storage"
	stochosapi "stochos/pkg/stochos"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "models":
		return runModels(ctx, args[1:])
	case "infer":
		return runInfer(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(storeKind, dbPath string) (*stochosapi.Client, error) {
	return stochosapi.New(stochosapi.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runModels(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit model list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	models, err := client.Models(ctx)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	for _, m := range models {
		fmt.Printf("%s latents=%v results=%v\n  %s\n", m.Name, m.Latents, m.Results, m.Description)
	}
	return nil
}

func runInfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	modelName := fs.String("model", "coin-bias", "registered model name")
	strategy := fs.String("strategy", sampler.StrategyForward, "inference strategy: forward-sampling|rejection-sampling|metropolis-hastings")
	samples := fs.Int("samples", 1000, "sample count to collect")
	seed := fs.Int64("seed", 1, "rng seed")
	maxAttempts := fs.Int("max-attempts", 0, "rejection sampling attempt bound (0 derives from samples)")
	burnIn := fs.Int("burn-in", 0, "metropolis-hastings burn-in iterations")
	thin := fs.Int("thin", 1, "metropolis-hastings thinning interval")
	stepsFlag := fs.String("steps", "", "comma-separated metropolis-hastings step sizes, one per latent (empty uses the default)")
	workers := fs.Int("workers", 1, "forward sampling worker count")
	priorCheck := fs.Bool("prior-check", false, "run a prior-predictive companion pass and write prior_check.json")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	steps, err := parseSteps(*stepsFlag)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	started := time.Now()
	summary, err := client.Infer(ctx, stochosapi.InferRequest{
		Model:       *modelName,
		Strategy:    *strategy,
		Samples:     *samples,
		Seed:        *seed,
		MaxAttempts: *maxAttempts,
		BurnIn:      *burnIn,
		Thin:        *thin,
		Steps:       steps,
		Workers:     *workers,
		PriorCheck:  *priorCheck,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("run %s finished in %s\n", summary.RunID, elapsed.Round(time.Millisecond))
	fmt.Printf("  collected=%s proposed=%s acceptance=%s stop=%s\n",
		humanize.Comma(int64(summary.Collected)),
		humanize.Comma(int64(summary.Proposed)),
		humanize.FtoaWithDigits(summary.AcceptanceRatio, 4),
		summary.StopReason)
	for _, v := range summary.Variables {
		fmt.Printf("  %s mean=%s stddev=%s n=%s\n",
			v.Name,
			humanize.FtoaWithDigits(v.Mean, 4),
			humanize.FtoaWithDigits(v.StdDev, 4),
			humanize.Comma(int64(v.Count)))
	}
	if summary.PriorCheck != nil {
		for name, shift := range summary.PriorCheck.MeanShift {
			fmt.Printf("  prior-check %s shift=%s\n", name, humanize.FtoaWithDigits(shift, 4))
		}
	}
	fmt.Printf("  artifacts: %s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	showPriorCheck := fs.Bool("show-prior-check", false, "show prior-check mean shift when available")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, stochosapi.RunsRequest{Limit: *limit, ShowPriorCheck: *showPriorCheck})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		age := r.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		line := fmt.Sprintf("%s %s model=%s strategy=%s seed=%d collected=%s acceptance=%s stop=%s",
			r.RunID, age, r.Model, r.Strategy, r.Seed,
			humanize.Comma(int64(r.Collected)),
			humanize.FtoaWithDigits(r.AcceptanceRatio, 4),
			r.StopReason)
		if *showPriorCheck && r.PriorMeanShift != nil {
			line += fmt.Sprintf(" prior-shift=%v", r.PriorMeanShift)
		}
		fmt.Println(line)
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to read traces for")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 10, "max traces to print (0 prints all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	traces, err := client.Trace(ctx, stochosapi.TraceRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(traces)
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	modelName := fs.String("model", "", "model name to describe")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit model summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	item, err := client.ModelSummary(ctx, *modelName)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}

	fmt.Printf("%s\n  %s\n  latents=%v results=%v\n", item.Name, item.Description, item.Latents, item.Results)
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to read diagnostics for")
	latest := fs.Bool("latest", false, "use the most recent run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stochos.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, stochosapi.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	fmt.Printf("run %s proposed=%s accepted=%s acceptance=%s stop=%s\n",
		diagnostics.RunID,
		humanize.Comma(int64(diagnostics.Proposed)),
		humanize.Comma(int64(diagnostics.Accepted)),
		humanize.FtoaWithDigits(diagnostics.AcceptanceRatio, 4),
		diagnostics.StopReason)
	for _, v := range diagnostics.Variables {
		fmt.Printf("  %s mean=%s stddev=%s min=%s max=%s\n",
			v.Name,
			humanize.FtoaWithDigits(v.Mean, 4),
			humanize.FtoaWithDigits(v.StdDev, 4),
			humanize.FtoaWithDigits(v.Min, 4),
			humanize.FtoaWithDigits(v.Max, 4))
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "destination directory (defaults to exports/)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, stochosapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run %s to %s\n", summary.RunID, summary.Directory)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: stochosctl <init|reset|models|infer|runs|trace|summary|diagnostics|export> [flags]", msg)
}
