package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tharunjacob/firetrackspendz/internal/analytics"
	"github.com/tharunjacob/firetrackspendz/internal/categorize"
	"github.com/tharunjacob/firetrackspendz/internal/gcsfetch"
	"github.com/tharunjacob/firetrackspendz/internal/logger"
	"github.com/tharunjacob/firetrackspendz/internal/mapping"
	"github.com/tharunjacob/firetrackspendz/internal/oracle"
	"github.com/tharunjacob/firetrackspendz/internal/pipeline"
	"github.com/tharunjacob/firetrackspendz/internal/resolver"
	"github.com/tharunjacob/firetrackspendz/internal/store"
)

const defaultDBPath = "firetrack.db"

func main() {
	godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		runImport(log)
	case "rules":
		runRules(log)
	case "list":
		runList(log)
	case "export-bq":
		runExportBQ(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FireTrackSpendz CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import     Import statement files (CSV/XLSX/OFX/PDF, local paths or gs:// URIs)")
	fmt.Println("  rules      Manage learned category rules")
	fmt.Println("  list       List imported transactions from the local ledger")
	fmt.Println("  export-bq  Export the local ledger to BigQuery")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func openDB(log zerolog.Logger, path string) *sql.DB {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open database")
	}
	return db
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner label for all files (defaults to each filename stem)")
	dbPath := fs.String("db", defaultDBPath, "Path to the local ledger database")
	noAI := fs.Bool("no-ai", false, "Disable the AI schema oracle, use deterministic matching only")
	fs.Parse(os.Args[2:])

	if fs.NArg() == 0 {
		log.Fatal().Msg("Usage: cli import [-owner NAME] FILE [FILE...]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db := openDB(log, *dbPath)
	defer db.Close()

	imp := buildImporter(ctx, log, db, !*noAI)

	var files []pipeline.InputFile
	for _, arg := range fs.Args() {
		f, err := loadInput(ctx, arg, *owner)
		if err != nil {
			log.Fatal().Err(err).Str("input", arg).Msg("Failed to read input")
		}
		files = append(files, f)
	}

	state, err := imp.ImportBatch(ctx, files)
	printSummary(state)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
}

func buildImporter(ctx context.Context, log zerolog.Logger, db *sql.DB, withAI bool) *pipeline.Importer {
	cache, err := mapping.NewSQLite(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare mapping cache")
	}
	rules, err := categorize.NewSQLiteRules(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare rule store")
	}
	ledger, err := store.NewSQLite(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare ledger")
	}
	res, err := resolver.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load synonym tables")
	}
	engine, err := categorize.NewEngine(rules)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load category rules")
	}

	cfg := pipeline.Config{
		Cache:    cache,
		Resolver: res,
		Engine:   engine,
		Sink:     ledger,
	}
	if withAI && os.Getenv("GEMINI_API_KEY") != "" {
		gem, err := oracle.NewGemini(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create model client")
		}
		cfg.Oracle = gem
		cfg.Extractor = gem
	} else {
		log.Info().Msg("AI schema oracle disabled, deterministic matching only")
	}

	imp, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build importer")
	}
	return imp
}

func loadInput(ctx context.Context, arg, owner string) (pipeline.InputFile, error) {
	var (
		data []byte
		name string
		err  error
	)
	if gcsfetch.IsGCSURI(arg) {
		data, err = gcsfetch.Fetch(ctx, arg)
		name = gcsfetch.Filename(arg)
	} else {
		data, err = os.ReadFile(arg)
		name = filepath.Base(arg)
	}
	if err != nil {
		return pipeline.InputFile{}, err
	}
	if owner == "" {
		owner = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return pipeline.InputFile{Name: name, Owner: owner, Data: data}, nil
}

func printSummary(state *pipeline.State) {
	if state == nil {
		return
	}
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	bold.Printf("\nBatch %s\n", state.BatchID)
	for _, stat := range state.FileStats {
		if stat.Err != nil {
			red.Printf("  ✗ %s (%s): %v\n", stat.Name, stat.Owner, stat.Err)
			continue
		}
		green.Printf("  ✓ %s (%s): %d transactions\n", stat.Name, stat.Owner, stat.Transactions)
	}
	cyan.Printf("  %d inter-account transfer pair(s) reconciled\n", state.TransferCount)
	bold.Printf("  %d transactions total\n\n", len(state.Transactions))
}

func runRules(log zerolog.Logger) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the local ledger database")
	add := fs.String("add", "", "Add a rule: -add keyword=Category")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	db := openDB(log, *dbPath)
	defer db.Close()

	rules, err := categorize.NewSQLiteRules(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare rule store")
	}

	if *add != "" {
		keyword, category, found := strings.Cut(*add, "=")
		if !found || keyword == "" || category == "" {
			log.Fatal().Msg("Usage: cli rules -add keyword=Category")
		}
		if err := rules.Put(ctx, keyword, category); err != nil {
			log.Fatal().Err(err).Msg("Failed to store rule")
		}
		fmt.Printf("Learned: %q -> %s\n", strings.ToLower(keyword), category)
		return
	}

	all, err := rules.All(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list rules")
	}
	if len(all) == 0 {
		fmt.Println("No learned rules yet. Add one with: cli rules -add keyword=Category")
		return
	}
	fmt.Printf("Learned rules (%d):\n", len(all))
	for keyword, category := range all {
		fmt.Printf("  %-30s -> %s\n", keyword, category)
	}
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the local ledger database")
	owner := fs.String("owner", "", "Filter by owner")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	db := openDB(log, *dbPath)
	defer db.Close()

	ledger, err := store.NewSQLite(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	txs, err := ledger.List(ctx, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	fmt.Printf("%d transaction(s)\n", len(txs))
	for _, t := range txs {
		fmt.Printf("%s  %-8s  %10.2f  %-20s  %s\n", t.Date, t.Type, t.Amount, t.Category, t.Notes)
	}
}

func runExportBQ(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the local ledger database")
	project := fs.String("project", os.Getenv("BQ_PROJECT_ID"), "BigQuery project id")
	dataset := fs.String("dataset", "finance", "BigQuery dataset")
	owner := fs.String("owner", "", "Export only this owner's transactions")
	batchID := fs.String("batch-id", "", "Batch id to stamp on exported rows (defaults to a timestamp)")
	fs.Parse(os.Args[2:])

	if *project == "" {
		log.Fatal().Msg("Error: -project (or BQ_PROJECT_ID) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db := openDB(log, *dbPath)
	defer db.Close()

	ledger, err := store.NewSQLite(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	txs, err := ledger.List(ctx, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}
	if len(txs) == 0 {
		fmt.Println("Nothing to export.")
		return
	}

	exporter, err := analytics.NewExporter(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exporter")
	}
	defer exporter.Close()

	if *batchID == "" {
		*batchID = "export-" + time.Now().UTC().Format("20060102-150405")
	}
	if err := exporter.Export(ctx, *batchID, txs); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Exported %d transactions to %s.%s (batch %s)\n", len(txs), *project, *dataset, *batchID)
}
