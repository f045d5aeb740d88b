package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"era-admin-console/internal/api"
	"era-admin-console/internal/auth"
	"era-admin-console/internal/config"
	"era-admin-console/pkg/importer"
	"era-admin-console/pkg/logger"
)

func main() {
	var (
		filePath    = flag.String("file", "", "Path to the .xlsx inventory log")
		mappingPath = flag.String("mapping", "", "Column mapping YAML (default: built-in aliases)")
		dryRun      = flag.Bool("dry-run", false, "Validate rows without creating items")
		maxErrors   = flag.Int("max-errors", 50, "Stop after this many failed rows")
		envFile     = flag.String("env", "", "Path to an env file")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Println("Usage: import_excel -file=path.xlsx [-mapping=configs/mapping/inventory.yaml] [-dry-run] [-max-errors=50]")
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*envFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	zl := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = zl.Sync() }()

	// Items are created as the logged-in console user.
	session := auth.NewSession(auth.NewFileTokenStore(cfg.TokenFile))
	if err := session.Init(); err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	if _, err := session.Token(); err != nil && !*dryRun {
		log.Fatalf("Log in to the console first: %v", err)
	}
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, session, api.WithLogger(logger.Named(zl, "api")))

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing from %s into %s (dry_run=%v)\n", *filePath, cfg.APIBaseURL, *dryRun)
	fmt.Println("=" + strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(context.Background(), client, file, importer.ImportOptions{
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
		Logger:      logger.Named(zl, "importer"),
	})
	if err != nil {
		log.Printf("Import stopped: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total created: %d\n", summary.Created)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: created=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Created, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
