package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/ogunacik/kartbox/internal/config"
	"github.com/ogunacik/kartbox/internal/importer"
	"github.com/ogunacik/kartbox/internal/progress"
	"github.com/ogunacik/kartbox/internal/storage"
	"github.com/ogunacik/kartbox/internal/web"
)

func main() {
	fs := pflag.NewFlagSet("kartbox", pflag.ExitOnError)
	configPath := fs.String("config", "kartbox.yaml", "Path to the YAML config file")
	runImport := fs.Bool("import", false, "Sync deck sources, import new cards and exit")
	showDue := fs.Bool("due", false, "Print due card counts per tag and exit")
	config.Flags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Config seeds the settings row once; later edits through the API win.
	if err := db.SeedSettings(cfg.Settings()); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}

	imp := importer.New(db, cfg.ReposDir, nil)

	switch {
	case *runImport:
		report := imp.Run(cfg.Decks)
		fmt.Printf("Imported %d new cards from %d sources (%d already known).\n",
			report.Inserted, report.Sources, report.Skipped)
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "- %v\n", e)
		}
		if len(report.Errors) > 0 {
			os.Exit(1)
		}
	case *showDue:
		if err := printDue(db); err != nil {
			log.Fatalf("Failed to list due cards: %v", err)
		}
	default:
		tracker := progress.NewTracker(db, db, nil)
		server := web.NewServer(db, tracker, imp, cfg.Decks, nil)
		log.Printf("Listening on %s (database %s)", cfg.Addr, cfg.DB)
		if err := http.ListenAndServe(cfg.Addr, server); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}
