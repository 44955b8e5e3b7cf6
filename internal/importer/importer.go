// Package importer reconciles configured markdown deck sources into the
// card store. Imports only add cards: a deck file edit shows up as a new
// card, and removing a file never deletes what the user already studies.
package importer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogunacik/kartbox/internal/config"
	"github.com/ogunacik/kartbox/internal/deck"
	"github.com/ogunacik/kartbox/internal/domain"
	"github.com/ogunacik/kartbox/internal/gitsource"
	"github.com/ogunacik/kartbox/internal/parser"
	"github.com/ogunacik/kartbox/internal/srs"
)

// Store is the card persistence the importer reads and appends to.
type Store interface {
	GetCards() ([]domain.Card, error)
	InsertCard(domain.Card) error
}

// Report summarizes one import run.
type Report struct {
	Sources  int
	Parsed   int
	Inserted int
	Skipped  int // already present by content hash
	Errors   []error
}

// Importer pulls deck sources and inserts unseen cards.
type Importer struct {
	store    Store
	reposDir string
	now      func() time.Time
}

// New builds an importer. Git sources are checked out under reposDir.
func New(store Store, reposDir string, now func() time.Time) *Importer {
	if now == nil {
		now = time.Now
	}
	return &Importer{store: store, reposDir: reposDir, now: now}
}

// Run syncs and reconciles every configured source. Per-source failures are
// collected in the report so one broken deck does not block the rest.
func (im *Importer) Run(sources []config.DeckSource) Report {
	report := Report{Sources: len(sources)}
	if len(sources) == 0 {
		slog.Info("no deck sources configured")
		return report
	}

	seen, err := im.existingHashes()
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}

	for _, source := range sources {
		slog.Info("importing deck source", "path", source.Path, "tag", source.Tag)

		dir := source.Path
		if gitsource.IsGitURL(source.Path) {
			local, err := gitsource.LocalPath(im.reposDir, source.Path)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("resolving %s: %w", source.Path, err))
				continue
			}
			if err := os.MkdirAll(im.reposDir, 0o755); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("creating repos dir: %w", err))
				continue
			}
			if err := gitsource.Sync(source.Path, local); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("syncing %s: %w", source.Path, err))
				continue
			}
			dir = local
		}

		im.reconcileDir(dir, source.Tag, seen, &report)
	}

	slog.Info("import complete",
		"sources", report.Sources,
		"parsed", report.Parsed,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report
}

// reconcileDir walks a checkout for .md deck files and inserts every entry
// whose content hash has not been seen before.
func (im *Importer) reconcileDir(dir, defaultTag string, seen map[string]bool, report *Report) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		entries, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, entry := range entries {
			if entry.Tag == "" {
				entry.Tag = defaultTag
			}
			report.Parsed++

			hash := deck.Hash(entry)
			if seen[hash] {
				report.Skipped++
				continue
			}

			card, err := srs.NewCard(entry.Front, entry.Back, entry.Tag, im.now())
			if err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("creating card from %s: %w", path, err))
				continue
			}
			if err := im.store.InsertCard(card); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("inserting card from %s: %w", path, err))
				continue
			}
			seen[hash] = true
			report.Inserted++
		}
		return nil
	})
	if walkErr != nil {
		report.Errors = append(report.Errors, fmt.Errorf("walking %s: %w", dir, walkErr))
	}
}

// existingHashes hashes the stored collection once so repeated imports of
// the same decks are no-ops.
func (im *Importer) existingHashes() (map[string]bool, error) {
	cards, err := im.store.GetCards()
	if err != nil {
		return nil, fmt.Errorf("loading existing cards: %w", err)
	}
	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		seen[deck.Hash(parser.Entry{Front: c.Front, Back: c.Back, Tag: c.Tag})] = true
	}
	return seen, nil
}
