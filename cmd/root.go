package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"fossilbed/strata/internal/config"
	"fossilbed/strata/internal/db"
	"fossilbed/strata/internal/fossil"
	"fossilbed/strata/internal/vault"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	jsonOutput bool

	cfg    = config.Default()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "strata",
	Short:         "Resurface, link and map a vault of knowledge fossils",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err = newLogger(cfg.Log.Level)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .strata.db database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "strata.yaml", "Path to YAML config (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

// newLogger builds an slog logger on a charmbracelet handler writing to stderr.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
		Prefix:          "strata",
	})
	return slog.New(handler), nil
}

// DiscoverDB finds the database path using priority: env > flag > config > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("STRATA_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Config file
	if cfg.Database.Path != "" {
		if _, err := os.Stat(cfg.Database.Path); err == nil {
			return cfg.Database.Path, nil
		}
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".strata.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 5. XDG fallback
	if xdgPath, ok := xdgDBPath(); ok {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", errNoDatabase
}

var errNoDatabase = errors.New("no .strata.db found (set STRATA_DB, use --db, or run from a directory containing .strata.db)")

func xdgDBPath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".local", "share", "strata", "strata.db"), true
}

// OpenDatabase discovers and opens the database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	logger.Debug("opening database", slog.String("path", path))
	return db.OpenDB(path)
}

// OpenOrCreateDatabase opens the discovered database, or creates one at
// --db, STRATA_DB, or ./.strata.db when none exists yet.
func OpenOrCreateDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		switch {
		case dbPath != "":
			path = dbPath
		case os.Getenv("STRATA_DB") != "":
			path = os.Getenv("STRATA_DB")
		default:
			path = ".strata.db"
		}
		logger.Info("creating database", slog.String("path", path))
	}
	return db.OpenDB(path)
}

// newVault builds the engine facade from the loaded config.
func newVault(opts ...vault.Option) *vault.Vault {
	return vault.New(cfg, append([]vault.Option{vault.WithLogger(logger)}, opts...)...)
}

// loadSnapshot reads every fossil and manual link from d.
func loadSnapshot(d *db.DB, v *vault.Vault) (*vault.Snapshot, error) {
	records, err := d.AllFossils()
	if err != nil {
		return nil, fmt.Errorf("loading fossils: %w", err)
	}
	manual, err := d.ManualEdges()
	if err != nil {
		return nil, fmt.Errorf("loading links: %w", err)
	}
	return v.Snapshot(records, manual), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ResolveFossil finds a fossil by full ID, ID prefix, or text search.
func ResolveFossil(d *db.DB, reference string) (*fossil.Record, error) {
	// 1. Exact ID match
	r, err := d.GetFossil(reference)
	if err == nil && r.Visible() {
		return r, nil
	}
	if err != nil && !errors.Is(err, db.ErrFossilNotFound) {
		return nil, err
	}

	// 2. ID prefix match (>=4 chars)
	if len(reference) >= 4 && !strings.ContainsAny(reference, " \t") {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 1:
			return &matches[0], nil
		case 0:
			// fall through to text search
		default:
			return nil, ambiguous(reference, matches, "Use a full fossil ID instead.")
		}
	}

	// 3. Text search
	found, err := d.SearchFossils(reference)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", db.ErrFossilNotFound, reference)
	case 1:
		return &found[0], nil
	default:
		return nil, ambiguous(reference, found, "Use a fossil ID instead.")
	}
}

func ambiguous(reference string, matches []fossil.Record, hint string) error {
	limit := min(len(matches), 10)
	lines := make([]string, limit)
	for i := range limit {
		lines[i] = fmt.Sprintf("  %s %s", truncID(matches[i].ID), truncTitle(matches[i].Invariant, 60))
	}
	return fmt.Errorf("%w '%s'. %d matches:\n%s\n%s",
		db.ErrAmbiguousReference, reference, len(matches), strings.Join(lines, "\n"), hint)
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// back up to a rune boundary
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
