package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tracksync/tracksync/internal/catalog"
	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/cookies"
	"github.com/tracksync/tracksync/internal/ledger"
	"github.com/tracksync/tracksync/internal/reconcile"
	"github.com/tracksync/tracksync/internal/report"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracksync",
		Short: "Deduplicate and normalize track titles in a music library",
		Long: `tracksync performs one reconciliation pass over your music library.

It fetches the library, deletes tracks whose titles duplicate an earlier
track, and rewrites the remaining titles into capitalized form. Every track it
handles is appended to the ledger file (used.txt by default) so later runs
never touch it again.

Settings are read from settings.yaml (or $TRACKSYNC_SETTINGS) and the session
cookie from cookies.txt. The ledger must not be empty: seed it with previously
processed ids, or a single placeholder line to start fresh.

Only one tracksync may run against a ledger at a time.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(cmd.OutOrStdout())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), config.Path())
		},
	}

	return cmd
}

func setupLogging(w io.Writer) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(os.Getenv("TRACKSYNC_LOG_LEVEL")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func runSync(ctx context.Context, out io.Writer, settingsPath string) error {
	cfg, err := config.Load(settingsPath)
	if err != nil {
		return err
	}

	sessionCookies, err := cookies.Load(cfg.CookiesFile)
	if err != nil {
		return err
	}

	processed, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		if errors.Is(err, ledger.ErrEmpty) {
			slog.Error("Ledger is empty. Add previously processed ids or a placeholder line; aborting to prevent mistakes.", "path", cfg.LedgerFile)
		}
		return err
	}
	defer func() {
		if err := processed.Close(); err != nil {
			slog.Error("Failed to close ledger", "path", cfg.LedgerFile, "error", err)
		}
	}()

	slog.Info("Starting reconciliation", "snapshot_url", cfg.SnapshotURL, "ledger", cfg.LedgerFile, "processed", processed.Len())

	client := catalog.NewClient(catalog.Options{
		SnapshotURL: cfg.SnapshotURL,
		TrackURL:    cfg.TrackURL,
		Origin:      cfg.Origin,
		DataRoute:   cfg.DataRoute,
		TrackRoute:  cfg.TrackRoute,
		UserAgent:   cfg.UserAgent,
		Cookies:     sessionCookies,
		Timeout:     cfg.Timeout,
	})

	driver := &reconcile.Driver{
		Catalog:   client,
		Ledger:    processed,
		Blacklist: cfg.Blacklist,
	}

	result, runErr := driver.Run(ctx)
	printSummary(out, result)

	if cfg.ReportDir != "" {
		r := report.New(report.RunConfig{
			SnapshotURL: cfg.SnapshotURL,
			LedgerFile:  cfg.LedgerFile,
			Prefixes:    cfg.Blacklist.Prefixes,
			Suffixes:    cfg.Blacklist.Suffixes,
		}, result, time.Now())
		if path, err := report.Save(cfg.ReportDir, r); err != nil {
			slog.Error("Failed to save run report", "dir", cfg.ReportDir, "error", err)
		} else {
			slog.Info("Run report saved", "path", path)
		}
	}

	return runErr
}

func printSummary(out io.Writer, result *reconcile.Result) {
	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "Reconciliation Summary")
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Tracks in snapshot:  %d\n", result.Tracks)
	fmt.Fprintf(out, "Duplicate titles:    %d\n", result.DuplicateGroups)
	fmt.Fprintf(out, "Deleted:             %d\n", result.Deleted)
	fmt.Fprintf(out, "Delete failures:     %d\n", result.DeleteFailed)
	fmt.Fprintf(out, "Renamed:             %d\n", result.Updated)
	fmt.Fprintf(out, "Rename failures:     %d\n", result.UpdateFailed)
	fmt.Fprintf(out, "Skipped:             %d\n", result.Skipped)
	fmt.Fprintf(out, "Already processed:   %d\n", result.AlreadyProcessed)
	fmt.Fprintln(out, "========================================")
}
