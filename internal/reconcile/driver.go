// Package reconcile brings the remote catalog in line with the local title
// rules: duplicates are deleted, titles are rewritten into canonical form, and
// every handled track is written to the ledger so later runs leave it alone.
//
// A run is strictly sequential. Each ledger write completes before the next
// track is looked at, so an interrupted run loses at most the outcome of the
// one remote call that was in flight.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tracksync/tracksync/internal/models"
	"github.com/tracksync/tracksync/internal/snapshot"
	"github.com/tracksync/tracksync/internal/titles"
)

// Catalog is the remote side of a run.
type Catalog interface {
	Snapshot(ctx context.Context) ([]byte, error)
	UpdateTitle(ctx context.Context, id, title string) error
	DeleteTrack(ctx context.Context, id string) error
}

// Ledger records handled track ids. Add must be durable when it returns.
type Ledger interface {
	Contains(id string) bool
	Add(id string) error
}

// Driver runs one reconciliation pass.
type Driver struct {
	Catalog   Catalog
	Ledger    Ledger
	Blacklist titles.Blacklist
}

// Result summarizes a pass.
type Result struct {
	Tracks           int
	DuplicateGroups  int
	Deleted          int
	DeleteFailed     int
	Updated          int
	UpdateFailed     int
	Skipped          int
	AlreadyProcessed int
	Outcomes         []models.Outcome
}

func (r *Result) record(o models.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Action {
	case models.ActionDeleted:
		r.Deleted++
	case models.ActionDeleteFailed:
		r.DeleteFailed++
	case models.ActionUpdated:
		r.Updated++
	case models.ActionUpdateFailed:
		r.UpdateFailed++
	case models.ActionSkipped:
		r.Skipped++
	case models.ActionAlreadyProcessed:
		r.AlreadyProcessed++
	}
}

// Run fetches a snapshot, deletes duplicates and normalizes titles.
//
// Failures of single remote calls are logged and leave the track eligible for
// the next run. Run only returns an error when the snapshot cannot be fetched
// at all, when the ledger cannot be written, or when ctx is cancelled; the
// partial Result is returned alongside.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	body, err := d.Catalog.Snapshot(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	tracks, err := snapshot.ExtractBytes(body)
	if err != nil {
		slog.Error("Invalid JSON response from server", "error", err, "bytes", len(body))
	}
	result.Tracks = len(tracks)
	slog.Info("Fetched snapshot", "tracks", len(tracks))

	removed, err := d.removeDuplicates(ctx, tracks, result)
	if err != nil {
		return result, err
	}

	if err := d.normalizeTitles(ctx, tracks, removed, result); err != nil {
		return result, err
	}

	return result, nil
}

// removeDuplicates returns the ids of every duplicate it tried to delete.
// Those are kept out of normalization: a failed delete stays unrecorded so the
// next run retries it.
func (d *Driver) removeDuplicates(ctx context.Context, tracks []models.Track, result *Result) (map[string]struct{}, error) {
	removed := make(map[string]struct{})

	groups := FindDuplicates(tracks)
	result.DuplicateGroups = len(groups)

	for _, group := range groups {
		slog.Info("Duplicate found", "title", group.Key, "keep", group.Keep.ID, "duplicates", len(group.Remove))

		for _, track := range group.Remove {
			if err := ctx.Err(); err != nil {
				return removed, err
			}

			if d.Ledger.Contains(track.ID) {
				slog.Info("Duplicate already processed, not deleting", "id", track.ID, "title", track.Title)
				continue
			}

			removed[track.ID] = struct{}{}
			if err := d.Catalog.DeleteTrack(ctx, track.ID); err != nil {
				slog.Error("Failed to delete duplicate track", "id", track.ID, "title", track.Title, "error", err)
				result.record(models.Outcome{ID: track.ID, Title: track.Title, Action: models.ActionDeleteFailed, Error: err.Error()})
				continue
			}

			if err := d.Ledger.Add(track.ID); err != nil {
				return removed, fmt.Errorf("deleted %s but failed to record it: %w", track.ID, err)
			}
			slog.Info("Deleted duplicate track", "id", track.ID, "title", track.Title)
			result.record(models.Outcome{ID: track.ID, Title: track.Title, Action: models.ActionDeleted})
		}
	}

	return removed, nil
}

func (d *Driver) normalizeTitles(ctx context.Context, tracks []models.Track, removed map[string]struct{}, result *Result) error {
	for _, track := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, ok := removed[track.ID]; ok {
			continue
		}

		canonical := titles.Normalize(track.Title)

		if d.Ledger.Contains(track.ID) {
			slog.Info("Already processed", "id", track.ID, "title", canonical)
			result.record(models.Outcome{ID: track.ID, Title: track.Title, Action: models.ActionAlreadyProcessed})
			continue
		}

		if canonical == track.Title || d.Blacklist.Matches(track.Title) {
			reason := "canonical"
			if canonical != track.Title {
				reason = "blacklisted"
			}
			if err := d.Ledger.Add(track.ID); err != nil {
				return fmt.Errorf("failed to record skipped track %s: %w", track.ID, err)
			}
			slog.Info("Skipped", "id", track.ID, "title", track.Title, "reason", reason)
			result.record(models.Outcome{ID: track.ID, Title: track.Title, Action: models.ActionSkipped})
			continue
		}

		if err := d.Catalog.UpdateTitle(ctx, track.ID, canonical); err != nil {
			slog.Error("Failed to update title", "id", track.ID, "title", track.Title, "error", err)
			result.record(models.Outcome{ID: track.ID, Title: track.Title, NewTitle: canonical, Action: models.ActionUpdateFailed, Error: err.Error()})
			continue
		}

		if err := d.Ledger.Add(track.ID); err != nil {
			return fmt.Errorf("updated %s but failed to record it: %w", track.ID, err)
		}
		slog.Info("Song name changed", "id", track.ID, "from", track.Title, "to", canonical)
		result.record(models.Outcome{ID: track.ID, Title: track.Title, NewTitle: canonical, Action: models.ActionUpdated})
	}

	return nil
}
