package reconcile

import (
	"github.com/tracksync/tracksync/internal/models"
	"github.com/tracksync/tracksync/internal/titles"
)

// DuplicateGroup is a set of tracks sharing a title key. Keep is the first
// track seen with that key; Remove holds the rest, in extraction order.
type DuplicateGroup struct {
	Key    string
	Keep   models.Track
	Remove []models.Track
}

// FindDuplicates groups tracks by titles.Key and returns every group with more
// than one member. Groups are ordered by the position of their first track, so
// the result never depends on map iteration order.
//
// A track id that shows up more than once in the snapshot is the same remote
// entry reached through two branches, not a duplicate, and is counted once.
func FindDuplicates(tracks []models.Track) []DuplicateGroup {
	index := make(map[string]int)
	seenIDs := make(map[string]struct{})
	var groups []DuplicateGroup

	for _, track := range tracks {
		if _, ok := seenIDs[track.ID]; ok {
			continue
		}
		seenIDs[track.ID] = struct{}{}

		key := titles.Key(track.Title)
		i, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, DuplicateGroup{Key: key, Keep: track})
			continue
		}
		groups[i].Remove = append(groups[i].Remove, track)
	}

	duplicates := make([]DuplicateGroup, 0)
	for _, g := range groups {
		if len(g.Remove) > 0 {
			duplicates = append(duplicates, g)
		}
	}
	return duplicates
}
