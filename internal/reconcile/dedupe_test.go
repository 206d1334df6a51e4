package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracksync/tracksync/internal/models"
)

func TestFindDuplicatesKeepsFirst(t *testing.T) {
	tracks := []models.Track{
		{ID: "trck_1", Title: "hello world"},
		{ID: "trck_2", Title: "Other"},
		{ID: "trck_3", Title: "  HELLO WORLD "},
		{ID: "trck_4", Title: "other"},
		{ID: "trck_5", Title: "Hello World"},
		{ID: "trck_6", Title: "unique"},
	}

	groups := FindDuplicates(tracks)
	require.Len(t, groups, 2)

	assert.Equal(t, "hello world", groups[0].Key)
	assert.Equal(t, "trck_1", groups[0].Keep.ID)
	assert.Equal(t, []models.Track{tracks[2], tracks[4]}, groups[0].Remove)

	assert.Equal(t, "other", groups[1].Key)
	assert.Equal(t, "trck_2", groups[1].Keep.ID)
	assert.Equal(t, []models.Track{tracks[3]}, groups[1].Remove)
}

func TestFindDuplicatesDeterministic(t *testing.T) {
	var tracks []models.Track
	for _, id := range []string{"trck_a", "trck_b", "trck_c", "trck_d", "trck_e", "trck_f"} {
		tracks = append(tracks, models.Track{ID: id, Title: "same"})
		tracks = append(tracks, models.Track{ID: id + "_x", Title: "key " + id})
	}

	first := FindDuplicates(tracks)
	for i := 0; i < 50; i++ {
		again := FindDuplicates(tracks)
		require.Equal(t, first, again)
	}
	require.Len(t, first, 1)
	assert.Equal(t, "trck_a", first[0].Keep.ID)
	assert.Len(t, first[0].Remove, 5)
}

func TestFindDuplicatesIgnoresRepeatedID(t *testing.T) {
	tracks := []models.Track{
		{ID: "trck_1", Title: "song"},
		{ID: "trck_1", Title: "song"},
	}

	assert.Empty(t, FindDuplicates(tracks))
}

func TestFindDuplicatesNone(t *testing.T) {
	assert.Empty(t, FindDuplicates(nil))
	assert.Empty(t, FindDuplicates([]models.Track{{ID: "trck_1", Title: "a"}, {ID: "trck_2", Title: "b"}}))
}
