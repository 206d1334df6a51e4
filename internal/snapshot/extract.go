// Package snapshot turns a fetched catalog response into track records.
//
// The response shape is not stable, so nothing here assumes a schema: every
// object and array is walked, and any object that looks like a track is
// collected in document order.
package snapshot

import (
	"strings"

	"github.com/tracksync/tracksync/internal/models"
)

// TrackIDPrefix marks the ids of track objects.
const TrackIDPrefix = "trck_"

// Visitor receives every node of a tree in pre-order.
type Visitor interface {
	VisitObject(n *Node)
	VisitArray(n *Node)
	VisitScalar(n *Node)
}

// Walk visits n and then all of its descendants, depth first, in document order.
func Walk(n *Node, v Visitor) {
	if n == nil {
		return
	}
	switch n.Kind {
	case Object:
		v.VisitObject(n)
		for _, m := range n.Members {
			Walk(m.Value, v)
		}
	case Array:
		v.VisitArray(n)
		for _, item := range n.Items {
			Walk(item, v)
		}
	default:
		v.VisitScalar(n)
	}
}

type trackCollector struct {
	tracks []models.Track
}

func (c *trackCollector) VisitObject(n *Node) {
	if t, ok := AsTrack(n); ok {
		c.tracks = append(c.tracks, t)
	}
}

func (c *trackCollector) VisitArray(*Node)  {}
func (c *trackCollector) VisitScalar(*Node) {}

// AsTrack reports whether n is a track object: a string "id" starting with
// TrackIDPrefix and a non-empty string "title".
func AsTrack(n *Node) (models.Track, bool) {
	idNode, ok := n.Get("id")
	if !ok {
		return models.Track{}, false
	}
	id, ok := idNode.Text()
	if !ok || !strings.HasPrefix(id, TrackIDPrefix) {
		return models.Track{}, false
	}

	titleNode, ok := n.Get("title")
	if !ok {
		return models.Track{}, false
	}
	title, ok := titleNode.Text()
	if !ok || title == "" {
		return models.Track{}, false
	}

	return models.Track{ID: id, Title: title}, true
}

// Extract returns every track reachable from root, in document order.
// Tracks appearing in several branches are returned once per appearance.
func Extract(root *Node) []models.Track {
	c := &trackCollector{tracks: []models.Track{}}
	Walk(root, c)
	return c.tracks
}

// ExtractBytes parses data and extracts its tracks. Malformed input yields an
// empty slice together with the parse error.
func ExtractBytes(data []byte) ([]models.Track, error) {
	root, err := Parse(data)
	if err != nil {
		return []models.Track{}, err
	}
	return Extract(root), nil
}
