package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func intPtr(v int) *int { return &v }

func TestMerge(t *testing.T) {
	t.Parallel()
	point := `{"features":[{"geometry":{"type":"Point","coordinates":[36.3,33.5]}}]}`
	files := []File{
		{
			Data: []Record{
				{ID: "abana", Name: "Abana", Description: "short", Types: []string{"river"}, GeoJSONText: point},
				{ID: "barada", Name: "Barada", Stereo: store.StereoChild, ImageTitle: "barada.jpg"},
			},
			Relations: []Relation{
				{ParentID: "abana", ChildID: "barada", Possibility: intPtr(100)},
				{ParentID: "abana", ChildID: "missing", Possibility: intPtr(5)},
			},
		},
		{
			Data: []Record{
				{
					ID: "abana", Name: "ignored", Description: "a longer description",
					KoreanDescription: "설명", Verses: []string{"2Kgs.5.12", "Song.4.8"},
					ImageTitle: "abana.jpg", Types: []string{"river", "stream"},
				},
				{ID: "barada", ImageTitle: "other.jpg"},
			},
			Relations: []Relation{
				{ParentID: "abana", ChildID: "barada", Possibility: intPtr(50)},
			},
		},
	}

	g, err := Merge(files)
	require.NoError(t, err)
	require.Len(t, g.Places, 2)

	abana := g.Places[0]
	require.Equal(t, "abana", abana.ID)
	require.Equal(t, "Abana", abana.Name)
	require.Equal(t, "a longer description", abana.Description)
	require.Equal(t, "설명", abana.KoreanDescription)
	require.Equal(t, "2Kgs.5.12, Song.4.8", abana.Verse)
	require.Equal(t, "abana.jpg", abana.ImageTitle)
	require.Equal(t, store.StereoParent, abana.Stereo)
	require.InDelta(t, 33.5, *abana.Latitude, 1e-9)
	require.InDelta(t, 36.3, *abana.Longitude, 1e-9)

	barada := g.Places[1]
	require.Equal(t, "barada.jpg", barada.ImageTitle)
	require.Equal(t, store.StereoChild, barada.Stereo)
	require.Nil(t, barada.Latitude)

	require.Equal(t, map[string][]string{"abana": {"river", "stream"}}, g.PlaceTypes)
	require.Len(t, g.Relations, 1)
	require.Equal(t, 100, *g.Relations[0].Possibility)
}

func TestMergeRejectsBrokenGeoJSON(t *testing.T) {
	t.Parallel()
	_, err := Merge([]File{{Data: []Record{{ID: "x", GeoJSONText: "{"}}}})
	require.ErrorContains(t, err, "place x")
}
