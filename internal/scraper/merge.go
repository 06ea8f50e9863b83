package scraper

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// Merge folds scrape files into one place graph. Records sharing an id are
// combined: the longer description of each language wins, the first
// non-nil verse list and non-empty image title are kept, and type names are
// unioned. Relations are unique per parent and child with the first one
// winning; relations pointing at a place missing from the files are
// dropped.
func Merge(files []File) (store.PlaceGraph, error) {
	var order []string
	byID := map[string]*Record{}
	for _, f := range files {
		for _, rec := range f.Data {
			if rec.ID == "" {
				continue
			}
			existing, ok := byID[rec.ID]
			if !ok {
				r := rec
				r.Types = appendUnique(nil, rec.Types...)
				byID[rec.ID] = &r
				order = append(order, rec.ID)
				continue
			}
			if len(rec.Description) > len(existing.Description) {
				existing.Description = rec.Description
			}
			if len(rec.KoreanDescription) > len(existing.KoreanDescription) {
				existing.KoreanDescription = rec.KoreanDescription
			}
			if existing.Verses == nil {
				existing.Verses = rec.Verses
			}
			if existing.ImageTitle == "" {
				existing.ImageTitle = rec.ImageTitle
			}
			existing.Types = appendUnique(existing.Types, rec.Types...)
		}
	}

	g := store.PlaceGraph{
		Places:     make([]store.Place, 0, len(order)),
		PlaceTypes: make(map[string][]string, len(order)),
	}
	for _, id := range order {
		rec := byID[id]
		lat, lng, err := RepresentativePoint(rec.GeoJSONText)
		if err != nil {
			return store.PlaceGraph{}, fmt.Errorf("place %s: %w", id, err)
		}
		stereo := rec.Stereo
		if stereo == "" {
			stereo = store.StereoParent
		}
		g.Places = append(g.Places, store.Place{
			ID:                      rec.ID,
			Name:                    rec.Name,
			KoreanName:              rec.KoreanName,
			IsModern:                rec.IsModern,
			Description:             rec.Description,
			KoreanDescription:       rec.KoreanDescription,
			ImageTitle:              rec.ImageTitle,
			Stereo:                  stereo,
			Verse:                   strings.Join(rec.Verses, ", "),
			UnknownPlacePossibility: rec.UnknownPlacePossibility,
			Latitude:                lat,
			Longitude:               lng,
		})
		if len(rec.Types) > 0 {
			g.PlaceTypes[id] = rec.Types
		}
	}

	seen := map[string]bool{}
	for _, f := range files {
		for _, r := range f.Relations {
			key := r.ParentID + "-" + r.ChildID
			if seen[key] {
				continue
			}
			seen[key] = true
			if byID[r.ParentID] == nil || byID[r.ChildID] == nil {
				continue
			}
			g.Relations = append(g.Relations, store.PlaceRelation{
				ParentID:    r.ParentID,
				ChildID:     r.ChildID,
				Possibility: r.Possibility,
			})
		}
	}
	return g, nil
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		dup := false
		for _, have := range dst {
			if have == n {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, n)
		}
	}
	return dst
}
