package scraper

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

type featureCollection struct {
	Features []struct {
		Geometry *struct {
			Type        string `json:"type"`
			Coordinates any    `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// RepresentativePoint reduces a GeoJSON FeatureCollection to one point.
// Point features contribute their position; any other geometry contributes
// the mean of all its positions. The result is the mean of those points, or
// nil coordinates when no feature carries any.
func RepresentativePoint(geojsonText string) (lat, lng *float64, err error) {
	if strings.TrimSpace(geojsonText) == "" {
		return nil, nil, nil
	}
	var fc featureCollection
	if err := json.Unmarshal([]byte(geojsonText), &fc); err != nil {
		return nil, nil, fmt.Errorf("decode geojson: %w", err)
	}

	var points [][2]float64
	for _, f := range fc.Features {
		if f.Geometry == nil || f.Geometry.Coordinates == nil {
			continue
		}
		nums := flatten(f.Geometry.Coordinates, nil)
		if f.Geometry.Type == "Point" {
			if len(nums) >= 2 {
				points = append(points, [2]float64{nums[0], nums[1]})
			}
			continue
		}
		if pt, ok := meanOfPairs(nums); ok {
			points = append(points, pt)
		}
	}
	if len(points) == 0 {
		return nil, nil, nil
	}

	var sumLng, sumLat float64
	for _, p := range points {
		sumLng += p[0]
		sumLat += p[1]
	}
	n := float64(len(points))
	outLat, outLng := sumLat/n, sumLng/n
	return &outLat, &outLng, nil
}

func flatten(v any, out []float64) []float64 {
	switch t := v.(type) {
	case float64:
		return append(out, t)
	case []any:
		for _, e := range t {
			out = flatten(e, out)
		}
	}
	return out
}

// meanOfPairs reads nums as consecutive (lng, lat) pairs. A trailing odd
// value is ignored.
func meanOfPairs(nums []float64) ([2]float64, bool) {
	pairs := len(nums) / 2
	if pairs == 0 {
		return [2]float64{}, false
	}
	var sumLng, sumLat float64
	for i := 0; i < pairs; i++ {
		sumLng += nums[2*i]
		sumLat += nums[2*i+1]
	}
	return [2]float64{sumLng / float64(pairs), sumLat / float64(pairs)}, true
}
