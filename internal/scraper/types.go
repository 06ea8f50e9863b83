package scraper

import "github.com/JakeFAU/bible-atlas-api/internal/store"

// Record is one scraped place as written to scrape files.
type Record struct {
	ID                      string       `json:"id"`
	Name                    string       `json:"name"`
	KoreanName              string       `json:"koreanName"`
	ImageTitle              string       `json:"imageTitle"`
	IsModern                bool         `json:"isModern"`
	Stereo                  store.Stereo `json:"stereo"`
	Description             string       `json:"description"`
	KoreanDescription       string       `json:"koreanDescription"`
	Verses                  []string     `json:"verses"`
	PlaceURL                string       `json:"placeUrl,omitempty"`
	IdentificationPaths     []string     `json:"identificationPaths,omitempty"`
	Types                   []string     `json:"types"`
	UnknownPlacePossibility *int         `json:"unknownPlacePossibility"`
	GeoJSONText             string       `json:"geojsonText"`
}

// Relation links a parent record to one of its identifications.
type Relation struct {
	ParentID    string `json:"parentId"`
	ChildID     string `json:"childId"`
	Possibility *int   `json:"possibility"`
}

// File is the document written per scrape and read back by Push.
type File struct {
	Data      []Record   `json:"data"`
	Relations []Relation `json:"relations"`
	Total     int        `json:"total"`
}
