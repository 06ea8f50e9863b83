package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

var (
	percentRe   = regexp.MustCompile(`(\d+)%`)
	orSpacedRe  = regexp.MustCompile(`\s+or\s+`)
	orWordRe    = regexp.MustCompile(`\s*\bor\b\s*`)
	certainText = "very high confidence"
)

// ParseListing extracts one parent record per h2[id] heading on the atlas
// index page, reading the paragraph that follows it.
func ParseListing(doc *goquery.Document) []Record {
	var out []Record
	doc.Find("h2[id]").Each(func(_ int, h2 *goquery.Selection) {
		id, _ := h2.Attr("id")
		p := h2.NextFiltered("p")

		rec := Record{
			ID:     id,
			Name:   strings.TrimSpace(h2.Text()),
			Stereo: store.StereoParent,
			Verses: []string{},
		}
		if src, ok := p.Find("img").Attr("src"); ok {
			rec.ImageTitle = lastSegment(src)
		}
		rec.PlaceURL, _ = p.Find("a").First().Attr("href")
		rec.IsModern = strings.Contains(rec.PlaceURL, "modern")

		p.Find(`a[href*="biblegateway"]`).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			u, err := url.Parse(href)
			if err != nil {
				return
			}
			if search := u.Query().Get("search"); search != "" {
				rec.Verses = append(rec.Verses, search)
			}
		})
		out = append(out, rec)
	})
	return out
}

// parentDetail is what a parent's detail page adds to its listing record.
type parentDetail struct {
	types     []string
	unknown   *int
	relations []Relation
	paths     []string
}

// parseParent reads the type row and the identification list of a parent
// detail page.
func parseParent(doc *goquery.Document, parentID string) parentDetail {
	d := parentDetail{
		types: splitTypes(typeCell(doc), orSpacedRe),
	}
	doc.Find("ol").First().ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.ToLower(li.Text())
		if strings.Contains(text, "another name") {
			return
		}
		if strings.Contains(text, "unknown") {
			d.unknown = percentIn(text)
			return
		}
		path, ok := li.Find("a").Attr("href")
		if !ok || path == "" {
			return
		}
		possibility := percentIn(text)
		if strings.Contains(text, certainText) {
			full := 100
			possibility = &full
		}
		d.relations = append(d.relations, Relation{
			ParentID:    parentID,
			ChildID:     childIDFromPath(path),
			Possibility: possibility,
		})
		d.paths = append(d.paths, path)
	})
	return d
}

// parseChild builds a child record from an identification page at path
// (/<section>/<period>/<id>/<name>). Pages without an About heading are not
// places and report false.
func parseChild(doc *goquery.Document, path string) (Record, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 5 {
		return Record{}, false
	}
	period, id, name := parts[2], parts[3], parts[4]

	hasAbout := false
	doc.Find("h2").EachWithBreak(func(_ int, h2 *goquery.Selection) bool {
		hasAbout = strings.Contains(h2.Text(), "About")
		return !hasAbout
	})
	if !hasAbout {
		return Record{}, false
	}

	return Record{
		ID:       id,
		Name:     name,
		IsModern: period == "modern",
		Stereo:   store.StereoChild,
		Types:    splitTypes(typeCell(doc), orWordRe),
	}, true
}

// typeCell returns the text of the td in the row headed Type or Types.
func typeCell(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		th := strings.TrimSpace(tr.Find("th").Text())
		return th == "Type" || th == "Types"
	}).Find("td").Text())
}

func splitTypes(raw string, or *regexp.Regexp) []string {
	out := []string{}
	for _, part := range strings.Split(or.ReplaceAllString(raw, ","), ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func percentIn(text string) *int {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// childIDFromPath returns the second to last segment of an identification
// path.
func childIDFromPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
