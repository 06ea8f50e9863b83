package bible

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
)

// VerseClient reads single verses from the quote page of the verse site.
type VerseClient struct {
	client  *httpx.Client
	baseURL string
}

// NewVerseClient builds a VerseClient for the site at baseURL.
func NewVerseClient(client *httpx.Client, baseURL string) *VerseClient {
	return &VerseClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Verse returns the text of book chapter:verse in version. The quote page
// marks each verse with a <small>chapter:verse</small> label followed by
// the verse text. An empty string means the page had no such label.
func (c *VerseClient) Verse(ctx context.Context, version Version, book string, chapter, verse int) (string, error) {
	url := fmt.Sprintf("%s/quote.php?%s-%s/%d:%d", c.baseURL, version, book, chapter, verse)
	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return "", fmt.Errorf("parse verse page: %w", err)
	}

	label := fmt.Sprintf("%d:%d", chapter, verse)
	small := doc.Find("small").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == label
	}).First()
	if small.Length() == 0 {
		return "", nil
	}

	found := false
	text := ""
	small.Parent().Contents().EachWithBreak(func(_ int, n *goquery.Selection) bool {
		if found {
			if goquery.NodeName(n) == "#text" {
				text = strings.TrimSpace(n.Text())
			}
			return false
		}
		found = n.IsSelection(small)
		return true
	})
	return text, nil
}
