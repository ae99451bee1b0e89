package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"jobscrape-engine/internal/domain"
)

// Posting is what a single container yields before it is stamped with
// source, keyword and discovery time.
type Posting struct {
	Title    string
	Company  string
	Location string
	Link     string
}

// Parse turns markup into a queryable document.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse: html")
	}
	return doc, nil
}

// Extract reads one Posting per container match. Sub-selectors that match
// nothing give empty fields; containers without a title are dropped. Relative
// links resolve against the origin of baseURL.
func Extract(doc *goquery.Document, sel domain.Selectors, baseURL string) []Posting {
	var out []Posting
	doc.Find(sel.Container).Each(func(_ int, c *goquery.Selection) {
		title := text(c, sel.Title)
		if title == "" {
			return
		}
		href, _ := c.Find(sel.Link).First().Attr("href")
		out = append(out, Posting{
			Title:    title,
			Company:  text(c, sel.Company),
			Location: text(c, sel.Location),
			Link:     AbsoluteLink(baseURL, href),
		})
	})
	return out
}

func text(c *goquery.Selection, query string) string {
	return strings.TrimSpace(c.Find(query).First().Text())
}
