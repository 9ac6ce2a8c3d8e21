package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/campuseats/spider/internal/spider"
)

// Links returns the page's outbound links, resolved against the page URL,
// deduplicated in document order, and tagged when their shape suggests an
// event page.
func (e *Extractor) Links(pageURL string, body []byte) ([]spider.Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]struct{})
	var out []spider.Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := spider.ResolveRef(pageURL, href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		out = append(out, spider.Link{
			URL:       resolved,
			EventLike: spider.IsEventLike(resolved),
		})
	})
	return out, nil
}
