package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/spider"
)

// Extractor dispatches to per-platform parsers. It satisfies
// spider.Extractor.
type Extractor struct {
	logger *zap.Logger
}

// New builds an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Detect classifies the page; see the package-level Detect.
func (e *Extractor) Detect(pageURL string, body []byte) spider.Platform {
	return Detect(pageURL, body)
}

// Extract parses the body with the platform's extractor. The structured
// platforms all speak JSON-LD; Localist and Eventbrite add selector
// fallbacks for list pages that omit it. Custom pages get the generic
// heuristic scan.
func (e *Extractor) Extract(platform spider.Platform, pageURL string, body []byte) ([]spider.RawEventCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	switch platform {
	case spider.PlatformLocalist:
		return e.extractLocalist(doc, pageURL), nil
	case spider.PlatformEventbrite:
		return e.extractEventbrite(doc, pageURL), nil
	case spider.PlatformMeetup:
		return extractJSONLD(doc, pageURL, spider.PlatformMeetup), nil
	case spider.PlatformFacebook:
		// Facebook event pages are script-rendered; JSON-LD is the only
		// server-side signal available.
		return extractJSONLD(doc, pageURL, spider.PlatformFacebook), nil
	case spider.PlatformSchemaOrg:
		return extractJSONLD(doc, pageURL, spider.PlatformSchemaOrg), nil
	default:
		return e.extractGeneric(doc, pageURL), nil
	}
}

// extractLocalist reads JSON-LD first, then falls back to Localist's event
// card markup on listing pages.
func (e *Extractor) extractLocalist(doc *goquery.Document, pageURL string) []spider.RawEventCandidate {
	if cands := extractJSONLD(doc, pageURL, spider.PlatformLocalist); len(cands) > 0 {
		return cands
	}

	var out []spider.RawEventCandidate
	doc.Find(".em-card").Each(func(_ int, card *goquery.Selection) {
		title := collapseWhitespace(card.Find(".em-card_title").Text())
		if title == "" {
			return
		}
		out = append(out, spider.RawEventCandidate{
			SourceURL:    pageURL,
			Platform:     spider.PlatformLocalist,
			Title:        title,
			RawStartText: collapseWhitespace(card.Find(".em-card_event-text time").First().Text()),
			LocationText: collapseWhitespace(card.Find(".em-card_event-text--location").Text()),
		})
	})
	return out
}

// extractEventbrite reads JSON-LD first, then the structured-data test IDs
// Eventbrite renders server side.
func (e *Extractor) extractEventbrite(doc *goquery.Document, pageURL string) []spider.RawEventCandidate {
	if cands := extractJSONLD(doc, pageURL, spider.PlatformEventbrite); len(cands) > 0 {
		return cands
	}

	title := collapseWhitespace(doc.Find("h1.event-title").First().Text())
	if title == "" {
		return nil
	}
	return []spider.RawEventCandidate{{
		SourceURL:    pageURL,
		Platform:     spider.PlatformEventbrite,
		Title:        title,
		RawStartText: collapseWhitespace(doc.Find("time.start-date").First().AttrOr("datetime", "")),
		LocationText: collapseWhitespace(doc.Find(".location-info__address-text").First().Text()),
	}}
}

// dateLikeText matches inline date spellings the normalizer understands.
var dateLikeText = regexp.MustCompile(
	`(?i)\b(?:\d{4}-\d{2}-\d{2}[T ]?[\d:]*Z?` +
		`|\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2}\s*(?:AM|PM)?)?` +
		`|(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\.?\s+\d{1,2},?\s+\d{4}(?:\s+\d{1,2}:\d{2}\s*(?:AM|PM)?)?)`,
)

var locationLabel = regexp.MustCompile(`(?i)(?:location|where|venue|room)\s*[:\-]\s*([^\n|<]{3,80})`)

// extractGeneric scans an unknown page for a single low-signal candidate:
// a title, a date-like string, and a location label, but only when food
// keywords appear at all. Pages without food language yield nothing.
func (e *Extractor) extractGeneric(doc *goquery.Document, pageURL string) []spider.RawEventCandidate {
	text := collapseWhitespace(doc.Text())
	if !containsFoodWord(text) {
		return nil
	}

	title := collapseWhitespace(doc.Find("h1").First().Text())
	if title == "" {
		title = collapseWhitespace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}
	if title == "" {
		title = collapseWhitespace(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil
	}

	rawStart := ""
	if m := dateLikeText.FindString(text); m != "" {
		rawStart = strings.TrimSpace(m)
	}
	location := ""
	if m := locationLabel.FindStringSubmatch(text); len(m) > 1 {
		location = strings.TrimSpace(m[1])
	}

	return []spider.RawEventCandidate{{
		SourceURL:    pageURL,
		Platform:     spider.PlatformCustom,
		Title:        title,
		Description:  snippet(text, 500),
		RawStartText: rawStart,
		LocationText: location,
	}}
}

// genericFoodWords gates the generic extractor; the classifier owns the
// full weighted keyword model.
var genericFoodWords = []string{
	"free food", "food provided", "refreshments", "pizza", "snacks",
	"lunch", "dinner", "breakfast", "catering",
}

func containsFoodWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range genericFoodWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// PageText returns the page's visible text with scripts and styles
// removed and whitespace collapsed.
func (e *Extractor) PageText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return collapseWhitespace(doc.Text())
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// snippet truncates to at most n bytes, backing up to a rune boundary so
// the cut never produces invalid UTF-8.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
