package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/campuseats/spider/internal/spider"
)

// extractJSONLD pulls schema.org Event objects out of ld+json script
// blocks. Handles a bare object, an array, and an @graph wrapper. Date
// fields stay raw; normalization happens downstream.
func extractJSONLD(doc *goquery.Document, pageURL string, platform spider.Platform) []spider.RawEventCandidate {
	var out []spider.RawEventCandidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		var raw any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return
		}

		for _, obj := range jsonLDObjects(raw) {
			if cand, ok := candidateFromObject(obj, pageURL, platform); ok {
				out = append(out, cand)
			}
		}
	})

	return out
}

// jsonLDObjects flattens the possible JSON-LD container shapes into a list
// of objects.
func jsonLDObjects(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		var objs []map[string]any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				objs = append(objs, m)
			}
		}
		return objs
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			var objs []map[string]any
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok {
					objs = append(objs, m)
				}
			}
			return objs
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

func candidateFromObject(obj map[string]any, pageURL string, platform spider.Platform) (spider.RawEventCandidate, bool) {
	if !isEventType(obj["@type"]) {
		return spider.RawEventCandidate{}, false
	}

	title := strings.TrimSpace(asString(obj["name"]))
	startRaw := strings.TrimSpace(asString(obj["startDate"]))
	if title == "" || startRaw == "" {
		return spider.RawEventCandidate{}, false
	}

	cand := spider.RawEventCandidate{
		SourceURL:    pageURL,
		Platform:     platform,
		Title:        title,
		RawStartText: startRaw,
		RawEndText:   strings.TrimSpace(asString(obj["endDate"])),
		LocationText: locationName(obj["location"]),
		ExternalID:   strings.TrimSpace(asString(obj["@id"])),
	}
	if desc := asString(obj["description"]); desc != "" {
		cand.Description = stripHTML(desc)
	}
	return cand, true
}

// isEventType matches "@type": "Event" whether the value is a string or a
// type list.
func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "event")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "event") {
				return true
			}
		}
	}
	return false
}

// locationName digs a human-readable location out of the nested shapes
// schema.org allows: a plain string, a Place with a name, or a Place with
// a PostalAddress.
func locationName(v any) string {
	switch loc := v.(type) {
	case string:
		return strings.TrimSpace(loc)
	case map[string]any:
		if name := strings.TrimSpace(asString(loc["name"])); name != "" {
			return name
		}
		switch addr := loc["address"].(type) {
		case string:
			return strings.TrimSpace(addr)
		case map[string]any:
			if street := strings.TrimSpace(asString(addr["streetAddress"])); street != "" {
				return street
			}
		}
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// stripHTML flattens markup that platforms embed inside description
// fields.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return collapseWhitespace(doc.Text())
}
