// Package dates converts the date spellings campus sites use into UTC
// instants.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the campus zone assumed for zone-less date text.
const DefaultZone = "America/New_York"

// layouts are tried in order, most specific first, so the first match
// wins deterministically.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 3:04 PM",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006 3:04 PM",
	"01-02-2006",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

// zonedLayouts already carry an offset or zone, so no campus-zone
// interpretation applies.
var zonedLayouts = map[string]bool{
	time.RFC3339: true,
}

// Normalizer parses raw date text into UTC. It satisfies
// spider.DateParser.
type Normalizer struct {
	loc *time.Location
}

// New builds a Normalizer for the given IANA zone name; empty means
// DefaultZone.
func New(zone string) (*Normalizer, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", zone, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Parse tries the fixed layout list, then relative phrases resolved
// against ref. Zone-less matches are interpreted in the campus zone.
// Returns ok=false when nothing matched; callers keep the raw text.
func (n *Normalizer) Parse(raw string, ref time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		var (
			t   time.Time
			err error
		)
		if zonedLayouts[layout] {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, n.loc)
		}
		if err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}

	if t, ok := n.parseRelative(s, ref); ok {
		return t.UTC().Truncate(time.Second), true
	}
	return time.Time{}, false
}

// parseRelative resolves "today", "tonight", "tomorrow", and bare weekday
// names against the fetch time. Weekdays resolve to the next occurrence,
// never the past.
func (n *Normalizer) parseRelative(s string, ref time.Time) (time.Time, bool) {
	local := ref.In(n.loc)
	lower := strings.ToLower(s)

	switch lower {
	case "today":
		return startOfDay(local), true
	case "tonight":
		return startOfDay(local).Add(18 * time.Hour), true
	case "tomorrow":
		return startOfDay(local).AddDate(0, 0, 1), true
	}

	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	if wd, ok := weekdays[lower]; ok {
		days := (int(wd) - int(local.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return startOfDay(local).AddDate(0, 0, days), true
	}

	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
