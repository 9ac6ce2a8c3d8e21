// Package extract classifies pages by platform and pulls event candidates
// and outbound links out of them.
package extract

import (
	"bytes"
	"strings"

	"github.com/campuseats/spider/internal/spider"
)

var jsonLDMarkers = [][]byte{
	[]byte("application/ld+json"),
	[]byte(`"@type"`),
	[]byte(`"Event"`),
}

// Detect classifies a page into a platform tag: host patterns first, then
// a scan for schema.org Event markers in the body.
func Detect(pageURL string, body []byte) spider.Platform {
	lower := strings.ToLower(pageURL)

	switch {
	case strings.Contains(lower, "localist.com"):
		return spider.PlatformLocalist
	case strings.Contains(lower, "eventbrite.com"):
		return spider.PlatformEventbrite
	case strings.Contains(lower, "facebook.com/events"):
		return spider.PlatformFacebook
	case strings.Contains(lower, "meetup.com"):
		return spider.PlatformMeetup
	}

	hasAll := true
	for _, marker := range jsonLDMarkers {
		if !bytes.Contains(body, marker) {
			hasAll = false
			break
		}
	}
	if hasAll {
		return spider.PlatformSchemaOrg
	}
	return spider.PlatformCustom
}
