package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/spider"
)

const freePizzaJSONLD = `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Event",
  "@id": "https://events.umass.edu/events/42",
  "name": "Free Pizza Night",
  "startDate": "2025-11-02T18:00:00-05:00",
  "endDate": "2025-11-02T20:00:00-05:00",
  "description": "<p>Join us for <b>free pizza</b> and games.</p>",
  "location": {"@type": "Place", "name": "Campus Center Auditorium"}
}
</script>
</head><body><h1>Free Pizza Night</h1></body></html>`

func TestExtractSchemaOrgEvent(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	url := "https://events.umass.edu/events/42"
	cands, err := e.Extract(spider.PlatformSchemaOrg, url, []byte(freePizzaJSONLD))
	require.NoError(t, err)
	require.Len(t, cands, 1)

	got := cands[0]
	require.Equal(t, "Free Pizza Night", got.Title)
	require.Equal(t, "2025-11-02T18:00:00-05:00", got.RawStartText)
	require.Equal(t, "2025-11-02T20:00:00-05:00", got.RawEndText)
	require.Equal(t, "Campus Center Auditorium", got.LocationText)
	require.Equal(t, "Join us for free pizza and games.", got.Description)
	require.Equal(t, "https://events.umass.edu/events/42", got.ExternalID)
	require.Equal(t, url, got.SourceURL)
	require.Equal(t, spider.PlatformSchemaOrg, got.Platform)
}

func TestExtractJSONLDGraph(t *testing.T) {
	t.Parallel()

	body := `<html><head><script type="application/ld+json">
	{"@graph": [
		{"@type": "WebPage", "name": "Events"},
		{"@type": "Event", "name": "Taco Bar", "startDate": "2025-10-10T12:00:00"},
		{"@type": ["Event", "SocialEvent"], "name": "Cookout", "startDate": "2025-10-11", "location": "North Quad"}
	]}
	</script></head></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformSchemaOrg, "https://www.umass.edu/events", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "Taco Bar", cands[0].Title)
	require.Equal(t, "Cookout", cands[1].Title)
	require.Equal(t, "North Quad", cands[1].LocationText)
}

func TestExtractJSONLDSkipsIncomplete(t *testing.T) {
	t.Parallel()

	body := `<html><head><script type="application/ld+json">
	[
		{"@type": "Event", "name": "No Date"},
		{"@type": "Event", "startDate": "2025-10-10"},
		{"@type": "Organization", "name": "UMass"}
	]
	</script></head></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformSchemaOrg, "https://www.umass.edu/events", []byte(body))
	require.NoError(t, err)
	require.Empty(t, cands)
}

func TestExtractJSONLDPostalAddressLocation(t *testing.T) {
	t.Parallel()

	body := `<html><head><script type="application/ld+json">
	{"@type": "Event", "name": "Street Fair", "startDate": "2025-10-12",
	 "location": {"@type": "Place", "address": {"streetAddress": "1 Campus Center Way"}}}
	</script></head></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformSchemaOrg, "https://www.umass.edu/fair", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "1 Campus Center Way", cands[0].LocationText)
}

func TestExtractLocalistCardFallback(t *testing.T) {
	t.Parallel()

	body := `<html><body>
	<div class="em-card">
		<h3 class="em-card_title">Dumpling Social</h3>
		<p class="em-card_event-text"><time>October 9, 2025 6:30 PM</time></p>
		<p class="em-card_event-text--location">Bartlett Hall</p>
	</div>
	<div class="em-card">
		<h3 class="em-card_title"></h3>
	</div>
	</body></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformLocalist, "https://umass.localist.com/", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Dumpling Social", cands[0].Title)
	require.Equal(t, "October 9, 2025 6:30 PM", cands[0].RawStartText)
	require.Equal(t, "Bartlett Hall", cands[0].LocationText)
	require.Equal(t, spider.PlatformLocalist, cands[0].Platform)
}

func TestExtractLocalistPrefersJSONLD(t *testing.T) {
	t.Parallel()

	body := freePizzaJSONLD + `<div class="em-card"><h3 class="em-card_title">Should Not Appear</h3></div>`
	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformLocalist, "https://umass.localist.com/event/42", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Free Pizza Night", cands[0].Title)
}

func TestExtractEventbriteSelectorFallback(t *testing.T) {
	t.Parallel()

	body := `<html><body>
	<h1 class="event-title">Startup Mixer with Free Snacks</h1>
	<time class="start-date" datetime="2025-10-20T17:00:00">Oct 20</time>
	<div class="location-info__address-text">Isenberg Hub</div>
	</body></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformEventbrite, "https://www.eventbrite.com/e/123", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Startup Mixer with Free Snacks", cands[0].Title)
	require.Equal(t, "2025-10-20T17:00:00", cands[0].RawStartText)
	require.Equal(t, "Isenberg Hub", cands[0].LocationText)
}

func TestExtractGenericRequiresFoodLanguage(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())

	noFood := `<html><body><h1>Faculty Senate Meeting</h1><p>Agenda review.</p></body></html>`
	cands, err := e.Extract(spider.PlatformCustom, "https://www.umass.edu/senate", []byte(noFood))
	require.NoError(t, err)
	require.Empty(t, cands)

	withFood := `<html><body>
	<h1>Grad Student Social</h1>
	<p>Free food for the first 50 attendees on 10/15/2025 5:00 PM.</p>
	<p>Location: Graduate Lounge</p>
	</body></html>`
	cands, err = e.Extract(spider.PlatformCustom, "https://www.umass.edu/grad-social", []byte(withFood))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Grad Student Social", cands[0].Title)
	require.Equal(t, "10/15/2025 5:00 PM", cands[0].RawStartText)
	require.Equal(t, "Graduate Lounge", cands[0].LocationText)
	require.Equal(t, spider.PlatformCustom, cands[0].Platform)
}

func TestExtractGenericFallsBackToTitleTag(t *testing.T) {
	t.Parallel()

	body := `<html><head><title>Pizza With the Provost</title></head>
	<body><p>Pizza served while it lasts.</p></body></html>`

	e := New(zap.NewNop())
	cands, err := e.Extract(spider.PlatformCustom, "https://www.umass.edu/provost", []byte(body))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.Equal(t, "Pizza With the Provost", cands[0].Title)
}

func TestSnippetKeepsRuneBoundaries(t *testing.T) {
	t.Parallel()

	// Byte 500 lands inside the two-byte "é"; the cut backs up to keep
	// the string valid.
	s := strings.Repeat("a", 499) + "événement gratuit"
	got := snippet(s, 500)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("a", 499), got)

	require.Equal(t, "free pizza", snippet("free pizza", 500))
}

func TestPageTextStripsScriptsAndStyles(t *testing.T) {
	t.Parallel()

	body := `<html><head>
	<style>body { color: red; }</style>
	<script>console.log("hidden");</script>
	</head><body>
	<p>Free   snacks
	in the lobby.</p>
	</body></html>`

	e := New(zap.NewNop())
	got := e.PageText([]byte(body))
	require.Equal(t, "Free snacks in the lobby.", got)
	require.NotContains(t, got, "hidden")
	require.NotContains(t, got, "color")
}
