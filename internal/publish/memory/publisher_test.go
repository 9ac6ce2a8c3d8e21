package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuseats/spider/internal/spider"
)

func TestPublisherRecordsEvents(t *testing.T) {
	t.Parallel()

	p := New()
	ctx := context.Background()

	id, err := p.Publish(ctx, spider.NormalizedEvent{Title: "Free Pizza Night"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = p.Publish(ctx, spider.NormalizedEvent{Title: "Bagel Breakfast"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	events := p.Events()
	require.Len(t, events, 2)
	require.Equal(t, "Free Pizza Night", events[0].Title)

	// Events returns a copy; mutating it does not affect the publisher.
	events[0].Title = "changed"
	require.Equal(t, "Free Pizza Night", p.Events()[0].Title)
}
