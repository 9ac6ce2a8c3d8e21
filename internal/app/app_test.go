package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/config"
	"github.com/campuseats/spider/internal/spider"
)

func TestNewWithoutOptionalBackends(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NotNil(t, a.Logger())
	require.Equal(t, cfg.Crawler.MaxPages, a.Config().Crawler.MaxPages)
}

func TestCrawlRequiresSeeds(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Crawler.SeedURLs = nil

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, _, err = a.Crawl(context.Background(), nil)
	require.ErrorIs(t, err, spider.ErrNoSeeds)
}
