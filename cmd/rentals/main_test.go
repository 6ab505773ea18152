package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberPidgi/rentiful/internal/filters"
)

func newTestBrowser(t *testing.T) *browser {
	t.Helper()
	store := filters.NewStore(filters.Default())
	urls := filters.NewURLSync(store, filters.NavigatorFunc(func(string) error { return nil }), 0)
	t.Cleanup(urls.Stop)
	return &browser{store: store, urls: urls}
}

func TestExampleQueryRestoresEveryKey(t *testing.T) {
	b := newTestBrowser(t)

	c, err := b.urls.Restore(exampleQuery)
	require.NoError(t, err)
	assert.Equal(t, "Austin", c.Location)
	require.NotNil(t, c.PriceRange.Min)
	require.NotNil(t, c.PriceRange.Max)
	assert.Equal(t, 1000.0, *c.PriceRange.Min)
	assert.Equal(t, 2500.0, *c.PriceRange.Max)
	assert.Equal(t, c, b.store.Filters())
}

func TestSetChangesOneParameter(t *testing.T) {
	b := newTestBrowser(t)
	_, err := b.urls.Restore(exampleQuery)
	require.NoError(t, err)

	require.NoError(t, b.set("priceMax=3000"))
	c := b.store.Filters()
	assert.Equal(t, 3000.0, *c.PriceRange.Max)
	assert.Equal(t, 1000.0, *c.PriceRange.Min)

	require.NoError(t, b.set("priceMin="))
	assert.Nil(t, b.store.Filters().PriceRange.Min)

	assert.Error(t, b.set("priceMin=cheap"))
	assert.Error(t, b.set("novalue"))
}

func TestCommands(t *testing.T) {
	b := newTestBrowser(t)

	quit, err := b.command(context.Background(), []string{"quit"})
	require.NoError(t, err)
	assert.True(t, quit)

	_, err = b.command(context.Background(), []string{"fav", "1"})
	assert.EqualError(t, err, "favorites need -tenant")

	_, err = b.command(context.Background(), []string{"fav", "zero"})
	assert.Error(t, err)

	_, err = b.command(context.Background(), []string{"dance"})
	assert.Error(t, err)
}
