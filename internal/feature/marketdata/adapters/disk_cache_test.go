package adapters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

func sampleSeries() entity.PriceSeries {
	day := time.Date(2024, 1, 4, 0, 0, 0, 0, entity.Tokyo)
	return entity.PriceSeries{
		{Time: day, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{Time: day.AddDate(0, 0, 1), Open: 101, High: 103, Low: 100, Close: 102, Volume: 2000},
	}
}

func TestDiskCache_SeriesRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewDiskCache(dir)

	_, ok, err := c.LoadSeries("7203.T", entity.Period1M, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SaveSeries("7203.T", entity.Period1M, sampleSeries()))
	assert.FileExists(t, filepath.Join(dir, "7203_T_1mo.json"))

	got, ok, err := c.LoadSeries("7203.T", entity.Period1M, 24*time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 102.0, got[1].Close)
	assert.Equal(t, "2024-01-05", got[1].Date())
}

func TestDiskCache_ExpiredByModTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewDiskCache(dir)
	require.NoError(t, c.SaveSeries("7203.T", entity.Period5D, sampleSeries()))

	old := time.Now().Add(-25 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "7203_T_5d.json"), old, old))

	_, ok, err := c.LoadSeries("7203.T", entity.Period5D, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskCache_CorruptFileIsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewDiskCache(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7203_T_1y.json"), []byte("{broken"), 0o644))

	_, ok, err := c.LoadSeries("7203.T", entity.Period1Y, time.Hour)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDiskCache_DeleteTickerAndClear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewDiskCache(dir)
	require.NoError(t, c.SaveSeries("7203.T", entity.Period1D, sampleSeries()))
	require.NoError(t, c.SaveSeries("7203.T", entity.Period1Y, sampleSeries()))
	require.NoError(t, c.SaveSeries("6758.T", entity.Period1Y, sampleSeries()))
	require.NoError(t, c.SaveMarketCap("7203.T", 45e12))

	require.NoError(t, c.DeleteTicker("7203.T"))
	assert.NoFileExists(t, filepath.Join(dir, "7203_T_1d.json"))
	assert.NoFileExists(t, filepath.Join(dir, "7203_T_1y.json"))
	assert.FileExists(t, filepath.Join(dir, "6758_T_1y.json"))

	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(dir, "6758_T_1y.json"))
	assert.FileExists(t, filepath.Join(dir, "7203_T_marketcap.json"))
}

func TestDiskCache_MarketCap(t *testing.T) {
	t.Parallel()

	c := NewDiskCache(t.TempDir())

	_, ok, err := c.LoadMarketCap("7203.T", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SaveMarketCap("7203.T", 45e12))
	v, ok, err := c.LoadMarketCap("7203.T", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 45e12, v)
}

func TestDiskCache_ClearMissingDir(t *testing.T) {
	t.Parallel()

	c := NewDiskCache(filepath.Join(t.TempDir(), "absent"))
	n, err := c.Clear()
	require.NoError(t, err)
	assert.Zero(t, n)
}
