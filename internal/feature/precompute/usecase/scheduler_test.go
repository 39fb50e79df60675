package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	mdusecase "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/precompute/usecase"
	thentity "github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/themes/domain/entity"
)

var errDisk = errors.New("disk full")

// mockMarketData はMarketDataインターフェースのモック実装です。
type mockMarketData struct {
	FetchBatchResultsFunc func(ctx context.Context, tickers []string, period mdentity.Period) map[string]mdusecase.FetchResult

	mu          sync.Mutex
	periods     []mdentity.Period
	tickers     map[mdentity.Period][]string
	invalidated []string
}

func (m *mockMarketData) FetchBatchResults(ctx context.Context, tickers []string, period mdentity.Period, _ int) map[string]mdusecase.FetchResult {
	m.mu.Lock()
	m.periods = append(m.periods, period)
	if m.tickers == nil {
		m.tickers = map[mdentity.Period][]string{}
	}
	m.tickers[period] = append([]string{}, tickers...)
	m.mu.Unlock()

	if m.FetchBatchResultsFunc != nil {
		return m.FetchBatchResultsFunc(ctx, tickers, period)
	}
	out := make(map[string]mdusecase.FetchResult, len(tickers))
	for i, t := range tickers {
		out[t] = mdusecase.FetchResult{Series: rising(float64(i + 1))}
	}
	return out
}

func (m *mockMarketData) MarketCaps(_ context.Context, tickers []string) map[string]mdentity.MarketCap {
	out := make(map[string]mdentity.MarketCap, len(tickers))
	for _, t := range tickers {
		out[t] = mdentity.MarketCap{Value: 5e12, Category: mdentity.CategoryLarge}
	}
	return out
}

func (m *mockMarketData) LastTradingDate(context.Context) string { return "2024-01-05 15:00" }

func (m *mockMarketData) Invalidate(ticker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, ticker)
}

func (m *mockMarketData) Concurrency() int { return 4 }

func (m *mockMarketData) fetchedPeriods() []mdentity.Period {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mdentity.Period{}, m.periods...)
}

// mockThemeIndex はThemeIndexインターフェースのモック実装です。
type mockThemeIndex struct {
	themes []thentity.Theme
}

func (m *mockThemeIndex) Themes() []thentity.Theme { return m.themes }

func (m *mockThemeIndex) AllTickers() []string {
	var all []string
	for _, th := range m.themes {
		all = append(all, th.Tickers...)
	}
	return mdentity.Unique(all)
}

func (m *mockThemeIndex) ThemesContaining(ticker string) []thentity.Theme {
	var out []thentity.Theme
	for _, th := range m.themes {
		if th.Contains(ticker) {
			out = append(out, th)
		}
	}
	return out
}

// mockStore はSnapshotStoreインターフェースのモック実装です。
type mockStore struct {
	SaveRankingFunc        func(doc entity.RankingDocument) error
	RankingGeneratedAtFunc func(period mdentity.Period) (string, error)

	mu       sync.Mutex
	rankings map[string]entity.RankingDocument
	details  map[string]entity.ThemeDetailDocument
	heatmaps map[string]entity.HeatmapDocument
}

func newMockStore() *mockStore {
	return &mockStore{
		rankings: map[string]entity.RankingDocument{},
		details:  map[string]entity.ThemeDetailDocument{},
		heatmaps: map[string]entity.HeatmapDocument{},
	}
}

func (m *mockStore) SaveRanking(doc entity.RankingDocument) error {
	if m.SaveRankingFunc != nil {
		if err := m.SaveRankingFunc(doc); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankings[doc.Period] = doc
	return nil
}

func (m *mockStore) SaveDetail(doc entity.ThemeDetailDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[doc.ID+"_"+doc.Period] = doc
	return nil
}

func (m *mockStore) SaveHeatmap(doc entity.HeatmapDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heatmaps[doc.Period] = doc
	return nil
}

func (m *mockStore) RankingGeneratedAt(period mdentity.Period) (string, error) {
	if m.RankingGeneratedAtFunc != nil {
		return m.RankingGeneratedAtFunc(period)
	}
	return "", fmt.Errorf("%s: %w", entity.RankingFile(period), entity.ErrSnapshotNotFound)
}

func (m *mockStore) detailKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.details))
	for k := range m.details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rising returns a series that gains pct percent over two bars.
func rising(pct float64) mdentity.PriceSeries {
	day := time.Date(2024, 1, 4, 0, 0, 0, 0, mdentity.Tokyo)
	return mdentity.PriceSeries{
		{Time: day, Close: 100},
		{Time: day.AddDate(0, 0, 1), Close: 100 + pct},
	}
}

func fixedThemes() *mockThemeIndex {
	return &mockThemeIndex{themes: []thentity.Theme{
		{ID: "semiconductor", Name: "半導体", Tickers: []string{"8035.T", "6857.T"}},
		{ID: "ai", Name: "AI", Tickers: []string{"9984.T", "6857.T"}},
		{ID: "bank", Name: "銀行", Tickers: []string{"8306.T"}},
	}}
}

var testNow = time.Date(2024, 1, 5, 16, 0, 0, 0, mdentity.Tokyo)

func newScheduler(data *mockMarketData, store *mockStore, opts ...usecase.Option) *usecase.Scheduler {
	opts = append([]usecase.Option{
		usecase.WithPeriods(mdentity.Period1D, mdentity.Period1M),
		usecase.WithClock(func() time.Time { return testNow }),
	}, opts...)
	return usecase.NewScheduler(data, fixedThemes(), store, zerolog.Nop(), opts...)
}

func TestScheduler_RunFullUpdate(t *testing.T) {
	t.Parallel()

	data := &mockMarketData{}
	store := newMockStore()
	s := newScheduler(data, store)

	require.NoError(t, s.RunFullUpdate(context.Background()))

	assert.Equal(t, []mdentity.Period{mdentity.Period1D, mdentity.Period1M, mdentity.Period1Y}, data.fetchedPeriods())
	assert.Equal(t, []string{"8035.T", "6857.T", "9984.T", "8306.T"}, data.tickers[mdentity.Period1M])

	require.Len(t, store.rankings, 2)
	ranking := store.rankings["1mo"]
	assert.Equal(t, 3, ranking.Total)
	require.NotNil(t, ranking.LastUpdated)
	assert.Equal(t, "2024-01-05 15:00", *ranking.LastUpdated)
	assert.Equal(t, "2024-01-05T16:00:00+09:00", ranking.GeneratedAt)
	for i := 1; i < len(ranking.Themes); i++ {
		assert.GreaterOrEqual(t, ranking.Themes[i-1].ChangePercent, ranking.Themes[i].ChangePercent)
	}
	for _, th := range ranking.Themes {
		assert.NotNil(t, th.ChangePercent1D, th.ID)
	}
	assert.Nil(t, store.rankings["1d"].Themes[0].ChangePercent1D)

	assert.Equal(t, []string{
		"ai_1d", "ai_1mo", "bank_1d", "bank_1mo", "semiconductor_1d", "semiconductor_1mo",
	}, store.detailKeys())
	assert.Equal(t, ranking.GeneratedAt, store.details["ai_1mo"].GeneratedAt)

	require.Len(t, store.heatmaps, 2)
	assert.Equal(t, 4, store.heatmaps["1mo"].Categories.Large.Count)

	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, usecase.JobFullUpdate, st.LastJob)
	assert.NotEmpty(t, st.LastRunID)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.LastFinishedAt)
}

func TestScheduler_GateRejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	data := &mockMarketData{}
	data.FetchBatchResultsFunc = func(_ context.Context, tickers []string, _ mdentity.Period) map[string]mdusecase.FetchResult {
		once.Do(func() { close(entered) })
		<-release
		out := map[string]mdusecase.FetchResult{}
		for _, tk := range tickers {
			out[tk] = mdusecase.FetchResult{Series: rising(1)}
		}
		return out
	}
	s := newScheduler(data, newMockStore())
	ctx := context.Background()

	runID, err := s.StartFullUpdate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	<-entered

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, usecase.JobFullUpdate, st.CurrentJob)
	assert.Equal(t, runID, st.LastRunID)

	_, err = s.StartFullUpdate(ctx)
	assert.ErrorIs(t, err, usecase.ErrAlreadyRunning)
	assert.ErrorIs(t, s.RunFullUpdate(ctx), usecase.ErrAlreadyRunning)
	assert.ErrorIs(t, s.RunHeatmapUpdate(ctx), usecase.ErrAlreadyRunning)
	assert.ErrorIs(t, s.UpdateSingleTicker(ctx, "6857"), usecase.ErrAlreadyRunning)

	close(release)
	require.Eventually(t, func() bool { return !s.Status().Running }, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, s.RunFullUpdate(ctx))
}

func TestScheduler_FullUpdateJobSkipsWhenBusy(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	data := &mockMarketData{}
	data.FetchBatchResultsFunc = func(_ context.Context, _ []string, _ mdentity.Period) map[string]mdusecase.FetchResult {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}
	s := newScheduler(data, newMockStore())

	_, err := s.StartFullUpdate(context.Background())
	require.NoError(t, err)
	<-entered

	job := usecase.FullUpdateJob{Scheduler: s}
	assert.Equal(t, usecase.JobFullUpdate, job.Name())
	assert.NoError(t, job.Run(context.Background()))

	close(release)
	require.Eventually(t, func() bool { return !s.Status().Running }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_PersistFailureIsReportedAndGateReleased(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.SaveRankingFunc = func(doc entity.RankingDocument) error {
		if doc.Period == "1mo" {
			return errDisk
		}
		return nil
	}
	s := newScheduler(&mockMarketData{}, store)

	err := s.RunFullUpdate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)

	assert.Contains(t, store.rankings, "1d")
	assert.NotContains(t, store.rankings, "1mo")
	assert.Len(t, store.detailKeys(), 6)
	assert.Len(t, store.heatmaps, 2)

	st := s.Status()
	assert.False(t, st.Running)
	assert.Contains(t, st.LastError, "disk full")

	store.SaveRankingFunc = nil
	require.NoError(t, s.RunFullUpdate(context.Background()))
	assert.Empty(t, s.Status().LastError)
}

func TestScheduler_EmptyBatchSkipsPeriod(t *testing.T) {
	t.Parallel()

	data := &mockMarketData{}
	data.FetchBatchResultsFunc = func(_ context.Context, tickers []string, p mdentity.Period) map[string]mdusecase.FetchResult {
		out := map[string]mdusecase.FetchResult{}
		for _, tk := range tickers {
			if p == mdentity.Period1M {
				out[tk] = mdusecase.FetchResult{Err: mdusecase.ErrNoData}
				continue
			}
			out[tk] = mdusecase.FetchResult{Series: rising(2)}
		}
		return out
	}
	store := newMockStore()
	s := newScheduler(data, store)

	err := s.RunFullUpdate(context.Background())
	assert.ErrorIs(t, err, usecase.ErrEmptyBatch)
	assert.Contains(t, store.rankings, "1d")
	assert.NotContains(t, store.rankings, "1mo")
	assert.NotContains(t, store.heatmaps, "1mo")
}

func TestScheduler_CancelledContext(t *testing.T) {
	t.Parallel()

	data := &mockMarketData{}
	store := newMockStore()
	s := newScheduler(data, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunFullUpdate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, data.fetchedPeriods())
	assert.Empty(t, store.rankings)
	assert.False(t, s.Status().Running)
}

func TestScheduler_RunHeatmapUpdate(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	s := newScheduler(&mockMarketData{}, store)

	require.NoError(t, s.RunHeatmapUpdate(context.Background()))
	assert.Len(t, store.heatmaps, 2)
	assert.Empty(t, store.rankings)
	assert.Empty(t, store.detailKeys())
	assert.Equal(t, usecase.JobHeatmap, s.Status().LastJob)
}

func TestScheduler_UpdateSingleTicker(t *testing.T) {
	t.Parallel()

	t.Run("rewrites only containing themes", func(t *testing.T) {
		t.Parallel()

		data := &mockMarketData{}
		store := newMockStore()
		s := newScheduler(data, store)

		require.NoError(t, s.UpdateSingleTicker(context.Background(), "６８５７"))

		assert.Equal(t, []string{"6857.T"}, data.invalidated)
		assert.ElementsMatch(t, []string{"8035.T", "6857.T", "9984.T"}, data.tickers[mdentity.Period1M])
		assert.Equal(t, []string{"ai_1d", "ai_1mo", "semiconductor_1d", "semiconductor_1mo"}, store.detailKeys())
		assert.Empty(t, store.rankings)
		assert.Empty(t, store.heatmaps)
		assert.Equal(t, usecase.JobSingleTicker, s.Status().LastJob)
	})

	tests := []struct {
		name string
		code string
	}{
		{name: "unregistered", code: "0000"},
		{name: "blank", code: "  "},
		{name: "path-like", code: "../etc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := &mockMarketData{}
			s := newScheduler(data, newMockStore())

			err := s.UpdateSingleTicker(context.Background(), tt.code)
			assert.ErrorIs(t, err, usecase.ErrTickerNotFound)
			assert.Empty(t, data.invalidated)
			assert.Empty(t, s.Status().LastRunID)
		})
	}
}

func TestScheduler_IsStale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		err    error
		maxAge time.Duration
		want   bool
	}{
		{name: "missing", err: entity.ErrSnapshotNotFound, maxAge: time.Hour, want: true},
		{name: "unparseable", raw: "not-a-time", maxAge: time.Hour, want: true},
		{name: "fresh", raw: "2024-01-05T15:00:00+09:00", maxAge: 2 * time.Hour, want: false},
		{name: "old", raw: "2024-01-05T13:00:00+09:00", maxAge: 2 * time.Hour, want: true},
		{name: "exactly max age", raw: "2024-01-05T14:00:00+09:00", maxAge: 2 * time.Hour, want: true},
		{name: "naive local time", raw: "2024-01-05T15:30:00.250000", maxAge: time.Hour, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMockStore()
			store.RankingGeneratedAtFunc = func(p mdentity.Period) (string, error) {
				assert.Equal(t, mdentity.Period1M, p)
				return tt.raw, tt.err
			}
			s := newScheduler(&mockMarketData{}, store)
			assert.Equal(t, tt.want, s.IsStale(tt.maxAge))
		})
	}
}

func TestScheduler_UpdateIfStale(t *testing.T) {
	t.Parallel()

	t.Run("fresh", func(t *testing.T) {
		t.Parallel()

		data := &mockMarketData{}
		store := newMockStore()
		store.RankingGeneratedAtFunc = func(mdentity.Period) (string, error) { return "2024-01-05T15:59:00+09:00", nil }
		s := newScheduler(data, store)

		require.NoError(t, s.UpdateIfStale(context.Background(), 2*time.Hour))
		assert.Empty(t, data.fetchedPeriods())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		data := &mockMarketData{}
		store := newMockStore()
		s := newScheduler(data, store)

		require.NoError(t, s.UpdateIfStale(context.Background(), 2*time.Hour))
		assert.NotEmpty(t, data.fetchedPeriods())
		assert.Len(t, store.rankings, 2)
	})
}
