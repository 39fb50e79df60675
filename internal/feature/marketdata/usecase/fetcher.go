package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// NikkeiTicker is the benchmark used to determine the last trading date.
const NikkeiTicker = "^N225"

// FetcherConfig は取得処理のパラメータです。ゼロ値の項目は既定値になります。
type FetcherConfig struct {
	DiskTTL       time.Duration // ディスクキャッシュの有効期間（既定 24h）
	MemoryEntries int           // メモリキャッシュの上限件数（既定 200）
	Concurrency   int           // バッチ取得の並列数（既定 15）
	TaskTimeout   time.Duration // 1銘柄あたりのタイムアウト（既定 30s）
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.DiskTTL <= 0 {
		c.DiskTTL = 24 * time.Hour
	}
	if c.MemoryEntries <= 0 {
		c.MemoryEntries = 200
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 15
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 30 * time.Second
	}
	return c
}

// FetchResult は1銘柄分の取得結果です。Err が nil のときのみ Series が有効です。
type FetchResult struct {
	Series entity.PriceSeries
	Err    error
}

// OK reports whether the fetch produced a series.
func (r FetchResult) OK() bool { return r.Err == nil && len(r.Series) > 0 }

// Fetcher は日足の取得を担います。
// 参照順はメモリ（日付付きキー）→ ディスク → 外部API です。
type Fetcher struct {
	provider PriceProvider
	caps     MarketCapProvider
	disk     SeriesCache
	capDisk  MarketCapCache
	memory   *lru.Cache[string, entity.PriceSeries]
	cfg      FetcherConfig
	now      func() time.Time
	logger   zerolog.Logger
}

// NewFetcher は Fetcher を生成します。
func NewFetcher(
	provider PriceProvider,
	caps MarketCapProvider,
	disk SeriesCache,
	capDisk MarketCapCache,
	cfg FetcherConfig,
	logger zerolog.Logger,
) (*Fetcher, error) {
	cfg = cfg.withDefaults()
	memory, err := lru.New[string, entity.PriceSeries](cfg.MemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &Fetcher{
		provider: provider,
		caps:     caps,
		disk:     disk,
		capDisk:  capDisk,
		memory:   memory,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With().Str("component", "fetcher").Logger(),
	}, nil
}

// Concurrency returns the configured batch width.
func (f *Fetcher) Concurrency() int { return f.cfg.Concurrency }

// FetchOne は1銘柄×1期間の日足を返します。
// キャッシュの読み書きに失敗してもエラーにはせず、ログを残してミスとして扱います。
func (f *Fetcher) FetchOne(ctx context.Context, ticker string, period entity.Period) (entity.PriceSeries, error) {
	key := entity.DayKey(f.now(), ticker, string(period))

	if s, ok := f.memory.Get(key); ok {
		return s, nil
	}

	s, ok, err := f.disk.LoadSeries(ticker, period, f.cfg.DiskTTL)
	if err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Str("period", string(period)).Msg("disk cache read failed")
	} else if ok && len(s) > 0 {
		f.memory.Add(key, s)
		return s, nil
	}

	s, err = f.provider.DailySeries(ctx, ticker, period.ProviderRange())
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", ticker, period, err)
	}
	if keep := period.KeepBars(); keep > 0 {
		s = s.Tail(keep)
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("fetch %s %s: %w", ticker, period, ErrNoData)
	}

	if err := f.disk.SaveSeries(ticker, period, s); err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Str("period", string(period)).Msg("disk cache write failed")
	}
	f.memory.Add(key, s)
	return s, nil
}

// FetchBatchResults は重複を除いた銘柄ごとに1回ずつ取得し、結果を銘柄別に返します。
// 個々の失敗・タイムアウトは結果の Err に入り、バッチ全体は中断しません。
func (f *Fetcher) FetchBatchResults(ctx context.Context, tickers []string, period entity.Period, concurrency int) map[string]FetchResult {
	unique := entity.Unique(tickers)
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]FetchResult, len(unique))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, t := range unique {
		g.Go(func() error {
			s, err := f.fetchWithTimeout(ctx, t, period)
			if err != nil {
				f.logger.Warn().Err(err).Str("ticker", t).Str("period", string(period)).Msg("fetch failed")
			}
			mu.Lock()
			results[t] = FetchResult{Series: s, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FetchBatch は FetchBatchResults のうち成功した銘柄だけを返します。
func (f *Fetcher) FetchBatch(ctx context.Context, tickers []string, period entity.Period, concurrency int) map[string]entity.PriceSeries {
	return Successful(f.FetchBatchResults(ctx, tickers, period, concurrency))
}

// Successful extracts the OK entries of a batch result.
func Successful(results map[string]FetchResult) map[string]entity.PriceSeries {
	out := make(map[string]entity.PriceSeries, len(results))
	for t, r := range results {
		if r.OK() {
			out[t] = r.Series
		}
	}
	return out
}

// fetchWithTimeout は FetchOne をタイムアウト付きで実行します。
// 期限を過ぎた取得は待たずに打ち切ります。
func (f *Fetcher) fetchWithTimeout(ctx context.Context, ticker string, period entity.Period) (entity.PriceSeries, error) {
	tctx, cancel := context.WithTimeout(ctx, f.cfg.TaskTimeout)
	defer cancel()

	ch := make(chan FetchResult, 1)
	go func() {
		s, err := f.FetchOne(tctx, ticker, period)
		ch <- FetchResult{Series: s, Err: err}
	}()

	select {
	case r := <-ch:
		return r.Series, r.Err
	case <-tctx.Done():
		return nil, fmt.Errorf("fetch %s %s: %w", ticker, period, tctx.Err())
	}
}

// LastTradingDate は日経平均の直近バーの日付に大引け時刻を付けて返します。
// 取得できない場合は空文字です。
func (f *Fetcher) LastTradingDate(ctx context.Context) string {
	s, err := f.FetchOne(ctx, NikkeiTicker, entity.Period5D)
	if err != nil {
		f.logger.Debug().Err(err).Msg("last trading date unavailable")
		return ""
	}
	last, ok := s.Last()
	if !ok {
		return ""
	}
	return last.Date() + " 15:00"
}

// Invalidate は指定銘柄のキャッシュをメモリ・ディスクの両方から削除します。
func (f *Fetcher) Invalidate(ticker string) {
	prefix := ticker + "|"
	for _, k := range f.memory.Keys() {
		if strings.HasPrefix(k, prefix) {
			f.memory.Remove(k)
		}
	}
	if err := f.disk.DeleteTicker(ticker); err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Msg("disk cache delete failed")
	}
}

// ClearCache はディスク上の日足キャッシュとメモリキャッシュを全て破棄します。
func (f *Fetcher) ClearCache() (int, error) {
	f.memory.Purge()
	n, err := f.disk.Clear()
	if err != nil {
		return n, fmt.Errorf("clear disk cache: %w", err)
	}
	return n, nil
}

// MemoryLen returns the number of in-process cached series.
func (f *Fetcher) MemoryLen() int { return f.memory.Len() }
