package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
)

// MarketCap は時価総額と分類を返します（ディスクキャッシュ優先）。
// 取得に失敗した場合は 0 / unknown を返し、キャッシュには保存しません。
func (f *Fetcher) MarketCap(ctx context.Context, ticker string) entity.MarketCap {
	if yen, ok, err := f.capDisk.LoadMarketCap(ticker, f.cfg.DiskTTL); err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Msg("market cap cache read failed")
	} else if ok {
		return entity.MarketCap{Value: yen, Category: entity.ClassifyMarketCap(yen)}
	}

	yen, err := f.caps.MarketCap(ctx, ticker)
	if err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Msg("market cap fetch failed")
		return entity.UnknownMarketCap()
	}

	if err := f.capDisk.SaveMarketCap(ticker, yen); err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Msg("market cap cache write failed")
	}
	return entity.MarketCap{Value: yen, Category: entity.ClassifyMarketCap(yen)}
}

// MarketCaps は重複を除いた銘柄の時価総額を並列に取得します。
// 全銘柄が結果に含まれます（失敗時は unknown）。
func (f *Fetcher) MarketCaps(ctx context.Context, tickers []string) map[string]entity.MarketCap {
	unique := entity.Unique(tickers)
	out := make(map[string]entity.MarketCap, len(unique))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)
	for _, t := range unique {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, f.cfg.TaskTimeout)
			defer cancel()
			mc := f.MarketCap(tctx, t)
			mu.Lock()
			out[t] = mc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
