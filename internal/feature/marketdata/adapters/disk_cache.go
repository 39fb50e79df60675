// Package adapters provides storage implementations for the marketdata feature.
package adapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/fsutil"
)

const marketCapSuffix = "_marketcap.json"

// DiskCache は銘柄ごとの日足と時価総額をJSONファイルとして保存します。
// 鮮度はファイルの最終更新時刻で判定します。
type DiskCache struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

// DiskCacheがキャッシュインターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.SeriesCache    = (*DiskCache)(nil)
	_ usecase.MarketCapCache = (*DiskCache)(nil)
)

type seriesFile struct {
	Timestamp time.Time          `json:"timestamp"`
	Ticker    string             `json:"ticker"`
	Period    string             `json:"period"`
	Data      entity.PriceSeries `json:"data"`
}

type marketCapFile struct {
	Timestamp time.Time                `json:"timestamp"`
	MarketCap float64                  `json:"market_cap"`
	Category  entity.MarketCapCategory `json:"market_cap_category"`
}

// NewDiskCache は dir 配下にキャッシュを置く DiskCache を生成します。
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir, now: time.Now}
}

// Dir returns the cache directory.
func (d *DiskCache) Dir() string { return d.dir }

// LoadSeries は maxAge 以内に書かれたキャッシュがあれば返します。
func (d *DiskCache) LoadSeries(ticker string, period entity.Period, maxAge time.Duration) (entity.PriceSeries, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	path := d.seriesPath(ticker, period)
	fresh, err := d.fresh(path, maxAge)
	if err != nil || !fresh {
		return nil, false, err
	}

	var f seriesFile
	if err := fsutil.ReadJSON(path, &f); err != nil {
		return nil, false, err
	}
	return f.Data, true, nil
}

// SaveSeries は日足をアトミックに書き込みます。
func (d *DiskCache) SaveSeries(ticker string, period entity.Period, series entity.PriceSeries) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return fsutil.WriteJSON(d.seriesPath(ticker, period), seriesFile{
		Timestamp: d.now(),
		Ticker:    ticker,
		Period:    string(period),
		Data:      series,
	})
}

// DeleteTicker は指定銘柄の全期間の日足キャッシュを削除します。
func (d *DiskCache) DeleteTicker(ticker string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, p := range entity.AllPeriods {
		if err := fsutil.RemoveIfExists(d.seriesPath(ticker, p)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear は日足キャッシュを全て削除し、削除件数を返します。時価総額は残します。
func (d *DiskCache) Clear() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(d.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("glob cache dir: %w", err)
	}

	removed := 0
	var errs []error
	for _, m := range matches {
		if strings.HasSuffix(m, marketCapSuffix) {
			continue
		}
		if err := os.Remove(m); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// LoadMarketCap は maxAge 以内の時価総額キャッシュを返します。
func (d *DiskCache) LoadMarketCap(ticker string, maxAge time.Duration) (float64, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	path := d.marketCapPath(ticker)
	fresh, err := d.fresh(path, maxAge)
	if err != nil || !fresh {
		return 0, false, err
	}

	var f marketCapFile
	if err := fsutil.ReadJSON(path, &f); err != nil {
		return 0, false, err
	}
	return f.MarketCap, true, nil
}

// SaveMarketCap は時価総額と分類を書き込みます。
func (d *DiskCache) SaveMarketCap(ticker string, yen float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return fsutil.WriteJSON(d.marketCapPath(ticker), marketCapFile{
		Timestamp: d.now(),
		MarketCap: yen,
		Category:  entity.ClassifyMarketCap(yen),
	})
}

// fresh reports whether path exists and was modified less than maxAge ago.
// A missing file is a miss, not an error.
func (d *DiskCache) fresh(path string, maxAge time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.now().Sub(info.ModTime()) < maxAge, nil
}

func (d *DiskCache) seriesPath(ticker string, period entity.Period) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.json", entity.SafeFileKey(ticker), period))
}

func (d *DiskCache) marketCapPath(ticker string) string {
	return filepath.Join(d.dir, entity.SafeFileKey(ticker)+marketCapSuffix)
}
