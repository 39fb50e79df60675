package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/domain/entity"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/feature/marketdata/usecase"
	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/externalapi/yahoo/dto"
)

// Client はYahoo Finance APIから日足と時価総額を取得します。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Clientがプロバイダインターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.PriceProvider     = (*Client)(nil)
	_ usecase.MarketCapProvider = (*Client)(nil)
)

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client *http.Client, logger zerolog.Logger) *Client {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}
	return &Client{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(limit), limit),
		logger:  logger.With().Str("component", "yahoo").Logger(),
	}
}

// DailySeries は chart API から日足を取得し、日付昇順の PriceSeries を返します。
// 終値が null のバー（休場・売買停止）は除外します。
func (c *Client) DailySeries(ctx context.Context, ticker, rangeCode string) (entity.PriceSeries, error) {
	q := url.Values{}
	q.Set("range", rangeCode)
	q.Set("interval", "1d")
	q.Set("includePrePost", "false")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.cfg.BaseURL, url.PathEscape(ticker), q.Encode())

	var body dto.ChartResponse
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return entity.PriceSeries{}, nil
	}

	r := body.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return entity.PriceSeries{}, nil
	}
	quote := r.Indicators.Quote[0]

	series := make(entity.PriceSeries, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(quote.Close, i)
		if cl == nil {
			continue
		}
		candle := entity.Candle{
			Time:   entity.TradingDay(time.Unix(ts, 0)),
			Open:   orDefault(at(quote.Open, i), *cl),
			High:   orDefault(at(quote.High, i), *cl),
			Low:    orDefault(at(quote.Low, i), *cl),
			Close:  *cl,
			Volume: int64(orDefault(at(quote.Volume, i), 0)),
		}

		// 場中は当日分が別タイムスタンプで重複することがあるため後勝ちで置き換える
		if n := len(series); n > 0 && !series[n-1].Time.Before(candle.Time) {
			series[n-1] = candle
			continue
		}
		series = append(series, candle)
	}
	return series, nil
}

// MarketCap は quote API から時価総額（円）を取得します。
// 値が無い場合は 0 を返します。
func (c *Client) MarketCap(ctx context.Context, ticker string) (float64, error) {
	q := url.Values{}
	q.Set("symbols", ticker)
	u := fmt.Sprintf("%s/v7/finance/quote?%s", c.cfg.BaseURL, q.Encode())

	var body dto.QuoteResponse
	if err := c.getJSON(ctx, u, &body); err != nil {
		return 0, err
	}
	if e := body.QuoteResponse.Error; e != nil {
		return 0, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	for _, r := range body.QuoteResponse.Result {
		if r.Symbol == ticker && r.MarketCap != nil {
			return *r.MarketCap, nil
		}
	}
	return 0, nil
}

// getJSON はレート制限を待ってからGETし、レスポンスを dest にデコードします。
func (c *Client) getJSON(ctx context.Context, u string, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("yahoo http %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
