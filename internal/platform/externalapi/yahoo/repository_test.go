package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwnakanaka1-lgtm/jp-theme-tracker/internal/platform/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, RateLimit: 100}, srv.Client(), zerolog.Nop())
}

// timestamps: 2024-01-04 / 01-05 / 01-09 09:00 JST
func TestClient_DailySeries_Success(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/7203.T", r.URL.Path)
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"meta":{"symbol":"7203.T","currency":"JPY"},
			"timestamp":[1704326400,1704412800,1704758400],
			"indicators":{"quote":[{
				"open":[100,null,104],
				"high":[101,null,106],
				"low":[99,null,103],
				"close":[100.5,null,105],
				"volume":[1000,null,3000]
			}]}
		}],"error":null}}`))
	})

	series, err := client.DailySeries(context.Background(), "7203.T", "5d")
	require.NoError(t, err)

	// null のバーは除外される
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01-04", series[0].Date())
	assert.Equal(t, 100.5, series[0].Close)
	assert.Equal(t, int64(1000), series[0].Volume)
	assert.Equal(t, "2024-01-09", series[1].Date())
	assert.Equal(t, 106.0, series[1].High)
}

func TestClient_DailySeries_DuplicateDayReplaced(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// 2つ目は同日場中のタイムスタンプ
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704326400,1704340800],
			"indicators":{"quote":[{"open":[1,2],"high":[1,2],"low":[1,2],"close":[1,2],"volume":[1,2]}]}
		}]}}`))
	})

	series, err := client.DailySeries(context.Background(), "7203.T", "5d")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 2.0, series[0].Close)
}

func TestClient_DailySeries_MissingOHLFallsBackToClose(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704326400],
			"indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[50],"volume":[null]}]}
		}]}}`))
	})

	series, err := client.DailySeries(context.Background(), "7203.T", "1mo")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 50.0, series[0].Open)
	assert.Equal(t, 50.0, series[0].High)
	assert.Equal(t, 50.0, series[0].Low)
	assert.Equal(t, int64(0), series[0].Volume)
}

func TestClient_DailySeries_EmptyResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	series, err := client.DailySeries(context.Background(), "9999.T", "1mo")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestClient_DailySeries_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"not found", http.StatusNotFound, ``, "yahoo http 404"},
		{"server error", http.StatusInternalServerError, ``, "yahoo http 500"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "No data found"},
		{"invalid json", http.StatusOK, `{invalid`, "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.DailySeries(context.Background(), "7203.T", "1mo")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_MarketCap(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		switch r.URL.Query().Get("symbols") {
		case "7203.T":
			_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"7203.T","marketCap":45000000000000}],"error":null}}`))
		default:
			_, _ = w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
		}
	})

	v, err := client.MarketCap(context.Background(), "7203.T")
	require.NoError(t, err)
	assert.Equal(t, 45e12, v)

	v, err = client.MarketCap(context.Background(), "0000.T")
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestClient_CancelledContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DailySeries(ctx, "7203.T", "1mo")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "context canceled"))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		app  config.YahooConfig
		want Config
	}{
		{
			name: "defaults",
			app:  config.YahooConfig{},
			want: Config{BaseURL: DefaultBaseURL, Timeout: 15 * time.Second, RateLimit: 5},
		},
		{
			name: "overrides",
			app:  config.YahooConfig{BaseURL: "http://yahoo.local", RateLimit: 12, Timeout: time.Second},
			want: Config{BaseURL: "http://yahoo.local", Timeout: time.Second, RateLimit: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LoadConfig(tt.app))
		})
	}
}
