// Package market reads public price data from a CoinGecko-compatible API.
//
// The provider is unauthenticated and outside our control: every failure is
// returned as an apperror.ErrTransport and the pollers built on top of this
// client simply keep the previous value.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
)

// Asset maps a provider coin id to the wallet symbol.
type Asset struct {
	ID     string
	Symbol string
}

// TrackedAssets are the coins every view shows, in display order.
var TrackedAssets = []Asset{
	{ID: "bitcoin", Symbol: "BTC"},
	{ID: "ethereum", Symbol: "ETH"},
	{ID: "binancecoin", Symbol: "BNB"},
	{ID: "solana", Symbol: "SOL"},
	{ID: "ripple", Symbol: "XRP"},
}

// TrackedIDs returns the provider ids of TrackedAssets.
func TrackedIDs() []string {
	ids := make([]string, len(TrackedAssets))
	for i, a := range TrackedAssets {
		ids[i] = a.ID
	}
	return ids
}

// ChartRanges are the history windows, in days, the price cards offer.
var ChartRanges = []int{1, 7, 30, 90, 365}

// ValidRange reports whether days is one of ChartRanges.
func ValidRange(days int) bool {
	for _, d := range ChartRanges {
		if d == days {
			return true
		}
	}
	return false
}

// SimplePrices is the provider's id → currency → price map.
type SimplePrices map[string]map[string]decimal.Decimal

// PriceMap converts provider prices to wallet symbols in USD. Missing coins
// price at zero; USDT is pinned to 1.
func PriceMap(prices SimplePrices) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(TrackedAssets)+1)
	for _, a := range TrackedAssets {
		out[a.Symbol] = prices[a.ID]["usd"]
	}
	out["USDT"] = decimal.NewFromInt(1)
	return out
}

// defaultTimeout bounds a shared upstream call when the HTTP client has none.
const defaultTimeout = 15 * time.Second

// Client fetches market data. Identical concurrent requests share one
// upstream call, so values it returns may be held by other callers and
// must not be modified in place.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	group      singleflight.Group
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Markets returns one snapshot per id, ordered by market cap.
func (c *Client) Markets(ctx context.Context, ids []string, sparkline bool) ([]model.MarketSnapshot, error) {
	q := url.Values{
		"vs_currency": {"usd"},
		"ids":         {strings.Join(ids, ",")},
		"order":       {"market_cap_desc"},
		"sparkline":   {strconv.FormatBool(sparkline)},
	}
	if sparkline {
		q.Set("price_change_percentage", "24h")
	}
	return getJSON[[]model.MarketSnapshot](ctx, c, "/coins/markets", q)
}

// SimplePrices returns USD spot prices for ids.
func (c *Client) SimplePrices(ctx context.Context, ids []string) (SimplePrices, error) {
	q := url.Values{
		"ids":           {strings.Join(ids, ",")},
		"vs_currencies": {"usd"},
	}
	return getJSON[SimplePrices](ctx, c, "/simple/price", q)
}

// MarketChart returns the USD price history of id over the last days.
func (c *Client) MarketChart(ctx context.Context, id string, days int) ([]model.PricePoint, error) {
	q := url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}
	chart, err := getJSON[struct {
		Prices []model.PricePoint `json:"prices"`
	}](ctx, c, "/coins/"+url.PathEscape(id)+"/market_chart", q)
	if err != nil {
		return nil, err
	}
	return chart.Prices, nil
}

// Cards fetches the tracked markets with sparklines and, concurrently, the
// history of selected. The history is attached to the selected record only.
func (c *Client) Cards(ctx context.Context, selected string, days int) ([]model.MarketSnapshot, error) {
	var (
		markets []model.MarketSnapshot
		chart   []model.PricePoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		markets, err = c.Markets(gctx, TrackedIDs(), true)
		return err
	})
	g.Go(func() error {
		var err error
		chart, err = c.MarketChart(gctx, selected, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// markets may be shared with a concurrent Cards call for another asset.
	markets = slices.Clone(markets)
	for i := range markets {
		if markets[i].ID == selected {
			markets[i].ChartPrices = chart
		}
	}
	return markets, nil
}

// getJSON decodes one GET into T. The upstream call outlives the caller
// that started it: followers waiting on the same key are not failed by the
// leader's cancellation. Each caller still returns as soon as its own ctx
// is done.
func getJSON[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	target := c.baseURL + path + "?" + q.Encode()

	ch := c.group.DoChan(target, func() (any, error) {
		reqCtx := context.WithoutCancel(ctx)
		if c.httpClient.Timeout <= 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(reqCtx, defaultTimeout)
			defer cancel()
		}
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("market: building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperror.Transport(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			return nil, apperror.Transport(fmt.Errorf("market: GET %s: status %d", path, resp.StatusCode))
		}

		var out T
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, apperror.Transport(fmt.Errorf("market: decoding %s: %w", path, err))
		}
		return out, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, apperror.Transport(ctx.Err())
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("market request shared", slog.String("path", path))
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
