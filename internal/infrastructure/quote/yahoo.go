package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tickerbot/internal/domain"
)

// Yahoo fetches the latest regular-market price from the Yahoo Finance v8
// chart endpoint. It understands any symbol Yahoo lists, including the
// ".TW"/".TWO" Taiwan suffixes the original watchlist uses.
type Yahoo struct {
	baseURL string
	client  *Client
}

func NewYahoo(baseURL string, client *Client) *Yahoo {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Yahoo{baseURL: baseURL, client: client}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d",
		y.baseURL, url.PathEscape(symbol.String()))

	resp, err := y.client.Get(ctx, endpoint, nil)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("yahoo http %d", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonRateLimited, fmt.Errorf("yahoo http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("yahoo http %d", resp.StatusCode))
	}

	var body yahooChartResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("decode: %w", err))
	}
	if body.Chart.Error != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("yahoo: %s", body.Chart.Error.Code))
	}
	if len(body.Chart.Result) == 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("yahoo: empty result"))
	}

	meta := body.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("yahoo: no price"))
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	ts := time.Unix(meta.RegularMarketTime, 0)
	if meta.RegularMarketTime == 0 {
		ts = time.Now()
	}
	return domain.Quote{
		Symbol: symbol,
		Name:   name,
		Price:  meta.RegularMarketPrice,
		Unit:   meta.Currency,
		Time:   ts,
		Source: y.Name(),
	}, nil
}
