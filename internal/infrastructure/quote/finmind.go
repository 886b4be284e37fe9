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

// FinMind fetches Taiwan close prices from the FinMind open data API with a
// bearer token. It only serves ".TW"/".TWO" symbols; everything else is
// NotFound so the chain can move on.
type FinMind struct {
	baseURL string
	token   string
	client  *Client
}

func NewFinMind(baseURL, token string, client *Client) *FinMind {
	if baseURL == "" {
		baseURL = "https://api.finmindtrade.com"
	}
	return &FinMind{baseURL: baseURL, token: token, client: client}
}

func (f *FinMind) Name() string { return "finmind" }

type finmindResp struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"data"`
}

func (f *FinMind) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	market := symbol.Market()
	if market != "TW" && market != "TWO" {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("finmind: unsupported market %q", market))
	}

	q := url.Values{}
	q.Set("dataset", "TaiwanStockPrice")
	q.Set("data_id", symbol.Code())
	q.Set("start_date", time.Now().AddDate(0, 0, -7).Format("2006-01-02"))
	endpoint := f.baseURL + "/api/v4/data?" + q.Encode()

	headers := map[string]string{}
	if f.token != "" {
		headers["Authorization"] = "Bearer " + f.token
	}

	resp, err := f.client.Get(ctx, endpoint, headers)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonRateLimited, fmt.Errorf("finmind http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("finmind http %d", resp.StatusCode))
	}

	var body finmindResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("decode: %w", err))
	}
	if len(body.Data) == 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("finmind: no rows for %s", symbol.Code()))
	}

	last := body.Data[len(body.Data)-1]
	if last.Close <= 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("finmind: no close price"))
	}
	ts, err := time.Parse("2006-01-02", last.Date)
	if err != nil {
		ts = time.Now()
	}
	return domain.Quote{
		Symbol: symbol,
		Price:  last.Close,
		Unit:   "TWD",
		Time:   ts,
		Source: f.Name(),
	}, nil
}
