package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"

	"tickerbot/internal/domain"
)

// Sina reads hq.sinajs.cn quote strings for cross-strait "sh"/"sz" codes.
// The payload is GBK-encoded CSV wrapped in a JS assignment; field 0 is the
// display name, field 3 the last price.
type Sina struct {
	baseURL string
	client  *Client
}

func NewSina(baseURL string, client *Client) *Sina {
	if baseURL == "" {
		baseURL = "https://hq.sinajs.cn"
	}
	return &Sina{baseURL: baseURL, client: client}
}

func (s *Sina) Name() string { return "sina" }

func (s *Sina) Fetch(ctx context.Context, symbol domain.Symbol) (domain.Quote, error) {
	code := symbol.String()
	if !strings.HasPrefix(code, "sh") && !strings.HasPrefix(code, "sz") {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("sina: unsupported code %q", code))
	}

	endpoint := s.baseURL + "/list=" + code
	// Sina rejects requests without a finance referer.
	headers := map[string]string{"Referer": "https://finance.sina.com.cn"}

	resp, err := s.client.Get(ctx, endpoint, headers)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("sina http %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, err)
	}
	utf8Body, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("gbk decode: %w", err))
	}

	return parseSinaQuote(symbol, string(utf8Body))
}

func parseSinaQuote(symbol domain.Symbol, body string) (domain.Quote, error) {
	parts := strings.Split(body, "\"")
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonNotFound, fmt.Errorf("sina: empty quote"))
	}

	fields := strings.Split(parts[1], ",")
	if len(fields) < 4 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("sina: short record (%d fields)", len(fields)))
	}

	price, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || price <= 0 {
		return domain.Quote{}, domain.NewQuoteError(symbol, domain.ReasonUnavailable, fmt.Errorf("sina: bad price %q", fields[3]))
	}

	return domain.Quote{
		Symbol: symbol,
		Name:   strings.TrimSpace(fields[0]),
		Price:  price,
		Unit:   "CNY",
		Time:   time.Now(),
		Source: "sina",
	}, nil
}
