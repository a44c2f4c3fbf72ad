package utility

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/common"
	"github.com/raterudder/dayahead/pkg/log"
	"github.com/raterudder/dayahead/pkg/types"
	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// GridX implements Feed for the GridX getPricing API.
type GridX struct {
	apiURL  string
	utility string
	program string
	market  string
	client  *http.Client
	limiter *rate.Limiter
}

// StatusError is returned when GridX answers with a non-200 status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gridx api returned status: %d", e.StatusCode)
}

// Configured sets up the GridX feed based on flags.
func Configured() *GridX {
	g := &GridX{
		client:  common.HTTPClient(time.Minute),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	apiURL := lflag.String("gridx-api-url", "https://pge-pe-api.gridx.com/stage/v1/getPricing", "URL for the GridX getPricing API")
	utilityCode := lflag.String("gridx-utility", "PGE", "Utility code sent to GridX")
	program := lflag.String("gridx-program", "CalFUSE", "Pricing program sent to GridX")
	market := lflag.String("gridx-market", "DAM", "Market sent to GridX")
	minInterval := lflag.Duration("gridx-min-interval", 0, "Minimum time between GridX requests (0 disables limiting)")

	lflag.Do(func() {
		g.apiURL = *apiURL
		g.utility = *utilityCode
		g.program = *program
		g.market = *market
		if *minInterval > 0 {
			g.limiter = rate.NewLimiter(rate.Every(*minInterval), 1)
		}
		if err := g.Validate(); err != nil {
			panic(fmt.Sprintf("gridx validation failed: %v", err))
		}
	})

	return g
}

// Validate ensures the configuration is valid.
func (g *GridX) Validate() error {
	if g.apiURL == "" {
		return fmt.Errorf("gridx-api-url is required")
	}
	if _, err := url.Parse(g.apiURL); err != nil {
		return fmt.Errorf("failed to parse gridx url (%s): %w", g.apiURL, err)
	}
	if g.utility == "" {
		return fmt.Errorf("gridx-utility is required")
	}
	return nil
}

// FetchPricing requests prices for params.Date. The upstream takes the date
// range as YYYYMMDD with the start equal to the end.
func (g *GridX) FetchPricing(ctx context.Context, params types.QueryParameters) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gridx rate limit: %w", err)
	}

	u, err := url.Parse(g.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	day := strings.ReplaceAll(params.Date, "-", "")

	q := u.Query()
	q.Set("utility", g.utility)
	q.Set("cca", params.CCA)
	q.Set("ratename", params.RateName)
	q.Set("program", g.program)
	q.Set("market", g.market)
	q.Set("representativeCircuitId", params.CircuitID)
	q.Set("startdate", day)
	q.Set("enddate", day)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Ctx(ctx).DebugContext(ctx, "fetching prices from gridx", slog.String("url", u.String()))
	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched gridx prices",
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
		slog.String("date", params.Date),
	)
	return body, nil
}

var _ Feed = (*GridX)(nil)
