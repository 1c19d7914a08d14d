package matchfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"

	"github.com/clubedata/matchsheet/internal/platform/logging"
	"github.com/clubedata/matchsheet/internal/platform/resilience"
	"github.com/clubedata/matchsheet/internal/usecase"
)

const (
	defaultSource        = "federacao"
	defaultUserAgent     = "matchsheet-sync/1.0"
	defaultTimeout       = 20 * time.Second
	defaultDetailTimeout = 10 * time.Second
	defaultDetailWorkers = 3
	maxBodyBytes         = 4 << 20
)

var errFeedTransient = crerr.New("matchfeed transient failure")

// Listing pages render one row per fixture. Cells are matched by their
// class name, not position, so column reordering upstream stays harmless.
var (
	rowRe    = regexp.MustCompile(`(?is)<tr[^>]*class="[^"]*match-row[^"]*"[^>]*>(.*?)</tr>`)
	cellRe   = regexp.MustCompile(`(?is)<td[^>]*class="([a-z-]+)"[^>]*>(.*?)</td>`)
	hrefRe   = regexp.MustCompile(`(?i)href="([^"]+)"`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	scoreRe  = regexp.MustCompile(`(?i)placar[^0-9]*(\d{1,2})\s*(?:x|&times;|×)\s*(\d{1,2})`)
	venueRe  = regexp.MustCompile(`(?is)<[^>]+class="[^"]*venue[^"]*"[^>]*>(.*?)<`)
	roundRe  = regexp.MustCompile(`(?i)rodada[^0-9]*(\d{1,2})`)
	spacesRe = regexp.MustCompile(`\s+`)
)

var listingDateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006 15:04",
	"02/01/2006",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	Source         string
	UserAgent      string
	Timeout        time.Duration
	DetailTimeout  time.Duration
	MaxRetries     int
	DetailWorkers  int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client scrapes competition listing pages and hydrates each fixture from
// its detail page. Detail fetches are best effort: a failed page only
// bumps a counter, the listing row still flows through.
type Client struct {
	httpClient     *http.Client
	source         string
	userAgent      string
	detailTimeout  time.Duration
	maxRetries     int
	detailWorkers  int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	source := strings.ToLower(strings.TrimSpace(cfg.Source))
	if source == "" {
		source = defaultSource
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	detailTimeout := cfg.DetailTimeout
	if detailTimeout <= 0 {
		detailTimeout = defaultDetailTimeout
	}
	detailWorkers := cfg.DetailWorkers
	if detailWorkers <= 0 {
		detailWorkers = defaultDetailWorkers
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		source:         source,
		userAgent:      userAgent,
		detailTimeout:  detailTimeout,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		detailWorkers:  detailWorkers,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchFixtures(ctx context.Context, competitionURL string) ([]usecase.CandidateFixture, usecase.FeedCounters, error) {
	counters := usecase.FeedCounters{}

	competitionURL = strings.TrimSpace(competitionURL)
	if competitionURL == "" {
		return nil, counters, fmt.Errorf("competition url is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "matchfeed circuit breaker rejected request", "state", c.breaker.State())
			return nil, counters, fmt.Errorf("%w: fixture feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := c.fetchPage(ctx, competitionURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errFeedTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, counters, fmt.Errorf("fetch listing: %w", err)
	}
	counters.PagesFetched++

	candidates, err := c.parseListing(body, competitionURL)
	if err != nil {
		return nil, counters, err
	}
	if len(candidates) == 0 {
		c.logger.WarnContext(ctx, "listing page yielded no fixture rows", "url", competitionURL)
		return candidates, counters, nil
	}

	c.hydrateDetails(ctx, candidates, &counters)
	return candidates, counters, nil
}

// hydrateDetails fans detail-page fetches over a small worker pool. Each
// worker owns one slice index, so no locking around the candidates.
func (c *Client) hydrateDetails(ctx context.Context, candidates []usecase.CandidateFixture, counters *usecase.FeedCounters) {
	pool, err := ants.NewPool(c.detailWorkers)
	if err != nil {
		c.logger.WarnContext(ctx, "detail worker pool unavailable, skipping hydration", "error", err)
		counters.DetailFailures += countDetailURLs(candidates)
		return
	}
	defer pool.Release()

	var fetched, failed atomic.Int32
	var workers sync.WaitGroup
	for i := range candidates {
		if candidates[i].DetailURL == "" {
			continue
		}
		i := i
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			detailCtx, cancel := context.WithTimeout(ctx, c.detailTimeout)
			defer cancel()

			body, err := c.fetchPage(detailCtx, candidates[i].DetailURL)
			if err != nil {
				failed.Add(1)
				c.logger.WarnContext(ctx, "detail page fetch failed", "url", candidates[i].DetailURL, "error", err)
				return
			}
			fetched.Add(1)
			applyDetailPage(&candidates[i], body)
		}); err != nil {
			workers.Done()
			failed.Add(1)
		}
	}
	workers.Wait()

	counters.DetailsFetched += int(fetched.Load())
	counters.DetailFailures += int(failed.Load())
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	out, err, _ := c.flight.Do(pageURL, func() (any, error) {
		return c.executeRequest(ctx, pageURL)
	})
	if err != nil {
		return "", err
	}
	body, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("unexpected response payload type %T", out)
	}
	return body, nil
}

func (c *Client) executeRequest(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errFeedTransient, "send request: %v", err)
		} else {
			body, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errFeedTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return body, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errFeedTransient, "feed status=%d", resp.StatusCode)
			default:
				return "", fmt.Errorf("feed status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	return "", lastErr
}

func readBody(r io.Reader) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(r, maxBodyBytes)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Client) parseListing(body string, listingURL string) ([]usecase.CandidateFixture, error) {
	rows := rowRe.FindAllStringSubmatch(body, -1)
	candidates := make([]usecase.CandidateFixture, 0, len(rows))

	for _, row := range rows {
		cells := cellRe.FindAllStringSubmatch(row[1], -1)
		candidate := usecase.CandidateFixture{Source: c.source}

		for _, cell := range cells {
			class := strings.ToLower(cell[1])
			value := cleanCell(cell[2])
			switch {
			case strings.Contains(class, "date"):
				candidate.KickoffAt = parseListingDate(value)
			case strings.Contains(class, "home"):
				candidate.HomeTeam = value
			case strings.Contains(class, "away"):
				candidate.AwayTeam = value
			case strings.Contains(class, "status"):
				candidate.Status = value
			case strings.Contains(class, "round"):
				candidate.Round = value
			case strings.Contains(class, "detail") || strings.Contains(class, "link"):
				if match := hrefRe.FindStringSubmatch(cell[2]); match != nil {
					candidate.DetailURL = resolveURL(listingURL, match[1])
				}
			}
		}

		if candidate.HomeTeam == "" && candidate.AwayTeam == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// applyDetailPage fills score, venue and round from a fixture detail
// page. Missing fragments stay zero.
func applyDetailPage(candidate *usecase.CandidateFixture, body string) {
	if match := scoreRe.FindStringSubmatch(body); match != nil {
		home, errHome := strconv.Atoi(match[1])
		away, errAway := strconv.Atoi(match[2])
		if errHome == nil && errAway == nil {
			candidate.HomeScore = &home
			candidate.AwayScore = &away
		}
	}
	if match := venueRe.FindStringSubmatch(body); match != nil {
		if venue := cleanCell(match[1]); venue != "" {
			candidate.Venue = venue
		}
	}
	if candidate.Round == "" {
		if match := roundRe.FindStringSubmatch(body); match != nil {
			candidate.Round = match[1]
		}
	}
}

func cleanCell(raw string) string {
	raw = tagRe.ReplaceAllString(raw, " ")
	raw = strings.ReplaceAll(raw, "&amp;", "&")
	raw = strings.ReplaceAll(raw, "&nbsp;", " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(raw, " "))
}

func parseListingDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range listingDateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func resolveURL(base string, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return strings.TrimSpace(ref)
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

func countDetailURLs(candidates []usecase.CandidateFixture) int {
	count := 0
	for _, candidate := range candidates {
		if candidate.DetailURL != "" {
			count++
		}
	}
	return count
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
