// Package scrape reads per-player statistics from paginated HTML stat tables.
//
// A page is a <table> whose header row names the columns. The player, team
// and metric columns are located by header text, so column order and extra
// columns do not matter. Paging stops at the first page with no data rows,
// at a page without a rel="next" link, or at MaxPages.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/albapepper/courtstats/internal/metrics"
	"github.com/albapepper/courtstats/internal/provider"
)

const (
	DefaultMaxPages     = 20
	DefaultMetricHeader = "FG%"
)

var (
	playerHeaders = []string{"player", "name"}
	teamHeaders   = []string{"team", "tm"}
)

// Config configures a Scraper.
type Config struct {
	// URL of the first page. "{season}" is replaced with the season;
	// otherwise a season query parameter is added.
	URL          string
	MetricHeader string // header text of the value column
	MaxPages     int
	// PagesPerSecond throttles page requests; zero means no throttling.
	PagesPerSecond float64
}

// Scraper fetches one season of a metric.
type Scraper struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New returns a Scraper. Per-request deadlines come from the caller's context.
func New(cfg Config, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MetricHeader == "" {
		cfg.MetricHeader = DefaultMetricHeader
	}
	limit := rate.Inf
	if cfg.PagesPerSecond > 0 {
		limit = rate.Limit(cfg.PagesPerSecond)
	}
	return &Scraper{
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// FetchSeason scrapes every page for season. Percentages are normalized to
// fractions. It returns provider.ErrNoData when no row could be read.
func (s *Scraper) FetchSeason(ctx context.Context, season int) (stats []provider.PlayerStat, err error) {
	defer func() { metrics.Upstream("scrape", err) }()

	if s.cfg.URL == "" {
		return nil, fmt.Errorf("scrape: no source URL configured")
	}

	for page := 1; page <= s.cfg.MaxPages; page++ {
		pageURL, err := s.pageURL(season, page)
		if err != nil {
			return nil, err
		}
		doc, err := s.fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		rows, err := parseTable(doc, s.cfg.MetricHeader, season)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		s.logger.Debug("Scraped page", "page", page, "rows", len(rows))
		if len(rows) == 0 {
			break
		}
		stats = append(stats, rows...)

		if doc.Find(`a[rel="next"]`).Length() == 0 {
			break
		}
	}

	if len(stats) == 0 {
		return nil, provider.ErrNoData
	}
	return stats, nil
}

func (s *Scraper) pageURL(season, page int) (string, error) {
	raw := strings.ReplaceAll(s.cfg.URL, "{season}", strconv.Itoa(season))
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse source URL: %w", err)
	}
	q := u.Query()
	if !strings.Contains(s.cfg.URL, "{season}") {
		q.Set("season", strconv.Itoa(season))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("%s returned %d: %s", pageURL, resp.StatusCode, body)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", pageURL, err)
	}
	s.logger.Debug("Fetched page", "url", pageURL, "elapsed", time.Since(start))
	return doc, nil
}

// parseTable reads the first table that has both a player and a metric
// column. Rows without a name or a readable value are skipped.
func parseTable(doc *goquery.Document, metricHeader string, season int) ([]provider.PlayerStat, error) {
	var (
		stats []provider.PlayerStat
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := headerTexts(table)
		nameIdx := indexOf(headers, playerHeaders...)
		metricIdx := indexOf(headers, strings.ToLower(metricHeader))
		if nameIdx < 0 || metricIdx < 0 {
			return true
		}
		teamIdx := indexOf(headers, teamHeaders...)
		found = true

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Children().Map(func(_ int, c *goquery.Selection) string {
				return strings.TrimSpace(c.Text())
			})
			if nameIdx >= len(cells) || metricIdx >= len(cells) {
				return
			}
			name := cells[nameIdx]
			value, ok := provider.ExtractFraction(cells[metricIdx])
			if name == "" || !ok {
				return
			}
			st := provider.PlayerStat{Name: name, Season: season, Value: value}
			if teamIdx >= 0 && teamIdx < len(cells) {
				st.Team = cells[teamIdx]
			}
			stats = append(stats, st)
		})
		return false
	})
	if !found && doc.Find("table").Length() > 0 {
		return nil, fmt.Errorf("no table with player and %q columns", metricHeader)
	}
	return stats, nil
}

// headerTexts returns lowercased header cell texts from thead, or from the
// first row when the table has no thead.
func headerTexts(table *goquery.Selection) []string {
	row := table.Find("thead tr").Last()
	if row.Length() == 0 {
		row = table.Find("tr").First()
	}
	return row.Children().Map(func(_ int, c *goquery.Selection) string {
		return strings.ToLower(strings.TrimSpace(c.Text()))
	})
}

func indexOf(headers []string, want ...string) int {
	for i, h := range headers {
		for _, w := range want {
			if h == w {
				return i
			}
		}
	}
	return -1
}
