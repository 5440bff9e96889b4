package chart

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// SourcePages is the fixed, decade-partitioned list of chart pages,
// oldest first. The last page covers the current decade and is the only
// one consulted by [Harvester.HarvestLatest].
var SourcePages = []string{
	"https://en.wikipedia.org/wiki/List_of_UK_Singles_Chart_number_ones_of_the_1990s",
	"https://en.wikipedia.org/wiki/List_of_UK_Singles_Chart_number_ones_of_the_2000s",
	"https://en.wikipedia.org/wiki/List_of_UK_Singles_Chart_number_ones_of_the_2010s",
	"https://en.wikipedia.org/wiki/List_of_UK_Singles_Chart_number_ones_of_the_2020s",
}

// Harvester fetches chart source pages and extracts their entries.
type Harvester struct {
	httpClient *http.Client
	logger     *log.Logger
	pages      []string
	cutoff     time.Time
	userAgent  string
}

// HarvesterOpts contains configuration options for creating a Harvester.
type HarvesterOpts struct {
	HTTPClient *http.Client
	Logger     *log.Logger
	Pages      []string
	Cutoff     time.Time
	UserAgent  string
}

// NewHarvester creates a Harvester with the provided configuration.
func NewHarvester(opts HarvesterOpts) *Harvester {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Pages == nil {
		opts.Pages = SourcePages
	}
	return &Harvester{
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		pages:      opts.Pages,
		cutoff:     opts.Cutoff,
		userAgent:  opts.UserAgent,
	}
}

// HarvestAll fetches every source page and returns all qualifying entries
// sorted ascending by chart date.
//
// A page that cannot be fetched or parsed contributes nothing; harvesting
// continues with the remaining pages.
func (h *Harvester) HarvestAll(ctx context.Context) ([]models.ChartEntry, error) {
	var entries []models.ChartEntry
	for _, page := range h.pages {
		pageEntries, err := h.harvestPage(ctx, page)
		if err != nil {
			h.logger.Warn("skipping chart page", "url", page, "err", err)
			continue
		}
		entries = append(entries, pageEntries...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChartDate.Before(entries[j].ChartDate)
	})
	return entries, nil
}

// HarvestLatest fetches only the most recent source page and returns the
// entry with the maximum chart date, or nil when the page yields nothing.
func (h *Harvester) HarvestLatest(ctx context.Context) (*models.ChartEntry, error) {
	if len(h.pages) == 0 {
		return nil, nil
	}

	entries, err := h.harvestPage(ctx, h.pages[len(h.pages)-1])
	if err != nil {
		return nil, err
	}

	var latest *models.ChartEntry
	for i := range entries {
		if latest == nil || entries[i].ChartDate.After(latest.ChartDate) {
			latest = &entries[i]
		}
	}
	return latest, nil
}

// harvestPage fetches one page and extracts entries from every
// qualifying table on it. Tables missing the expected columns are logged
// and ignored.
func (h *Harvester) harvestPage(ctx context.Context, pageURL string) ([]models.ChartEntry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", shared.ErrPageUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var entries []models.ChartEntry
	doc.Find("table.wikitable").Each(func(i int, table *goquery.Selection) {
		grid := GridFromTable(table)
		tableEntries := ExtractEntries(grid, h.cutoff)
		if tableEntries == nil {
			h.logger.Debug("skipping table without chart columns", "url", pageURL, "table", i)
			return
		}
		entries = append(entries, tableEntries...)
	})

	return entries, nil
}
