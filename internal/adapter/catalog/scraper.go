// Package catalog loads course records from the web or from local files.
package catalog

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"

	"coursesearch/config"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
)

// Selectors locate the parts of a course card.
type Selectors struct {
	Card  string // one element per course
	Image string // inside Card; alt is the title, src the thumbnail
	Link  string // nearest match before Card in document order
}

// DefaultSelectors matches the Analytics Vidhya free-course listing.
var DefaultSelectors = Selectors{
	Card:  "header.course-card__img-container",
	Image: "img.course-card__img",
	Link:  "a[href]",
}

// Scraper fetches a course listing page and extracts its course cards.
type Scraper struct {
	client    *http.Client
	pageURL   string
	base      *url.URL
	userAgent string
	selectors Selectors
	logger    *log.Logger
}

func NewScraper(cfg config.CatalogConfig, logger *log.Logger) (*Scraper, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("scraper: page url is required")
	}

	baseRaw := cfg.BaseURL
	if baseRaw == "" {
		baseRaw = cfg.URL
	}
	base, err := url.Parse(baseRaw)
	if err != nil {
		return nil, fmt.Errorf("scraper: invalid base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	selectors := DefaultSelectors
	if cfg.CardSelector != "" {
		selectors.Card = cfg.CardSelector
	}
	if cfg.ImageSelector != "" {
		selectors.Image = cfg.ImageSelector
	}
	if cfg.LinkSelector != "" {
		selectors.Link = cfg.LinkSelector
	}

	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		pageURL:   cfg.URL,
		base:      base,
		userAgent: cfg.UserAgent,
		selectors: selectors,
		logger:    logging.Component(logger, "scraper"),
	}, nil
}

// Courses downloads the page once and parses every course card on it.
func (s *Scraper) Courses(ctx context.Context) ([]domain.CourseRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", s.pageURL, resp.StatusCode)
	}

	records, err := ParseCourses(resp.Body, s.base, s.selectors)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scraped catalog", "url", s.pageURL, "courses", len(records))
	return records, nil
}

var textPolicy = bluemonday.StrictPolicy()

// ParseCourses extracts course records from an HTML listing. A card without
// an image, or with no link before it, is skipped. Relative links and image
// sources are resolved against base.
func ParseCourses(r io.Reader, base *url.URL, sel Selectors) ([]domain.CourseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var (
		records  []domain.CourseRecord
		lastLink string
	)

	// A selector group matches in document order, so the most recent link
	// seen when a card comes up is the nearest one preceding it.
	doc.Find(sel.Link + ", " + sel.Card).Each(func(_ int, node *goquery.Selection) {
		if node.Is(sel.Link) {
			if href, ok := node.Attr("href"); ok {
				lastLink = strings.TrimSpace(href)
			}
		}
		if !node.Is(sel.Card) {
			return
		}

		img := node.Find(sel.Image).First()
		if img.Length() == 0 || lastLink == "" {
			return
		}

		alt, _ := img.Attr("alt")
		src, _ := img.Attr("src")
		records = append(records, domain.CourseRecord{
			Title:      CleanText(alt),
			ImageURL:   resolve(base, strings.TrimSpace(src)),
			CourseLink: resolve(base, lastLink),
		})
	})

	return records, nil
}

// CleanText strips any markup from s, decodes entities and collapses runs of
// whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
