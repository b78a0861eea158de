// Package scraper collects goods from external listing pages with headless Chrome.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxItems = 200
)

var _ catalogapp.Scraper = (*ChromedpScraper)(nil)

// ChromedpScraper renders a listing page in Chrome and extracts goods with CSS selectors
type ChromedpScraper struct {
	cfg         config.ScraperConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpScraper creates the scraper. Chrome is only started on the first Scrape.
func NewChromedpScraper(cfg config.ScraperConfig, logger *zap.Logger) (*ChromedpScraper, error) {
	if cfg.Selectors.Item == "" || cfg.Selectors.Name == "" || cfg.Selectors.Price == "" {
		return nil, errors.New("scraper item, name and price selectors are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ChromedpScraper{cfg: cfg, logger: logger}
	s.initAllocator()
	return s, nil
}

func (s *ChromedpScraper) initAllocator() {
	if s.cfg.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), s.cfg.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Scrape loads listingURL and returns every item matched by the item selector
func (s *ChromedpScraper) Scrape(ctx context.Context, listingURL string) ([]catalogapp.ScrapedGoods, error) {
	base, err := url.Parse(listingURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid listing url %q", listingURL)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	waitFor := s.cfg.WaitSelector
	if waitFor == "" {
		waitFor = s.cfg.Selectors.Item
	}

	var raw []rawItem
	actions := []chromedp.Action{}
	if s.cfg.UserAgent != "" && s.cfg.RemoteURL != "" {
		actions = append(actions, emulation.SetUserAgentOverride(s.cfg.UserAgent))
	}
	actions = append(actions,
		chromedp.Navigate(base.String()),
		chromedp.WaitReady(waitFor, chromedp.ByQuery),
		chromedp.Evaluate(extractScript(s.cfg.Selectors), &raw),
	)

	start := time.Now()
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("scraping %s timed out after %v: %w", base.Redacted(), s.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("scrape %s: %w", base.Redacted(), err)
	}

	items := toScraped(base, raw, s.cfg.MaxItems)
	s.logger.Info("Scraped listing",
		zap.String("url", base.Redacted()),
		zap.Int("matched", len(raw)),
		zap.Int("items", len(items)),
		zap.Duration("took", time.Since(start)),
	)
	return items, nil
}

// Close shuts down the browser
func (s *ChromedpScraper) Close() error {
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

type rawItem struct {
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Images      []string `json:"images"`
}

type selectorSet struct {
	Item        string `json:"item"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

const extractTemplate = `(() => {
  const sel = %s;
  const text = (root, s) => { if (!s) return ""; const el = root.querySelector(s); return el ? el.textContent.trim() : ""; };
  const attr = (el, names) => { for (const n of names) { const v = el.getAttribute(n); if (v) return v; } return ""; };
  return Array.from(document.querySelectorAll(sel.item)).map(root => {
    const link = sel.link ? root.querySelector(sel.link) : (root.tagName === "A" ? root : root.querySelector("a[href]"));
    const images = sel.image
      ? Array.from(root.querySelectorAll(sel.image)).map(img => attr(img, ["src", "data-src", "data-original"])).filter(Boolean)
      : [];
    return {
      name: text(root, sel.name),
      price: text(root, sel.price),
      description: text(root, sel.description),
      link: link ? attr(link, ["href"]) : "",
      images: images,
    };
  });
})()`

// extractScript embeds the selectors as a JSON literal so they never need escaping
func extractScript(sel config.ScraperSelectors) string {
	encoded, _ := json.Marshal(selectorSet{
		Item:        sel.Item,
		Name:        sel.Name,
		Price:       sel.Price,
		Description: sel.Description,
		Image:       sel.Image,
		Link:        sel.Link,
	})
	return fmt.Sprintf(extractTemplate, encoded)
}

func toScraped(base *url.URL, raw []rawItem, maxItems int) []catalogapp.ScrapedGoods {
	out := make([]catalogapp.ScrapedGoods, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		if maxItems > 0 && len(out) >= maxItems {
			break
		}
		link := resolveURL(base, r.Link)
		if link == "" || seen[link] {
			continue
		}
		price, currency, ok := parsePrice(r.Price)
		if !ok {
			continue
		}
		seen[link] = true

		images := make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			if u := resolveURL(base, img); u != "" {
				images = append(images, u)
			}
		}
		out = append(out, catalogapp.ScrapedGoods{
			SourceURL:   link,
			Name:        collapseSpace(r.Name),
			Price:       price,
			Currency:    currency,
			Description: strings.TrimSpace(r.Description),
			ImageURLs:   images,
		})
	}
	return out
}

// resolveURL makes ref absolute against base and drops the fragment.
// Non-http references (javascript:, data:) resolve to "".
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

var (
	numberPattern = regexp.MustCompile(`\d[\d.,\s]*`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

var currencySymbols = []struct {
	token string
	code  string
}{
	{"USDT", "USDT"},
	{"USD", "USD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"JPY", "JPY"},
	{"CNY", "CNY"},
	{"RMB", "CNY"},
	{"US$", "USD"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "CNY"},
	{"￥", "CNY"},
}

// parsePrice reads the first number in a price label such as "$1,299.00",
// "1.299,00 €" or "From ¥88". Currency is "" when the label has no marker.
func parsePrice(label string) (decimal.Decimal, string, bool) {
	label = strings.TrimSpace(label)
	match := numberPattern.FindString(label)
	if match == "" {
		return decimal.Zero, "", false
	}
	number := normalizeNumber(strings.Join(strings.Fields(match), ""))
	price, err := decimal.NewFromString(number)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, "", false
	}

	upper := strings.ToUpper(label)
	currency := ""
	for _, c := range currencySymbols {
		if strings.Contains(upper, c.token) {
			currency = c.code
			break
		}
	}
	return price, currency, true
}

// normalizeNumber turns locale-formatted digits into a plain decimal string.
// The last separator is the decimal point when followed by one or two digits.
func normalizeNumber(s string) string {
	s = strings.TrimRight(s, ".,")
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	sep := max(lastDot, lastComma)
	if sep < 0 {
		return s
	}
	fraction := s[sep+1:]
	if len(fraction) == 0 || len(fraction) > 2 {
		return strings.NewReplacer(".", "", ",", "").Replace(s)
	}
	whole := strings.NewReplacer(".", "", ",", "").Replace(s[:sep])
	return whole + "." + fraction
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
