package scraper

import (
	"net/url"
	"strings"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		label    string
		want     string
		currency string
		ok       bool
	}{
		{"$1,299.00", "1299", "USD", true},
		{"1.299,00 €", "1299", "EUR", true},
		{"£ 12.5", "12.5", "GBP", true},
		{"From ¥88", "88", "CNY", true},
		{"1 299,90", "1299.9", "", true},
		{"12.00 - 15.00 USD", "12", "USD", true},
		{"25 USDT", "25", "USDT", true},
		{"1.299", "1299", "", true},
		{"Sold out", "0", "", false},
		{"$0.00", "0", "", false},
		{"", "0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			price, currency, ok := parsePrice(tt.label)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.True(t, price.Equal(decimal.RequireFromString(tt.want)), "got %s", price)
			assert.Equal(t, tt.currency, currency)
		})
	}
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://shop.example.com/c/mugs?page=2")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/p/1", resolveURL(base, "/p/1#reviews"))
	assert.Equal(t, "https://shop.example.com/c/p/2", resolveURL(base, "p/2"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", resolveURL(base, "//cdn.example.com/a.jpg"))
	assert.Equal(t, "", resolveURL(base, "javascript:void(0)"))
	assert.Equal(t, "", resolveURL(base, "  "))
}

func TestToScraped(t *testing.T) {
	base, _ := url.Parse("https://shop.example.com/c/mugs")
	raw := []rawItem{
		{Name: "  Stoneware\n  Mug ", Price: "$12.50", Link: "/p/1", Images: []string{"/img/1.jpg", "data:image/png;base64,xx"}},
		{Name: "Duplicate", Price: "$9", Link: "/p/1"},
		{Name: "No price", Price: "call us", Link: "/p/2"},
		{Name: "No link", Price: "$5"},
		{Name: "Teapot", Price: "30 €", Link: "https://shop.example.com/p/3"},
		{Name: "Over limit", Price: "$1", Link: "/p/4"},
	}

	items := toScraped(base, raw, 2)
	require.Len(t, items, 2)

	assert.Equal(t, "Stoneware Mug", items[0].Name)
	assert.Equal(t, "https://shop.example.com/p/1", items[0].SourceURL)
	assert.Equal(t, "USD", items[0].Currency)
	assert.Equal(t, []string{"https://shop.example.com/img/1.jpg"}, items[0].ImageURLs)

	assert.Equal(t, "Teapot", items[1].Name)
	assert.Equal(t, "EUR", items[1].Currency)
}

func TestExtractScript_EmbedsSelectorsAsJSON(t *testing.T) {
	script := extractScript(config.ScraperSelectors{
		Item:  `div[data-kind="product"]`,
		Name:  ".title",
		Price: ".price",
	})
	assert.Contains(t, script, `"item":"div[data-kind=\"product\"]"`)
	assert.Contains(t, script, `"name":".title"`)
	assert.True(t, strings.HasPrefix(script, "(() => {"))
}

func TestNewChromedpScraper(t *testing.T) {
	_, err := NewChromedpScraper(config.ScraperConfig{}, zaptest.NewLogger(t))
	assert.Error(t, err)

	s, err := NewChromedpScraper(config.ScraperConfig{
		Selectors: config.ScraperSelectors{Item: ".card", Name: ".name", Price: ".price"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, defaultTimeout, s.cfg.Timeout)
	assert.Equal(t, defaultMaxItems, s.cfg.MaxItems)

	_, err = s.Scrape(t.Context(), "ftp://shop.example.com")
	assert.Error(t, err)
}
