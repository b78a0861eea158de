// Command importer scrapes an external listing page and upserts its goods
// into the catalog for one site.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	catalogapp "github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/config"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/persistence"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/scraper"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	var (
		configPath   string
		listingURL   string
		siteCode     string
		categorySlug string
		dryRun       bool
		maxItems     int
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&listingURL, "url", "", "Listing page to scrape (required)")
	flag.StringVar(&siteCode, "site", "", "Site code the goods are imported for (required)")
	flag.StringVar(&categorySlug, "category", "", "Category slug to file new goods under")
	flag.BoolVar(&dryRun, "dry-run", false, "Scrape and report without writing")
	flag.IntVar(&maxItems, "max", 0, "Maximum items to import (default from config)")
	flag.Parse()

	if listingURL == "" || siteCode == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, listingURL, siteCode, categorySlug, dryRun, maxItems); err != nil {
		log.Error("Import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, listingURL, siteCode, categorySlug string, dryRun bool, maxItems int) error {
	db, err := persistence.Open(&cfg.Database, logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// fail before launching a browser when the site code is wrong
	st, err := persistence.NewGormSiteRepository(db.DB).FindByCode(ctx, siteCode)
	if err != nil {
		return fmt.Errorf("site %q: %w", siteCode, err)
	}
	if !st.IsActive() {
		log.Warn("Importing into an inactive site", zap.String("site", st.Code))
	}

	scraperCfg := cfg.Scraper
	if maxItems > 0 {
		scraperCfg.MaxItems = maxItems
	}
	s, err := scraper.NewChromedpScraper(scraperCfg, log.Named("scraper"))
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	items, err := s.Scrape(ctx, listingURL)
	if err != nil {
		return err
	}

	importer := catalogapp.NewImportService(
		persistence.NewGormGoodsRepository(db.DB),
		persistence.NewGormCategoryRepository(db.DB),
		log.Named("import"),
	)
	result, err := importer.Import(ctx, catalogapp.ImportRequest{
		SiteCode:     st.Code,
		CategorySlug: categorySlug,
		DryRun:       dryRun,
		Items:        items,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
