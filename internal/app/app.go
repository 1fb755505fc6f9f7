package app

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"cidrscout/internal/cache"
	"cidrscout/internal/classifier"
	"cidrscout/internal/collector"
	"cidrscout/internal/config"
	"cidrscout/internal/database"
	"cidrscout/internal/directory"
	"cidrscout/internal/export"
	"cidrscout/internal/geolite"
	"cidrscout/internal/pipeline"
	"cidrscout/internal/reputation"
	"cidrscout/internal/sampler"
	"cidrscout/internal/selector"
	"cidrscout/internal/support"
)

const (
	defaultTotal      = 10
	defaultOutputPath = "cidrs.txt"
	defaultReportPath = "report.json"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	countriesFlag := flag.String("countries", "", "Comma separated ISO country codes, e.g. US,DE")
	totalFlag := flag.Int("total", 0, "Total number of CIDR blocks to find")
	outputFlag := flag.String("output", defaultOutputPath, "Path for the CIDR list")
	reportFlag := flag.String("report", defaultReportPath, "Path for the JSON report")
	persistFlag := flag.Bool("persist", false, "Store the run in the database")
	historyFlag := flag.Int("history", 0, "Print the last N stored runs and exit")
	productionFlag := flag.Bool("production", false, "Run in production mode")
	flag.Parse()

	config.SetProductionMode(*productionFlag)
	log.SetLevel(logLevel())

	if *historyFlag > 0 {
		db, err := database.SetupDB()
		if err != nil {
			return fmt.Errorf("setup database: %w", err)
		}
		return showHistory(database.NewRunStore(db), *historyFlag)
	}

	config.ReadSettings()

	countries, total, err := resolveRequest(*countriesFlag, *totalFlag)
	if err != nil {
		return err
	}

	cfg := config.GetConfig()

	runner, cleanup, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting discovery run", "countries", strings.Join(countries, ","), "total", total)

	result, err := runner.Run(ctx, countries, total)
	if err != nil {
		return err
	}

	if *persistFlag {
		db, err := database.SetupDB()
		if err != nil {
			return fmt.Errorf("setup database: %w", err)
		}

		runID, err := database.NewRunStore(db).SaveRun(total, countries, result.Candidates())
		if err != nil {
			return err
		}
		log.Info("Run persisted", "run_id", runID)
	}

	if err := export.WriteCIDRList(*outputFlag, result); err != nil {
		return err
	}
	if err := export.WriteReport(*reportFlag, result, time.Now()); err != nil {
		return err
	}

	log.Info("Discovery run finished",
		"requested", result.RequestedTotal,
		"found", result.FoundTotal,
		"output", *outputFlag,
		"report", *reportFlag,
	)

	return nil
}

// logLevel keeps full debug output in development; production runs log the
// run milestones only.
func logLevel() log.Level {
	if config.InProductionMode {
		return log.InfoLevel
	}
	return log.DebugLevel
}

func showHistory(store *database.RunStore, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		log.Info("No stored runs")
		return nil
	}

	for _, run := range runs {
		log.Info("Stored run",
			"id", run.ID,
			"started", run.StartedAt.Format(time.RFC3339),
			"countries", run.Countries,
			"requested", run.RequestedTotal,
			"found", run.FoundTotal,
		)

		records, err := store.RunCandidates(run.ID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			log.Info("Candidate",
				"run_id", rec.RunID,
				"cidr", rec.CIDR,
				"country", rec.Country,
				"score", rec.Score,
				"blacklisted", rec.Blacklisted,
			)
		}
	}

	return nil
}

func resolveRequest(countriesFlag string, totalFlag int) ([]string, int, error) {
	rawCountries := countriesFlag
	if rawCountries == "" {
		rawCountries = support.GetEnv("COUNTRIES", "")
	}
	if rawCountries == "" {
		return nil, 0, fmt.Errorf("no countries requested: pass -countries or set COUNTRIES")
	}

	var countries []string
	for _, part := range strings.Split(rawCountries, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			countries = append(countries, trimmed)
		}
	}

	total := totalFlag
	if total <= 0 {
		total = support.GetEnvInt("TOTAL_CIDRS", defaultTotal)
	}

	return countries, total, nil
}

func buildRunner(cfg config.Config) (*pipeline.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}

	dirClient, err := directory.NewClient(cfg.Directory, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return nil, cleanup, fmt.Errorf("directory client: %w", err)
	}

	picker := classifier.New(cfg.Classifier, rand.New(rand.NewSource(time.Now().UnixNano())))
	source := collector.New(dirClient, picker, cfg.Classifier.KnownOperatorIDs, cfg.Checker, nil)

	addressSampler := sampler.New(rand.New(rand.NewSource(time.Now().UnixNano())))

	var prober selector.Prober = buildProber(cfg)
	if cfg.Cache.Enabled {
		redisClient, err := cache.Connect()
		if err != nil {
			log.Warn("Probe cache disabled, redis unavailable", "error", err)
		} else {
			closers = append(closers, func() {
				if err := cache.Close(); err != nil {
					log.Warn("error closing redis client", "error", err)
				}
			})
			ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
			prober = cache.NewCachingProber(prober, redisClient, ttl)
		}
	}

	sel := selector.New(addressSampler, prober, cfg.Checker)

	var geo pipeline.GeoResolver
	if path := cfg.GeoLite.CountryDBPath; path != "" {
		resolver, err := geolite.Open(path)
		if err != nil {
			log.Warn("GeoIP verification disabled", "path", path, "error", err)
		} else if resolver != nil {
			closers = append(closers, func() {
				if err := resolver.Close(); err != nil {
					log.Warn("error closing geolite database", "error", err)
				}
			})
			geo = resolver
		}
	}

	return pipeline.NewRunner(source, sel, geo), cleanup, nil
}

func buildProber(cfg config.Config) *reputation.Prober {
	backends := cfg.Backends

	primary := reputation.NewZenBackend(
		backends.Zen.Zone,
		time.Duration(backends.Zen.TimeoutMs)*time.Millisecond,
	)

	secondaries := []reputation.Backend{
		reputation.NewMultiZoneBackend(
			backends.MultiZone.Name,
			backends.MultiZone.Zones,
			time.Duration(backends.MultiZone.TimeoutMs)*time.Millisecond,
		),
		reputation.NewSingleZoneBackend(
			backends.SingleZone.Name,
			backends.SingleZone.Zone,
			time.Duration(backends.SingleZone.TimeoutMs)*time.Millisecond,
		),
		reputation.NewHTTPBackend(
			backends.HTTPApi.Name,
			backends.HTTPApi.URL,
			time.Duration(backends.HTTPApi.TimeoutMs)*time.Millisecond,
		),
	}

	aggregator := reputation.Aggregator{
		Primary:            primary.Name(),
		BlacklistThreshold: cfg.Checker.BlacklistThreshold,
	}

	return reputation.NewProber(primary, secondaries, aggregator)
}
