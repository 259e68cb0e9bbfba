// Command featurecast builds leakage-free training datasets, single-matchup
// feature vectors, and consistency reports from collector-supplied game
// records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rinkrat/featurecast/internal/adapters/gamesource"
	"github.com/rinkrat/featurecast/internal/config"
	"github.com/rinkrat/featurecast/internal/dataset"
	"github.com/rinkrat/featurecast/internal/domain/matchup"
	"github.com/rinkrat/featurecast/internal/domain/model"
	"github.com/rinkrat/featurecast/internal/domain/recency"
	"github.com/rinkrat/featurecast/internal/domain/rolling"
	"github.com/rinkrat/featurecast/internal/domain/schema"
	"github.com/rinkrat/featurecast/internal/domain/situation"
	"github.com/rinkrat/featurecast/internal/domain/verify"
	"github.com/rinkrat/featurecast/internal/eventlog"
	"github.com/rinkrat/featurecast/pkg/logger"
	"github.com/rinkrat/featurecast/pkg/metrics"
)

const (
	dateLayout        = "2006-01-02"
	outFilePermission = 0o644
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "dataset":
		err = runDataset(ctx, cfg, os.Args[2:])
	case "predict":
		err = runPredict(ctx, cfg, os.Args[2:])
	case "verify":
		err = runVerify(ctx, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Get().Error(ctx, "command failed", logger.String("command", os.Args[1]), logger.Error(err))
		os.Exit(1)
	}
}

func usage() {
	os.Stderr.WriteString(`usage: featurecast <command> [flags]

Commands:
  dataset   build the bulk training matrix with targets and sample weights
  predict   build the feature vector for a single scheduled matchup
  verify    rebuild sampled dataset rows and report any divergence

Configuration comes from defaults, the YAML file named by FEATURECAST_CONFIG,
and FEATURECAST_* environment variables, in that order.
`)
}

// engine is the fully wired computation stack over one frozen snapshot.
type engine struct {
	log *eventlog.Log
	mb  *matchup.Builder
}

// buildEngine ingests games, freezes the log, and wires the build path.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	src, err := source(cfg)
	if err != nil {
		return nil, err
	}
	games, err := src.Games(ctx)
	if err != nil {
		return nil, err
	}

	b := eventlog.NewBuilder(eventlog.WithCapacityHint(len(games)))
	for _, g := range games {
		if err := b.Append(g); err != nil {
			return nil, fmt.Errorf("ingest game %s: %w", g.GameID, err)
		}
	}
	log := b.Freeze()
	logger.Get().Info(ctx, "event log frozen",
		logger.Int("games", log.Len()),
		logger.Int("teams", len(log.Teams())),
	)

	sch, err := schema.Default(cfg.SchemaVersion, schema.DefaultParams{
		RollingStats: cfg.RollingStats,
		Windows:      cfg.Windows,
		SeasonStats:  cfg.SeasonStats,
		WatchTeams:   cfg.WatchTeams,
	})
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	agg := rolling.New(log)
	ann := situation.New(log, cfg.Tables,
		situation.WithLookbackDays(cfg.RestLookbackDays),
		situation.WithPostBreakDays(cfg.PostBreakDays),
	)
	return &engine{
		log: log,
		mb:  matchup.New(agg, ann, sch),
	}, nil
}

func source(cfg *config.Config) (gamesource.Source, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return gamesource.NewRedisSource(client, gamesource.WithKeyPrefix(cfg.RedisPrefix)), nil
	}
	if cfg.GamesFile != "" {
		return gamesource.NewFileSource(cfg.GamesFile), nil
	}
	return nil, fmt.Errorf("no game source configured: set games_file or redis_addr")
}

func weighter(cfg *config.Config) (*recency.Weighter, error) {
	seasons, err := model.NewSeasonList(cfg.Seasons)
	if err != nil {
		return nil, err
	}
	return recency.NewWeighter(seasons, cfg.TrainingSeasons, cfg.DecayFactor)
}

// serveMetrics exposes prometheus metrics while a long build runs.
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Get().Warn(ctx, "metrics listener failed", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}

func runDataset(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dataset", flag.ExitOnError)
	out := fs.String("out", "dataset.json", "output path for the feature matrix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	serveMetrics(ctx, cfg.MetricsAddr)

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	w, err := weighter(cfg)
	if err != nil {
		return err
	}

	ds, err := dataset.New(eng.mb, w, dataset.WithWorkerCount(cfg.WorkerCount)).Build(ctx, eng.log)
	if err != nil {
		return err
	}
	return writeJSON(*out, ds)
}

func runPredict(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	home := fs.String("home", "", "home team id")
	away := fs.String("away", "", "away team id")
	season := fs.String("season", "", "season id")
	date := fs.String("date", "", "game date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *home == "" || *away == "" || *season == "" || *date == "" {
		return fmt.Errorf("predict requires -home, -away, -season and -date")
	}
	gameDate, err := time.Parse(dateLayout, *date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	vec, err := eng.mb.Build(ctx, *home, *away, *season, gameDate)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(vec)
}

func runVerify(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	sampleEvery := fs.Int("sample-every", 10, "verify every Nth dataset row (1 = all)")
	out := fs.String("out", "", "optional output path for the report (stdout otherwise)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sampleEvery < 1 {
		return fmt.Errorf("sample-every must be at least 1")
	}
	serveMetrics(ctx, cfg.MetricsAddr)

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	w, err := weighter(cfg)
	if err != nil {
		return err
	}
	ds, err := dataset.New(eng.mb, w, dataset.WithWorkerCount(cfg.WorkerCount)).Build(ctx, eng.log)
	if err != nil {
		return err
	}

	var sample []string
	for i, row := range ds.Rows {
		if i%*sampleEvery == 0 {
			sample = append(sample, row.GameID)
		}
	}
	rep, err := verify.New(eng.mb).Verify(ctx, ds, sample)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "verification finished",
		logger.Int("sampled", rep.GamesSampled),
		logger.Int("exact", rep.Exact),
		logger.Int("close", rep.Close),
		logger.Int("mismatched", rep.Mismatched),
	)

	if *out != "" {
		return writeJSON(*out, rep)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, outFilePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
