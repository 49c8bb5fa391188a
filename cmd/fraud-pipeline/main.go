package main

import (
	// Go Internal Packages
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "fraud-pipeline/config"
	errors "fraud-pipeline/errors"
	helpers "fraud-pipeline/helpers"
	postgres "fraud-pipeline/repositories/postgres"
	redis "fraud-pipeline/repositories/redis"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var (
	app        = kingpin.New("fraud-pipeline", "Scores the current transaction of the payment feed for fraud.")
	configPath = app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()

	runCmd      = app.Command("run", "Execute one pipeline run and exit.").Default()
	scheduleCmd = app.Command("schedule", "Execute runs on an interval, one at a time.")
	migrateCmd  = app.Command("migrate", "Apply the postgres schema and exit.")

	failuresCmd   = app.Command("failures", "Print the most recent failed runs kept in redis.")
	failuresLimit = failuresCmd.Flag("limit", "Number of failed runs to print").Short('n').Default("20").Int64()

	lookupCmd      = app.Command("lookup", "Print the stored scored record of a transaction.")
	lookupTransNum = lookupCmd.Arg("trans_num", "Transaction identifier").Required().String()
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig(path string) *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}
	return k
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	k := LoadConfig(*configPath)
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	appKonf = config.LoadSecrets(appKonf)

	// Validate the config loaded
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = appKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case migrateCmd.FullCommand():
		err = migrate(ctx, appKonf, logger)
	case scheduleCmd.FullCommand():
		err = schedule(ctx, appKonf, logger)
	case failuresCmd.FullCommand():
		err = printFailures(ctx, os.Stdout, appKonf, *failuresLimit, logger)
	case lookupCmd.FullCommand():
		err = lookup(ctx, os.Stdout, appKonf, *lookupTransNum, logger)
	case runCmd.FullCommand():
		err = runOnce(ctx, appKonf, logger)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}

func migrate(ctx context.Context, appKonf config.Config, logger *zap.Logger) error {
	db, err := postgres.Connect(ctx, postgresConfig(appKonf.Postgres))
	if err != nil {
		return err
	}
	defer db.Close()
	return postgres.Migrate(ctx, db, logger)
}

func printFailures(ctx context.Context, w io.Writer, appKonf config.Config, limit int64, logger *zap.Logger) error {
	if !appKonf.Redis.Enabled {
		return errors.E(errors.Invalid, "failed runs are kept in redis, which is disabled", nil)
	}
	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password, appKonf.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	failures, err := redis.NewDeadLetterQueue(redisClient, logger).Recent(ctx, limit)
	if err != nil {
		return err
	}
	return helpers.PrintStruct(w, failures)
}

func lookup(ctx context.Context, w io.Writer, appKonf config.Config, transNum string, logger *zap.Logger) error {
	a := &App{}
	defer a.Close()

	store, err := buildStore(ctx, appKonf, a, logger)
	if err != nil {
		return err
	}
	scored, found, err := store.Get(ctx, transNum)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("transaction %s not found", transNum)
	}
	return helpers.PrintStruct(w, scored)
}

func runOnce(ctx context.Context, appKonf config.Config, logger *zap.Logger) error {
	a, err := BuildApp(ctx, appKonf, kprom.NewMetrics("fraud_pipeline"), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.RunOnce(ctx)
	if !appKonf.IsProdMode && report.RunID != "" {
		_ = helpers.PrintStruct(os.Stdout, report)
	}
	return err
}

// schedule executes a run every interval until ctx is done. A tick that
// arrives while a run is still active is dropped by the ticker. Failed runs
// are logged and do not stop the loop.
func schedule(ctx context.Context, appKonf config.Config, logger *zap.Logger) error {
	kafkaMetrics := kprom.NewMetrics("fraud_pipeline")
	a, err := BuildApp(ctx, appKonf, kafkaMetrics, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/metrics/kafka", kafkaMetrics.Handler())
	server := &http.Server{Addr: appKonf.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("scheduler started",
		zap.Duration("interval", appKonf.Schedule.Interval),
		zap.String("metrics_addr", appKonf.Metrics.Addr),
	)

	ticker := time.NewTicker(appKonf.Schedule.Interval)
	defer ticker.Stop()

	for {
		report, err := a.RunOnce(ctx)
		switch {
		case errors.Is(err, errors.RunInProgress):
			logger.Warn("run skipped, another run is active", zap.Error(err))
		case err != nil:
			logger.Error("run failed", zap.String("run_id", report.RunID), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
