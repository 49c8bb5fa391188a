package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"os"

	// Local Packages
	alerts "fraud-pipeline/alerts"
	config "fraud-pipeline/config"
	features "fraud-pipeline/features"
	feed "fraud-pipeline/feed"
	kafka "fraud-pipeline/kafka"
	models "fraud-pipeline/models"
	mongodb "fraud-pipeline/repositories/mongodb"
	postgres "fraud-pipeline/repositories/postgres"
	redis "fraud-pipeline/repositories/redis"
	scoring "fraud-pipeline/scoring"
	pipeline "fraud-pipeline/services/pipeline"

	// External Packages
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// App holds everything one process needs to execute runs.
type App struct {
	Runner *pipeline.Runner
	Lock   *redis.RunLock
	Owner  string

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp connects every collaborator named in the config. The encoder
// artifact is loaded here, once per process.
func BuildApp(ctx context.Context, cfg config.Config, kafkaMetrics *kprom.Metrics, logger *zap.Logger) (*App, error) {
	app := &App{Owner: runOwner()}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	artifact, err := features.LoadArtifact(cfg.Encoder.ArtifactPath)
	if err != nil {
		return nil, err
	}
	logger.Info("encoder artifact loaded",
		zap.String("path", cfg.Encoder.ArtifactPath),
		zap.String("version", artifact.Version),
		zap.Int("output_length", artifact.OutputLength),
		zap.Strings("input_columns", artifact.InputColumns()),
	)

	scorer, err := buildScorer(ctx, cfg.Scoring, logger)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg, app, logger)
	if err != nil {
		return nil, err
	}

	var failures pipeline.FailureSink
	if cfg.Redis.Enabled {
		redisClient, err := redis.Connect(ctx, cfg.Redis.URI, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("cannot create redis client: %w", err)
		}
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
		app.Lock = redis.NewRunLock(redisClient, cfg.Redis.LockKey, cfg.Redis.LockTTL)
		failures = redis.NewDeadLetterQueue(redisClient, logger)
	}

	notifier, err := buildNotifier(cfg, app, kafkaMetrics, logger)
	if err != nil {
		return nil, err
	}

	app.Runner = pipeline.NewRunner(pipeline.Stages{
		Extractor: feed.NewExtractor(cfg.Feed.URL, cfg.Feed.Timeout, logger),
		Encoder:   features.NewEncoder(artifact),
		Scorer:    scorer,
		Store:     store,
		Gate:      alerts.NewGate(notifier, cfg.Alert.EmailTo, cfg.Alert.Timeout, logger),
		Failures:  failures,
	}, cfg.Fraud.Threshold, logger)

	ok = true
	return app, nil
}

func buildScorer(ctx context.Context, cfg config.Scoring, logger *zap.Logger) (*scoring.Scorer, error) {
	endpoint := scoring.EndpointRef{
		Name:         cfg.EndpointName,
		Region:       cfg.Region,
		URL:          cfg.URL,
		ModelVersion: cfg.ModelVersion,
		Features:     cfg.Features,
	}

	var invoker scoring.Invoker
	switch cfg.Invoker {
	case config.InvokerHTTP:
		invoker = scoring.NewHTTPInvoker(cfg.URL, cfg.Timeout)
	default:
		sm, err := scoring.NewSageMakerInvoker(ctx, cfg.Region, cfg.EndpointName, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("cannot create sagemaker client: %w", err)
		}
		invoker = sm
	}
	return scoring.NewScorer(endpoint, invoker, logger), nil
}

// scoredStore is what both store backends provide.
type scoredStore interface {
	pipeline.Store
	Get(ctx context.Context, transNum string) (models.ScoredTransaction, bool, error)
}

func buildStore(ctx context.Context, cfg config.Config, app *App, logger *zap.Logger) (scoredStore, error) {
	if cfg.Store.Backend == config.BackendMongo {
		mongoClient, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Application)
		if err != nil {
			return nil, fmt.Errorf("cannot create mongo client: %w", err)
		}
		app.closers = append(app.closers, func() { _ = mongoClient.Disconnect(context.Background()) })

		repo := mongodb.NewScoredRepository(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection, cfg.Store.Timeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("cannot create mongo indexes: %w", err)
		}
		return repo, nil
	}

	db, err := postgres.Connect(ctx, postgresConfig(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	if cfg.Postgres.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			return nil, err
		}
	}
	return postgres.NewScoredRepository(db, cfg.Store.Timeout), nil
}

func buildNotifier(cfg config.Config, app *App, kafkaMetrics *kprom.Metrics, logger *zap.Logger) (alerts.Notifier, error) {
	switch cfg.Alert.Channel {
	case config.ChannelWebhook:
		return alerts.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.Timeout), nil
	case config.ChannelKafka:
		producer, err := kafka.NewProducer(&kafka.ProducerConfig{
			Brokers:         cfg.Kafka.Brokers,
			ClientID:        cfg.Kafka.ClientID,
			Topic:           cfg.Kafka.Topic,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, kafkaMetrics, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, producer.Close)
		return alerts.NewKafkaNotifier(producer), nil
	}
	return alerts.NewLogNotifier(logger), nil
}

func postgresConfig(cfg config.Postgres) postgres.Config {
	return postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

func runOwner() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s/%d", host, os.Getpid())
}

// RunOnce executes a single run, holding the cross-process lock when one is
// configured.
func (a *App) RunOnce(ctx context.Context) (pipeline.Report, error) {
	if a.Lock != nil {
		release, err := a.Lock.Acquire(ctx, a.Owner)
		if err != nil {
			return pipeline.Report{}, err
		}
		defer func() {
			_ = release(context.WithoutCancel(ctx))
		}()
	}
	return a.Runner.Run(ctx)
}

var (
	_ pipeline.FailureSink = (*redis.DeadLetterQueue)(nil)
	_ scoredStore          = (*postgres.ScoredRepository)(nil)
	_ scoredStore          = (*mongodb.ScoredRepository)(nil)
)
