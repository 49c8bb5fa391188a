package pipeline

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sync/atomic"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	metrics "fraud-pipeline/metrics"
	models "fraud-pipeline/models"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const failureSinkTimeout = 5 * time.Second

type Extractor interface {
	FetchCurrent(ctx context.Context) (models.RawTransaction, error)
}

type Encoder interface {
	Encode(raw models.RawTransaction) (models.FeatureVector, error)
}

type Scorer interface {
	Score(ctx context.Context, vec models.FeatureVector) (models.Score, error)
}

type Store interface {
	Upsert(ctx context.Context, raw models.RawTransaction, probability, threshold float64, modelVersion string) (models.ScoredTransaction, error)
}

type Gate interface {
	ShouldNotify(scored models.ScoredTransaction) bool
	Notify(ctx context.Context, scored models.ScoredTransaction, threshold float64) error
}

// FailureSink receives failed runs. Writes are best effort.
type FailureSink interface {
	Record(ctx context.Context, failure models.RunFailure) error
}

type Stages struct {
	Extractor Extractor
	Encoder   Encoder
	Scorer    Scorer
	Store     Store
	Gate      Gate
	Failures  FailureSink
}

// Report describes one finished run, successful or not.
type Report struct {
	RunID     string                    `json:"run_id"`
	Trail     []State                   `json:"trail"`
	TransNum  string                    `json:"trans_num,omitempty"`
	Scored    *models.ScoredTransaction `json:"scored,omitempty"`
	Notified  bool                      `json:"notified"`
	Persisted bool                      `json:"persisted"`
	Durations map[string]time.Duration  `json:"durations"`
}

// State is the last state the run reached.
func (r Report) State() State {
	if len(r.Trail) == 0 {
		return Idle
	}
	return r.Trail[len(r.Trail)-1]
}

// RunError is the terminal error of a failed run.
type RunError struct {
	Stage State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed at %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Runner executes extract, transform, score, persist and gate in order for
// a single transaction. Only one Run may be active at a time.
type Runner struct {
	stages    Stages
	threshold float64
	logger    *zap.Logger
	running   atomic.Bool
}

func NewRunner(stages Stages, threshold float64, logger *zap.Logger) *Runner {
	return &Runner{stages: stages, threshold: threshold, logger: logger}
}

// Run performs one full pipeline run. On failure the returned Report still
// carries the trail up to the failed stage and a *RunError is returned.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, errors.RunInProgressErr("runner")
	}
	defer r.running.Store(false)

	report := Report{
		RunID:     uuid.NewString(),
		Trail:     []State{Idle},
		Durations: make(map[string]time.Duration),
	}
	logger := r.logger.With(zap.String("run_id", report.RunID))
	logger.Info("run started")

	// Extracting
	start := r.enter(&report, Extracting)
	raw, err := r.stages.Extractor.FetchCurrent(ctx)
	r.leave(&report, Extracting, start)
	if err != nil {
		return report, r.fail(ctx, logger, &report, Extracting, err)
	}
	report.TransNum = raw.TransNum
	logger = logger.With(zap.String("trans_num", raw.TransNum))

	// Transforming
	start = r.enter(&report, Transforming)
	vec, err := r.stages.Encoder.Encode(raw)
	r.leave(&report, Transforming, start)
	if err != nil {
		return report, r.fail(ctx, logger, &report, Transforming, err)
	}

	// Scoring
	start = r.enter(&report, Scoring)
	score, err := r.stages.Scorer.Score(ctx, vec)
	r.leave(&report, Scoring, start)
	if err != nil {
		return report, r.fail(ctx, logger, &report, Scoring, err)
	}
	metrics.FraudProbability.Observe(score.Probability)
	logger.Info("transaction scored",
		zap.Float64("fraud_proba", score.Probability),
		zap.String("model_version", score.ModelVersion),
	)

	// Persisting
	start = r.enter(&report, Persisting)
	scored, err := r.stages.Store.Upsert(ctx, raw, score.Probability, r.threshold, score.ModelVersion)
	r.leave(&report, Persisting, start)
	if err != nil {
		return report, r.fail(ctx, logger, &report, Persisting, err)
	}
	report.Persisted = true
	report.Scored = &scored

	// Gating
	start = r.enter(&report, Gating)
	if !r.stages.Gate.ShouldNotify(scored) {
		r.leave(&report, Gating, start)
		report.Trail = append(report.Trail, NotifySkipped, Done)
		metrics.RunsTotal.WithLabelValues("skipped").Inc()
		logger.Info("run finished", zap.Bool("fraud_flag", false))
		return report, nil
	}
	err = r.stages.Gate.Notify(ctx, scored, r.threshold)
	r.leave(&report, Gating, start)
	if err != nil {
		return report, r.fail(ctx, logger, &report, Gating, err)
	}
	report.Notified = true
	report.Trail = append(report.Trail, NotifySent, Done)
	metrics.RunsTotal.WithLabelValues("notified").Inc()
	logger.Info("run finished", zap.Bool("fraud_flag", true))
	return report, nil
}

func (r *Runner) enter(report *Report, s State) time.Time {
	report.Trail = append(report.Trail, s)
	return time.Now()
}

func (r *Runner) leave(report *Report, s State, start time.Time) {
	elapsed := time.Since(start)
	report.Durations[s.String()] = elapsed
	metrics.StageDuration.WithLabelValues(s.String()).Observe(elapsed.Seconds())
}

// fail moves the run to Failed and hands it to the failure sink.
func (r *Runner) fail(ctx context.Context, logger *zap.Logger, report *Report, stage State, err error) error {
	report.Trail = append(report.Trail, Failed)
	kind := errors.KindOf(err).String()

	metrics.RunsTotal.WithLabelValues("failed").Inc()
	metrics.RunFailuresTotal.WithLabelValues(stage.String(), kind).Inc()
	logger.Error("run failed",
		zap.String("stage", stage.String()),
		zap.String("kind", kind),
		zap.Bool("persisted", report.Persisted),
		zap.Error(err),
	)

	if r.stages.Failures != nil {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureSinkTimeout)
		defer cancel()

		failure := models.RunFailure{
			RunID:     report.RunID,
			Stage:     stage.String(),
			Kind:      kind,
			Message:   err.Error(),
			TransNum:  report.TransNum,
			Persisted: report.Persisted,
			FailedAt:  time.Now().UTC(),
		}
		if sinkErr := r.stages.Failures.Record(sinkCtx, failure); sinkErr != nil {
			logger.Warn("cannot record failed run", zap.Error(sinkErr))
		}
	}

	return &RunError{Stage: stage, Err: err}
}
