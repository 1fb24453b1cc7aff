// Package jobs runs the periodic maintenance tasks and records each run.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wms-backend/internal/config"
	"wms-backend/internal/models"
	"wms-backend/internal/notify"
	"wms-backend/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnknownJob = errors.New("unknown job")

// Outcome is what a job reports back for its execution record.
type Outcome struct {
	Result         map[string]any
	ItemsProcessed *int
	ItemsAffected  *int
}

// Deps are the collaborators jobs may use.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Mailer notify.Mailer
}

type Func func(ctx context.Context, d *Deps) (Outcome, error)

// Definition binds a job name to its cron spec and body.
type Definition struct {
	Name     string
	Schedule string
	Run      Func
}

// Runner executes jobs, storing a JobExecution row per run.
type Runner struct {
	deps *Deps
	defs map[string]Definition
	log  *zap.Logger
}

func NewRunner(deps *Deps, defs []Definition, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return &Runner{deps: deps, defs: m, log: log}
}

func (r *Runner) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

func (r *Runner) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// encodeResult always yields a JSON object.
func encodeResult(res map[string]any) string {
	if res == nil {
		return "{}"
	}
	b, err := json.Marshal(res)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"encode_error": err.Error()})
	}
	return string(b)
}

// Run executes one job inside a span and records it under taskID.
func (r *Runner) Run(ctx context.Context, name, taskID string) (*models.JobExecution, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "job."+name,
		trace.WithAttributes(
			attribute.String("job.name", name),
			attribute.String("job.task_id", taskID),
		),
	)
	defer span.End()

	db := r.deps.DB.WithContext(ctx)
	exec := models.JobExecution{
		JobName:   name,
		TaskID:    taskID,
		Status:    models.JobRunning,
		StartedAt: time.Now(),
		Result:    "{}",
	}
	if err := db.Create(&exec).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record start")
		return nil, fmt.Errorf("record job start: %w", err)
	}

	log := r.log.With(zap.String("job", name), zap.String("task_id", taskID))
	log.Info("job started")

	out, runErr := def.Run(ctx, r.deps)

	finished := time.Now()
	updates := map[string]any{
		"finished_at":     finished,
		"result":          encodeResult(out.Result),
		"items_processed": out.ItemsProcessed,
		"items_affected":  out.ItemsAffected,
	}
	if runErr != nil {
		msg := runErr.Error()
		updates["status"] = models.JobFailed
		updates["error_message"] = msg
		exec.Status, exec.ErrorMessage = models.JobFailed, &msg
		span.RecordError(runErr)
		span.SetStatus(codes.Error, msg)
		log.Error("job failed", zap.Error(runErr), zap.Duration("duration", finished.Sub(exec.StartedAt)))
	} else {
		updates["status"] = models.JobSuccess
		exec.Status = models.JobSuccess
		log.Info("job finished", zap.Duration("duration", finished.Sub(exec.StartedAt)))
	}
	exec.FinishedAt = &finished
	exec.Result = updates["result"].(string)
	exec.ItemsProcessed, exec.ItemsAffected = out.ItemsProcessed, out.ItemsAffected

	// the run context may already be cancelled; the record must still land
	if err := r.deps.DB.Model(&exec).Updates(updates).Error; err != nil {
		log.Error("record job finish", zap.Error(err))
	}
	return &exec, runErr
}
