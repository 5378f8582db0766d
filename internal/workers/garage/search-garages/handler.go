// internal/workers/garage/search-garages/handler.go
package searchgarages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/metrics"
	"garage-advisor/internal/common/observability"
	"garage-advisor/internal/common/validation"
	"garage-advisor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "search-garages"
)

// Searcher runs one garage search.
type Searcher interface {
	Run(ctx context.Context, req models.SearchRequest) ([]models.RankedGarage, error)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	source       models.SourceKind
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, searcher Searcher, source models.SourceKind, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		source:       source,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

func parseInput(variables string) (*Input, error) {
	if result := validation.SearchRequest.ValidateBytes([]byte(variables)); !result.Valid {
		return nil, apperrors.NewInvalidParametersError(result.Summary())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidParametersError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	req := input.Normalize()

	garages, err := h.searcher.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	h.logger.Info("garage search finished", map[string]interface{}{
		"region":  req.Region,
		"make":    req.VehicleMake,
		"results": len(garages),
	})

	return &Output{
		Garages:     garages,
		ResultCount: len(garages),
		NoResults:   len(garages) == 0,
		Region:      req.Region,
		Source:      h.source,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(context.Background(), TaskType, "completed")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(start), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := string(apperrors.CodeOf(err))
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(context.Background(), TaskType, "failed")
	h.obs.RecordJobDuration(context.Background(), TaskType, time.Since(start), "failed")

	// The job context may already be past its deadline.
	sendCtx := ctx
	if ctx.Err() != nil {
		sendCtx = context.Background()
	}
	h.errorHandler.HandleJobError(sendCtx, client, job, err)
}

// Execute runs the search without a Zeebe client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
