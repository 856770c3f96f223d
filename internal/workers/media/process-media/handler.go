package processmedia

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
	"media-pipeline/internal/common/observability"
	"media-pipeline/internal/pipeline/router"
)

const TaskType = "process-media"

// commandTimeout bounds the complete/fail commands sent after a job ends.
// They never inherit the job timeout.
const commandTimeout = 10 * time.Second

// Processor routes one file. The worker expects a Router in file mode with
// the text intent exposed.
type Processor interface {
	Route(ctx context.Context, req router.Request) (*router.Result, error)
}

type Handler struct {
	config       *Config
	processor    Processor
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger

	complete func(ctx context.Context, client worker.JobClient, job entities.Job, output *Output)
	fail     func(ctx context.Context, client worker.JobClient, job entities.Job, err error) string
}

type HandlerOptions struct {
	Config        *Config
	Processor     Processor
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("%s: processor is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	obs := opts.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}

	h := &Handler{
		config:       cfg,
		processor:    opts.Processor,
		errorHandler: errors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
	h.complete = h.completeJob
	h.fail = h.errorHandler.HandleJobError
	return h, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job.GetVariables())
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, input)
	}

	cmdCtx, cmdCancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cmdCancel()

	if err == nil {
		h.complete(cmdCtx, client, job, output)
		h.recordOutcome(cmdCtx, "success", startTime)
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		return
	}

	code := h.fail(cmdCtx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.recordOutcome(cmdCtx, "failed", startTime)
}

// Execute routes the input described by the job variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.processor.Route(ctx, router.Request{
		InputPath:  input.InputPath,
		OutputPath: input.OutputPath,
		Voice:      input.Voice,
		Rate:       input.Rate,
	})
	if err != nil {
		return nil, err
	}

	output := &Output{
		Kind:       string(result.Kind),
		OutputPath: result.OutputPath,
		Intent:     result.Intent,
	}
	h.logger.Info("media processed", map[string]interface{}{
		"kind":       output.Kind,
		"outputPath": output.OutputPath,
	})
	return output, nil
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}

	input.InputPath = strings.TrimSpace(input.InputPath)
	input.OutputPath = strings.TrimSpace(input.OutputPath)

	var missing []string
	if input.InputPath == "" {
		missing = append(missing, "inputPath")
	}
	if input.OutputPath == "" {
		missing = append(missing, "outputPath")
	}
	if len(missing) > 0 {
		return nil, errors.NewInvalidInputError("missing required variables: " + strings.Join(missing, ", "))
	}
	if input.Voice != nil && strings.TrimSpace(*input.Voice) == "" {
		input.Voice = nil
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
	}
}

func (h *Handler) recordOutcome(ctx context.Context, status string, start time.Time) {
	duration := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, duration, status)
}
