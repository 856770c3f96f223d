package router

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
	"media-pipeline/internal/common/observability"
	"media-pipeline/internal/common/validation"
	"media-pipeline/internal/pipeline/fields"
	"media-pipeline/internal/pipeline/intent"
	"media-pipeline/internal/pipeline/synthesize"
	"media-pipeline/internal/pipeline/transcribe"
)

// Kind is the route chosen for an input file.
type Kind string

const (
	KindAudio       Kind = "audio"
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindUnsupported Kind = "unsupported"
)

var routes = map[string]Kind{
	".wav":  KindAudio,
	".mp3":  KindAudio,
	".m4a":  KindAudio,
	".flac": KindAudio,
	".ogg":  KindAudio,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".txt":  KindText,
}

// Classify maps a file path to its route by lowercase extension.
func Classify(path string) Kind {
	if k, ok := routes[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindUnsupported
}

// OutputMode selects where artifacts go.
type OutputMode int

const (
	// OutputFile writes JSON or WAV to Request.OutputPath.
	OutputFile OutputMode = iota
	// OutputMemory returns artifacts in Result and leaves no files behind.
	OutputMemory
)

// IntentMode controls whether the text route reports the intent it computed.
type IntentMode int

const (
	IntentDiscard IntentMode = iota
	IntentExpose
)

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error)
}

type DocumentParser interface {
	Parse(ctx context.Context, imagePath string) (fields.Fields, error)
}

type IntentExtractor interface {
	Extract(text string) intent.Result
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesize.Request) (string, error)
}

// Dependencies are the adapters a Router dispatches to. Validator and
// Observability are optional.
type Dependencies struct {
	Transcriber   Transcriber
	Parser        DocumentParser
	Intents       IntentExtractor
	Synthesizer   Synthesizer
	Validator     *validation.Validator
	Observability *observability.Observability
}

type Options struct {
	Output OutputMode
	Intent IntentMode
}

// Request is one routing call. OutputPath is required in file mode.
type Request struct {
	InputPath  string
	OutputPath string
	Voice      *string
	Rate       *int
}

// AudioPayload is the JSON document produced by the audio route.
type AudioPayload struct {
	Transcription *transcribe.Result `json:"transcription"`
	Intent        intent.Result      `json:"intent"`
}

// Result describes what a route produced. Payload holds the JSON document
// for audio and image routes; Audio holds WAV bytes for the text route in
// memory mode.
type Result struct {
	Kind       Kind
	OutputPath string
	Payload    interface{}
	Audio      []byte
	Intent     *intent.Result
}

type Router struct {
	deps   Dependencies
	opts   Options
	logger logger.Logger
}

func New(deps Dependencies, opts Options, log logger.Logger) *Router {
	if deps.Observability == nil {
		deps.Observability = &observability.Observability{}
	}
	return &Router{
		deps:   deps,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "router"}),
	}
}

// Route dispatches one input file. The first adapter failure aborts the
// call; nothing is retried.
func (r *Router) Route(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	kind := Classify(req.InputPath)

	ctx, span := r.deps.Observability.StartSpan(ctx, "router.route",
		attribute.String("route.kind", string(kind)),
		attribute.String("route.input", filepath.Base(req.InputPath)),
	)
	defer span.End()

	result, err := r.dispatch(ctx, kind, req)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = string(apperrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RoutesTotal.WithLabelValues(string(kind), status).Inc()
	metrics.RouteDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
	r.deps.Observability.RecordRoute(ctx, string(kind), status, duration)

	logFields := map[string]interface{}{
		"input":       req.InputPath,
		"kind":        kind,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		logFields["error"] = err
		logFields["errorCategory"] = apperrors.GetErrorCategory(apperrors.CodeOf(err))
		r.logger.Warn("route failed", logFields)
		return nil, err
	}
	r.logger.Info("route completed", logFields)
	return result, nil
}

func (r *Router) dispatch(ctx context.Context, kind Kind, req Request) (*Result, error) {
	if kind == KindUnsupported {
		return nil, apperrors.NewUnsupportedFileTypeError(strings.ToLower(filepath.Ext(req.InputPath)))
	}
	if r.opts.Output == OutputFile && req.OutputPath == "" {
		return nil, apperrors.NewInvalidInputError("output path is required")
	}

	switch kind {
	case KindAudio:
		return r.routeAudio(ctx, req)
	case KindImage:
		return r.routeImage(ctx, req)
	default:
		return r.routeText(ctx, req)
	}
}

func (r *Router) routeAudio(ctx context.Context, req Request) (*Result, error) {
	tr, err := r.deps.Transcriber.Transcribe(ctx, req.InputPath)
	if err != nil {
		return nil, err
	}
	payload := AudioPayload{
		Transcription: tr,
		Intent:        r.deps.Intents.Extract(tr.Text),
	}
	return r.emitJSON(KindAudio, validation.SchemaAudio, payload, req.OutputPath)
}

func (r *Router) routeImage(ctx context.Context, req Request) (*Result, error) {
	extracted, err := r.deps.Parser.Parse(ctx, req.InputPath)
	if err != nil {
		return nil, err
	}
	return r.emitJSON(KindImage, validation.SchemaFields, extracted, req.OutputPath)
}

func (r *Router) routeText(ctx context.Context, req Request) (*Result, error) {
	text, err := readText(req.InputPath)
	if err != nil {
		return nil, err
	}

	ir := r.deps.Intents.Extract(text)
	if err := r.validate(validation.SchemaIntent, ir); err != nil {
		return nil, err
	}

	result := &Result{Kind: KindText}
	if r.opts.Intent == IntentExpose {
		result.Intent = &ir
	}

	synthReq := synthesize.Request{Text: text, Voice: req.Voice, Rate: req.Rate, OutputPath: req.OutputPath}
	if r.opts.Output == OutputFile {
		path, err := r.deps.Synthesizer.Synthesize(ctx, synthReq)
		if err != nil {
			return nil, err
		}
		result.OutputPath = path
		return result, nil
	}

	tmpDir, err := os.MkdirTemp("", "reply-*")
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer os.RemoveAll(tmpDir)

	synthReq.OutputPath = filepath.Join(tmpDir, "reply.wav")
	path, err := r.deps.Synthesizer.Synthesize(ctx, synthReq)
	if err != nil {
		return nil, err
	}
	result.Audio, err = os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewSynthesisError(err)
	}
	return result, nil
}

func (r *Router) emitJSON(kind Kind, schema string, payload interface{}, outputPath string) (*Result, error) {
	if err := r.validate(schema, payload); err != nil {
		return nil, err
	}

	result := &Result{Kind: kind, Payload: payload}
	if r.opts.Output == OutputMemory {
		return result, nil
	}

	if err := writeJSON(outputPath, payload); err != nil {
		return nil, err
	}
	result.OutputPath = outputPath
	return result, nil
}

func (r *Router) validate(schema string, doc interface{}) error {
	if r.deps.Validator == nil {
		return nil
	}
	return r.deps.Validator.Validate(schema, doc)
}

func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.NewFileNotFoundError(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return string(data), nil
}

func writeJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewOutputWriteError(path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return apperrors.NewOutputWriteError(path, err)
	}
	return nil
}
