package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/common/metrics"
)

var supportedFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"m4a":  true,
	"flac": true,
	"ogg":  true,
}

// IsSupportedFormat reports whether ext (with or without the leading dot)
// is an accepted audio format.
func IsSupportedFormat(ext string) bool {
	return supportedFormats[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// Timestamp is one reshaped engine segment.
type Timestamp struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the normalized transcription. Timestamps is never nil.
type Result struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Timestamps []Timestamp `json:"timestamps"`
}

// Adapter validates input, calls the engine and normalizes its output.
type Adapter struct {
	engine Engine
	logger logger.Logger
}

func NewAdapter(engine Engine, log logger.Logger) *Adapter {
	return &Adapter{
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"component": "transcriber"}),
	}
}

// Transcribe checks the extension before the file, so a missing .txt path
// reports UNSUPPORTED_FORMAT.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
	if !supportedFormats[ext] {
		return nil, apperrors.NewUnsupportedFormatError(ext)
	}
	if info, err := os.Stat(audioPath); err != nil || info.IsDir() {
		return nil, apperrors.NewFileNotFoundError(audioPath)
	}

	raw, err := a.engine.Transcribe(ctx, audioPath)
	if err != nil {
		metrics.EngineFailures.WithLabelValues("transcription").Inc()
		return nil, apperrors.NewTranscriptionError(err)
	}

	result := &Result{
		Text:       raw.Text,
		Confidence: Confidence(raw.Segments),
		Timestamps: make([]Timestamp, 0, len(raw.Segments)),
	}
	for _, seg := range raw.Segments {
		result.Timestamps = append(result.Timestamps, Timestamp{Start: seg.Start, End: seg.End, Text: seg.Text})
	}

	a.logger.Debug("audio transcribed", map[string]interface{}{
		"path":       audioPath,
		"segments":   len(result.Timestamps),
		"confidence": result.Confidence,
	})
	return result, nil
}

// Confidence averages the segment log-probabilities that are present and
// rescales them. No scored segments yields 0.
func Confidence(segments []Segment) float64 {
	var sum float64
	var n int
	for _, seg := range segments {
		if seg.AvgLogprob != nil {
			sum += *seg.AvgLogprob
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return NormalizeConfidence(sum / float64(n))
}

// NormalizeConfidence maps an average log-probability to [0,1] as
// clamp((avg+5)/10, 0, 1).
func NormalizeConfidence(avgLogprob float64) float64 {
	c := (avgLogprob + 5) / 10
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
